package instance

import "os"

// GetID names the running process in logs. Platform dyno names win over the
// container hostname.
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
