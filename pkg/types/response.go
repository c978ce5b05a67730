package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ListEnvelope wraps collection responses with their size.
type ListEnvelope struct {
	Data       any    `json:"data"`
	Count      int    `json:"count"`
	NextCursor string `json:"nextCursor,omitempty"`
}
