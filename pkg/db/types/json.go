package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON stores an arbitrary value as a JSON document. Postgres maps it to jsonb,
// sqlite to text.
type JSON[T any] struct {
	Data T
}

// NewJSON wraps v for persistence.
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{Data: v}
}

func (j *JSON[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		j.Data = zero
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("JSON: unsupported Scan type %T", src)
	}
	if len(raw) == 0 {
		var zero T
		j.Data = zero
		return nil
	}
	return json.Unmarshal(raw, &j.Data)
}

func (j JSON[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// GormDBDataType picks the column type per dialect for AutoMigrate.
func (JSON[T]) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
