package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONStringArray is a string list stored as a JSON array in a TEXT column
type JSONStringArray []string

// Scan implements the sql.Scanner interface for JSONStringArray
func (j *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = JSONStringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		return j.unmarshal([]byte(v))
	case []byte:
		return j.unmarshal(v)
	default:
		return fmt.Errorf("cannot scan type %T into JSONStringArray", value)
	}
}

func (j *JSONStringArray) unmarshal(data []byte) error {
	if len(data) == 0 || string(data) == "[]" {
		*j = JSONStringArray{}
		return nil
	}
	return json.Unmarshal(data, (*[]string)(j))
}

// Value implements the driver.Valuer interface for JSONStringArray
func (j JSONStringArray) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(j))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
