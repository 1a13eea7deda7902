package db

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/mscrnt/emgd_confgen/pkg/form"
)

// Profile is a named, saved form state
type Profile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Form        Record    `json:"form"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Generation records one rendered configuration
type Generation struct {
	ID         int64     `json:"id"`
	Profile    string    `json:"profile,omitempty"`
	ConfigName string    `json:"config_name"`
	Mode       string    `json:"mode"`
	Skipped    int       `json:"skipped"`
	Output     string    `json:"output,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record stores form values as a pipe-delimited key=value string
type Record form.Values

// Value implements the driver.Valuer interface
func (r Record) Value() (driver.Value, error) {
	if r == nil {
		return "", nil
	}
	return form.Encode(form.Values(r))
}

// Scan implements the sql.Scanner interface
func (r *Record) Scan(value interface{}) error {
	var text string
	switch v := value.(type) {
	case nil:
		*r = Record{}
		return nil
	case []byte:
		text = string(v)
	case string:
		text = v
	default:
		return fmt.Errorf("cannot scan type %T into Record", value)
	}

	values, err := form.Decode(text)
	if err != nil {
		return err
	}
	*r = Record(values)
	return nil
}

// Values returns the record as form values
func (r Record) Values() form.Values {
	return form.Values(r)
}

// GenerationFilter represents filters for querying generations
type GenerationFilter struct {
	Profile   string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// ExportFormat represents the format for exporting data
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)
