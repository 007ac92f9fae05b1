package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/steelsid0609/training-rcf/internal/dates"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Date is a wrapper around gorm.io/datatypes.Date that serializes as YYYY-MM-DD
type Date struct {
	datatypes.Date
}

// NewDate truncates t to a calendar date
func NewDate(t time.Time) Date {
	return Date{datatypes.Date(dates.Truncate(t))}
}

// NewDatePtr is NewDate for optional columns
func NewDatePtr(t time.Time) *Date {
	d := NewDate(t)
	return &d
}

// Value promotes the embedded Date's Value method
func (d Date) Value() (driver.Value, error) {
	return d.Date.Value()
}

// Scan accepts driver time values and the text forms some drivers return for DATE columns
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return d.scanText(string(v))
	case string:
		return d.scanText(v)
	}
	return d.Date.Scan(value)
}

func (d *Date) scanText(s string) error {
	if len(s) < len(dates.Layout) {
		return fmt.Errorf("invalid date value %q", s)
	}
	t, err := dates.Parse(s[:len(dates.Layout)])
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// GormDBDataType ensures the correct data type is used for each database driver.
func (Date) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlserver", "mssql":
		return "DATE"
	}
	return "date"
}

// Time returns the calendar date at UTC midnight
func (d Date) Time() time.Time {
	return dates.Truncate(time.Time(d.Date))
}

// IsZero reports whether the date was never set
func (d Date) IsZero() bool {
	return time.Time(d.Date).IsZero()
}

// String renders the date as YYYY-MM-DD
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return dates.Format(d.Time())
}

// MarshalJSON renders the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := dates.Parse(s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// UnmarshalYAML accepts a YYYY-MM-DD scalar, quoted or not
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "" || value.Tag == "!!null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

// ParseDate reads a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := dates.Parse(s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}
