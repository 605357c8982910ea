package query

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the value type of a filterable field.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeDate
	TypeTime
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	}
	return "unknown"
}

const dateLayout = "2006-01-02"

// Date is a calendar day. It serializes as YYYY-MM-DD.
type Date struct {
	t time.Time
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a date from the first ten characters of s.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

func (d Date) Time() time.Time { return d.t }
func (d Date) Month() int { return int(d.t.Month()) }
func (d Date) String() string { return d.t.Format(dateLayout) }

func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts HH:MM or HH:MM:SS. Seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, err
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value is a typed filter operand or record field value.
type Value struct {
	typ Type
	s   string
	i   int64
	d   Date
}

func StringValue(s string) Value { return Value{typ: TypeString, s: s} }
func IntValue(i int64) Value { return Value{typ: TypeInt, i: i} }
func DateValue(d Date) Value { return Value{typ: TypeDate, d: d} }
func TimeValue(t TimeOfDay) Value { return Value{typ: TypeTime, i: int64(t)} }
func (v Value) Type() Type { return v.typ }
func (v Value) Equal(o Value) bool { return v.typ == o.typ && v.Compare(o) == 0 }

// StringValues wraps each element of ss.
func StringValues(ss []string) []Value {
	out := make([]Value, 0, len(ss))
	for _, s := range ss {
		out = append(out, StringValue(s))
	}
	return out
}

// Compare orders values of the same type. Values of different types
// compare by type so the result is still a total order.
func (v Value) Compare(o Value) int {
	if v.typ != o.typ {
		return cmp.Compare(v.typ, o.typ)
	}
	switch v.typ {
	case TypeString:
		return strings.Compare(v.s, o.s)
	case TypeDate:
		return v.d.Compare(o.d)
	default:
		return cmp.Compare(v.i, o.i)
	}
}

// Interface returns the value in the form a SQL driver accepts.
func (v Value) Interface() any {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeDate:
		return v.d.Time()
	default:
		return v.i
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeDate:
		return v.d.String()
	case TypeTime:
		return TimeOfDay(v.i).String()
	}
	return strconv.FormatInt(v.i, 10)
}

// ParseValue converts raw into a value of the field's type.
func ParseValue(f Field, raw string) (Value, error) {
	switch f.Type {
	case TypeString:
		return StringValue(raw), nil
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a valid %s for %s", ErrInvalidFilter, raw, f.Type, f.Name)
		}
		return IntValue(n), nil
	case TypeDate:
		d, err := ParseDate(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a valid %s for %s", ErrInvalidFilter, raw, f.Type, f.Name)
		}
		return DateValue(d), nil
	case TypeTime:
		t, err := ParseTimeOfDay(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a valid %s for %s", ErrInvalidFilter, raw, f.Type, f.Name)
		}
		return TimeValue(t), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported field type for %s", ErrInvalidFilter, f.Name)
}
