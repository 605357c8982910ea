// Package query parses client filter specs into a plan that splits
// equality conditions (pushed to the store) from inequality conditions,
// and applies inequality conditions to loaded records in memory.
package query

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Field describes a filterable entity attribute.
type Field struct {
	Name     string
	Type     Type
	Repeated bool
}

// FieldSet maps the names a client may use to the field they refer to.
type FieldSet map[string]Field

func (fs FieldSet) Lookup(name string) (Field, bool) {
	f, ok := fs[strings.TrimSpace(name)]
	return f, ok
}

var (
	sessionHighlights = Field{Name: "highlights", Type: TypeString, Repeated: true}
	sessionType       = Field{Name: "typeOfSession", Type: TypeString}
	sessionDate       = Field{Name: "date", Type: TypeDate}
	sessionStartTime  = Field{Name: "startTime", Type: TypeTime}
	sessionDuration   = Field{Name: "duration", Type: TypeInt}

	conferenceCity         = Field{Name: "city", Type: TypeString}
	conferenceTopics       = Field{Name: "topics", Type: TypeString, Repeated: true}
	conferenceMonth        = Field{Name: "month", Type: TypeInt}
	conferenceMaxAttendees = Field{Name: "maxAttendees", Type: TypeInt}
)

// SessionFields are the filterable session attributes.
var SessionFields = FieldSet{
	"HIGHLIGHT":     sessionHighlights,
	"highlight":     sessionHighlights,
	"highlights":    sessionHighlights,
	"TYPE":          sessionType,
	"type":          sessionType,
	"typeOfSession": sessionType,
	"DATE":          sessionDate,
	"date":          sessionDate,
	"START_TIME":    sessionStartTime,
	"startTime":     sessionStartTime,
	"DURATION":      sessionDuration,
	"duration":      sessionDuration,
}

// ConferenceFields are the filterable conference attributes.
var ConferenceFields = FieldSet{
	"CITY":          conferenceCity,
	"city":          conferenceCity,
	"TOPIC":         conferenceTopics,
	"topic":         conferenceTopics,
	"topics":        conferenceTopics,
	"MONTH":         conferenceMonth,
	"month":         conferenceMonth,
	"MAX_ATTENDEES": conferenceMaxAttendees,
	"maxAttendees":  conferenceMaxAttendees,
}

// Operator is a comparison operator in its symbolic form.
type Operator string

const (
	EQ   Operator = "="
	GT   Operator = ">"
	GTEQ Operator = ">="
	LT   Operator = "<"
	LTEQ Operator = "<="
	NE   Operator = "!="
)

var operatorNames = map[string]Operator{
	"EQ": EQ, "GT": GT, "GTEQ": GTEQ, "LT": LT, "LTEQ": LTEQ, "NE": NE,
	"=": EQ, "==": EQ, ">": GT, ">=": GTEQ, "<": LT, "<=": LTEQ, "!=": NE, "<>": NE,
}

// ParseOperator accepts an operator by enum name (EQ, GTEQ...) or symbol.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorNames[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, s)
	}
	return op, nil
}

func (op Operator) IsEquality() bool { return op == EQ }

// Holds reports whether a comparison result satisfies op.
func (op Operator) Holds(c int) bool {
	switch op {
	case EQ:
		return c == 0
	case GT:
		return c > 0
	case GTEQ:
		return c >= 0
	case LT:
		return c < 0
	case LTEQ:
		return c <= 0
	case NE:
		return c != 0
	}
	return false
}

// Spec is a filter as sent by a client.
type Spec struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Condition is a parsed, typed filter.
type Condition struct {
	Field    Field
	Operator Operator
	Value    Value
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field.Name, c.Operator, c.Value)
}

// Record is implemented by entities that can be filtered in memory.
// FieldValues returns nil when the field is absent on the record.
type Record interface {
	FieldValues(field string) []Value
}

// Match reports whether r satisfies c. Absent values never match; for a
// repeated field any one element satisfying c is enough.
func (c Condition) Match(r Record) bool {
	for _, v := range r.FieldValues(c.Field.Name) {
		if v.Type() == c.Value.Type() && c.Operator.Holds(v.Compare(c.Value)) {
			return true
		}
	}
	return false
}

// Options tune Parse for a particular store.
type Options struct {
	// SingleInequalityField rejects plans whose inequality filters
	// span more than one field.
	SingleInequalityField bool
}

// Plan is the parsed form of a list of filter specs.
type Plan struct {
	Equality   []Condition
	Inequality []Condition
	// OrderBy lists field names; "name" is always the last key.
	OrderBy []string
}

// InequalityField returns the field of the first inequality condition.
func (p *Plan) InequalityField() (Field, bool) {
	if len(p.Inequality) == 0 {
		return Field{}, false
	}
	return p.Inequality[0].Field, true
}

// Parse validates specs against fields and splits them by operator kind.
func Parse(fields FieldSet, specs []Spec, opts Options) (*Plan, error) {
	plan := &Plan{}
	for _, s := range specs {
		f, ok := fields.Lookup(s.Field)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, s.Field)
		}
		op, err := ParseOperator(s.Operator)
		if err != nil {
			return nil, err
		}
		v, err := ParseValue(f, s.Value)
		if err != nil {
			return nil, err
		}
		c := Condition{Field: f, Operator: op, Value: v}
		if op.IsEquality() {
			plan.Equality = append(plan.Equality, c)
			continue
		}
		if opts.SingleInequalityField && len(plan.Inequality) > 0 && plan.Inequality[0].Field.Name != f.Name {
			return nil, fmt.Errorf("%w: inequality filter is allowed on only one field", ErrInvalidFilter)
		}
		plan.Inequality = append(plan.Inequality, c)
	}
	if f, ok := plan.InequalityField(); ok && opts.SingleInequalityField {
		plan.OrderBy = []string{f.Name, "name"}
	} else {
		plan.OrderBy = []string{"name"}
	}
	return plan, nil
}

// Apply keeps the records matching c, preserving order.
func Apply[T Record](records []T, c Condition) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyAll runs one Apply pass per condition.
func ApplyAll[T Record](records []T, conds []Condition) []T {
	for _, c := range conds {
		records = Apply(records, c)
	}
	return records
}
