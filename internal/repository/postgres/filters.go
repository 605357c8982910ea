package postgres

import (
	"fmt"
	"strings"

	"conferencecentral/internal/query"
)

var sessionColumns = map[string]string{
	"name":          "name",
	"highlights":    "highlights",
	"typeOfSession": "type_of_session",
	"date":          "date",
	"startTime":     "start_time",
	"duration":      "duration",
}

var conferenceColumns = map[string]string{
	"name":         "name",
	"city":         "city",
	"topics":       "topics",
	"month":        "month",
	"maxAttendees": "max_attendees",
}

// whereBuilder accumulates AND-ed predicates with numbered placeholders.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

// condition translates c. Repeated columns match when any element does.
func (b *whereBuilder) condition(columns map[string]string, c query.Condition) error {
	col, ok := columns[c.Field.Name]
	if !ok {
		return fmt.Errorf("%w: %s cannot be filtered here", query.ErrInvalidFilter, c.Field.Name)
	}
	p := b.arg(c.Value.Interface())
	switch {
	case c.Field.Repeated && c.Operator == query.EQ:
		b.add(fmt.Sprintf("%s = ANY(%s)", p, col))
	case c.Field.Repeated:
		b.add(fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS v WHERE v %s %s)", col, sqlOperator(c.Operator), p))
	default:
		b.add(fmt.Sprintf("%s %s %s", col, sqlOperator(c.Operator), p))
	}
	return nil
}

func (b *whereBuilder) String() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func sqlOperator(op query.Operator) string {
	if op == query.NE {
		return "<>"
	}
	return string(op)
}

func orderBy(columns map[string]string, fields []string) string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if col, ok := columns[f]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(cols, ", ")
}
