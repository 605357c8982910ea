package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	name       string
	highlights []string
	typ        string
	date       string
	startTime  string
	duration   *int64
}

func (s fakeSession) FieldValues(field string) []Value {
	switch field {
	case "highlights":
		return StringValues(s.highlights)
	case "typeOfSession":
		if s.typ != "" {
			return []Value{StringValue(s.typ)}
		}
	case "date":
		if d, err := ParseDate(s.date); err == nil {
			return []Value{DateValue(d)}
		}
	case "startTime":
		if t, err := ParseTimeOfDay(s.startTime); err == nil {
			return []Value{TimeValue(t)}
		}
	case "duration":
		if s.duration != nil {
			return []Value{IntValue(*s.duration)}
		}
	}
	return nil
}

func minutes(n int64) *int64 { return &n }

func names(in []fakeSession) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, s.name)
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		fields      FieldSet
		specs       []Spec
		opts        Options
		wantErr     bool
		wantEq      int
		wantIneq    int
		wantOrderBy []string
	}{
		{
			name:        "no filters orders by name",
			fields:      SessionFields,
			wantOrderBy: []string{"name"},
		},
		{
			name:   "enum names and symbols are both accepted",
			fields: SessionFields,
			specs: []Spec{
				{Field: "TYPE", Operator: "EQ", Value: "workshop"},
				{Field: "startTime", Operator: "<", Value: "19:00"},
				{Field: "DURATION", Operator: "GTEQ", Value: "30"},
			},
			wantEq:      1,
			wantIneq:    2,
			wantOrderBy: []string{"name"},
		},
		{
			name:    "unknown field",
			fields:  SessionFields,
			specs:   []Spec{{Field: "ROOM", Operator: "EQ", Value: "a"}},
			wantErr: true,
		},
		{
			name:    "unknown operator",
			fields:  SessionFields,
			specs:   []Spec{{Field: "TYPE", Operator: "LIKE", Value: "a"}},
			wantErr: true,
		},
		{
			name:    "malformed duration",
			fields:  SessionFields,
			specs:   []Spec{{Field: "DURATION", Operator: "GT", Value: "long"}},
			wantErr: true,
		},
		{
			name:    "malformed date",
			fields:  SessionFields,
			specs:   []Spec{{Field: "DATE", Operator: "EQ", Value: "2024-13-40"}},
			wantErr: true,
		},
		{
			name:    "malformed time",
			fields:  SessionFields,
			specs:   []Spec{{Field: "START_TIME", Operator: "LT", Value: "7pm"}},
			wantErr: true,
		},
		{
			name:   "conference inequality on one field orders by it",
			fields: ConferenceFields,
			specs: []Spec{
				{Field: "MONTH", Operator: "GT", Value: "3"},
				{Field: "month", Operator: "LTEQ", Value: "9"},
				{Field: "CITY", Operator: "EQ", Value: "London"},
			},
			opts:        Options{SingleInequalityField: true},
			wantEq:      1,
			wantIneq:    2,
			wantOrderBy: []string{"month", "name"},
		},
		{
			name:   "conference inequality on two fields",
			fields: ConferenceFields,
			specs: []Spec{
				{Field: "MONTH", Operator: "GT", Value: "3"},
				{Field: "MAX_ATTENDEES", Operator: "LT", Value: "100"},
			},
			opts:    Options{SingleInequalityField: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse(tt.fields, tt.specs, tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFilter))
				return
			}
			require.NoError(t, err)
			assert.Len(t, plan.Equality, tt.wantEq)
			assert.Len(t, plan.Inequality, tt.wantIneq)
			assert.Equal(t, tt.wantOrderBy, plan.OrderBy)
		})
	}
}

func TestApplyAll(t *testing.T) {
	sessions := []fakeSession{
		{name: "Go Concurrency", typ: "workshop", startTime: "09:30", duration: minutes(90), highlights: []string{"go", "channels"}, date: "2024-05-01"},
		{name: "Keynote", typ: "keynote", startTime: "19:30", duration: minutes(45), date: "2024-05-01"},
		{name: "Late Night Hacking", typ: "workshop", startTime: "22:00", date: "2024-05-02"},
		{name: "Lunch Talk", startTime: "12:00", duration: minutes(20), highlights: []string{"food"}},
		{name: "Untimed", typ: "talk"},
	}

	tests := []struct {
		name  string
		specs []Spec
		want  []string
	}{
		{
			name:  "not workshop and before 19:00",
			specs: []Spec{{Field: "TYPE", Operator: "NE", Value: "workshop"}, {Field: "START_TIME", Operator: "LT", Value: "19:00"}},
			want:  []string{},
		},
		{
			name:  "absent values are excluded",
			specs: []Spec{{Field: "TYPE", Operator: "NE", Value: "workshop"}},
			want:  []string{"Keynote", "Untimed"},
		},
		{
			name:  "before 19:00 with seconds",
			specs: []Spec{{Field: "START_TIME", Operator: "LT", Value: "19:00:00"}},
			want:  []string{"Go Concurrency", "Lunch Talk"},
		},
		{
			name:  "independent passes on different fields",
			specs: []Spec{{Field: "DURATION", Operator: "GTEQ", Value: "30"}, {Field: "START_TIME", Operator: "GT", Value: "09:00"}},
			want:  []string{"Go Concurrency", "Keynote"},
		},
		{
			name:  "date compares chronologically",
			specs: []Spec{{Field: "DATE", Operator: "GT", Value: "2024-05-01T00:00:00"}},
			want:  []string{"Late Night Hacking"},
		},
		{
			name:  "repeated field matches on any element",
			specs: []Spec{{Field: "HIGHLIGHT", Operator: "GT", Value: "f"}},
			want:  []string{"Go Concurrency", "Lunch Talk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse(SessionFields, tt.specs, Options{})
			require.NoError(t, err)
			got := ApplyAll(sessions, plan.Inequality)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func permutations(conds []Condition) [][]Condition {
	if len(conds) <= 1 {
		return [][]Condition{append([]Condition(nil), conds...)}
	}
	var out [][]Condition
	for i := range conds {
		rest := make([]Condition, 0, len(conds)-1)
		rest = append(rest, conds[:i]...)
		rest = append(rest, conds[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Condition{conds[i]}, p...))
		}
	}
	return out
}

func TestApplyAll_OrderIndependent(t *testing.T) {
	sessions := []fakeSession{
		{name: "Go Concurrency", typ: "workshop", startTime: "09:30", duration: minutes(90)},
		{name: "Keynote", typ: "keynote", startTime: "19:30", duration: minutes(45)},
		{name: "Late Night Hacking", typ: "workshop", startTime: "22:00", duration: minutes(120)},
		{name: "Lightning", typ: "talk", startTime: "10:00", duration: minutes(5)},
		{name: "Lunch Talk", startTime: "12:00", duration: minutes(20)},
		{name: "Short Break", typ: "break", startTime: "15:00", duration: minutes(15)},
	}
	plan, err := Parse(SessionFields, []Spec{
		{Field: "TYPE", Operator: "NE", Value: "talk"},
		{Field: "DURATION", Operator: "GTEQ", Value: "20"},
		{Field: "START_TIME", Operator: "LT", Value: "20:00"},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, plan.Inequality, 3)

	orders := permutations(plan.Inequality)
	require.Len(t, orders, 6)
	for _, conds := range orders {
		assert.Equal(t, []string{"Go Concurrency", "Keynote"}, names(ApplyAll(sessions, conds)))
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(425), tod)
	assert.Equal(t, "07:05", tod.String())

	tod, err = ParseTimeOfDay("23:59:59")
	require.NoError(t, err)
	assert.Equal(t, "23:59", tod.String())

	_, err = ParseTimeOfDay("25:00")
	require.Error(t, err)
}

func TestDateJSONText(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2024-02-29 extra")))
	assert.Equal(t, 2, d.Month())
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", string(b))
}
