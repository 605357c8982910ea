package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

const sessionColumnList = `websafe_key, conference_key, name, highlights, speaker, speaker_key, duration, type_of_session, date, start_time`

type sessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) domain.SessionRepository {
	return &sessionRepository{
		DB: db,
	}
}

func scanSession(row rowScanner) (*domain.Session, error) {
	s := &domain.Session{}
	var key, confKey string
	var highlights pq.StringArray
	var speakerKey sql.NullString
	var duration, startTime sql.NullInt64
	var date sql.NullTime
	if err := row.Scan(&key, &confKey, &s.Name, &highlights, &s.Speaker, &speakerKey,
		&duration, &s.TypeOfSession, &date, &startTime); err != nil {
		return nil, err
	}
	var err error
	if s.Key, err = domain.ParseKey(key); err != nil {
		return nil, fmt.Errorf("stored session key: %w", err)
	}
	if s.ConferenceKey, err = domain.ParseKey(confKey); err != nil {
		return nil, fmt.Errorf("stored conference key: %w", err)
	}
	if speakerKey.Valid && speakerKey.String != "" {
		if s.SpeakerKey, err = domain.ParseKey(speakerKey.String); err != nil {
			return nil, fmt.Errorf("stored speaker key: %w", err)
		}
	}
	s.Highlights = []string(highlights)
	if duration.Valid {
		d := int(duration.Int64)
		s.Duration = &d
	}
	s.Date = scanDate(date)
	if startTime.Valid {
		t := query.TimeOfDay(startTime.Int64)
		s.StartTime = &t
	}
	return s, nil
}

func sessionArgs(s *domain.Session) []any {
	var duration, startTime any
	if s.Duration != nil {
		duration = *s.Duration
	}
	if s.StartTime != nil {
		startTime = int(*s.StartTime)
	}
	return []any{
		s.Key.Encode(), s.ConferenceKey.Encode(), s.Name, pq.Array(s.Highlights), s.Speaker, nullKey(s.SpeakerKey),
		duration, s.TypeOfSession, nullDate(s.Date), startTime,
	}
}

func (r *sessionRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Session, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumnList + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, sessionArgs(s)...)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *sessionRepository) GetByKey(ctx context.Context, key *domain.Key) (*domain.Session, error) {
	query := `SELECT ` + sessionColumnList + ` FROM sessions WHERE websafe_key = $1`
	s, err := scanSession(conn(ctx, r.DB).QueryRowContext(ctx, query, key.Encode()))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *sessionRepository) Update(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET conference_key = $2, name = $3, highlights = $4, speaker = $5, speaker_key = $6,
			duration = $7, type_of_session = $8, date = $9, start_time = $10
		WHERE websafe_key = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, sessionArgs(s)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) ListByKeys(ctx context.Context, keys []*domain.Key) ([]*domain.Session, error) {
	if len(keys) == 0 {
		return []*domain.Session{}, nil
	}
	query := `SELECT ` + sessionColumnList + ` FROM sessions WHERE websafe_key = ANY($1) ORDER BY name`
	return r.list(ctx, query, pq.Array(domain.EncodeKeys(keys)))
}

func (r *sessionRepository) Query(ctx context.Context, conferenceKey *domain.Key, equality []query.Condition) ([]*domain.Session, error) {
	var b whereBuilder
	if conferenceKey != nil {
		b.add("conference_key = " + b.arg(conferenceKey.Encode()))
	}
	for _, c := range equality {
		if err := b.condition(sessionColumns, c); err != nil {
			return nil, err
		}
	}
	q := `SELECT ` + sessionColumnList + ` FROM sessions` + b.String() + ` ORDER BY name`
	return r.list(ctx, q, b.args...)
}
