package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"conferencecentral/internal/domain"
)

const speakerColumnList = `websafe_key, name, specialties, city, country, languages, session_keys, version`

type speakerRepository struct {
	DB *sql.DB
}

func NewSpeakerRepository(db *sql.DB) domain.SpeakerRepository {
	return &speakerRepository{
		DB: db,
	}
}

func scanSpeaker(row rowScanner) (*domain.Speaker, error) {
	s := &domain.Speaker{}
	var key string
	var specialties, languages, sessionKeys pq.StringArray
	if err := row.Scan(&key, &s.Name, &specialties, &s.City, &s.Country, &languages, &sessionKeys, &s.Version); err != nil {
		return nil, err
	}
	var err error
	if s.Key, err = domain.ParseKey(key); err != nil {
		return nil, fmt.Errorf("stored speaker key: %w", err)
	}
	if s.SessionKeys, err = parseKeyArray(sessionKeys); err != nil {
		return nil, err
	}
	s.Specialties = []string(specialties)
	s.Languages = []string(languages)
	return s, nil
}

func (r *speakerRepository) Create(ctx context.Context, s *domain.Speaker) error {
	query := `
		INSERT INTO speakers (websafe_key, name, name_key, specialties, city, country, languages, session_keys, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		s.Key.Encode(), s.Name, domain.NormalizeSpeakerName(s.Name), pq.Array(s.Specialties), s.City, s.Country,
		pq.Array(s.Languages), pq.Array(domain.EncodeKeys(s.SessionKeys)), s.Version,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *speakerRepository) GetByKey(ctx context.Context, key *domain.Key) (*domain.Speaker, error) {
	query := `SELECT ` + speakerColumnList + ` FROM speakers WHERE websafe_key = $1`
	s, err := scanSpeaker(conn(ctx, r.DB).QueryRowContext(ctx, query, key.Encode()))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *speakerRepository) GetByName(ctx context.Context, name string) (*domain.Speaker, error) {
	query := `SELECT ` + speakerColumnList + ` FROM speakers WHERE name_key = $1`
	s, err := scanSpeaker(conn(ctx, r.DB).QueryRowContext(ctx, query, domain.NormalizeSpeakerName(name)))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *speakerRepository) Update(ctx context.Context, s *domain.Speaker) error {
	query := `
		UPDATE speakers
		SET specialties = $3, city = $4, country = $5, languages = $6, session_keys = $7, version = version + 1
		WHERE websafe_key = $1 AND version = $2
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		s.Key.Encode(), s.Version, pq.Array(s.Specialties), s.City, s.Country,
		pq.Array(s.Languages), pq.Array(domain.EncodeKeys(s.SessionKeys)),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrVersionConflict
	}
	s.Version++
	return nil
}
