package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

const conferenceColumnList = `websafe_key, organizer_user_id, name, description, topics, city, start_date, end_date, month, max_attendees, seats_available`

type conferenceRepository struct {
	DB *sql.DB
}

func NewConferenceRepository(db *sql.DB) domain.ConferenceRepository {
	return &conferenceRepository{
		DB: db,
	}
}

func scanConference(row rowScanner) (*domain.Conference, error) {
	c := &domain.Conference{}
	var key string
	var topics pq.StringArray
	var start, end sql.NullTime
	if err := row.Scan(&key, &c.OrganizerUserID, &c.Name, &c.Description, &topics, &c.City,
		&start, &end, &c.Month, &c.MaxAttendees, &c.SeatsAvailable); err != nil {
		return nil, err
	}
	k, err := domain.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("stored conference key: %w", err)
	}
	c.Key = k
	c.Topics = []string(topics)
	c.StartDate = scanDate(start)
	c.EndDate = scanDate(end)
	return c, nil
}

func (r *conferenceRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Conference, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	confs := make([]*domain.Conference, 0)
	for rows.Next() {
		c, err := scanConference(rows)
		if err != nil {
			return nil, err
		}
		confs = append(confs, c)
	}
	return confs, rows.Err()
}

func (r *conferenceRepository) Create(ctx context.Context, c *domain.Conference) error {
	query := `
		INSERT INTO conferences (` + conferenceColumnList + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		c.Key.Encode(), c.OrganizerUserID, c.Name, c.Description, pq.Array(c.Topics), c.City,
		nullDate(c.StartDate), nullDate(c.EndDate), c.Month, c.MaxAttendees, c.SeatsAvailable,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *conferenceRepository) GetByKey(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	query := `SELECT ` + conferenceColumnList + ` FROM conferences WHERE websafe_key = $1`
	c, err := scanConference(conn(ctx, r.DB).QueryRowContext(ctx, query, key.Encode()))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *conferenceRepository) GetByKeyForUpdate(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	query := `SELECT ` + conferenceColumnList + ` FROM conferences WHERE websafe_key = $1 FOR UPDATE`
	c, err := scanConference(conn(ctx, r.DB).QueryRowContext(ctx, query, key.Encode()))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *conferenceRepository) Update(ctx context.Context, c *domain.Conference) error {
	query := `
		UPDATE conferences
		SET name = $2, description = $3, topics = $4, city = $5, start_date = $6, end_date = $7,
			month = $8, max_attendees = $9, seats_available = $10
		WHERE websafe_key = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		c.Key.Encode(), c.Name, c.Description, pq.Array(c.Topics), c.City,
		nullDate(c.StartDate), nullDate(c.EndDate), c.Month, c.MaxAttendees, c.SeatsAvailable,
	)
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

func (r *conferenceRepository) ListByOrganizer(ctx context.Context, userID string) ([]*domain.Conference, error) {
	query := `SELECT ` + conferenceColumnList + ` FROM conferences WHERE organizer_user_id = $1 ORDER BY name`
	return r.list(ctx, query, userID)
}

func (r *conferenceRepository) ListByKeys(ctx context.Context, keys []*domain.Key) ([]*domain.Conference, error) {
	if len(keys) == 0 {
		return []*domain.Conference{}, nil
	}
	query := `SELECT ` + conferenceColumnList + ` FROM conferences WHERE websafe_key = ANY($1) ORDER BY name`
	return r.list(ctx, query, pq.Array(domain.EncodeKeys(keys)))
}

func (r *conferenceRepository) Query(ctx context.Context, plan *query.Plan) ([]*domain.Conference, error) {
	var b whereBuilder
	for _, c := range plan.Equality {
		if err := b.condition(conferenceColumns, c); err != nil {
			return nil, err
		}
	}
	for _, c := range plan.Inequality {
		if err := b.condition(conferenceColumns, c); err != nil {
			return nil, err
		}
	}
	q := `SELECT ` + conferenceColumnList + ` FROM conferences` + b.String() + orderBy(conferenceColumns, plan.OrderBy)
	return r.list(ctx, q, b.args...)
}

func (r *conferenceRepository) ListNearlySoldOut(ctx context.Context, threshold int) ([]*domain.Conference, error) {
	query := `
		SELECT ` + conferenceColumnList + `
		FROM conferences
		WHERE seats_available > 0 AND seats_available <= $1
		ORDER BY name
	`
	return r.list(ctx, query, threshold)
}
