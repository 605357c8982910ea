package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"conferencecentral/internal/domain"
)

const profileColumnList = `user_id, display_name, main_email, tee_shirt_size, conference_keys_to_attend, session_wishlist`

type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{
		DB: db,
	}
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	var size string
	var attending, wishlist pq.StringArray
	if err := row.Scan(&p.UserID, &p.DisplayName, &p.MainEmail, &size, &attending, &wishlist); err != nil {
		return nil, err
	}
	p.TeeShirtSize = domain.TeeShirtSize(size)
	var err error
	if p.ConferenceKeysToAttend, err = parseKeyArray(attending); err != nil {
		return nil, err
	}
	if p.SessionWishlist, err = parseKeyArray(wishlist); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumnList + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(conn(ctx, r.DB).QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *profileRepository) GetForUpdate(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumnList + ` FROM profiles WHERE user_id = $1 FOR UPDATE`
	p, err := scanProfile(conn(ctx, r.DB).QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *profileRepository) CreateIfMissing(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumnList + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.MainEmail, string(p.TeeShirtSize),
		pq.Array(domain.EncodeKeys(p.ConferenceKeysToAttend)), pq.Array(domain.EncodeKeys(p.SessionWishlist)),
	)
	return err
}

func (r *profileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2, main_email = $3, tee_shirt_size = $4, conference_keys_to_attend = $5, session_wishlist = $6
		WHERE user_id = $1
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.MainEmail, string(p.TeeShirtSize),
		pq.Array(domain.EncodeKeys(p.ConferenceKeysToAttend)), pq.Array(domain.EncodeKeys(p.SessionWishlist)),
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
