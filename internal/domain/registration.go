package domain

import "context"

// Transactor runs fn in a single store transaction. Repositories called
// with the context passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RegistrationService interface {
	Register(ctx context.Context, id Identity, conferenceKey *Key) error
	// Unregister reports false when the caller was not registered.
	Unregister(ctx context.Context, id Identity, conferenceKey *Key) (bool, error)
	AddToWishlist(ctx context.Context, id Identity, sessionKey *Key) error
	RemoveFromWishlist(ctx context.Context, id Identity, sessionKey *Key) error
	Wishlist(ctx context.Context, id Identity) ([]*Session, error)
}
