package constituent

import (
	"context"

	"github.com/ignite/constituent-service/internal/domain"
)

// Repository defines the data access contract for constituents, keyed by
// email. Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new record and returns it as re-read from storage.
	// Returns ErrDuplicateKey if the email is already taken.
	Create(ctx context.Context, c domain.Constituent) (*domain.Constituent, error)

	// GetByEmail returns the matching record, or nil and no error when absent.
	GetByEmail(ctx context.Context, email string) (*domain.Constituent, error)

	// List returns up to Limit records starting at Offset in the store's
	// natural order. Returns ErrUnknownFilter for unrecognized filter keys.
	List(ctx context.Context, filter ListFilter) ([]domain.Constituent, error)

	// UpdateByEmail overwrites every field except email and signup date and
	// returns the record as re-read from storage. Returns ErrNotFound if no
	// row has that email.
	UpdateByEmail(ctx context.Context, c domain.Constituent) (*domain.Constituent, error)

	// ListSignedUp returns records whose signup date starts with prefix
	// (YYYY or YYYY-MM), ordered by signup date then email.
	ListSignedUp(ctx context.Context, prefix string) ([]domain.Constituent, error)

	// WithEmailLock runs fn against a repository whose calls share one unit
	// of work: concurrent WithEmailLock callers for the same email wait for
	// each other, and everything fn writes is discarded if fn fails. fn must
	// use only the repository it is given.
	WithEmailLock(ctx context.Context, email string, fn func(Repository) error) error
}

// Recognized filter keys.
const (
	FilterCounty = "county"
)

// ListFilter controls pagination and filtering for constituent lists.
type ListFilter struct {
	Limit   int
	Offset  int
	Filters map[string]string
}
