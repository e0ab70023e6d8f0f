package constituent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/constituent-service/internal/domain"
	"github.com/ignite/constituent-service/internal/pkg/logger"
)

// Outcome reports which branch Upsert took.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeMerged  Outcome = "merged"
)

// Lock serializes writers for one email across processes.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockFactory returns a fresh lock for the given key.
type LockFactory func(key string) Lock

const (
	DefaultMaxLimit = 100

	lockAttempts = 5
	lockBackoff  = 50 * time.Millisecond
)

// Service implements constituent business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo     Repository
	locks    LockFactory
	now      func() time.Time
	maxLimit int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for signup dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocks enables per-email locking around create-or-merge.
func WithLocks(f LockFactory) Option {
	return func(s *Service) { s.locks = f }
}

// WithMaxLimit caps the page size of List.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// NewService creates a constituent service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, maxLimit: DefaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a single constituent, or nil when the email is unknown.
func (s *Service) Get(ctx context.Context, email string) (*domain.Constituent, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns one page of constituents. Limits above the configured maximum
// are clamped; the effective filter is returned so callers can echo it.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Constituent, ListFilter, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, f, ErrInvalidPagination
	}
	if f.Limit > s.maxLimit {
		f.Limit = s.maxLimit
	}
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, f, err
	}
	if out == nil {
		out = []domain.Constituent{}
	}
	return out, f, nil
}

// ListSignedUp returns every constituent whose signup date starts with prefix.
func (s *Service) ListSignedUp(ctx context.Context, prefix string) ([]domain.Constituent, error) {
	return s.repo.ListSignedUp(ctx, prefix)
}

// Upsert creates a constituent, or merges the input into the existing record
// with the same email. A merge overwrites names and address but keeps the
// original signup date. Returns a *domain.MissingFieldError before touching
// storage if the input is incomplete.
func (s *Service) Upsert(ctx context.Context, in domain.ConstituentInput) (*domain.Constituent, Outcome, error) {
	incoming, err := domain.NewConstituent(in, s.now().Format(domain.DateLayout))
	if err != nil {
		return nil, "", err
	}

	release := s.acquire(ctx, incoming.Email)
	defer release()

	var out *domain.Constituent
	var outcome Outcome
	upsert := func(repo Repository) error {
		var err error
		out, outcome, err = createOrMerge(ctx, repo, incoming)
		return err
	}

	err = s.repo.WithEmailLock(ctx, incoming.Email, upsert)
	if errors.Is(err, ErrDuplicateKey) {
		// Lost an insert race to another writer; the retry merges into the winner.
		logger.Warn("constituent create raced, merging", "email", incoming.Email)
		if err = s.repo.WithEmailLock(ctx, incoming.Email, upsert); err != nil {
			err = fmt.Errorf("retry raced constituent: %w", err)
		}
	}
	if err != nil {
		return nil, "", err
	}
	return out, outcome, nil
}

func createOrMerge(ctx context.Context, repo Repository, incoming domain.Constituent) (*domain.Constituent, Outcome, error) {
	existing, err := repo.GetByEmail(ctx, incoming.Email)
	if err != nil {
		return nil, "", fmt.Errorf("check existing constituent: %w", err)
	}

	if existing == nil {
		created, err := repo.Create(ctx, incoming)
		if err != nil {
			return nil, "", err
		}
		return created, OutcomeCreated, nil
	}

	merged := incoming
	merged.SignedUp = existing.SignedUp
	updated, err := repo.UpdateByEmail(ctx, merged)
	if err != nil {
		return nil, "", err
	}
	return updated, OutcomeMerged, nil
}

// acquire takes the per-email lock with a short retry window. Not getting
// the lock is logged and tolerated: the UNIQUE constraint still holds.
func (s *Service) acquire(ctx context.Context, email string) func() {
	noop := func() {}
	if s.locks == nil {
		return noop
	}

	lock := s.locks("constituent:" + email)
	for attempt := 1; attempt <= lockAttempts; attempt++ {
		ok, err := lock.Acquire(ctx)
		if err != nil {
			logger.Warn("constituent lock unavailable", "email", email, "error", err)
			return noop
		}
		if ok {
			return func() {
				// Release on a fresh context so a cancelled request still unlocks.
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := lock.Release(relCtx); err != nil {
					logger.Warn("constituent lock release failed", "email", email, "error", err)
				}
			}
		}
		select {
		case <-ctx.Done():
			return noop
		case <-time.After(lockBackoff):
		}
	}

	logger.Warn("constituent lock busy, proceeding", "email", email)
	return noop
}
