package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ignite/constituent-service/internal/pkg/logger"
	"github.com/ignite/constituent-service/internal/storage"
)

// File is an open export ready to stream.
type File struct {
	Name string
	Body io.ReadCloser
}

// Service resolves export files for download.
type Service struct {
	store            storage.Store
	gen              *Generator
	prefix           string
	generateOnDemand bool
	now              func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithKeyPrefix places exports under prefix in the store.
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = prefix }
}

// WithGenerateOnDemand builds missing exports with gen before serving them.
func WithGenerateOnDemand(gen *Generator) Option {
	return func(s *Service) {
		s.gen = gen
		s.generateOnDemand = gen != nil
	}
}

// WithClock overrides the clock that decides whether a period has ended.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an export service over store.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns the export for p. It returns ErrNotFound when the file does
// not exist and on-demand generation is off. With on-demand generation on,
// a period that has not ended yet is rendered on every request and never
// stored, since later signups would make a stored copy stale.
func (s *Service) Open(ctx context.Context, p Period) (*File, error) {
	if s.generateOnDemand && !p.Closed(s.now()) {
		body, rows, err := s.gen.Render(ctx, p)
		if err != nil {
			return nil, err
		}
		logger.Debug("export period still open, rendered live", "period", p.String(), "rows", rows)
		return &File{Name: p.FileName(), Body: io.NopCloser(bytes.NewReader(body))}, nil
	}

	key := p.Key(s.prefix)
	body, err := s.store.Get(ctx, key)
	if err == nil {
		return &File{Name: p.FileName(), Body: body}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("open export %s: %w", key, err)
	}
	if !s.generateOnDemand {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	logger.Info("export missing, generating", "period", p.String())
	if _, err := s.gen.Generate(ctx, p); err != nil {
		return nil, err
	}
	body, err = s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open generated export %s: %w", key, err)
	}
	return &File{Name: p.FileName(), Body: body}, nil
}
