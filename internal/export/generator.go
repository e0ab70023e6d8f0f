package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ignite/constituent-service/internal/domain"
	"github.com/ignite/constituent-service/internal/pkg/logger"
	"github.com/ignite/constituent-service/internal/storage"
)

// ContentType of every export object.
const ContentType = "text/csv"

// SignupSource lists constituents by signup-date prefix.
type SignupSource interface {
	ListSignedUp(ctx context.Context, prefix string) ([]domain.Constituent, error)
}

// Generator renders period exports from the database into a store.
type Generator struct {
	source SignupSource
	store  storage.Store
	prefix string
}

// NewGenerator creates a Generator writing under keyPrefix.
func NewGenerator(source SignupSource, store storage.Store, keyPrefix string) *Generator {
	return &Generator{source: source, store: store, prefix: keyPrefix}
}

// Result describes one generated export.
type Result struct {
	Key  string
	Rows int
}

// Render builds the CSV for p without storing it. Returns the row count.
func (g *Generator) Render(ctx context.Context, p Period) ([]byte, int, error) {
	cs, err := g.source.ListSignedUp(ctx, p.SignupPrefix())
	if err != nil {
		return nil, 0, fmt.Errorf("list constituents for %s: %w", p, err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, cs); err != nil {
		return nil, 0, fmt.Errorf("render %s: %w", p, err)
	}
	return buf.Bytes(), len(cs), nil
}

// Generate writes the CSV for p, replacing any previous version.
func (g *Generator) Generate(ctx context.Context, p Period) (Result, error) {
	body, rows, err := g.Render(ctx, p)
	if err != nil {
		return Result{}, err
	}

	key := p.Key(g.prefix)
	if err := g.store.Put(ctx, key, bytes.NewReader(body), ContentType); err != nil {
		return Result{}, fmt.Errorf("store %s: %w", key, err)
	}

	logger.Info("export generated", "period", p.String(), "key", key, "rows", rows)
	return Result{Key: key, Rows: rows}, nil
}

// WriteCSV writes a header of the flat storage columns followed by one row
// per constituent.
func WriteCSV(w io.Writer, cs []domain.Constituent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return err
	}
	for _, c := range cs {
		if err := cw.Write(c.Flatten().Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
