package assembly

import (
	"context"

	"github.com/umputun/newsdigest/pkg/domain"
)

// Assembler hands off the final batch
type Assembler interface {
	Assemble(ctx context.Context, items []domain.ContentItem) error
}

// Chain calls assemblers in order and stops on the first error
type Chain []Assembler

// Assemble implements Assembler
func (c Chain) Assemble(ctx context.Context, items []domain.ContentItem) error {
	for _, a := range c {
		if err := a.Assemble(ctx, items); err != nil {
			return err
		}
	}
	return nil
}
