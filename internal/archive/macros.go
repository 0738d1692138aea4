package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/model"
)

// MacroFunc transforms an item copy in place.
type MacroFunc func(item *model.Item) error

// Macros is a name-indexed registry of item transformations.
type Macros struct {
	funcs map[string]MacroFunc
}

// NewMacros returns a registry preloaded with the built-in macros.
func NewMacros() *Macros {
	m := &Macros{funcs: make(map[string]MacroFunc)}
	m.Register("uppercase-headline", func(item *model.Item) error {
		item.Headline = strings.ToUpper(item.Headline)
		return nil
	})
	m.Register("trim-whitespace", func(item *model.Item) error {
		item.Headline = strings.TrimSpace(item.Headline)
		item.Body = strings.TrimSpace(item.Body)
		return nil
	})
	return m
}

// Register adds or replaces a macro.
func (m *Macros) Register(name string, fn MacroFunc) {
	m.funcs[name] = fn
}

// Run applies the named macro to the item and returns it.
func (m *Macros) Run(ctx context.Context, name string, item *model.Item) (*model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, ok := m.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dispatch.ErrUnknownMacro, name)
	}
	if err := fn(item); err != nil {
		return nil, fmt.Errorf("macro %q: %w", name, err)
	}
	return item, nil
}
