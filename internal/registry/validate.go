package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/schema"
)

// Validate builds the binding specification of every registered type and
// reports the types whose tags are malformed.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := checkSpec(r.entries[name]); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Debug("Element specification ready.", "name", name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func checkSpec(e *Entry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s '%s': %v", e.Kind, e.Name, rec)
		}
	}()
	spec := schema.For(e.Type)
	for _, c := range spec.Collections {
		if c.Invalid != nil {
			return fmt.Errorf("%s '%s': collection '%s': %w", e.Kind, e.Name, c.Name, c.Invalid)
		}
	}
	return nil
}
