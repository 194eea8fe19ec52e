package notify

import (
	"context"

	"karya/internal/domain"

	"github.com/hashicorp/go-multierror"
)

type Publisher interface {
	Publish(ctx context.Context, r domain.Reminder) error
}

// Fanout publishes to every target and fails if any of them failed. Targets
// after a failing one are still attempted.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, r domain.Reminder) error {
	var errs *multierror.Error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, r); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
