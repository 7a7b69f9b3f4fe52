// Package lifecycle exposes document watch streams as lifecycle sources.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithTypes keeps only events of the given types.
func WithTypes(types ...core.EventType) SourceOption {
	return func(s *Source) {
		s.types = types
	}
}

// Source forwards core events to lifecycle consumers.
type Source struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	types  []core.EventType
}

// NewSource wraps a watch channel. core.Event satisfies lifecycle.Event.
func NewSource(events <-chan core.Event, opts ...SourceOption) *Source {
	s := &Source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start runs the forwarding loop until ctx is done or the watch channel closes.
// The output channel is closed when the loop exits.
func (s *Source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.accepts(e) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

func (s *Source) accepts(e core.Event) bool {
	return len(s.types) == 0 || slices.Contains(s.types, e.Type)
}

var _ lifecycle.Source = (*Source)(nil)
