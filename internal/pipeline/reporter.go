package pipeline

import (
	"context"

	"github.com/couchcryptid/disdro-l0/internal/domain"
)

// Reporter receives station events. Implementations must be safe for
// concurrent use; stations report from multiple workers.
type Reporter interface {
	Report(ctx context.Context, ev domain.StationEvent)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, ev domain.StationEvent)

func (f ReporterFunc) Report(ctx context.Context, ev domain.StationEvent) { f(ctx, ev) }

type multiReporter []Reporter

// MultiReporter fans events out to every non-nil reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiReporter) Report(ctx context.Context, ev domain.StationEvent) {
	for _, r := range m {
		r.Report(ctx, ev)
	}
}
