// Package batch runs an operation over many units in parallel. Each unit
// is independent: one failing unit does not affect the others unless
// the runner is told to stop early.
package batch

import (
	"context"
	"fmt"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/bytetree/listing"
	"github.com/ztrue/tracerr"
	"golang.org/x/sync/errgroup"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/bytetree", "batch")

// Outcome is the result of one unit. Skipped is set when the unit never
// ran because an earlier failure stopped the batch.
type Outcome struct {
	Index   int
	Unit    listing.Unit
	Err     error
	Skipped bool
}

type Runner struct {
	Workers  int
	FailFast bool
}

// Run applies op to every unit. Outcomes come back in input order. The
// returned error is the first unit failure when FailFast is set, or the
// context's error if it was cancelled from outside.
func (r Runner) Run(ctx context.Context, units []listing.Unit, op Operation) ([]Outcome, error) {
	outcomes := make([]Outcome, len(units))

	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}

	for i := range units {
		i := i
		outcomes[i] = Outcome{Index: i, Unit: units[i], Skipped: true}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			out, err := isolate(units[i], op)
			outcomes[i] = Outcome{Index: i, Unit: out, Err: err}
			if err != nil {
				plog.Warningf("%s: %v", units[i].Name, err)
				if r.FailFast {
					return err
				}
				return nil
			}

			plog.Infof("%s: done", units[i].Name)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return outcomes, err
}

// isolate runs op, turning any panic escaping it into the unit's error.
func isolate(u listing.Unit, op Operation) (out listing.Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = u
			if e, ok := r.(error); ok {
				err = tracerr.Wrap(e)
			} else {
				err = tracerr.Wrap(fmt.Errorf("%s: %v", u.Name, r))
			}
		}
	}()

	out, err = op(u)
	if err != nil {
		out = u
	}
	return out, err
}

// Failed counts the outcomes that ran and failed.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
