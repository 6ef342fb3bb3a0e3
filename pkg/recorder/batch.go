/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: batch.go
Description: Concurrent recording of many inputs. Each recording owns a cloned heap and its
own state, so independent inputs can be recorded in parallel.
*/

package recorder

import (
	"context"
	"fmt"

	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"golang.org/x/sync/errgroup"
)

// RecordAll records f on every input, traces are returned in input order
// parallelism bounds the number of concurrent recordings; zero or less means unbounded.
func RecordAll(ctx context.Context, f value.Function, inputs []*value.Input, budget int, parallelism int) ([]*ir.Trace, error) {
	traces := make([]*ir.Trace, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := Record(f, in, budget)
			if err != nil {
				return fmt.Errorf("failed to record input %d (%s): %w", i, in, err)
			}
			traces[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return traces, nil
}
