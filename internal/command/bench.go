package command

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	cache "github.com/krisalay/operation-cache"
	"github.com/krisalay/operation-cache/metrics"
)

var benchOperations = []string{"products_get", "products_search", "orders_search"}

type benchParams struct {
	Workers  int
	Keys     int
	Duration time.Duration
	TTL      time.Duration
	Compute  time.Duration
}

func benchCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "bench",
		Usage:     "run a concurrent ExecuteWithCache load against the configured cache",
		UsageText: "opcache bench [options]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Usage: "concurrent callers", Value: 8},
			&cli.IntFlag{Name: "keys", Usage: "distinct params per operation", Value: 1000},
			&cli.DurationFlag{Name: "duration", Usage: "how long to run", Value: 3 * time.Second},
			&cli.DurationFlag{Name: "ttl", Usage: "entry ttl (0 uses the configured default)"},
			&cli.DurationFlag{Name: "compute", Usage: "simulated compute time on a miss"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p := benchParams{
				Workers:  int(cmd.Int("workers")),
				Keys:     int(cmd.Int("keys")),
				Duration: cmd.Duration("duration"),
				TTL:      cmd.Duration("ttl"),
				Compute:  cmd.Duration("compute"),
			}
			if p.Workers <= 0 || p.Keys <= 0 {
				return fmt.Errorf("workers and keys must be positive")
			}
			return st.runBench(ctx, p)
		},
	}
}

func (st *state) runBench(ctx context.Context, p benchParams) error {
	counter := &metrics.Counter{}
	c, err := st.newCache(cache.WithMetrics(counter))
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, p.Duration)
	defer cancel()

	var (
		ops   atomic.Int64
		errs  atomic.Int64
		wg    sync.WaitGroup
		start = time.Now()
	)

	for w := 0; w < p.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				op := benchOperations[rand.Intn(len(benchOperations))]
				id := rand.Intn(p.Keys)
				_, err := c.ExecuteWithCache(ctx, op, map[string]int{"id": id}, func(context.Context) (any, error) {
					if p.Compute > 0 {
						time.Sleep(p.Compute)
					}
					return id, nil
				}, p.TTL)
				if err != nil {
					errs.Add(1)
				}
				ops.Add(1)
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	total := ops.Load()
	fmt.Fprintf(st.out, "workers %d  keys %s  elapsed %v\n", p.Workers, humanize.Comma(int64(p.Keys*len(benchOperations))), elapsed.Round(time.Millisecond))
	fmt.Fprintf(st.out, "ops %s  throughput %s  errors %s  entries %s\n",
		humanize.Comma(total),
		humanize.SIWithDigits(float64(total)/elapsed.Seconds(), 2, "ops/s"),
		humanize.Comma(errs.Load()),
		humanize.Comma(int64(c.Stats().Size)))
	printMetrics(st, counter.Snapshot())
	return nil
}
