package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v3"

	cache "github.com/krisalay/operation-cache"
	"github.com/krisalay/operation-cache/internal/catalog"
	"github.com/krisalay/operation-cache/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func demoCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "demo",
		Usage:     "walk through cache hits, expiry and invalidation against a sample catalog",
		UsageText: "opcache demo [options]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "latency",
				Usage: "simulated catalog latency",
				Value: 25 * time.Millisecond,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "concurrent callers in the single-flight step",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return st.runDemo(ctx, cmd.Duration("latency"), int(cmd.Int("concurrency")))
		},
	}
}

// runDemo drives the cache with a fake clock so expiry can be shown without
// waiting for the TTL.
func (st *state) runDemo(ctx context.Context, latency time.Duration, concurrency int) error {
	clock := clockwork.NewFakeClock()
	counter := &metrics.Counter{}

	c, err := st.newCache(
		cache.WithClock(clock),
		cache.WithMetrics(counter),
		cache.WithSweepInterval(0),
		cache.WithSingleFlight(true),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	ttl := st.cfg.Cache.TTL
	src := catalog.NewStaticSource(latency, catalog.SampleProducts()...)
	client := catalog.NewClient(c, src, ttl, ttl)
	out := st.out

	step := func(title string) { fmt.Fprintf(out, "\n== %s\n", title) }
	timed := func(label string, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%-28s %v\n", label, time.Since(start).Round(time.Microsecond))
		return nil
	}
	get := func(style string) func() error {
		return func() error {
			_, err := client.GetProduct(ctx, style)
			return err
		}
	}

	step("miss then hit")
	key, err := c.DeriveKey(catalog.OpGetProduct, "PC61")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "key: %s\n", key)
	if err := timed("first lookup (miss)", get("PC61")); err != nil {
		return err
	}
	if err := timed("second lookup (hit)", get("PC61")); err != nil {
		return err
	}

	step("ttl expiry")
	clock.Advance(ttl + time.Second)
	fmt.Fprintf(out, "advanced clock by %v\n", ttl+time.Second)
	if err := timed("lookup after expiry (miss)", get("PC61")); err != nil {
		return err
	}

	step("single-flight")
	before := src.Calls("GetProduct")
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.GetProduct(ctx, "K500"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return err
	}
	fmt.Fprintf(out, "%d concurrent lookups, %d source call(s)\n", concurrency, src.Calls("GetProduct")-before)

	step("prefix invalidation")
	if _, err := client.SearchProducts(ctx, catalog.SearchQuery{Category: "T-Shirts"}); err != nil {
		return err
	}
	if err := c.Set("orders_search", map[string]any{"status": "open"}, []string{"1001", "1002"}, 0); err != nil {
		return err
	}
	fmt.Fprintf(out, "entries before update: %d\n", c.Stats().Size)
	p, err := client.GetProduct(ctx, "PC61")
	if err != nil {
		return err
	}
	p.Price += 0.25
	removed, err := client.UpdateProduct(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "update %s cleared %d products_* entries, %d left\n", p.Style, removed, c.Stats().Size)

	step("sweep")
	if err := c.Set("orders_get", "1001", "shipped", time.Second); err != nil {
		return err
	}
	clock.Advance(2 * time.Second)
	fmt.Fprintf(out, "swept %d expired entries\n", c.CleanExpired())

	step("stats")
	stats, err := json.MarshalIndent(c.Stats(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(stats))

	printMetrics(st, counter.Snapshot())
	return nil
}

func printMetrics(st *state, s metrics.Snapshot) {
	fmt.Fprintf(st.out, "\nhits %s  misses %s  expired %s  evictions %s  invalidations %s  hit ratio %.1f%%\n",
		humanize.Comma(s.Hits),
		humanize.Comma(s.Misses),
		humanize.Comma(s.Expired),
		humanize.Comma(s.Evictions),
		humanize.Comma(s.Invalidations),
		s.HitRatio()*100)
}
