package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	cache "github.com/krisalay/operation-cache"
	"github.com/krisalay/operation-cache/internal/admin"
	"github.com/krisalay/operation-cache/internal/catalog"
	"github.com/krisalay/operation-cache/metrics"
)

func serveCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "serve the admin HTTP API for a cache",
		UsageText: "opcache serve [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address. Overrides admin.addr from the config file",
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "warm the cache with the sample catalog",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			addr := st.cfg.Admin.Addr
			if a := cmd.String("addr"); a != "" {
				addr = a
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return st.runServe(ctx, addr, cmd.Bool("seed"))
		},
	}
}

func (st *state) runServe(ctx context.Context, addr string, seed bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c, err := st.newCache(cache.WithMetrics(metrics.NewPrometheus(reg, "default")))
	if err != nil {
		return err
	}
	defer c.Close()

	if seed {
		if err := seedCatalog(ctx, c); err != nil {
			return err
		}
	}

	return admin.NewServer(addr, c, reg, log.Log).Run(ctx)
}

func seedCatalog(ctx context.Context, c *cache.OperationCache) error {
	client := catalog.NewClient(c, catalog.NewStaticSource(0, catalog.SampleProducts()...), 0, 0)
	for _, p := range catalog.SampleProducts() {
		if _, err := client.GetProduct(ctx, p.Style); err != nil {
			return err
		}
	}
	_, err := client.SearchProducts(ctx, catalog.SearchQuery{Category: "T-Shirts"})
	if err == nil {
		log.WithField("entries", c.Stats().Size).Info("seeded cache from sample catalog")
	}
	return err
}
