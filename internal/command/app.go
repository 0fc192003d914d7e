package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	cache "github.com/krisalay/operation-cache"
	"github.com/krisalay/operation-cache/internal/config"
	mylog "github.com/krisalay/operation-cache/internal/log"
)

// state is shared by the subcommands once the root Before hook has run.
type state struct {
	cfg config.Config
	out io.Writer
}

// InitApp builds the opcache command tree. Output goes to out.
func InitApp(out io.Writer) *cli.Command {
	if out == nil {
		out = os.Stdout
	}
	st := &state{out: out}

	app := &cli.Command{
		Name:   "opcache",
		Usage:  "operation result cache toolkit",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration file",
				Sources: cli.NewValueSourceChain(cli.EnvVar(config.EnvPath)),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error). Overrides the config file",
			},
		},
		Before: st.before,
		Commands: []*cli.Command{
			demoCommand(st),
			benchCommand(st),
			serveCommand(st),
		},
	}

	// Keep --help output stable.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}

func (st *state) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	st.cfg = cfg

	level := cfg.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	mylog.InitLogger(level)

	return ctx, nil
}

// newCache builds a cache from the loaded configuration; extra options are
// applied last.
func (st *state) newCache(extra ...cache.Option) (*cache.OperationCache, error) {
	opts, err := st.cfg.Cache.CacheOptions()
	if err != nil {
		return nil, err
	}
	c, err := cache.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return c, nil
}
