// Command voxhost serves one editable voxel volume to remote clients over
// websockets.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/remote"
	"github.com/gekko3d/voxtree/vox"
)

const (
	flagConfig = "config"
	flagAddr   = "addr"
	flagDebug  = "debug"

	shutdownTimeout = 5 * time.Second
)

func main() {
	app := &cli.App{
		Name:  "voxhost",
		Usage: "host a sparse voxel volume and mesh it for remote clients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  flagAddr,
				Usage: "listen address, overrides remote.addr",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (voxtree.Config, error) {
	cfg := voxtree.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = voxtree.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet(flagAddr) {
		cfg.Remote.Addr = c.String(flagAddr)
	}
	if c.Bool(flagDebug) {
		cfg.Log.Debug = true
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := voxtree.NewLogger(cfg.Log)
	if s, ok := logger.(interface{ Sync() error }); ok {
		defer s.Sync()
	}
	var seed *vox.File
	palette := voxtree.DefaultPalette()
	if cfg.Volume.Seed != "" {
		if seed, err = vox.Load(cfg.Volume.Seed); err != nil {
			return err
		}
		palette = seed.Palette()
	}
	if palette, err = cfg.OverlayPalette(palette); err != nil {
		return err
	}

	vcfg := cfg.VoxelConfig()
	vcfg.Profiler = voxtree.NewProfiler()
	host := remote.NewHost(remote.HostConfig{
		Voxel:        vcfg,
		InboxSize:    cfg.Remote.InboxSize,
		TickInterval: cfg.Remote.TickInterval,
		BuildBudget:  cfg.Remote.BuildBudget,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Remote.Addr,
		Handler:           newRouter(host, palette, vcfg.Profiler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := host.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if seed != nil {
		g.Go(func() error {
			err := host.Do(ctx, func(vx *voxtree.Voxel) {
				n := 0
				for i := range seed.Models {
					n += seed.Models[i].Place(vx, 0, 0, 0)
				}
				logger.Infof("seeded %d voxels from %s", n, cfg.Volume.Seed)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Infof("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
