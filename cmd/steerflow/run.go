package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"steerflow/internal/config"
	"steerflow/internal/observability/log"
	"steerflow/pkg/steerflow"
)

type result struct {
	name   string
	frames int
	hash   uint64
}

func runAction(out io.Writer, logger log.Log, paths []string, frames, parallel int) error {
	logger = logger.With(log.String("run", uuid.NewString()))
	logger.Info("run started", log.Int("scenarios", len(paths)))
	started := time.Now()

	results := make([]result, len(paths))
	g, ctx := errgroup.WithContext(context.Background())
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			sim, err := steerflow.LoadSimulation(path, steerflow.WithLogger(logger.With(log.String("file", path))))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if frames > 0 {
				sim.Frames = frames
			}
			hash, err := sim.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = result{name: sim.Name, frames: sim.Frames, hash: hash}
			logger.Debug("scenario finished",
				log.String("file", path),
				log.Int("contacts", sim.GetStats().ContactCount),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("run failed", log.Error(err))
		return err
	}

	for _, r := range results {
		fmt.Fprintf(out, "%s\t%d\t%016x\n", r.name, r.frames, r.hash)
	}
	logger.Info("run finished", log.Duration("elapsed", time.Since(started)))
	return nil
}

func checkAction(out io.Writer, paths []string) error {
	failed := 0
	for _, path := range paths {
		if _, err := config.LoadFile(path); err != nil {
			fmt.Fprintf(out, "FAIL\t%s\t%v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "ok\t%s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios invalid", failed, len(paths))
	}
	return nil
}
