package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const pprofWarmup = 30 * time.Second

func activate_profiling(ctx context.Context, pprofdir string, duration time.Duration) error {
	if err := os.MkdirAll(pprofdir, 0700); err != nil {
		return errors.Wrap(err, "create pprof dir")
	}

	f, err := os.Create(filepath.Join(pprofdir, fmt.Sprintf("%s.pprof", time.Now().Format("2006-01-02_15:04:05"))))
	if err != nil {
		return errors.Wrap(err, "create pprof file")
	}
	defer f.Close()

	select {
	case <-time.After(pprofWarmup):
	case <-ctx.Done():
		return nil
	}

	logrus.Infof("Profiling start!")
	if err := pprof.StartCPUProfile(f); err != nil {
		return errors.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}

	logrus.Infof("Profiling done!")
	return nil
}
