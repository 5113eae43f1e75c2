package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/internal/logger"
)

// settle is how long the watcher waits for writes to stop before converting.
const settle = 250 * time.Millisecond

func cmdWatch(cfg *config.Config, args []string) {
	j := newJob(cfg, "watch", args)
	log := logger.Named("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fatal(err)
	}
	defer watcher.Close()

	// Watch directories: editors often replace files instead of writing them.
	targets := map[string]bool{absPath(j.input): true}
	dirs := map[string]bool{filepath.Dir(absPath(j.input)): true}
	layoutFile := ""
	if info, err := os.Stat(cfg.Export.Layout); err == nil && !info.IsDir() {
		layoutFile = absPath(cfg.Export.Layout)
		targets[layoutFile] = true
		dirs[filepath.Dir(layoutFile)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			fatal(err)
		}
	}

	convert := func() {
		if err := j.run(); err != nil {
			log.Error("conversion failed", zap.Error(err))
		}
	}
	convert()
	log.Info("watching for changes", zap.String("input", j.input), zap.String("layout", cfg.Export.Layout))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			name := absPath(ev.Name)
			if !targets[name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			log.Debug("change detected", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if name == layoutFile {
				j.layouts.Invalidate(cfg.Export.Layout)
			}
			timer.Reset(settle)

		case <-timer.C:
			convert()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", zap.Error(err))

		case <-interrupt:
			log.Info("stopped")
			return
		}
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
