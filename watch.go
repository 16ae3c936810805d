package vfxbridge

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/vfxbridge/internal/watch"
	"github.com/aretw0/vfxbridge/pkg/ports"
)

// ErrNotWatchable is returned by WatchRecipes when the recipe loader cannot
// signal changes.
var ErrNotWatchable = errors.New("recipe loader does not support watching")

// WatchAssets reloads the editor whenever files below dir change. It blocks
// until ctx is done.
func (b *Bridge) WatchAssets(ctx context.Context, dir string, debounce time.Duration) error {
	w, err := watch.New(dir, func(files []string) {
		b.logger.Info("Assets changed on disk, reloading", "files", len(files))
		b.Reload()
	}, watch.WithDebounce(debounce), watch.WithLogger(b.logger))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// WatchRecipes drops parsed user recipes whenever the loader signals a
// change. It blocks until ctx is done.
func (b *Bridge) WatchRecipes(ctx context.Context) error {
	w, ok := b.loader.(ports.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	ch, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, open := <-ch:
			if !open {
				return nil
			}
			b.logger.Debug("Recipe library changed")
			b.library.Invalidate()
		}
	}
}
