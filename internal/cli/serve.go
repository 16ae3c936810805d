package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/internal/config"
	httpAdapter "github.com/aretw0/vfxbridge/pkg/adapters/http"
	"github.com/aretw0/vfxbridge/pkg/adapters/mcp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions selects what Serve runs next to the HTTP API.
type ServeOptions struct {
	// Listener serves the HTTP API. Nil listens on HTTPAddr.
	Listener net.Listener
	HTTPAddr string
	// MCPAddr enables the MCP SSE transport when set.
	MCPAddr string
	// Watch reloads the editor when the file store changes on disk.
	Watch bool
}

// Serve runs the HTTP API and the optional MCP transport and watchers until
// ctx is done or one of them fails.
func Serve(ctx context.Context, rt *Runtime, opts ServeOptions) error {
	handler, err := httpAdapter.NewHandler(rt.Bridge,
		httpAdapter.WithMetrics(rt.Metrics.Handler()),
		httpAdapter.WithLogger(rt.Logger),
	)
	if err != nil {
		return err
	}

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", opts.HTTPAddr, err)
		}
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.Logger.Info("HTTP server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	})

	if opts.MCPAddr != "" {
		mcpServer := mcp.NewServer(rt.Bridge, mcp.WithLogger(rt.Logger))
		g.Go(func() error { return mcpServer.ServeSSE(ctx, opts.MCPAddr) })
	}

	if opts.Watch {
		if rt.Config.Store.Kind == config.StoreFile {
			g.Go(func() error { return rt.Bridge.WatchAssets(ctx, rt.Config.Store.Dir, rt.Config.Watch.Debounce) })
		} else {
			rt.Logger.Warn("Asset watching needs the file store, skipping", "store", rt.Config.Store.Kind)
		}
	}
	if rt.Config.Recipes.Dir != "" {
		g.Go(func() error {
			err := rt.Bridge.WatchRecipes(ctx)
			if errors.Is(err, vfxbridge.ErrNotWatchable) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
