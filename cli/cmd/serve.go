package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BDNK1/netflow/cli/internal/workspace"
	"github.com/BDNK1/netflow/runtime"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(s *session) *cobra.Command {
	var (
		addr     string
		accessor string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scripts directory over HTTP",
		Long: `Serve loads every script in the scripts directory and exposes them:

  GET  /scripts             names of loaded scripts
  GET  /scripts/:name       targets of one script
  POST /scripts/:name/run   run a script, body {"inputs": {...}, "target": "..."}

Runs share one accessor, so cookies persist between requests.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = s.cfg.Serve.Addr
			}
			return serve(cmd.Context(), s, addr, accessor)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&accessor, "accessor", "", "Accessor to use: http or browser (default from config)")
	return serveCmd
}

func serve(ctx context.Context, s *session, addr, accessor string) error {
	w, err := workspace.Open(s.cfg, accessor, s.logger)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	defer w.Close(context.WithoutCancel(ctx))

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery(), requestLogger(s.logger))
	runtime.NewHttpHandler(w.App, w.Executor, g)

	srv := &http.Server{Addr: addr, Handler: g}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving scripts", "addr", addr, "scripts", w.App.ScriptNames())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return &exitError{code: ExitError, err: err}
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		l.InfoContext(c.Request.Context(), "Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(started))
	}
}
