package daemon

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/nestegg-app/nestegg/internal/api"
	"github.com/nestegg-app/nestegg/internal/infra/sqlite"
)

// Daemon runs the NestEgg API server over the portfolio database.
type Daemon struct {
	cfg Config
	db  *sqlite.DB
	srv *http.Server
}

// New creates a daemon from the configuration, opening the database.
func New(cfg Config) (*Daemon, error) {
	dir, err := cfg.Server.DataDirOrDefault()
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, err
	}

	server := api.NewServer(db)
	if cfg.Server.Metrics {
		server.EnableMetrics()
	}

	return &Daemon{
		cfg: cfg,
		db:  db,
		srv: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on %s", d.cfg.Server.Addr())
		errCh <- d.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[daemon] shutdown: %v", err)
		}
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.db.Close()
			return err
		}
	}
	return d.db.Close()
}
