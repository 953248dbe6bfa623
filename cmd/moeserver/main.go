package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeefy/llmmoe/internal/config"
	"github.com/jeefy/llmmoe/internal/expert"
	"github.com/jeefy/llmmoe/internal/query"
	"github.com/jeefy/llmmoe/internal/server"
	"github.com/jeefy/llmmoe/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	experts := expert.NewSet(cfg.Experts)
	for i, e := range experts {
		log.Printf("expert%d: %s (%s)", i+1, e.Name(), e.Model())
	}

	srv := server.New(query.New(st, experts), st)
	s := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Printf("starting moeserver on %s (store=%s)", cfg.Addr, cfg.StoreBackend)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore opens the configured backend and creates its schema. An Init
// failure is logged and swallowed: the store is still returned and later
// inserts report the problem per request.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.StoreBackend {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	case "memory":
		st = store.NewMemory()
	default:
		log.Printf("database path: %s", cfg.DBPath)
		st, err = store.NewSQLite(cfg.DBPath)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		log.Printf("Error initializing database: %v", err)
	}
	return st, nil
}
