package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"sbp-admin/internal/apiclient"
	"sbp-admin/internal/authstore"
	"sbp-admin/internal/config"
	"sbp-admin/internal/tokenstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger(os.Stderr))

	tokens, err := tokenstore.Open(cfg)
	if err != nil {
		slog.Error("Failed to open token store", "store", cfg.Token.Store, "error", err)
		os.Exit(1)
	}

	client := apiclient.New(cfg.API.BaseURL, tokens, apiclient.WithTimeout(cfg.API.Timeout))
	store := authstore.New(client)
	store.Subscribe(func(st authstore.State) {
		slog.Debug("Auth state changed", "phase", st.Phase(), "error", st.Error)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	a := &app{
		client: client,
		auth:   store,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}
	runErr := a.run(ctx, os.Args[1:])

	stop()
	if err := tokens.Close(); err != nil {
		slog.Warn("Failed to close token store", "error", err)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
