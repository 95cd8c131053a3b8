// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cristalhq/acmd"

	"codeberg.org/readeck/microdata/internal/httpclient"
	"codeberg.org/readeck/microdata/internal/server"
)

func init() {
	commands = append(commands, acmd.Command{
		Name:        "serve",
		Description: "Start the extraction HTTP API",
		ExecFunc:    runServe,
	})
}

func runServe(ctx context.Context, args []string) error {
	var host string
	var port int

	var flags appFlags
	fs := flags.Flags()
	fs.StringVar(&host, "host", "", "server host")
	fs.IntVar(&port, "port", 0, "server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := appPreRun(&flags); err != nil {
		return err
	}
	cf := flags.config

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cf.Server.Host = host
		case "port":
			cf.Server.Port = port
		}
	})
	if err := cf.Validate(); err != nil {
		return err
	}

	client := httpclient.New(
		httpclient.WithTimeout(cf.HTTP.Timeout.Duration),
		httpclient.WithUserAgent(cf.HTTP.UserAgent),
	)

	srv := &http.Server{
		Addr:              cf.Addr(),
		Handler:           server.New(cf, client),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("server started", slog.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
