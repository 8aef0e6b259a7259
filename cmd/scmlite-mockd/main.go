// scmlite-mockd - development stand-in for the SCM Lite backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/morganforge/scmlite-tui/internal/mockserver"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "listen address")
	interval := flag.Duration("interval", 10*time.Second, "telemetry emit interval")
	seed := flag.Int("seed", 30, "telemetry samples to pre-fill")
	stepUp := flag.Bool("step-up", false, "enroll the demo user in step-up verification")
	flag.Parse()

	logger := log.New(os.Stderr, "scmlite-mockd: ", log.LstdFlags)

	feed := mockserver.NewFeed(500)
	feed.Fill(*seed)

	srv := mockserver.New(feed, logger)

	// Demo account so the client works out of the box.
	var secret string
	if *stepUp {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "scmlite",
			AccountName: "demo@scmlite.dev",
		})
		if err != nil {
			logger.Fatalf("could not generate TOTP secret: %v", err)
		}
		secret = key.Secret()
		fmt.Printf("demo TOTP secret: %s\n", secret)
	}
	if err := srv.AddUser("Demo User", "demo@scmlite.dev", "Demo1@pass", secret); err != nil {
		logger.Fatalf("could not register demo user: %v", err)
	}
	fmt.Println("demo account: demo@scmlite.dev / Demo1@pass")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go feed.Run(ctx, *interval)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on http://%s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server failed: %v", err)
	}
}
