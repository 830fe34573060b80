// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main runs the local stand-in for the inspection service, so
// the client can be developed and demoed without network access.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/icarus698x/landing-page/internal/devserver"
)

func main() {
	port := flag.Int("port", devserver.DefaultPort, "port to listen on")
	script := flag.String("script", "", "override the canned answer text")
	flag.Parse()

	srv := devserver.NewServer(*port)
	if *script != "" {
		srv.WithScript(*script)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "devserver: %v\n", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Printf("SERVER_STOPPING | signal=%s", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "devserver: shutdown: %v\n", err)
			os.Exit(1)
		}
	}
}
