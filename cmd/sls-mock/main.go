// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/process"
	"github.com/bureau-foundation/slsship/lib/putlogs"
	"github.com/bureau-foundation/slsship/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		listen      string
		accessKeys  []string
		format      string
		decodePath  string
		failFirst   int64
		verbose     bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("sls-mock", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "127.0.0.1:8480", "address to serve PutLogs on")
	flagSet.StringArrayVar(&accessKeys, "access-key", []string{"ak=sk"}, "accepted credential as id=secret; repeatable")
	flagSet.StringVar(&format, "format", formatJSON, "capture output format: json or cbor")
	flagSet.StringVar(&decodePath, "decode", "", "print a recorded CBOR capture file in diagnostic notation and exit")
	flagSet.Int64Var(&failFirst, "fail-first", 0, "answer the first N valid requests with 503")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every accepted group")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("sls-mock %s\n", version.Info())
		return nil
	}

	if decodePath != "" {
		data, err := os.ReadFile(decodePath)
		if err != nil {
			return err
		}
		return diagnose(os.Stdout, data)
	}

	secrets, err := parseAccessKeys(accessKeys)
	if err != nil {
		return err
	}
	sink, err := newSink(os.Stdout, format, process.IsTerminal(os.Stdout))
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := process.NewLogger(level)

	server := &mockServer{
		secrets: secrets,
		sink:    sink,
		clock:   clock.Real(),
		logger:  logger,
	}
	server.failRemaining.Store(failFirst)

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.Serve(listener)
	}()

	logger.Info("sls mock listening",
		"address", listener.Addr().String(),
		"format", format,
		"access_keys", len(accessKeys),
		"fail_first", failFirst,
	)

	select {
	case err := <-serveDone:
		return err
	case <-ctx.Done():
	}

	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownContext); err != nil {
		return err
	}
	logger.Info("sls mock stopped",
		"requests", server.requests.Load(),
		"accepted", server.accepted.Load(),
	)
	return nil
}

// parseAccessKeys turns id=secret pairs into a lookup.
func parseAccessKeys(pairs []string) (putlogs.SecretLookup, error) {
	secrets := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		id, secret, found := strings.Cut(pair, "=")
		if !found || id == "" || secret == "" {
			return nil, fmt.Errorf("--access-key %q: want id=secret", pair)
		}
		secrets[id] = secret
	}
	return func(accessKeyID string) (string, bool) {
		secret, ok := secrets[accessKeyID]
		return secret, ok
	}, nil
}
