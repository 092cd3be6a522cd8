// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/slsship/lib/process"
	"github.com/bureau-foundation/slsship/lib/sls"
	"github.com/bureau-foundation/slsship/lib/transport"
	"github.com/bureau-foundation/slsship/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var cli commandLine
	flagSet := pflag.NewFlagSet("slsship", pflag.ContinueOnError)
	cli.register(flagSet)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected arguments %q; slsship reads stdin", flagSet.Args())
	}

	if cli.showVersion {
		fmt.Printf("slsship %s\n", version.Info())
		return nil
	}

	options, err := cli.options(flagSet)
	if err != nil {
		return err
	}

	logger := process.NewLogger(slog.LevelInfo)
	options.Logger = logger.With("component", "sls")
	options.ErrorSink = func(report sls.DropReport) {
		logger.Warn("entries dropped",
			"reason", report.Reason.String(),
			"entries", report.Entries,
			"attempts", report.Attempts,
			"error", report.Err,
		)
	}

	transport.Init(transport.NewHTTP(nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := sls.New(ctx, options)
	if err != nil {
		return err
	}

	if process.IsTerminal(os.Stdin) {
		logger.Info("reading log lines from stdin; end input with Ctrl-D")
	}

	reader := lineReader{
		client:  client,
		json:    cli.jsonInput,
		level:   cli.level,
		maxLine: cli.maxLineBytes,
	}
	lines, readErr := reader.ship(ctx, os.Stdin)
	closeErr := client.Close()

	stats := client.Stats()
	logger.Info("slsship finished",
		"lines", lines,
		"entries_sent", stats.EntriesSent,
		"groups_sent", stats.GroupsSent,
		"entries_dropped", stats.EntriesDropped,
		"entries_lost", stats.EntriesLost,
		"retries", stats.Retries,
	)
	if errors.Is(readErr, context.Canceled) {
		readErr = nil
	}
	return errors.Join(readErr, closeErr)
}
