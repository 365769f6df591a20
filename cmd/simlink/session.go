// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/bureau-foundation/simlink/correlate"
	"github.com/bureau-foundation/simlink/lib/config"
	"github.com/bureau-foundation/simlink/lib/wiretrace"
	"github.com/bureau-foundation/simlink/transport"
)

// connectionFlags are shared by every subcommand that opens a link.
type connectionFlags struct {
	configPath string
	tracePath  string
	verbose    bool
}

func (f *connectionFlags) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "path to config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&f.tracePath, "trace", "", "record link traffic to this file (overrides trace.path)")
	flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level, including wire bytes")
}

// loadConfig reads the file named by --config or SIMLINK_CONFIG. With
// neither set the built-in defaults apply.
func (f *connectionFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.configPath != "":
		cfg, err = config.LoadFile(f.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if f.tracePath != "" {
		cfg.Trace.Path = f.tracePath
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger writes human-readable logs to a terminal and JSON
// otherwise.
func newLogger(w io.Writer, level slog.Level, isTerminal bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if isTerminal {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// session holds what a subcommand needs to talk to a simulator.
type session struct {
	config *config.Config
	logger *slog.Logger
	trace  *wiretrace.Recorder
}

func (f *connectionFlags) open() (*session, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr, cfg.Log.SlogLevel(), term.IsTerminal(int(os.Stderr.Fd())))
	s := &session{config: cfg, logger: logger}

	if cfg.Trace.Path != "" {
		compression, err := wiretrace.ParseCompression(cfg.Trace.Compression)
		if err != nil {
			return nil, err
		}
		s.trace, err = wiretrace.Create(cfg.Trace.Path, wiretrace.Options{
			Compression: compression,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("recording link traffic", "path", cfg.Trace.Path, "compression", compression)
	}
	return s, nil
}

// tap returns the trace recorder as a correlate.Tap, or nil when
// tracing is off.
func (s *session) tap() correlate.Tap {
	if s.trace == nil {
		return nil
	}
	return s.trace
}

func (s *session) close() error {
	if s.trace == nil {
		return nil
	}
	if err := s.trace.Close(); err != nil {
		return fmt.Errorf("closing trace: %w", err)
	}
	s.logger.Info("trace written", "path", s.config.Trace.Path, "records", s.trace.Records())
	return nil
}

func (s *session) dialSIMH(ctx context.Context) (transport.Link, error) {
	dialer, err := transport.NewDialer(s.config.SIMH.Transport, transport.Options{
		Timeout: s.config.SIMH.CommandTimeout(),
	})
	if err != nil {
		return nil, err
	}
	link, err := dialer.DialContext(ctx, s.config.SIMH.Address)
	if err != nil {
		return nil, err
	}
	s.logger.Info("connected to simh", "transport", s.config.SIMH.Transport, "address", s.config.SIMH.Address)
	return link, nil
}

func (s *session) dialZXNext(ctx context.Context) (transport.Link, error) {
	dialer, err := transport.NewDialer(s.config.ZXNext.Transport, transport.Options{
		Timeout:  s.config.ZXNext.Timeout(),
		BaudRate: s.config.ZXNext.BaudRate,
	})
	if err != nil {
		return nil, err
	}
	link, err := dialer.DialContext(ctx, s.config.ZXNext.Endpoint())
	if err != nil {
		return nil, err
	}
	s.logger.Info("connected to zx next", "transport", s.config.ZXNext.Transport, "endpoint", s.config.ZXNext.Endpoint())
	return link, nil
}

// runner is the lifecycle shared by the simh and zxnext clients.
type runner interface {
	Run(ctx context.Context) error
	Close() error
}

// start runs the client's link I/O in the background. The returned
// function closes the client and reports how the connection ended.
func start(ctx context.Context, c runner) (stop func() error) {
	var group errgroup.Group
	group.Go(func() error { return c.Run(ctx) })
	return func() error {
		c.Close()
		return group.Wait()
	}
}

// firstError returns err unless it is nil, in which case it returns
// the result of cleanup.
func firstError(err error, cleanup func() error) error {
	if cleanupErr := cleanup(); err == nil {
		return cleanupErr
	}
	return err
}
