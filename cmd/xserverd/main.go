// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command xserverd serves the SHAPE, XInputExtension and XKEYBOARD
// requests over X11 connections.
//
// Usage:
//
//	xserverd [--config file] [--display n] [--xinerama] [--debug]
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/config"
)

var logger = xserver.NewLogger("xserverd")

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		cfgPath  string
		display  int
		xinerama bool
		debug    bool
	)
	cmd := &cobra.Command{
		Use:          "xserverd",
		Short:        "Serve X11 protocol extensions",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&cfgPath, "config", config.DefaultPath, "configuration file")
	cmd.Flags().IntVar(&display, "display", 0, "display number")
	cmd.Flags().BoolVar(&xinerama, "xinerama", false, "join the screens into one logical screen")
	cmd.Flags().BoolVar(&debug, "debug", false, "log at debug level")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("display") {
			cfg.Display = display
		}
		if flags.Changed("xinerama") {
			cfg.Xinerama = xinerama
		}
		if debug {
			cfg.LogLevel = "debug"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, cfgPath, debug)
	}
	return cmd
}

func run(ctx context.Context, cfg *config.Config, cfgPath string, debug bool) error {
	s, err := newServer(cfg)
	if err != nil {
		return err
	}

	if w, err := config.NewWatcher(cfgPath); err != nil {
		logger.Warnf("not watching config: %v", err)
	} else {
		go func() {
			err := w.Run(ctx, func(c *config.Config) {
				if debug {
					c.LogLevel = "debug"
				}
				s.reload(c)
			})
			if err != nil {
				logger.Warnf("config watch stopped: %v", err)
			}
		}()
	}

	network, addr := cfg.Address()
	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(addr), 0o1777); err != nil {
			return errors.Wrap(err, "socket directory")
		}
		os.Remove(addr)
	}
	l, err := net.Listen(network, addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	logger.WithField("address", addr).Printf("serving display :%d", cfg.Display)
	return s.Serve(ctx, l)
}
