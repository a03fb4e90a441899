// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/config"
	"github.com/stefan11111/xserver/input"
	"github.com/stefan11111/xserver/panoramix"
	"github.com/stefan11111/xserver/resource"
	"github.com/stefan11111/xserver/shape"
	"github.com/stefan11111/xserver/xinput"
	"github.com/stefan11111/xserver/xkb"
)

// firstRoot is the id of the first screen's root window. Roots sit in
// the server's own id range, below every client's.
const firstRoot = 0x100

// server is a configured server with its extensions.
type server struct {
	*xserver.Server

	res   *resource.Table
	devs  *input.Table
	pan   *panoramix.Panoramix
	shape *shape.Shape
	xi    *xinput.XInput
	xkb   *xkb.Xkb
}

func newServer(cfg *config.Config) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := xserver.SetLevel(cfg.LogLevel); err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	s := &server{
		Server: xserver.NewServer(),
		res:    resource.NewTable(),
		devs:   input.NewTable(),
	}
	if cfg.Vendor != "" {
		s.Vendor = cfg.Vendor
	}
	s.MaxRequestLength = cfg.MaxRequestLength
	s.OutputQueue = cfg.OutputQueue
	if cfg.AuthFile != "" {
		auth, err := xserver.LoadAuthority(cfg.AuthFile, cfg.Display)
		if err != nil {
			return nil, err
		}
		s.Auth = auth
	}

	roots := make([]xproto.Window, len(cfg.Screens))
	infos := make([]xinerama.ScreenInfo, len(cfg.Screens))
	for i, sc := range cfg.Screens {
		roots[i] = xproto.Window(firstRoot + i)
		if _, err := s.res.AddScreen(roots[i], sc.Width, sc.Height); err != nil {
			return nil, errors.Wrapf(err, "screen %d", i)
		}
		infos[i] = xinerama.ScreenInfo{
			XOrg:   sc.X,
			YOrg:   sc.Y,
			Width:  uint16(sc.Width),
			Height: uint16(sc.Height),
		}
	}
	if cfg.Xinerama && len(cfg.Screens) > 1 {
		s.pan = panoramix.New(infos)
		if err := s.pan.AddWindow(roots[0], roots...); err != nil {
			return nil, err
		}
		s.res.AddWindowHook(s.pan)
	}
	if _, _, err := s.devs.AddCoreDevices(s.res.Screen(0)); err != nil {
		return nil, errors.Wrap(err, "core devices")
	}

	var err error
	if s.shape, err = shape.Register(s.Server, s.res, s.pan); err != nil {
		return nil, err
	}
	s.shape.MaxSubscribers = cfg.Shape.MaxSubscribers
	if s.xi, err = xinput.Register(s.Server, s.res, s.devs, s.pan); err != nil {
		return nil, err
	}
	if s.xkb, err = xkb.Register(s.Server, s.res, s.devs); err != nil {
		return nil, err
	}
	s.xkb.BellPercent = cfg.Keyboard.BellPercent
	s.xkb.BellPitch = cfg.Keyboard.BellPitch
	s.xkb.BellDuration = cfg.Keyboard.BellLength
	s.xkb.Ring = func(dev *input.Device, percent, pitch, duration int) {
		logger.WithField("device", dev.ID).
			Debugf("bell %d%% %d Hz %d ms", percent, pitch, duration)
	}
	return s, nil
}

// reload applies the settings that can change while running.
func (s *server) reload(cfg *config.Config) {
	if err := xserver.SetLevel(cfg.LogLevel); err != nil {
		logger.Warnf("reload: %v", err)
	}
	s.Lock()
	s.shape.MaxSubscribers = cfg.Shape.MaxSubscribers
	s.Unlock()
}
