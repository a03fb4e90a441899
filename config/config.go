// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads the server configuration from a TOML file and
// watches it for changes.
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stefan11111/xserver"
)

// DefaultPath is where the server looks when no path is given.
const DefaultPath = "~/.config/xserverd/config.toml"

var logger = xserver.NewLogger("config")

// Screen is one physical screen. X and Y place it in the logical screen
// when Xinerama is on.
type Screen struct {
	Width  int   `toml:"width"`
	Height int   `toml:"height"`
	X      int16 `toml:"x"`
	Y      int16 `toml:"y"`
}

type Shape struct {
	MaxSubscribers int `toml:"max_subscribers"`
}

type Keyboard struct {
	BellPercent int `toml:"bell_percent"`
	BellPitch   int `toml:"bell_pitch"`
	BellLength  int `toml:"bell_length"`
}

// Config is the whole server configuration.
type Config struct {
	Display int `toml:"display"`
	// Listen is a TCP address. Empty means the display's unix socket.
	Listen   string `toml:"listen"`
	AuthFile string `toml:"auth_file"`
	LogLevel string `toml:"log_level"`

	Vendor           string `toml:"vendor"`
	MaxRequestLength int    `toml:"max_request_length"`
	// OutputQueue is how many replies and events may wait for a client
	// that is not reading before it is disconnected.
	OutputQueue      int    `toml:"output_queue"`

	Xinerama bool     `toml:"xinerama"`
	Screens  []Screen `toml:"screen"`

	Shape    Shape    `toml:"shape"`
	Keyboard Keyboard `toml:"keyboard"`
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Vendor:   "The XGB Authors",
		Screens:  []Screen{{Width: 1024, Height: 768}},
		Keyboard: Keyboard{BellPercent: 50, BellPitch: 400, BellLength: 100},
	}
}

// Address returns the network and address to listen on.
func (c *Config) Address() (network, address string) {
	if c.Listen != "" {
		return "tcp", c.Listen
	}
	return "unix", fmt.Sprintf("/tmp/.X11-unix/X%d", c.Display)
}

// Validate checks the values a file cannot be trusted with.
func (c *Config) Validate() error {
	if c.Display < 0 {
		return errors.Errorf("display %d", c.Display)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if len(c.Screens) == 0 {
		return errors.New("no screens")
	}
	for i, s := range c.Screens {
		if s.Width <= 0 || s.Height <= 0 || s.Width > 0x7fff || s.Height > 0x7fff {
			return errors.Errorf("screen %d: bad size %dx%d", i, s.Width, s.Height)
		}
	}
	if c.MaxRequestLength < 0 {
		return errors.Errorf("max_request_length %d", c.MaxRequestLength)
	}
	if c.OutputQueue < 0 {
		return errors.Errorf("output_queue %d", c.OutputQueue)
	}
	if p := c.Keyboard.BellPercent; p < 0 || p > 100 {
		return errors.Errorf("keyboard bell_percent %d", p)
	}
	return nil
}

// Load reads the file at path over the defaults. A missing file is not
// an error. A leading ~ in path, and in the auth file named inside it,
// is expanded.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrap(err, "config path")
	}

	c := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		logger.WithField("path", path).Debugf("no config file, using defaults")
		return c, nil
	case err != nil:
		return nil, errors.Wrap(err, "read config")
	}
	if err := Parse(data, c); err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return c, nil
}

// Parse decodes TOML data into c and validates the result. Screens in
// data replace those of c rather than adding to them.
func Parse(data []byte, c *Config) error {
	screens := c.Screens
	c.Screens = nil
	if err := toml.Unmarshal(data, c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return errors.Errorf("line %d column %d: %s", row, col, derr.Error())
		}
		return errors.Wrap(err, "decode")
	}
	if len(c.Screens) == 0 {
		c.Screens = screens
	}
	if c.AuthFile != "" {
		p, err := homedir.Expand(c.AuthFile)
		if err != nil {
			return errors.Wrap(err, "auth_file")
		}
		c.AuthFile = p
	}
	return c.Validate()
}
