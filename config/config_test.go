package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefan11111/xserver"
)

func init() {
	xserver.PrintLog = false
}

const sample = `
display = 3
log_level = "debug"
auth_file = "/tmp/xauth"
xinerama = true
output_queue = 64

[[screen]]
width = 800
height = 600

[[screen]]
width = 640
height = 480
x = 800

[shape]
max_subscribers = 16

[keyboard]
bell_percent = 20
`

func write(t *testing.T, path, data string) {
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestLoadMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	write(t, path, sample)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Display)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/tmp/xauth", c.AuthFile)
	assert.True(t, c.Xinerama)
	assert.Equal(t, 64, c.OutputQueue)
	assert.Equal(t, []Screen{{Width: 800, Height: 600}, {Width: 640, Height: 480, X: 800}}, c.Screens)
	assert.Equal(t, 16, c.Shape.MaxSubscribers)
	assert.Equal(t, 20, c.Keyboard.BellPercent)
	// Untouched keys keep their defaults.
	assert.Equal(t, 400, c.Keyboard.BellPitch)
	assert.Equal(t, "The XGB Authors", c.Vendor)

	network, addr := c.Address()
	assert.Equal(t, "unix", network)
	assert.Equal(t, "/tmp/.X11-unix/X3", addr)

	c.Listen = "127.0.0.1:6003"
	network, addr = c.Address()
	assert.Equal(t, "tcp", network)
	assert.Equal(t, "127.0.0.1:6003", addr)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, data string
	}{
		{"syntax", "display = = 1"},
		{"type", `display = "zero"`},
		{"level", `log_level = "loud"`},
		{"screen too big", "[[screen]]\nwidth = 40000\nheight = 10"},
		{"screen size", "[[screen]]\nwidth = 0\nheight = 10"},
		{"bell", "[keyboard]\nbell_percent = 101"},
		{"display", "display = -1"},
		{"output queue", "output_queue = -1"},
	}
	dir := t.TempDir()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(dir, test.name+".toml")
			write(t, path, test.data)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	write(t, path, "log_level = \"info\"\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(c *Config) { reloaded <- c })
	}()

	// A broken file is skipped; the next good one comes through.
	write(t, path, "log_level = \"loud\"\n")
	write(t, path, "log_level = \"warn\"\n")

	timeout := time.After(5 * time.Second)
	for {
		var c *Config
		select {
		case c = <-reloaded:
		case <-timeout:
			t.Fatal("no reload")
		}
		if c.LogLevel == "warn" {
			break
		}
	}

	cancel()
	require.NoError(t, <-done)
}
