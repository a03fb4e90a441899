package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/config"
	"github.com/stefan11111/xserver/resource"
	"github.com/stefan11111/xserver/shape"
	"github.com/stefan11111/xserver/xinput"
	"github.com/stefan11111/xserver/xkb"
)

func init() {
	xserver.PrintLog = false
}

func twoScreens() *config.Config {
	cfg := config.Default()
	cfg.Xinerama = true
	cfg.Screens = []config.Screen{
		{Width: 800, Height: 600},
		{Width: 640, Height: 480, X: 800},
	}
	cfg.Shape.MaxSubscribers = 4
	cfg.OutputQueue = 64
	cfg.Keyboard.BellPitch = 880
	return cfg
}

func TestNewServer(t *testing.T) {
	s, err := newServer(twoScreens())
	require.NoError(t, err)

	for _, name := range []string{shape.ExtName, xinput.ExtName, xkb.ExtName} {
		assert.NotNil(t, s.Extension(name), name)
	}
	require.Len(t, s.res.Screens(), 2)
	assert.Equal(t, xproto.Window(firstRoot+1), s.res.Screen(1).Root.ID)

	require.True(t, s.pan.Active())
	res, st := s.pan.LookupWindow(firstRoot, nil, resource.ReadAccess)
	require.Equal(t, xserver.Success, st)
	assert.Equal(t, []uint32{firstRoot, firstRoot + 1}, res.Info)
	assert.Equal(t, 800, s.pan.Origin(1).X)

	assert.Equal(t, 4, s.shape.MaxSubscribers)
	assert.Equal(t, 64, s.OutputQueue)
	assert.Equal(t, 880, s.xkb.BellPitch)
	assert.NotNil(t, s.xkb.Ring)
	assert.NotNil(t, s.devs.Device(2))
}

func TestNewServerSingleScreen(t *testing.T) {
	cfg := config.Default()
	cfg.Xinerama = true
	s, err := newServer(cfg)
	require.NoError(t, err)
	assert.False(t, s.pan.Active())
}

func TestNewServerErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Screens = nil
	_, err := newServer(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.AuthFile = filepath.Join(t.TempDir(), "missing")
	_, err = newServer(cfg)
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	s, err := newServer(twoScreens())
	require.NoError(t, err)

	cfg := twoScreens()
	cfg.Shape.MaxSubscribers = 9
	s.reload(cfg)
	assert.Equal(t, 9, s.shape.MaxSubscribers)
}

func TestRunStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("listen = \"127.0.0.1:0\"\n"), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, run(ctx, cfg, path, false))
}

func TestCommandBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("display = = 0"), 0o644))

	cmd := newCommand()
	cmd.SetArgs([]string{"--config", path})
	cmd.SetOut(new(nopWriter))
	cmd.SetErr(new(nopWriter))
	assert.Error(t, cmd.Execute())
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
