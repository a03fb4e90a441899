// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// Watcher reloads a configuration file when it changes.
type Watcher struct {
	path string
	w    *fsnotify.Watcher
}

// NewWatcher starts watching path. The directory is watched rather than
// the file, so editors that replace the file are seen too.
func NewWatcher(path string) (*Watcher, error) {
	if path == "" {
		path = DefaultPath
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrap(err, "config path")
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watch config")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}
	return &Watcher{path: path, w: w}, nil
}

// Run calls fn with the new configuration after every change to the
// file, until ctx is done. Files that fail to load are logged and
// skipped. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) error {
	defer w.w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			c, err := Load(w.path)
			if err != nil {
				logger.WithField("path", w.path).Warnf("reload: %v", err)
				continue
			}
			logger.WithField("path", w.path).Debugf("reloaded")
			fn(c)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "watch config")
		}
	}
}
