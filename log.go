// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// PrintLog controls whether the server emits log output. By default, it is
// enabled.
var PrintLog = true

// Logger is the logrus logger every component logs through.
var Logger = newLogrus()

var logger = NewLogger("dix")

func newLogrus() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: false, FullTimestamp: true}
	l.Level = logrus.InfoLevel
	return l
}

// Log is a wrapper around a logrus entry so we can control whether it
// should output anything.
type Log struct {
	*logrus.Entry
}

// NewLogger returns a logger tagged with the given component name.
func NewLogger(component string) Log {
	return Log{Logger.WithField("component", component)}
}

func (lg Log) WithField(key string, value interface{}) Log {
	return Log{lg.Entry.WithField(key, value)}
}

func (lg Log) WithFields(fields logrus.Fields) Log {
	return Log{lg.Entry.WithFields(fields)}
}

func (lg Log) Printf(format string, v ...interface{}) {
	if PrintLog {
		lg.Entry.Printf(format, v...)
	}
}

func (lg Log) Println(v ...interface{}) {
	if PrintLog {
		lg.Entry.Println(v...)
	}
}

func (lg Log) Debugf(format string, v ...interface{}) {
	if PrintLog {
		lg.Entry.Debugf(format, v...)
	}
}

func (lg Log) Warnf(format string, v ...interface{}) {
	if PrintLog {
		lg.Entry.Warnf(format, v...)
	}
}

func (lg Log) Errorf(format string, v ...interface{}) {
	if PrintLog {
		lg.Entry.Errorf(format, v...)
	}
}

func (lg Log) Panicf(format string, v ...interface{}) {
	if PrintLog {
		lg.Entry.Panicf(format, v...)
	} else {
		panic(fmt.Sprintf(format, v...))
	}
}

// SetLevel parses a logrus level name ("debug", "info", ...) and applies
// it to Logger.
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}
