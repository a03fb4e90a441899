// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"bufio"
	"crypto/subtle"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// MitMagicCookie is the only authorization protocol the server checks.
const MitMagicCookie = "MIT-MAGIC-COOKIE-1"

// As per /usr/include/X11/Xauth.h.
const (
	familyLocal    = 256
	familyWild     = 65535
	familyInternet = 0
)

// AuthEntry is one record of an Xauthority file.
type AuthEntry struct {
	Family  uint16
	Address string
	Display string
	Name    string
	Data    []byte
}

func getU16BE(r io.Reader, b []byte) (uint16, error) {
	_, err := io.ReadFull(r, b[0:2])
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 + uint16(b[1]), nil
}

func getBytes(r io.Reader, b []byte) ([]byte, error) {
	n, err := getU16BE(r, b)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err = io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func getString(r io.Reader, b []byte) (string, error) {
	b, err := getBytes(r, b)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadAuthority parses every record of an Xauthority file.
func ReadAuthority(r io.Reader) ([]AuthEntry, error) {
	var b [2]byte
	var entries []AuthEntry

	br := bufio.NewReader(r)
	for {
		family, err := getU16BE(br, b[:])
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "Xauthority family")
		}

		var e AuthEntry
		e.Family = family
		if e.Address, err = getString(br, b[:]); err != nil {
			return nil, errors.Wrap(err, "Xauthority address")
		}
		if e.Display, err = getString(br, b[:]); err != nil {
			return nil, errors.Wrap(err, "Xauthority display")
		}
		if e.Name, err = getString(br, b[:]); err != nil {
			return nil, errors.Wrap(err, "Xauthority name")
		}
		if e.Data, err = getBytes(br, b[:]); err != nil {
			return nil, errors.Wrap(err, "Xauthority data")
		}
		entries = append(entries, e)
	}
}

// Authority holds the cookies a server accepts for its display.
type Authority struct {
	cookies [][]byte
}

// LoadAuthority reads the Xauthority file at path and keeps the
// MIT-MAGIC-COOKIE-1 records for the given display number.
func LoadAuthority(path string, display int) (*Authority, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open Xauthority")
	}
	defer f.Close()

	entries, err := ReadAuthority(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return NewAuthority(entries, display), nil
}

// NewAuthority keeps the entries usable for display.
func NewAuthority(entries []AuthEntry, display int) *Authority {
	disp := strconv.Itoa(display)
	a := &Authority{}
	for _, e := range entries {
		if e.Name != MitMagicCookie || e.Display != disp {
			continue
		}
		switch e.Family {
		case familyLocal, familyWild, familyInternet:
			a.cookies = append(a.cookies, e.Data)
		}
	}
	return a
}

// Check reports whether name and data are an accepted cookie.
func (a *Authority) Check(name string, data []byte) bool {
	if name != MitMagicCookie {
		return false
	}
	for _, c := range a.cookies {
		if len(c) == len(data) && subtle.ConstantTimeCompare(c, data) == 1 {
			return true
		}
	}
	return false
}
