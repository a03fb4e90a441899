// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	firstExtensionMajor = 128
	firstExtensionEvent = 64
	firstExtensionError = 128
	lastEvent           = 127
	lastError           = 255
)

// Proc handles one request. Its fields are in host byte order by the time
// it runs; it still checks the request length before reading any of them.
type Proc func(c *Client, req *Request) Status

// ProcVector is a jump table indexed by opcode. Missing entries answer
// BadRequest.
type ProcVector []Proc

// Call runs the handler registered for op.
func (v ProcVector) Call(op byte, c *Client, req *Request) Status {
	if int(op) >= len(v) || v[op] == nil {
		return BadRequest
	}
	return v[op](c, req)
}

// Set installs p for op, growing the table as needed.
func (v *ProcVector) Set(op byte, p Proc) {
	if int(op) >= len(*v) {
		grown := make(ProcVector, int(op)+1)
		copy(grown, *v)
		*v = grown
	}
	(*v)[op] = p
}

// Extension is a registered protocol extension. Procs serves clients in
// host byte order; SwappedProcs serves swapped clients and is expected to
// swap each request in place before delegating to the matching Procs
// entry.
type Extension struct {
	Name       string
	Major      byte
	FirstEvent byte
	FirstError byte
	NumEvents  int
	NumErrors  int

	Procs        ProcVector
	SwappedProcs ProcVector
}

// Error maps the extension's n-th error to its protocol error number.
func (e *Extension) Error(n int) Status {
	return Status(int(e.FirstError) + n)
}

// Event maps the extension's n-th event to its protocol event code.
func (e *Extension) Event(n int) byte {
	return e.FirstEvent + byte(n)
}

// Dispatch routes a request to the handler for its minor opcode, taking
// the swapped table for swapped clients.
func (e *Extension) Dispatch(c *Client, req *Request) Status {
	if c.Swapped {
		return e.SwappedProcs.Call(req.Minor, c, req)
	}
	return e.Procs.Call(req.Minor, c, req)
}

// AddExtension registers an extension and hands out its major opcode and
// event and error ranges.
func (s *Server) AddExtension(name string, numEvents, numErrors int) (*Extension, error) {
	if name == "" {
		return nil, errors.New("extension without a name")
	}
	key := strings.ToUpper(name)
	if _, ok := s.extensions[key]; ok {
		return nil, errors.Errorf("extension %s already registered", name)
	}
	if s.nextMajor == 0 {
		return nil, errors.Errorf("no major opcode left for %s", name)
	}
	if s.nextEvent+numEvents > lastEvent+1 {
		return nil, errors.Errorf("no event codes left for %s", name)
	}
	if s.nextError+numErrors > lastError+1 {
		return nil, errors.Errorf("no error codes left for %s", name)
	}

	ext := &Extension{
		Name:      name,
		Major:     byte(s.nextMajor),
		NumEvents: numEvents,
		NumErrors: numErrors,
	}
	if numEvents > 0 {
		ext.FirstEvent = byte(s.nextEvent)
		s.nextEvent += numEvents
	}
	if numErrors > 0 {
		ext.FirstError = byte(s.nextError)
		s.nextError += numErrors
	}
	s.nextMajor++
	if s.nextMajor > 255 {
		s.nextMajor = 0
	}

	s.extensions[key] = ext
	s.byMajor[ext.Major] = ext
	s.extensionOrder = append(s.extensionOrder, ext)
	logger.WithField("extension", name).Debugf("major %d, events %d, errors %d",
		ext.Major, ext.FirstEvent, ext.FirstError)
	return ext, nil
}

// Extension looks up a registered extension by name, ignoring case.
func (s *Server) Extension(name string) *Extension {
	return s.extensions[strings.ToUpper(name)]
}

// ClientHook is implemented by anything holding per-client state that
// has to go when the client disconnects.
type ClientHook interface {
	ClientGone(c *Client)
}

// AddClientHook registers h to run on every client teardown.
func (s *Server) AddClientHook(h ClientHook) {
	s.clientHooks = append(s.clientHooks, h)
}
