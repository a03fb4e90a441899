// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxRequestLength is the largest request, in 4-byte units,
	// accepted without BIG-REQUESTS.
	DefaultMaxRequestLength = 0xffff

	// DefaultOutputQueue is how many transmissions may wait for a client
	// before it is considered stuck.
	DefaultOutputQueue = 1024

	readBuffer = 4096
)

// A Server owns the protocol state shared by all clients: the extension
// registry, the core request table and the client list. Every request is
// run to completion with the protocol lock held, so handlers never see
// another request half done.
type Server struct {
	// Vendor and Release go into the connection setup reply.
	Vendor  string
	Release uint32

	// MaxRequestLength is in 4-byte units. Zero means
	// DefaultMaxRequestLength.
	MaxRequestLength int

	// OutputQueue bounds the transmissions waiting for one client. Zero
	// means DefaultOutputQueue.
	OutputQueue int

	// Auth, when set, must accept a connection's authorization.
	Auth *Authority

	// Clock overrides the server timestamp, for tests.
	Clock func() uint32

	mu sync.Mutex

	clientLock sync.Mutex
	nextClient int
	clients    map[int]*Client

	core           Extension
	extensions     map[string]*Extension
	byMajor        [256]*Extension
	extensionOrder []*Extension
	nextMajor      int
	nextEvent      int
	nextError      int

	eventSwaps  [128]EventSwapFunc
	clientHooks []ClientHook
}

// NewServer returns a server with the core requests installed and no
// extensions.
func NewServer() *Server {
	s := &Server{
		Vendor:     "The XGB Authors",
		Release:    1,
		clients:    make(map[int]*Client),
		extensions: make(map[string]*Extension),
		nextMajor:  firstExtensionMajor,
		nextEvent:  firstExtensionEvent,
		nextError:  firstExtensionError,
	}
	s.core = Extension{Name: "core"}
	s.initCore()
	return s
}

func (s *Server) maxRequestLength() int {
	if s.MaxRequestLength > 0 {
		return s.MaxRequestLength
	}
	return DefaultMaxRequestLength
}

func (s *Server) outputQueue() int {
	if s.OutputQueue > 0 {
		return s.OutputQueue
	}
	return DefaultOutputQueue
}

// Lock takes the protocol lock. Code that changes server state outside a
// request, like window destruction driven by a host, must hold it.
func (s *Server) Lock() { s.mu.Lock() }

// Unlock releases the protocol lock.
func (s *Server) Unlock() { s.mu.Unlock() }

// Clients returns the connected clients in no particular order.
func (s *Server) Clients() []*Client {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	cs := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		cs = append(cs, c)
	}
	return cs
}

// Dispatch runs one request of c and sends the error packet if it fails.
// The sequence number is bumped first, so replies and errors carry the
// number of the request they answer.
func (s *Server) Dispatch(c *Client, req *Request) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Sequence++
	c.ErrorValue = 0

	var status Status
	switch {
	case req.Major < firstExtensionMajor:
		status = s.core.dispatchMajor(c, req)
	case s.byMajor[req.Major] != nil:
		ext := s.byMajor[req.Major]
		if c.Swapped {
			swapRequestLength(req)
		}
		status = ext.Dispatch(c, req)
	default:
		status = BadRequest
	}

	if status != Success {
		logger.WithFields(map[string]interface{}{
			"client": c.Index,
			"major":  req.Major,
			"minor":  req.Minor,
		}).Debugf("request failed: %s", status)
		c.SendError(status, req)
	}
	return status
}

func (e *Extension) dispatchMajor(c *Client, req *Request) Status {
	if c.Swapped {
		swapRequestLength(req)
		return e.SwappedProcs.Call(req.Major, c, req)
	}
	return e.Procs.Call(req.Major, c, req)
}

// swapRequestLength brings the header length into host order. Swap
// wrappers take it from there.
func swapRequestLength(req *Request) {
	if len(req.Buf) >= 4 {
		Swap16(req.Buf[2:])
	}
}

// CloseClient tears a client down: every client hook runs under the
// protocol lock, then the client is forgotten. Output already queued is
// still written.
func (s *Server) CloseClient(c *Client) {
	s.mu.Lock()
	c.gone = true
	for _, h := range s.clientHooks {
		h.ClientGone(c)
	}
	s.mu.Unlock()
	c.closeOutput()

	s.clientLock.Lock()
	delete(s.clients, c.Index)
	s.clientLock.Unlock()
}

// Serve accepts connections on l until ctx is done or Accept fails. Each
// connection gets its own reader goroutine. Cancelling ctx closes the
// listener and every open connection; Serve returns once all of them
// are gone.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		l.Close()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := l.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "accept")
			}
			g.Go(func() error {
				s.ServeConn(ctx, conn)
				return nil
			})
		}
	})

	return g.Wait()
}

// ServeConn runs the setup handshake on conn and then reads and
// dispatches requests until the connection fails or ctx is done. conn is
// closed on return.
func (s *Server) ServeConn(ctx context.Context, conn io.ReadWriteCloser) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	r := bufio.NewReaderSize(conn, readBuffer)
	c, err := s.setup(r, conn)
	if err != nil {
		if ctx.Err() == nil {
			logger.Printf("connection setup failed: %v", err)
		}
		return
	}
	defer func() {
		s.CloseClient(c)
		conn.Close()
		<-c.outDone
	}()

	lg := logger.WithField("client", c.Index)
	lg.Debugf("connected, swapped %v", c.Swapped)
	for {
		req, err := ReadRequest(r, c.ByteOrder, s.maxRequestLength())
		if err != nil {
			if ctx.Err() == nil && errors.Cause(err) != io.EOF {
				lg.Printf("closing: %v", err)
			}
			return
		}
		s.Dispatch(c, req)
		if c.Err() != nil {
			return
		}
	}
}
