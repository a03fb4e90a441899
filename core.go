// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import "sort"

// Core request opcodes served by this server.
const (
	QueryExtensionOpcode = 98
	ListExtensionsOpcode = 99
	NoOperationOpcode    = 127
)

func (s *Server) initCore() {
	s.core.Procs.Set(QueryExtensionOpcode, s.procQueryExtension)
	s.core.Procs.Set(ListExtensionsOpcode, s.procListExtensions)
	s.core.Procs.Set(NoOperationOpcode, procNoOperation)

	s.core.SwappedProcs.Set(QueryExtensionOpcode, s.sProcQueryExtension)
	s.core.SwappedProcs.Set(ListExtensionsOpcode, s.procListExtensions)
	s.core.SwappedProcs.Set(NoOperationOpcode, procNoOperation)
}

// QueryExtension
//
//	1 98, 1 unused, 2 length, 2 name length, 2 unused, n name
func (s *Server) procQueryExtension(c *Client, req *Request) Status {
	if st := RequestAtLeastSize(req, 8); st != Success {
		return st
	}
	n := int(Get16(req.Buf[4:]))
	if st := RequestFixedSize(req, 8, n); st != Success {
		return st
	}
	name := string(req.Buf[8 : 8+n])

	reply := make([]byte, GenericReplySize)
	if ext := s.Extension(name); ext != nil {
		reply[8] = 1
		reply[9] = ext.Major
		reply[10] = ext.FirstEvent
		reply[11] = ext.FirstError
	}
	return SendReplySimple(c, reply)
}

func (s *Server) sProcQueryExtension(c *Client, req *Request) Status {
	if st := RequestAtLeastSize(req, 8); st != Success {
		return st
	}
	Swap16(req.Buf[4:])
	return s.procQueryExtension(c, req)
}

// ListExtensions answers the registered names, sorted.
func (s *Server) procListExtensions(c *Client, req *Request) Status {
	if st := RequestSizeMatch(req, 4); st != Success {
		return st
	}
	names := make([]string, 0, len(s.extensionOrder))
	for _, ext := range s.extensionOrder {
		names = append(names, ext.Name)
	}
	sort.Stable(sort.StringSlice(names))

	rb := NewReplyBuffer(c)
	for _, name := range names {
		rb.WriteString(name)
	}
	reply := make([]byte, GenericReplySize)
	reply[1] = byte(len(names))
	return SendReply(c, reply, rb)
}

func procNoOperation(c *Client, req *Request) Status {
	if st := RequestAtLeastSize(req, 4); st != Success {
		return st
	}
	return Success
}
