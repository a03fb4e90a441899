// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shape

import (
	xshape "github.com/BurntSushi/xgb/shape"

	"github.com/stefan11111/xserver"
	"github.com/stefan11111/xserver/region"
	"github.com/stefan11111/xserver/resource"
)

// operate combines src into the window's shape of the given kind. src is
// owned by operate from here on; nil means the shape is to be removed,
// whatever op says. On success the screen's SetShape hook runs and
// ShapeNotify goes out, except when there was nothing to remove.
func (s *Shape) operate(c *xserver.Client, w *resource.Window, kind byte,
	src *region.Region, op byte, xOff, yOff int) xserver.Status {

	if src != nil && (xOff != 0 || yOff != 0) {
		src.Translate(xOff, yOff)
	}
	if w.IsRoot() {
		return xserver.Success
	}

	if src == nil {
		st := s.states[w.ID]
		if st == nil || *st.slot(kind) == nil {
			return xserver.Success
		}
		*st.slot(kind) = nil
	} else {
		var result *region.Region
		dest := s.Region(w.ID, kind)
		switch op {
		case xshape.SoSet:
			result = src
		case xshape.SoUnion:
			// Union with no shape yet is a Set.
			result = src
			if dest != nil {
				dest.Union(src)
				result = dest
			}
		case xshape.SoIntersect:
			result = src
			if dest != nil {
				dest.Intersect(src)
				result = dest
			}
		case xshape.SoSubtract:
			result = dest
			if result == nil {
				result = region.New(defaultBox(w, kind))
			}
			result.Subtract(src)
		case xshape.SoInvert:
			result = src
			if dest != nil {
				result.Subtract(dest)
			}
		default:
			c.ErrorValue = uint32(op)
			return xserver.BadValue
		}
		*s.state(w).slot(kind) = result
	}

	if w.Screen.SetShape == nil {
		logger.Panicf("screen %d has no SetShape hook", w.Screen.Index)
	}
	w.Screen.SetShape(w, kind)
	s.notify(w, kind)
	return xserver.Success
}
