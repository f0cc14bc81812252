// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clip

import (
	"errors"
	"fmt"
)

var ErrInvalidColor = errors.New("invalid color")

// NewColorClip builds a still frame clip of the given size displaying a
// single uniform color.
//
// In mask mode color must hold exactly one intensity value in [0, 1], nil
// meaning fully transparent. Otherwise color holds one value per channel,
// nil meaning opaque black. The tiled buffer goes through the regular
// ImageClip construction path, so a 4-channel color still gets its alpha
// split into a mask by default.
func NewColorClip(w, h int, color []float64, opts ...Option) (*ImageClip, error) {
	o := newOptions(opts)

	if o.isMask {
		if color == nil {
			color = []float64{0}
		}
		if len(color) != 1 {
			return nil, fmt.Errorf("mask color must be a single intensity value, got %d: %w", len(color), ErrInvalidColor)
		}
	} else {
		if color == nil {
			color = []float64{0, 0, 0}
		}
		if len(color) == 0 {
			return nil, fmt.Errorf("color must contain per channel values: %w", ErrInvalidColor)
		}
	}

	buf := NewBuffer(w, h, len(color))
	for i := range buf.Pix {
		buf.Pix[i] = color[i%len(color)]
	}
	return NewImageClip(buf, opts...), nil
}
