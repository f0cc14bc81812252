// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Pixel buffer representation shared by clip types.

package clip

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/floats"
)

// Buffer is a dense row-major pixel buffer with C channels per sample.
//
// C == 1 is the mask shape with values in [0, 1]. Color images use C == 3
// with values in [0, 255], plus an optional 4th alpha channel. Transform
// helpers return fresh buffers, a Buffer handed to a clip is never mutated
// in place.
type Buffer struct {
	W, H, C int
	Pix     []float64
}

// NewBuffer allocates a zeroed w by h buffer with c channels.
func NewBuffer(w, h, c int) *Buffer {
	return &Buffer{W: w, H: h, C: c, Pix: make([]float64, w*h*c)}
}

// At returns the sample value of channel c at pixel (x, y).
func (b *Buffer) At(x, y, c int) float64 {
	return b.Pix[(y*b.W+x)*b.C+c]
}

// Set assigns the sample value of channel c at pixel (x, y).
func (b *Buffer) Set(x, y, c int, v float64) {
	b.Pix[(y*b.W+x)*b.C+c] = v
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	pix := make([]float64, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{W: b.W, H: b.H, C: b.C, Pix: pix}
}

// Channel extracts channel c into a new single channel buffer.
func (b *Buffer) Channel(c int) *Buffer {
	out := NewBuffer(b.W, b.H, 1)
	for i := range out.Pix {
		out.Pix[i] = b.Pix[i*b.C+c]
	}
	return out
}

// TruncateChannels returns a copy keeping only the first n channels of every
// pixel.
func (b *Buffer) TruncateChannels(n int) *Buffer {
	if n >= b.C {
		return b.Clone()
	}
	out := NewBuffer(b.W, b.H, n)
	for i := 0; i < b.W*b.H; i++ {
		copy(out.Pix[i*n:(i+1)*n], b.Pix[i*b.C:i*b.C+n])
	}
	return out
}

// Scale returns a copy with every sample multiplied by k.
func (b *Buffer) Scale(k float64) *Buffer {
	out := b.Clone()
	floats.Scale(k, out.Pix)
	return out
}

// Rotate returns a copy rotated counter-clockwise by the given number of
// degrees, one of 0, 90, 180 or 270. Width and height swap for the sideways
// cases, matching rotation with expansion. Any other value returns the
// buffer unrotated.
func (b *Buffer) Rotate(degrees int) *Buffer {
	switch degrees {
	case 90:
		out := NewBuffer(b.H, b.W, b.C)
		for y := 0; y < out.H; y++ {
			for x := 0; x < out.W; x++ {
				for c := 0; c < b.C; c++ {
					out.Set(x, y, c, b.At(b.W-1-y, x, c))
				}
			}
		}
		return out
	case 180:
		out := NewBuffer(b.W, b.H, b.C)
		for y := 0; y < out.H; y++ {
			for x := 0; x < out.W; x++ {
				for c := 0; c < b.C; c++ {
					out.Set(x, y, c, b.At(b.W-1-x, b.H-1-y, c))
				}
			}
		}
		return out
	case 270:
		out := NewBuffer(b.H, b.W, b.C)
		for y := 0; y < out.H; y++ {
			for x := 0; x < out.W; x++ {
				for c := 0; c < b.C; c++ {
					out.Set(x, y, c, b.At(y, b.H-1-x, c))
				}
			}
		}
		return out
	default:
		return b.Clone()
	}
}

type opaquer interface {
	Opaque() bool
}

// FromImage converts a decoded image to a pixel buffer. Images carrying
// transparency become 4-channel RGBA buffers, fully opaque ones 3-channel
// RGB, values in [0, 255].
func FromImage(img image.Image) *Buffer {
	channels := 4
	if o, ok := img.(opaquer); ok && o.Opaque() {
		channels = 3
	}

	bounds := img.Bounds()
	b := NewBuffer(bounds.Dx(), bounds.Dy(), channels)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			b.Set(x, y, 0, float64(c.R))
			b.Set(x, y, 1, float64(c.G))
			b.Set(x, y, 2, float64(c.B))
			if channels == 4 {
				b.Set(x, y, 3, float64(c.A))
			}
		}
	}
	return b
}
