// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Still frame clip abstraction.
//
// An ImageClip is a non-moving video clip: one picture displayed for every
// queried time. The constant-frame property is an invariant the timeline
// renderer can exploit, so operations that could introduce per-time
// variation deliberately return the generic Clip type instead.

package clip

import (
	"fmt"
)

// FrameFunc produces the frame to display at time t, in seconds.
type FrameFunc func(t float64) *Buffer

// Clip is a generic time-varying video clip, the narrowest capability a
// frame source can offer. Duration of 0 means unlimited.
type Clip struct {
	MakeFrame FrameFunc
	Duration  float64
}

// Attachment names an auxiliary sub-clip carried alongside the picture.
type Attachment string

const (
	AttachMask  Attachment = "mask"
	AttachAudio Attachment = "audio"
)

// Option configures ImageClip construction.
type Option func(*options)

type options struct {
	isMask      bool
	fromAlpha   bool
	transparent bool
	duration    float64
	audio       *AudioClip
}

func newOptions(opts []Option) options {
	o := options{transparent: true}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// AsMask flags the clip as a per-pixel opacity map: a single channel buffer
// with values in [0, 1].
func AsMask() Option {
	return func(o *options) { o.isMask = true }
}

// FromAlpha keeps only the alpha channel of a 4-channel source, the clip
// becomes its own opacity map.
func FromAlpha() Option {
	return func(o *options) { o.fromAlpha = true }
}

// WithoutTransparency disables splitting the alpha channel of a 4-channel
// source into an attached mask.
func WithoutTransparency() Option {
	return func(o *options) { o.transparent = false }
}

// WithDuration sets for how long the picture is displayed.
func WithDuration(d float64) Option {
	return func(o *options) { o.duration = d }
}

// WithAudio attaches an audio track to the clip.
func WithAudio(a *AudioClip) Option {
	return func(o *options) { o.audio = a }
}

// ImageClip is the still frame clip: a single picture held for every
// queried time, optionally owning a derived alpha mask sub-clip.
type ImageClip struct {
	img      *Buffer
	isMask   bool
	duration float64
	mask     *ImageClip
	audio    *AudioClip
}

// NewImageClip wraps a pixel buffer into a still frame clip.
//
// A 4-channel buffer is split up according to the requested mode: in
// from-alpha mode only the alpha channel survives, in mask mode only
// channel 0, and by default the alpha channel is separated into an owned
// mask sub-clip while the picture keeps its 3 color channels. Mask shaped
// values are normalized from [0, 255] to [0, 1]. A single channel buffer is
// used unchanged.
func NewImageClip(img *Buffer, opts ...Option) *ImageClip {
	o := newOptions(opts)

	c := &ImageClip{isMask: o.isMask, duration: o.duration, audio: o.audio}
	switch {
	case img.C == 4 && o.fromAlpha:
		img = img.Channel(3).Scale(1.0 / 255)
	case img.C == 4 && o.isMask:
		img = img.Channel(0).Scale(1.0 / 255)
	case img.C == 4 && o.transparent:
		c.mask = NewImageClip(img.Channel(3).Scale(1.0/255), AsMask())
		img = img.TruncateChannels(3)
	case img.C > 1 && o.isMask:
		img = img.Channel(0).Scale(1.0 / 255)
	}
	c.img = img
	return c
}

// NewImageClipFromFile decodes a picture file into a still frame clip,
// correcting EXIF orientation along the way.
func NewImageClipFromFile(path string, opts ...Option) (*ImageClip, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("NewImageClipFromFile(): %w", err)
	}
	return NewImageClip(img, opts...), nil
}

// Frame implements FrameFunc semantics: the same picture at every t.
func (c *ImageClip) Frame(t float64) *Buffer {
	return c.img
}

// Image returns the clip's pixel buffer.
func (c *ImageClip) Image() *Buffer { return c.img }

// Size returns frame dimensions in (width, height) order.
func (c *ImageClip) Size() (w, h int) { return c.img.W, c.img.H }

// IsMask reports if the clip is an opacity map.
func (c *ImageClip) IsMask() bool { return c.isMask }

// Duration returns for how long the picture is displayed, 0 if unlimited.
func (c *ImageClip) Duration() float64 { return c.duration }

// Mask returns the attached opacity map, nil if none.
func (c *ImageClip) Mask() *ImageClip { return c.mask }

// Audio returns the attached audio track, nil if none.
func (c *ImageClip) Audio() *AudioClip { return c.audio }

// ImageTransform applies f to the single frame exactly once and returns a
// new clip displaying the transformed picture. Unlike a generic per-frame
// filter there is nothing to recompute per query time. Attachments listed
// in applyTo are transformed recursively when present; an audio track is
// not image shaped and is carried over untouched.
func (c *ImageClip) ImageTransform(f func(*Buffer) *Buffer, applyTo ...Attachment) *ImageClip {
	out := *c
	out.img = f(c.Frame(0))
	for _, a := range applyTo {
		if a == AttachMask && out.mask != nil {
			out.mask = out.mask.ImageTransform(f)
		}
	}
	return &out
}

// Transform applies a generic per-frame filter f(frame, t).
//
// The result may be animated: f can produce a different picture for every
// query time, so the still frame shortcut no longer holds and a generic
// Clip is returned.
func (c *ImageClip) Transform(f func(FrameFunc, float64) *Buffer) *Clip {
	frame := c.Frame
	return &Clip{
		Duration:  c.duration,
		MakeFrame: func(t float64) *Buffer { return f(frame, t) },
	}
}

// TimeTransform remaps the clip's timeline.
//
// A single picture looks the same at every time, so remapping is a no-op on
// the clip's own frame production. It is propagated to attached sub-clips,
// which may be genuinely time-varying; with no explicit applyTo both the
// mask and the audio track are remapped.
func (c *ImageClip) TimeTransform(tf func(float64) float64, applyTo ...Attachment) *ImageClip {
	if len(applyTo) == 0 {
		applyTo = []Attachment{AttachMask, AttachAudio}
	}
	out := *c
	for _, a := range applyTo {
		switch a {
		case AttachMask:
			if out.mask != nil {
				out.mask = out.mask.TimeTransform(tf)
			}
		case AttachAudio:
			if out.audio != nil {
				out.audio = out.audio.TimeTransform(tf)
			}
		}
	}
	return &out
}
