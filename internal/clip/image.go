// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Still image loading with EXIF orientation correction.

package clip

import (
	"bytes"
	"fmt"
	"image"
	"os"

	// Decoders for raster formats a still frame may come in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/evolution-gaming/mediakit/internal/logging"
)

// EXIF orientation codes that are corrected by a pure rotation. Mirrored
// variants (2, 4, 5, 7) are left as is.
const (
	orientationUpsideDown = 3
	orientationRight      = 6
	orientationLeft       = 8
)

// LoadImage decodes a still picture from disk into a pixel buffer.
//
// Some cameras record sideways pixels plus an EXIF orientation tag instead
// of rotating at capture time. Without correction such a frame ends up
// sideways in the rendered video, so the tag is applied here:
// codes 3, 6 and 8 rotate by 180, 270 and 90 degrees with expansion, any
// other or missing code leaves pixels untouched.
func LoadImage(path string) (*Buffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadImage() reading %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("LoadImage() decoding %s: %w", path, err)
	}

	buf := FromImage(img)
	switch exifOrientation(raw) {
	case orientationUpsideDown:
		buf = buf.Rotate(180)
	case orientationRight:
		buf = buf.Rotate(270)
	case orientationLeft:
		buf = buf.Rotate(90)
	}
	return buf, nil
}

// exifOrientation reads the EXIF orientation code from raw image bytes, 0
// when absent or unreadable.
func exifOrientation(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		// Most formats simply carry no EXIF segment.
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		logging.Debugf("Malformed EXIF orientation tag: %s", err)
		return 0
	}
	return v
}
