// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestNormalizeKeepsSmallImage(t *testing.T) {
	res, err := Normalize(encodePNG(t, createTestImage(120, 80)), 0)
	require.NoError(t, err)

	assert.Equal(t, 120, res.Width)
	assert.Equal(t, 80, res.Height)
	assert.Equal(t, FormatPNG, res.Format)
	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, FormatPNG, DetectFormat(res.Data))
}

func TestNormalizeBoundsLongestEdge(t *testing.T) {
	res, err := Normalize(encodeJPEG(t, createTestImage(400, 200)), 100)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Equal(t, FormatJPEG, res.Format)
}

func TestNormalizeRejectsUnknownData(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPNG, DetectFormat(encodePNG(t, createTestImage(2, 2))))
	assert.Equal(t, FormatJPEG, DetectFormat(encodeJPEG(t, createTestImage(2, 2))))
	assert.Empty(t, DetectFormat([]byte("GIF89a")))
	assert.Empty(t, DetectFormat([]byte("II*\x00")))
}

func TestIsAllowedExtension(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.png": true, "d.webp": true,
		"e.gif": false, "f.tiff": false, "noext": false,
	} {
		assert.Equal(t, want, IsAllowedExtension(name), name)
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(100, 50)

	tests := []struct {
		orientation int
		wantW       int
		wantH       int
	}{
		{1, 100, 50},
		{2, 100, 50},
		{3, 100, 50},
		{4, 100, 50},
		{5, 50, 100},
		{6, 50, 100},
		{7, 50, 100},
		{8, 50, 100},
	}
	for _, tt := range tests {
		b := applyOrientation(img, tt.orientation).Bounds()
		assert.Equal(t, tt.wantW, b.Dx(), "orientation %d width", tt.orientation)
		assert.Equal(t, tt.wantH, b.Dy(), "orientation %d height", tt.orientation)
	}
}
