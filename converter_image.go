// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package convertd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
)

// ImageConverter re-encodes raster images between PNG, JPEG and GIF.
type ImageConverter struct {
	quality int
}

// NewImageConverter creates an ImageConverter writing JPEGs at the given
// quality (1-100, 0 selects 90).
func NewImageConverter(quality int) *ImageConverter {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &ImageConverter{quality: quality}
}

func (c *ImageConverter) Capabilities() Capabilities {
	formats := []string{".png", ".jpg", ".jpeg", ".gif"}
	return NewCapabilities(formats, formats)
}

func (c *ImageConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	data, err := readInput(inputPath)
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	switch NormalizeFormat(filepath.Ext(outputPath)) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: c.quality})
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		return fmt.Errorf("unsupported image output %q", filepath.Ext(outputPath))
	}
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return writeOutput(outputPath, buf.Bytes())
}

// flatten composites img onto white; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
