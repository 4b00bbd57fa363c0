// go-eink-nfc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-eink-nfc.
//
// go-eink-nfc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-eink-nfc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-eink-nfc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// einkconvert prepares ordinary images for e-ink tags: it scales to the
// panel size, quantizes onto the display palette, and emits a .4ei file
// plus an optional BMP preview of what the panel will show.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	einknfc "github.com/ZaparooProject/go-eink-nfc"
	"github.com/ZaparooProject/go-eink-nfc/imageload"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

type config struct {
	inPath      *string
	outPath     *string
	previewPath *string
	tagName     *string
	dither      *bool
}

func parseFlags() *config {
	cfg := &config{
		inPath:  flag.String("in", "", "Input image (BMP, PNG, GIF, or JPEG)"),
		outPath: flag.String("out", "", "Output .4ei path (default: input name with .4ei)"),
		previewPath: flag.String("preview", "",
			"Optional BMP preview path showing the quantized result"),
		tagName: flag.String("tag", einknfc.EPaper154Y.Name,
			"Target tag model, sets panel size and palette"),
		dither: flag.Bool("dither", true, "Floyd-Steinberg dithering (disable for flat graphics)"),
	}
	flag.Parse()
	return cfg
}

// fitToPanel scales src to the panel size. Aspect ratio is not
// preserved; panels are square and letterboxing wastes pixels.
func fitToPanel(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

func writePreview(path string, img *einknfc.Image, format einknfc.ImageFormat) error {
	f, err := os.Create(path) //nolint:gosec // user-supplied path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if err := bmp.Encode(f, imageload.ToImage(img, format)); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

func run() error {
	cfg := parseFlags()
	if *cfg.inPath == "" {
		return errors.New("missing -in")
	}
	tag, ok := einknfc.TagTypeByName(*cfg.tagName)
	if !ok {
		return fmt.Errorf("unknown tag model %q", *cfg.tagName)
	}
	outPath := *cfg.outPath
	if outPath == "" {
		outPath = strings.TrimSuffix(*cfg.inPath, ".4ei")
		if idx := strings.LastIndex(outPath, "."); idx > 0 {
			outPath = outPath[:idx]
		}
		outPath += ".4ei"
	}

	in, err := os.Open(*cfg.inPath) //nolint:gosec // user-supplied path
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *cfg.inPath, err)
	}
	src, kind, err := image.Decode(in)
	_ = in.Close()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", *cfg.inPath, err)
	}

	scaled := fitToPanel(src, tag.Width, tag.Height)
	var img *einknfc.Image
	if *cfg.dither {
		img = imageload.FromImageDithered(scaled, tag.Format)
	} else {
		img = imageload.FromImage(scaled, tag.Format)
	}

	out, err := os.Create(outPath) //nolint:gosec // user-supplied path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	if err := imageload.Encode4EI(out, img); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outPath, err)
	}
	fmt.Printf("%s (%s) -> %s, %dx%d %s\n",
		*cfg.inPath, kind, outPath, img.Width, img.Height, tag.Format)

	if *cfg.previewPath != "" {
		if err := writePreview(*cfg.previewPath, img, tag.Format); err != nil {
			return err
		}
		fmt.Printf("preview written to %s\n", *cfg.previewPath)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "einkconvert: %v\n", err)
		os.Exit(1)
	}
}
