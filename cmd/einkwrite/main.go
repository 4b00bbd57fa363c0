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

// einkwrite writes an image file to an NFC-powered e-ink tag through a
// PN532 reader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	einknfc "github.com/ZaparooProject/go-eink-nfc"
	"github.com/ZaparooProject/go-eink-nfc/detection"
	"github.com/ZaparooProject/go-eink-nfc/imageload"
	"github.com/ZaparooProject/go-eink-nfc/transport/pn532i2c"
	"github.com/ZaparooProject/go-eink-nfc/transport/pn532uart"
	"golang.org/x/image/bmp"
)

type config struct {
	devicePath *string
	tagName    *string
	imagePath  *string
	timeout    *time.Duration
	dither     *bool
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0 or COM3). Leave empty for auto-detection."),
		tagName: flag.String("tag", einknfc.EPaper154Y.Name,
			"Tag model name (see -list-tags)"),
		imagePath: flag.String("image", "", "Image file to write (.bmp or .4ei)"),
		timeout:   flag.Duration("timeout", 60*time.Second, "Overall write timeout"),
		dither:    flag.Bool("dither", false, "Apply Floyd-Steinberg dithering to BMP input"),
		debug:     flag.Bool("debug", false, "Enable debug output"),
	}
	listTags := flag.Bool("list-tags", false, "List supported tag models and exit")
	flag.Parse()

	if *listTags {
		for _, tt := range einknfc.TagTypes() {
			fmt.Printf("%-20s %dx%d %s\n", tt.Name, tt.Width, tt.Height, tt.Format)
		}
		os.Exit(0)
	}
	if *cfg.debug {
		einknfc.SetDebugEnabled(true)
	}
	return cfg
}

// newTransceiver creates a transceiver from a device path, choosing
// I2C for bus-style paths and UART otherwise.
func newTransceiver(path string) (einknfc.Transceiver, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}
	if strings.Contains(strings.ToLower(path), "i2c") {
		transceiver, err := pn532i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transceiver: %w", err)
		}
		return transceiver, nil
	}
	transceiver, err := pn532uart.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transceiver: %w", err)
	}
	return transceiver, nil
}

func detectDevice() (string, error) {
	fmt.Println("Auto-detecting PN532 readers...")
	candidates, err := detection.DetectReaders(detection.DefaultOptions())
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", errors.New("no serial readers found; pass -device explicitly")
	}
	best := candidates[0]
	fmt.Printf("Using %s", best.Path)
	if best.Product != "" {
		fmt.Printf(" (%s)", best.Product)
	}
	fmt.Println()
	return best.Path, nil
}

func loadImage(path string, tag einknfc.TagType, dither bool) (*einknfc.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".4ei":
		return imageload.Load4EI(path)
	case ".bmp":
		f, err := os.Open(path) //nolint:gosec // user-supplied path
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		src, err := bmp.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if dither {
			return imageload.FromImageDithered(src, tag.Format), nil
		}
		return imageload.FromImage(src, tag.Format), nil
	default:
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}
}

func run() error {
	cfg := parseFlags()
	if *cfg.imagePath == "" {
		return errors.New("missing -image")
	}
	tag, ok := einknfc.TagTypeByName(*cfg.tagName)
	if !ok {
		return fmt.Errorf("unknown tag model %q (see -list-tags)", *cfg.tagName)
	}

	img, err := loadImage(*cfg.imagePath, tag, *cfg.dither)
	if err != nil {
		return err
	}

	devicePath := *cfg.devicePath
	if devicePath == "" {
		if devicePath, err = detectDevice(); err != nil {
			return err
		}
	}
	transceiver, err := newTransceiver(devicePath)
	if err != nil {
		return err
	}

	writer, err := einknfc.NewWriter(
		einknfc.NewRetryTransceiver(transceiver, einknfc.DefaultRetryConfig()),
		einknfc.WithProgressFunc(func(state einknfc.State, progress float64) {
			fmt.Printf("\r%-24s %3.0f%%", state, progress*100)
		}),
	)
	if err != nil {
		_ = transceiver.Close()
		return err
	}
	defer func() { _ = writer.Close() }()

	fmt.Printf("Writing %s to %q, present the tag to the reader...\n", *cfg.imagePath, tag.Name)
	ctx, cancel := context.WithTimeout(context.Background(), *cfg.timeout)
	defer cancel()

	if err := writer.Write(ctx, tag, img); err != nil {
		fmt.Println()
		return fmt.Errorf("write failed: %w", err)
	}
	fmt.Println("\nDone. The panel keeps the image without power.")
	return nil
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "einkwrite: %v\n", err)
		os.Exit(1)
	}
}
