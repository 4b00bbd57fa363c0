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

// Package detection finds serial ports that are likely to have a PN532
// reader attached, so callers can offer a sensible default instead of
// making users dig up device paths.
package detection

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Confidence ranks how likely a port is to be a PN532 reader.
type Confidence int

const (
	// ConfidenceLow is any serial port that was not filtered out.
	ConfidenceLow Confidence = iota
	// ConfidenceHigh is a USB serial adapter commonly shipped with
	// PN532 breakout boards.
	ConfidenceHigh
)

// Candidate is one detected serial port.
type Candidate struct {
	// Path is the OS device path (/dev/ttyUSB0, COM3, ...).
	Path string
	// Product is the USB product string, when the OS exposes one.
	Product string
	// VIDPID is the USB vendor:product pair in upper-case hex.
	VIDPID string
	// Confidence ranks the candidate.
	Confidence Confidence
}

// Options filters detection.
type Options struct {
	// Blocklist holds VID:PID pairs that must never be probed.
	Blocklist []string
	// IgnorePaths holds device paths to skip.
	IgnorePaths []string
	// AllPorts includes non-USB serial ports as low-confidence
	// candidates.
	AllPorts bool
}

// DefaultOptions uses the built-in blocklist and USB ports only.
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

// DetectReaders enumerates serial ports and returns candidates sorted
// by confidence, high first.
func DetectReaders(opts Options) ([]Candidate, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var out []Candidate
	for _, port := range ports {
		if IsPathIgnored(port.Name, opts.IgnorePaths) {
			continue
		}
		if !port.IsUSB {
			if opts.AllPorts {
				out = append(out, Candidate{Path: port.Name, Confidence: ConfidenceLow})
			}
			continue
		}
		vidpid := strings.ToUpper(port.VID + ":" + port.PID)
		if IsBlocked(vidpid, opts.Blocklist) {
			continue
		}
		c := Candidate{
			Path:    port.Name,
			Product: port.Product,
			VIDPID:  vidpid,
		}
		if isKnownAdapter(vidpid) {
			c.Confidence = ConfidenceHigh
		}
		out = append(out, c)
	}

	// Windows may expose ports that the enumerator misses (virtual COM
	// drivers); merge in anything the registry knows about.
	out = appendPlatformPorts(out, opts)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func containsPath(candidates []Candidate, path string) bool {
	for _, c := range candidates {
		if strings.EqualFold(c.Path, path) {
			return true
		}
	}
	return false
}
