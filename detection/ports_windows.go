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

//go:build windows

package detection

import (
	"golang.org/x/sys/windows/registry"
)

// appendPlatformPorts merges COM ports from the SERIALCOMM registry
// key. Virtual COM drivers sometimes register there without showing up
// in the USB enumeration.
func appendPlatformPorts(candidates []Candidate, opts Options) []Candidate {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`HARDWARE\DEVICEMAP\SERIALCOMM`, registry.QUERY_VALUE)
	if err != nil {
		return candidates
	}
	defer func() { _ = key.Close() }()

	names, err := key.ReadValueNames(0)
	if err != nil {
		return candidates
	}
	for _, name := range names {
		port, _, err := key.GetStringValue(name)
		if err != nil || port == "" {
			continue
		}
		if containsPath(candidates, port) || IsPathIgnored(port, opts.IgnorePaths) {
			continue
		}
		candidates = append(candidates, Candidate{Path: port, Confidence: ConfidenceLow})
	}
	return candidates
}
