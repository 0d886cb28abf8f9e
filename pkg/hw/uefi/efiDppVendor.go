// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"fmt"

	"github.com/starscouts/brisbane/pkg/guid"
)

// Vendor-defined nodes share one layout across the hardware, messaging and
// media types: a GUID followed by opaque data.
type DppVendor struct {
	dppBase
	Guid guid.MixedGuid
	Data []byte
}

var _ DevicePathNode = (*DppVendor)(nil)

func ParseDppVendor(h DppHdr, b []byte) (*DppVendor, error) {
	if len(b) < 16 {
		return nil, EParse
	}
	v := &DppVendor{
		dppBase: dppBase{Hdr: h, data: b},
		Data:    b[16:],
	}
	copy(v.Guid[:], b[:16])
	return v, nil
}

// terminal type guids with a shortcut text form; messaging vendor nodes only
var msgVendorShortcuts = map[guid.MixedGuid]string{
	guid.MustParse("e0c14753-f9be-11d2-9a0c-0090273fc14d"): "VenPcAnsi",
	guid.MustParse("dfa66065-b419-11d3-9a2d-0090273fc14d"): "VenVt100",
	guid.MustParse("7baec70b-57e0-4c76-8e87-2f9e28088343"): "VenVt100Plus",
	guid.MustParse("ad15a0d6-8bec-4acf-a073-d01de77e2d88"): "VenUtf8",
}

func (e *DppVendor) Text(opts TextOpts) string {
	var name string
	switch e.Hdr.ProtoType {
	case DppTypeHw:
		name = "VenHw"
	case DppTypeMessaging:
		if short, ok := msgVendorShortcuts[e.Guid]; ok && opts.AllowShortcuts {
			return short + "()"
		}
		name = "VenMsg"
	case DppTypeMedia:
		name = "VenMedia"
	default:
		name = "Ven"
	}
	return fmt.Sprintf("%s(%s%s)", name, e.Guid, hexSuffix(e.Data))
}
