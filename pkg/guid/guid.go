// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package guid handles GUIDs encoded in the mixed-endianness format used by
// UEFI. For normal uuid-related functionality, use github.com/google/uuid.
package guid

import (
	"strings"

	"github.com/google/uuid"
)

//A mixed-endianness guid, as stored in device paths and efi variables.
type MixedGuid [16]byte

//Converts MixedGuid to a uuid.UUID
func (m MixedGuid) ToStdEnc() (u uuid.UUID) {
	u[0], u[1], u[2], u[3] = m[3], m[2], m[1], m[0]
	u[4], u[5] = m[5], m[4]
	u[6], u[7] = m[7], m[6]
	copy(u[8:], m[8:])
	return
}

//Converts uuid.UUID to MixedGuid
func FromStdEnc(u uuid.UUID) (m MixedGuid) {
	m[0], m[1], m[2], m[3] = u[3], u[2], u[1], u[0]
	m[4], m[5] = u[5], u[4]
	m[6], m[7] = u[7], u[6]
	copy(m[8:], u[8:])
	return
}

// MustParse is for package-level GUID constants; panics on malformed input.
func MustParse(s string) MixedGuid { return FromStdEnc(uuid.MustParse(s)) }

// Parse accepts the textual forms understood by uuid.Parse.
func Parse(s string) (MixedGuid, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return MixedGuid{}, err
	}
	return FromStdEnc(u), nil
}

// String is the uppercase registry-style form used in device path text.
func (m MixedGuid) String() string {
	return strings.ToUpper(m.ToStdEnc().String())
}

func (m MixedGuid) IsZero() bool { return m == MixedGuid{} }
