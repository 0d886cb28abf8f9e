// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// DecodeUTF16 decodes little-endian UCS-2/UTF-16, as used by firmware for
// descriptions and file path nodes. Decoding stops at the first null.
func DecodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("utf16: odd length %d", len(b))
	}
	u16s := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		c := binary.LittleEndian.Uint16(b[i:])
		if c == 0 {
			break
		}
		u16s = append(u16s, c)
	}
	return string(utf16.Decode(u16s)), nil
}

// EncodeUTF16 is the inverse of DecodeUTF16. With nullTerm, a terminating
// null character is appended.
func EncodeUTF16(s string, nullTerm bool) []byte {
	u16s := utf16.Encode([]rune(s))
	if nullTerm {
		u16s = append(u16s, 0)
	}
	out := make([]byte, 2*len(u16s))
	for i, c := range u16s {
		binary.LittleEndian.PutUint16(out[2*i:], c)
	}
	return out
}

//length in bytes of the null-terminated utf16 string at the start of b,
//including the null. -1 if there is no terminator.
func utf16Len(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i + 2
		}
	}
	return -1
}
