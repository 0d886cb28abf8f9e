// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package guid

import (
	"bytes"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	in := []byte{0xCD, 0x5C, 0x63, 0x81, 0x4F, 0x1B, 0x3F, 0x4D, 0xB7, 0xB7, 0xF7, 0x8A, 0x5B, 0x02, 0x9F, 0x35}
	want := "81635ccd-1b4f-4d3f-b7b7-f78a5b029f35"

	var m MixedGuid
	copy(m[:], in)
	std := m.ToStdEnc()
	got := std.String()

	if got != want {
		t.Errorf("mismatch\n%s\n%s", want, got)
	}
	guid := FromStdEnc(std)
	if !bytes.Equal(guid[:], in) {
		t.Errorf("mismatch\n%x\n%x", in, guid)
	}
	if m.String() != "81635CCD-1B4F-4D3F-B7B7-F78A5B029F35" {
		t.Errorf("String() = %s", m.String())
	}
}

func TestParse(t *testing.T) {
	m, err := Parse("{1D1BD1A2-0FD9-41E9-BBB5-A98BAC570B2A}")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xa2, 0xd1, 0x1b, 0x1d, 0xd9, 0x0f, 0xe9, 0x41, 0xbb, 0xb5, 0xa9, 0x8b, 0xac, 0x57, 0x0b, 0x2a}
	if !bytes.Equal(m[:], want) {
		t.Errorf("got %x\nwant %x", m[:], want)
	}
	if _, err := Parse("not-a-guid"); err == nil {
		t.Error("expected error")
	}
	if !(MixedGuid{}).IsZero() || m.IsZero() {
		t.Error("IsZero")
	}
}
