// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build amd64 || arm64 || riscv64

package power

import "golang.org/x/sys/unix"

func kexecFileLoad(fd int, cmdline string) error {
	return unix.KexecFileLoad(fd, -1, cmdline, unix.KEXEC_FILE_NO_INITRAMFS)
}
