// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build !amd64 && !arm64 && !riscv64

package power

import "golang.org/x/sys/unix"

//no kexec_file_load syscall wrapper on this arch
func kexecFileLoad(int, string) error { return unix.EOPNOTSUPP }
