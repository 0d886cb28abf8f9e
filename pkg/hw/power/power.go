// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package power handles the end of the loader's life: handing the machine to
// a kexec-loaded kernel, or parking it when there is nothing left to do.
package power

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/starscouts/brisbane/pkg/log"

	"golang.org/x/sys/unix"
)

// replaced in tests
var (
	reboot   = unix.Reboot
	syncFs   = unix.Sync
	fileLoad = kexecFileLoad
	sleep    = time.Sleep
)

// Load stages kernel in the running kernel with kexec_file_load. The image is
// not started until Kexec is called. An empty cmdline is passed as-is.
func Load(kernel *os.File, cmdline string) error {
	if kernel == nil {
		return unix.EBADF
	}
	return fileLoad(int(kernel.Fd()), cmdline)
}

// Kexec reboots into the kernel staged by Load. It only returns on failure.
// Log sinks are flushed but stay open, so the caller can still record the
// failure.
func Kexec() error {
	//recover only works when called directly by the deferred function
	logPanic("kexec", recover())
	log.Sync()
	syncFs()
	if err := reboot(unix.LINUX_REBOOT_CMD_KEXEC); err != nil {
		return fmt.Errorf("reboot(kexec): %w", err)
	}
	return nil
}

// Park never returns. Used where firmware would halt the cpu.
func Park() {
	logPanic("park", recover())
	for {
		sleep(time.Hour)
	}
}

// Ending up here from a deferred call masks any panic in progress, so log it.
func logPanic(where string, x interface{}) {
	if x == nil {
		return
	}
	log.Logf("panic() caught in %s", where)
	log.Msgf("internal error: %v", x)
	stars := "***********************************************************"
	log.Logf("%s\nstack trace:\n%s\n%s", stars, debug.Stack(), stars)
}
