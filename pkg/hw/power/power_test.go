// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package power

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starscouts/brisbane/pkg/log"
	"github.com/starscouts/brisbane/pkg/log/flags"
	"github.com/starscouts/brisbane/pkg/log/testlog"

	"golang.org/x/sys/unix"
)

func stub(t *testing.T) {
	t.Helper()
	r, s, l, sl := reboot, syncFs, fileLoad, sleep
	t.Cleanup(func() { reboot, syncFs, fileLoad, sleep = r, s, l, sl })
}

func TestLoad(t *testing.T) {
	stub(t)
	f, err := os.Create(filepath.Join(t.TempDir(), "kernel"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var gotFd int
	var gotCmd string
	fileLoad = func(fd int, cmdline string) error {
		gotFd, gotCmd = fd, cmdline
		return nil
	}
	if err := Load(f, ""); err != nil {
		t.Fatal(err)
	}
	if gotFd != int(f.Fd()) || gotCmd != "" {
		t.Errorf("got fd %d cmdline %q", gotFd, gotCmd)
	}
	if err := Load(nil, ""); !errors.Is(err, unix.EBADF) {
		t.Errorf("nil file: %v", err)
	}
}

func TestKexec(t *testing.T) {
	tlog := testlog.NewTestLogNoBG(t)
	defer tlog.Freeze()
	stub(t)

	var order []string
	syncFs = func() { order = append(order, "sync") }
	reboot = func(cmd int) error {
		if cmd != unix.LINUX_REBOOT_CMD_KEXEC {
			t.Errorf("reboot cmd 0x%x", cmd)
		}
		order = append(order, "reboot")
		return unix.EPERM
	}
	err := Kexec()
	if !errors.Is(err, unix.EPERM) {
		t.Errorf("got %v", err)
	}
	if len(order) != 2 || order[0] != "sync" || order[1] != "reboot" {
		t.Errorf("order %v", order)
	}
}

type parked struct{}

func TestParkNeverReturns(t *testing.T) {
	stub(t)
	n := 0
	sleep = func(d time.Duration) {
		if d <= 0 {
			t.Errorf("sleep %s", d)
		}
		n++
		if n == 3 {
			panic(parked{})
		}
	}
	defer func() {
		if _, ok := recover().(parked); !ok {
			t.Error("Park returned")
		}
		if n != 3 {
			t.Errorf("slept %d times", n)
		}
	}()
	Park()
}

func TestDeferredKexecLogsPanic(t *testing.T) {
	tlog := testlog.NewTestLogNoBG(t)
	defer tlog.Freeze()
	stub(t)
	syncFs = func() {}
	reboot = func(int) error { return nil }
	func() {
		defer Kexec()
		panic("boom")
	}()
	tlog.MustContain("panic() caught in kexec")
	tlog.MustContain("internal error: boom")
}

func TestDeferredParkLogsPanic(t *testing.T) {
	tlog := testlog.NewTestLogNoBG(t)
	defer tlog.Freeze()
	stub(t)
	sleep = func(time.Duration) { panic(parked{}) }
	func() {
		defer func() {
			if _, ok := recover().(parked); !ok {
				t.Error("Park returned")
			}
		}()
		defer Park()
		panic("boom")
	}()
	tlog.MustContain("internal error: boom")
}

func TestFailedKexecKeepsLogging(t *testing.T) {
	tlog := testlog.NewTestLogNoBG(t)
	tlog.FatalIsNotErr = true
	defer tlog.Freeze()
	stub(t)
	syncFs = func() {}
	reboot = func(int) error { return unix.EPERM }

	fn, err := log.AddNamedFileLog(filepath.Join(t.TempDir(), "boot.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.RemoveLogger(log.FileLogIdent)

	if err := Kexec(); err == nil {
		t.Fatal("expected error")
	}
	log.FlaggedLogf(flags.Fatal|flags.NotConsole, "Internal system error while starting kernel")
	data, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Internal system error while starting kernel") {
		t.Errorf("fatal entry missing from boot log:\n%s", data)
	}
}
