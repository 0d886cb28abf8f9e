// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Command brisbane-boot loads and starts the kernel at \brisbane\boot\kernel
// on the medium the machine booted from. It takes no arguments and never
// exits: if the kernel cannot be started, the reason is shown and the
// machine is parked.
package main

import (
	"runtime"
	"runtime/debug"

	"github.com/starscouts/brisbane/pkg/boot"
	"github.com/starscouts/brisbane/pkg/hostfw"
	"github.com/starscouts/brisbane/pkg/log"
)

//set at compile time, see build/build.go
var (
	version   string
	buildTime string
)

func buildVersion() boot.Version {
	v := boot.Version{Version: version, Compiler: runtime.Version(), Timestamp: buildTime}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v.Version == "" {
			v.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.time" && v.Timestamp == "" {
				v.Timestamp = s.Value
			}
		}
	}
	if v.Version == "" {
		v.Version = "(devel)"
	}
	if v.Timestamp == "" {
		v.Timestamp = "unknown"
	}
	return v
}

func main() {
	fw := hostfw.New(hostfw.DefaultOptions())
	log.SetFatalAction(log.FailAction{Terminator: func() { fw.Halt("") }})
	boot.Main(fw, buildVersion())
}
