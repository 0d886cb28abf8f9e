// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package log is the loader's diagnostic log. Events go to a stack of sinks:
// memory, a console writer, a boot log file. Operator-facing console text is
// not routed through here; the boot pipeline writes that to the firmware
// console itself so its order and wording stay exact.
//
// By default, events are retained in memory so they can be re-played into
// sinks that are attached later, e.g. once the boot medium is mounted and a
// file log becomes possible.
package log

import (
	"fmt"
	"io"

	"github.com/starscouts/brisbane/pkg/log/flags"
)

var logPrefix string

// Sets the log prefix, used as the file name prefix by AddFileLog. Must be
// set before calling AddFileLog().
func SetPrefix(pfx string) {
	logPrefix = pfx
}

// Gets the log prefix
func GetPrefix() string { return logPrefix }

// Msgf is for messages suitable for the operator. Short, non-technical.
func Msgf(f string, va ...interface{}) { FlaggedLogf(flags.EndUser, f, va...) }

// See Msgf
func Msg(message string) { Msgf("%s", message) }

// Logf is for technical messages. Never shown to the operator unless a
// console sink with flags.NA is attached.
func Logf(f string, va ...interface{}) { FlaggedLogf(flags.NA, f, va...) }

// See Logf
func Logln(va ...interface{}) { Logf("%s", fmt.Sprintln(va...)) }

// See Logf
func Log(message string) { Logf("%s", message) }

// If the log stack includes a memLog, this writes all of its content to w.
// no-op otherwise.
func DumpTo(w io.Writer) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	l := FindInStack(MemLogIdent)
	if l == nil {
		return
	}
	for _, e := range l.(*memLog).Entries() {
		fmt.Fprintln(w, e.String())
	}
}
