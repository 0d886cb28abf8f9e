// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/starscouts/brisbane/pkg/log/flags"
)

type consoleLog struct {
	w     io.Writer
	flags flags.Flag
	next  StackableLogger
	mu    sync.Mutex
}

// Adds a consoleLog writing to w. Flags determine which events are shown:
// flags.NA shows everything, flags.EndUser only Msgf() output. Entries
// carrying flags.NotConsole are never shown.
func AddConsoleLog(w io.Writer, f flags.Flag) error {
	return AddLogger(&consoleLog{w: w, flags: f}, true)
}

var _ StackableLogger = (*consoleLog)(nil)

func (l *consoleLog) AddEntry(e LogEntry) {
	if e.Flags&flags.NotConsole == 0 && (l.flags == 0 || e.Flags&l.flags > 0) {
		l.mu.Lock()
		fmt.Fprintln(l.w, e.String())
		l.mu.Unlock()
	}
	if l.next != nil {
		l.next.AddEntry(e)
	}
}

func (l *consoleLog) ForwardTo(sl StackableLogger) {
	if l.next == nil || sl == nil {
		l.next = sl
	} else {
		panic("next already set")
	}
}

const ConsoleLogIdent = "consoleLog"

func (*consoleLog) Ident() string           { return ConsoleLogIdent }
func (l *consoleLog) Next() StackableLogger { return l.next }

func (l *consoleLog) Finalize() {
	if l.next != nil {
		l.next.Finalize()
	}
}
