// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package kmsg copies log entries into the kernel ring buffer, so the boot
// chain shows up in dmesg after the next kernel has started. Writing to
// /dev/kmsg requires root.
package kmsg

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/starscouts/brisbane/pkg/log"
	"github.com/starscouts/brisbane/pkg/log/flags"
)

type Priority uint

//Convert facility/severity into priority
func Prio(f Facility, s Severity) Priority {
	return Priority(f*8) + Priority(s)
}

//Facility values a la RFC5424. Incomplete list.
type Facility uint

const (
	FacUser   Facility = 1
	FacSys    Facility = 3
	FacLocal0 Facility = 16
)

//Severity values a la RFC5424.
type Severity uint

const (
	SevEmerg Severity = iota
	SevAlert
	SevCrit
	SevError
	SevWarn
	SevNotice
	SevInfo
	SevDebug
)

// Path of the kernel log device.
var Path = "/dev/kmsg"

// the kernel truncates longer records
const maxRecord = 976

type kmsgLog struct {
	w    io.WriteCloser
	fac  Facility
	pfx  string
	next log.StackableLogger
	mu   sync.Mutex
}

// AddLog opens Path and adds a logger writing every entry to it, tagged with
// pfx. Entries logged earlier are replayed.
func AddLog(fac Facility, pfx string) error {
	if fac == 0 {
		return fmt.Errorf("kmsg: cannot use facility 0")
	}
	f, err := os.OpenFile(Path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if err := log.AddLogger(&kmsgLog{w: f, fac: fac, pfx: pfx}, true); err != nil {
		f.Close()
		return err
	}
	return nil
}

func severity(f flags.Flag) Severity {
	switch {
	case f&flags.Fatal != 0:
		return SevCrit
	case f&flags.EndUser != 0:
		return SevNotice
	default:
		return SevInfo
	}
}

// One record per line; the kernel splits nothing for us.
func (l *kmsgLog) AddEntry(e log.LogEntry) {
	l.mu.Lock()
	if l.w != nil {
		prio := Prio(l.fac, severity(e.Flags))
		for _, line := range strings.Split(strings.TrimRight(e.Text(), "\r\n"), "\n") {
			rec := fmt.Sprintf("<%d>%s: %s", prio, l.pfx, strings.TrimRight(line, "\r"))
			if len(rec) > maxRecord {
				rec = rec[:maxRecord]
			}
			//a full ring buffer or rate limiting is not worth failing over
			_, _ = io.WriteString(l.w, rec+"\n")
		}
	}
	l.mu.Unlock()
	if l.next != nil {
		l.next.AddEntry(e)
	}
}

func (l *kmsgLog) ForwardTo(sl log.StackableLogger) {
	if l.next == nil || sl == nil {
		l.next = sl
	} else {
		panic("next already set")
	}
}

const Ident = "kmsgLog"

func (*kmsgLog) Ident() string               { return Ident }
func (l *kmsgLog) Next() log.StackableLogger { return l.next }

func (l *kmsgLog) Finalize() {
	l.mu.Lock()
	if l.w != nil {
		l.w.Close()
		l.w = nil
	}
	l.mu.Unlock()
	if l.next != nil {
		l.next.Finalize()
	}
}
