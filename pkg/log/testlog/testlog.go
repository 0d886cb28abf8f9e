// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package testlog hijacks the output of github.com/starscouts/brisbane/pkg/log.
// By default output is printed through testing functions, but it can be
// stored in a buffer for analysis as part of the test.
package testlog

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starscouts/brisbane/pkg/log"
	"github.com/starscouts/brisbane/pkg/log/flags"
)

// TstLog is a log.StackableLogger routing entries to a testing.T. Construct
// via NewTestLog() or NewTestLogNoBG().
type TstLog struct {
	events        leChan
	t             testing.TB
	Buf           *bytes.Buffer //if non-nil, Msgf()/Logf() output goes here
	MsgCount      int           //counts number of log.Msgf() entries
	LogCount      int           //counts number of log.Logf() entries
	FatalCount    int           //counts number of log.Fatalf() entries
	FatalIsNotErr bool          //if true, do not call t.Errorf() for Fatalf()
	freeze        bool          //do not write any more to Buf
	mu            sync.RWMutex
	bgWg          sync.WaitGroup
}

// Returns a new TstLog. If bufferLog is true, logging goes to a buffer rather
// than directly to t.Log()/t.Error(). Do not share one TstLog between tests.
func NewTestLog(t testing.TB, bufferLog bool) (tlog *TstLog) {
	tlog = &TstLog{
		events: make(leChan, 1024),
		t:      t,
	}
	if bufferLog {
		tlog.Buf = new(bytes.Buffer)
	}
	tlog.bgWg.Add(1)
	go tlog.bgProc()
	log.NewLogStack(tlog)
	log.SetFatalAction(log.FailAction{Terminator: func() {}})
	return
}

// Like NewTestLog, but does not use a channel or background goroutine, and
// always buffers. Entries are handled in the caller's goroutine.
func NewTestLogNoBG(t testing.TB) (tlog *TstLog) {
	tlog = &TstLog{t: t, Buf: new(bytes.Buffer)}
	log.NewLogStack(tlog)
	log.SetFatalAction(log.FailAction{Terminator: func() {}})
	return
}

var _ log.StackableLogger = (*TstLog)(nil)

func (tlog *TstLog) AddEntry(e log.LogEntry) {
	tlog.mu.RLock()
	freeze := tlog.freeze
	tlog.mu.RUnlock()
	if freeze {
		return
	}
	switch {
	case e.Flags&flags.Fatal != 0:
		e.Msg = ">>FATAL()<< " + e.Msg
	case e.Flags&flags.EndUser != 0:
		e.Msg = "MSG:" + e.Msg
	default:
		e.Msg = "LOG:" + e.Msg
	}
	if tlog.events != nil {
		tlog.events <- e
	} else {
		tlog.t.Helper()
		tlog.handleEvt(e)
	}
}

const TstLogIdent = "tstLog"

func (*TstLog) Ident() string                      { return TstLogIdent }
func (tl *TstLog) Next() log.StackableLogger       { return nil }
func (*TstLog) Finalize()                          {}
func (tl *TstLog) ForwardTo(_ log.StackableLogger) {}

type leChan chan log.LogEntry

func (tlog *TstLog) bgProc() {
	defer tlog.bgWg.Done()
	for evt := range tlog.events {
		tlog.handleEvt(evt)
	}
}

func (tlog *TstLog) handleEvt(evt log.LogEntry) {
	tlog.t.Helper()
	f := "@" + evt.Time.Format(stampMilli) + ": " + evt.Msg
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	switch {
	case evt.Flags&flags.Fatal != 0:
		tlog.FatalCount++
		if !tlog.FatalIsNotErr {
			tlog.t.Errorf(f, evt.Args...)
			return
		}
	case evt.Flags&flags.EndUser != 0:
		tlog.MsgCount++
	default:
		tlog.LogCount++
	}
	if tlog.Buf != nil {
		fmt.Fprintf(tlog.Buf, evt.Msg+"\n", evt.Args...)
	} else {
		tlog.t.Logf(f, evt.Args...)
	}
}

const stampMilli = "15:04:05.000" //like time.StampMilli, but leaves off date

// Call at end of test to sync the log, shut down the background goroutine
// and restore the default log stack.
func (tlog *TstLog) Freeze() {
	tlog.mu.Lock()
	freeze := tlog.freeze
	tlog.mu.Unlock()
	if freeze {
		return
	}
	log.DefaultLogStack()
	log.SetFatalAction(log.DefaultFatal)

	if tlog.events != nil {
		for len(tlog.events) > 0 {
			time.Sleep(time.Millisecond)
		}
		close(tlog.events)
		tlog.bgWg.Wait()
	}
	tlog.mu.Lock()
	tlog.freeze = true
	tlog.mu.Unlock()
}

// Lines freezes the log and returns buffered output, one entry per line.
func (tlog *TstLog) Lines() []string {
	tlog.t.Helper()
	tlog.Freeze()
	if tlog.Buf == nil {
		tlog.t.Fatal("Lines: log is not buffered")
	}
	s := strings.TrimSuffix(tlog.Buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// MustContain fails the test unless some buffered line contains substr.
func (tlog *TstLog) MustContain(substr string) {
	tlog.t.Helper()
	for _, l := range tlog.Lines() {
		if strings.Contains(l, substr) {
			return
		}
	}
	tlog.t.Errorf("log does not contain %q:\n%s", substr, tlog.Buf.String())
}
