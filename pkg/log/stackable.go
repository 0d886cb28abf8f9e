// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/starscouts/brisbane/pkg/log/flags"
)

// A type of logger which can be chained/stacked, each adding different
// functionality. Events can go to memory, a console writer or a file, and this
// is transparent to the caller.
//
// Normal logging goes through the non-member functions in this package -
// Logf, Msgf, Fatalf.
type StackableLogger interface {
	// Add an entry to the log. Must call the same method on the next log in
	// the stack (if not nil).
	AddEntry(e LogEntry)

	// Chain one logger to another. Calling this on a logger which already has
	// a next logger is an error, unless sl is nil.
	ForwardTo(sl StackableLogger)

	// Identifies the type of logger, to prevent duplicates in the stack.
	Ident() string
	// Returns next StackableLogger or nil
	Next() StackableLogger
	// Flushes outstanding entries and releases resources. Must call the same
	// method on the next log in the stack (if not nil).
	Finalize()
}

// Top logger on the stack. Anything touching logStack or its successors must
// hold logStackMtx.
var logStack StackableLogger = &memLog{}

var logStackMtx sync.Mutex

type stackErr struct {
	Id string
}

func (se *stackErr) Error() string {
	return fmt.Sprintf("Duplicate logger %s in stack", se.Id)
}

// Flushes data, closes files, etc
func Finalize() {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	logStack.Finalize()
}

// Syncer is implemented by loggers whose entries can be lost in a crash or
// reboot until flushed.
type Syncer interface {
	Sync() error
}

// Sync flushes every logger in the stack that implements Syncer. Unlike
// Finalize, loggers stay usable afterwards.
func Sync() {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	for l := logStack; l != nil; l = l.Next() {
		if s, ok := l.(Syncer); ok {
			if err := s.Sync(); err != nil {
				fmt.Fprintf(os.Stderr, "syncing %s: %s\n", l.Ident(), err)
			}
		}
	}
}

// Restores the log stack to its initial state: a lone memLog.
func DefaultLogStack() { NewLogStack(&memLog{}) }

// Calls Finalize on existing logger(s), then sets newLog as the topmost logger.
func NewLogStack(newLog StackableLogger) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	if logStack != nil {
		logStack.Finalize()
	}
	logStack = newLog
}

// Add a logger to the stack. If addPrevious is true, events already held by a
// memLog are replayed into the new logger first.
//
// Callers should prefer AddConsoleLog(), AddFileLog() etc.
//
// The only possible error is a duplicate: a logger with the same Ident() is
// already in the stack.
func AddLogger(sl StackableLogger, addPrevious bool) error {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	if err := checkDuplicate(sl, logStack); err != nil {
		return err
	}
	if addPrevious {
		addPreviousEvents(sl)
	}
	sl.ForwardTo(logStack)
	logStack = sl
	return nil
}

func checkDuplicate(newLogger, sl StackableLogger) error {
	for ; sl != nil; sl = sl.Next() {
		if newLogger.Ident() == sl.Ident() {
			return &stackErr{Id: sl.Ident()}
		}
	}
	return nil
}

// Remove a log with the given id from the stack
func RemoveLogger(id string) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	var prev StackableLogger
	for l := logStack; l != nil; {
		next := l.Next()
		if l.Ident() == id {
			l.ForwardTo(nil)
			l.Finalize()
			if prev != nil {
				prev.ForwardTo(nil)
				prev.ForwardTo(next)
			} else if next != nil {
				logStack = next
			} else {
				logStack = &memLog{}
			}
			return
		}
		prev = l
		l = next
	}
}

// LogEntry is the record passed down the stack.
type LogEntry struct {
	Time  time.Time `json:"t"`
	Msg   string
	Args  []interface{} `json:",omitempty"`
	Flags flags.Flag    `json:",omitempty"`
}

// Backend of Logf(), Msgf(), Fatalf().
func FlaggedLogf(opts flags.Flag, f string, va ...interface{}) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	logStack.AddEntry(LogEntry{
		Time:  time.Now(),
		Flags: opts,
		Msg:   f,
		Args:  va,
	})
}

// Text is the formatted message, without time or marker.
func (le *LogEntry) Text() string {
	return fmt.Sprintf(le.Msg, le.Args...)
}

func (le *LogEntry) String() string {
	var div string
	switch {
	case le.Flags&flags.Fatal != 0:
		div = "!! "
	case le.Flags&flags.EndUser != 0:
		div = "-- "
	case le.Flags == 0:
		div = "*- "
	default:
		div = "?? "
	}
	return div + le.Time.Format(TimestampLayout) + " " + div + le.Text()
}

// Replays entries held by a memLog into a newly attached logger.
func addPreviousEvents(newlog StackableLogger) {
	if _, isMem := newlog.(*memLog); isMem {
		return
	}
	if mem, ok := FindInStack(MemLogIdent).(*memLog); ok {
		for _, e := range mem.Entries() {
			newlog.AddEntry(e)
		}
	}
}

// Return true if a log in the stack matches given id
func InStack(id string) bool {
	return FindInStack(id) != nil
}

// Return StackableLogger matching id, or nil
func FindInStack(id string) StackableLogger {
	for l := logStack; l != nil; l = l.Next() {
		if l.Ident() == id {
			return l
		}
	}
	return nil
}
