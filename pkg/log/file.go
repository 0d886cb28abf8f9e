// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"errors"
	"fmt"
	"os"
	fp "path/filepath"
	"time"

	"github.com/starscouts/brisbane/pkg/log/flags"
)

type fileLog struct {
	f    *os.File
	name string
	next StackableLogger
}

var _ StackableLogger = (*fileLog)(nil)

var EPrefix = errors.New("log prefix is unset")

// AddFileLog adds a fileLog to the stack. Existing events are inserted. Name
// is the prefix (GetPrefix) plus the current time, via TimestampLayout.
func AddFileLog(dir string) (string, error) {
	prefix := GetPrefix()
	if prefix == "" {
		return "", EPrefix
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}
	name := prefix + time.Now().Format(TimestampLayout) + ".log"
	return AddNamedFileLog(fp.Join(dir, name))
}

// AddNamedFileLog is like AddFileLog, but uses the given name.
func AddNamedFileLog(fname string) (string, error) {
	f, err := os.Create(fname)
	if err != nil {
		return "", err
	}
	fl := &fileLog{f: f, name: fname}
	if err = AddLogger(fl, true); err != nil {
		f.Close()
		os.Remove(fname)
		return "", err
	}
	return fname, nil
}

func (fl *fileLog) AddEntry(e LogEntry) {
	if (e.Flags&flags.NotFile) == 0 && fl.f != nil {
		fmt.Fprintln(fl.f, e.String())
	}
	if fl.next != nil {
		fl.next.AddEntry(e)
	}
}

func (fl *fileLog) ForwardTo(sl StackableLogger) {
	if fl.next == nil || sl == nil {
		fl.next = sl
	} else {
		panic("next already set")
	}
}

const FileLogIdent = "fileLog"

func (fl *fileLog) Ident() string         { return FileLogIdent }
func (fl *fileLog) Next() StackableLogger { return fl.next }

// Sync flushes the file to disk, leaving it open.
func (fl *fileLog) Sync() error {
	if fl.f == nil {
		return nil
	}
	return fl.f.Sync()
}

func (fl *fileLog) Finalize() {
	if fl.f != nil {
		if err := fl.f.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "syncing log file: %s\n", err)
		}
		if err := fl.f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %s\n", err)
		}
		fl.f = nil
	}
	if fl.next != nil {
		fl.next.Finalize()
	}
}

// LogFile returns the name of the file log in the stack, if any.
func LogFile() (string, bool) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	fl, ok := FindInStack(FileLogIdent).(*fileLog)
	if !ok {
		return "", false
	}
	return fl.name, true
}
