// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log_test

// Note that this is package log_test, not log. Ensures that we expose enough
// functions to make testing possible from other packages.

import (
	"bytes"
	"os"
	fp "path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starscouts/brisbane/pkg/log"
	"github.com/starscouts/brisbane/pkg/log/flags"
)

func TestMemLog(t *testing.T) {
	log.DefaultLogStack()
	defer log.DefaultLogStack()
	T, err := time.Parse("2006", "1999")
	if err != nil {
		t.Fatal(err)
	}
	e := log.LogEntry{
		Time:  T,
		Msg:   "interesting event",
		Flags: flags.EndUser,
	}
	log.Stack().AddEntry(e)
	entries := log.StoredEntries()
	if len(entries) != 1 {
		t.Fatal("wrong entries", entries)
	}
	want := "-- 19990101_000000 -- interesting event"
	got := entries[0].String()
	if want != got {
		t.Errorf("mem:\nwant %q\ngot  %q", want, got)
	}
}

func TestFileLog(t *testing.T) {
	log.DefaultLogStack()
	defer log.DefaultLogStack()
	T, err := time.Parse("2006", "1999")
	if err != nil {
		t.Fatal(err)
	}
	stack := log.Stack()
	stack.AddEntry(log.LogEntry{Time: T, Msg: "interesting event", Flags: flags.EndUser})
	//this one must not make it into the file
	stack.AddEntry(log.LogEntry{Time: T.Add(time.Minute), Msg: "sensitive event", Flags: flags.EndUser | flags.NotFile})
	if n := len(log.StoredEntries()); n != 2 {
		t.Errorf("want 2 entries, got %d", n)
	}

	tmp := t.TempDir()
	log.SetPrefix("gotest")
	_, err = log.AddFileLog(tmp)
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := log.LogFile()
	if !ok {
		t.Fatal("no file log in stack")
	}
	log.Finalize()
	buf, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	want := "-- 19990101_000000 -- interesting event\n"
	if string(buf) != want {
		t.Errorf("file:\nwant %q\ngot  %q", want, string(buf))
	}
	if fp.Dir(fn) != tmp {
		t.Errorf("log written to %s, not %s", fn, tmp)
	}
}

func TestSyncKeepsFileOpen(t *testing.T) {
	log.DefaultLogStack()
	defer log.DefaultLogStack()
	fn, err := log.AddNamedFileLog(fp.Join(t.TempDir(), "boot.log"))
	if err != nil {
		t.Fatal(err)
	}
	log.Logf("before sync")
	log.Sync()
	buf, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "before sync") {
		t.Errorf("not flushed: %q", buf)
	}
	log.Logf("after sync")
	log.Finalize()
	buf, err = os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "after sync") {
		t.Errorf("file closed by Sync: %q", buf)
	}
}

func TestConsoleLogFilters(t *testing.T) {
	log.DefaultLogStack()
	defer log.DefaultLogStack()
	var buf bytes.Buffer
	log.Logf("before console attached")
	if err := log.AddConsoleLog(&buf, flags.EndUser); err != nil {
		t.Fatal(err)
	}
	log.Logf("technical detail")
	log.Msgf("for the operator: %d", 42)
	log.FlaggedLogf(flags.EndUser|flags.NotConsole, "hidden")

	out := buf.String()
	if strings.Contains(out, "technical detail") || strings.Contains(out, "before console") {
		t.Errorf("technical entries leaked to EndUser console:\n%s", out)
	}
	if !strings.Contains(out, "for the operator: 42") {
		t.Errorf("missing operator entry:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("NotConsole entry was shown:\n%s", out)
	}
}

func TestConsoleLogNotConsole(t *testing.T) {
	for _, td := range []struct {
		name  string
		sink  flags.Flag
		entry flags.Flag
		shown bool
	}{
		{"all, technical", flags.NA, flags.NA, true},
		{"all, operator", flags.NA, flags.EndUser, true},
		{"all, fatal", flags.NA, flags.Fatal, true},
		{"all, hidden technical", flags.NA, flags.NotConsole, false},
		{"all, hidden fatal", flags.NA, flags.Fatal | flags.NotConsole, false},
		{"operator, hidden operator", flags.EndUser, flags.EndUser | flags.NotConsole, false},
		{"operator, file-only exclusion", flags.EndUser, flags.EndUser | flags.NotFile, true},
	} {
		t.Run(td.name, func(t *testing.T) {
			log.DefaultLogStack()
			defer log.DefaultLogStack()
			var buf bytes.Buffer
			if err := log.AddConsoleLog(&buf, td.sink); err != nil {
				t.Fatal(err)
			}
			log.FlaggedLogf(td.entry, "entry %s", td.entry)
			if shown := strings.Contains(buf.String(), "entry"); shown != td.shown {
				t.Errorf("shown=%t, want %t: %q", shown, td.shown, buf.String())
			}
		})
	}
}

func TestFatalAction(t *testing.T) {
	log.DefaultLogStack()
	defer log.DefaultLogStack()
	defer log.SetFatalAction(log.DefaultFatal)
	var pre string
	var terminated bool
	log.SetFatalAction(log.FailAction{
		MsgPfx:     "boot: ",
		Pre:        func(f string, va ...interface{}) { pre = f },
		Terminator: func() { terminated = true },
	})
	log.Fatalf("disk %s gone", "sda")
	if !terminated {
		t.Error("terminator not called")
	}
	if pre != "boot: disk %s gone" {
		t.Errorf("pre got %q", pre)
	}
}

func TestDumpTo(t *testing.T) {
	log.DefaultLogStack()
	defer log.DefaultLogStack()
	log.Logf("one")
	log.Msgf("two")
	var buf bytes.Buffer
	log.DumpTo(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "*- ") || !strings.HasPrefix(lines[1], "-- ") {
		t.Errorf("bad markers: %q", lines)
	}
}
