// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rar5core

import (
	"bytes"
	"testing"
)

type recordingSink struct{ buf bytes.Buffer }

func (s *recordingSink) Write(p []byte) error {
	s.buf.Write(p)
	return nil
}

func TestWindowSelfReferentialRLE(t *testing.T) {
	w := newWindow(minWindowSize)
	sink := &recordingSink{}
	w.startFile(1024, sink, false)

	w.putByte('A')
	w.putByte('A')
	w.copyMatch(1, 1022)

	if err := w.flush(w.lzSize); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sink.buf.Len() != 1024 {
		t.Fatalf("got %d bytes, want 1024", sink.buf.Len())
	}
	for i, b := range sink.buf.Bytes() {
		if b != 'A' {
			t.Fatalf("byte %d = %q, want 'A'", i, b)
		}
	}
}

func TestWindowFlushRespectsFileEnd(t *testing.T) {
	w := newWindow(minWindowSize)
	sink := &recordingSink{}
	w.startFile(3, sink, false)

	w.putByte('x')
	w.putByte('y')
	w.putByte('z')

	if err := w.flush(w.lzFileEnd); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := sink.buf.String(); got != "xyz" {
		t.Fatalf("got %q, want %q", got, "xyz")
	}
}

func TestWindowContinuesSolid(t *testing.T) {
	w := newWindow(minWindowSize)
	sink := &recordingSink{}
	w.startFile(10, sink, false)
	for i := 0; i < 10; i++ {
		w.putByte('a')
	}
	w.setFileEndForTest(w.lzSize)
	if !w.continuesSolid() {
		t.Fatal("continuesSolid should hold immediately after the declared end")
	}

	w.lzSize += solidRecoverLimit + 1
	if w.continuesSolid() {
		t.Fatal("continuesSolid should fail once past the recovery limit")
	}
}

func TestWindowResizePreservesTrailingBytes(t *testing.T) {
	w := newWindow(minWindowSize)
	sink := &recordingSink{}
	w.startFile(-1, sink, false)
	for i := 0; i < 5; i++ {
		w.putByte(byte('0' + i))
	}
	w.resize(minWindowSize * 2)
	if w.at(1) != '4' {
		t.Fatalf("most recent byte after resize = %q, want '4'", w.at(1))
	}
	if w.at(5) != '0' {
		t.Fatalf("oldest byte after resize = %q, want '0'", w.at(5))
	}
}

func TestWindowShouldFlushFiresAtWriteStepAndNearWrap(t *testing.T) {
	w := newWindow(minWindowSize)
	sink := &recordingSink{}
	w.startFile(-1, sink, false)

	if w.shouldFlush() {
		t.Fatal("shouldFlush should be false with no unflushed bytes")
	}

	w.lzSize = writeStepSize
	if !w.shouldFlush() {
		t.Fatal("shouldFlush should fire once unflushed bytes reach writeStepSize")
	}

	w.lzSize = 0
	w.lzWritten = 0
	w.lzSize = int64(w.size) - maxMatchLen
	if !w.shouldFlush() {
		t.Fatal("shouldFlush should fire before the circular buffer would wrap over unflushed bytes")
	}
}

// TestWindowFlushStopsForUnreadyFilter covers the flush-time guard that
// keeps a queued filter from being applied before the LZ engine has
// actually produced its whole input range; otherwise a flush reached
// via the write-step cadence (rather than only at file end) could read
// back bytes the window hasn't written yet.
func TestWindowFlushStopsForUnreadyFilter(t *testing.T) {
	w := newWindow(minWindowSize)
	sink := &recordingSink{}
	w.startFile(-1, sink, false)

	for i := 0; i < 10; i++ {
		w.putByte('a')
	}
	w.filter.queue = append(w.filter.queue, filterDesc{startPos: 5, size: 20, typ: filterE8})

	if err := w.flush(w.lzSize); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sink.buf.Len() != 5 {
		t.Fatalf("got %d bytes flushed, want 5 (only the plain bytes before the pending filter)", sink.buf.Len())
	}
	if w.lzWritten != 5 {
		t.Fatalf("lzWritten = %d, want 5 (flush must stop, not apply the not-yet-ready filter)", w.lzWritten)
	}
}

// setFileEndForTest exposes setFileEnd's effect without importing the
// decoder package-level helper, keeping this test file independent of
// decoder.go's control flow.
func (w *window) setFileEndForTest(end int64) { w.setFileEnd(end) }
