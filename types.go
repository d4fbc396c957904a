// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package unrar5j extracts RAR5 archives: it parses the archive
// container via internal/rarfmt, decrypts and decompresses each file's
// payload via internal/rarcrypto and internal/rar5core, and writes the
// result to disk (or any destination grailbio's file package can create).
package unrar5j

import "time"

// Progress is sent on an extraction's progress channel, once per file,
// after that file has either been fully written and verified or has
// failed.
type Progress struct {
	Name         string
	Done, Total  int64
	Index, Count int
	Duration     time.Duration
}

type extractOpts struct {
	password    string
	concurrency int
	progressCh  chan<- Progress
	verbose     bool
}

// Option configures Extract.
type Option func(*extractOpts)

// WithPassword supplies the password for encrypted members. It is a
// no-op for members that don't carry a FileCryptRecord.
func WithPassword(password string) Option {
	return func(o *extractOpts) { o.password = password }
}

// WithConcurrency bounds how many independent solid chains Extract
// decodes in parallel. The default is runtime.GOMAXPROCS(-1).
func WithConcurrency(n int) Option {
	return func(o *extractOpts) { o.concurrency = n }
}

// WithProgress sets the channel Extract sends a Progress value to
// after each file completes. The channel is never closed by Extract;
// callers own its lifetime and should keep reading from it until
// Extract returns, or risk blocking the extraction.
func WithProgress(ch chan<- Progress) Option {
	return func(o *extractOpts) { o.progressCh = ch }
}

// WithVerbose records a verbosity flag, mirroring the teacher's
// BZVerbose. Extract stores it but does not log anything either way.
func WithVerbose(v bool) Option {
	return func(o *extractOpts) { o.verbose = v }
}
