// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package unrar5j

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/file"
)

// sanitizeRelPath rejects an archive-stored name that would let
// extraction escape destDir: a path that is still absolute after one
// leading slash is stripped, any ".." path element, and embedded NUL
// bytes (which some filesystems treat as a string
// terminator, letting a crafted name alias a different path than the
// one that appears to a naive string check).
func sanitizeRelPath(name string) (string, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return "", fmt.Errorf("unrar5j: name contains a NUL byte: %q", name)
	}
	clean := filepath.ToSlash(name)
	clean = strings.TrimPrefix(clean, "/")
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("unrar5j: absolute path in archive: %q", name)
	}
	for _, part := range strings.Split(clean, "/") {
		if part == ".." {
			return "", fmt.Errorf("unrar5j: path traversal in archive: %q", name)
		}
	}
	return filepath.FromSlash(clean), nil
}

// fileSink implements rar5core.ByteSink against a destination file,
// accumulating a CRC32 (IEEE) over everything written so Extract can
// verify it against the stored DataCRC32 (or, for an encrypted file
// whose checksum is masked, against rarcrypto.FoldCRC) without a
// second read pass.
type fileSink struct {
	ctx    context.Context
	f      file.File
	w      io.Writer
	crc    uint32
	n      int64
	closed bool
}

func createFileSink(ctx context.Context, path string) (*fileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return nil, err
	}
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	return &fileSink{ctx: ctx, f: f, w: f.Writer(ctx)}, nil
}

// Write implements rar5core.ByteSink.
func (s *fileSink) Write(buf []byte) error {
	s.crc = crc32.Update(s.crc, crc32.IEEETable, buf)
	s.n += int64(len(buf))
	_, err := s.w.Write(buf)
	return err
}

// abort closes and removes the partially-written output file,
// called when decode or verification fails partway through a member
// so a truncated, unverified file is never left behind.
func (s *fileSink) abort(path string) {
	if s.closed {
		return
	}
	s.closed = true
	_ = s.f.Close(s.ctx)
	_ = os.Remove(path)
}

func (s *fileSink) commit() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close(s.ctx)
}
