// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package unrar5j

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grailbio/base/file"

	"github.com/RealBurst/unrar5j/internal/rarfmt"
)

// sigSearchLimit bounds how far Open will scan past the start of the
// stream looking for the RAR5 signature, which tolerates an arbitrary
// self-extracting-archive stub prefix without ever buffering an entire
// large archive just to find its start.
const sigSearchLimit = 4 << 20

// member is one extractable archive entry: its parsed header and the
// raw bytes of its data area, still exactly as stored (compressed
// and/or encrypted). Open buffers this during its single forward pass
// over the volume, since none of the sources this package reads
// (local file, s3://, http(s)://) are assumed seekable once a later
// block has already been consumed.
type member struct {
	block *rarfmt.FileBlock
	data  []byte
}

// chain is a maximal run of members where every entry after the first
// declares itself solid; they share one rar5core.Decoder instance and
// must be decoded strictly in order.
type chain struct {
	members []*member
}

// Archive is a fully parsed RAR5 volume, ready for Extract.
type Archive struct {
	chains []*chain
}

// openSource resolves path to a readable stream: an http(s) URL is
// fetched directly; anything else goes through grailbio's file
// package, which cmd/unrar5j's init registers an s3 implementation
// with so "s3://..." paths work alongside local ones.
func openSource(ctx context.Context, path string) (io.Reader, func(context.Context) error, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, nil, err
		}
		return resp.Body, func(context.Context) error { return resp.Body.Close() }, nil
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return f.Reader(ctx), f.Close, nil
}

// findSignature consumes and discards bytes from src until the RAR5
// signature is found, returning a reader positioned immediately after
// it. It buffers at most sigSearchLimit bytes to perform the search,
// then stitches that (signature-trimmed) buffer back in front of src
// so the rest of the volume is still read as a single forward stream.
func findSignature(src io.Reader) (io.Reader, error) {
	buf := make([]byte, sigSearchLimit)
	n, err := io.ReadFull(src, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	buf = buf[:n]
	idx, ferr := rarfmt.FindSignature(buf)
	if ferr != nil {
		return nil, fmt.Errorf("unrar5j: %w", ferr)
	}
	return io.MultiReader(bytes.NewReader(buf[idx+len(rarfmt.Signature):]), src), nil
}

// Open parses path's full block structure into an Archive. path may
// be a local filesystem path, an "s3://" URI, or an "http(s)://" URL.
func Open(ctx context.Context, path string) (*Archive, error) {
	src, closer, err := openSource(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closer(ctx)

	body, err := findSignature(src)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(body)

	a := &Archive{}
	var cur *chain
	var sawMain bool

	for {
		blk, err := rarfmt.ReadBlock(br, 0)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unrar5j: reading block header: %w", err)
		}

		switch b := blk.(type) {
		case *rarfmt.MainBlock:
			sawMain = true
			if b.ArchiveFlags&0x0002 != 0 {
				return nil, ErrMultiVolume
			}

		case *rarfmt.EncryptionBlock:
			if !sawMain {
				return nil, ErrHeaderEncrypted
			}
			// An EncryptionBlock after the main header with no further
			// use in this implementation: it only matters for archives
			// that encrypt later headers, which we don't re-derive keys
			// for here (see DESIGN.md).

		case *rarfmt.FileBlock:
			data, err := readN(br, int64(b.CommonHeader.DataSize))
			if err != nil {
				return nil, fmt.Errorf("unrar5j: reading data for %q: %w", b.Name, err)
			}
			if b.IsService || b.IsDirectory() {
				break
			}
			m := &member{block: b, data: data}
			if cur == nil || !b.IsSolid() {
				cur = &chain{}
				a.chains = append(a.chains, cur)
			}
			cur.members = append(cur.members, m)

		case *rarfmt.EndBlock:
			if b.EndFlags&0x0001 != 0 {
				return nil, ErrMultiVolume
			}
			continue
		}

		if blk.Common().DataSize > 0 {
			if _, ok := blk.(*rarfmt.FileBlock); !ok {
				if _, err := io.CopyN(io.Discard, br, int64(blk.Common().DataSize)); err != nil {
					return nil, fmt.Errorf("unrar5j: skipping block data: %w", err)
				}
			}
		}
	}
	return a, nil
}

// readN reads exactly n bytes (n may be 0) from r into a freshly
// allocated slice.
func readN(r io.Reader, n int64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Names returns every extractable (non-directory, non-service) member
// name, in archive order.
func (a *Archive) Names() []string {
	var out []string
	for _, c := range a.chains {
		for _, m := range c.members {
			out = append(out, m.block.Name)
		}
	}
	return out
}
