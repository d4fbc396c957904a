// Copyright 2024 The unrar5j Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package unrar5j

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"cloudeng.io/errors"

	"github.com/RealBurst/unrar5j/internal/rar5core"
	"github.com/RealBurst/unrar5j/internal/rarcrypto"
	"github.com/RealBurst/unrar5j/internal/rarfmt"
)

// Result summarizes one Extract call.
type Result struct {
	// Extracted lists the names that were written and verified
	// successfully, in completion order: members of one solid chain
	// keep archive order, but independent chains run concurrently and
	// their members may interleave in any order.
	Extracted []string
	// Failed lists one FileError per member that could not be
	// extracted; Extract keeps going past each one.
	Failed []*FileError
}

// Extract decodes every member of a, writing output under destDir.
// Members belonging to the same solid chain are always decoded in
// declaration order by a single rar5core.Decoder; independent chains
// may run concurrently, bounded by WithConcurrency.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...Option) (Result, error) {
	o := extractOpts{concurrency: runtime.GOMAXPROCS(-1)}
	for _, fn := range opts {
		fn(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	total := 0
	for _, c := range a.chains {
		total += len(c.members)
	}

	p := &extractRun{
		destDir: destDir,
		opts:    o,
		total:   int64(total),
	}
	p.errs = &errors.M{}

	p.runChains(ctx, a.chains, o.concurrency)

	res := Result{Extracted: p.extracted, Failed: p.failed}
	return res, p.errs.Err()
}

// extractRun carries the mutable state one Extract call accumulates
// across however many chain workers are processing concurrently.
type extractRun struct {
	destDir string
	opts    extractOpts
	total   int64

	mu        sync.Mutex // guards the fields below
	done      int64
	index     int
	extracted []string
	failed    []*FileError
	errs      *errors.M
}

func (p *extractRun) lock()   { p.mu.Lock() }
func (p *extractRun) unlock() { p.mu.Unlock() }

func (p *extractRun) runChains(ctx context.Context, chains []*chain, concurrency int) {
	sem := make(chan struct{}, concurrency)
	done := make(chan struct{})
	remaining := len(chains)
	if remaining == 0 {
		return
	}
	for _, c := range chains {
		c := c
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			p.runChain(ctx, c)
		}()
	}
	for i := 0; i < remaining; i++ {
		<-done
	}
}

func (p *extractRun) runChain(ctx context.Context, c *chain) {
	dec := rar5core.NewDecoder()
	for _, m := range c.members {
		start := time.Now()
		name, err := p.extractOne(ctx, dec, m)
		p.record(name, err, time.Since(start))
	}
}

func (p *extractRun) record(name string, err error, dur time.Duration) {
	p.lock()
	defer p.unlock()
	p.index++
	if err != nil {
		fe := &FileError{Name: name, Kind: classifyArchiveError(err), Err: err}
		p.failed = append(p.failed, fe)
		p.errs.Append(fe)
	} else {
		p.extracted = append(p.extracted, name)
	}
	p.done++
	if p.opts.progressCh != nil {
		p.opts.progressCh <- Progress{
			Name:     name,
			Done:     p.done,
			Total:    p.total,
			Index:    p.index,
			Count:    int(p.total),
			Duration: dur,
		}
	}
}

// extractOne decodes and writes a single member, using dec (which may
// carry dictionary state from earlier members of the same chain).
func (p *extractRun) extractOne(ctx context.Context, dec *rar5core.Decoder, m *member) (string, error) {
	b := m.block
	name, err := sanitizeRelPath(b.Name)
	if err != nil {
		return b.Name, &corruptedErr{err.Error()}
	}
	outPath := filepath.Join(p.destDir, name)

	src, unpackedSize, err := p.buildSource(b, m.data)
	if err != nil {
		return b.Name, err
	}

	sink, err := createFileSink(ctx, outPath)
	if err != nil {
		return b.Name, err
	}

	effectiveSolid := b.IsSolid() && dec.ContinuesSolid()
	props := propertiesFor(b, effectiveSolid)

	var decodeErr error
	if b.CompressionMethod() == 0 {
		decodeErr = copyStore(sink, src, unpackedSize)
	} else {
		decodeErr = dec.DecodeFile(src, decodeSink{sink}, props, unpackedSize)
	}
	if decodeErr != nil {
		sink.abort(outPath)
		return b.Name, decodeErr
	}

	if err := p.verifyCRC(b, sink.crc); err != nil {
		sink.abort(outPath)
		return b.Name, err
	}
	if err := sink.commit(); err != nil {
		return b.Name, err
	}
	return b.Name, nil
}

// decodeSink adapts *fileSink to rar5core.ByteSink without exposing
// fileSink's crc-tracking internals to the core package.
type decodeSink struct{ s *fileSink }

func (d decodeSink) Write(buf []byte) error { return d.s.Write(buf) }

func propertiesFor(b *rarfmt.FileBlock, solid bool) rar5core.Properties {
	var p rar5core.Properties
	p[0] = byte(b.Pow())
	p[1] = byte(b.Frac()<<3) & 0xF8
	if b.V7() {
		p[1] |= 0x02
	}
	if solid {
		p[1] |= 0x01
	}
	return p
}

// buildSource wraps m's raw bytes in the ByteSource the decoder (or
// store-method copy) should read from: decrypted, if the member
// carries a FileCryptRecord.
func (p *extractRun) buildSource(b *rarfmt.FileBlock, raw []byte) (rar5core.ByteSource, int64, error) {
	unpackedSize := int64(b.UnpackedSize)
	if b.HasUnpackedSizeUnknown() {
		unpackedSize = rar5core.UnknownSize
	}
	if !b.IsEncrypted() {
		return bytes.NewReader(raw), unpackedSize, nil
	}
	if p.opts.password == "" {
		return nil, 0, ErrBadPassword
	}
	keys := rarcrypto.DeriveKeys([]byte(p.opts.password), b.Crypt.Salt, b.Crypt.KDFCount)
	if len(b.Crypt.CheckValue) > 0 && !rarcrypto.VerifyPassword(keys, b.Crypt.CheckValue) {
		return nil, 0, ErrBadPassword
	}
	src, err := rarcrypto.NewCBCSource(bytes.NewReader(raw), keys.AESKey, b.Crypt.IV[:])
	if err != nil {
		return nil, 0, err
	}
	return src, unpackedSize, nil
}

// corruptedErr marks an archive-layer (as opposed to I/O-layer) defect
// so classifyArchiveError can report it as KindCorrupted rather than
// falling back to the KindIO default.
type corruptedErr struct{ msg string }

func (e *corruptedErr) Error() string { return e.msg }

func (p *extractRun) verifyCRC(b *rarfmt.FileBlock, crc uint32) error {
	if b.FileFlags&0x0004 == 0 {
		return nil
	}
	if b.IsEncrypted() {
		keys := rarcrypto.DeriveKeys([]byte(p.opts.password), b.Crypt.Salt, b.Crypt.KDFCount)
		if rarcrypto.FoldCRC(keys.HMACKey, crc) != b.DataCRC32 {
			return &corruptedErr{fmt.Sprintf("unrar5j: checksum mismatch for %q", b.Name)}
		}
		return nil
	}
	if crc != b.DataCRC32 {
		return &corruptedErr{fmt.Sprintf("unrar5j: checksum mismatch for %q", b.Name)}
	}
	return nil
}

// copyStore handles compressionMethod == 0 (store): the data area is
// the file's content verbatim (after decryption, if any), so no
// rar5core involvement is needed beyond the byte copy and CRC check
// every method shares.
func copyStore(sink rar5core.ByteSink, src rar5core.ByteSource, unpackedSize int64) error {
	buf := make([]byte, 64*1024)
	remaining := unpackedSize
	unknown := unpackedSize == rar5core.UnknownSize
	for unknown || remaining > 0 {
		want := len(buf)
		if !unknown && int64(want) > remaining {
			want = int(remaining)
		}
		n, err := src.Read(buf[:want])
		if n > 0 {
			if werr := sink.Write(buf[:n]); werr != nil {
				return werr
			}
			remaining -= int64(n)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}
	return nil
}

func classifyArchiveError(err error) FileErrorKind {
	switch err {
	case ErrBadPassword:
		return KindBadPassword
	}
	if _, ok := err.(*corruptedErr); ok {
		return KindCorrupted
	}
	return classifyDecodeError(err)
}
