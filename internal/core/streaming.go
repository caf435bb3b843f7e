package core

// streaming.go provides the reader stack used to decode a CSV source.
//
// The loader never sees raw file bytes; it reads through:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by
//     Windows tools, so it never ends up in the first header name
//   - a golang.org/x/text UTF-8 decoder: replaces invalid byte sequences with
//     U+FFFD instead of failing the load
//   - CountingReader: tracks bytes consumed for load logging
//
// Use wrapSource to apply all of them in the correct order.

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call inspects and discards the BOM.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}

// wrapSource counts raw bytes, strips the BOM, then sanitizes UTF-8.
//
// The order matters: counting sees the file as stored, and the BOM must be
// gone before the decoder runs, which would otherwise keep it as U+FEFF.
func wrapSource(r io.Reader, total int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, total)
	bomless := NewBOMSkippingReader(counter)
	return transform.NewReader(bomless, unicode.UTF8.NewDecoder()), counter
}
