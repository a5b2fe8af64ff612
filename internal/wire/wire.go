// Package wire implements the byte-level primitives shared by every cached
// record: a little-endian appender, a cursor parser with a sticky error and
// the packed flag prefix.
//
// Strings and byte blobs use a length-prefixed form padded to four bytes:
//
//	len < 254:  len[1] payload[len] pad
//	len >= 254: 0xFE len[3] payload[len] pad
//
// pad brings the total size of prefix+payload to a multiple of 4.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	longStringMarker = 0xFE
	maxStringLen     = 1<<24 - 1
)

// ErrTruncated is reported when a read runs past the end of the input.
var ErrTruncated = errors.New("wire: truncated input")

var le = binary.LittleEndian

// Storer appends encoded values to an internal buffer.
type Storer struct {
	buf []byte
}

// NewStorer returns a Storer with capacity hint n.
func NewStorer(n int) *Storer {
	return &Storer{buf: make([]byte, 0, n)}
}

// Bytes returns the encoded buffer.
func (s *Storer) Bytes() []byte { return s.buf }

// Len reports the number of bytes written so far.
func (s *Storer) Len() int { return len(s.buf) }

// Int32 appends a little-endian int32.
func (s *Storer) Int32(v int32) { s.buf = le.AppendUint32(s.buf, uint32(v)) }

// Uint32 appends a little-endian uint32.
func (s *Storer) Uint32(v uint32) { s.buf = le.AppendUint32(s.buf, v) }

// Int64 appends a little-endian int64.
func (s *Storer) Int64(v int64) { s.buf = le.AppendUint64(s.buf, uint64(v)) }

// Float64 appends an IEEE-754 double.
func (s *Storer) Float64(v float64) { s.buf = le.AppendUint64(s.buf, math.Float64bits(v)) }

// Flags appends the packed flag prefix.
func (s *Storer) Flags(f Flags) { s.Uint32(uint32(f)) }

// String appends a padded, length-prefixed string.
func (s *Storer) String(v string) { s.appendBlob(v) }

// Blob appends a padded, length-prefixed byte slice.
func (s *Storer) Blob(v []byte) { s.appendBlob(string(v)) }

// Strings appends a vector of strings.
func (s *Storer) Strings(v []string) {
	s.Int32(int32(len(v)))
	for _, str := range v {
		s.String(str)
	}
}

func (s *Storer) appendBlob(v string) {
	n := len(v)
	if n > maxStringLen {
		panic(fmt.Sprintf("wire: string of %d bytes is too long", n))
	}
	var head int
	if n < longStringMarker {
		s.buf = append(s.buf, byte(n))
		head = 1
	} else {
		s.buf = append(s.buf, longStringMarker, byte(n), byte(n>>8), byte(n>>16))
		head = 4
	}
	s.buf = append(s.buf, v...)
	for i := (head + n) % 4; i%4 != 0; i++ {
		s.buf = append(s.buf, 0)
	}
}

// Parser reads values from a byte slice. The first failure is kept and
// every later read returns a zero value, so callers check Err once per
// logical record.
type Parser struct {
	data []byte
	pos  int
	err  error
}

// NewParser returns a Parser over data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Err returns the first error recorded by the parser.
func (p *Parser) Err() error { return p.err }

// SetError records err unless an earlier error is already present.
func (p *Parser) SetError(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Remaining reports the number of unread bytes.
func (p *Parser) Remaining() int { return len(p.data) - p.pos }

// Rest consumes and returns all unread bytes.
func (p *Parser) Rest() []byte {
	if p.err != nil {
		return nil
	}
	rest := p.data[p.pos:]
	p.pos = len(p.data)
	return rest
}

func (p *Parser) take(n int) []byte {
	if p.err != nil {
		return nil
	}
	if n < 0 || p.Remaining() < n {
		p.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, p.pos, p.Remaining())
		return nil
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b
}

// Int32 reads a little-endian int32.
func (p *Parser) Int32() int32 {
	b := p.take(4)
	if b == nil {
		return 0
	}
	return int32(le.Uint32(b))
}

// Uint32 reads a little-endian uint32.
func (p *Parser) Uint32() uint32 {
	b := p.take(4)
	if b == nil {
		return 0
	}
	return le.Uint32(b)
}

// Int64 reads a little-endian int64.
func (p *Parser) Int64() int64 {
	b := p.take(8)
	if b == nil {
		return 0
	}
	return int64(le.Uint64(b))
}

// Float64 reads an IEEE-754 double.
func (p *Parser) Float64() float64 {
	b := p.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(le.Uint64(b))
}

// Flags reads the packed flag prefix.
func (p *Parser) Flags() Flags { return Flags(p.Uint32()) }

// String reads a padded, length-prefixed string.
func (p *Parser) String() string { return string(p.blob()) }

// Blob reads a padded, length-prefixed byte slice. The result is a copy.
func (p *Parser) Blob() []byte {
	b := p.blob()
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// Strings reads a vector of strings.
func (p *Parser) Strings() []string {
	n := p.Int32()
	if p.err != nil {
		return nil
	}
	// every element takes at least four bytes
	if n < 0 || int(n) > p.Remaining()/4 {
		p.SetError(fmt.Errorf("%w: vector of %d strings at offset %d", ErrTruncated, n, p.pos))
		return nil
	}
	out := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		out = append(out, p.String())
	}
	if p.err != nil {
		return nil
	}
	return out
}

func (p *Parser) blob() []byte {
	head := p.take(1)
	if head == nil {
		return nil
	}
	n := int(head[0])
	headLen := 1
	if n == longStringMarker {
		ext := p.take(3)
		if ext == nil {
			return nil
		}
		n = int(ext[0]) | int(ext[1])<<8 | int(ext[2])<<16
		headLen = 4
	} else if n > longStringMarker {
		p.SetError(fmt.Errorf("wire: invalid string length marker %#x at offset %d", n, p.pos-1))
		return nil
	}
	b := p.take(n)
	if b == nil {
		return nil
	}
	if pad := (headLen + n) % 4; pad != 0 {
		p.take(4 - pad)
	}
	return b
}
