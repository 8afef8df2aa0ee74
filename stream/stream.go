// Package stream provides the ordered object stream that migration payloads
// are written to and read from. Values carry no type tags; a stream must be
// read back with exactly the sequence of types it was written with.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrEndOfStream is returned when a read needs more bytes than remain
var ErrEndOfStream = errors.New("end of object stream")

// Number is the set of fixed size values the stream serializes
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ObjectStream is an append-only byte buffer with independent write and
// read cursors. It is not safe for concurrent use.
type ObjectStream struct {
	buf  []byte
	rpos int
}

func New() *ObjectStream {
	return &ObjectStream{}
}

// FromBytes wraps a received buffer for reading; the stream takes ownership of b
func FromBytes(b []byte) *ObjectStream {
	return &ObjectStream{buf: b}
}

// Write appends v to the stream
func Write[T Number](s *ObjectStream, v T) {
	var err error
	s.buf, err = binary.Append(s.buf, binary.LittleEndian, v)
	if err != nil {
		// only reachable for types outside Number
		panic(fmt.Sprintf("stream: write %T: %v", v, err))
	}
}

// Read consumes the next value. On ErrEndOfStream the read cursor is unchanged.
func Read[T Number](s *ObjectStream) (v T, err error) {
	size := binary.Size(v)
	if len(s.buf)-s.rpos < size {
		return v, fmt.Errorf("read %T at offset %d of %d: %w", v, s.rpos, len(s.buf), ErrEndOfStream)
	}
	if _, err = binary.Decode(s.buf[s.rpos:s.rpos+size], binary.LittleEndian, &v); err != nil {
		return v, err
	}
	s.rpos += size
	return v, nil
}

// WriteSlice writes a length prefix followed by the values
func WriteSlice[T Number](s *ObjectStream, vals []T) {
	Write(s, uint32(len(vals)))
	for _, v := range vals {
		Write(s, v)
	}
}

// ReadSlice reads a slice written by WriteSlice
func ReadSlice[T Number](s *ObjectStream) ([]T, error) {
	n, err := Read[uint32](s)
	if err != nil {
		return nil, err
	}
	vals := make([]T, n)
	for i := range vals {
		if vals[i], err = Read[T](s); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// WriteString writes a length-prefixed string
func WriteString(s *ObjectStream, str string) {
	Write(s, uint32(len(str)))
	s.buf = append(s.buf, str...)
}

func ReadString(s *ObjectStream) (string, error) {
	n, err := Read[uint32](s)
	if err != nil {
		return "", err
	}
	if len(s.buf)-s.rpos < int(n) {
		return "", fmt.Errorf("read string of %d bytes at offset %d: %w", n, s.rpos, ErrEndOfStream)
	}
	str := string(s.buf[s.rpos : s.rpos+int(n)])
	s.rpos += int(n)
	return str, nil
}

// Bytes returns the written bytes. The slice aliases the stream's buffer.
func (s *ObjectStream) Bytes() []byte { return s.buf }

// Len is the number of bytes written
func (s *ObjectStream) Len() int { return len(s.buf) }

// Remaining is the number of bytes not yet read
func (s *ObjectStream) Remaining() int { return len(s.buf) - s.rpos }

// Exhausted reports whether every written byte has been read
func (s *ObjectStream) Exhausted() bool { return s.rpos >= len(s.buf) }

// ResetRead rewinds the read cursor
func (s *ObjectStream) ResetRead() { s.rpos = 0 }

// Reset clears the stream, keeping its capacity
func (s *ObjectStream) Reset() {
	s.buf = s.buf[:0]
	s.rpos = 0
}
