// Package octets is the runtime the generated Go protocol code builds on:
// an ordered byte stream, the capability interfaces generated types
// implement, and process-wide dispatch tables keyed by type id.
package octets

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Stream is an ordered encoder/decoder. Values are read back in exactly
// the order they were written. The first failure sticks: later calls are
// no-ops and Err reports it.
type Stream struct {
	buf *bytes.Buffer
	enc *msgpack.Encoder
	dec *msgpack.Decoder
	err error
}

// NewWriter returns a stream that encodes into an internal buffer.
func NewWriter() *Stream {
	buf := &bytes.Buffer{}
	return &Stream{buf: buf, enc: msgpack.NewEncoder(buf)}
}

// NewReader returns a stream that decodes b.
func NewReader(b []byte) *Stream {
	buf := bytes.NewBuffer(b)
	return &Stream{buf: buf, dec: msgpack.NewDecoder(buf)}
}

// Bytes returns the encoded bytes written so far.
func (s *Stream) Bytes() []byte {
	return s.buf.Bytes()
}

// Remaining reports how many undecoded bytes are left.
func (s *Stream) Remaining() int {
	return s.buf.Len()
}

// Err returns the first error encountered.
func (s *Stream) Err() error {
	return s.err
}

// Fail records err unless an earlier error is already stored.
func (s *Stream) Fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

var errDirection = errors.New("octets: stream used in the wrong direction")

func (s *Stream) writable() bool {
	if s.err != nil {
		return false
	}
	if s.enc == nil {
		s.err = errDirection
		return false
	}
	return true
}

func (s *Stream) readable() bool {
	if s.err != nil {
		return false
	}
	if s.dec == nil {
		s.err = errDirection
		return false
	}
	return true
}

func (s *Stream) WriteBool(v bool) {
	if s.writable() {
		s.Fail(s.enc.EncodeBool(v))
	}
}

func (s *Stream) WriteInt8(v int8) {
	if s.writable() {
		s.Fail(s.enc.EncodeInt8(v))
	}
}

func (s *Stream) WriteInt16(v int16) {
	if s.writable() {
		s.Fail(s.enc.EncodeInt16(v))
	}
}

func (s *Stream) WriteInt32(v int32) {
	if s.writable() {
		s.Fail(s.enc.EncodeInt32(v))
	}
}

func (s *Stream) WriteInt64(v int64) {
	if s.writable() {
		s.Fail(s.enc.EncodeInt64(v))
	}
}

func (s *Stream) WriteUint8(v uint8) {
	if s.writable() {
		s.Fail(s.enc.EncodeUint8(v))
	}
}

func (s *Stream) WriteUint16(v uint16) {
	if s.writable() {
		s.Fail(s.enc.EncodeUint16(v))
	}
}

func (s *Stream) WriteUint32(v uint32) {
	if s.writable() {
		s.Fail(s.enc.EncodeUint32(v))
	}
}

func (s *Stream) WriteUint64(v uint64) {
	if s.writable() {
		s.Fail(s.enc.EncodeUint64(v))
	}
}

func (s *Stream) WriteFloat32(v float32) {
	if s.writable() {
		s.Fail(s.enc.EncodeFloat32(v))
	}
}

func (s *Stream) WriteFloat64(v float64) {
	if s.writable() {
		s.Fail(s.enc.EncodeFloat64(v))
	}
}

func (s *Stream) WriteString(v string) {
	if s.writable() {
		s.Fail(s.enc.EncodeString(v))
	}
}

// WriteLen writes the element count of a sequence.
func (s *Stream) WriteLen(n int) {
	if s.writable() {
		s.Fail(s.enc.EncodeArrayLen(n))
	}
}

// WriteMapLen writes the entry count of a mapping.
func (s *Stream) WriteMapLen(n int) {
	if s.writable() {
		s.Fail(s.enc.EncodeMapLen(n))
	}
}

func (s *Stream) ReadBool() bool {
	if !s.readable() {
		return false
	}
	v, err := s.dec.DecodeBool()
	s.Fail(err)
	return v
}

func (s *Stream) ReadInt8() int8 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeInt8()
	s.Fail(err)
	return v
}

func (s *Stream) ReadInt16() int16 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeInt16()
	s.Fail(err)
	return v
}

func (s *Stream) ReadInt32() int32 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeInt32()
	s.Fail(err)
	return v
}

func (s *Stream) ReadInt64() int64 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeInt64()
	s.Fail(err)
	return v
}

func (s *Stream) ReadUint8() uint8 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeUint8()
	s.Fail(err)
	return v
}

func (s *Stream) ReadUint16() uint16 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeUint16()
	s.Fail(err)
	return v
}

func (s *Stream) ReadUint32() uint32 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeUint32()
	s.Fail(err)
	return v
}

func (s *Stream) ReadUint64() uint64 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeUint64()
	s.Fail(err)
	return v
}

func (s *Stream) ReadFloat32() float32 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeFloat32()
	s.Fail(err)
	return v
}

func (s *Stream) ReadFloat64() float64 {
	if !s.readable() {
		return 0
	}
	v, err := s.dec.DecodeFloat64()
	s.Fail(err)
	return v
}

func (s *Stream) ReadString() string {
	if !s.readable() {
		return ""
	}
	v, err := s.dec.DecodeString()
	s.Fail(err)
	return v
}

// ReadLen reads a sequence element count. A nil sequence reads as 0.
func (s *Stream) ReadLen() int {
	if !s.readable() {
		return 0
	}
	n, err := s.dec.DecodeArrayLen()
	if err != nil {
		s.Fail(err)
		return 0
	}
	return max(n, 0)
}

// ReadMapLen reads a mapping entry count. A nil mapping reads as 0.
func (s *Stream) ReadMapLen() int {
	if !s.readable() {
		return 0
	}
	n, err := s.dec.DecodeMapLen()
	if err != nil {
		s.Fail(err)
		return 0
	}
	return max(n, 0)
}

// checkLen guards allocations against corrupt counts: every element needs
// at least one byte.
func (s *Stream) checkLen(n int) bool {
	if n > s.buf.Len() {
		s.Fail(fmt.Errorf("octets: length %d exceeds %d remaining bytes", n, s.buf.Len()))
		return false
	}
	return true
}
