package octets

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// TypeID is the numeric identifier of a message or remote-call.
type TypeID uint32

// DefaultTimeout is the remote-call timeout in seconds.
const DefaultTimeout = 30

// ErrUnhandled is returned by dispatch hooks nobody registered a handler for.
var ErrUnhandled = errors.New("octets: unhandled")

// Marshaler is implemented by every generated type.
type Marshaler interface {
	Pack(s *Stream)
	Unpack(s *Stream)
	Reset()
}

// Dumper renders a human-readable form.
type Dumper interface {
	Dump(w io.Writer)
}

// PlainData is a generated type that is only ever used as a field or as
// remote-call payload.
type PlainData interface {
	Marshaler
	Dumper
}

// Message is a generated type with a type id that can travel on its own.
type Message interface {
	Marshaler
	TypeID() TypeID
	Name() string
	MaxSize() uint64
	Dup() Message
	Run() error
}

var traceSeq atomic.Uint64

// NextTraceID returns a process-unique, non-zero id for a remote-call
// envelope.
func NextTraceID() uint64 {
	return traceSeq.Add(1)
}

// DumpValue writes v the way generated Dump methods render field values.
func DumpValue(w io.Writer, v any) {
	switch x := v.(type) {
	case Dumper:
		x.Dump(w)
	case string:
		fmt.Fprintf(w, "%q", x)
	default:
		fmt.Fprintf(w, "%v", x)
	}
}
