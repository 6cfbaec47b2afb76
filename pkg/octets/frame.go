package octets

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType = errors.New("octets: unknown type id")
	ErrTooLarge    = errors.New("octets: message exceeds max size")
	ErrTrailing    = errors.New("octets: trailing bytes after message")
)

// Encode frames m as its type id followed by its body.
func Encode(m Message) ([]byte, error) {
	body := NewWriter()
	m.Pack(body)
	if err := body.Err(); err != nil {
		return nil, fmt.Errorf("pack %s: %w", m.Name(), err)
	}
	if uint64(len(body.Bytes())) > m.MaxSize() {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, m.Name(), len(body.Bytes()), m.MaxSize())
	}
	s := NewWriter()
	s.WriteUint32(uint32(m.TypeID()))
	if err := s.Err(); err != nil {
		return nil, err
	}
	return append(s.Bytes(), body.Bytes()...), nil
}

// Decode reads one framed message using the prototypes in t. b must hold
// exactly one frame.
func Decode(t *DispatchTable, b []byte) (Message, error) {
	s := NewReader(b)
	id := TypeID(s.ReadUint32())
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read type id: %w", err)
	}
	m, ok := t.New(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d in state %q", ErrUnknownType, id, t.Name())
	}
	if uint64(s.Remaining()) > m.MaxSize() {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, m.Name(), s.Remaining(), m.MaxSize())
	}
	m.Reset()
	m.Unpack(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", m.Name(), err)
	}
	if n := s.Remaining(); n != 0 {
		return nil, fmt.Errorf("%w: %d after %s", ErrTrailing, n, m.Name())
	}
	return m, nil
}
