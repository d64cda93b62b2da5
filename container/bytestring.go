package container

import "code.hybscloud.com/iceoryx2/errs"

// ByteString is a fixed-capacity byte string: a byte slice allocated at
// construction and never grown, plus a length. The value holds a Go
// slice, so it is a process-local value, not a layout placed inside a
// shared-memory segment. Grounded on the original implementation's
// StaticString, which stores capacity+1 bytes inline and rejects writes
// that would truncate.
type ByteString struct {
	buf []byte
	len int
}

// NewByteString allocates a ByteString with the given fixed capacity.
func NewByteString(capacity int) *ByteString {
	return &ByteString{buf: make([]byte, capacity)}
}

// Cap returns the fixed capacity in bytes.
func (s *ByteString) Cap() int {
	return len(s.buf)
}

// Len returns the current length in bytes.
func (s *ByteString) Len() int {
	return s.len
}

// Set overwrites the contents. Returns errs.ErrOutOfCapacity if value
// does not fit, leaving the string unchanged.
func (s *ByteString) Set(value []byte) error {
	if len(value) > len(s.buf) {
		return errs.ErrOutOfCapacity
	}
	copy(s.buf, value)
	s.len = len(value)
	return nil
}

// Append adds value to the end. Returns errs.ErrOutOfCapacity if it
// would overflow capacity, leaving the string unchanged.
func (s *ByteString) Append(value []byte) error {
	if s.len+len(value) > len(s.buf) {
		return errs.ErrOutOfCapacity
	}
	copy(s.buf[s.len:], value)
	s.len += len(value)
	return nil
}

// Bytes returns the current contents. The slice aliases internal
// storage and must not be retained across a later Set/Append.
func (s *ByteString) Bytes() []byte {
	return s.buf[:s.len]
}

// String returns a copy of the contents as a Go string.
func (s *ByteString) String() string {
	return string(s.buf[:s.len])
}

// Clear resets the length to zero without touching capacity.
func (s *ByteString) Clear() {
	s.len = 0
}
