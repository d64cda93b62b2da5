package container

import (
	"fmt"
	"strings"

	"code.hybscloud.com/iceoryx2/errs"
)

// Predicate validates the bytes of a SemanticString, reporting whether
// the content is acceptable for that semantic domain (file name, path
// entry, node name, ...).
type Predicate func(value []byte) bool

// FileNamePredicate rejects empty names, ".", "..", path separators, and
// the platform's reserved bytes — grounded on the original
// implementation's FileName::does_contain_invalid_characters.
func FileNamePredicate(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	s := string(value)
	if s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\x00")
}

// URLSafePredicate accepts only ASCII letters, digits, '-', '_', '.',
// matching the original implementation's restriction for service and
// node names that are also used as path components.
func URLSafePredicate(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	for _, b := range value {
		switch {
		case b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
		case b >= '0' && b <= '9':
		case b == '-' || b == '_' || b == '.':
		default:
			return false
		}
	}
	return true
}

// SemanticString wraps a ByteString with a Predicate that every write
// must satisfy, giving service names, node names and file names a
// single validated type instead of re-checking ad hoc at every call
// site. Grounded on the original implementation's SemanticString trait.
type SemanticString struct {
	inner     *ByteString
	predicate Predicate
	domain    string
}

// NewSemanticString creates an empty SemanticString with the given
// capacity and predicate, identified by domain for error messages
// (e.g. "service name", "node name").
func NewSemanticString(capacity int, domain string, predicate Predicate) *SemanticString {
	return &SemanticString{inner: NewByteString(capacity), predicate: predicate, domain: domain}
}

// Set validates value against the predicate before storing it.
// Returns errs.ErrContractViolation if value fails the predicate, or
// errs.ErrOutOfCapacity if it does not fit.
func (s *SemanticString) Set(value []byte) error {
	if !s.predicate(value) {
		return fmt.Errorf("iceoryx2: %s %q: %w", s.domain, value, errs.ErrContractViolation)
	}
	return s.inner.Set(value)
}

// Bytes returns the current contents.
func (s *SemanticString) Bytes() []byte {
	return s.inner.Bytes()
}

// String returns a copy of the contents as a Go string.
func (s *SemanticString) String() string {
	return s.inner.String()
}

// Cap returns the fixed capacity in bytes.
func (s *SemanticString) Cap() int {
	return s.inner.Cap()
}
