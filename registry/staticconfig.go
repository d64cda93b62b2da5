package registry

import (
	"encoding/binary"

	"code.hybscloud.com/iceoryx2/errs"
)

// Pattern identifies a service's messaging pattern.
type Pattern uint8

const (
	PatternPublishSubscribe Pattern = iota
	PatternEvent
)

// StaticConfig is the tagged, forward-compatible record published once
// per service at creation time (spec.md §6 "Static configuration wire
// format"). Encode emits a tag-length-value stream field by field so a
// future reader that does not recognize a tag can skip it rather than
// fail, without this module needing a general-purpose schema library —
// see DESIGN.md for why encoding/binary was kept over adopting one.
type StaticConfig struct {
	ServiceName        string
	Pattern            Pattern
	TypeFingerprint    uint64
	MaxPublishers      uint32
	MaxSubscribers     uint32
	MaxNotifiers       uint32
	MaxListeners       uint32
	MaxNodes           uint32
	SubscriberBufferSz uint32
	HistorySize        uint32
	EventIDMax         uint64
}

const (
	tagServiceName = iota + 1
	tagPattern
	tagTypeFingerprint
	tagMaxPublishers
	tagMaxSubscribers
	tagMaxNotifiers
	tagMaxListeners
	tagMaxNodes
	tagSubscriberBufferSz
	tagHistorySize
	tagEventIDMax
	tagEnd
)

func putTLV(buf []byte, tag uint8, value []byte) []byte {
	buf = append(buf, tag)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(value)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, value...)
}

func putUint32(buf []byte, tag uint8, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return putTLV(buf, tag, b[:])
}

func putUint64(buf []byte, tag uint8, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return putTLV(buf, tag, b[:])
}

// Encode serializes the config into its wire form. Field order is
// fixed, so equal values always encode to identical bytes. No hash of
// this encoding is computed; IsCompatibleWith compares decoded fields.
func (c StaticConfig) Encode() []byte {
	var buf []byte
	buf = putTLV(buf, tagServiceName, []byte(c.ServiceName))
	buf = putUint32(buf, tagPattern, uint32(c.Pattern))
	buf = putUint64(buf, tagTypeFingerprint, c.TypeFingerprint)
	buf = putUint32(buf, tagMaxPublishers, c.MaxPublishers)
	buf = putUint32(buf, tagMaxSubscribers, c.MaxSubscribers)
	buf = putUint32(buf, tagMaxNotifiers, c.MaxNotifiers)
	buf = putUint32(buf, tagMaxListeners, c.MaxListeners)
	buf = putUint32(buf, tagMaxNodes, c.MaxNodes)
	buf = putUint32(buf, tagSubscriberBufferSz, c.SubscriberBufferSz)
	buf = putUint32(buf, tagHistorySize, c.HistorySize)
	buf = putUint64(buf, tagEventIDMax, c.EventIDMax)
	buf = append(buf, tagEnd, 0, 0, 0, 0)
	return buf
}

// DecodeStaticConfig parses buf, skipping any tag it does not
// recognize so that a record written by a newer version with
// additional fields remains readable.
func DecodeStaticConfig(buf []byte) (StaticConfig, error) {
	var c StaticConfig
	i := 0
	for i < len(buf) {
		if i+5 > len(buf) {
			return c, errs.ErrCorrupted
		}
		tag := buf[i]
		length := binary.LittleEndian.Uint32(buf[i+1 : i+5])
		i += 5
		if tag == tagEnd {
			return c, nil
		}
		if i+int(length) > len(buf) {
			return c, errs.ErrCorrupted
		}
		value := buf[i : i+int(length)]
		i += int(length)

		switch tag {
		case tagServiceName:
			c.ServiceName = string(value)
		case tagPattern:
			c.Pattern = Pattern(binary.LittleEndian.Uint32(value))
		case tagTypeFingerprint:
			c.TypeFingerprint = binary.LittleEndian.Uint64(value)
		case tagMaxPublishers:
			c.MaxPublishers = binary.LittleEndian.Uint32(value)
		case tagMaxSubscribers:
			c.MaxSubscribers = binary.LittleEndian.Uint32(value)
		case tagMaxNotifiers:
			c.MaxNotifiers = binary.LittleEndian.Uint32(value)
		case tagMaxListeners:
			c.MaxListeners = binary.LittleEndian.Uint32(value)
		case tagMaxNodes:
			c.MaxNodes = binary.LittleEndian.Uint32(value)
		case tagSubscriberBufferSz:
			c.SubscriberBufferSz = binary.LittleEndian.Uint32(value)
		case tagHistorySize:
			c.HistorySize = binary.LittleEndian.Uint32(value)
		case tagEventIDMax:
			c.EventIDMax = binary.LittleEndian.Uint64(value)
		}
		// unrecognized tags are simply skipped: forward compatibility.
	}
	return c, nil
}

// IsCompatibleWith reports whether a requester's requirements (want)
// fit within the already-existing configuration c, per spec.md §4.I
// Open's compatibility checks.
func (c StaticConfig) IsCompatibleWith(want StaticConfig) error {
	if c.Pattern != want.Pattern {
		return errs.ErrIncompatiblePattern
	}
	if c.TypeFingerprint != want.TypeFingerprint {
		return errs.ErrIncompatibleTypes
	}
	if want.MaxPublishers > c.MaxPublishers ||
		want.MaxSubscribers > c.MaxSubscribers ||
		want.MaxNotifiers > c.MaxNotifiers ||
		want.MaxListeners > c.MaxListeners ||
		want.MaxNodes > c.MaxNodes ||
		want.SubscriberBufferSz > c.SubscriberBufferSz {
		return errs.ErrInsufficientCapacities
	}
	return nil
}
