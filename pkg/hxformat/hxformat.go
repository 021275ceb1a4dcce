package hxformat

import "errors"

// Tag is a 4-byte packet tag as it appears on the wire.
type Tag uint32

// Known packet tags, little-endian.
const (
	TagVideoDescriptor    Tag = 0x53565848 // "HXVS"
	TagVideoDescriptorAlt Tag = 0x54565848 // "HXVT"
	TagVideoFrame         Tag = 0x46565848 // "HXVF"
	TagAudioFrame         Tag = 0x46415848 // "HXAF"
	TagEndOfStream        Tag = 0x49465848 // "HXFI"
)

// String returns the tag as its four ASCII characters.
func (t Tag) String() string {
	return string([]byte{
		byte(t),
		byte(t >> 8),
		byte(t >> 16),
		byte(t >> 24),
	})
}

// Header sizes following the 4-byte tag.
const (
	descriptorHeaderSize = 12
	videoHeaderSize      = 12
	audioHeaderSize      = 16
	endHeaderSize        = 16
)

// AudioSubHeaderSize is the part of a declared audio payload length
// that belongs to the sub-header rather than to sample data.
const AudioSubHeaderSize = 4

// MaxPayloadSize is the sanity cap on declared payload lengths. A
// length above it indicates a corrupt stream, not a real payload.
const MaxPayloadSize = 8 * 1024 * 1024

// Errors.
var (
	ErrTruncated       = errors.New("unexpected end of stream")
	ErrUnknownTag      = errors.New("unknown packet tag")
	ErrPayloadTooLarge = errors.New("declared payload length exceeds limit")
	ErrBadAudioLength  = errors.New("audio payload length smaller than sub-header")
	ErrSeek            = errors.New("seek failed")
)

// Packet is the header of a single packet, positioned at the start of
// its payload if it has one.
type Packet struct {
	Tag    Tag
	Offset int64 // file offset of the tag, for diagnostics

	// Descriptor packets.
	Width  uint32
	Height uint32

	// Video and audio frame packets.
	Length    uint32 // declared payload length in bytes
	Timestamp uint32 // milliseconds, camera-local clock
}

// SampleLength returns the number of audio sample bytes that follow an
// audio frame header.
func (p Packet) SampleLength() uint32 {
	return p.Length - AudioSubHeaderSize
}
