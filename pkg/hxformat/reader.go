package hxformat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader walks a packet stream. It only reads packet headers; payloads
// are read or skipped explicitly by the caller so that scan passes can
// decide per packet whether the bytes are needed.
type Reader struct {
	in   io.ReadSeeker
	size int64
	pos  int64
	hdr  [endHeaderSize]byte
}

// NewReader creates a reader positioned at the start of the source.
func NewReader(in io.ReadSeeker) (*Reader, error) {
	size, err := in.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeek, err)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeek, err)
	}

	return &Reader{in: in, size: size}, nil
}

// ReadPacket reads the next packet header. It returns io.EOF if the
// stream ends cleanly on a packet boundary and ErrTruncated if it ends
// inside a header. An unrecognized tag is fatal, the format has no way
// to skip a packet of unknown layout.
func (r *Reader) ReadPacket() (Packet, error) {
	offset := r.pos

	tagBuf := r.hdr[:4]
	if _, err := io.ReadFull(r.in, tagBuf); err != nil {
		if err == io.EOF {
			return Packet{}, io.EOF
		}
		return Packet{}, fmt.Errorf(
			"%w: packet tag at offset %d", ErrTruncated, offset)
	}
	r.pos += 4

	pkt := Packet{
		Tag:    Tag(binary.LittleEndian.Uint32(tagBuf)),
		Offset: offset,
	}

	var headerSize int
	switch pkt.Tag {
	case TagVideoDescriptor, TagVideoDescriptorAlt:
		headerSize = descriptorHeaderSize
	case TagVideoFrame:
		headerSize = videoHeaderSize
	case TagAudioFrame:
		headerSize = audioHeaderSize
	case TagEndOfStream:
		headerSize = endHeaderSize
	default:
		return Packet{}, fmt.Errorf(
			"%w: 0x%08x at offset %d", ErrUnknownTag, uint32(pkt.Tag), offset)
	}

	header := r.hdr[:headerSize]
	if _, err := io.ReadFull(r.in, header); err != nil {
		return Packet{}, fmt.Errorf(
			"%w: %v header at offset %d", ErrTruncated, pkt.Tag, offset)
	}
	r.pos += int64(headerSize)

	switch pkt.Tag {
	case TagVideoDescriptor, TagVideoDescriptorAlt:
		pkt.Width = binary.LittleEndian.Uint32(header[0:4])
		pkt.Height = binary.LittleEndian.Uint32(header[4:8])

	case TagVideoFrame, TagAudioFrame:
		pkt.Length = binary.LittleEndian.Uint32(header[0:4])
		pkt.Timestamp = binary.LittleEndian.Uint32(header[4:8])

		if pkt.Length > MaxPayloadSize {
			return Packet{}, fmt.Errorf(
				"%w: %d bytes at offset %d", ErrPayloadTooLarge, pkt.Length, offset)
		}
		if pkt.Tag == TagAudioFrame && pkt.Length < AudioSubHeaderSize {
			return Packet{}, fmt.Errorf(
				"%w: %d bytes at offset %d", ErrBadAudioLength, pkt.Length, offset)
		}
	}

	return pkt, nil
}

// ReadPayload fills buf with payload bytes at the current position.
func (r *Reader) ReadPayload(buf []byte) error {
	if _, err := io.ReadFull(r.in, buf); err != nil {
		return fmt.Errorf(
			"%w: payload of %d bytes at offset %d", ErrTruncated, len(buf), r.pos)
	}
	r.pos += int64(len(buf))
	return nil
}

// SkipPayload seeks forward over n payload bytes without reading them.
// A payload that extends past the end of the source is truncation,
// seeking alone would not detect it until the next header read.
func (r *Reader) SkipPayload(n uint32) error {
	if r.pos+int64(n) > r.size {
		return fmt.Errorf(
			"%w: payload of %d bytes at offset %d", ErrTruncated, n, r.pos)
	}
	if _, err := r.in.Seek(int64(n), io.SeekCurrent); err != nil {
		return fmt.Errorf("%w: %v", ErrSeek, err)
	}
	r.pos += int64(n)
	return nil
}

// Rewind repositions the reader at the start of the source.
func (r *Reader) Rewind() error {
	if _, err := r.in.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrSeek, err)
	}
	r.pos = 0
	return nil
}
