package hxformat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer produces a packet stream in the camera format.
type Writer struct {
	out io.Writer
	hdr [4 + endHeaderSize]byte
}

// NewWriter creates a new Writer.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteVideoDescriptor writes a video stream descriptor packet.
func (w *Writer) WriteVideoDescriptor(width, height uint32) error {
	header := w.header(TagVideoDescriptor, descriptorHeaderSize)
	binary.LittleEndian.PutUint32(header[4:8], width)
	binary.LittleEndian.PutUint32(header[8:12], height)

	if _, err := w.out.Write(header); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

// WriteVideoFrame writes a video frame packet carrying an Annex-B
// payload.
func (w *Writer) WriteVideoFrame(timestamp uint32, payload []byte) error {
	header := w.header(TagVideoFrame, videoHeaderSize)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[8:12], timestamp)

	if _, err := w.out.Write(header); err != nil {
		return fmt.Errorf("write video header: %w", err)
	}
	if _, err := w.out.Write(payload); err != nil {
		return fmt.Errorf("write video payload: %w", err)
	}
	return nil
}

// WriteAudioFrame writes an audio frame packet carrying raw A-law
// samples. The declared length covers the sub-header as well.
func (w *Writer) WriteAudioFrame(timestamp uint32, samples []byte) error {
	header := w.header(TagAudioFrame, audioHeaderSize)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(samples))+AudioSubHeaderSize)
	binary.LittleEndian.PutUint32(header[8:12], timestamp)

	if _, err := w.out.Write(header); err != nil {
		return fmt.Errorf("write audio header: %w", err)
	}
	if _, err := w.out.Write(samples); err != nil {
		return fmt.Errorf("write audio samples: %w", err)
	}
	return nil
}

// WriteEndOfStream writes the end sentinel.
func (w *Writer) WriteEndOfStream() error {
	header := w.header(TagEndOfStream, endHeaderSize)
	if _, err := w.out.Write(header); err != nil {
		return fmt.Errorf("write end of stream: %w", err)
	}
	return nil
}

func (w *Writer) header(tag Tag, size int) []byte {
	header := w.hdr[:4+size]
	for i := range header {
		header[i] = 0
	}
	binary.LittleEndian.PutUint32(header[0:4], uint32(tag))
	return header
}
