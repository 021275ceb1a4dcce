package convert

import (
	"errors"
	"fmt"
	"io"

	"hxconv/pkg/h264"
	"hxconv/pkg/hxformat"
	"hxconv/pkg/muxer"
)

// extractor re-scans the stream and emits timestamped elementary
// packets to the muxer in source order.
type extractor struct {
	r   *hxformat.Reader
	mux muxer.Muxer

	videoTrack muxer.TrackID
	audioTrack muxer.TrackID
	hasAudio   bool

	videoTSInitial int64
	audioTSInitial int64
	timeScale      int64

	// Accumulates parameter-set NALUs until the access unit they
	// belong to arrives.
	pending hxformat.Buffer

	audioBuf []byte
}

func (e *extractor) run() error {
loop:
	for {
		pkt, err := e.r.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch pkt.Tag {
		case hxformat.TagVideoDescriptor, hxformat.TagVideoDescriptorAlt:
			// Already consumed by the probe pass.

		case hxformat.TagVideoFrame:
			if err := e.videoFrame(pkt); err != nil {
				return err
			}

		case hxformat.TagAudioFrame:
			if err := e.audioFrame(pkt); err != nil {
				return err
			}

		case hxformat.TagEndOfStream:
			break loop
		}
	}
	return nil
}

// videoFrame reads a video payload and either withholds it, parameter
// sets carry no meaningful timestamp of their own, or emits it together
// with everything withheld so far. Every packet handed to the muxer
// starts with a complete access unit including its parameter sets.
func (e *extractor) videoFrame(pkt hxformat.Packet) error {
	payload := e.pending.Extend(int(pkt.Length))
	if err := e.r.ReadPayload(payload); err != nil {
		return err
	}

	typ, ok := h264.NALUTypeOf(payload)
	if ok && typ.IsParameterSet() {
		return nil
	}

	ts := rescale(int64(pkt.Timestamp)-e.videoTSInitial, e.timeScale)
	err := e.mux.WritePacket(e.videoTrack, e.pending.Bytes(), ts)
	e.pending.Reset()
	if err != nil {
		return fmt.Errorf("write video packet: %w", err)
	}
	return nil
}

func (e *extractor) audioFrame(pkt hxformat.Packet) error {
	n := pkt.SampleLength()
	if !e.hasAudio {
		return e.r.SkipPayload(n)
	}
	if n == 0 {
		return nil
	}

	if uint32(cap(e.audioBuf)) < n {
		e.audioBuf = make([]byte, n)
	}
	samples := e.audioBuf[:n]
	if err := e.r.ReadPayload(samples); err != nil {
		return err
	}

	ts := rescale(int64(pkt.Timestamp)-e.audioTSInitial, e.timeScale)
	if err := e.mux.WritePacket(e.audioTrack, samples, ts); err != nil {
		return fmt.Errorf("write audio packet: %w", err)
	}
	return nil
}

// rescale converts a relative millisecond timestamp into muxer ticks,
// rounding to the nearest tick.
func rescale(ms, timeScale int64) int64 {
	if ms >= 0 {
		return (ms*timeScale + 500) / 1000
	}
	return (ms*timeScale - 500) / 1000
}
