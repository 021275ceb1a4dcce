package convert

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"hxconv/pkg/h264"
	"hxconv/pkg/hxformat"
)

// Probe errors.
var (
	ErrNoVideo      = errors.New("no video detected")
	ErrNoDimensions = errors.New("no video dimensions found")
)

// StreamInfo holds the stream parameters inferred by the probe pass.
// It is the only state carried over into the extraction pass.
type StreamInfo struct {
	Width  int
	Height int

	FrameRate  float64 // frames per second
	SampleRate float64 // Hz, zero when no audio was detected

	VideoPackets int
	AudioPackets int

	// Raw timestamp of the first packet of each type, the zero point
	// for rebasing. -1 when no packet of that type was seen.
	VideoTSInitial int64
	AudioTSInitial int64
}

// rateEstimate is a running average of an instantaneous rate, one per
// stream type. A packet contributes only when its relative timestamp
// exceeds the previous one, the camera clock is known to stall and
// repeat.
type rateEstimate struct {
	initial int64 // raw timestamp of the first packet, -1 until seen
	prev    int64 // relative timestamp of the previous packet
	avg     float64
	n       int64 // number of contributing intervals
}

// observe folds one packet into the estimate. numerator is the
// quantity delivered per elapsed millisecond times 1000, so the
// average comes out in units per second.
func (e *rateEstimate) observe(raw uint32, numerator float64) {
	if e.initial == -1 {
		e.initial = int64(raw)
		e.prev = 0
		return
	}

	rel := int64(raw) - e.initial
	if rel > e.prev {
		elapsed := rel - e.prev
		inst := numerator / float64(elapsed)
		e.avg = (e.avg*float64(e.n) + inst) / float64(e.n+1)
		e.n++
	}
	e.prev = rel
}

// Probe scans the entire stream once without retaining payload bytes
// and infers frame rate, sample rate and frame dimensions. The reader
// is left wherever the scan stopped, the caller rewinds it.
func Probe(r *hxformat.Reader, log *slog.Logger) (*StreamInfo, error) {
	info := &StreamInfo{}
	video := rateEstimate{initial: -1}
	audio := rateEstimate{initial: -1}

	var sps []byte
	haveDimensions := false

loop:
	for {
		pkt, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch pkt.Tag {
		case hxformat.TagVideoDescriptor, hxformat.TagVideoDescriptorAlt:
			info.Width = int(pkt.Width)
			info.Height = int(pkt.Height)
			haveDimensions = true
			log.Info("reported video dimensions",
				"width", pkt.Width, "height", pkt.Height)

		case hxformat.TagVideoFrame:
			video.observe(pkt.Timestamp, 1000)
			info.VideoPackets++

			if haveDimensions || sps != nil {
				if err := r.SkipPayload(pkt.Length); err != nil {
					return nil, err
				}
				break
			}
			// No descriptor packet yet. Peek at the NALU type so
			// dimensions can be recovered from the SPS if the file
			// never declares them.
			sps, err = captureSPS(r, pkt.Length)
			if err != nil {
				return nil, err
			}

		case hxformat.TagAudioFrame:
			audio.observe(pkt.Timestamp, float64(pkt.SampleLength())*1000)
			info.AudioPackets++

			if err := r.SkipPayload(pkt.SampleLength()); err != nil {
				return nil, err
			}

		case hxformat.TagEndOfStream:
			break loop
		}
	}

	info.FrameRate = video.avg
	info.SampleRate = audio.avg
	info.VideoTSInitial = video.initial
	info.AudioTSInitial = audio.initial

	if info.FrameRate <= 0 {
		return nil, ErrNoVideo
	}

	if !haveDimensions {
		if sps == nil {
			return nil, ErrNoDimensions
		}
		var parsed h264.SPS
		if err := parsed.Unmarshal(sps); err != nil {
			return nil, fmt.Errorf("%w: unmarshal sps: %v", ErrNoDimensions, err)
		}
		info.Width = parsed.Width()
		info.Height = parsed.Height()
		log.Info("video dimensions recovered from sps",
			"width", info.Width, "height", info.Height)
	}

	return info, nil
}

// captureSPS returns the first NALU of a video payload without its
// start code if it is a SPS, and skips the payload otherwise.
func captureSPS(r *hxformat.Reader, length uint32) ([]byte, error) {
	const headLen = h264.StartCodeSize + 1
	if length < headLen {
		return nil, r.SkipPayload(length)
	}

	var head [headLen]byte
	if err := r.ReadPayload(head[:]); err != nil {
		return nil, err
	}

	typ, _ := h264.NALUTypeOf(head[:])
	if typ != h264.NALUTypeSPS {
		return nil, r.SkipPayload(length - headLen)
	}

	rest := make([]byte, length-headLen)
	if err := r.ReadPayload(rest); err != nil {
		return nil, err
	}
	return append([]byte{head[h264.StartCodeSize]}, rest...), nil
}
