// Package convert turns a proprietary camera packet stream into
// timestamped elementary packets for a container muxer.
//
// Conversion runs in two strictly sequential passes over the same
// source. The probe pass infers the stream parameters the muxer needs
// up front, the extraction pass then re-reads the stream and emits
// packets. Payload bytes are copied verbatim, nothing is transcoded.
package convert

import (
	"fmt"
	"log/slog"
	"math"

	"hxconv/pkg/hxformat"
	"hxconv/pkg/muxer"
)

// Options controls a conversion run.
type Options struct {
	// SkipAudio drops audio packets even when the stream carries them.
	SkipAudio bool

	// Log receives informational progress. Defaults to slog.Default().
	Log *slog.Logger
}

// Convert probes the source, creates the output tracks and extracts
// all packets into the muxer. The returned StreamInfo reflects what
// the probe pass found.
func Convert(in *hxformat.Reader, mux muxer.Muxer, opts Options) (*StreamInfo, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	info, err := Probe(in, log)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	if err := in.Rewind(); err != nil {
		return nil, err
	}

	videoTrack, err := mux.AddVideoTrack(info.Width, info.Height, info.FrameRate)
	if err != nil {
		return nil, fmt.Errorf("add video track: %w", err)
	}
	log.Info("detected video stream",
		"width", info.Width,
		"height", info.Height,
		"frameRate", int(math.Round(info.FrameRate)))

	e := &extractor{
		r:              in,
		mux:            mux,
		videoTrack:     videoTrack,
		videoTSInitial: info.VideoTSInitial,
		audioTSInitial: info.AudioTSInitial,
		timeScale:      mux.TimeScale(),
	}

	switch {
	case opts.SkipAudio:
		log.Info("audio processing is disabled")

	case info.SampleRate <= 0:
		log.Warn("no audio detected")

	default:
		sampleRate := int(math.Round(info.SampleRate))
		e.audioTrack, err = mux.AddAudioTrack(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("add audio track: %w", err)
		}
		e.hasAudio = true
		log.Info("detected audio stream", "sampleRate", sampleRate)
	}

	if err := e.run(); err != nil {
		return nil, err
	}

	if err := mux.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	return info, nil
}
