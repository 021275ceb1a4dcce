package muxer

import (
	"fmt"
	"os"

	"github.com/yapingcat/gomedia/go-mp4"
)

// mp4Muxer writes regular or fragmented mp4 files. Video goes in as
// H264 in Annex-B form, audio as raw A-law samples, the library takes
// care of parameter-set extraction and sample table bookkeeping.
type mp4Muxer struct {
	file *os.File
	mov  *mp4.Movmuxer
}

func newMP4Muxer(file *os.File, fragmented bool) (*mp4Muxer, error) {
	var mov *mp4.Movmuxer
	var err error
	if fragmented {
		mov, err = mp4.CreateMp4Muxer(file, mp4.WithMp4Flag(mp4.MP4_FLAG_FRAGMENT))
	} else {
		mov, err = mp4.CreateMp4Muxer(file)
	}
	if err != nil {
		return nil, fmt.Errorf("create mp4 muxer: %w", err)
	}

	return &mp4Muxer{file: file, mov: mov}, nil
}

// TimeScale implements Muxer. The source timestamps are milliseconds
// and so are the track timescales, the rescaling is an identity.
func (m *mp4Muxer) TimeScale() int64 {
	return 1000
}

// AddVideoTrack implements Muxer. The frame rate is not stored in the
// container, frame durations follow from packet timestamps.
func (m *mp4Muxer) AddVideoTrack(width, height int, frameRate float64) (TrackID, error) {
	id := m.mov.AddVideoTrack(
		mp4.MP4_CODEC_H264,
		mp4.WithVideoWidth(uint32(width)),
		mp4.WithVideoHeight(uint32(height)),
	)
	return TrackID(id), nil
}

// AddAudioTrack implements Muxer.
func (m *mp4Muxer) AddAudioTrack(sampleRate int) (TrackID, error) {
	id := m.mov.AddAudioTrack(
		mp4.MP4_CODEC_G711A,
		mp4.WithAudioChannelCount(1),
		mp4.WithAudioSampleBits(8),
		mp4.WithAudioSampleRate(uint32(sampleRate)),
	)
	return TrackID(id), nil
}

// WritePacket implements Muxer. The camera stream carries no B-frames,
// so presentation and decode timestamps coincide.
func (m *mp4Muxer) WritePacket(track TrackID, data []byte, timestamp int64) error {
	return m.mov.Write(uint32(track), data, uint64(timestamp), uint64(timestamp))
}

// Finalize implements Muxer.
func (m *mp4Muxer) Finalize() error {
	if err := m.mov.WriteTrailer(); err != nil {
		m.file.Close()
		return fmt.Errorf("write trailer: %w", err)
	}
	return m.file.Close()
}
