package convert

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"hxconv/pkg/hxformat"
)

func TestProbeRateConvergence(t *testing.T) {
	// Constant 83ms interval must converge to exactly 1000/83 fps
	// regardless of packet count.
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(1920, 1080))
		for i := uint32(0); i < 10; i++ {
			require.NoError(t, w.WriteVideoFrame(i*83, idrPayload))
		}
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)

	require.InEpsilon(t, 1000.0/83, info.FrameRate, 1e-9)
	require.Equal(t, 1920, info.Width)
	require.Equal(t, 1080, info.Height)
	require.Equal(t, 10, info.VideoPackets)
	require.Equal(t, int64(0), info.VideoTSInitial)
	require.Equal(t, int64(-1), info.AudioTSInitial)
	require.Zero(t, info.SampleRate)
}

func TestProbeTwoPackets(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)
	require.InEpsilon(t, 25.0, info.FrameRate, 1e-9)
}

func TestProbeArbitraryEpoch(t *testing.T) {
	// The camera clock has an arbitrary epoch, only relative
	// timestamps matter.
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(5000000, idrPayload))
		require.NoError(t, w.WriteVideoFrame(5000040, nonIDRPayload))
		require.NoError(t, w.WriteVideoFrame(5000080, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)
	require.InEpsilon(t, 25.0, info.FrameRate, 1e-9)
	require.Equal(t, int64(5000000), info.VideoTSInitial)
}

func TestProbeNonIncreasingTimestampExclusion(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteVideoFrame(83, nonIDRPayload))
		// Stalled and backwards timestamps must not contribute, but
		// must not halt the scan either.
		require.NoError(t, w.WriteVideoFrame(83, nonIDRPayload))
		require.NoError(t, w.WriteVideoFrame(60, nonIDRPayload))
		require.NoError(t, w.WriteVideoFrame(166, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)

	// Two contributing intervals: 0->83 and 60->166.
	expected := (1000.0/83 + 1000.0/106) / 2
	require.InEpsilon(t, expected, info.FrameRate, 1e-9)
	require.Equal(t, 5, info.VideoPackets)
}

func TestProbeDeterminism(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(1280, 720))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteAudioFrame(5, bytes.Repeat([]byte{0x55}, 160)))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
		require.NoError(t, w.WriteAudioFrame(25, bytes.Repeat([]byte{0x55}, 160)))
		require.NoError(t, w.WriteVideoFrame(80, nonIDRPayload))
		require.NoError(t, w.WriteAudioFrame(45, bytes.Repeat([]byte{0x55}, 160)))
		require.NoError(t, w.WriteEndOfStream())
	})

	r := newTestReader(t, stream)

	first, err := Probe(r, discardLogger())
	require.NoError(t, err)

	require.NoError(t, r.Rewind())

	second, err := Probe(r, discardLogger())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestProbeAudioSampleRate(t *testing.T) {
	samples := bytes.Repeat([]byte{0x55}, 320)

	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteAudioFrame(0, samples))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
		require.NoError(t, w.WriteAudioFrame(40, samples))
		require.NoError(t, w.WriteAudioFrame(80, samples))
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)

	// 320 samples every 40ms is 8kHz.
	require.InEpsilon(t, 8000.0, info.SampleRate, 1e-9)
	require.Equal(t, 3, info.AudioPackets)
	require.Equal(t, int64(0), info.AudioTSInitial)
}

func TestProbeNoVideo(t *testing.T) {
	// Audio only.
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteAudioFrame(0, bytes.Repeat([]byte{0x55}, 320)))
		require.NoError(t, w.WriteAudioFrame(40, bytes.Repeat([]byte{0x55}, 320)))
		require.NoError(t, w.WriteEndOfStream())
	})

	_, err := Probe(newTestReader(t, stream), discardLogger())
	require.ErrorIs(t, err, ErrNoVideo)

	// A single video frame yields no interval and thus no rate.
	stream = buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	_, err = Probe(newTestReader(t, stream), discardLogger())
	require.ErrorIs(t, err, ErrNoVideo)
}

func TestProbeDimensionsFromSPS(t *testing.T) {
	// No descriptor packet. Dimensions come from the SPS instead.
	spsHighProfile := annexB(0x67,
		0x64, 0x00, 0x28, 0xac, 0xd9, 0x40, 0x78, 0x02,
		0x27, 0xe5, 0x84, 0x00, 0x00, 0x03, 0x00, 0x04,
		0x00, 0x00, 0x03, 0x00, 0xf0, 0x3c, 0x60, 0xc6,
		0x58,
	)

	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoFrame(0, spsHighProfile))
		require.NoError(t, w.WriteVideoFrame(40, idrPayload))
		require.NoError(t, w.WriteVideoFrame(80, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)

	require.Equal(t, 1920, info.Width)
	require.Equal(t, 1080, info.Height)
	require.InEpsilon(t, 25.0, info.FrameRate, 1e-9)
}

func TestProbeNoDimensions(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	_, err := Probe(newTestReader(t, stream), discardLogger())
	require.ErrorIs(t, err, ErrNoDimensions)
}

func TestProbeMostRecentDescriptorWins(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteVideoDescriptor(1280, 720))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)
	require.Equal(t, 1280, info.Width)
	require.Equal(t, 720, info.Height)
}

func TestProbeStopsAtEndOfStream(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
		require.NoError(t, w.WriteEndOfStream())
		// Trailing garbage after the sentinel is never looked at.
		require.NoError(t, w.WriteVideoFrame(1000, idrPayload))
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)
	require.Equal(t, 2, info.VideoPackets)
}

func TestProbeTerminatesAtPhysicalEOF(t *testing.T) {
	// No end sentinel at all.
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
		require.NoError(t, w.WriteVideoFrame(40, nonIDRPayload))
	})

	info, err := Probe(newTestReader(t, stream), discardLogger())
	require.NoError(t, err)
	require.Equal(t, 2, info.VideoPackets)
	require.InEpsilon(t, 25.0, info.FrameRate, 1e-9)
}

func TestProbeUnknownTag(t *testing.T) {
	stream := buildStream(t, func(w *hxformat.Writer) {
		require.NoError(t, w.WriteVideoDescriptor(640, 480))
		require.NoError(t, w.WriteVideoFrame(0, idrPayload))
	})
	stream = append(stream, 'A', 'B', 'C', 'D', 0, 0, 0, 0)

	_, err := Probe(newTestReader(t, stream), discardLogger())
	require.ErrorIs(t, err, hxformat.ErrUnknownTag)
}
