// Package muxer is the boundary to the container-writing library. It
// owns everything container specific, format selection, output naming
// and codec negotiation, none of which the conversion core knows about.
package muxer

// TrackID identifies a stream within the output container.
type TrackID uint32

// Muxer writes timestamped elementary packets into a container.
//
// Packets must be written in the order the caller submits them, any
// container-level interleaving policy is the implementation's own.
// Packet data is consumed during WritePacket, the caller is free to
// reuse the backing buffer as soon as the call returns.
type Muxer interface {
	// TimeScale returns the number of timestamp ticks per second.
	TimeScale() int64

	AddVideoTrack(width, height int, frameRate float64) (TrackID, error)

	// AddAudioTrack adds a mono A-law track.
	AddAudioTrack(sampleRate int) (TrackID, error)

	WritePacket(track TrackID, data []byte, timestamp int64) error

	// Finalize flushes the trailer and releases the destination.
	Finalize() error
}
