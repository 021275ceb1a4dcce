// Package hxformat reads and writes the proprietary ".264" container
// produced by HX-family IP cameras.
//
// The container is a flat sequence of tagged packets with no global
// header and no index. Each packet starts with a 4-byte tag followed
// by a fixed-size, tag-specific header. All integers are little-endian.
//
// "HXVS" / "HXVT": video stream descriptor. 12-byte header.
//
//	width   uint32
//	height  uint32
//	padding [4]byte
//
// The most recent descriptor is authoritative. In practice it appears
// once at the start of the file.
//
// "HXVF": video frame. 12-byte header followed by the payload.
//
//	length    uint32 // payload size in bytes
//	timestamp uint32 // milliseconds, camera-local clock
//	padding   [4]byte
//
// The payload is a raw Annex-B H264 access unit or parameter set,
// copied from the camera encoder byte for byte.
//
// "HXAF": audio frame. 16-byte header followed by the payload.
//
//	length    uint32 // sub-header plus sample bytes
//	timestamp uint32 // milliseconds
//	padding   [8]byte
//
// The declared length includes a 4-byte sub-header of unknown meaning
// that is consumed together with the packet header, so length-4 sample
// bytes of mono A-law audio follow.
//
// "HXFI": end of stream. 16-byte header, no payload.
//
//	length  uint32
//	padding [12]byte
//
// The sentinel is optional. A stream may also end at physical EOF on
// a packet boundary.
//
// Unrecognized tags are fatal. The format carries no payload length
// for unknown packet types and has no re-synchronization marker, so
// scanning cannot safely continue past one.
package hxformat
