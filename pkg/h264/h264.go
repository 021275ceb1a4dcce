// Package h264 contains helpers to inspect H264 Annex-B payloads.
package h264

// NALUType is the type of a NALU.
type NALUType uint8

// NALU types.
const (
	NALUTypeNonIDR              NALUType = 1
	NALUTypeDataPartitionA      NALUType = 2
	NALUTypeDataPartitionB      NALUType = 3
	NALUTypeDataPartitionC      NALUType = 4
	NALUTypeIDR                 NALUType = 5
	NALUTypeSEI                 NALUType = 6
	NALUTypeSPS                 NALUType = 7
	NALUTypePPS                 NALUType = 8
	NALUTypeAccessUnitDelimiter NALUType = 9
	NALUTypeEndOfSequence       NALUType = 10
	NALUTypeEndOfStream         NALUType = 11
	NALUTypeFillerData          NALUType = 12
)

// IsParameterSet reports whether the NALU carries decode parameters
// rather than picture data.
func (t NALUType) IsParameterSet() bool {
	return t == NALUTypeSPS || t == NALUTypePPS
}

// StartCodeSize is the size of the Annex-B start code preceding each
// NALU in a camera payload.
const StartCodeSize = 4

// NALUTypeOf returns the type of the NALU that follows the leading
// start code of an Annex-B payload. The type lives in the low 5 bits
// of the byte after the start code, the start code itself is never
// reinterpreted.
func NALUTypeOf(payload []byte) (NALUType, bool) {
	if len(payload) < StartCodeSize+1 {
		return 0, false
	}
	return NALUType(payload[StartCodeSize] & 0x1F), true
}
