package h264

import (
	"bytes"
	"errors"

	"github.com/icza/bitio"
)

func readGolombUnsigned(br *bitio.Reader) (uint32, error) {
	leadingZeroBits := uint32(0)

	for {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}

		if b != 0 {
			break
		}

		leadingZeroBits++
	}

	codeNum := uint32(0)

	for n := leadingZeroBits; n > 0; n-- {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}

		codeNum |= uint32(b) << (n - 1)
	}

	codeNum = (1 << leadingZeroBits) - 1 + codeNum

	return codeNum, nil
}

func readGolombSigned(br *bitio.Reader) (int32, error) {
	v, err := readGolombUnsigned(br)
	if err != nil {
		return 0, err
	}
	vi := int32(v)

	if (vi & 0x01) != 0 {
		return (vi + 1) / 2, nil
	}

	return -vi / 2, nil
}

func readFlag(br *bitio.Reader) (bool, error) {
	tmp, err := br.ReadBits(1)
	if err != nil {
		return false, err
	}

	return (tmp == 1), nil
}

// skipScalingList walks over a scaling list without keeping it.
func skipScalingList(br *bitio.Reader, size int) error {
	lastScale := int32(8)
	nextScale := int32(8)

	for j := 0; j < size; j++ {
		if nextScale != 0 {
			deltaScale, err := readGolombSigned(br)
			if err != nil {
				return err
			}

			nextScale = (lastScale + deltaScale + 256) % 256
		}

		if nextScale != 0 {
			lastScale = nextScale
		}
	}

	return nil
}

// emulationPreventionRemove unescapes the 0x000003 sequences a NALU
// uses to avoid embedding start codes.
func emulationPreventionRemove(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for i := 0; i < len(buf); i++ {
		if i+2 < len(buf) && buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 3 {
			out = append(out, 0, 0)
			i += 2
			continue
		}
		out = append(out, buf[i])
	}
	return out
}

// SPS errors.
var (
	ErrSPSBufferTooShort    = errors.New("buffer too short")
	ErrSPSWrongForbiddenBit = errors.New("wrong forbidden bit")
	ErrSPSWrongType         = errors.New("not a SPS")
)

// SPS is a H264 sequence parameter set, parsed only as far as needed
// to derive the frame dimensions.
type SPS struct {
	ProfileIdc uint8
	LevelIdc   uint8

	ChromaFormatIdc           uint32
	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32
	FrameMbsOnlyFlag          bool

	FrameCropping    bool
	CropLeftOffset   uint32
	CropRightOffset  uint32
	CropTopOffset    uint32
	CropBottomOffset uint32
}

// Unmarshal decodes a SPS NALU, without its start code.
func (s *SPS) Unmarshal(buf []byte) error { //nolint:funlen
	// ref: ISO/IEC 14496-10:2020

	buf = emulationPreventionRemove(buf)

	if len(buf) < 4 {
		return ErrSPSBufferTooShort
	}

	forbidden := buf[0] >> 7
	typ := NALUType(buf[0] & 0x1F)

	if forbidden != 0 {
		return ErrSPSWrongForbiddenBit
	}

	if typ != NALUTypeSPS {
		return ErrSPSWrongType
	}

	s.ProfileIdc = buf[1]
	s.LevelIdc = buf[3]

	br := bitio.NewReader(bytes.NewReader(buf[4:]))

	// seq_parameter_set_id.
	if _, err := readGolombUnsigned(br); err != nil {
		return err
	}

	err := s.unmarshalProfileIdc(br)
	if err != nil {
		return err
	}

	// log2_max_frame_num_minus4.
	if _, err := readGolombUnsigned(br); err != nil {
		return err
	}

	picOrderCntType, err := readGolombUnsigned(br)
	if err != nil {
		return err
	}

	err = skipPicOrderCnt(br, picOrderCntType)
	if err != nil {
		return err
	}

	// max_num_ref_frames.
	if _, err := readGolombUnsigned(br); err != nil {
		return err
	}

	// gaps_in_frame_num_value_allowed_flag.
	if _, err := readFlag(br); err != nil {
		return err
	}

	s.PicWidthInMbsMinus1, err = readGolombUnsigned(br)
	if err != nil {
		return err
	}

	s.PicHeightInMapUnitsMinus1, err = readGolombUnsigned(br)
	if err != nil {
		return err
	}

	s.FrameMbsOnlyFlag, err = readFlag(br)
	if err != nil {
		return err
	}

	if !s.FrameMbsOnlyFlag {
		// mb_adaptive_frame_field_flag.
		if _, err := readFlag(br); err != nil {
			return err
		}
	}

	// direct_8x8_inference_flag.
	if _, err := readFlag(br); err != nil {
		return err
	}

	s.FrameCropping, err = readFlag(br)
	if err != nil {
		return err
	}

	if s.FrameCropping {
		s.CropLeftOffset, err = readGolombUnsigned(br)
		if err != nil {
			return err
		}

		s.CropRightOffset, err = readGolombUnsigned(br)
		if err != nil {
			return err
		}

		s.CropTopOffset, err = readGolombUnsigned(br)
		if err != nil {
			return err
		}

		s.CropBottomOffset, err = readGolombUnsigned(br)
		if err != nil {
			return err
		}
	} else {
		s.CropLeftOffset = 0
		s.CropRightOffset = 0
		s.CropTopOffset = 0
		s.CropBottomOffset = 0
	}

	// The VUI that may follow carries no size information.
	return nil
}

func (s *SPS) unmarshalProfileIdc(br *bitio.Reader) error {
	switch s.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		var err error
		s.ChromaFormatIdc, err = readGolombUnsigned(br)
		if err != nil {
			return err
		}

		if s.ChromaFormatIdc == 3 {
			// separate_colour_plane_flag.
			if _, err := readFlag(br); err != nil {
				return err
			}
		}

		// bit_depth_luma_minus8.
		if _, err := readGolombUnsigned(br); err != nil {
			return err
		}

		// bit_depth_chroma_minus8.
		if _, err := readGolombUnsigned(br); err != nil {
			return err
		}

		// qpprime_y_zero_transform_bypass_flag.
		if _, err := readFlag(br); err != nil {
			return err
		}

		seqScalingMatrixPresentFlag, err := readFlag(br)
		if err != nil {
			return err
		}

		if seqScalingMatrixPresentFlag {
			err = s.skipSeqScalingMatrix(br)
			if err != nil {
				return err
			}
		}

	default:
		s.ChromaFormatIdc = 1
	}
	return nil
}

func (s *SPS) skipSeqScalingMatrix(br *bitio.Reader) error {
	lim := 8
	if s.ChromaFormatIdc == 3 {
		lim = 12
	}

	for i := 0; i < lim; i++ {
		seqScalingListPresentFlag, err := readFlag(br)
		if err != nil {
			return err
		}

		if seqScalingListPresentFlag {
			size := 16
			if i >= 6 {
				size = 64
			}
			if err := skipScalingList(br, size); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPicOrderCnt(br *bitio.Reader, picOrderCntType uint32) error {
	switch picOrderCntType {
	case 0:
		// log2_max_pic_order_cnt_lsb_minus4.
		if _, err := readGolombUnsigned(br); err != nil {
			return err
		}

	case 1:
		// delta_pic_order_always_zero_flag.
		if _, err := readFlag(br); err != nil {
			return err
		}

		// offset_for_non_ref_pic.
		if _, err := readGolombSigned(br); err != nil {
			return err
		}

		// offset_for_top_to_bottom_field.
		if _, err := readGolombSigned(br); err != nil {
			return err
		}

		numRefFramesInPicOrderCntCycle, err := readGolombUnsigned(br)
		if err != nil {
			return err
		}

		for i := uint32(0); i < numRefFramesInPicOrderCntCycle; i++ {
			if _, err := readGolombSigned(br); err != nil {
				return err
			}
		}
	}
	return nil
}

// Width returns the video width.
func (s SPS) Width() int {
	if s.FrameCropping {
		return int(((s.PicWidthInMbsMinus1 + 1) * 16) - (s.CropLeftOffset+s.CropRightOffset)*2)
	}

	return int((s.PicWidthInMbsMinus1 + 1) * 16)
}

// Height returns the video height.
func (s SPS) Height() int {
	f := uint32(0)
	if s.FrameMbsOnlyFlag {
		f = 1
	}

	if s.FrameCropping {
		return int(((2 - f) * (s.PicHeightInMapUnitsMinus1 + 1) * 16) - (s.CropTopOffset+s.CropBottomOffset)*2)
	}

	return int((2 - f) * (s.PicHeightInMapUnitsMinus1 + 1) * 16)
}
