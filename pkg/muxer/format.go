package muxer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format errors.
var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNoFormat      = errors.New("cannot determine output format")
)

// Format is a supported output container format.
type Format struct {
	Name      string
	Extension string
}

// Regular mp4 is the default. Fragmented mp4 shares the extension and
// can only be selected by name.
var formats = []Format{
	{Name: "mp4", Extension: ".mp4"},
	{Name: "fmp4", Extension: ".mp4"},
}

// Formats lists the supported output formats.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

func formatNames() string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}

func lookupFormat(name string) (Format, bool) {
	for _, f := range formats {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}

func formatByExtension(ext string) (Format, bool) {
	for _, f := range formats {
		if f.Extension == ext {
			return f, true
		}
	}
	return Format{}, false
}

// inputExtension is the extension the cameras use for their files.
const inputExtension = ".264"

// ResolveOutput determines the output path and format from what the
// operator supplied. An explicit format name wins over the output
// extension, and a missing output path is derived from the input path
// and the format's default extension.
func ResolveOutput(inputPath, outputPath, formatName string) (string, string, error) {
	if formatName == "" {
		if outputPath == "" {
			return "", "", fmt.Errorf(
				"%w: no output file and no format name given", ErrNoFormat)
		}
		format, ok := formatByExtension(filepath.Ext(outputPath))
		if !ok {
			return "", "", fmt.Errorf(
				"%w from extension of %q, available formats: %v",
				ErrNoFormat, outputPath, formatNames())
		}
		return outputPath, format.Name, nil
	}

	format, ok := lookupFormat(formatName)
	if !ok {
		return "", "", fmt.Errorf(
			"%w: %q, available formats: %v", ErrUnknownFormat, formatName, formatNames())
	}
	if outputPath != "" {
		return outputPath, format.Name, nil
	}

	base := strings.TrimSuffix(inputPath, inputExtension)
	return base + format.Extension, format.Name, nil
}

// CreateFile opens path and returns a muxer writing the named format
// to it. The muxer owns the file and closes it on Finalize.
func CreateFile(path, formatName string) (Muxer, error) {
	format, ok := lookupFormat(formatName)
	if !ok {
		return nil, fmt.Errorf(
			"%w: %q, available formats: %v", ErrUnknownFormat, formatName, formatNames())
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	mux, err := newMP4Muxer(file, format.Name == "fmp4")
	if err != nil {
		file.Close()
		return nil, err
	}
	return mux, nil
}
