// Command hxconv converts proprietary IP camera ".264" files into
// standard audio/video containers.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"hxconv/pkg/convert"
	"hxconv/pkg/hxformat"
	"hxconv/pkg/muxer"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	noAudio    bool
	quiet      bool
	format     string
	configPath string
}

const longHelp = `Convert surveillance camera ".264" files into a standard a/v container.

The input format is the flat packet stream written by HX-family cameras.
Video and audio payloads are copied byte for byte, only the framing is
rewritten. The output format is guessed from the output file extension
unless forced with --format, and when no output file is given one is
derived from the input file name.`

func newCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "hxconv [flags] input.264 [output]",
		Short:        "convert IP camera .264 files",
		Long:         longHelp,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	cmd.Flags().BoolVarP(&f.noAudio, "no-audio", "n", false, "ignore audio data")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "only print errors")
	cmd.Flags().StringVarP(&f.format, "format", "f", "",
		"force the output format (ex: -f fmp4)")
	cmd.Flags().StringVar(&f.configPath, "config", "",
		"yaml file with flag defaults")

	return cmd
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	if f.configPath != "" {
		if err := applyConfig(cmd, f); err != nil {
			return err
		}
	}

	level := slog.LevelInfo
	if f.quiet {
		level = slog.LevelWarn
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	inputPath := args[0]
	outputPath := ""
	if len(args) == 2 {
		outputPath = args[1]
	}
	if outputPath == "" && f.format == "" {
		return errors.New("an output file or a format name is required")
	}

	outputPath, formatName, err := muxer.ResolveOutput(inputPath, outputPath, f.format)
	if err != nil {
		return err
	}
	log.Info("selected output", "path", outputPath, "format", formatName)

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer in.Close()

	reader, err := hxformat.NewReader(in)
	if err != nil {
		return err
	}

	mux, err := muxer.CreateFile(outputPath, formatName)
	if err != nil {
		return err
	}

	info, err := convert.Convert(reader, mux, convert.Options{
		SkipAudio: f.noAudio,
		Log:       log,
	})
	if err != nil {
		return err
	}

	log.Info("done",
		"videoPackets", info.VideoPackets,
		"audioPackets", info.AudioPackets)
	return nil
}

// config mirrors the command flags. Values only apply to flags the
// operator did not set explicitly.
type config struct {
	NoAudio bool   `yaml:"noAudio"`
	Quiet   bool   `yaml:"quiet"`
	Format  string `yaml:"format"`
}

func applyConfig(cmd *cobra.Command, f *flags) error {
	data, err := os.ReadFile(f.configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var c config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if !cmd.Flags().Changed("no-audio") {
		f.noAudio = c.NoAudio
	}
	if !cmd.Flags().Changed("quiet") {
		f.quiet = c.Quiet
	}
	if !cmd.Flags().Changed("format") && c.Format != "" {
		f.format = c.Format
	}
	return nil
}
