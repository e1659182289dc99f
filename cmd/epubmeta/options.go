package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/epubmeta/internal/epub"
	"github.com/yuanying/epubmeta/internal/thumbnail"
)

const (
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultMaxMemberSize = 256 // MiB
	minJPEGQuality       = 1
	maxJPEGQuality       = 100
)

// cliOptions holds the global flags shared by every subcommand.
type cliOptions struct {
	Logger          *slog.Logger
	MaxMemberSize   int64
	LenientMimetype bool
}

func (o cliOptions) documentOptions() epub.Options {
	opts := epub.DefaultOptions()
	opts.Logger = o.Logger
	opts.MaxMemberSize = o.MaxMemberSize
	opts.LenientMimetype = o.LenientMimetype
	return opts
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", defaultLogFormat, "Log format: text, json")
	flags.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")
	flags.Int64("max-member-size", defaultMaxMemberSize, "Largest archive member to decompress, in MiB")
	flags.Bool("lenient-mimetype", false, "Accept any first member whose content starts with application/epub+zip")
}

func readCLIOptions(cmd *cobra.Command) (cliOptions, error) {
	flags := cmd.Flags()
	logLevel, _ := flags.GetString("log-level")
	logFormat, _ := flags.GetString("log-format")
	verbose, _ := flags.GetBool("verbose")
	maxMemberSize, _ := flags.GetInt64("max-member-size")
	lenient, _ := flags.GetBool("lenient-mimetype")

	logLevel = strings.ToLower(strings.TrimSpace(logLevel))
	if _, err := parseLogLevel(logLevel); err != nil {
		return cliOptions{}, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logFormat = strings.ToLower(strings.TrimSpace(logFormat))
	if logFormat != "text" && logFormat != "json" {
		return cliOptions{}, fmt.Errorf("invalid --log-format %q: must be text or json", logFormat)
	}
	if maxMemberSize <= 0 {
		return cliOptions{}, fmt.Errorf("invalid --max-member-size %d: must be > 0", maxMemberSize)
	}
	if verbose {
		logLevel = "debug"
	}

	return cliOptions{
		Logger:          buildLogger(cmd.ErrOrStderr(), logLevel, logFormat),
		MaxMemberSize:   maxMemberSize * 1024 * 1024,
		LenientMimetype: lenient,
	}, nil
}

// coverOptions holds the flags of the cover subcommand.
type coverOptions struct {
	OutputPath string
	Render     bool
	Thumbnail  thumbnail.Options
}

func addCoverFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output file path (default: input with -cover and the image extension)")
	cmd.Flags().Int("max-width", 0, "Downsize the cover to this width and re-encode it (0 writes the original bytes)")
	cmd.Flags().Int("quality", thumbnail.DefaultJPEGQuality, "JPEG quality when re-encoding (1-100)")
}

func readCoverOptions(cmd *cobra.Command) (coverOptions, error) {
	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	maxWidth, _ := flags.GetInt("max-width")
	quality, _ := flags.GetInt("quality")

	if maxWidth < 0 {
		return coverOptions{}, fmt.Errorf("invalid --max-width %d: must be >= 0", maxWidth)
	}
	if quality < minJPEGQuality || quality > maxJPEGQuality {
		return coverOptions{}, fmt.Errorf("invalid --quality %d: must be between %d and %d", quality, minJPEGQuality, maxJPEGQuality)
	}

	return coverOptions{
		OutputPath: output,
		Render:     maxWidth > 0 || flags.Changed("quality"),
		Thumbnail: thumbnail.Options{
			MaxWidth:    orNoResize(maxWidth),
			JPEGQuality: quality,
		},
	}, nil
}

// orNoResize maps an unset width to the thumbnail package's "keep size".
func orNoResize(width int) int {
	if width == 0 {
		return -1
	}
	return width
}

func defaultCoverPath(inputPath, ext string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "-cover" + ext
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := parseLogLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level")
	}
}
