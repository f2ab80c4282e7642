package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

const (
	// DefaultFileName is the prefix of the daily log files, app.log.YYYY-MM-DD.
	DefaultFileName = "app.log"

	diodeSize         = 1000
	diodePollInterval = 10 * time.Millisecond
)

// Options configures Setup.
type Options struct {
	// Dev switches console output to the human readable writer and defaults the level to debug.
	Dev bool
	// Level overrides the default level when set (trace, debug, info, warn, error).
	Level string
	// Dir enables the daily rotating file output when non-empty.
	Dir string
	// FileName is the file prefix inside Dir, defaults to DefaultFileName.
	FileName string
	// Console defaults to os.Stderr.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger. The returned closer flushes and closes the file output
// and must be called before exit.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Dev {
		level = zerolog.DebugLevel
	}
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if opts.Dev {
		console = zerolog.ConsoleWriter{Out: console, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}
	}

	var closer io.Closer = nopCloser{}
	out := console

	if opts.Dir != "" {
		name := opts.FileName
		if name == "" {
			name = DefaultFileName
		}
		file, err := NewDailyFile(opts.Dir, name)
		if err != nil {
			return zerolog.Nop(), nil, err
		}

		// writes to disk never block the request path; dropped lines are reported on the console
		dw := diode.NewWriter(file, diodeSize, diodePollInterval, func(missed int) {
			fmt.Fprintf(os.Stderr, "logger dropped %d messages\n", missed)
		})
		closer = dw
		out = zerolog.MultiLevelWriter(console, dw)
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Dev {
		ctx = ctx.Caller().Stack()
	}

	return ctx.Logger(), closer, nil
}
