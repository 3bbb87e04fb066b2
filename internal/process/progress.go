package process

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// ProgressInterval is how often progress is logged when stderr is not a terminal.
var ProgressInterval = 5 * time.Second

// newProgress returns the writer that receives a copy of every byte read from the input.
//
// A progress bar is used if stderr is a terminal, log lines otherwise. size is -1 if unknown.
func (p *Processor) newProgress(ctx context.Context, size int64) io.WriteCloser {
	if p.StderrIsTerminal {
		description := strings.TrimSuffix(mustPrefix(ctx), ": ")
		return defaultBytes(p.Stderr, size, truncateRightWithSuffix(filepath.Base(description), 30, "..."))
	}

	l := &logLogger{
		logger: mustLogger(ctx),
		rate:   &rate.Sometimes{Interval: ProgressInterval},
	}
	if size >= 0 {
		return &sizedLogLogger{logLogger: l, size: uint64(size)}
	}

	return l
}

// defaultBytes is equivalent to progressbar.DefaultBytes but with higher progressbar.OptionThrottle.
func defaultBytes(w io.Writer, maxBytes int64, description string, options ...progressbar.Option) *progressbar.ProgressBar {
	return progressbar.NewOptions64(maxBytes,
		append([]progressbar.Option{
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(1 * time.Second),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprint(w, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true)},
			options...)...)
}

type logLogger struct {
	logger *log.Logger
	rate   *rate.Sometimes
	read   uint64
}

func (l *logLogger) Write(p []byte) (n int, err error) {
	n = len(p)
	l.read += uint64(n)

	l.rate.Do(func() {
		l.logger.Printf("%s so far", humanize.IBytes(l.read))
	})

	return n, nil
}

func (l *logLogger) Close() error {
	l.logger.Printf("%s in total", humanize.IBytes(l.read))

	return nil
}

type sizedLogLogger struct {
	*logLogger
	size uint64
}

func (l *sizedLogLogger) Write(p []byte) (n int, err error) {
	n = len(p)
	l.read += uint64(n)

	l.rate.Do(func() {
		l.logger.Printf("%s / %s so far", humanize.IBytes(l.read), humanize.IBytes(l.size))
	})

	return n, nil
}

// truncateRightWithSuffix keeps the first n runes of text and only appends the suffix if truncation happens.
func truncateRightWithSuffix(text string, n int, suffix string) string {
	if n <= 0 {
		return suffix
	}

	rs := []rune(text)
	if len(rs) <= n {
		return text
	}

	return string(rs[:n]) + suffix
}
