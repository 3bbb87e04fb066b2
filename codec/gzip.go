package codec

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

// pgzipBlockSize is the block size of each pgzip worker.
const pgzipBlockSize = 1 << 20

var gzipMagic = []byte{0x1f, 0x8b}

type gzipWriter interface {
	io.WriteCloser
	Flush() error
}

// gzipStream writes one member until FullFlush or Finish; FullFlush starts a new member on the next write.
type gzipStream struct {
	dst  io.Writer
	opts EncoderOptions
	w    gzipWriter
}

func newGzipStream(dst io.Writer, opts EncoderOptions) (*gzipStream, error) {
	s := &gzipStream{dst: dst, opts: opts}
	return s, s.start()
}

func (s *gzipStream) start() error {
	if s.opts.Threads > 1 {
		w, err := pgzip.NewWriterLevel(s.dst, s.opts.Level)
		if err != nil {
			return err
		}
		if err = w.SetConcurrency(pgzipBlockSize, s.opts.Threads); err != nil {
			return err
		}
		w.Header.Name = s.opts.Name
		w.Header.ModTime = s.opts.ModTime
		s.w = w
		return nil
	}

	w, err := gzip.NewWriterLevel(s.dst, s.opts.Level)
	if err != nil {
		return err
	}
	w.Header.Name = s.opts.Name
	w.Header.ModTime = s.opts.ModTime
	s.w = w
	return nil
}

func (s *gzipStream) Write(p []byte) (int, error) {
	if s.w == nil {
		if err := s.start(); err != nil {
			return 0, err
		}
	}

	return s.w.Write(p)
}

func (s *gzipStream) flush(action Action) error {
	if s.w == nil {
		return nil
	}

	if action == SyncFlush {
		return s.w.Flush()
	}

	w := s.w
	s.w = nil
	return w.Close()
}

func (s *gzipStream) finish() error {
	if s.w == nil {
		return nil
	}

	return s.flush(Finish)
}
