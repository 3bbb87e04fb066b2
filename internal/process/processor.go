// Package process runs file jobs: it resolves the output of each input, drives the stream pipeline, and commits or
// cleans up afterwards.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyengg/xzutils"
	"github.com/nguyengg/xzutils/codec"
	"github.com/nguyengg/xzutils/internal/config"
	"github.com/nguyengg/xzutils/internal/diag"
	"github.com/nguyengg/xzutils/internal/fileio"
	"github.com/nguyengg/xzutils/internal/naming"
)

// StreamKind is the kind of input of a Job.
type StreamKind int

const (
	FileStream StreamKind = iota
	StdinStream
)

// JobState is the progress of a Job.
type JobState int

const (
	Created JobState = iota
	// Opened means both input and output are open.
	Opened
	// Processed means the pipeline finished successfully but the output has not been committed yet.
	Processed
	// Committed means the output is complete. Only the removal of the input may still fail.
	Committed
	Failed
)

func (s JobState) String() string {
	switch s {
	case Created:
		return "created"
	case Opened:
		return "opened"
	case Processed:
		return "processed"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// Job is one input file and its output.
type Job struct {
	// Input is the path given on the command line, "" or "-" for standard input.
	Input string
	// Output is the resolved output path, empty if the output is not a file.
	Output     string
	StreamKind StreamKind
	OutputKind fileio.OutputKind
	State      JobState
	Summary    xzutils.Summary
	Err        error
}

// Path returns the path shown in diagnostics.
func (j *Job) Path() string {
	if j.StreamKind == StdinStream {
		return diag.StdinName
	}

	return j.Input
}

// Processor handles one file at a time according to Config.
type Processor struct {
	Config *config.Config
	// Program is the name used in log prefixes.
	Program string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	StdinIsTerminal  bool
	StdoutIsTerminal bool
	StderrIsTerminal bool
}

// Process runs the job for one input.
//
// The returned error is a *diag.Error. If the job failed after its output was created, the output has been aborted
// (a partially written file is removed) before Process returns. A RemoveFile error is returned with the job in
// Committed state.
func (p *Processor) Process(ctx context.Context, input string) (job *Job, err error) {
	cfg := p.Config

	job = &Job{Input: input}
	if naming.IsStdin(input) {
		job.StreamKind = StdinStream
	}
	path := job.Path()

	defer func() {
		if err != nil {
			err = diag.Classify(path, err)
			job.Err = err
			if job.State != Committed {
				job.State = Failed
			}
		}
	}()

	toStdout := cfg.Stdout || job.StreamKind == StdinStream
	if cfg.Mode != config.Test && !toStdout {
		if job.Output, err = naming.OutputPath(input, cfg); err != nil {
			return job, err
		}
	}

	switch {
	case cfg.Force:
	case cfg.Mode == config.Compress && toStdout && p.StdoutIsTerminal:
		return job, diag.ErrTerminalOutput
	case cfg.Mode != config.Compress && job.StreamKind == StdinStream && p.StdinIsTerminal:
		return job, diag.ErrTerminalInput
	}

	src, err := fileio.OpenInput(input, p.Stdin, cfg.Force)
	if err != nil {
		return job, err
	}
	defer src.Close()

	var sink fileio.Sink
	if cfg.Mode == config.Test {
		sink = fileio.Discard()
	} else if sink, err = fileio.OpenOutput(job.Output, cfg, p.Stdout); err != nil {
		return job, diag.Classify(job.Output, err)
	}
	job.OutputKind = sink.Kind()
	job.State = Opened

	defer func() {
		if err != nil && job.State < Committed {
			_ = sink.Abort()
		}
	}()

	if job.Summary, err = p.run(ctx, src, sink); err != nil {
		return job, err
	}
	job.State = Processed

	if err = sink.Commit(); err != nil {
		return job, &xzutils.WriteError{Err: err}
	}
	job.State = Committed

	if job.OutputKind == fileio.FileOutput && src.Info != nil {
		_ = os.Chmod(job.Output, src.Info.Mode().Perm())
		_ = os.Chtimes(job.Output, time.Time{}, src.Info.ModTime())
	}

	if (cfg.Mode == config.Compress || cfg.Mode == config.Decompress) && !cfg.Stdout && !cfg.Keep && !src.IsStdin() {
		_ = src.Close()
		if err = os.Remove(input); err != nil {
			return job, &diag.RemoveFileError{Err: err}
		}
	}

	return job, nil
}

// run pumps src into sink through the codec.
func (p *Processor) run(ctx context.Context, src *fileio.Source, sink fileio.Sink) (xzutils.Summary, error) {
	cfg := p.Config

	var progress io.WriteCloser
	if cfg.Verbose && cfg.Quiet == 0 {
		name := src.Name()
		if name == "" {
			name = diag.StdinName
		}

		ctx = withPrefixLogger(ctx, p.Stderr, fmt.Sprintf("%s: %s: ", p.Program, name))
		progress = p.newProgress(ctx, src.Size())
		defer progress.Close()
	}

	if cfg.Mode == config.Compress {
		return xzutils.Compress(ctx, src, sink, func(opts *xzutils.CompressOptions) {
			opts.Encoder = codec.EncoderOptions{
				Format:    cfg.EffectiveFormat(),
				Level:     cfg.Level,
				Extreme:   cfg.Extreme,
				Threads:   cfg.Threads,
				Check:     cfg.Check,
				BlockSize: cfg.BlockSize,
				Lzma1:     cfg.Lzma1,
			}
			if !cfg.NoName && src.Info != nil {
				opts.Encoder.Name = filepath.Base(src.Name())
				opts.Encoder.ModTime = src.Info.ModTime()
			}
			if progress != nil {
				opts.Progress = progress
			}
		})
	}

	decoderOpts := func(opts *xzutils.DecompressOptions) {
		opts.Decoder = codec.DecoderOptions{
			Format:      cfg.Format,
			MemoryLimit: cfg.MemoryLimit,
			Threads:     cfg.Threads,
			Flags:       cfg.DecoderFlags(),
		}
		if progress != nil {
			opts.Progress = progress
		}
	}

	if cfg.Mode == config.Test {
		return xzutils.Test(ctx, src, decoderOpts)
	}

	return xzutils.Decompress(ctx, src, sink, decoderOpts)
}
