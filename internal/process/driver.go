package process

import (
	"context"
	"errors"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/xzutils/internal/config"
	"github.com/nguyengg/xzutils/internal/diag"
	"github.com/nguyengg/xzutils/internal/fileio"
)

// Driver runs the jobs of one invocation in argument order.
type Driver struct {
	Processor *Processor

	// OnDiagnostic, if given, is called with every diagnostic as it is added to the report.
	OnDiagnostic func(diag.Diagnostic)
}

// Run processes every file and returns the report.
//
// An empty list means standard input. A failed job does not stop the remaining ones, but cancellation of ctx and a
// broken pipe on standard output do.
func (d *Driver) Run(ctx context.Context, files []string) *diag.Report {
	cfg := d.Processor.Config
	r := &diag.Report{Quiet: cfg.Quiet, NoWarn: cfg.NoWarn}
	add := func(dg diag.Diagnostic) {
		r.Add(dg)
		if d.OnDiagnostic != nil {
			d.OnDiagnostic(dg)
		}
	}

	if len(files) == 0 {
		files = []string{"-"}
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			add(diag.FromError(file, err))
			break
		}

		job, err := d.Processor.Process(ctx, file)
		switch {
		case err == nil:
			if cfg.Verbose {
				add(info(cfg, job))
			}
			continue

		case job.OutputKind == fileio.StdoutOutput && errors.Is(err, syscall.EPIPE):
			r.Status = diag.ErrorStatus
			return r
		}

		add(diag.FromError(job.Path(), err))

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	return r
}

func info(cfg *config.Config, job *Job) diag.Diagnostic {
	s := job.Summary

	switch cfg.Mode {
	case config.Compress:
		return diag.Infof(job.Path(), "Compressed %s to %s (%.1f%%)",
			humanize.IBytes(uint64(s.BytesRead)), humanize.IBytes(uint64(s.BytesWritten)), s.Ratio(true))
	case config.Test:
		return diag.Infof(job.Path(), "Tested %s (%.1f%%)",
			humanize.IBytes(uint64(s.BytesWritten)), s.Ratio(false))
	default:
		return diag.Infof(job.Path(), "Decompressed %s to %s (%.1f%%)",
			humanize.IBytes(uint64(s.BytesRead)), humanize.IBytes(uint64(s.BytesWritten)), s.Ratio(false))
	}
}
