package xzutils

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/nguyengg/xzutils/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomData(t *testing.T, n int) []byte {
	t.Helper()

	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)

	// half random, half compressible.
	copy(data[n/2:], bytes.Repeat([]byte("abcdefgh"), n/16))
	return data
}

func TestCompressDecompress(t *testing.T) {
	ctx := context.Background()
	data := randomData(t, 300_000)

	tests := []struct {
		name   string
		format codec.Format
		level  int
	}{
		{name: "xz", format: codec.Xz, level: 6},
		{name: "xz level 0", format: codec.Xz, level: 0},
		{name: "lzma", format: codec.Lzma, level: 6},
		{name: "gzip", format: codec.Gzip, level: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var compressed bytes.Buffer
			s, err := Compress(ctx, bytes.NewReader(data), &compressed, func(opts *CompressOptions) {
				opts.Encoder.Format = tt.format
				opts.Encoder.Level = tt.level
			})
			require.NoErrorf(t, err, "Compress() error = %v", err)
			assert.Equal(t, int64(len(data)), s.BytesRead)
			assert.Equal(t, int64(compressed.Len()), s.BytesWritten)
			assert.Greater(t, s.Ratio(true), 0.0)

			var decompressed bytes.Buffer
			s, err = Decompress(ctx, bytes.NewReader(compressed.Bytes()), &decompressed)
			require.NoErrorf(t, err, "Decompress() error = %v", err)
			assert.Equal(t, int64(compressed.Len()), s.BytesRead)
			assert.Equal(t, int64(len(data)), s.BytesWritten)
			assert.Equal(t, data, decompressed.Bytes())

			s, err = Test(ctx, bytes.NewReader(compressed.Bytes()))
			assert.NoError(t, err)
			assert.Equal(t, int64(len(data)), s.BytesWritten)
		})
	}
}

func TestCompress_FlushEvery(t *testing.T) {
	ctx := context.Background()
	data := randomData(t, 300_000)

	for _, format := range []codec.Format{codec.Xz, codec.Gzip} {
		t.Run(format.String(), func(t *testing.T) {
			var compressed bytes.Buffer
			_, err := Compress(ctx, bytes.NewReader(data), &compressed, func(opts *CompressOptions) {
				opts.Encoder.Format = format
				opts.BufferSize = MinBufferSize
				opts.FlushEvery = 100_000
			})
			require.NoError(t, err)

			var decompressed bytes.Buffer
			_, err = Decompress(ctx, &compressed, &decompressed)
			require.NoError(t, err)
			assert.Equal(t, data, decompressed.Bytes())
		})
	}
}

// compress -c file1 file2 | decompress -c equals file1 + file2.
func TestDecompress_Concatenated(t *testing.T) {
	ctx := context.Background()
	file1, file2 := randomData(t, 10_000), randomData(t, 20_000)

	var compressed bytes.Buffer
	for _, data := range [][]byte{file1, file2} {
		_, err := Compress(ctx, bytes.NewReader(data), &compressed)
		require.NoError(t, err)
	}

	var decompressed bytes.Buffer
	_, err := Decompress(ctx, &compressed, &decompressed)
	require.NoError(t, err)
	assert.Equal(t, append(bytes.Clone(file1), file2...), decompressed.Bytes())
}

func TestDecompress_Corrupt(t *testing.T) {
	_, err := Test(context.Background(), bytes.NewReader([]byte("definitely not compressed")))
	assert.Truef(t, codec.IsKind(err, codec.UnsupportedFormat), "Test() error = %v", err)
}

func TestDecompress_Memlimit(t *testing.T) {
	ctx := context.Background()

	var compressed bytes.Buffer
	_, err := Compress(ctx, bytes.NewReader(make([]byte, 1<<20)), &compressed)
	require.NoError(t, err)

	var decompressed bytes.Buffer
	_, err = Decompress(ctx, &compressed, &decompressed, func(opts *DecompressOptions) {
		opts.Decoder.MemoryLimit = 1024
	})
	assert.Truef(t, codec.IsKind(err, codec.MemlimitExceeded), "Decompress() error = %v", err)
	assert.Zero(t, decompressed.Len())
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, io.ErrNoProgress
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestIOErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Compress(ctx, errReader{}, io.Discard)
	var re *ReadError
	assert.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, io.ErrNoProgress)

	_, err = Compress(ctx, bytes.NewReader(randomData(t, 100_000)), errWriter{})
	var we *WriteError
	assert.ErrorAs(t, err, &we)
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	_, err = Decompress(ctx, errReader{}, io.Discard)
	assert.ErrorAs(t, err, &re)

	var compressed bytes.Buffer
	_, err = Compress(ctx, bytes.NewReader(randomData(t, 100_000)), &compressed)
	require.NoError(t, err)
	_, err = Decompress(ctx, &compressed, errWriter{})
	assert.ErrorAs(t, err, &we)
}

// failAfterReader returns data on its first Read and err on every Read after that.
type failAfterReader struct {
	data []byte
	err  error
	read bool
}

func (r *failAfterReader) Read(p []byte) (int, error) {
	if r.read {
		return 0, r.err
	}

	r.read = true
	return copy(p, r.data), nil
}

func TestCompress_ReleasesEncoderOnError(t *testing.T) {
	ctx := context.Background()
	data := randomData(t, MinBufferSize)
	before := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		var compressed bytes.Buffer
		s, err := Compress(ctx, &failAfterReader{data: data, err: io.ErrUnexpectedEOF}, &compressed, func(opts *CompressOptions) {
			opts.Encoder.Format = codec.Gzip
			opts.Encoder.Threads = 4
			opts.BufferSize = MinBufferSize
		})
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Equal(t, int64(compressed.Len()), s.BytesWritten)
	}

	assert.Eventuallyf(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond, "goroutines before = %d, after = %d", before, runtime.NumGoroutine())
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compress(ctx, bytes.NewReader(randomData(t, 100_000)), io.Discard)
	assert.True(t, errors.Is(err, context.Canceled))

	var compressed bytes.Buffer
	_, err = Compress(context.Background(), bytes.NewReader(randomData(t, 100_000)), &compressed)
	require.NoError(t, err)

	_, err = Decompress(ctx, &compressed, io.Discard)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	data := randomData(t, 100_000)

	var progress, compressed bytes.Buffer
	_, err := Compress(ctx, bytes.NewReader(data), &compressed, func(opts *CompressOptions) {
		opts.Progress = &progress
	})
	require.NoError(t, err)
	assert.Equal(t, data, progress.Bytes())

	progress.Reset()
	n := compressed.Len()
	_, err = Decompress(ctx, &compressed, io.Discard, func(opts *DecompressOptions) {
		opts.Progress = &progress
	})
	require.NoError(t, err)
	assert.Equal(t, n, progress.Len())
}
