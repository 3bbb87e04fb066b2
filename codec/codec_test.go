package codec

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fox = "The quick brown fox jumps over the lazy dog"

func encode(t *testing.T, data []byte, opts EncoderOptions) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, opts)
	require.NoErrorf(t, err, "NewEncoder() error = %v", err)

	_, err = enc.Write(data)
	require.NoErrorf(t, err, "Write() error = %v", err)
	require.NoErrorf(t, enc.Close(), "Close() error")
	assert.Equal(t, Done, enc.State())

	return buf.Bytes()
}

func decode(data []byte, opts DecoderOptions) ([]byte, error) {
	dec, err := NewDecoder(context.Background(), bytes.NewReader(data), opts)
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(dec)
	if err != nil {
		_ = dec.Close()
		return out, err
	}

	return out, dec.Close()
}

func testData(t *testing.T) []byte {
	t.Helper()

	random := make([]byte, 16*1024)
	_, err := rand.Read(random)
	require.NoError(t, err)

	return append(bytes.Repeat([]byte(fox+"\n"), 1000), random...)
}

func TestRoundTrip(t *testing.T) {
	data := testData(t)

	tests := []struct {
		name string
		opts EncoderOptions
	}{
		{name: "xz level 0", opts: EncoderOptions{Format: Xz, Level: 0}},
		{name: "xz level 6", opts: EncoderOptions{Format: Xz, Level: 6}},
		{name: "xz extreme", opts: EncoderOptions{Format: Xz, Level: 1, Extreme: true}},
		{name: "xz no check", opts: EncoderOptions{Format: Xz, Level: 1, Check: None}},
		{name: "xz crc32", opts: EncoderOptions{Format: Xz, Level: 1, Check: Crc32}},
		{name: "xz sha256", opts: EncoderOptions{Format: Xz, Level: 1, Check: Sha256}},
		{name: "xz small blocks", opts: EncoderOptions{Format: Xz, Level: 1, BlockSize: 4096}},
		{name: "auto means xz", opts: EncoderOptions{Format: Auto, Level: 1}},
		{name: "lzma level 0", opts: EncoderOptions{Format: Lzma, Level: 0}},
		{name: "lzma level 6", opts: EncoderOptions{Format: Lzma, Level: 6}},
		{name: "lzma with lzma1 options", opts: EncoderOptions{Format: Lzma, Level: 6, Lzma1: &Lzma1Options{DictCap: 1 << 16, LC: 0, LP: 2, PB: 0}}},
		{name: "gzip level 1", opts: EncoderOptions{Format: Gzip, Level: 1}},
		{name: "gzip level 9", opts: EncoderOptions{Format: Gzip, Level: 9}},
		{name: "gzip threads", opts: EncoderOptions{Format: Gzip, Level: 6, Threads: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := encode(t, data, tt.opts)

			// both explicit and auto-detected formats must work.
			format := tt.opts.Format
			if format == Auto {
				format = Xz
			}
			for _, hint := range []Format{format, Auto} {
				got, err := decode(compressed, DecoderOptions{Format: hint, Flags: Concatenated})
				require.NoErrorf(t, err, "decode(%v) error = %v", hint, err)
				assert.Equal(t, data, got)
			}
		})
	}
}

func TestRoundTrip_Empty(t *testing.T) {
	for _, format := range []Format{Xz, Lzma, Gzip} {
		t.Run(format.String(), func(t *testing.T) {
			compressed := encode(t, nil, EncoderOptions{Format: format, Level: 6})
			assert.NotEmpty(t, compressed)

			got, err := decode(compressed, DecoderOptions{Format: format})
			assert.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Format
		wantErr Kind
	}{
		{name: "xz", data: encode(t, []byte(fox), EncoderOptions{Format: Xz}), want: Xz},
		{name: "lzma", data: encode(t, []byte(fox), EncoderOptions{Format: Lzma}), want: Lzma},
		{name: "gzip", data: encode(t, []byte(fox), EncoderOptions{Format: Gzip, Level: 6}), want: Gzip},
		{name: "plain text", data: []byte(fox), wantErr: UnsupportedFormat},
		{name: "empty", data: nil, wantErr: UnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(context.Background(), bufio.NewReader(bytes.NewReader(tt.data)))
			if tt.want == Auto {
				assert.Truef(t, IsKind(err, tt.wantErr), "Detect() error = %v, want kind %v", err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecoder_WrongFormat(t *testing.T) {
	xzData := encode(t, []byte(fox), EncoderOptions{Format: Xz})

	_, err := decode(xzData, DecoderOptions{Format: Gzip})
	assert.Truef(t, IsKind(err, UnsupportedFormat), "decode() error = %v", err)

	_, err = decode([]byte(fox), DecoderOptions{Format: Xz})
	assert.Truef(t, IsKind(err, UnsupportedFormat), "decode() error = %v", err)
}

func TestDecoder_Corrupt(t *testing.T) {
	data := testData(t)

	for _, format := range []Format{Xz, Lzma, Gzip} {
		t.Run(format.String(), func(t *testing.T) {
			compressed := encode(t, data, EncoderOptions{Format: format, Level: 1})

			_, err := decode(compressed[:len(compressed)-5], DecoderOptions{Format: format})
			assert.Truef(t, IsKind(err, CorruptData), "decode() truncated error = %v", err)

			// lzma has no integrity check so flipped bytes are not guaranteed to be detected.
			if format == Lzma {
				return
			}

			corrupted := bytes.Clone(compressed)
			for i := len(corrupted) / 2; i < len(corrupted)/2+16; i++ {
				corrupted[i] ^= 0x55
			}
			_, err = decode(corrupted, DecoderOptions{Format: format})
			assert.Truef(t, IsKind(err, CorruptData), "decode() corrupted error = %v", err)
		})
	}
}

func TestDecoder_Concatenated(t *testing.T) {
	for _, format := range []Format{Xz, Gzip} {
		t.Run(format.String(), func(t *testing.T) {
			a := encode(t, []byte("hello, "), EncoderOptions{Format: format, Level: 6})
			b := encode(t, []byte("world"), EncoderOptions{Format: format, Level: 6})
			data := append(bytes.Clone(a), b...)

			got, err := decode(data, DecoderOptions{Format: Auto, Flags: Concatenated})
			assert.NoError(t, err)
			assert.Equal(t, "hello, world", string(got))

			got, err = decode(data, DecoderOptions{Format: Auto, Flags: SingleStream})
			assert.NoError(t, err)
			assert.Equal(t, "hello, ", string(got))
		})
	}
}

func TestDecoder_LzmaTrailingGarbage(t *testing.T) {
	compressed := encode(t, []byte(fox), EncoderOptions{Format: Lzma, Level: 6})
	garbage := append(bytes.Clone(compressed), bytes.Repeat([]byte{0xa5}, 16)...)

	_, err := decode(garbage, DecoderOptions{Format: Auto, Flags: Concatenated})
	assert.Truef(t, IsKind(err, CorruptData), "decode() error = %v", err)

	got, err := decode(garbage, DecoderOptions{Format: Auto, Flags: SingleStream})
	assert.NoError(t, err)
	assert.Equal(t, fox, string(got))
}

func TestDecoder_Memlimit(t *testing.T) {
	data := bytes.Repeat([]byte{0}, 1<<20)

	tests := []struct {
		name    string
		format  Format
		limit   uint64
		wantErr bool
	}{
		{name: "xz 1KiB", format: Xz, limit: 1 << 10, wantErr: true},
		{name: "xz 7MiB", format: Xz, limit: 7 << 20, wantErr: true},
		{name: "xz 16MiB", format: Xz, limit: 16 << 20},
		{name: "xz unlimited", format: Xz},
		{name: "lzma 1KiB", format: Lzma, limit: 1 << 10, wantErr: true},
		{name: "lzma 16MiB", format: Lzma, limit: 16 << 20},
		{name: "gzip 1KiB", format: Gzip, limit: 1 << 10, wantErr: true},
		{name: "gzip 1MiB", format: Gzip, limit: 1 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := encode(t, data, EncoderOptions{Format: tt.format, Level: 6})

			got, err := decode(compressed, DecoderOptions{Format: Auto, MemoryLimit: tt.limit})
			if !tt.wantErr {
				assert.NoError(t, err)
				assert.Equal(t, data, got)
				return
			}

			assert.Truef(t, IsKind(err, MemlimitExceeded), "decode() error = %v", err)
			assert.Contains(t, err.Error(), "Memory usage limit reached")
		})
	}
}

func TestMemUsage_XzDictionary(t *testing.T) {
	compressed := encode(t, []byte(fox), EncoderOptions{Format: Xz, Level: 9})

	got, err := MemUsage(bufio.NewReader(bytes.NewReader(compressed)), Xz, 1)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, got, uint64(64<<20))
}

func TestDecoder_UnsupportedCheck(t *testing.T) {
	compressed := bytes.Clone(encode(t, []byte(fox), EncoderOptions{Format: Xz}))

	// check ID 2 is reserved.
	compressed[7] = 0x02
	binary.LittleEndian.PutUint32(compressed[8:12], crc32.ChecksumIEEE(compressed[6:8]))

	_, err := decode(compressed, DecoderOptions{Format: Auto})
	assert.Truef(t, IsKind(err, UnsupportedCheck), "decode() error = %v", err)
}

func TestEncoder_Flush(t *testing.T) {
	for _, format := range []Format{Xz, Gzip} {
		for _, action := range []Action{SyncFlush, FullFlush, FullBarrier} {
			t.Run(format.String()+" "+action.String(), func(t *testing.T) {
				var buf bytes.Buffer
				enc, err := NewEncoder(&buf, EncoderOptions{Format: format, Level: 6})
				require.NoError(t, err)

				_, state, err := enc.Process([]byte("hello, "), action)
				assert.NoError(t, err)
				assert.Equal(t, NeedMore, state)

				_, state, err = enc.Process([]byte("world"), Finish)
				assert.NoError(t, err)
				assert.Equal(t, Done, state)

				got, err := decode(buf.Bytes(), DecoderOptions{Format: Auto, Flags: Concatenated})
				assert.NoError(t, err)
				assert.Equal(t, "hello, world", string(got))
			})
		}
	}
}

func TestEncoder_Sequencing(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, EncoderOptions{Format: Xz, Level: 6})
	require.NoError(t, err)

	_, state, err := enc.Process([]byte(fox), Finish)
	assert.NoError(t, err)
	assert.Equal(t, Done, state)

	_, _, err = enc.Process(nil, Finish)
	assert.Truef(t, IsKind(err, ProgrammingError), "Process() after Finish error = %v", err)

	_, err = enc.Write([]byte(fox))
	assert.Truef(t, IsKind(err, ProgrammingError), "Write() after Finish error = %v", err)

	// Close after Finish is a no-op.
	assert.NoError(t, enc.Close())

	// lzma cannot flush.
	enc, err = NewEncoder(io.Discard, EncoderOptions{Format: Lzma, Level: 6})
	require.NoError(t, err)
	assert.Truef(t, IsKind(enc.Flush(FullFlush), ProgrammingError), "Flush() lzma")

	_, err = NewEncoder(io.Discard, EncoderOptions{Format: Xz, Level: 10})
	assert.Truef(t, IsKind(err, ProgrammingError), "NewEncoder() level 10 error = %v", err)
}

func TestDecoder_DoneOnce(t *testing.T) {
	compressed := encode(t, []byte(fox), EncoderOptions{Format: Xz, Level: 6})

	dec, err := NewDecoder(context.Background(), bytes.NewReader(compressed), DecoderOptions{})
	require.NoError(t, err)
	assert.Equal(t, Xz, dec.Format())

	got, err := io.ReadAll(dec)
	assert.NoError(t, err)
	assert.Equal(t, fox, string(got))
	assert.Equal(t, Done, dec.State())

	n, err := dec.Read(make([]byte, 16))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	assert.NoError(t, dec.Close())
	_, err = dec.Read(make([]byte, 16))
	assert.Truef(t, IsKind(err, ProgrammingError), "Read() after Close error = %v", err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestIoWithinCodec(t *testing.T) {
	enc, err := NewEncoder(failingWriter{}, EncoderOptions{Format: Gzip, Level: 6})
	require.NoError(t, err)
	_, _, err = enc.Process(bytes.Repeat([]byte(fox), 1000), Finish)
	assert.Truef(t, IsKind(err, IoWithinCodec), "Process() error = %v", err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	_, err = NewDecoder(context.Background(), failingReader{}, DecoderOptions{})
	assert.Truef(t, IsKind(err, IoWithinCodec), "NewDecoder() error = %v", err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestParseLzma1Options(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    *Lzma1Options
		wantErr bool
	}{
		{
			name: "preset only",
			s:    "preset=1",
			want: DefaultLzma1Options(1, false),
		},
		{
			name: "everything",
			s:    "preset=6e,dict=64MiB,lc=1,lp=3,pb=0,mf=hc4,nice=64,depth=0",
			want: &Lzma1Options{DictCap: 64 << 20, LC: 1, LP: 3, PB: 0, MatchFinder: DefaultLzma1Options(0, false).MatchFinder, Nice: 64},
		},
		{
			name: "dict in KiB",
			s:    "dict=4096KiB",
			want: &Lzma1Options{DictCap: 4 << 20, LC: 3, LP: 0, PB: 2, MatchFinder: DefaultLzma1Options(6, false).MatchFinder},
		},
		{name: "lc+lp too large", s: "lc=4,lp=1", wantErr: true},
		{name: "unknown name", s: "foo=1", wantErr: true},
		{name: "missing value", s: "lc", wantErr: true},
		{name: "bad preset", s: "preset=10", wantErr: true},
		{name: "dict too small", s: "dict=1K", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLzma1Options(tt.s)
			if tt.wantErr {
				assert.Errorf(t, err, "ParseLzma1Options(%q) should fail", tt.s)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormatAndCheck(t *testing.T) {
	for s, want := range map[string]Format{"auto": Auto, "xz": Xz, "LZMA": Lzma, "alone": Lzma, "gzip": Gzip} {
		got, err := ParseFormat(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("zstd")
	assert.Error(t, err)

	for s, want := range map[string]Check{"none": None, "crc32": Crc32, "CRC64": Crc64, "sha256": Sha256} {
		got, err := ParseCheck(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = ParseCheck("md5")
	assert.Error(t, err)
}
