package cli

import (
	"fmt"

	"github.com/nguyengg/xzutils/codec"
	"github.com/nguyengg/xzutils/internal/config"
)

// options is implemented by the option struct of each family.
type options interface {
	// apply copies the parsed values to cfg.
	apply(cfg *config.Config) error
	// argfiles returns the values of --files and --files0, empty if not given.
	argfiles() (files, files0 string)
	version() bool
}

// state receives the options whose order matters, such as -9 followed by -1, or that accumulate, such as -q -q.
//
// The same state is used while parsing the environment variables and then the command line, so later options override
// earlier ones.
type state struct {
	mode    config.Mode
	level   int
	quiet   int
	verbose int
	memory  string
	noName  bool
}

func (st *state) setMode(mode config.Mode) func() {
	return func() {
		st.mode = mode
	}
}

func (st *state) setLevel(level int) func() {
	return func() {
		st.level = level
	}
}

func (st *state) setMemory(s string) {
	st.memory = s
}

func (st *state) apply(cfg *config.Config) (err error) {
	cfg.Mode = st.mode
	if st.level != config.LevelUnset {
		cfg.Level = st.level
	}

	cfg.Quiet = st.quiet
	cfg.Verbose = st.verbose > 0
	cfg.NoName = st.noName

	if st.memory != "" {
		if cfg.MemoryLimit, err = config.ParseMemoryLimit(st.memory); err != nil {
			return err
		}
	}

	return nil
}

type xzOptions struct {
	Compress   func() `short:"z" long:"compress" description:"force compression"`
	Decompress func() `short:"d" long:"decompress" description:"force decompression"`
	Uncompress func() `long:"uncompress" hidden:"yes"`
	Test       func() `short:"t" long:"test" description:"test compressed file integrity"`
	List       func() `short:"l" long:"list" description:"list information about .xz files (not implemented)"`

	Keep         bool   `short:"k" long:"keep" description:"keep (don't delete) input files"`
	Force        bool   `short:"f" long:"force" description:"force overwrite of output file and (de)compress links"`
	Stdout       bool   `short:"c" long:"stdout" description:"write to standard output and don't delete input files"`
	ToStdout     bool   `long:"to-stdout" hidden:"yes"`
	SingleStream bool   `long:"single-stream" description:"decompress only the first stream, and silently ignore possible remaining input data"`
	NoSparse     bool   `long:"no-sparse" description:"do not create sparse files when decompressing"`
	Suffix       string `short:"S" long:"suffix" value-name:".SUF" description:"use the suffix '.SUF' on compressed files"`
	Files        string `long:"files" optional:"yes" optional-value:"-" value-name:"FILE" description:"read filenames to process from FILE; if FILE is omitted, filenames are read from the standard input; filenames must be terminated with the newline character"`
	Files0       string `long:"files0" optional:"yes" optional-value:"-" value-name:"FILE" description:"like --files but use the null character as terminator"`

	Format      string `short:"F" long:"format" choice:"auto" choice:"xz" choice:"lzma" choice:"alone" value-name:"FMT" description:"file format to encode or decode"`
	Check       string `short:"C" long:"check" choice:"none" choice:"crc32" choice:"crc64" choice:"sha256" value-name:"CHECK" description:"integrity check type"`
	IgnoreCheck bool   `long:"ignore-check" description:"don't verify the integrity check when decompressing"`

	Level0  func() `short:"0" description:"compression preset 0 (fastest)"`
	Level1  func() `short:"1" hidden:"yes"`
	Level2  func() `short:"2" hidden:"yes"`
	Level3  func() `short:"3" hidden:"yes"`
	Level4  func() `short:"4" hidden:"yes"`
	Level5  func() `short:"5" hidden:"yes"`
	Level6  func() `short:"6" description:"compression preset 6 (default)"`
	Level7  func() `short:"7" hidden:"yes"`
	Level8  func() `short:"8" hidden:"yes"`
	Level9  func() `short:"9" description:"compression preset 9 (best)"`
	Fast    func() `long:"fast" description:"alias of -0"`
	Best    func() `long:"best" description:"alias of -9"`
	Extreme bool   `short:"e" long:"extreme" description:"try to improve compression ratio by using more CPU time; does not affect decompressor memory requirements"`

	Threads            int          `short:"T" long:"threads" value-name:"NUM" description:"use at most NUM threads; only gzip uses more than one"`
	BlockSize          string       `long:"block-size" value-name:"SIZE" description:"start a new .xz block after every SIZE bytes of input"`
	Memory             func(string) `short:"M" long:"memlimit" value-name:"LIMIT" description:"set memory usage limit for decompression"`
	MemoryAlias        func(string) `long:"memory" hidden:"yes"`
	MemlimitDecompress func(string) `long:"memlimit-decompress" hidden:"yes"`
	Lzma1              string       `long:"lzma1" value-name:"OPTS" description:"LZMA1 options, e.g. preset=6e,dict=8MiB,lc=3,lp=0,pb=2,mf=bt4,mode=normal,nice=64,depth=0"`

	Quiet   func() `short:"q" long:"quiet" description:"suppress warnings; specify twice to suppress errors too"`
	Verbose func() `short:"v" long:"verbose" description:"be verbose"`
	NoWarn  bool   `short:"Q" long:"no-warn" description:"make warnings not affect the exit status"`
	Version bool   `short:"V" long:"version" description:"display the version number and exit"`
}

func newXzOptions(st *state) *xzOptions {
	return &xzOptions{
		Compress:           st.setMode(config.Compress),
		Decompress:         st.setMode(config.Decompress),
		Uncompress:         st.setMode(config.Decompress),
		Test:               st.setMode(config.Test),
		List:               st.setMode(config.List),
		Level0:             st.setLevel(0),
		Level1:             st.setLevel(1),
		Level2:             st.setLevel(2),
		Level3:             st.setLevel(3),
		Level4:             st.setLevel(4),
		Level5:             st.setLevel(5),
		Level6:             st.setLevel(6),
		Level7:             st.setLevel(7),
		Level8:             st.setLevel(8),
		Level9:             st.setLevel(9),
		Fast:               st.setLevel(0),
		Best:               st.setLevel(9),
		Memory:             st.setMemory,
		MemoryAlias:        st.setMemory,
		MemlimitDecompress: st.setMemory,
		Quiet:              func() { st.quiet++ },
		Verbose:            func() { st.verbose++ },
	}
}

func (o *xzOptions) apply(cfg *config.Config) (err error) {
	cfg.Keep = cfg.Keep || o.Keep
	cfg.Force = o.Force
	cfg.Stdout = cfg.Stdout || o.Stdout || o.ToStdout
	cfg.SingleStream = o.SingleStream
	cfg.Sparse = !o.NoSparse
	cfg.Suffix = o.Suffix
	cfg.IgnoreCheck = o.IgnoreCheck
	cfg.Extreme = o.Extreme
	cfg.Threads = o.Threads
	cfg.NoWarn = o.NoWarn

	if o.Format != "" {
		if cfg.Format, err = codec.ParseFormat(o.Format); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidOption, err)
		}
	}

	if o.Check != "" {
		if cfg.Check, err = codec.ParseCheck(o.Check); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidOption, err)
		}
	}

	if o.BlockSize != "" {
		n, err := config.ParseMemoryLimit(o.BlockSize)
		if err != nil || n == 0 || n > 1<<62 {
			return fmt.Errorf("%w: --block-size=%s", config.ErrInvalidOption, o.BlockSize)
		}
		cfg.BlockSize = int64(n)
	}

	if o.Lzma1 != "" {
		if cfg.Lzma1, err = codec.ParseLzma1Options(o.Lzma1); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidOption, err)
		}
	}

	return nil
}

func (o *xzOptions) argfiles() (string, string) {
	return o.Files, o.Files0
}

func (o *xzOptions) version() bool {
	return o.Version
}

type gzipOptions struct {
	Compress   func() `short:"z" long:"compress" description:"compress"`
	Decompress func() `short:"d" long:"decompress" description:"decompress"`
	Uncompress func() `long:"uncompress" hidden:"yes"`
	Test       func() `short:"t" long:"test" description:"test compressed file integrity"`

	Stdout   bool   `short:"c" long:"stdout" description:"write on standard output, keep original files unchanged"`
	ToStdout bool   `long:"to-stdout" hidden:"yes"`
	Keep     bool   `short:"k" long:"keep" description:"keep (don't delete) input files"`
	Force    bool   `short:"f" long:"force" description:"force overwrite of output file and compress links"`
	Suffix   string `short:"S" long:"suffix" value-name:"SUF" description:"use suffix SUF on compressed files"`
	NoName   func() `short:"n" long:"no-name" description:"do not save the original name and timestamp"`
	Name     func() `short:"N" long:"name" description:"save the original name and timestamp (default)"`
	NoSparse bool   `long:"no-sparse" description:"do not create sparse files when decompressing"`
	Threads  int    `short:"T" long:"threads" value-name:"NUM" description:"compress with NUM threads"`

	Level1 func() `short:"1" description:"compress faster"`
	Level2 func() `short:"2" hidden:"yes"`
	Level3 func() `short:"3" hidden:"yes"`
	Level4 func() `short:"4" hidden:"yes"`
	Level5 func() `short:"5" hidden:"yes"`
	Level6 func() `short:"6" hidden:"yes"`
	Level7 func() `short:"7" hidden:"yes"`
	Level8 func() `short:"8" hidden:"yes"`
	Level9 func() `short:"9" description:"compress better"`
	Fast   func() `long:"fast" description:"alias of -1"`
	Best   func() `long:"best" description:"alias of -9"`

	Quiet   func() `short:"q" long:"quiet" description:"suppress all warnings"`
	Verbose func() `short:"v" long:"verbose" description:"verbose mode"`
	Version bool   `short:"V" long:"version" description:"display version number"`
}

func newGzipOptions(st *state) *gzipOptions {
	return &gzipOptions{
		Compress:   st.setMode(config.Compress),
		Decompress: st.setMode(config.Decompress),
		Uncompress: st.setMode(config.Decompress),
		Test:       st.setMode(config.Test),
		NoName:     func() { st.noName = true },
		Name:       func() { st.noName = false },
		Level1:     st.setLevel(1),
		Level2:     st.setLevel(2),
		Level3:     st.setLevel(3),
		Level4:     st.setLevel(4),
		Level5:     st.setLevel(5),
		Level6:     st.setLevel(6),
		Level7:     st.setLevel(7),
		Level8:     st.setLevel(8),
		Level9:     st.setLevel(9),
		Fast:       st.setLevel(1),
		Best:       st.setLevel(9),
		Quiet:      func() { st.quiet++ },
		Verbose:    func() { st.verbose++ },
	}
}

func (o *gzipOptions) apply(cfg *config.Config) error {
	cfg.Keep = cfg.Keep || o.Keep
	cfg.Force = o.Force
	cfg.Stdout = cfg.Stdout || o.Stdout || o.ToStdout
	cfg.Sparse = !o.NoSparse
	cfg.Suffix = o.Suffix
	cfg.Threads = o.Threads

	return nil
}

func (o *gzipOptions) argfiles() (string, string) {
	return "", ""
}

func (o *gzipOptions) version() bool {
	return o.Version
}

type xzdecOptions struct {
	Decompress bool         `short:"d" long:"decompress" description:"does nothing; always decompress"`
	Keep       bool         `short:"k" long:"keep" description:"does nothing; never delete input files"`
	Stdout     bool         `short:"c" long:"stdout" description:"does nothing; always write to standard output"`
	Memory     func(string) `short:"M" long:"memory" value-name:"LIMIT" description:"set memory usage limit"`
	Quiet      func()       `short:"q" long:"quiet" description:"specify *twice* to suppress errors"`
	NoWarn     bool         `short:"Q" long:"no-warn" description:"does nothing; warnings never affect the exit status"`
	Version    bool         `short:"V" long:"version" description:"display the version number and exit"`
}

func newXzdecOptions(st *state) *xzdecOptions {
	return &xzdecOptions{
		Memory: st.setMemory,
		Quiet:  func() { st.quiet++ },
	}
}

func (o *xzdecOptions) apply(cfg *config.Config) error {
	cfg.NoWarn = true
	return nil
}

func (o *xzdecOptions) argfiles() (string, string) {
	return "", ""
}

func (o *xzdecOptions) version() bool {
	return o.Version
}
