// Command xz compresses and decompresses .xz and .lzma files.
//
// When installed under another name (unxz, xzcat, lzma, unlzma, lzcat), xz behaves like that command.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyengg/xzutils/internal/cli"
)

func main() {
	name := strings.TrimSuffix(filepath.Base(os.Args[0]), ".exe")
	if fe := cli.Lookup(name); fe != nil {
		cli.Main(fe)
		return
	}

	cli.Main(cli.Xz)
}
