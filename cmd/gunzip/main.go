package main

import "github.com/nguyengg/xzutils/internal/cli"

func main() {
	cli.Main(cli.Gunzip)
}
