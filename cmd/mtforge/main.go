// Package main is the single-binary entrypoint for mtforge, the
// offline translation model toolkit.
package main

import "github.com/mtforge/mtforge/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
