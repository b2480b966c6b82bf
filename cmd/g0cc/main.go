// Command g0cc compiles a single source file to a bytecode image.
package main

import (
	"flag"
	"fmt"
	"os"

	"g0c/pkg/codegen"
	"g0c/pkg/lexer"
	"g0c/pkg/parser"
	"g0c/pkg/utils"
)

const version = "g0cc 0.1.0"

func main() {
	var (
		out         = flag.String("o", "", "output bytecode file (default: <input>.g0b)")
		showVersion = flag.Bool("version", false, "print version and exit")
		verbose     = flag.Bool("d", false, "print codegen warnings to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: g0cc [-o output] [-d] [-h|--help] [--version] <source.cpp>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath, _, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cc:", err)
		os.Exit(1)
	}
	outputPath := *out
	if outputPath == "" {
		outputPath = flag.Arg(0) + ".g0b"
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cc:", err)
		os.Exit(1)
	}

	tokens, lexErrs := lexer.Lex(string(src), inputPath)
	for _, e := range lexErrs {
		fmt.Fprintln(os.Stderr, "g0cc: lex error:", e)
	}
	if len(lexErrs) > 0 {
		os.Exit(1)
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cc: parse error:", err)
		os.Exit(1)
	}

	img, warnings, err := codegen.Generate(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cc: codegen error:", err)
		os.Exit(1)
	}
	if *verbose {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "g0cc: warning:", w)
		}
	}

	if err := os.WriteFile(outputPath, img.Encode(), 0644); err != nil {
		fmt.Fprintln(os.Stderr, "g0cc:", err)
		os.Exit(1)
	}
}
