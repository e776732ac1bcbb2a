package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/khushi-411/onnxscript/compiler"
	"github.com/khushi-411/onnxscript/lexer"
	"github.com/khushi-411/onnxscript/parser"
	"github.com/khushi-411/onnxscript/schema"
)

const scriptSuffix = ".osc"

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	noCache := flag.Bool("nocache", false, "always recompile, ignoring the graph cache")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "usage: onnxscript [flags] file%s...\n", scriptSuffix)
		os.Exit(2)
	}

	cache, err := openCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache unavailable: %v\n", err)
	}

	exit := 0
	for _, file := range files {
		if !strings.HasSuffix(file, scriptSuffix) {
			fmt.Fprintf(os.Stderr, "%s: script files must end in %s\n", file, scriptSuffix)
			exit = 1
			continue
		}
		if err := compileFile(file, cache, *noCache); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func compileFile(file string, cache *graphCache, noCache bool) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	if cache != nil && !noCache {
		if text, ok := cache.load(file, source); ok {
			fmt.Print(text)
			return nil
		}
	}

	l := lexer.New(file, string(source))
	p := parser.New(l)
	module := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", file, e)
		}
		return fmt.Errorf("%d parse errors", len(errs))
	}

	c := compiler.New(schema.Default())
	funcs, err := c.Translate(module)
	for _, w := range c.Warnings {
		fmt.Fprintf(os.Stderr, "%s: warning: %s\n", file, w)
	}
	if err != nil {
		return err
	}

	var sb strings.Builder
	for i, fn := range funcs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fn.String())
	}
	text := sb.String()
	fmt.Print(text)

	if cache != nil {
		if err := cache.store(file, source, text); err != nil {
			fmt.Fprintf(os.Stderr, "%s: cache write failed: %v\n", file, err)
		}
	}
	return nil
}
