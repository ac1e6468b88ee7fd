package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/smartmodule/envelope"
)

func main() {
	opts := &options{params: envelope.Params{}}
	var (
		list        = flag.Bool("list", false, "List the module's entry points and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.StringVar(&opts.wasmFile, "wasm", "", "Path to SmartModule wasm file")
	flag.StringVar(&opts.kind, "kind", "", "Entry point to invoke (filter, map, filter_map, array_map, join)")
	flag.StringVar(&opts.configFile, "config", "", "SPU configuration file (TOML)")
	flag.StringVar(&opts.join, "join", "", "Value of the join record")
	flag.Int64Var(&opts.baseOffset, "base-offset", 0, "Offset of the first record")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Func("param", "SmartModule parameter key=value (repeatable)", func(kv string) error {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("want key=value, got %q", kv)
		}
		opts.params[key] = value
		return nil
	})
	flag.Parse()

	if opts.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: smartmodule -wasm <file.wasm> [-kind join] [-join value] [-param k=v ...] < records")
		fmt.Fprintln(os.Stderr, "       smartmodule -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       smartmodule -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options, listOnly bool) error {
	ctx := context.Background()
	log := newLogger(opts.verbose)
	defer log.Sync()

	s, err := openSession(ctx, opts, log)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if listOnly {
		fmt.Printf("SmartModule: %s\n", opts.wasmFile)
		for _, k := range s.module.Kinds() {
			fmt.Printf("  %s\n", k)
		}
		return nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Reading records from the terminal, one per line. Ctrl-D to finish.")
	}
	values, err := readLines(os.Stdin)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	out, err := s.process(ctx, values)
	if err != nil {
		return err
	}
	return printOutput(os.Stdout, os.Stderr, out)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func printOutput(stdout, stderr io.Writer, out *envelope.Output) error {
	for _, rec := range out.Successes {
		fmt.Fprintln(stdout, formatRecord(rec.Key, rec.Value))
	}
	if out.Error != nil {
		fmt.Fprintf(stderr, "record at offset %d rejected: %s\n", out.Error.AbsoluteOffset(), out.Error.Hint)
		return fmt.Errorf("processing stopped after %d records", len(out.Successes))
	}
	return nil
}

func formatRecord(key, value []byte) string {
	if key == nil {
		return string(value)
	}
	return string(key) + "\t" + string(value)
}
