// Command wasm-run inspects a core WebAssembly module and calls its exports.
//
//	wasm-run [flags] module.wasm [-- engine flags]
//
// Function imports are satisfied with stubs that log each call and return
// zero values. Engine flags after "--" are passed to runtime.NewEngine, for
// example --memory-limit-pages=16 or --config=engine.toml.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/runtime"
)

type options struct {
	file        string
	funcName    string
	args        []string
	engineArgs  []string
	list        bool
	interactive bool
	verbose     bool
}

func parseOptions(argv []string) (*options, error) {
	fs := pflag.NewFlagSet("wasm-run", pflag.ContinueOnError)
	opts := &options{}
	fs.StringVarP(&opts.funcName, "func", "f", "", "export to call")
	fs.StringArrayVarP(&opts.args, "arg", "a", nil, "argument for the call, repeatable (i32/i64/f32/f64 literal or null)")
	fs.BoolVarP(&opts.list, "list", "l", false, "list imports and exports and exit")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "pick and call exports in a TUI")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log engine and runtime activity")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: wasm-run [flags] module.wasm [-- engine flags]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	positional := fs.Args()
	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		opts.engineArgs = positional[dash:]
		positional = positional[:dash]
	}
	if len(positional) != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected one module file, got %d", len(positional))
	}
	opts.file = positional[0]
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			engine.SetLogger(l)
			runtime.SetLogger(l)
			defer func() { _ = l.Sync() }()
		}
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	sess, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer sess.close(ctx)

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Print(sess.describe(styled))

	if opts.list {
		return nil
	}

	name := opts.funcName
	if name == "" {
		name = sess.entryPoint()
		if name == "" {
			fmt.Println("\nNo function specified and no common entry point found.")
			fmt.Println("Use --func to specify a function to call.")
			return nil
		}
	}

	fmt.Printf("\nCalling %s(%s)...\n", name, joinArgs(opts.args))
	result, err := sess.call(ctx, name, opts.args)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	fmt.Printf("Result: %s\n", result)
	return nil
}
