// Optic CLI - translates level-one bytecode programs to optimized
// level-two chunks.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/optic/manifest"
	"github.com/chazu/optic/pkg/codecache"
	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/l1"
	"github.com/chazu/optic/pkg/l2"
	"github.com/chazu/optic/pkg/object"
	"github.com/chazu/optic/pkg/wire"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fatal(err)
	}
	if m == nil {
		m = &manifest.Manifest{Cache: manifest.Cache{Path: filepath.Join(".optic", "cache.db")}}
	}
	configureLogging(m.Log.Level)

	switch flag.Arg(0) {
	case "compile":
		err = compile(m, flag.Args()[1:])
	case "disasm":
		err = disasm(flag.Args()[1:])
	case "cache":
		err = cache(m, flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: optic <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  compile <program>   Translate a level-one program to a level-two chunk\n")
	fmt.Fprintf(os.Stderr, "  disasm <file>       Disassemble a level-one program or level-two chunk\n")
	fmt.Fprintf(os.Stderr, "  cache stats|purge   Inspect or clear the compiled-code cache\n\n")
	fmt.Fprintf(os.Stderr, "Configuration is read from the nearest optic.toml, if any.\n")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func configureLogging(level string) {
	verbosity := 1
	switch level {
	case "error":
		verbosity = 0
	case "debug":
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
}

// builtinTable is the dispatch environment programs compile against: checked
// integer arithmetic and string concatenation. A front end would install its
// own definitions; the CLI ships just enough to exercise real programs.
func builtinTable() (*dispatch.Table, error) {
	table := dispatch.NewTable()

	intBinop := func(name string, fn func(a, b int64) int64) *object.Function {
		return object.NewPrimitive(name, object.Integer, func(args []object.Value) (object.Value, error) {
			a := args[0].(object.IntValue)
			b := args[1].(object.IntValue)
			wide := fn(int64(a), int64(b))
			if int64(int32(wide)) != wide {
				return nil, fmt.Errorf("%s: result %d out of int32 range", name, wide)
			}
			return object.IntValue(wide), nil
		})
	}

	defs := []struct {
		bundle string
		params []object.Type
		body   *object.Function
	}{
		{"_+_", []object.Type{object.Integer, object.Integer},
			intBinop("int-add", func(a, b int64) int64 { return a + b })},
		{"_-_", []object.Type{object.Integer, object.Integer},
			intBinop("int-subtract", func(a, b int64) int64 { return a - b })},
		{"_+_", []object.Type{object.Str, object.Str},
			object.NewPrimitive("str-concat", object.Str, func(args []object.Value) (object.Value, error) {
				a := args[0].(object.StringValue)
				b := args[1].(object.StringValue)
				return object.StringValue(string(a) + string(b)), nil
			})},
	}
	for _, d := range defs {
		if _, err := table.AddDefinition(d.bundle, dispatch.NewDefinition(d.params, d.body)); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func compilerOptions(m *manifest.Manifest) l2.Options {
	return l2.Options{
		FoldBranches:      m.Compiler.FoldBranchesEnabled(),
		FoldConstants:     m.Compiler.FoldConstantsEnabled(),
		InlineMonomorphic: m.Compiler.InlineMonomorphicEnabled(),
		RemoveDeadCode:    m.Compiler.RemoveDeadCodeEnabled(),
	}
}

func compile(m *manifest.Manifest, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default: input with .l2c extension)")
	printOut := fs.Bool("print", false, "Print the disassembled result instead of writing it")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("compile takes exactly one program file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src, err := wire.DecodeProgram(data, wire.BuiltinTypes())
	if err != nil {
		return err
	}
	table, err := builtinTable()
	if err != nil {
		return err
	}

	var chunk *l2.Chunk
	if m.Cache.Enabled {
		cache, err := codecache.Open(m.CachePath())
		if err != nil {
			return err
		}
		defer cache.Close()
		chunk, err = cache.Translate(src, table, compilerOptions(m), wire.BuiltinTypes())
		if err != nil {
			return err
		}
	} else {
		chunk, err = l2.Translate(src, table, compilerOptions(m))
		if err != nil {
			return err
		}
	}

	if *printOut {
		fmt.Print(l2.Disassemble(chunk))
		return nil
	}

	encoded, err := wire.EncodeChunk(chunk)
	if err != nil {
		return err
	}
	out := *output
	if out == "" {
		out = withExtension(path, ".l2c")
	}
	return os.WriteFile(out, encoded, 0644)
}

func disasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("disasm takes exactly one file")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if src, err := wire.DecodeProgram(data, wire.BuiltinTypes()); err == nil {
		fmt.Print(l1.Disassemble(src))
		return nil
	}
	table, err := builtinTable()
	if err != nil {
		return err
	}
	chunk, err := wire.DecodeChunk(data, table, wire.BuiltinTypes())
	if err != nil {
		return fmt.Errorf("not a recognizable program or chunk: %w", err)
	}
	fmt.Print(l2.Disassemble(chunk))
	return nil
}

func cache(m *manifest.Manifest, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cache takes a subcommand: stats or purge")
	}
	c, err := codecache.Open(m.CachePath())
	if err != nil {
		return err
	}
	defer c.Close()

	switch args[0] {
	case "stats":
		stats, err := c.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("%d chunks, %d bytes\n", stats.Chunks, stats.Bytes)
		return nil
	case "purge":
		return c.Purge()
	default:
		return fmt.Errorf("unknown cache subcommand %q", args[0])
	}
}

func withExtension(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
