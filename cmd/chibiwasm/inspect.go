package main

import (
	"fmt"
	"io"
	"os"

	"github.com/skanehira/chibiwasm/internal/wasm"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var disasm bool
	var noNames bool
	cmd := &cobra.Command{
		Use:   "inspect <module.wasm>",
		Short: "Print a decoded module's sections, imports, and exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectModule(cmd.OutOrStdout(), args[0], disasm, noNames)
		},
	}
	cmd.Flags().BoolVar(&disasm, "disasm", false, "also print a flat opcode listing for every function body")
	cmd.Flags().BoolVar(&noNames, "no-names", false, "ignore the \"name\" custom section, printing func[N] labels only")
	return cmd
}

func inspectModule(stdout io.Writer, path string, disasm, noNames bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cfg := wasm.NewRuntimeConfig(wasm.WithFuncNames(!noNames))
	mod, err := wasm.LoadModuleWithConfig(f, cfg)
	if err != nil {
		return err
	}

	rep := wasm.Inspect(mod)

	fmt.Fprintf(stdout, "types: %d\n", len(rep.Types))
	for i, t := range rep.Types {
		fmt.Fprintf(stdout, "  [%d] %s\n", i, t)
	}

	fmt.Fprintf(stdout, "funcs: %d, tables: %d, memories: %d, globals: %d, elements: %d, data: %d\n",
		rep.Funcs, rep.Tables, rep.Memories, rep.Globals, rep.Elements, rep.Data)
	if rep.Start != nil {
		fmt.Fprintf(stdout, "start: func[%d]\n", *rep.Start)
	}

	fmt.Fprintf(stdout, "imports: %d\n", len(rep.Imports))
	for _, imp := range rep.Imports {
		fmt.Fprintf(stdout, "  %s.%s: %s %s\n", imp.Module, imp.Field, imp.Kind, imp.Type)
	}

	fmt.Fprintf(stdout, "exports: %d\n", len(rep.Exports))
	for _, exp := range rep.Exports {
		fmt.Fprintf(stdout, "  %s: %s %s\n", exp.Name, exp.Kind, exp.Type)
	}

	if disasm {
		for i, code := range mod.Code {
			funcIdx := uint32(mod.NumImportedFuncs() + i)
			listing, err := wasm.Disassemble(code)
			if err != nil {
				return fmt.Errorf("disassemble %s: %w", mod.FuncName(funcIdx), err)
			}
			fmt.Fprintf(stdout, "\n%s:\n%s", mod.FuncName(funcIdx), listing)
		}
	}

	return nil
}
