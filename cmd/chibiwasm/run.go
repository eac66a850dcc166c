package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/skanehira/chibiwasm/internal/wasm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(newLogger func() *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <module.wasm> <export> [args...]",
		Short: "Instantiate a module and invoke one of its exported functions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(cmd.OutOrStdout(), newLogger(), args[0], args[1], args[2:])
		},
	}
	return cmd
}

func runModule(stdout io.Writer, log *zap.Logger, path, export string, rawArgs []string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	mod, err := wasm.LoadModule(f)
	if err != nil {
		return err
	}

	store := wasm.NewStore(wasm.NewRuntimeConfig(wasm.WithLogger(log)))
	inst, err := store.Instantiate(mod, nil)
	if err != nil {
		return err
	}

	exp, ok := inst.Export(export)
	if !ok || exp.Kind != wasm.ExportKindFunc {
		return fmt.Errorf("module has no exported function %q", export)
	}
	addr := inst.FuncAddrs[exp.Index]
	sig := store.Funcs[addr].Type

	if len(rawArgs) != len(sig.Params) {
		return fmt.Errorf("%s expects %d argument(s), got %d", export, len(sig.Params), len(rawArgs))
	}
	argVals := make([]uint64, len(rawArgs))
	for i, raw := range rawArgs {
		v, err := parseArg(sig.Params[i], raw)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		argVals[i] = v.Bits()
	}

	results, err := store.CallFunc(inst, addr, argVals)
	if err != nil {
		return err
	}

	for i, r := range results {
		v := wasm.ValueFromBits(sig.Results[i], r)
		fmt.Fprintln(stdout, formatValue(v))
	}
	return nil
}

func parseArg(t wasm.ValueType, raw string) (wasm.Value, error) {
	switch t {
	case wasm.ValueTypeI32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.I32Value(int32(n)), nil
	case wasm.ValueTypeI64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.I64Value(n), nil
	case wasm.ValueTypeF32:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.F32Value(float32(f)), nil
	case wasm.ValueTypeF64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.F64Value(f), nil
	default:
		return wasm.Value{}, fmt.Errorf("unsupported parameter type %s", t)
	}
}

func formatValue(v wasm.Value) string {
	switch v.Type {
	case wasm.ValueTypeI32:
		return strconv.FormatInt(int64(v.I32()), 10)
	case wasm.ValueTypeI64:
		return strconv.FormatInt(v.I64(), 10)
	case wasm.ValueTypeF32:
		return strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	case wasm.ValueTypeF64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v.Bits())
	}
}
