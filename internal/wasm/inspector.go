package wasm

import "fmt"

// ModuleReport is a read-only summary of a decoded module's shape: sections
// present, counts, and the signature of every import/export. It backs the
// `chibiwasm inspect` CLI subcommand and has no effect on instantiation or
// execution.
type ModuleReport struct {
	Types    []string
	Imports  []ImportReport
	Exports  []ExportReport
	Funcs    int // imported plus module-defined; the other counts are module-defined only
	Tables   int
	Memories int
	Globals  int
	Elements int
	Data     int
	Start    *uint32
}

// ImportReport describes one import in human-readable form.
type ImportReport struct {
	Module string
	Field  string
	Kind   string
	Type   string
}

// ExportReport describes one export in human-readable form.
type ExportReport struct {
	Name string
	Kind string
	Type string
}

// Inspect builds a ModuleReport from a decoded module, without instantiating
// it (no host registry or memory/table allocation is required).
func Inspect(mod *Module) *ModuleReport {
	rep := &ModuleReport{
		Funcs:    mod.NumImportedFuncs() + len(mod.FuncTypeIdx),
		Tables:   len(mod.Tables),
		Memories: len(mod.Memories),
		Globals:  len(mod.Globals),
		Elements: len(mod.Elements),
		Data:     len(mod.Data),
		Start:    mod.StartFunc,
	}

	for _, t := range mod.Types {
		rep.Types = append(rep.Types, t.String())
	}

	for _, imp := range mod.Imports {
		r := ImportReport{Module: imp.Module, Field: imp.Name}
		switch imp.Desc.Kind {
		case ImportKindFunc:
			r.Kind = "func"
			if int(imp.Desc.TypeIndex) < len(mod.Types) {
				r.Type = mod.Types[imp.Desc.TypeIndex].String()
			}
		case ImportKindTable:
			r.Kind = "table"
			r.Type = fmt.Sprintf("funcref min=%d", imp.Desc.TableType.Limits.Min)
		case ImportKindMem:
			r.Kind = "memory"
			r.Type = fmt.Sprintf("min=%d pages", imp.Desc.MemType.Min)
		case ImportKindGlobal:
			r.Kind = "global"
			r.Type = imp.Desc.GlobalType.ValType.String()
		}
		rep.Imports = append(rep.Imports, r)
	}

	for _, exp := range mod.Exports {
		r := ExportReport{Name: exp.Name, Kind: exp.Desc.Kind.String()}
		if exp.Desc.Kind == ExportKindFunc {
			if ft, err := mod.FuncTypeAt(exp.Desc.Index); err == nil {
				r.Type = ft.String()
			}
		}
		rep.Exports = append(rep.Exports, r)
	}

	return rep
}

// FuncName resolves a module-wide function index to its debug name from the
// "name" custom section, or a synthetic "func[N]" label if none was kept or
// present.
func (mod *Module) FuncName(index uint32) string {
	if mod.FuncNames != nil {
		if n, ok := mod.FuncNames[index]; ok && n != "" {
			return n
		}
	}
	return fmt.Sprintf("func[%d]", index)
}
