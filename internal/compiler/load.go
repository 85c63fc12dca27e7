package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/logictree/internal/ir"
)

// LoadDir loads the CUE package in dir and compiles every tree declared
// under its logicTree field, in declaration order. Each tree's BaseDir is
// dir, so relative file references resolve next to the descriptions.
func LoadDir(dir string) ([]ir.LogicTreeSpec, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("load %s: no CUE instances", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, formatCUEError(inst.Err))
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, formatCUEError(err))
	}
	specs, err := CompileAll(value)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	for i := range specs {
		specs[i].BaseDir = dir
	}
	return specs, nil
}

// CompileAll compiles every tree under the logicTree field of v.
func CompileAll(v cue.Value) ([]ir.LogicTreeSpec, error) {
	trees := v.LookupPath(cue.ParsePath("logicTree"))
	if !trees.Exists() {
		return nil, &CompileError{Field: "logicTree", Message: "no logic trees declared", Pos: v.Pos()}
	}
	iter, err := trees.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []ir.LogicTreeSpec
	for iter.Next() {
		spec, err := CompileLogicTree(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("logicTree.%s: %w", iter.Selector().Unquoted(), err)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}
