// Package detemplater reverses internal/templater: it reconstructs an
// instr.Buffer from a templater.Set.
package detemplater

import (
	"fmt"

	"github.com/eshc-lang/eshc/internal/instr"
	"github.com/eshc-lang/eshc/internal/templater"
)

// Unpack rebuilds a flat instruction stream from set (placing each
// codeline's template instructions in set.Order, preceded by the Func and
// Param segments) and parses it back into a Buffer.
func Unpack(set *templater.Set) (*instr.Buffer, error) {
	byID := make(map[string][]instr.Instruction, len(set.Templates))
	for _, tpl := range set.Templates {
		byID[tpl.ID] = tpl.Instructions
	}

	flat := []instr.Instruction{{Action: instr.ActionSegFunc}}
	flat = append(flat, set.FuncSeg...)
	flat = append(flat, instr.Instruction{Action: instr.ActionSegParam})
	flat = append(flat, set.ParamSeg...)
	flat = append(flat, instr.Instruction{Action: instr.ActionSegCode})

	for i, id := range set.Order {
		body, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("detemplater: codeline %d references unknown template %q", i, id)
		}
		flat = append(flat, body...)
	}

	return instr.ParseBuffer(flat)
}
