// Package templater packs a compiled instr.Buffer into a set of template
// records, one per codeline, deduplicating content-identical codelines by
// BLAKE2b digest the way real block-based runtimes share one placed
// template for identical code (see SPEC_FULL.md §6.5). Its companion,
// internal/detemplater, reverses the process.
package templater

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/eshc-lang/eshc/internal/asmtext"
	"github.com/eshc-lang/eshc/internal/instr"
)

// Template is one deduplicated codeline body, content-addressed by ID.
type Template struct {
	ID           string
	Instructions []instr.Instruction
}

// Set is a packed buffer: the func/param segments (kept as-is, they rarely
// repeat enough to be worth deduplicating) plus a deduplicated template
// table and the per-codeline order in which templates are placed.
type Set struct {
	FuncSeg   []instr.Instruction
	ParamSeg  []instr.Instruction
	Templates []Template
	Order     []string // one entry per codeline, in buf.Codelines order
}

// Pack builds a Set from buf, assigning each distinct codeline body exactly
// one Template and recording repeats in Order.
func Pack(buf *instr.Buffer) *Set {
	set := &Set{FuncSeg: buf.FuncSeg, ParamSeg: buf.ParamSeg}
	seen := map[string]string{}

	for _, cl := range buf.Codelines {
		flat := cl.ToInstructions()
		digest := digestOf(flat)
		id, ok := seen[digest]
		if !ok {
			id = fmt.Sprintf("tpl_%s", digest[:16])
			seen[digest] = id
			set.Templates = append(set.Templates, Template{ID: id, Instructions: flat})
		}
		set.Order = append(set.Order, id)
	}
	return set
}

func digestOf(flat []instr.Instruction) string {
	sum := blake2b.Sum256([]byte(asmtext.Disassemble(flat)))
	return hex.EncodeToString(sum[:])
}
