package optimizer

import (
	"fmt"

	"github.com/eshc-lang/eshc/internal/instr"
)

// Settings controls which optimizer passes run, grounded on
// original_source/optimizer/src/optimizer_settings.rs's OptimizerSettings.
type Settings struct {
	RemoveEndReturns     bool
	MaxCodeblocksPerLine *int // nil disables line splitting
}

// maxSplitIterations bounds the per-branch split loop so pathological input
// cannot hang the optimizer; well-formed input converges far sooner, per
// spec.md §4.3 step 2(e).
const maxSplitIterations = 100

// splitPadding accounts for the inserted Call (in the kept head) and the
// extension's Func opener (in the moved tail) that every split adds.
const splitPadding = 2

// Optimizer runs the configured passes over an instr.Buffer in place.
type Optimizer struct {
	buf      *instr.Buffer
	settings Settings
}

func New(buf *instr.Buffer, settings Settings) *Optimizer {
	return &Optimizer{buf: buf, settings: settings}
}

// Optimize runs RemoveEndReturns (if enabled) followed by SplitLines (if a
// max is configured), matching optimizer.rs's optimize().
func (o *Optimizer) Optimize() error {
	if o.settings.RemoveEndReturns {
		o.RemoveEndReturns()
	}
	if o.settings.MaxCodeblocksPerLine != nil {
		return o.SplitLines(*o.settings.MaxCodeblocksPerLine)
	}
	return nil
}

// RemoveEndReturns scans every branch body (the root body of each codeline,
// and every nested Branch body) for the first Return action and truncates
// there. Root bodies delete the Return itself; nested bodies keep it and
// drop only what follows. This asymmetry is preserved verbatim from
// original_source/optimizer/src/optimizer.rs's remove_end_returns — see
// spec.md §9's Open Questions and DESIGN.md.
func (o *Optimizer) RemoveEndReturns() {
	for _, cl := range o.buf.Codelines {
		cl.RootBody = truncateAtFirstReturn(cl.RootBody, true)
		for i := range cl.Branches {
			cl.Branches[i].Body = truncateAtFirstReturn(cl.Branches[i].Body, false)
		}
	}
}

func truncateAtFirstReturn(body []instr.BranchLog, deleteReturn bool) []instr.BranchLog {
	for i, log := range body {
		if log.IsBranch {
			continue
		}
		for j, ins := range log.Codeblocks {
			if ins.Action != instr.ActionReturn {
				continue
			}
			cut := j
			if !deleteReturn {
				cut = j + 1
			}
			kept := append([]instr.BranchLog{}, body[:i]...)
			if cut > 0 {
				kept = append(kept, instr.Codeblocks(append([]instr.Instruction{}, log.Codeblocks[:cut]...)))
			}
			return kept
		}
	}
	return body
}

// varParam is one line-scoped variable forwarded across a split boundary,
// as both the original variable's ident and the synthesized/matched
// forwarding parameter's ident.
type varParam struct {
	VarIdent   uint32
	ParamIdent uint32
	Name       string
}

// getCodelineVars finds every line-scoped variable referenced anywhere in
// the codeline's instructions, matching against DP::Var definitions tagged
// Scope=Line in the param segment (original_source/optimizer/src/optimizer.rs's
// get_codeline_vars). For each referenced variable it resolves the DP::Param
// forwarding parameter already registered for it (tagged Type=Var, Var=<the
// variable's ident>), or synthesizes a fresh one if this is the variable's
// first crossing of a split boundary.
func (o *Optimizer) getCodelineVars(cl *instr.Codeline) []varParam {
	referenced := map[uint32]bool{}
	var walk func(body []instr.BranchLog)
	walk = func(body []instr.BranchLog) {
		for _, log := range body {
			if log.IsBranch {
				b := cl.Branches[log.BranchIndex]
				for _, p := range b.Root.Params {
					if p.Kind == instr.ParamIdent {
						referenced[p.Ident] = true
					}
				}
				walk(b.Body)
				continue
			}
			for _, ins := range log.Codeblocks {
				for _, p := range ins.Params {
					if p.Kind == instr.ParamIdent {
						referenced[p.Ident] = true
					}
				}
			}
		}
	}
	walk(cl.RootBody)

	var vars []varParam
	for _, ins := range o.buf.ParamSeg {
		if ins.Action != instr.ActionDPVar {
			continue
		}
		if scope, ok := ins.Tag("Scope"); !ok || scope != "Line" {
			continue
		}
		if len(ins.Params) == 0 || ins.Params[0].Kind != instr.ParamIdent {
			continue
		}
		varID := ins.Params[0].Ident
		if !referenced[varID] {
			continue
		}
		name, _ := ins.Tag("Name")
		paramID, found := o.findForwardingParam(varID)
		if !found {
			paramID = o.buf.NextIdent()
			o.buf.ParamSeg = append(o.buf.ParamSeg, instr.Instruction{
				Action: instr.ActionDPParam,
				Params: []instr.Param{instr.Ident(paramID)},
				Tags:   map[string]string{"Type": "Var", "Var": fmt.Sprintf("%d", varID)},
			})
		}
		vars = append(vars, varParam{VarIdent: varID, ParamIdent: paramID, Name: name})
	}
	return vars
}

func (o *Optimizer) findForwardingParam(varID uint32) (uint32, bool) {
	want := fmt.Sprintf("%d", varID)
	for _, ins := range o.buf.ParamSeg {
		if ins.Action != instr.ActionDPParam {
			continue
		}
		if t, ok := ins.Tag("Type"); !ok || t != "Var" {
			continue
		}
		if v, ok := ins.Tag("Var"); !ok || v != want {
			continue
		}
		if len(ins.Params) > 0 && ins.Params[0].Kind == instr.ParamIdent {
			return ins.Params[0].Ident, true
		}
	}
	return 0, false
}

// SplitLines splits every codeline whose linearized instruction count
// exceeds max into a root codeline plus a chain of extension functions,
// per spec.md §4.3's algorithm (original_source/optimizer/src/optimizer.rs
// split_lines/split_branch/get_codeline_vars).
func (o *Optimizer) SplitLines(max int) error {
	var newCodelines []*instr.Codeline

	for _, cl := range o.buf.Codelines {
		vars := o.getCodelineVars(cl)

		depths := branchDepths(cl)
		order := sortedDepthsDescending(depths)

		for _, depth := range order {
			for _, idx := range depths[depth] {
				for iter := 0; ; iter++ {
					if iter >= maxSplitIterations {
						return newErrHeadless(SplitLoopExceeded, fmt.Sprintf("codeline split exceeded %d iterations at depth %d", maxSplitIterations, depth))
					}
					newBody, newCl, queue, err := o.splitBranch(cl, cl.Branches[idx].Body, max, depth, vars)
					if err != nil {
						return err
					}
					cl.Branches[idx].Body = newBody
					if newCl == nil {
						break
					}
					newCodelines = append(newCodelines, newCl)
					if err := o.drainExtensionQueue(queue, newCodelines); err != nil {
						return err
					}
				}
			}
		}

		for iter := 0; ; iter++ {
			if iter >= maxSplitIterations {
				return newErrHeadless(SplitLoopExceeded, fmt.Sprintf("codeline split exceeded %d iterations at root", maxSplitIterations))
			}
			newBody, newCl, queue, err := o.splitBranch(cl, cl.RootBody, max, 0, vars)
			if err != nil {
				return err
			}
			cl.RootBody = newBody
			if newCl == nil {
				break
			}
			newCodelines = append(newCodelines, newCl)
			if err := o.drainExtensionQueue(queue, newCodelines); err != nil {
				return err
			}
		}
	}

	o.buf.Codelines = append(o.buf.Codelines, newCodelines...)
	return nil
}

// branchDepths assigns every arena branch index to its nesting depth within
// the codeline (the root body is depth 0; branches directly in the root
// body are depth 1; branches nested within those are depth 2, and so on).
func branchDepths(cl *instr.Codeline) map[int][]int {
	depths := map[int][]int{}
	var walk func(body []instr.BranchLog, depth int)
	walk = func(body []instr.BranchLog, depth int) {
		for _, log := range body {
			if !log.IsBranch {
				continue
			}
			depths[depth+1] = append(depths[depth+1], log.BranchIndex)
			walk(cl.Branches[log.BranchIndex].Body, depth+1)
		}
	}
	walk(cl.RootBody, 0)
	return depths
}

func sortedDepthsDescending(depths map[int][]int) []int {
	var order []int
	for d := range depths {
		order = append(order, d)
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if order[j] > order[i] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	return order
}

func countInstructions(log instr.BranchLog, cl *instr.Codeline) int {
	if !log.IsBranch {
		return len(log.Codeblocks)
	}
	branch := cl.Branches[log.BranchIndex]
	n := 1 // the branch's own root/opener instruction
	for _, l := range branch.Body {
		n += countInstructions(l, cl)
	}
	n++ // the terminating EndIf/EndRep
	return n
}
