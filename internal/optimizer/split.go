package optimizer

import "github.com/eshc-lang/eshc/internal/instr"

// splitBranch implements spec.md §4.3 step 2 for a single branch body
// (which may be a codeline's root body or a nested Branch's body): if the
// body's linearized instruction count exceeds max, it hoists a tail slice
// into a new extension codeline and replaces it in place with a Call.
//
// Returns the (possibly unchanged) body, the new extension codeline (nil if
// nothing was split), and a work-queue of idents discovered in the new
// codeline's instructions for the transitive-extension fix-point pass.
func (o *Optimizer) splitBranch(cl *instr.Codeline, body []instr.BranchLog, max, depth int, vars []varParam) ([]instr.BranchLog, *instr.Codeline, []uint32, error) {
	total := 0
	for _, log := range body {
		total += countInstructions(log, cl)
	}
	if total <= max {
		return body, nil, nil, nil
	}

	threshold := max - splitPadding
	if threshold < 1 {
		threshold = 1
	}

	kept, moved := partitionTail(cl, body, threshold, depth)
	if len(moved) == 0 {
		return body, nil, nil, nil
	}

	extID := o.buf.NextIdent()
	callParams := []instr.Param{instr.Ident(extID)}
	funcParams := []instr.Param{instr.Ident(extID)}
	for _, v := range vars {
		callParams = append(callParams, instr.Ident(v.VarIdent))
		funcParams = append(funcParams, instr.Ident(v.ParamIdent))
	}

	kept = append(kept, instr.Codeblocks([]instr.Instruction{{Action: instr.ActionCall, Params: callParams}}))

	o.buf.FuncSeg = append(o.buf.FuncSeg, instr.Instruction{Action: instr.ActionDF, Params: []instr.Param{instr.Ident(extID)}})

	newCl := &instr.Codeline{
		Root:      instr.Instruction{Action: instr.ActionFunc, Params: funcParams},
		RootBody:  moved,
		Branches:  append([]instr.Branch{}, cl.Branches...), // carry forward the arena so moved Branch references stay valid
		NestDepth: cl.NestDepth + 1,
	}

	return kept, newCl, findCallTargets(moved, newCl), nil
}

// partitionTail walks body tail-to-head, accumulating instruction counts
// until the running total reaches threshold, splitting a crossing
// Codeblocks run at the exact offset or moving a crossing Branch whole. An
// Else branch is always moved together with its immediately preceding
// if-arm sibling, since the host cannot split a line between them. At
// non-zero depth, once the remaining slack (threshold minus the moved
// count) is at most padding + 2*depth + 2, the rest of the body is forced into the moved
// tail to avoid leaving a branch that can't later be split cleanly.
func partitionTail(cl *instr.Codeline, body []instr.BranchLog, threshold, depth int) (kept, moved []instr.BranchLog) {
	sum := 0
	i := len(body) - 1
	nearBoundary := threshold - splitPadding - 2*depth - 2
	var splitRemainder *instr.BranchLog // kept part of a Codeblocks run split mid-run, if any

	for i >= 0 {
		item := body[i]
		w := countInstructions(item, cl)

		if sum+w < threshold {
			moved = append([]instr.BranchLog{item}, moved...)
			sum += w
			if isElseBranch(cl, item) && i > 0 {
				// pull the paired if-arm along unconditionally
				i--
				moved = append([]instr.BranchLog{body[i]}, moved...)
				sum += countInstructions(body[i], cl)
			}
			i--
			if depth > 0 && sum < threshold && sum >= nearBoundary && sum > 1 {
				for i >= 0 {
					moved = append([]instr.BranchLog{body[i]}, moved...)
					i--
				}
				break
			}
			continue
		}

		if !item.IsBranch {
			need := threshold - sum
			instrs := item.Codeblocks
			if need <= 0 || need >= len(instrs) {
				moved = append([]instr.BranchLog{item}, moved...)
				i--
				break
			}
			splitOffset := len(instrs) - need
			movedPart := append([]instr.Instruction{}, instrs[splitOffset:]...)
			keptPart := append([]instr.Instruction{}, instrs[:splitOffset]...)
			if len(movedPart) > 0 {
				moved = append([]instr.BranchLog{instr.Codeblocks(movedPart)}, moved...)
			}
			if len(keptPart) > 0 {
				lg := instr.Codeblocks(keptPart)
				splitRemainder = &lg
			}
			i--
			break
		}

		// crossing element is an indivisible branch: move it whole.
		moved = append([]instr.BranchLog{item}, moved...)
		i--
		if isElseBranch(cl, item) && i >= 0 {
			// pull the paired if-arm along unconditionally: the host cannot
			// split a line between an Else and its preceding If.
			moved = append([]instr.BranchLog{body[i]}, moved...)
			i--
		}
		break
	}

	kept = append(kept, body[:i+1]...)
	if splitRemainder != nil {
		kept = append(kept, *splitRemainder)
	}
	return kept, moved
}

func isElseBranch(cl *instr.Codeline, log instr.BranchLog) bool {
	return log.IsBranch && cl.Branches[log.BranchIndex].Root.Action == instr.ActionElse
}

// findCallTargets scans a freshly created extension codeline for Call
// instructions, seeding the transitive-extension work-queue (spec.md §4.3
// step 3).
func findCallTargets(body []instr.BranchLog, cl *instr.Codeline) []uint32 {
	var out []uint32
	var walk func(b []instr.BranchLog)
	walk = func(b []instr.BranchLog) {
		for _, log := range b {
			if log.IsBranch {
				walk(cl.Branches[log.BranchIndex].Body)
				continue
			}
			for _, ins := range log.Codeblocks {
				if ins.Action == instr.ActionCall && len(ins.Params) > 0 && ins.Params[0].Kind == instr.ParamIdent {
					out = append(out, ins.Params[0].Ident)
				}
			}
		}
	}
	walk(body)
	return out
}

// drainExtensionQueue implements the fix-point propagation of nesting depth
// over transitively-introduced extension calls: each rediscovered extension
// has its NestDepth bumped and its own Call targets enqueued, deduplicated
// by ident.
func (o *Optimizer) drainExtensionQueue(seed []uint32, pool []*instr.Codeline) error {
	visited := map[uint32]bool{}
	queue := append([]uint32{}, seed...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		cl := findCodelineByFuncIdent(pool, id)
		if cl == nil {
			continue
		}
		cl.NestDepth++
		queue = append(queue, findCallTargets(cl.RootBody, cl)...)
	}
	return nil
}

func findCodelineByFuncIdent(pool []*instr.Codeline, id uint32) *instr.Codeline {
	for _, cl := range pool {
		if len(cl.Root.Params) > 0 && cl.Root.Params[0].Kind == instr.ParamIdent && cl.Root.Params[0].Ident == id {
			return cl
		}
	}
	return nil
}
