package instr

import "errors"

// ErrMalformedBranch is returned when a flat instruction stream has an
// if/else chain or repeat block that is not well-nested (e.g. a stray Else
// with no opener, or a missing EndIf/EndRep).
var ErrMalformedBranch = errors.New("malformed branch structure")

// ParseCodeline builds a Codeline's branch tree from its flat instruction
// stream (root opener first), following the recursive evaluate_branch
// algorithm in original_source/optimizer/src/codeline.rs. An if/else-if/else
// chain has exactly one EndIf per nesting level in the flat stream (the host
// has no separate "else if" opcode), so each arm pairs with at most one
// immediately-following Else as a BranchLog sibling; a further "else if"
// hop is the Else arm's own nested chain, one level deeper. isElseBranch and
// partitionTail in the optimizer only ever need to look one sibling back, so
// this local pairing is all they rely on.
func ParseCodeline(flat []Instruction) (*Codeline, error) {
	if len(flat) == 0 {
		return nil, ErrMalformedBranch
	}
	cl := &Codeline{Root: flat[0]}
	body := flat[1:]
	pos := 0
	root, err := evalBody(body, &pos, &cl.Branches, false)
	if err != nil {
		return nil, err
	}
	cl.RootBody = root
	return cl, nil
}

func evalBody(instrs []Instruction, pos *int, arena *[]Branch, haltOnElse bool) ([]BranchLog, error) {
	var body []BranchLog
	var pending []Instruction
	flush := func() {
		if len(pending) > 0 {
			body = append(body, Codeblocks(append([]Instruction{}, pending...)))
			pending = nil
		}
	}
	for *pos < len(instrs) {
		cur := instrs[*pos]
		switch {
		case cur.Action == ActionEndIf || cur.Action == ActionEndRep:
			*pos++
			flush()
			return body, nil
		case haltOnElse && cur.Action == ActionElse:
			flush()
			return body, nil
		case IsIfOpener(cur.Action):
			flush()
			arms, err := consumeIfChain(instrs, pos, arena)
			if err != nil {
				return nil, err
			}
			body = append(body, arms...)
		case cur.Action == ActionElse:
			// a stray else with no enclosing chain at this level
			return nil, ErrMalformedBranch
		case cur.Action == ActionRep:
			flush()
			*pos++
			nested, err := evalBody(instrs, pos, arena, false)
			if err != nil {
				return nil, err
			}
			idx := len(*arena)
			*arena = append(*arena, Branch{Type: Repeat, Root: cur, Body: nested})
			body = append(body, BranchRef(idx))
		default:
			pending = append(pending, cur)
			*pos++
		}
	}
	flush()
	return body, nil
}

// consumeIfChain consumes one or more consecutive if/else-if/else arms,
// returning one BranchLog per arm (sibling entries), per spec.md §3's
// "if/else chains are represented as consecutive sibling branches."
func consumeIfChain(instrs []Instruction, pos *int, arena *[]Branch) ([]BranchLog, error) {
	var arms []BranchLog
	for {
		if *pos >= len(instrs) {
			return nil, ErrMalformedBranch
		}
		opener := instrs[*pos]
		*pos++
		armBody, err := evalBody(instrs, pos, arena, true)
		if err != nil {
			return nil, err
		}
		idx := len(*arena)
		*arena = append(*arena, Branch{Type: If, Root: opener, Body: armBody})
		arms = append(arms, BranchRef(idx))
		if *pos < len(instrs) && instrs[*pos].Action == ActionElse {
			continue
		}
		break
	}
	return arms, nil
}

// ToInstructions reserializes a Codeline's branch tree back into a flat
// instruction stream, re-inserting EndIf/EndRep terminators and omitting
// the synthetic boundary between chained if/else arms (only the final arm
// in a chain emits the terminator), mirroring codeline.rs's to_bin/add_buffer.
func (c *Codeline) ToInstructions() []Instruction {
	out := []Instruction{c.Root}
	out = append(out, flattenBody(c, c.RootBody, true)...)
	return out
}

func flattenBody(c *Codeline, body []BranchLog, isRoot bool) []Instruction {
	var out []Instruction
	for i := 0; i < len(body); i++ {
		log := body[i]
		if !log.IsBranch {
			out = append(out, log.Codeblocks...)
			continue
		}
		branch := c.Branch(log.BranchIndex)
		out = append(out, branch.Root)
		out = append(out, flattenBody(c, branch.Body, false)...)
		// Determine whether this is the last arm of an if-chain (emit the
		// terminator) or is immediately followed by another Else arm (no
		// terminator between chained arms).
		if branch.Type == If {
			nextIsElse := i+1 < len(body) && body[i+1].IsBranch && c.Branch(body[i+1].BranchIndex).Root.Action == ActionElse
			if !nextIsElse {
				out = append(out, Instruction{Action: ActionEndIf})
			}
		} else {
			out = append(out, Instruction{Action: ActionEndRep})
		}
	}
	return out
}
