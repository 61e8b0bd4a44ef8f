package instr

// Buffer holds the three canonical segments of a compiled instruction
// image: function definitions, parameter/variable definitions, and code
// (partitioned into codelines). Grounded on
// original_source/optimizer/src/buffer.rs's Buffer.
type Buffer struct {
	FuncSeg    []Instruction
	ParamSeg   []Instruction
	Codelines  []*Codeline
	IdentCount uint32
}

// NextIdent allocates and returns a fresh, buffer-wide-unique identifier,
// per spec.md §9's "global ident space" invariant.
func (b *Buffer) NextIdent() uint32 {
	id := b.IdentCount
	b.IdentCount++
	return id
}

// ParseBuffer splits a flat instruction stream into its three segments and
// parses the Code segment into codeline branch trees, following
// buffer.rs's append_bin: segment markers switch the current region;
// within Code, instructions before the first line-opener are inert and
// dropped (matching the original's behavior of ignoring anything before the
// first Func/FuncA/Plev/Enev).
func ParseBuffer(flat []Instruction) (*Buffer, error) {
	b := &Buffer{}
	seg := SegFunc
	var pending []Instruction
	maxIdent := uint32(0)

	flushCode := func() error {
		if len(pending) == 0 {
			return nil
		}
		cl, err := ParseCodeline(pending)
		if err != nil {
			return err
		}
		b.Codelines = append(b.Codelines, cl)
		pending = nil
		return nil
	}

	for _, ins := range flat {
		switch ins.Action {
		case ActionSegFunc:
			if err := flushCode(); err != nil {
				return nil, err
			}
			seg = SegFunc
			continue
		case ActionSegParam:
			if err := flushCode(); err != nil {
				return nil, err
			}
			seg = SegParam
			continue
		case ActionSegCode:
			if err := flushCode(); err != nil {
				return nil, err
			}
			seg = SegCode
			continue
		}

		for _, p := range ins.Params {
			if p.Kind == ParamIdent && p.Ident >= maxIdent {
				maxIdent = p.Ident + 1
			}
		}

		switch seg {
		case SegFunc:
			b.FuncSeg = append(b.FuncSeg, ins)
		case SegParam:
			b.ParamSeg = append(b.ParamSeg, ins)
		case SegCode:
			if len(pending) == 0 && !IsLineOpener(ins.Action) {
				continue // dead instruction before the first line-opener
			}
			if len(pending) > 0 && IsLineOpener(ins.Action) {
				if err := flushCode(); err != nil {
					return nil, err
				}
			}
			pending = append(pending, ins)
		}
	}
	if err := flushCode(); err != nil {
		return nil, err
	}
	b.IdentCount = maxIdent
	return b, nil
}

// Flush reserializes the buffer canonically: Seg::Func + func segment,
// Seg::Param + param segment, Seg::Code + each codeline's flattened
// instructions, in that fixed order (matching spec.md §6's round-trip
// requirement: "parsing a bin into buffer+branch-trees and flushing without
// optimization must yield a byte-identical bin modulo canonical segment
// ordering").
func (b *Buffer) Flush() []Instruction {
	out := []Instruction{{Action: ActionSegFunc}}
	out = append(out, b.FuncSeg...)
	out = append(out, Instruction{Action: ActionSegParam})
	out = append(out, b.ParamSeg...)
	out = append(out, Instruction{Action: ActionSegCode})
	for _, cl := range b.Codelines {
		out = append(out, cl.ToInstructions()...)
	}
	return out
}
