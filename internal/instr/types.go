// Package instr models the optimizer's instruction/segment/codeline/branch
// tree, per spec.md §3 "Optimizer instruction model".
//
// Grounded on original_source/optimizer/src/{buffer.rs,codeline.rs}, but
// using an arena-indexed branch representation (a flat []Branch per
// Codeline, referenced by integer index from BranchLog) rather than the
// Rc<Vec<...>>-based recursive tree in codeline.rs — the latter conflicts
// with optimizer.rs's own index-based branches_by_depth bookkeeping, and
// spec.md §9 explicitly favors "arena-allocated nodes with stable indices"
// for exactly this reason.
package instr

import "fmt"

// Action is an instruction's tag. The set is open (spec.md's model treats it
// as an extensible tag, "e.g. ..."); Go idiom would reach for an enum, but
// since the host's actual opcode surface is explicitly out of scope (see
// spec.md §1 Non-goals), actions are plain strings so the one recognized
// control-flow subset can be pattern-matched without forcing every possible
// host opcode into this package.
type Action string

const (
	ActionDF       Action = "DF"
	ActionDPVar    Action = "DP::Var"
	ActionDPParam  Action = "DP::Param"
	ActionFunc     Action = "Func"
	ActionFuncA    Action = "FuncA"
	ActionPlev     Action = "Plev"
	ActionEnev     Action = "Enev"
	ActionCall     Action = "Call"
	ActionVarif    Action = "Varif"
	ActionEnif     Action = "Enif"
	ActionPlif     Action = "Plif"
	ActionGmif     Action = "Gmif"
	ActionRep      Action = "Rep"
	ActionElse     Action = "Else"
	ActionEndIf    Action = "EndIf"
	ActionEndRep   Action = "EndRep"
	ActionReturn   Action = "Return"
	ActionSegFunc  Action = "Seg::Func"
	ActionSegParam Action = "Seg::Param"
	ActionSegCode  Action = "Seg::Code"
)

// lineOpeners start a new codeline within the Code segment.
var lineOpeners = map[Action]bool{ActionFunc: true, ActionFuncA: true, ActionPlev: true, ActionEnev: true}

// ifOpeners start one arm of an if/else chain.
var ifOpeners = map[Action]bool{ActionVarif: true, ActionEnif: true, ActionPlif: true, ActionGmif: true}

func IsLineOpener(a Action) bool { return lineOpeners[a] }
func IsIfOpener(a Action) bool   { return ifOpeners[a] }

// ParamKind tags the payload carried by a Param.
type ParamKind int

const (
	ParamIdent ParamKind = iota
	ParamString
	ParamInt
	ParamFloat
)

// Param is one typed instruction operand.
type Param struct {
	Kind  ParamKind
	Ident uint32
	Str   string
	Int   int64
	Float float64
}

func Ident(id uint32) Param     { return Param{Kind: ParamIdent, Ident: id} }
func String(s string) Param     { return Param{Kind: ParamString, Str: s} }
func Int(i int64) Param         { return Param{Kind: ParamInt, Int: i} }
func Float(f float64) Param     { return Param{Kind: ParamFloat, Float: f} }
func (p Param) String() string {
	switch p.Kind {
	case ParamIdent:
		return fmt.Sprintf("#%d", p.Ident)
	case ParamString:
		return fmt.Sprintf("%q", p.Str)
	case ParamInt:
		return fmt.Sprintf("%d", p.Int)
	case ParamFloat:
		return fmt.Sprintf("%g", p.Float)
	default:
		return "?"
	}
}

// Instruction is one action with its ordered parameters and optional tags
// (e.g. DP::Var's Scope=Line, DP::Param's Type=Var) used to distinguish
// sub-kinds the line-splitter cares about.
type Instruction struct {
	Action Action
	Params []Param
	Tags   map[string]string
}

func (i Instruction) Tag(key string) (string, bool) {
	v, ok := i.Tags[key]
	return v, ok
}

// BranchType distinguishes if-chain arms from repeat (while-loop) bodies.
type BranchType int

const (
	If BranchType = iota
	Repeat
)

// Branch is one node of a codeline's branch tree: an opener instruction plus
// its nested body.
type Branch struct {
	Type BranchType
	Root Instruction
	Body []BranchLog
}

// BranchLog is either a flat run of instructions or a reference to a nested
// Branch, living in the owning Codeline's Branches arena.
type BranchLog struct {
	Codeblocks  []Instruction // non-nil when this entry is a flat run
	IsBranch    bool
	BranchIndex int // valid when IsBranch; indexes Codeline.Branches
}

func Codeblocks(instrs []Instruction) BranchLog { return BranchLog{Codeblocks: instrs} }
func BranchRef(idx int) BranchLog               { return BranchLog{IsBranch: true, BranchIndex: idx} }

// Codeline is one line-opener instruction plus its branch tree. Branches is
// an arena shared by every nested Branch within this codeline; RootBody is
// the depth-0 sequence.
type Codeline struct {
	Root      Instruction
	RootBody  []BranchLog
	Branches  []Branch
	NestDepth int
}

func (c *Codeline) Branch(idx int) *Branch { return &c.Branches[idx] }

// Segment identifies which of the buffer's three regions an instruction
// belongs to.
type Segment int

const (
	SegFunc Segment = iota
	SegParam
	SegCode
)
