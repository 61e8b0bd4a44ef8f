// Package lower turns a parsed ast.Block into an instr.Buffer.
//
// spec.md §9 explicitly scopes the real semantic/codegen pass out of this
// project ("incomplete in the source; do not attempt to replicate its
// partial behavior. Define a clean interface ... and leave the body to be
// specified separately"). This package is that interface plus a minimal,
// honest body: it lowers Func/If/While control flow into the optimizer's
// codeline/branch model faithfully, and flattens expressions into a
// stack-order run of synthetic instructions named after the AST's own
// operators. It makes no claim to the target runtime's actual opcode
// semantics — those remain unspecified.
package lower

import (
	"fmt"
	"strconv"

	"github.com/eshc-lang/eshc/internal/ast"
	"github.com/eshc-lang/eshc/internal/instr"
	"github.com/eshc-lang/eshc/internal/token"
)

type lowerer struct {
	buf    *instr.Buffer
	idents map[string]uint32
}

// Lower builds an instr.Buffer from a parsed program. Each top-level Func
// becomes one codeline; top-level Struct declarations are recorded as
// nothing (their field layout carries no runtime instructions — struct
// shape is out of scope per spec.md's Non-goals on the target opcode set).
func Lower(prog *ast.Block) (*instr.Buffer, error) {
	l := &lowerer{buf: &instr.Buffer{}, idents: map[string]uint32{}}
	for _, stmt := range prog.Statements {
		switch n := stmt.(type) {
		case *ast.Func:
			cl, err := l.lowerFunc(n)
			if err != nil {
				return nil, err
			}
			l.buf.Codelines = append(l.buf.Codelines, cl)
		case *ast.Struct:
			continue
		default:
			return nil, fmt.Errorf("lower: unsupported top-level statement %T", stmt)
		}
	}
	return l.buf, nil
}

func (l *lowerer) ident(name string) uint32 {
	if id, ok := l.idents[name]; ok {
		return id
	}
	id := l.buf.NextIdent()
	l.idents[name] = id
	return id
}

func primaryText(n ast.Node) (string, error) {
	p, ok := n.(*ast.Primary)
	if !ok {
		return "", fmt.Errorf("lower: expected identifier, got %T", n)
	}
	return p.Token.Text, nil
}

func (l *lowerer) lowerFunc(fn *ast.Func) (*instr.Codeline, error) {
	name, err := primaryText(fn.Name)
	if err != nil {
		return nil, err
	}
	fid := l.ident(name)
	params := []instr.Param{instr.Ident(fid)}

	if fn.Params != nil {
		for _, p := range fn.Params.Elements {
			decl, ok := p.(*ast.Declaration)
			if !ok {
				return nil, fmt.Errorf("lower: function parameter must be a declaration, got %T", p)
			}
			pname, err := primaryText(decl.Name)
			if err != nil {
				return nil, err
			}
			pid := l.ident(pname)
			l.buf.ParamSeg = append(l.buf.ParamSeg, instr.Instruction{
				Action: instr.ActionDPParam,
				Params: []instr.Param{instr.Ident(pid)},
				Tags:   map[string]string{"Name": pname, "Type": "Param"},
			})
			params = append(params, instr.Ident(pid))
		}
	}

	cl := &instr.Codeline{Root: instr.Instruction{Action: instr.ActionFunc, Params: params}}
	body, err := l.lowerBlock(fn.Body, cl)
	if err != nil {
		return nil, err
	}
	cl.RootBody = body
	return cl, nil
}

func (l *lowerer) lowerBlock(block *ast.Block, cl *instr.Codeline) ([]instr.BranchLog, error) {
	var out []instr.BranchLog
	var pending []instr.Instruction
	flush := func() {
		if len(pending) > 0 {
			out = append(out, instr.Codeblocks(pending))
			pending = nil
		}
	}

	for _, stmt := range block.Statements {
		switch n := stmt.(type) {
		case *ast.If:
			flush()
			branchBody, err := l.lowerBlock(n.Then, cl)
			if err != nil {
				return nil, err
			}
			var condInstrs []instr.Instruction
			l.lowerExprFlat(n.Cond, &condInstrs)
			idx := len(cl.Branches)
			cl.Branches = append(cl.Branches, instr.Branch{
				Type: instr.If,
				Root: instr.Instruction{Action: instr.ActionVarif, Params: []instr.Param{instr.Int(int64(len(condInstrs)))}},
				Body: prependCond(condInstrs, branchBody),
			})
			out = append(out, instr.BranchRef(idx))

		case *ast.Else:
			flush()
			branches, err := l.lowerIfElseChain(n, cl)
			if err != nil {
				return nil, err
			}
			out = append(out, branches...)

		case *ast.While:
			flush()
			body, err := l.lowerBlock(n.Body, cl)
			if err != nil {
				return nil, err
			}
			var condInstrs []instr.Instruction
			l.lowerExprFlat(n.Cond, &condInstrs)
			idx := len(cl.Branches)
			cl.Branches = append(cl.Branches, instr.Branch{
				Type: instr.Repeat,
				Root: instr.Instruction{Action: instr.ActionRep, Params: []instr.Param{instr.Int(int64(len(condInstrs)))}},
				Body: prependCond(condInstrs, body),
			})
			out = append(out, instr.BranchRef(idx))

		case *ast.Return:
			var vals []instr.Instruction
			if n.Value != nil {
				l.lowerExprFlat(n.Value, &vals)
			}
			pending = append(pending, vals...)
			pending = append(pending, instr.Instruction{Action: instr.ActionReturn})

		case *ast.Declaration:
			name, err := primaryText(n.Name)
			if err != nil {
				return nil, err
			}
			id := l.ident(name)
			l.buf.ParamSeg = append(l.buf.ParamSeg, instr.Instruction{
				Action: instr.ActionDPVar,
				Params: []instr.Param{instr.Ident(id)},
				Tags:   map[string]string{"Scope": "Line", "Name": name},
			})

		case *ast.Assignment:
			if decl, ok := n.Target.(*ast.Declaration); ok {
				name, err := primaryText(decl.Name)
				if err != nil {
					return nil, err
				}
				id := l.ident(name)
				l.buf.ParamSeg = append(l.buf.ParamSeg, instr.Instruction{
					Action: instr.ActionDPVar,
					Params: []instr.Param{instr.Ident(id)},
					Tags:   map[string]string{"Scope": "Line", "Name": name},
				})
				l.lowerExprFlat(n.Value, &pending)
				pending = append(pending, instr.Instruction{Action: "SetVar", Params: []instr.Param{instr.Ident(id)}})
				continue
			}
			l.lowerExprFlat(n.Value, &pending)
			l.lowerAssignTarget(n.Target, &pending)

		default:
			// expression statement (function call, etc.)
			l.lowerExprFlat(stmt, &pending)
		}
	}
	flush()
	return out, nil
}

// lowerIfElseChain lowers one if/else-if/.../else chain into BranchLog
// siblings matching internal/instr's nested model: the if-arm and its
// immediately-following else are siblings at this level; a further
// "else if" becomes the else-arm's own nested chain one level deeper,
// since the flat stream carries one EndIf per nesting level, not per arm
// (see internal/instr.ParseCodeline). The parser folds an if/else into a
// single *ast.Else statement with the if-arm reachable only via
// n.Preceding, so that arm must be lowered here too, not just n.Branch.
func (l *lowerer) lowerIfElseChain(n *ast.Else, cl *instr.Codeline) ([]instr.BranchLog, error) {
	ifArm, ok := n.Preceding.(*ast.If)
	if !ok {
		return nil, fmt.Errorf("lower: else preceding must be an if, got %T", n.Preceding)
	}
	ifBody, err := l.lowerBlock(ifArm.Then, cl)
	if err != nil {
		return nil, err
	}
	var condInstrs []instr.Instruction
	l.lowerExprFlat(ifArm.Cond, &condInstrs)
	ifIdx := len(cl.Branches)
	cl.Branches = append(cl.Branches, instr.Branch{
		Type: instr.If,
		Root: instr.Instruction{Action: instr.ActionVarif, Params: []instr.Param{instr.Int(int64(len(condInstrs)))}},
		Body: prependCond(condInstrs, ifBody),
	})

	var elseBody []instr.BranchLog
	switch b := n.Branch.(type) {
	case *ast.Block:
		elseBody, err = l.lowerBlock(b, cl)
	case *ast.Else:
		elseBody, err = l.lowerIfElseChain(b, cl)
	case *ast.If:
		synth := ast.NewBlock(b.Range(), []ast.Node{b})
		elseBody, err = l.lowerBlock(synth, cl)
	default:
		return nil, fmt.Errorf("lower: unsupported else branch %T", b)
	}
	if err != nil {
		return nil, err
	}
	elseIdx := len(cl.Branches)
	cl.Branches = append(cl.Branches, instr.Branch{Type: instr.If, Root: instr.Instruction{Action: instr.ActionElse}, Body: elseBody})

	return []instr.BranchLog{instr.BranchRef(ifIdx), instr.BranchRef(elseIdx)}, nil
}

func prependCond(cond []instr.Instruction, body []instr.BranchLog) []instr.BranchLog {
	if len(cond) == 0 {
		return body
	}
	return append([]instr.BranchLog{instr.Codeblocks(cond)}, body...)
}

func (l *lowerer) lowerAssignTarget(n ast.Node, out *[]instr.Instruction) {
	switch t := n.(type) {
	case *ast.Primary:
		if t.Token.Kind == token.IDENT {
			id := l.ident(t.Token.Text)
			*out = append(*out, instr.Instruction{Action: "SetVar", Params: []instr.Param{instr.Ident(id)}})
			return
		}
	case *ast.ListCall:
		l.lowerExprFlat(t.Base, out)
		if t.Index != nil {
			l.lowerExprFlat(t.Index, out)
		}
		*out = append(*out, instr.Instruction{Action: "SetIndex"})
		return
	}
	*out = append(*out, instr.Instruction{Action: "SetField"})
}

// lowerExprFlat flattens an expression into stack-order instructions:
// operands first, then the operator/call/access itself, named after the
// AST's own construct.
func (l *lowerer) lowerExprFlat(n ast.Node, out *[]instr.Instruction) {
	switch e := n.(type) {
	case *ast.Primary:
		switch e.Token.Kind {
		case token.IDENT:
			id := l.ident(e.Token.Text)
			*out = append(*out, instr.Instruction{Action: "Ident", Params: []instr.Param{instr.Ident(id)}})
		case token.NUMBER:
			if iv, err := strconv.ParseInt(e.Token.Text, 10, 64); err == nil {
				*out = append(*out, instr.Instruction{Action: "Int", Params: []instr.Param{instr.Int(iv)}})
			} else if fv, err := strconv.ParseFloat(e.Token.Text, 64); err == nil {
				*out = append(*out, instr.Instruction{Action: "Float", Params: []instr.Param{instr.Float(fv)}})
			}
		case token.STRING:
			*out = append(*out, instr.Instruction{Action: "String", Params: []instr.Param{instr.String(e.Token.Text)}})
		case token.TRUE:
			*out = append(*out, instr.Instruction{Action: "True"})
		case token.FALSE:
			*out = append(*out, instr.Instruction{Action: "False"})
		default:
			*out = append(*out, instr.Instruction{Action: instr.Action(e.Token.Text)})
		}

	case *ast.Unary:
		l.lowerExprFlat(e.Operand, out)
		*out = append(*out, instr.Instruction{Action: instr.Action(unaryOpName(e.Op))})

	case *ast.Binary:
		l.lowerExprFlat(e.Left, out)
		l.lowerExprFlat(e.Right, out)
		*out = append(*out, instr.Instruction{Action: instr.Action(binaryOpName(e.Op))})

	case *ast.FunctionCall:
		argc := 0
		if e.Args != nil {
			for _, a := range e.Args.Elements {
				l.lowerExprFlat(a, out)
			}
			argc = len(e.Args.Elements)
		}
		l.lowerExprFlat(e.Callee, out)
		*out = append(*out, instr.Instruction{Action: instr.ActionCall, Params: []instr.Param{instr.Int(int64(argc))}})

	case *ast.Access:
		for _, p := range e.Parts {
			l.lowerExprFlat(p, out)
		}
		*out = append(*out, instr.Instruction{Action: "Access", Params: []instr.Param{instr.Int(int64(len(e.Parts)))}})

	case *ast.ListCall:
		l.lowerExprFlat(e.Base, out)
		if e.Index != nil {
			l.lowerExprFlat(e.Index, out)
			*out = append(*out, instr.Instruction{Action: "Index"})
		} else {
			*out = append(*out, instr.Instruction{Action: "ListType"})
		}

	case *ast.Tuple:
		for _, el := range e.Elements {
			l.lowerExprFlat(el, out)
		}
		*out = append(*out, instr.Instruction{Action: "Tuple", Params: []instr.Param{instr.Int(int64(len(e.Elements)))}})

	case *ast.List:
		for _, el := range e.Elements {
			l.lowerExprFlat(el, out)
		}
		*out = append(*out, instr.Instruction{Action: "List", Params: []instr.Param{instr.Int(int64(len(e.Elements)))}})

	case *ast.Vector:
		for _, el := range e.Elements {
			l.lowerExprFlat(el, out)
		}
		*out = append(*out, instr.Instruction{Action: "Vector"})

	case *ast.Location:
		for _, el := range e.Elements {
			l.lowerExprFlat(el, out)
		}
		*out = append(*out, instr.Instruction{Action: "Location"})

	case *ast.Construct:
		for _, stmt := range e.Body.Statements {
			if a, ok := stmt.(*ast.Assignment); ok {
				l.lowerExprFlat(a.Value, out)
			}
		}
		typeName, _ := primaryText(e.Type)
		*out = append(*out, instr.Instruction{Action: "Construct", Params: []instr.Param{instr.String(typeName)}})

	case *ast.Assignment:
		l.lowerExprFlat(e.Value, out)
		l.lowerAssignTarget(e.Target, out)

	default:
		*out = append(*out, instr.Instruction{Action: instr.Action(fmt.Sprintf("Unknown(%T)", n))})
	}
}

func unaryOpName(op ast.UnaryOp) string {
	switch op {
	case ast.Not:
		return "Not"
	case ast.Negative:
		return "Neg"
	default:
		return "UnaryOp"
	}
}

func binaryOpName(op ast.BinaryOp) string {
	switch op {
	case ast.Product:
		return "Mul"
	case ast.Quotient:
		return "Div"
	case ast.Modulo:
		return "Mod"
	case ast.Sum:
		return "Add"
	case ast.Difference:
		return "Sub"
	case ast.LessThan:
		return "Lt"
	case ast.GreaterThan:
		return "Gt"
	case ast.LessThanOrEqual:
		return "Le"
	case ast.GreaterThanOrEqual:
		return "Ge"
	case ast.Equal:
		return "Eq"
	case ast.NotEqual:
		return "Ne"
	case ast.And:
		return "And"
	case ast.Or:
		return "Or"
	default:
		return "BinOp"
	}
}
