package lower_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/instr"
	"github.com/eshc-lang/eshc/internal/lower"
	"github.com/eshc-lang/eshc/internal/parser"
)

func mustParse(t *testing.T, src string) *parser.Parser {
	t.Helper()
	p, err := parser.New(src)
	require.NoError(t, err)
	return p
}

func TestLowerSimpleFunction(t *testing.T) {
	p := mustParse(t, `func add(num a, num b) -> num { return a + b; }`)
	block, err := p.Parse()
	require.NoError(t, err)

	buf, err := lower.Lower(block)
	require.NoError(t, err)
	require.Len(t, buf.Codelines, 1)

	cl := buf.Codelines[0]
	require.Equal(t, instr.ActionFunc, cl.Root.Action)
	require.NotEmpty(t, cl.RootBody)

	flat := cl.ToInstructions()
	require.Equal(t, instr.ActionFunc, flat[0].Action)
	hasReturn := false
	for _, in := range flat {
		if in.Action == instr.ActionReturn {
			hasReturn = true
		}
	}
	require.True(t, hasReturn)
}

func TestLowerIfElseProducesBranches(t *testing.T) {
	p := mustParse(t, `
		func classify(num x) -> num {
			if x > 0 {
				return 1;
			} else if x < 0 {
				return -1;
			} else {
				return 0;
			}
		}
	`)
	block, err := p.Parse()
	require.NoError(t, err)

	buf, err := lower.Lower(block)
	require.NoError(t, err)
	require.Len(t, buf.Codelines, 1)

	cl := buf.Codelines[0]
	require.GreaterOrEqual(t, len(cl.Branches), 3, "if / else-if / else should each become a branch")

	roundTrip := cl.ToInstructions()
	reparsed, err := instr.ParseCodeline(roundTrip)
	require.NoError(t, err)
	require.Equal(t, roundTrip, reparsed.ToInstructions())
}

func TestLowerWhileProducesRepeatBranch(t *testing.T) {
	p := mustParse(t, `
		func countdown(num n) -> num {
			while n > 0 {
				n = n - 1;
			}
			return n;
		}
	`)
	block, err := p.Parse()
	require.NoError(t, err)

	buf, err := lower.Lower(block)
	require.NoError(t, err)
	cl := buf.Codelines[0]
	require.Len(t, cl.Branches, 1)
	require.Equal(t, instr.Repeat, cl.Branches[0].Type)
	require.Equal(t, instr.ActionRep, cl.Branches[0].Root.Action)
}

func TestLowerDeclarationRegistersParamSegVar(t *testing.T) {
	p := mustParse(t, `
		func f() -> num {
			num x = 5;
			return x;
		}
	`)
	block, err := p.Parse()
	require.NoError(t, err)

	buf, err := lower.Lower(block)
	require.NoError(t, err)

	found := false
	for _, in := range buf.ParamSeg {
		if in.Action == instr.ActionDPVar {
			if scope, ok := in.Tag("Scope"); ok && scope == "Line" {
				found = true
			}
		}
	}
	require.True(t, found, "declaring a local variable must register a line-scoped DP::Var")
}

func TestLowerBufferRoundTripsThroughFlushAndParse(t *testing.T) {
	p := mustParse(t, `
		func f(num a) -> num {
			if a > 10 {
				return a;
			}
			return 0;
		}
	`)
	block, err := p.Parse()
	require.NoError(t, err)

	buf, err := lower.Lower(block)
	require.NoError(t, err)

	flat := buf.Flush()
	reparsed, err := instr.ParseBuffer(flat)
	require.NoError(t, err)
	require.Equal(t, flat, reparsed.Flush())
}
