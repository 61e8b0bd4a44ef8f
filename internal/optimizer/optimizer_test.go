package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/instr"
	"github.com/eshc-lang/eshc/internal/optimizer"
)

func ins(action instr.Action, params ...instr.Param) instr.Instruction {
	return instr.Instruction{Action: action, Params: params}
}

func flatWithReturn(n int, deepReturn bool) []instr.Instruction {
	flat := []instr.Instruction{ins(instr.ActionFunc, instr.Ident(0))}
	for i := 0; i < n; i++ {
		flat = append(flat, ins(instr.ActionCall, instr.Int(int64(i))))
	}
	if deepReturn {
		flat = append(flat, ins(instr.ActionReturn))
		flat = append(flat, ins(instr.ActionCall, instr.Int(999)))
	}
	return flat
}

func TestRemoveEndReturnsRootDeletesReturn(t *testing.T) {
	flat := flatWithReturn(3, true)
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	o := optimizer.New(buf, optimizer.Settings{RemoveEndReturns: true})
	o.RemoveEndReturns()

	out := buf.Flush()
	for _, in := range out {
		require.NotEqual(t, instr.ActionReturn, in.Action, "root body must have its Return deleted")
	}
}

func TestRemoveEndReturnsNestedKeepsReturn(t *testing.T) {
	// Func -> Varif -> Call, Return, Call(dead) -> EndIf
	flat := []instr.Instruction{
		ins(instr.ActionFunc, instr.Ident(0)),
		ins(instr.ActionVarif, instr.Ident(1)),
		ins(instr.ActionCall, instr.Int(1)),
		ins(instr.ActionReturn),
		ins(instr.ActionCall, instr.Int(2)),
		ins(instr.ActionEndIf),
	}
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	o := optimizer.New(buf, optimizer.Settings{RemoveEndReturns: true})
	o.RemoveEndReturns()

	cl := buf.Codelines[0]
	require.Len(t, cl.Branches, 1)
	body := cl.Branches[0].Body
	require.Len(t, body, 1)
	require.False(t, body[0].IsBranch)
	// Return itself is kept, the dead Call after it is dropped.
	require.Equal(t, []instr.Action{instr.ActionCall, instr.ActionReturn}, actionsOf(body[0].Codeblocks))
}

func actionsOf(ins []instr.Instruction) []instr.Action {
	out := make([]instr.Action, len(ins))
	for i, x := range ins {
		out[i] = x.Action
	}
	return out
}

func TestCodelineRoundTrip(t *testing.T) {
	flat := []instr.Instruction{
		ins(instr.ActionFunc, instr.Ident(0)),
		ins(instr.ActionCall, instr.Int(1)),
		ins(instr.ActionVarif, instr.Ident(1)),
		ins(instr.ActionCall, instr.Int(2)),
		ins(instr.ActionElse),
		ins(instr.ActionCall, instr.Int(3)),
		ins(instr.ActionEndIf),
		ins(instr.ActionCall, instr.Int(4)),
	}
	cl, err := instr.ParseCodeline(flat)
	require.NoError(t, err)
	require.Equal(t, flat, cl.ToInstructions())
}

func TestBufferRoundTripWithoutOptimization(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionSegFunc},
		ins(instr.ActionDF, instr.Ident(0)),
		{Action: instr.ActionSegParam},
		ins(instr.ActionDPVar, instr.Ident(1)),
		{Action: instr.ActionSegCode},
		ins(instr.ActionFunc, instr.Ident(0)),
		ins(instr.ActionCall, instr.Int(1)),
	}
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)
	require.Equal(t, flat, buf.Flush())
}

func TestSplitLinesKeepsLineUnderMax(t *testing.T) {
	flat := flatWithReturn(120, false)
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	max := 50
	o := optimizer.New(buf, optimizer.Settings{MaxCodeblocksPerLine: &max})
	require.NoError(t, o.Optimize())

	require.Greater(t, len(buf.Codelines), 1, "a 120-codeblock line with max=50 must split into extensions")
	for _, cl := range buf.Codelines {
		total := 0
		for _, log := range cl.RootBody {
			if !log.IsBranch {
				total += len(log.Codeblocks)
			}
		}
		require.LessOrEqual(t, total, max+1, "each resulting codeline's root body must respect max (plus its own inserted Call)")
	}
}

func TestSplitLinesIsIdempotent(t *testing.T) {
	flat := flatWithReturn(120, false)
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	max := 50
	o := optimizer.New(buf, optimizer.Settings{MaxCodeblocksPerLine: &max})
	require.NoError(t, o.Optimize())
	firstCount := len(buf.Codelines)

	o2 := optimizer.New(buf, optimizer.Settings{MaxCodeblocksPerLine: &max})
	require.NoError(t, o2.Optimize())
	require.Equal(t, firstCount, len(buf.Codelines), "re-running the split pass on already-split output must be a no-op")
}

func TestSplitLinesPreservesIdentUniqueness(t *testing.T) {
	flat := flatWithReturn(200, false)
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	max := 30
	o := optimizer.New(buf, optimizer.Settings{MaxCodeblocksPerLine: &max})
	require.NoError(t, o.Optimize())

	seen := map[uint32]bool{}
	for _, in := range buf.FuncSeg {
		if in.Action != instr.ActionDF {
			continue
		}
		id := in.Params[0].Ident
		require.False(t, seen[id], "extension function idents must be buffer-wide unique")
		seen[id] = true
	}
}

func TestElseBranchCrossingThresholdMovesWithPrecedingIf(t *testing.T) {
	// The whole If/Else pair is the threshold-crossing element itself (no
	// padding ahead of it to push the pairing through the non-crossing
	// path): body is just `if (c) { 10 calls } else { 10 calls }` at
	// max=10, so countInstructions(elseBranch) alone already exceeds
	// threshold before any pairing logic runs.
	flat := []instr.Instruction{ins(instr.ActionFunc, instr.Ident(0)), ins(instr.ActionVarif, instr.Ident(1))}
	for i := 0; i < 10; i++ {
		flat = append(flat, ins(instr.ActionCall, instr.Int(int64(i))))
	}
	flat = append(flat, ins(instr.ActionElse))
	for i := 0; i < 10; i++ {
		flat = append(flat, ins(instr.ActionCall, instr.Int(int64(100+i))))
	}
	flat = append(flat, ins(instr.ActionEndIf))

	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	max := 10
	o := optimizer.New(buf, optimizer.Settings{MaxCodeblocksPerLine: &max})
	require.NoError(t, o.Optimize())

	for _, cl := range buf.Codelines {
		for i, log := range cl.RootBody {
			if !log.IsBranch {
				continue
			}
			action := cl.Branches[log.BranchIndex].Root.Action
			if action == instr.ActionElse {
				require.Greater(t, i, 0, "an Else must never be left without a preceding sibling in the same body")
				prev := cl.RootBody[i-1]
				require.True(t, prev.IsBranch)
				require.Equal(t, instr.ActionVarif, cl.Branches[prev.BranchIndex].Root.Action)
			}
		}
		// every resulting codeline must itself re-parse/re-flatten cleanly:
		// a stray Else with no preceding If is rejected by ParseCodeline.
		reparsed, err := instr.ParseCodeline(cl.ToInstructions())
		require.NoError(t, err)
		require.Equal(t, cl.ToInstructions(), reparsed.ToInstructions())
	}
}

func TestElseBranchMovesWithPrecedingIf(t *testing.T) {
	// Build a codeline whose tail is an If/Else pair plus enough padding
	// that a naive split would otherwise cut between them.
	flat := []instr.Instruction{ins(instr.ActionFunc, instr.Ident(0))}
	for i := 0; i < 40; i++ {
		flat = append(flat, ins(instr.ActionCall, instr.Int(int64(i))))
	}
	flat = append(flat,
		ins(instr.ActionVarif, instr.Ident(1)),
		ins(instr.ActionCall, instr.Int(100)),
		ins(instr.ActionElse),
		ins(instr.ActionCall, instr.Int(101)),
		ins(instr.ActionEndIf),
	)
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	max := 10
	o := optimizer.New(buf, optimizer.Settings{MaxCodeblocksPerLine: &max})
	require.NoError(t, o.Optimize())

	// Find whichever codeline ended up holding the If branch and confirm
	// its Else sibling landed in the same body, not split across codelines.
	found := false
	for _, cl := range buf.Codelines {
		for i, log := range cl.RootBody {
			if !log.IsBranch {
				continue
			}
			if cl.Branches[log.BranchIndex].Root.Action != instr.ActionVarif {
				continue
			}
			found = true
			require.Less(t, i+1, len(cl.RootBody), "an If must be immediately followed by its Else sibling in the same body")
			next := cl.RootBody[i+1]
			require.True(t, next.IsBranch)
			require.Equal(t, instr.ActionElse, cl.Branches[next.BranchIndex].Root.Action)
		}
	}
	require.True(t, found, "expected to find the If/Else pair in some resulting codeline")
}
