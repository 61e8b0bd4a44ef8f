package instr_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/instr"
)

func TestParseCodelineBuildsIfElseChainAsNestedPairs(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionVarif, Params: []instr.Param{instr.Ident(1)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(1)}},
		{Action: instr.ActionElse},
		{Action: instr.ActionVarif, Params: []instr.Param{instr.Ident(2)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(2)}},
		{Action: instr.ActionElse},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(3)}},
		{Action: instr.ActionEndIf},
		{Action: instr.ActionEndIf},
	}
	cl, err := instr.ParseCodeline(flat)
	require.NoError(t, err)

	// The if-arm and its immediately-following else are top-level siblings;
	// the "else if" is the else-arm's own nested chain one level deeper, since
	// the flat stream carries one EndIf per nesting level, not per arm.
	require.Len(t, cl.RootBody, 2)
	require.True(t, cl.RootBody[0].IsBranch)
	require.True(t, cl.RootBody[1].IsBranch)
	require.Equal(t, instr.ActionElse, cl.Branches[cl.RootBody[1].BranchIndex].Root.Action)
	require.Len(t, cl.Branches, 4, "if, else-if, else, and the else-if's wrapping else each get an arena slot")

	if diff := cmp.Diff(flat, cl.ToInstructions()); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCodelineMalformedStrayElse(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionElse},
	}
	_, err := instr.ParseCodeline(flat)
	require.ErrorIs(t, err, instr.ErrMalformedBranch)
}

func TestParseCodelineRepeatBranch(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionRep, Params: []instr.Param{instr.Int(10)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(1)}},
		{Action: instr.ActionEndRep},
	}
	cl, err := instr.ParseCodeline(flat)
	require.NoError(t, err)
	require.Len(t, cl.Branches, 1)
	require.Equal(t, instr.Repeat, cl.Branches[0].Type)

	got := cl.ToInstructions()
	if diff := cmp.Diff(flat, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBufferDropsDeadInstructionsBeforeFirstOpener(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionSegCode},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(999)}}, // dead, before any opener
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(1)}},
	}
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)
	require.Len(t, buf.Codelines, 1)
	require.Equal(t, instr.ActionFunc, buf.Codelines[0].Root.Action)
}
