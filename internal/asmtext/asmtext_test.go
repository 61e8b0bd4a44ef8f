package asmtext_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/asmtext"
	"github.com/eshc-lang/eshc/internal/instr"
)

func TestDisassembleAssembleRoundTrip(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(3), instr.String("hi, there"), instr.Float(1.5)}},
		{Action: instr.ActionDPVar, Params: []instr.Param{instr.Ident(2)}, Tags: map[string]string{"Name": "x", "Scope": "Line"}},
		{Action: instr.ActionReturn},
	}

	text := asmtext.Disassemble(flat)
	reparsed, err := asmtext.Assemble(text)
	require.NoError(t, err)
	require.Equal(t, flat, reparsed)
}

func TestAssembleSkipsBlankLines(t *testing.T) {
	out, err := asmtext.Assemble("Func #0\n\n  \nReturn\n")
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestAssembleRejectsMalformedIdent(t *testing.T) {
	_, err := asmtext.Assemble("Call #notanumber")
	require.Error(t, err)
}
