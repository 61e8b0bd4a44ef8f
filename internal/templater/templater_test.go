package templater_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/detemplater"
	"github.com/eshc-lang/eshc/internal/instr"
	"github.com/eshc-lang/eshc/internal/templater"
)

func TestPackDeduplicatesIdenticalCodelines(t *testing.T) {
	line := []instr.Instruction{
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(1)}},
	}
	otherLine := []instr.Instruction{
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(1)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(2)}},
	}
	flat := []instr.Instruction{{Action: instr.ActionSegFunc}, {Action: instr.ActionSegParam}, {Action: instr.ActionSegCode}}
	flat = append(flat, line...)
	flat = append(flat, line...) // identical codeline repeated
	flat = append(flat, otherLine...)

	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)
	require.Len(t, buf.Codelines, 3)

	set := templater.Pack(buf)
	require.Len(t, set.Templates, 2, "two identical codelines must share one template")
	require.Equal(t, set.Order[0], set.Order[1])
	require.NotEqual(t, set.Order[0], set.Order[2])
}

func TestPackUnpackRoundTrip(t *testing.T) {
	flat := []instr.Instruction{
		{Action: instr.ActionSegFunc},
		{Action: instr.ActionDF, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionSegParam},
		{Action: instr.ActionSegCode},
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(1)}},
	}
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)

	set := templater.Pack(buf)
	rebuilt, err := detemplater.Unpack(set)
	require.NoError(t, err)
	require.Equal(t, buf.Flush(), rebuilt.Flush())
}
