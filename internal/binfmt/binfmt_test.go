package binfmt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/binfmt"
	"github.com/eshc-lang/eshc/internal/instr"
)

func sampleBuffer(t *testing.T) *instr.Buffer {
	t.Helper()
	flat := []instr.Instruction{
		{Action: instr.ActionSegFunc},
		{Action: instr.ActionDF, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionSegParam},
		{Action: instr.ActionDPVar, Params: []instr.Param{instr.Ident(1)}, Tags: map[string]string{"Scope": "Line"}},
		{Action: instr.ActionSegCode},
		{Action: instr.ActionFunc, Params: []instr.Param{instr.Ident(0)}},
		{Action: instr.ActionCall, Params: []instr.Param{instr.Int(1), instr.String("x")}},
	}
	buf, err := instr.ParseBuffer(flat)
	require.NoError(t, err)
	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	buf := sampleBuffer(t)
	data, err := binfmt.Encode(buf)
	require.NoError(t, err)

	decoded, err := binfmt.Decode(data)
	require.NoError(t, err)
	require.Equal(t, buf.Flush(), decoded.Flush())
}

func TestEncodeIsDeterministic(t *testing.T) {
	buf := sampleBuffer(t)
	a, err := binfmt.Encode(buf)
	require.NoError(t, err)
	b, err := binfmt.Encode(buf)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
