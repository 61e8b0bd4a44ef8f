// Package binfmt is the instruction-bin codec: it round-trips an
// *instr.Buffer to and from bytes. Grounded on
// core/planfmt/canonical.go's MarshalBinary, which reaches for
// cbor.CanonicalEncOptions() to get a deterministic encoding rather than
// hand-rolling one; we do the same here so two encodes of an identical
// buffer are byte-identical (spec.md §8's determinism property).
package binfmt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/eshc-lang/eshc/internal/instr"
)

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("binfmt: building canonical CBOR encoder: %v", err))
	}
	return m
}()

// Encode flushes buf to its canonical flat instruction stream (Seg::Func,
// Seg::Param, Seg::Code in that order, per instr.Buffer.Flush) and encodes
// it as CBOR.
func Encode(buf *instr.Buffer) ([]byte, error) {
	flat := buf.Flush()
	data, err := encMode.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("binfmt: encode: %w", err)
	}
	return data, nil
}

// Decode parses a CBOR-encoded instruction stream back into a Buffer,
// rebuilding each codeline's branch tree.
func Decode(data []byte) (*instr.Buffer, error) {
	var flat []instr.Instruction
	if err := cbor.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("binfmt: decode: %w", err)
	}
	return instr.ParseBuffer(flat)
}
