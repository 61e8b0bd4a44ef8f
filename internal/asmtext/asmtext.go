// Package asmtext is a textual, line-oriented assembler/disassembler for
// instr.Instruction streams: one instruction per line, `ACTION
// param,param,...` optionally followed by `{key=val,key=val}` tags. The
// target bin's real opcode encoding is out of scope (spec.md §1 Non-goals
// treat the host's opcode surface as opaque), so this format exists purely
// to give the bin codec (internal/binfmt) and the optimizer a human-editable
// textual round-trip for debugging and golden-file tests. A bespoke
// line grammar this small has no natural library home in the pack; it stays
// on strings/strconv (see DESIGN.md).
package asmtext

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/eshc-lang/eshc/internal/instr"
)

// Disassemble renders a flat instruction stream as text, one instruction
// per line.
func Disassemble(flat []instr.Instruction) string {
	var b strings.Builder
	for _, in := range flat {
		b.WriteString(formatInstruction(in))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatInstruction(in instr.Instruction) string {
	var b strings.Builder
	b.WriteString(string(in.Action))
	if len(in.Params) > 0 {
		b.WriteByte(' ')
		parts := make([]string, len(in.Params))
		for i, p := range in.Params {
			parts[i] = formatParam(p)
		}
		b.WriteString(strings.Join(parts, ","))
	}
	if len(in.Tags) > 0 {
		keys := make([]string, 0, len(in.Tags))
		for k := range in.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tagParts := make([]string, len(keys))
		for i, k := range keys {
			tagParts[i] = fmt.Sprintf("%s=%s", k, in.Tags[k])
		}
		b.WriteString(" {")
		b.WriteString(strings.Join(tagParts, ","))
		b.WriteByte('}')
	}
	return b.String()
}

func formatParam(p instr.Param) string {
	switch p.Kind {
	case instr.ParamIdent:
		return fmt.Sprintf("#%d", p.Ident)
	case instr.ParamString:
		return strconv.Quote(p.Str)
	case instr.ParamInt:
		return strconv.FormatInt(p.Int, 10)
	case instr.ParamFloat:
		return strconv.FormatFloat(p.Float, 'g', -1, 64)
	default:
		return ""
	}
}

// Assemble parses Disassemble's textual format back into a flat instruction
// stream.
func Assemble(src string) ([]instr.Instruction, error) {
	var out []instr.Instruction
	for lineNo, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#;") {
			continue
		}
		in, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("asmtext: line %d: %w", lineNo+1, err)
		}
		out = append(out, in)
	}
	return out, nil
}

func parseLine(line string) (instr.Instruction, error) {
	tags := map[string]string{}
	if idx := strings.IndexByte(line, '{'); idx >= 0 {
		if !strings.HasSuffix(line, "}") {
			return instr.Instruction{}, fmt.Errorf("unterminated tag block: %q", line)
		}
		tagBody := line[idx+1 : len(line)-1]
		line = strings.TrimSpace(line[:idx])
		if tagBody != "" {
			for _, kv := range strings.Split(tagBody, ",") {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return instr.Instruction{}, fmt.Errorf("malformed tag %q", kv)
				}
				tags[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}

	action, rest, hasParams := strings.Cut(line, " ")
	action = strings.TrimSpace(action)
	if action == "" {
		return instr.Instruction{}, fmt.Errorf("missing action")
	}

	var params []instr.Param
	if hasParams {
		for _, field := range splitParams(rest) {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			p, err := parseParam(field)
			if err != nil {
				return instr.Instruction{}, err
			}
			params = append(params, p)
		}
	}

	in := instr.Instruction{Action: instr.Action(action), Params: params}
	if len(tags) > 0 {
		in.Tags = tags
	}
	return in, nil
}

// splitParams splits on top-level commas, respecting quoted strings so a
// comma inside a string literal parameter isn't treated as a separator.
func splitParams(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, cur.String())
	return out
}

func parseParam(field string) (instr.Param, error) {
	switch {
	case strings.HasPrefix(field, "#"):
		id, err := strconv.ParseUint(field[1:], 10, 32)
		if err != nil {
			return instr.Param{}, fmt.Errorf("bad ident param %q: %w", field, err)
		}
		return instr.Ident(uint32(id)), nil
	case strings.HasPrefix(field, `"`):
		s, err := strconv.Unquote(field)
		if err != nil {
			return instr.Param{}, fmt.Errorf("bad string param %q: %w", field, err)
		}
		return instr.String(s), nil
	case strings.ContainsAny(field, ".eE") && !strings.HasPrefix(field, "0x"):
		f, err := strconv.ParseFloat(field, 64)
		if err == nil {
			return instr.Float(f), nil
		}
		fallthrough
	default:
		i, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return instr.Param{}, fmt.Errorf("unrecognized param %q", field)
		}
		return instr.Int(i), nil
	}
}
