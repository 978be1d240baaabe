package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/xcvm/internal/config"
)

// Disassemble returns a human-readable listing of the program
func Disassemble(prog *Program, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for pc, in := range prog.Code {
		sb.WriteString(fmt.Sprintf("%04d ", pc))
		sb.WriteString(formatInstruction(in, RegisterName))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// RegisterName returns the bare register name: x3.
func RegisterName(i int) string {
	return config.RegisterPrefix + strconv.Itoa(i)
}

// RegisterString renders register i with its sigil and value, e.g.
// "@x1=(2, 3)" or "$x2=[(1,), (null)]". Empty registers render as
// "x3=null".
func RegisterString(s *State, i int, debug bool) string {
	if s.IsNull(i) {
		return RegisterName(i) + "=" + config.NullRegisterText
	}
	v := s.Get(i)
	text := v.String()
	if debug {
		text = v.DebugString()
	}
	return string(v.Sigil()) + RegisterName(i) + "=" + text
}

// formatInstruction renders "x1 = Op(args)" using reg for every register.
func formatInstruction(in Instruction, reg func(int) string) string {
	info, ok := in.Op.info()
	if !ok {
		return fmt.Sprintf("UNKNOWN(%d)", byte(in.Op))
	}

	var ops []string
	if info.hasName {
		ops = append(ops, strconv.Quote(in.Name))
	}
	for _, r := range in.Args {
		ops = append(ops, reg(r))
	}
	if info.hasIndex {
		ops = append(ops, strconv.FormatInt(in.Index, 10))
	}

	call := info.name + "(" + strings.Join(ops, ", ") + ")"
	if info.hasOut {
		return RegisterName(in.Out) + " = " + call
	}
	return call
}
