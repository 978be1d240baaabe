package vm

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/xcvm/internal/check"
	"github.com/funvibe/xcvm/internal/config"
	"github.com/funvibe/xcvm/internal/tensor"
)

var (
	ErrUnknownOp    = errors.New("unknown op")
	ErrBadOperands  = errors.New("bad operands")
	ErrMissingInput = errors.New("missing input")
)

// Instruction is one decoded program step.
type Instruction struct {
	Op    Opcode
	Out   int    // destination register, -1 when the op writes none
	Args  []int  // operand registers
	Index int64  // immediate index (SequenceLookup)
	Name  string // input or output name (In, Out)
	Line  int    // line in the program file, 0 if built in code
}

// Program is a list of instructions over NumRegs registers.
type Program struct {
	NumRegs int
	Code    []Instruction
	// Inputs are defaults for In instructions; Run arguments take
	// precedence.
	Inputs map[string]tensor.Array
}

// Emit appends an instruction and grows NumRegs to cover its registers.
// Registers must be in range; the loader reports bad ones as errors first.
func (p *Program) Emit(in Instruction) {
	check.Chk.GreaterOrEqual(in.Out, -1, "out register")
	check.Chk.Less(in.Out, config.MaxRegisters, "out register")
	for _, r := range in.Args {
		check.Chk.GreaterOrEqual(r, 0, "operand register")
		check.Chk.Less(r, config.MaxRegisters, "operand register")
	}
	if in.Out+1 > p.NumRegs {
		p.NumRegs = in.Out + 1
	}
	for _, r := range in.Args {
		if r+1 > p.NumRegs {
			p.NumRegs = r + 1
		}
	}
	p.Code = append(p.Code, in)
}

// InputNames returns the sorted names read by In instructions.
func (p *Program) InputNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, in := range p.Code {
		if in.Op == OP_IN && !seen[in.Name] {
			seen[in.Name] = true
			names = append(names, in.Name)
		}
	}
	sort.Strings(names)
	return names
}

type programFile struct {
	Registers int                  `yaml:"registers"`
	Inputs    map[string]arraySpec `yaml:"inputs"`
	Code      []yaml.Node          `yaml:"code"`
}

type instructionSpec struct {
	Op    string `yaml:"op"`
	Out   *int   `yaml:"out"`
	Args  []int  `yaml:"args"`
	Index int64  `yaml:"index"`
	Name  string `yaml:"name"`
}

type arraySpec struct {
	DType string    `yaml:"dtype"`
	Shape []int64   `yaml:"shape"`
	Data  []float64 `yaml:"data"`
}

// LoadProgram reads a program file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading program %s", path)
	}
	return ParseProgram(data, path)
}

// ParseProgram decodes program YAML. The path argument is used only for
// error messages.
func ParseProgram(data []byte, path string) (*Program, error) {
	var f programFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	prog := &Program{Inputs: make(map[string]tensor.Array)}
	for name, spec := range f.Inputs {
		arr, err := spec.build()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: input %q", path, name)
		}
		prog.Inputs[name] = arr
	}

	for i := range f.Code {
		node := &f.Code[i]
		var spec instructionSpec
		if err := node.Decode(&spec); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, node.Line)
		}
		in, err := spec.build(node.Line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, node.Line)
		}
		prog.Emit(in)
	}

	if f.Registers > config.MaxRegisters {
		return nil, errors.Wrapf(ErrBadOperands, "%s: registers is %d, limit %d",
			path, f.Registers, config.MaxRegisters)
	}
	if f.Registers > 0 {
		if f.Registers < prog.NumRegs {
			return nil, errors.Errorf("%s: registers is %d but code uses %s",
				path, f.Registers, RegisterName(prog.NumRegs-1))
		}
		prog.NumRegs = f.Registers
	}
	return prog, nil
}

func (s *instructionSpec) build(line int) (Instruction, error) {
	op, ok := LookupOpcode(s.Op)
	if !ok {
		return Instruction{}, errors.Wrapf(ErrUnknownOp, "%q", s.Op)
	}
	info, _ := op.info()
	in := Instruction{Op: op, Out: -1, Args: s.Args, Index: s.Index, Name: s.Name, Line: line}

	switch {
	case info.hasOut && s.Out == nil:
		return in, errors.Wrapf(ErrBadOperands, "%s needs out", op)
	case !info.hasOut && s.Out != nil:
		return in, errors.Wrapf(ErrBadOperands, "%s takes no out", op)
	case info.args >= 0 && len(s.Args) != info.args:
		return in, errors.Wrapf(ErrBadOperands, "%s takes %d args, got %d", op, info.args, len(s.Args))
	case info.hasName && s.Name == "":
		return in, errors.Wrapf(ErrBadOperands, "%s needs name", op)
	}
	if s.Out != nil {
		in.Out = *s.Out
		if err := checkRegister(in.Out); err != nil {
			return in, err
		}
	}
	for _, r := range s.Args {
		if err := checkRegister(r); err != nil {
			return in, err
		}
	}
	return in, nil
}

func checkRegister(r int) error {
	switch {
	case r < 0:
		return errors.Wrapf(ErrBadOperands, "negative register %d", r)
	case r >= config.MaxRegisters:
		return errors.Wrapf(ErrBadOperands, "register %d over limit %d", r, config.MaxRegisters)
	}
	return nil
}

func (s *arraySpec) build() (tensor.Array, error) {
	dtype := tensor.Float32
	if s.DType != "" {
		var err error
		if dtype, err = tensor.ParseDType(s.DType); err != nil {
			return nil, err
		}
	}
	shape := tensor.Shape(s.Shape)
	for _, d := range shape {
		if d < 0 {
			return nil, errors.Errorf("negative dimension in shape %s", shape)
		}
	}
	size, ok := shape.SizeChecked()
	if !ok {
		return nil, errors.Errorf("shape %s too large", shape)
	}
	data := s.Data
	if data == nil {
		data = make([]float64, size)
	}
	if int64(len(data)) != size {
		return nil, errors.Errorf("shape %s needs %d elements, got %d", shape, size, len(data))
	}
	return tensor.New(dtype, shape, data), nil
}
