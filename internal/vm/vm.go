package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/xcvm/internal/check"
	"github.com/funvibe/xcvm/internal/tensor"
)

// Options configures a VM.
type Options struct {
	// Budget caps the bytes held by live registers; 0 is unlimited.
	Budget uint64
	// Trace logs every instruction at debug level.
	Trace bool
	// DebugValues renders full array contents in traces and Print.
	DebugValues bool
	// Logger receives traces. Defaults to logrus.StandardLogger().
	Logger *logrus.Logger
	// Output receives Print output. Defaults to os.Stdout.
	Output io.Writer
}

// VM runs programs. A VM may run many programs, one at a time.
type VM struct {
	opts Options
	log  *logrus.Logger
	out  io.Writer
}

// Result is what a run produced.
type Result struct {
	// Outputs maps Out names to the values published.
	Outputs map[string]Value
	// Order lists output names in the order they were published.
	Order []string
	// State is the register file after the last instruction.
	State *State
}

// New creates a VM
func New(opts Options) *VM {
	vm := &VM{opts: opts, log: opts.Logger, out: opts.Output}
	if vm.log == nil {
		vm.log = logrus.StandardLogger()
	}
	if vm.out == nil {
		vm.out = os.Stdout
	}
	return vm
}

// Run executes prog. inputs override prog.Inputs by name.
func (vm *VM) Run(ctx context.Context, prog *Program, inputs map[string]tensor.Array) (*Result, error) {
	state := NewState(prog.NumRegs, vm.opts.Budget)
	res := &Result{Outputs: make(map[string]Value), State: state}
	log := vm.log.WithField("run", state.ID().String())

	for pc, in := range prog.Code {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%04d %s: %w", pc, in.Op, err)
		}
		if vm.opts.Trace {
			log.WithFields(logrus.Fields{"pc": pc, "op": in.Op.String()}).
				Debug(formatInstruction(in, vm.traceReg(state)))
		}
		if err := vm.exec(state, res, in, prog, inputs); err != nil {
			return res, fmt.Errorf("%04d %s: %w", pc, in.Op, err)
		}
		if vm.opts.Trace && in.Out >= 0 {
			log.WithFields(logrus.Fields{"pc": pc, "op": in.Op.String()}).
				Debug("-> " + RegisterString(state, in.Out, vm.opts.DebugValues))
		}
		if err := state.Account(); err != nil {
			return res, fmt.Errorf("%04d %s: %w", pc, in.Op, err)
		}
	}
	log.WithFields(logrus.Fields{
		"instructions": len(prog.Code),
		"peak_bytes":   state.PeakSize(),
	}).Debug("run finished")
	return res, nil
}

// traceReg renders operand registers, tolerating empty ones.
func (vm *VM) traceReg(state *State) func(int) string {
	return func(r int) string {
		if r < 0 || r >= state.NumRegs() {
			return RegisterName(r)
		}
		return RegisterString(state, r, vm.opts.DebugValues)
	}
}

func (vm *VM) exec(state *State, res *Result, in Instruction, prog *Program, inputs map[string]tensor.Array) error {
	switch in.Op {
	case OP_IN:
		arr, ok := inputs[in.Name]
		if !ok {
			arr, ok = prog.Inputs[in.Name]
		}
		if !ok {
			return fmt.Errorf("%w %q", ErrMissingInput, in.Name)
		}
		state.SetArray(in.Out, arr)

	case OP_OUT:
		if _, dup := res.Outputs[in.Name]; !dup {
			res.Order = append(res.Order, in.Name)
		}
		v := state.Get(in.Args[0])
		if seq, ok := v.(*SequenceValue); ok {
			// Later instructions may keep mutating the register.
			v = seq.Copy()
		}
		res.Outputs[in.Name] = v

	case OP_FREE:
		state.Free(in.Args[0])

	case OP_IDENTITY:
		switch v := state.Get(in.Args[0]).(type) {
		case *ArrayValue:
			state.Set(in.Out, v)
		case *SequenceValue:
			state.Set(in.Out, v.Copy())
		default:
			check.Unreachable()
		}

	case OP_SEQUENCE_CREATE:
		state.CreateSequence(in.Out)

	case OP_SEQUENCE_APPEND:
		seq := state.GetSequence(in.Args[0])
		seq.Append(state.GetArray(in.Args[1]))

	case OP_SEQUENCE_APPEND_ABSENT:
		state.GetSequence(in.Args[0]).AppendAbsent()

	case OP_SEQUENCE_LOOKUP:
		seq := state.GetSequence(in.Args[0])
		index := in.Index
		if index < 0 {
			index += int64(seq.Len())
		}
		check.GE(index, int64(0), func(s *check.Sink) { s.Add(" index ", in.Index) })
		check.LT(index, int64(seq.Len()), func(s *check.Sink) { s.Add(" index ", in.Index) })
		arr, ok := seq.At(int(index))
		check.True(ok, "slot present", func(s *check.Sink) { s.Add(RegisterName(in.Args[0]), "[", index, "]") })
		state.SetArray(in.Out, arr)

	case OP_SEQUENCE_POP:
		arr := state.GetSequence(in.Args[0]).Pop()
		check.True(arr != nil, "popped slot present")
		state.SetArray(in.Out, arr)

	case OP_SEQUENCE_SIZE:
		n := state.GetSequence(in.Args[0]).Len()
		state.SetArray(in.Out, tensor.Scalar(tensor.Int64, float64(n)))

	case OP_SEQUENCE_COPY:
		state.Set(in.Out, state.GetSequence(in.Args[0]).Copy())

	case OP_SEQUENCE_CLEAR:
		state.GetSequence(in.Args[0]).Clear()

	case OP_PRINT:
		parts := make([]string, len(in.Args))
		for i, r := range in.Args {
			parts[i] = RegisterString(state, r, vm.opts.DebugValues)
		}
		fmt.Fprintln(vm.out, strings.Join(parts, " "))

	default:
		check.Unreachable(func(s *check.Sink) { s.Add(byte(in.Op)) })
	}
	return nil
}
