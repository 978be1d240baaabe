package vm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/xcvm/internal/check/checktest"
	"github.com/funvibe/xcvm/internal/tensor"
)

const listProgram = `
inputs:
  a:
    dtype: float32
    shape: [2, 3]
  b:
    dtype: int64
    shape: [1]
    data: [7]
code:
  - {op: In, out: 0, name: a}
  - {op: In, out: 1, name: b}
  - {op: SequenceCreate, out: 2}
  - {op: SequenceAppend, args: [2, 0]}
  - {op: SequenceAppendAbsent, args: [2]}
  - {op: SequenceAppend, args: [2, 1]}
  - {op: SequenceSize, out: 3, args: [2]}
  - {op: SequenceLookup, out: 4, args: [2], index: -1}
  - {op: Out, name: list, args: [2]}
  - {op: Out, name: size, args: [3]}
  - {op: Out, name: last, args: [4]}
`

// runProgram parses and runs src, failing the test on any error.
func runProgram(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	prog, err := ParseProgram([]byte(src), "test.yaml")
	require.NoError(t, err)
	res, err := New(opts).Run(context.Background(), prog, nil)
	require.NoError(t, err)
	return res
}

func TestRunSequenceProgram(t *testing.T) {
	res := runProgram(t, listProgram, Options{})

	assert.Equal(t, []string{"list", "size", "last"}, res.Order)
	assert.Equal(t, "[(2, 3), (null), (1,)]", res.Outputs["list"].String())
	assert.Equal(t, byte('$'), res.Outputs["list"].Sigil())
	assert.Equal(t, "array(3, shape=(), dtype=int64)", res.Outputs["size"].DebugString())
	assert.Equal(t, "array([7], shape=(1,), dtype=int64)", res.Outputs["last"].DebugString())

	// a: 24 bytes, b: 8 bytes, list: 32 bytes, size: 8 bytes, last: 8 bytes
	assert.Equal(t, uint64(80), res.State.TotalSize())
	assert.Equal(t, uint64(80), res.State.PeakSize())
}

func TestRunInputsOverrideDefaults(t *testing.T) {
	prog, err := ParseProgram([]byte(listProgram), "test.yaml")
	require.NoError(t, err)
	res, err := New(Options{}).Run(context.Background(), prog, map[string]tensor.Array{
		"a": tensor.Zeros(tensor.Float32, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "[(5,), (null), (1,)]", res.Outputs["list"].String())
}

func TestRunOutputSnapshot(t *testing.T) {
	res := runProgram(t, `
code:
  - {op: SequenceCreate, out: 0}
  - {op: Out, name: before, args: [0]}
  - {op: SequenceAppendAbsent, args: [0]}
  - {op: Identity, out: 1, args: [0]}
  - {op: SequenceAppendAbsent, args: [1]}
  - {op: Out, name: after, args: [0]}
  - {op: Out, name: copy, args: [1]}
`, Options{})
	assert.Equal(t, "[]", res.Outputs["before"].String())
	assert.Equal(t, "[(null)]", res.Outputs["after"].String())
	assert.Equal(t, "[(null), (null)]", res.Outputs["copy"].String())
}

func TestRunPopCopyClear(t *testing.T) {
	res := runProgram(t, `
inputs:
  x: {shape: [4]}
code:
  - {op: In, out: 0, name: x}
  - {op: SequenceCreate, out: 1}
  - {op: SequenceAppend, args: [1, 0]}
  - {op: SequenceAppend, args: [1, 0]}
  - {op: SequenceCopy, out: 2, args: [1]}
  - {op: SequencePop, out: 3, args: [1]}
  - {op: SequenceClear, args: [2]}
  - {op: Free, args: [0]}
  - {op: Out, name: seq, args: [1]}
  - {op: Out, name: cleared, args: [2]}
  - {op: Out, name: popped, args: [3]}
`, Options{})
	assert.Equal(t, "[(4,)]", res.Outputs["seq"].String())
	assert.Equal(t, "[]", res.Outputs["cleared"].String())
	assert.Equal(t, "(4,)", res.Outputs["popped"].String())
	assert.True(t, res.State.IsNull(0))
}

func TestRunPrint(t *testing.T) {
	var out bytes.Buffer
	runProgram(t, `
inputs:
  x: {dtype: int32, shape: [2], data: [1, 2]}
code:
  - {op: In, out: 0, name: x}
  - {op: SequenceCreate, out: 1}
  - {op: SequenceAppendAbsent, args: [1]}
  - {op: Print, args: [0, 1, 2]}
`, Options{Output: &out})
	assert.Equal(t, "@x0=(2,) $x1=[(null)] x2=null\n", out.String())

	out.Reset()
	runProgram(t, `
inputs:
  x: {dtype: int32, shape: [2], data: [1, 2]}
code:
  - {op: In, out: 0, name: x}
  - {op: Print, args: [0]}
`, Options{Output: &out, DebugValues: true})
	assert.Equal(t, "@x0=array([1, 2], shape=(2,), dtype=int32)\n", out.String())
}

func TestRunTrace(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	runProgram(t, `
inputs:
  x: {shape: [3]}
code:
  - {op: In, out: 0, name: x}
  - {op: SequenceCreate, out: 1}
  - {op: SequenceAppend, args: [1, 0]}
`, Options{Trace: true, Logger: logger})

	text := logs.String()
	assert.Contains(t, text, `msg="x0 = In(\"x\")"`)
	assert.Contains(t, text, `msg="-> @x0=(3,)"`)
	assert.Contains(t, text, `msg="SequenceAppend($x1=[], @x0=(3,))"`)
	assert.Contains(t, text, "op=SequenceAppend")
	assert.Contains(t, text, "pc=2")
	assert.Contains(t, text, "run=")
	assert.Equal(t, 6, strings.Count(text, "level=debug"), text)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		opts    Options
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing input",
			src:     "code:\n  - {op: In, out: 0, name: nope}\n",
			wantErr: ErrMissingInput,
			wantMsg: `0000 In: missing input "nope"`,
		},
		{
			name: "budget",
			src: `
inputs:
  x: {dtype: float64, shape: [4]}
code:
  - {op: In, out: 0, name: x}
  - {op: SequenceCreate, out: 1}
  - {op: SequenceAppend, args: [1, 0]}
`,
			opts:    Options{Budget: 40},
			wantErr: ErrMemoryBudget,
			wantMsg: "0002 SequenceAppend: memory budget exceeded: 64 B live, budget 40 B",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseProgram([]byte(tt.src), "test.yaml")
			require.NoError(t, err)
			_, err = New(tt.opts).Run(context.Background(), prog, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestRunCancelled(t *testing.T) {
	prog, err := ParseProgram([]byte(listProgram), "test.yaml")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(Options{}).Run(ctx, prog, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "0000 In: context canceled", err.Error())
}

func TestRunInvariantViolations(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		context string
	}{
		{
			name:    "append to array",
			src:     "inputs: {x: {shape: [1]}}\ncode:\n  - {op: In, out: 0, name: x}\n  - {op: SequenceAppend, args: [0, 0]}\n",
			message: "Check `kind == Sequence' failed!",
			context: "0",
		},
		{
			name:    "lookup out of range",
			src:     "code:\n  - {op: SequenceCreate, out: 0}\n  - {op: SequenceLookup, out: 1, args: [0], index: 2}\n",
			message: "Check `2' < `0' failed!",
			context: "(2 vs 0) index 2",
		},
		{
			name:    "lookup absent",
			src:     "code:\n  - {op: SequenceCreate, out: 0}\n  - {op: SequenceAppendAbsent, args: [0]}\n  - {op: SequenceLookup, out: 1, args: [0], index: -1}\n",
			message: "Check `slot present' failed!",
			context: "x0[0]",
		},
		{
			name:    "read empty register",
			src:     "code:\n  - {op: SequenceSize, out: 1, args: [0]}\n",
			message: "Check `regs[i] != nil' failed!",
			context: "x0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseProgram([]byte(tt.src), "test.yaml")
			require.NoError(t, err)
			f := checktest.Expect(t, func() {
				New(Options{}).Run(context.Background(), prog, nil)
			})
			assert.Equal(t, tt.message, f.Message)
			assert.Equal(t, tt.context, f.Context)
		})
	}
}

func TestEmitGrowsRegisters(t *testing.T) {
	var p Program
	p.Emit(Instruction{Op: OP_SEQUENCE_CREATE, Out: 2})
	p.Emit(Instruction{Op: OP_SEQUENCE_APPEND_ABSENT, Out: -1, Args: []int{4}})
	assert.Equal(t, 5, p.NumRegs)
	assert.Len(t, p.Code, 2)
}

func TestEmitRejectsBadRegisters(t *testing.T) {
	var p Program
	f := checktest.Expect(t, func() {
		p.Emit(Instruction{Op: OP_FREE, Out: -1, Args: []int{-2}})
	})
	assert.Equal(t, "Check `assertion' failed!", f.Message)
	assert.Contains(t, f.Context, "operand register")
	assert.Equal(t, "vm.(*Program).Emit", f.Func)

	f = checktest.Expect(t, func() {
		p.Emit(Instruction{Op: OP_SEQUENCE_CREATE, Out: 1 << 20})
	})
	assert.Contains(t, f.Context, "out register")
	assert.Empty(t, p.Code)
}
