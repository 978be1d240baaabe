// Package vm implements the register machine that runs tensor programs:
// register values, the register file and the instruction loop.
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Registers
	OP_IN       Opcode = iota // Load a named input into a register
	OP_OUT                    // Publish a register as a named output
	OP_FREE                   // Drop a register's value
	OP_IDENTITY               // Copy a register

	// Sequences
	OP_SEQUENCE_CREATE         // New empty sequence
	OP_SEQUENCE_APPEND         // Append an array register to a sequence
	OP_SEQUENCE_APPEND_ABSENT  // Append an absent slot
	OP_SEQUENCE_LOOKUP         // Read one slot; negative index counts from the end
	OP_SEQUENCE_POP            // Remove the last slot
	OP_SEQUENCE_SIZE           // Slot count as an int64 scalar
	OP_SEQUENCE_COPY           // Shallow copy
	OP_SEQUENCE_CLEAR          // Drop every slot

	// Debugging
	OP_PRINT // Write registers to the VM output
)

// opInfo describes the operands an opcode takes.
type opInfo struct {
	name     string
	hasOut   bool // writes Instruction.Out
	args     int  // register operands; -1 for any number
	hasIndex bool // uses Instruction.Index
	hasName  bool // uses Instruction.Name
}

var opInfos = [...]opInfo{
	OP_IN:                     {name: "In", hasOut: true, hasName: true},
	OP_OUT:                    {name: "Out", args: 1, hasName: true},
	OP_FREE:                   {name: "Free", args: 1},
	OP_IDENTITY:               {name: "Identity", hasOut: true, args: 1},
	OP_SEQUENCE_CREATE:        {name: "SequenceCreate", hasOut: true},
	OP_SEQUENCE_APPEND:        {name: "SequenceAppend", args: 2},
	OP_SEQUENCE_APPEND_ABSENT: {name: "SequenceAppendAbsent", args: 1},
	OP_SEQUENCE_LOOKUP:        {name: "SequenceLookup", hasOut: true, args: 1, hasIndex: true},
	OP_SEQUENCE_POP:           {name: "SequencePop", hasOut: true, args: 1},
	OP_SEQUENCE_SIZE:          {name: "SequenceSize", hasOut: true, args: 1},
	OP_SEQUENCE_COPY:          {name: "SequenceCopy", hasOut: true, args: 1},
	OP_SEQUENCE_CLEAR:         {name: "SequenceClear", args: 1},
	OP_PRINT:                  {name: "Print", args: -1},
}

func (op Opcode) info() (opInfo, bool) {
	if int(op) < len(opInfos) {
		return opInfos[op], true
	}
	return opInfo{}, false
}

func (op Opcode) String() string {
	if info, ok := op.info(); ok {
		return info.name
	}
	return "UNKNOWN"
}

// LookupOpcode resolves an instruction name such as "SequenceAppend".
func LookupOpcode(name string) (Opcode, bool) {
	for i, info := range opInfos {
		if info.name == name {
			return Opcode(i), true
		}
	}
	return 0, false
}
