package vm

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/funvibe/xcvm/internal/check"
	"github.com/funvibe/xcvm/internal/tensor"
)

// ErrMemoryBudget is returned by Account when live registers hold more
// bytes than the configured budget.
var ErrMemoryBudget = errors.New("memory budget exceeded")

// State is the register file of one run. Empty registers are nil.
// A State is owned by a single goroutine.
type State struct {
	id     uuid.UUID
	regs   []Value
	peak   uint64
	budget uint64 // 0 means unlimited
}

// NewState creates numRegs empty registers. budget caps TotalSize as
// checked by Account; 0 disables the cap.
func NewState(numRegs int, budget uint64) *State {
	check.GE(numRegs, 0)
	return &State{
		id:     uuid.New(),
		regs:   make([]Value, numRegs),
		budget: budget,
	}
}

// ID identifies the run in logs.
func (s *State) ID() uuid.UUID { return s.id }

func (s *State) NumRegs() int { return len(s.regs) }

func (s *State) checkReg(i int) {
	check.GE(i, 0, func(sk *check.Sink) { sk.Add(" register") })
	check.LT(i, len(s.regs), func(sk *check.Sink) { sk.Add(" register") })
}

// IsNull reports whether register i is empty.
func (s *State) IsNull(i int) bool {
	s.checkReg(i)
	return s.regs[i] == nil
}

// Get returns register i, which must hold a value.
func (s *State) Get(i int) Value {
	s.checkReg(i)
	v := s.regs[i]
	if v == nil {
		check.Fail("regs[i] != nil").Add(RegisterName(i)).Abort()
	}
	return v
}

// GetArray returns the array in register i.
func (s *State) GetArray(i int) tensor.Array {
	return AsArray(s.Get(i))
}

// GetSequence returns the sequence in register i for in-place updates.
func (s *State) GetSequence(i int) *SequenceValue {
	return AsSequence(s.Get(i))
}

// Set overwrites register i, dropping its previous value.
func (s *State) Set(i int, v Value) {
	s.checkReg(i)
	check.True(v != nil, "v != nil", func(sk *check.Sink) { sk.Add(RegisterName(i)) })
	s.regs[i] = v
}

// SetArray stores a in register i.
func (s *State) SetArray(i int, a tensor.Array) {
	s.Set(i, FromArray(a))
}

// CreateSequence stores a new empty sequence in register i and returns it.
func (s *State) CreateSequence(i int) *SequenceValue {
	seq := AsSequence(FromKind(KindSequence))
	s.Set(i, seq)
	return seq
}

// Free empties register i.
func (s *State) Free(i int) {
	s.checkReg(i)
	s.regs[i] = nil
}

// TotalSize sums the bytes held by every live register. A sequence
// stored in two registers is counted twice.
func (s *State) TotalSize() uint64 {
	var total uint64
	for _, v := range s.regs {
		if v != nil {
			total += v.TotalSize()
		}
	}
	return total
}

// PeakSize is the largest TotalSize seen by Account.
func (s *State) PeakSize() uint64 { return s.peak }

// Account records the current size and enforces the budget.
func (s *State) Account() error {
	total := s.TotalSize()
	if total > s.peak {
		s.peak = total
	}
	if s.budget > 0 && total > s.budget {
		return fmt.Errorf("%w: %s live, budget %s", ErrMemoryBudget,
			humanize.IBytes(total), humanize.IBytes(s.budget))
	}
	return nil
}
