// Package input models the nondeterministic, set-valued inputs u(t) ∈ 𝒰(t)
// driving an affine system, as a small sum type dispatched by a type switch
// rather than an interface hierarchy with embedding: ConstantInput and
// VaryingInput are the only two variants and neither needs to know about
// the other.
package input

import (
	"fmt"

	"github.com/reachcore/reach/lazyset"
	"gonum.org/v1/gonum/mat"
)

// InputState is an opaque iteration cursor over a NonDeterministicInput: the
// set the iterator currently yields and its 1-based position.
type InputState struct {
	Set   lazyset.ConvexSet
	Index int
}

// NonDeterministicInput is a uniform iterator abstraction over constant or
// time-varying set-valued inputs.
type NonDeterministicInput interface {
	// Start returns the initial iteration state.
	Start() InputState
	// Next advances state by one step.
	Next(state InputState) InputState
	// Done reports whether state is past the end of the sequence.
	Done(state InputState) bool
	// Length returns the number of sets in the sequence (1 for a constant
	// input, by convention, even though it is semantically infinite).
	Length() int
	// Dim returns the ambient dimension of the input sets.
	Dim() int
}

// ConstantInput is a NonDeterministicInput that yields the same set U at
// every step, forever.
type ConstantInput struct {
	u lazyset.ConvexSet
}

// NewConstantInput creates a ConstantInput over u.
func NewConstantInput(u lazyset.ConvexSet) ConstantInput {
	return ConstantInput{u: u}
}

// Set returns the constant input set.
func (c ConstantInput) Set() lazyset.ConvexSet { return c.u }

// Dim implements NonDeterministicInput.
func (c ConstantInput) Dim() int { return c.u.Dim() }

// Start implements NonDeterministicInput: the index is always 1.
func (c ConstantInput) Start() InputState { return InputState{Set: c.u, Index: 1} }

// Next implements NonDeterministicInput: the set and index never change.
func (c ConstantInput) Next(state InputState) InputState { return InputState{Set: c.u, Index: 1} }

// Done implements NonDeterministicInput: a constant input never terminates.
func (c ConstantInput) Done(state InputState) bool { return false }

// Length implements NonDeterministicInput: 1, by convention.
func (c ConstantInput) Length() int { return 1 }

// MulMatrix implements the algebra M·ConstantInput(U) = ConstantInput(M·U).
func (c ConstantInput) MulMatrix(m *mat.Dense) ConstantInput {
	return NewConstantInput(lazyset.ApplyLinearMap(m, c.u))
}

// VaryingInput is a NonDeterministicInput that yields U_1, U_2, ..., U_m in
// order and then terminates.
type VaryingInput struct {
	sets []lazyset.ConvexSet
}

// NewVaryingInput creates a VaryingInput over sets, in order. It returns an
// error if sets is empty or if the sets do not share a common dimension.
func NewVaryingInput(sets []lazyset.ConvexSet) (VaryingInput, error) {
	if len(sets) == 0 {
		return VaryingInput{}, fmt.Errorf("input: varying input requires at least one set")
	}
	n := sets[0].Dim()
	for i, s := range sets {
		if s.Dim() != n {
			return VaryingInput{}, fmt.Errorf("input: set %d has dimension %d, want %d", i, s.Dim(), n)
		}
	}
	return VaryingInput{sets: sets}, nil
}

// Dim implements NonDeterministicInput.
func (v VaryingInput) Dim() int { return v.sets[0].Dim() }

// Start implements NonDeterministicInput: (U_1, 1).
func (v VaryingInput) Start() InputState { return InputState{Set: v.sets[0], Index: 1} }

// Next implements NonDeterministicInput: from (·, k) returns (U_{k+1}, k+1).
// Calling Next on the last valid index returns a state for which Done is
// true; callers must check Done before dereferencing Set past the end.
func (v VaryingInput) Next(state InputState) InputState {
	k := state.Index + 1
	if k > len(v.sets) {
		return InputState{Set: nil, Index: k}
	}
	return InputState{Set: v.sets[k-1], Index: k}
}

// Done implements NonDeterministicInput: true once state.Index exceeds m.
func (v VaryingInput) Done(state InputState) bool { return state.Index > len(v.sets) }

// Length implements NonDeterministicInput: m, the number of sets.
func (v VaryingInput) Length() int { return len(v.sets) }

// MulMatrix maps every U_i to M·U_i, producing a new VaryingInput.
func (v VaryingInput) MulMatrix(m *mat.Dense) VaryingInput {
	out := make([]lazyset.ConvexSet, len(v.sets))
	for i, s := range v.sets {
		out[i] = lazyset.ApplyLinearMap(m, s)
	}
	return VaryingInput{sets: out}
}
