package lazyset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// VoidSet is the algebraic zero element of Minkowski sum for dimension n: it
// carries no extent (its support function is identically zero in every
// direction) and is used as the "no input present" placeholder returned by
// the discretization engine's nobloating model.
type VoidSet struct {
	dim int
}

// NewVoidSet creates a VoidSet of dimension n.
func NewVoidSet(n int) VoidSet {
	return VoidSet{dim: n}
}

// Dim implements ConvexSet.
func (v VoidSet) Dim() int { return v.dim }

// Support implements ConvexSet: VoidSet is the Minkowski-sum identity, so its
// support function is zero in every direction.
func (v VoidSet) Support(d *mat.VecDense) float64 { return 0 }

// ZeroSet represents the singleton set {0} ⊂ R^n.
type ZeroSet struct {
	dim int
}

// NewZeroSet creates a ZeroSet of dimension n.
func NewZeroSet(n int) ZeroSet {
	return ZeroSet{dim: n}
}

// Dim implements ConvexSet.
func (z ZeroSet) Dim() int { return z.dim }

// Support implements ConvexSet: {0}'s support function is zero everywhere.
func (z ZeroSet) Support(d *mat.VecDense) float64 { return 0 }

// Ball2 is the Euclidean ball of the given radius centered at center.
type Ball2 struct {
	center *mat.VecDense
	radius float64
}

// NewBall2 creates a Ball2 with the given center and radius. It panics if
// radius is negative.
func NewBall2(center *mat.VecDense, radius float64) Ball2 {
	if radius < 0 {
		panic(fmt.Sprintf("lazyset: negative Ball2 radius %v", radius))
	}
	c := mat.VecDenseCopyOf(center)
	return Ball2{center: c, radius: radius}
}

// Dim implements ConvexSet.
func (b Ball2) Dim() int { return b.center.Len() }

// Center returns a copy of the ball's center.
func (b Ball2) Center() *mat.VecDense { return mat.VecDenseCopyOf(b.center) }

// Radius returns the ball's radius.
func (b Ball2) Radius() float64 { return b.radius }

// Support implements ConvexSet: ρ(d) = <c,d> + r‖d‖₂.
func (b Ball2) Support(d *mat.VecDense) float64 {
	return mat.Dot(b.center, d) + b.radius*mat.Norm(d, 2)
}

// BallInf is the axis-aligned box [center-radius, center+radius]^n.
type BallInf struct {
	center *mat.VecDense
	radius float64
}

// NewBallInf creates a BallInf with the given center and radius. It panics
// if radius is negative.
func NewBallInf(center *mat.VecDense, radius float64) BallInf {
	if radius < 0 {
		panic(fmt.Sprintf("lazyset: negative BallInf radius %v", radius))
	}
	c := mat.VecDenseCopyOf(center)
	return BallInf{center: c, radius: radius}
}

// Dim implements ConvexSet.
func (b BallInf) Dim() int { return b.center.Len() }

// Center returns a copy of the ball's center.
func (b BallInf) Center() *mat.VecDense { return mat.VecDenseCopyOf(b.center) }

// Radius returns the ball's radius.
func (b BallInf) Radius() float64 { return b.radius }

// Support implements ConvexSet: ρ(d) = <c,d> + r‖d‖₁.
func (b BallInf) Support(d *mat.VecDense) float64 {
	return mat.Dot(b.center, d) + b.radius*mat.Norm(d, 1)
}
