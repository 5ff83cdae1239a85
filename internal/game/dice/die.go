// Package dice provides weighted dice and the randomness sources used to roll
// them.
package dice

import (
	"cmp"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// DefaultWeight is the weight every face starts with.
const DefaultWeight = 1.0

// FaceWeight pairs a face with its current weight.
type FaceWeight[F cmp.Ordered] struct {
	Face   F
	Weight float64
}

// Option configures a Die.
type Option func(*options)

type options struct {
	src    Source
	logger *zap.Logger
}

// WithSource sets the randomness source used by Roll. Defaults to
// NewCryptoSource(). A SeededSource may be shared by several dice; a game
// rolls such dice in position order so the shared stream stays reproducible.
func WithSource(src Source) Option {
	return func(o *options) { o.src = src }
}

// WithLogger sets the logger used for roll and weight-change events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Die is a weighted die with a fixed, ordered set of unique faces.
//
// Invariant: len(faces) == len(weights) >= 1; every weight is finite and >= 0.
// Die is safe for concurrent use.
type Die[F cmp.Ordered] struct {
	faces  []F
	index  map[F]int
	src    Source
	logger *zap.Logger

	mu      sync.RWMutex
	weights []float64
}

// New creates a fair die over faces.
//
// Precondition: faces must be non-empty and pairwise unique.
// Postcondition: Returns a Die whose every weight is DefaultWeight, or an
// error wrapping ErrInvalidArgument or ErrDuplicateFace.
func New[F cmp.Ordered](faces []F, opts ...Option) (*Die[F], error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("dice: %w: a die needs at least one face", ErrInvalidArgument)
	}

	index := make(map[F]int, len(faces))
	for i, f := range faces {
		if f != f { // NaN
			return nil, fmt.Errorf("dice: %w: face %d is NaN", ErrInvalidArgument, i)
		}
		if _, exists := index[f]; exists {
			return nil, fmt.Errorf("dice: %w: %v", ErrDuplicateFace, f)
		}
		index[f] = i
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = NewCryptoSource()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	weights := make([]float64, len(faces))
	for i := range weights {
		weights[i] = DefaultWeight
	}

	return &Die[F]{
		faces:   append([]F(nil), faces...),
		index:   index,
		src:     o.src,
		logger:  o.logger,
		weights: weights,
	}, nil
}

// ChangeWeight replaces the weight of face with weight converted to float64.
// Accepted weights are numeric values and numeric strings.
//
// Precondition: face must be on the die; weight must convert to a finite real >= 0.
// Postcondition: Only face's weight changes. On error the die is unchanged and
// the error wraps ErrFaceNotFound, ErrInvalidArgument or ErrNegativeWeight.
func (d *Die[F]) ChangeWeight(face F, weight any) error {
	if _, ok := d.index[face]; !ok {
		return fmt.Errorf("dice: %w: %v", ErrFaceNotFound, face)
	}
	if weight == nil {
		return fmt.Errorf("dice: %w: weight must not be nil", ErrInvalidArgument)
	}
	w, err := cast.ToFloat64E(weight)
	if err != nil {
		return fmt.Errorf("dice: %w: weight %v is not a real number: %v", ErrInvalidArgument, weight, err)
	}
	return d.SetWeight(face, w)
}

// SetWeight is the typed form of ChangeWeight.
//
// Precondition: face must be on the die; weight must be finite and >= 0.
// Postcondition: Only face's weight changes; idempotent for equal values.
func (d *Die[F]) SetWeight(face F, weight float64) error {
	i, ok := d.index[face]
	if !ok {
		return fmt.Errorf("dice: %w: %v", ErrFaceNotFound, face)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("dice: %w: weight must be finite, got %v", ErrInvalidArgument, weight)
	}
	if weight < 0 {
		return fmt.Errorf("dice: %w: %v", ErrNegativeWeight, weight)
	}

	d.mu.Lock()
	d.weights[i] = weight
	d.mu.Unlock()

	d.logger.Debug("die weight changed",
		zap.Any("face", face),
		zap.Float64("weight", weight),
	)
	return nil
}

// Roll draws n faces with replacement using the die's own Source.
//
// Precondition: n > 0.
// Postcondition: len(result) == n and every element is a face of the die with
// non-zero weight. Returns ErrInvalidArgument for n <= 0 and ErrInvalidState
// when all weights are zero.
func (d *Die[F]) Roll(n int) ([]F, error) {
	return d.RollWith(n, d.src)
}

// RollWith is Roll drawing from src instead of the die's own Source.
//
// Precondition: n > 0; src must be non-nil.
func (d *Die[F]) RollWith(n int, src Source) ([]F, error) {
	if n <= 0 {
		return nil, fmt.Errorf("dice: %w: number of rolls must be positive, got %d", ErrInvalidArgument, n)
	}
	if src == nil {
		return nil, fmt.Errorf("dice: %w: source must not be nil", ErrInvalidArgument)
	}

	cdf, last, err := d.cumulative()
	if err != nil {
		return nil, err
	}

	out := make([]F, n)
	for i := range out {
		u := src.Float64()
		j := sort.Search(len(cdf), func(k int) bool { return cdf[k] > u })
		// Rounding can leave cdf[last] just under 1.
		if j > last {
			j = last
		}
		out[i] = d.faces[j]
	}

	d.logger.Debug("die rolled",
		zap.Int("faces", len(d.faces)),
		zap.Int("rolls", n),
	)
	return out, nil
}

// cumulative snapshots the weights and returns the cumulative normalized
// distribution plus the index of the last face with positive weight.
func (d *Die[F]) cumulative() ([]float64, int, error) {
	probs, err := d.Probabilities()
	if err != nil {
		return nil, 0, err
	}
	cdf := make([]float64, len(probs))
	last := 0
	acc := 0.0
	for i, p := range probs {
		acc += p
		cdf[i] = acc
		if p > 0 {
			last = i
		}
	}
	return cdf, last, nil
}

// Probabilities returns each face's weight divided by the sum of all weights,
// in face order.
//
// Postcondition: Returns ErrInvalidState if the weights sum to zero or overflow.
func (d *Die[F]) Probabilities() ([]float64, error) {
	d.mu.RLock()
	weights := append([]float64(nil), d.weights...)
	d.mu.RUnlock()

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("dice: %w: all weights are zero", ErrInvalidState)
	}
	if math.IsInf(total, 0) {
		return nil, fmt.Errorf("dice: %w: weight sum overflows", ErrInvalidState)
	}

	for i, w := range weights {
		weights[i] = w / total
	}
	return weights, nil
}

// Show returns a copy of the face/weight pairs in face order.
func (d *Die[F]) Show() []FaceWeight[F] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]FaceWeight[F], len(d.faces))
	for i, f := range d.faces {
		out[i] = FaceWeight[F]{Face: f, Weight: d.weights[i]}
	}
	return out
}

// Weight returns the current weight of face and whether face is on the die.
func (d *Die[F]) Weight(face F) (float64, bool) {
	i, ok := d.index[face]
	if !ok {
		return 0, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.weights[i], true
}

// Source returns the Source used by Roll.
func (d *Die[F]) Source() Source {
	return d.src
}

// Faces returns a copy of the die's faces in construction order.
func (d *Die[F]) Faces() []F {
	return append([]F(nil), d.faces...)
}

// Len returns the number of faces.
func (d *Die[F]) Len() int {
	return len(d.faces)
}
