package dice_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/montecarlo/internal/game/dice"
)

func sixSided(t testing.TB, opts ...dice.Option) *dice.Die[int] {
	t.Helper()
	d, err := dice.New([]int{1, 2, 3, 4, 5, 6}, opts...)
	require.NoError(t, err)
	return d
}

func TestNew_AllWeightsDefault(t *testing.T) {
	d := sixSided(t)
	require.Len(t, d.Show(), 6)
	for _, fw := range d.Show() {
		assert.Equal(t, 1.0, fw.Weight, "face %d", fw.Face)
	}
}

// TestNew_AllWeightsDefault_Property verifies a freshly constructed die has
// weight 1.0 on every face for arbitrary unique face sets.
func TestNew_AllWeightsDefault_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.SliceOfNDistinct(rapid.String(), 1, 30, rapid.ID[string]).Draw(rt, "faces")
		d, err := dice.New(faces)
		require.NoError(rt, err)
		assert.Equal(rt, faces, d.Faces())
		for _, fw := range d.Show() {
			assert.Equal(rt, dice.DefaultWeight, fw.Weight)
		}
	})
}

func TestNew_RejectsEmpty(t *testing.T) {
	_, err := dice.New([]int{})
	assert.ErrorIs(t, err, dice.ErrInvalidArgument)
}

func TestNew_RejectsDuplicateFace(t *testing.T) {
	_, err := dice.New([]int{1, 1, 2})
	assert.ErrorIs(t, err, dice.ErrDuplicateFace)
}

func TestNew_RejectsNaNFace(t *testing.T) {
	_, err := dice.New([]float64{1, math.NaN()})
	assert.ErrorIs(t, err, dice.ErrInvalidArgument)
}

func TestNew_CopiesFaces(t *testing.T) {
	faces := []string{"H", "T"}
	d, err := dice.New(faces)
	require.NoError(t, err)
	faces[0] = "X"
	assert.Equal(t, []string{"H", "T"}, d.Faces())
}

func TestChangeWeight_UpdatesOnlyThatFace(t *testing.T) {
	d := sixSided(t)
	require.NoError(t, d.ChangeWeight(6, 3.5))

	for _, fw := range d.Show() {
		if fw.Face == 6 {
			assert.Equal(t, 3.5, fw.Weight)
		} else {
			assert.Equal(t, 1.0, fw.Weight)
		}
	}
}

// TestChangeWeight_Property verifies ChangeWeight followed by Show reflects the
// new weight on the target face only.
func TestChangeWeight_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		faces := make([]int, n)
		for i := range faces {
			faces[i] = i
		}
		d, err := dice.New(faces)
		require.NoError(rt, err)

		target := rapid.IntRange(0, n-1).Draw(rt, "target")
		w := rapid.Float64Range(0, 1e6).Draw(rt, "weight")
		require.NoError(rt, d.ChangeWeight(target, w))

		for _, fw := range d.Show() {
			if fw.Face == target {
				assert.Equal(rt, w, fw.Weight)
			} else {
				assert.Equal(rt, 1.0, fw.Weight)
			}
		}
	})
}

func TestChangeWeight_AcceptsConvertibleValues(t *testing.T) {
	d := sixSided(t)
	require.NoError(t, d.ChangeWeight(1, 3))
	require.NoError(t, d.ChangeWeight(2, "2.5"))
	require.NoError(t, d.ChangeWeight(3, float32(0.5)))

	w, ok := d.Weight(1)
	require.True(t, ok)
	assert.Equal(t, 3.0, w)
	w, _ = d.Weight(2)
	assert.Equal(t, 2.5, w)
	w, _ = d.Weight(3)
	assert.Equal(t, 0.5, w)
}

func TestChangeWeight_Idempotent(t *testing.T) {
	d := sixSided(t)
	require.NoError(t, d.ChangeWeight(4, 2))
	before := d.Show()
	require.NoError(t, d.ChangeWeight(4, 2))
	assert.Equal(t, before, d.Show())
}

func TestChangeWeight_Errors(t *testing.T) {
	cases := []struct {
		name   string
		face   int
		weight any
		want   error
	}{
		{"unknown face", 7, 1.0, dice.ErrFaceNotFound},
		{"unknown face checked first", 7, "abc", dice.ErrFaceNotFound},
		{"not numeric", 1, "abc", dice.ErrInvalidArgument},
		{"nil", 1, nil, dice.ErrInvalidArgument},
		{"struct", 1, struct{}{}, dice.ErrInvalidArgument},
		{"nan", 1, math.NaN(), dice.ErrInvalidArgument},
		{"inf string", 1, "inf", dice.ErrInvalidArgument},
		{"negative", 1, -0.5, dice.ErrNegativeWeight},
		{"negative string", 1, "-2", dice.ErrNegativeWeight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := sixSided(t)
			before := d.Show()
			err := d.ChangeWeight(tc.face, tc.weight)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, d.Show(), "failed update must not change state")
		})
	}
}

func TestSetWeight_RejectsUnknownFace(t *testing.T) {
	d := sixSided(t)
	assert.ErrorIs(t, d.SetWeight(0, 1), dice.ErrFaceNotFound)
}

func TestShow_ReturnsCopy(t *testing.T) {
	d := sixSided(t)
	shown := d.Show()
	shown[0].Weight = 99
	w, _ := d.Weight(1)
	assert.Equal(t, 1.0, w)
}

func TestWeight_UnknownFace(t *testing.T) {
	d := sixSided(t)
	_, ok := d.Weight(42)
	assert.False(t, ok)
}

// TestRoll_LengthAndMembership_Property verifies Roll(n) returns exactly n
// outcomes, each a face of the die.
func TestRoll_LengthAndMembership_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.SliceOfNDistinct(rapid.IntRange(-100, 100), 1, 12, rapid.ID[int]).Draw(rt, "faces")
		n := rapid.IntRange(1, 500).Draw(rt, "n")
		seed := rapid.Int64().Draw(rt, "seed")

		d, err := dice.New(faces, dice.WithSource(dice.NewSeededSource(seed)))
		require.NoError(rt, err)

		out, err := d.Roll(n)
		require.NoError(rt, err)
		require.Len(rt, out, n)
		for _, o := range out {
			assert.Contains(rt, faces, o)
		}
	})
}

func TestRoll_RejectsNonPositive(t *testing.T) {
	d := sixSided(t)
	for _, n := range []int{0, -1} {
		_, err := d.Roll(n)
		assert.ErrorIs(t, err, dice.ErrInvalidArgument, "n=%d", n)
	}
}

func TestRollWith_RejectsNilSource(t *testing.T) {
	d := sixSided(t)
	_, err := d.RollWith(1, nil)
	assert.ErrorIs(t, err, dice.ErrInvalidArgument)
}

func TestRoll_ZeroWeightFaceNeverDrawn(t *testing.T) {
	d := sixSided(t, dice.WithSource(dice.NewSeededSource(7)))
	require.NoError(t, d.ChangeWeight(3, 0))

	out, err := d.Roll(10000)
	require.NoError(t, err)
	for _, o := range out {
		require.NotEqual(t, 3, o)
	}
}

// TestRoll_ZeroWeightFaceNeverDrawn_Property picks a random zero-weight face
// and verifies it never appears.
func TestRoll_ZeroWeightFaceNeverDrawn_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 10).Draw(rt, "faces")
		faces := make([]int, n)
		for i := range faces {
			faces[i] = i
		}
		d, err := dice.New(faces, dice.WithSource(dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))))
		require.NoError(rt, err)
		zero := rapid.IntRange(0, n-1).Draw(rt, "zero")
		require.NoError(rt, d.SetWeight(zero, 0))

		out, err := d.Roll(1000)
		require.NoError(rt, err)
		assert.NotContains(rt, out, zero)
	})
}

func TestRoll_CoinWithZeroHeads(t *testing.T) {
	d, err := dice.New([]string{"H", "T"})
	require.NoError(t, err)
	require.NoError(t, d.ChangeWeight("H", 0))

	out, err := d.Roll(100)
	require.NoError(t, err)
	require.Len(t, out, 100)
	for _, o := range out {
		assert.Equal(t, "T", o)
	}
}

func TestRoll_LastFaceOnlyPositive(t *testing.T) {
	d := sixSided(t, dice.WithSource(dice.NewSeededSource(11)))
	for f := 1; f <= 5; f++ {
		require.NoError(t, d.SetWeight(f, 0))
	}
	out, err := d.Roll(500)
	require.NoError(t, err)
	for _, o := range out {
		assert.Equal(t, 6, o)
	}
}

func TestRoll_AllZeroWeightsIsInvalidState(t *testing.T) {
	d, err := dice.New([]string{"H", "T"})
	require.NoError(t, err)
	require.NoError(t, d.SetWeight("H", 0))
	require.NoError(t, d.SetWeight("T", 0))

	_, err = d.Roll(1)
	assert.ErrorIs(t, err, dice.ErrInvalidState)
}

func TestRoll_ReflectsWeightChangesImmediately(t *testing.T) {
	d, err := dice.New([]string{"H", "T"}, dice.WithSource(dice.NewSeededSource(3)))
	require.NoError(t, err)

	require.NoError(t, d.SetWeight("T", 0))
	out, err := d.Roll(50)
	require.NoError(t, err)
	assert.NotContains(t, out, "T")

	require.NoError(t, d.SetWeight("T", 1))
	require.NoError(t, d.SetWeight("H", 0))
	out, err = d.Roll(50)
	require.NoError(t, err)
	assert.NotContains(t, out, "H")
}

func TestRoll_WeightedFrequencies(t *testing.T) {
	d, err := dice.New([]string{"A", "B"}, dice.WithSource(dice.NewSeededSource(99)))
	require.NoError(t, err)
	require.NoError(t, d.SetWeight("A", 3))

	out, err := d.Roll(20000)
	require.NoError(t, err)
	a := 0
	for _, o := range out {
		if o == "A" {
			a++
		}
	}
	assert.InDelta(t, 0.75, float64(a)/float64(len(out)), 0.02)
}

func TestRoll_DoesNotMutateDie(t *testing.T) {
	d := sixSided(t)
	require.NoError(t, d.SetWeight(2, 4))
	before := d.Show()
	_, err := d.Roll(100)
	require.NoError(t, err)
	assert.Equal(t, before, d.Show())
}

func TestRoll_ConcurrentUse(t *testing.T) {
	d := sixSided(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := d.Roll(200)
			assert.NoError(t, err)
			assert.NoError(t, d.SetWeight(1+i%6, float64(i)))
		}(i)
	}
	wg.Wait()
}

func TestRoll_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := sixSided(t, dice.WithLogger(zap.New(core)))

	_, err := d.Roll(4)
	require.NoError(t, err)

	entries := logs.FilterMessage("die rolled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["rolls"])
}

func TestProbabilities_SumToOne(t *testing.T) {
	d := sixSided(t)
	require.NoError(t, d.SetWeight(1, 5))
	probs, err := d.Probabilities()
	require.NoError(t, err)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 0.5, probs[0], 1e-12)
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSeededSource_DifferentSeedsDiverge(t *testing.T) {
	a := dice.NewSeededSource(1)
	b := dice.NewSeededSource(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 100)
}

// TestCryptoSource_Float64_InRange verifies every value is in [0, 1).
func TestCryptoSource_Float64_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
