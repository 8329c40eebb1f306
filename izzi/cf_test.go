package izzi

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedParam(t *testing.T) {
	assert.InDelta(t, 39.0, expectedParam(50, 200), 0.0001)
	assert.InDelta(t, 234.0, expectedParam(100, 200), 0.0001)
	// below the linear offset the curve is floored at zero
	assert.Equal(t, 0.0, expectedParam(10, 200))
}

func TestCFEngine_DisabledPassesThrough(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()

	for speed := 0; speed <= 100; speed += 5 {
		// WHEN
		engine.Feed(10, 10)
		result := engine.Speed(Supply, speed)

		// THEN
		assert.Equal(t, speed, result)
		assert.Equal(t, 0, engine.ducts[Supply].params.Len())
		assert.Equal(t, 0, engine.ducts[Supply].corrections.Len())
	}
}

func TestCFEngine_ZeroMaxParamStaysDisabled(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()

	// WHEN
	engine.SetMaxParam(0)
	engine.Feed(1, 1)

	// THEN
	assert.False(t, engine.Enabled())
	assert.Equal(t, 60, engine.Speed(Extract, 60))
	assert.Equal(t, 0, engine.ducts[Extract].params.Len())
}

func TestCFEngine_NeedsAlmostFullRingBeforeCorrecting(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()
	engine.SetMaxParam(200)
	assert.Equal(t, 50, engine.Speed(Supply, 50))

	// WHEN
	for i := 0; i < cfParamsLength-2; i++ {
		engine.Feed(29, 39)
	}

	// THEN
	assert.Equal(t, 50, engine.Speed(Supply, 50))

	// WHEN
	engine.Feed(29, 39)

	// THEN
	// expected 39, measured 29: 5% below, damped by 0.95
	assert.Equal(t, 54, engine.Speed(Supply, 50))
	assert.Equal(t, 4, engine.FastCorrection(Supply))
}

func TestCFEngine_SlowCorrectionIntegrates(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()
	engine.SetMaxParam(200)
	engine.Speed(Supply, 50)
	for i := 0; i < cfParamsLength; i++ {
		engine.Feed(29, 39)
	}

	// WHEN
	for i := 0; i < cfCorrectionsLength; i++ {
		engine.Speed(Supply, 50)
	}

	// THEN
	assert.Equal(t, 1, engine.SlowCorrection(Supply))
	assert.Equal(t, 0, engine.ducts[Supply].corrections.Len())
	assert.Equal(t, 55, engine.Speed(Supply, 50))
	// extract has not been driven at all
	assert.Equal(t, 0, engine.SlowCorrection(Extract))
}

func TestCFEngine_CorrectionsAreLimited(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()
	engine.SetMaxParam(200)
	engine.Speed(Supply, 50)
	for i := 0; i < cfParamsLength; i++ {
		engine.Feed(0, 0)
	}

	// WHEN
	var result int
	for i := 0; i < 100; i++ {
		result = engine.Speed(Supply, 50)
	}

	// THEN
	assert.Equal(t, 12, engine.FastCorrection(Supply))
	assert.Equal(t, 12, engine.SlowCorrection(Supply))
	assert.Equal(t, 74, result)
}

func TestCFEngine_SpeedChangeKeepsBias(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()
	engine.SetMaxParam(200)
	engine.Speed(Supply, 50)
	for i := 0; i < cfParamsLength; i++ {
		engine.Feed(0, 0)
	}
	for i := 0; i < 100; i++ {
		engine.Speed(Supply, 50)
	}

	// WHEN
	result := engine.Speed(Supply, 20)

	// THEN
	d := engine.ducts[Supply]
	assert.Equal(t, 0, d.params.Len())
	assert.Equal(t, 0, d.corrections.Len())
	assert.Equal(t, 0, d.fast)
	// the bias survives but is limited to a quarter of the new speed
	assert.Equal(t, 5, d.slow)
	assert.Equal(t, 25, result)
}

func TestCFEngine_ResetBias(t *testing.T) {
	// GIVEN
	engine := NewCFEngine()
	engine.RestoreSlowCorrection(Supply, 3)
	engine.RestoreSlowCorrection(Extract, -2)

	// WHEN
	engine.ResetBias()

	// THEN
	assert.Equal(t, 0, engine.SlowCorrection(Supply))
	assert.Equal(t, 0, engine.SlowCorrection(Extract))
}

func TestCFEngine_OutputStaysInBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for _, maxParam := range []float64{1, 50, 200, 500} {
		engine := NewCFEngine()
		engine.SetMaxParam(maxParam)

		for step := 0; step < 2000; step++ {
			speed := rnd.Intn(101)
			// hold each speed for a while so the rings fill up
			for i := 0; i < 20; i++ {
				engine.Feed(rnd.Float64()*1000-200, rnd.Float64()*1000-200)
				for _, duct := range []Duct{Supply, Extract} {
					result := engine.Speed(duct, speed)

					assert.GreaterOrEqual(t, result, speed/2)
					assert.LessOrEqual(t, result, 100)
					assert.LessOrEqual(t, abs(engine.SlowCorrection(duct)), speed/4)
					assert.LessOrEqual(t, engine.ducts[duct].params.Len(), cfParamsLength)
					assert.LessOrEqual(t, engine.ducts[duct].corrections.Len(), cfCorrectionsLength)
				}
			}
		}
	}
}

func TestRing_EvictsOldest(t *testing.T) {
	// GIVEN
	r := newRing(3)

	// WHEN
	r.Append(1)
	r.Append(2)

	// THEN
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1.5, r.Mean())

	// WHEN
	r.Append(3)
	r.Append(10)

	// THEN
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 5.0, r.Mean())

	// WHEN
	r.Clear()

	// THEN
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Mean())
}
