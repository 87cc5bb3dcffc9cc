package trainer

import (
	"math"
	"math/rand"

	"github.com/wesleyorama2/meterlog/logger"
)

// episode is the outcome of one finished episode.
type episode struct {
	reward float64
	length int
}

// env is a toy environment whose returns improve with training progress.
type env struct {
	rng     *rand.Rand
	reward  float64
	length  int
	horizon int
}

func newEnv(rng *rand.Rand) *env {
	e := &env{rng: rng}
	e.reset()
	return e
}

func (e *env) reset() {
	e.reward = 0
	e.length = 0
	e.horizon = 50 + e.rng.Intn(100)
}

// stepReward is the per-step reward at the given progress in [0, 1].
func (e *env) stepReward(progress float64) float64 {
	return progress + 0.1*e.rng.NormFloat64()
}

// step advances the training episode and reports it once it ends.
func (e *env) step(progress float64) (episode, bool) {
	e.reward += e.stepReward(progress)
	e.length++
	if e.length < e.horizon {
		return episode{}, false
	}
	done := episode{reward: e.reward, length: e.length}
	e.reset()
	return done, true
}

// rollout plays a full evaluation episode without touching training state.
func (e *env) rollout(progress float64) episode {
	ep := episode{length: 50 + e.rng.Intn(100)}
	for i := 0; i < ep.length; i++ {
		ep.reward += e.stepReward(progress)
	}
	return ep
}

// qValues samples critic estimates centered on the expected return.
func (e *env) qValues(progress float64) []float64 {
	q := make([]float64, numQValues)
	for i := range q {
		q[i] = 100*progress + 5*e.rng.NormFloat64()
	}
	return q
}

// observations renders n frames of a blob drifting across the view.
func (e *env) observations(n int) logger.ImageBatch {
	batch := logger.ImageBatch{N: n, Height: obsSize, Width: obsSize, Pix: make([]float64, n*obsSize*obsSize)}
	cx, cy := e.rng.Float64()*obsSize, e.rng.Float64()*obsSize
	for i := 0; i < n; i++ {
		x0 := math.Mod(cx+float64(i), obsSize)
		for y := 0; y < obsSize; y++ {
			for x := 0; x < obsSize; x++ {
				d := math.Hypot(float64(x)-x0, float64(y)-cy)
				batch.Pix[(i*obsSize+y)*obsSize+x] = math.Exp(-d * d / 4)
			}
		}
	}
	return batch
}
