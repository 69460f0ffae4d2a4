package simulator

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// Stream salts keep each random concern on its own sequence, so that for a given
// seed the demand stream does not shift when the roster or dispatch changes.
const (
	arrivalStreamSalt = 0x5851f42d4c957f2d
	travelStreamSalt  = 0x14057b7ef767814f
	serviceStreamSalt = 0x2545f4914f6cdd1d
	noiseStreamSalt   = 0x1e3779b97f4a7c15
	namesStreamSalt   = 0x6a09e667f3bcc908
)

// Streams is the random process layer of one run.
type Streams struct {
	Arrivals *rand.Rand
	Travel   *rand.Rand
	Service  *rand.Rand
	Noise    *rand.Rand
	seed     int64
}

func NewStreams(seed int64) *Streams {
	return &Streams{
		Arrivals: rand.New(rand.NewSource(seed ^ arrivalStreamSalt)),
		Travel:   rand.New(rand.NewSource(seed ^ travelStreamSalt)),
		Service:  rand.New(rand.NewSource(seed ^ serviceStreamSalt)),
		Noise:    rand.New(rand.NewSource(seed ^ noiseStreamSalt)),
		seed:     seed,
	}
}

// NamesSeed seeds display-name generation for the roster.
func (st *Streams) NamesSeed() int64 {
	return st.seed ^ namesStreamSalt
}

// DeriveSeed maps (base seed, scenario, run index) to the seed of one run.
func DeriveSeed(base int64, scenario string, runIndex int) int64 {
	h := fnv.New64a()
	h.Write([]byte(scenario))
	return base ^ int64(h.Sum64()) ^ int64(runIndex)*0x3c6ef372fe94f82b
}

// exponentialGap draws an inter-arrival gap for a Poisson process with the given rate per hour.
func exponentialGap(rng *rand.Rand, perHour float64) time.Duration {
	return time.Duration(rng.ExpFloat64() / perHour * float64(time.Hour))
}

func normalClamped(rng *rand.Rand, mean, std, min, max float64) float64 {
	value := mean
	if std > 0 {
		value = mean + rng.NormFloat64()*std
	}
	return math.Max(min, math.Min(max, value))
}

// jitterFactor returns a multiplicative noise factor around 1, never negative.
func jitterFactor(rng *rand.Rand, variance float64) float64 {
	if variance <= 0 {
		return 1
	}
	return math.Max(0, 1+rng.NormFloat64()*variance)
}

// weightedIndex picks an index proportionally to weights. Zero total weight picks 0.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	randomValue := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if randomValue < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
