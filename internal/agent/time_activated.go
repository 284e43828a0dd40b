package agent

import "math/rand"

// TimeActivated is the embeddable base for agents that schedule their
// next activation via now + Exponential(rate). Each agent owns its own
// rand.Source, seeded simSeed XOR agentID, so a run is reproducible given
// a single simulation seed regardless of activation order.
type TimeActivated struct {
	agentID uint64
	rate    float64
	rng     *rand.Rand
}

// NewTimeActivated builds the embeddable base. simSeed is the
// simulation-wide seed; agentID is XORed in so every agent gets an
// independent, reproducible stream.
func NewTimeActivated(agentID uint64, rate float64, simSeed uint64) TimeActivated {
	return TimeActivated{
		agentID: agentID,
		rate:    rate,
		rng:     rand.New(rand.NewSource(int64(simSeed ^ agentID))),
	}
}

// ID returns the agent's id.
func (t *TimeActivated) ID() uint64 { return t.agentID }

// NextActivation draws now + Exponential(rate), rounded to the nearest
// integer tick.
func (t *TimeActivated) NextActivation(now int64) int64 {
	delta := t.rng.ExpFloat64() / t.rate
	return now + int64(delta+0.5)
}

// Float64 exposes the agent's own RNG stream for archetype-specific
// randomness (order side, size, price jitter), keeping every draw
// reproducible from the same seed.
func (t *TimeActivated) Float64() float64 { return t.rng.Float64() }

// IntN returns a pseudo-random integer in [0, n).
func (t *TimeActivated) IntN(n int) int { return t.rng.Intn(n) }
