package agent

// Limits is the immutable message-count policy injected into the
// conversation pipeline. OfferConclusion must stay below ForceHandover so
// the two predicates can never both hold.
type Limits struct {
	OfferConclusion int
	ForceHandover   int
}

// DefaultLimits matches the product thresholds: start offering to wrap up
// at 15 AI messages, hand over unconditionally at 20.
func DefaultLimits() Limits {
	return Limits{OfferConclusion: 15, ForceHandover: 20}
}

// Valid reports whether the thresholds are ordered correctly.
func (l Limits) Valid() bool {
	return l.OfferConclusion < l.ForceHandover
}

// ShouldOfferConclusion reports whether the agent should offer to conclude:
// the counter has reached the offer threshold but not yet the forced one.
func (l Limits) ShouldOfferConclusion(aiMessageCount int) bool {
	return aiMessageCount >= l.OfferConclusion && aiMessageCount < l.ForceHandover
}

// ShouldForceHandover reports whether the conversation must conclude now.
func (l Limits) ShouldForceHandover(aiMessageCount int) bool {
	return aiMessageCount >= l.ForceHandover
}
