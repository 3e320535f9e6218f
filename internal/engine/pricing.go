// ABOUTME: Converts token usage into dollar cost from per-million-token rates

package engine

// Pricing holds per-million-token rates in USD. Zero rates price every
// turn at zero, which is the default for the mock provider.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost prices a turn's total usage.
func (p Pricing) Cost(u Usage) float64 {
	return float64(u.InputTokens)/1e6*p.InputPerMTok + float64(u.OutputTokens)/1e6*p.OutputPerMTok
}
