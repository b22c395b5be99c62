// Package compute pools per-source (magnitude, alignment) pairs and classifies
// the pooled alignment into a triage band.
//
// pool.go provides the pure pooling functions. Alignments are clamped into
// (-1, 1), mapped onto the real line with atanh, averaged with weights
// |m|^gamma, and mapped back with tanh:
//
//	a_pool = tanh( Σ |m_i|^γ · atanh(a_i) / max(Σ |m_i|^γ, eps) )
//
// Combine is the group operation induced by the transform:
// tanh(atanh(a) + atanh(b)).
//
// magnitude.go computes the classical (unweighted, sign-preserving) magnitude
// aggregates reported next to the pooled alignment, using decimal arithmetic.
//
// band.go maps |alignment| to a band: Calm (A+) ≤0.20, Noticeable (A0) ≤0.40,
// Hot (A-) above. Bands are display-only and never feed back into pooling.
package compute
