package models

import (
	"math"
	"time"

	id "creditnet/pkg/domain"
)

// Score bounds. On-chain and off-chain scores are bureau-style; the
// composite is published on a wider 0-1000 scale so referral accumulation
// can saturate it at the ceiling without distorting the bureau inputs.
const (
	BureauMin    = 300
	BureauMax    = 850
	CompositeMin = 0
	CompositeMax = 1000
)

// Weights blend the on-chain and off-chain components. They always sum to 1;
// the referral component is additive on top, not weighted.
type Weights struct {
	OnChain  float64 `json:"on_chain"`
	OffChain float64 `json:"off_chain"`
}

// DefaultWeights favors the attested off-chain signal.
func DefaultWeights() Weights {
	return Weights{OnChain: 0.4, OffChain: 0.6}
}

// Record is the per-identity score state. Composite is always a pure
// function of the other three plus weights - never independently mutated.
type Record struct {
	IdentityID      id.IdentityID `json:"identity_id"`
	OnChainScore    int           `json:"on_chain_score"`
	OffChainScore   int           `json:"off_chain_score"`
	ReferralScore   float64       `json:"referral_score"`
	CompositeScore  int           `json:"composite_score"`
	OffChainProofID string        `json:"off_chain_proof_id,omitempty"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// ComputeComposite derives the published composite score:
//
//	composite = round(onChain*wOn + offChain*wOff) + round(referral)
//
// clamped to [CompositeMin, CompositeMax]. The formula must be reproducible
// bit-for-bit by any client, including an on-chain verifier, so it works in
// exact halves: weighted blend rounded half-away-from-zero, referral rounded
// the same way, then integer addition and clamping.
func ComputeComposite(onChain, offChain int, referral float64, w Weights) int {
	weighted := math.Round(float64(onChain)*w.OnChain + float64(offChain)*w.OffChain)
	composite := int(weighted) + int(math.Round(referral))
	if composite > CompositeMax {
		return CompositeMax
	}
	if composite < CompositeMin {
		return CompositeMin
	}
	return composite
}

// Recompute refreshes the stored composite from the component scores.
func (r *Record) Recompute(w Weights, now time.Time) {
	r.CompositeScore = ComputeComposite(r.OnChainScore, r.OffChainScore, r.ReferralScore, w)
	r.LastUpdated = now
}

// ClampComponent bounds an event-adjusted component score. The bureau floor
// applies only to derived bureau scores; an identity with no signal sits at
// zero and event deltas move it in raw points until real signals arrive.
func ClampComponent(v int) int {
	if v > BureauMax {
		return BureauMax
	}
	if v < 0 {
		return 0
	}
	return v
}

// WalletSignals are the raw wallet-observable inputs supplied by the
// chain-reader collaborator. The engine defines only the weighting formula.
type WalletSignals struct {
	AddressAgeDays   int `json:"address_age_days"`
	TransactionCount int `json:"transaction_count"`
	ProtocolCount    int `json:"protocol_count"`
}

// Category selects which component of the score record a credit event mutates.
type Category string

const (
	CategoryOnChain  Category = "on_chain"
	CategoryOffChain Category = "off_chain"
)
