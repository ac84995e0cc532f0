// Package onchain derives bureau-range scores from wallet-observable
// activity. Chain access itself lives behind the ChainReader collaborator;
// this package owns only the weighting and normalization formula.
package onchain

import (
	"context"

	"creditnet/internal/score/models"
)

//go:generate mockgen -source=calculator.go -destination=mocks/mocks.go -package=mocks ChainReader

// ChainReader supplies raw activity signals for a wallet address.
// Implementations talk to a node or indexer; the calculator never does.
type ChainReader interface {
	WalletSignals(ctx context.Context, address string) (models.WalletSignals, error)
}

// Normalization caps. A wallet at or beyond a cap earns the full share of
// that signal's weight.
const (
	ageCapDays  = 365
	txCountCap  = 500
	protocolCap = 20
	signalRange = models.BureauMax - models.BureauMin
)

// Signal weights. Age and activity dominate; protocol breadth is a smaller
// differentiator.
const (
	ageWeight      = 0.4
	txWeight       = 0.4
	protocolWeight = 0.2
)

// ScoreSignals maps raw signals onto the bureau range [300,850].
// Pure and deterministic: equal inputs always produce equal scores.
func ScoreSignals(sig models.WalletSignals) int {
	norm := ageWeight*capped(sig.AddressAgeDays, ageCapDays) +
		txWeight*capped(sig.TransactionCount, txCountCap) +
		protocolWeight*capped(sig.ProtocolCount, protocolCap)
	return models.BureauMin + int(norm*float64(signalRange))
}

func capped(v, limit int) float64 {
	if v <= 0 {
		return 0
	}
	if v >= limit {
		return 1
	}
	return float64(v) / float64(limit)
}

// Calculator scores individual wallets through the chain reader.
type Calculator struct {
	reader ChainReader
}

// New constructs a Calculator over the given chain reader.
func New(reader ChainReader) *Calculator {
	return &Calculator{reader: reader}
}

// ScoreWallet fetches signals for an address and scores them.
func (c *Calculator) ScoreWallet(ctx context.Context, address string) (int, error) {
	sig, err := c.reader.WalletSignals(ctx, address)
	if err != nil {
		return 0, err
	}
	return ScoreSignals(sig), nil
}
