package onchain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"creditnet/internal/score/models"
)

// SyntheticReader derives stable pseudo-signals from the address bytes
// themselves. It stands in for a node or indexer client in demo deployments:
// the same address always yields the same signals, so composite scores stay
// reproducible across restarts.
type SyntheticReader struct{}

func NewSyntheticReader() SyntheticReader { return SyntheticReader{} }

func (SyntheticReader) WalletSignals(_ context.Context, address string) (models.WalletSignals, error) {
	b := common.HexToAddress(address).Bytes()

	// Fold the 20 address bytes into three independent accumulators and map
	// each onto its signal's plausible range.
	var age, tx, proto int
	for i, v := range b {
		switch i % 3 {
		case 0:
			age += int(v)
		case 1:
			tx += int(v)
		default:
			proto += int(v)
		}
	}
	return models.WalletSignals{
		AddressAgeDays:   age % (2 * ageCapDays),
		TransactionCount: tx % (2 * txCountCap),
		ProtocolCount:    proto % (protocolCap + 5),
	}, nil
}
