package chain

import (
	"math/big"

	"chainforge/core/bandwidth"
	"chainforge/core/evaluator"
	"chainforge/core/exchange"
	"chainforge/core/housekeeping"
	"chainforge/core/reward"
	"chainforge/core/witness"
)

// Params aggregates every externalized chain constant the controller and
// the subsystems it drives consult, per spec.md §1's "constants and
// hardfork dates are externalized" non-goal.
type Params struct {
	Evaluator   evaluator.Params
	Witness     witness.Params
	Bandwidth   bandwidth.Params
	Housekeeping housekeeping.Params
	Exchange    exchange.Params

	BlockIntervalSeconds  uint64
	MaxBlockSizeBytes     uint32
	MaxTransactionSizeBytes uint32
	MaxTransactionExpirationSeconds uint64
	IrreversibilityThresholdBps uint32 // e.g. 6667 == 2/3
}

// DefaultParams returns a self-consistent constant set suitable for tests
// and single-node genesis, mirroring the historical Graphene/Steem
// defaults the rest of this package is grounded on.
func DefaultParams() Params {
	wp := witness.DefaultParams()
	return Params{
		Evaluator: evaluator.Params{
			BaseAsset: "STEEM",
			DebtAsset: "SBD",
		},
		Witness:   wp,
		Bandwidth: bandwidth.Params{
			WindowSeconds:       7 * 24 * 3600,
			MaxVirtualBandwidth: big.NewInt(1_000_000_000_000),
		},
		Housekeeping: housekeeping.Params{
			BaseAsset:                "STEEM",
			DebtAsset:                "SBD",
			CurationPercent:          2500,
			LiquidityPercent:         750,
			LiquidityHalfLifeSeconds: 3 * 24 * 3600,
			Inflation:                reward.DefaultInflationSchedule(),
		},
		Exchange: exchange.Params{
			BaseAsset:                "STEEM",
			DebtAsset:                "SBD",
			LiquidityHalfLifeSeconds: 3 * 24 * 3600,
		},
		BlockIntervalSeconds:            wp.BlockIntervalSeconds,
		MaxBlockSizeBytes:               2 * 1024 * 1024,
		MaxTransactionSizeBytes:         64 * 1024,
		MaxTransactionExpirationSeconds: 3600,
		IrreversibilityThresholdBps:     6667,
	}
}
