package reward

import "math/big"

// InflationSchedule describes the per-block minting curve: an annual rate
// (in basis points) that narrows linearly from Start to Narrowed over
// NarrowingBlocks, then holds at Narrowed, split content/vesting/witness.
type InflationSchedule struct {
	StartAPRBps      uint32 `toml:"start_apr_bps"`
	NarrowedAPRBps   uint32 `toml:"narrowed_apr_bps"`
	NarrowingBlocks  uint64 `toml:"narrowing_blocks"`
	ContentSplitBps  uint32 `toml:"content_split_bps"`  // e.g. 7500 = 75%
	VestingSplitBps  uint32 `toml:"vesting_split_bps"`  // e.g. 1500 = 15%
	WitnessSplitBps  uint32 `toml:"witness_split_bps"`  // e.g. 1000 = 10%
	BlocksPerYear    uint64 `toml:"blocks_per_year"`
}

// DefaultInflationSchedule mirrors the historical Graphene curve: 9.5% APR
// narrowing to 0.95% over the chain's first ~20 years of blocks, split
// 75/15/10 among content rewards, vesting fund, and witness pay.
func DefaultInflationSchedule() InflationSchedule {
	return InflationSchedule{
		StartAPRBps:     950,
		NarrowedAPRBps:  95,
		NarrowingBlocks: 250_000 * 20 * 7,
		ContentSplitBps: 7500,
		VestingSplitBps: 1500,
		WitnessSplitBps: 1000,
		BlocksPerYear:   250_000 * 20,
	}
}

// currentAPRBps linearly narrows the APR from StartAPRBps down to
// NarrowedAPRBps as blockNumber advances from 0 to NarrowingBlocks, then
// holds flat.
func (s InflationSchedule) currentAPRBps(blockNumber uint64) uint32 {
	if blockNumber >= s.NarrowingBlocks || s.NarrowingBlocks == 0 {
		return s.NarrowedAPRBps
	}
	span := int64(s.StartAPRBps) - int64(s.NarrowedAPRBps)
	if span <= 0 {
		return s.NarrowedAPRBps
	}
	elapsed := new(big.Int).SetUint64(blockNumber)
	total := new(big.Int).SetUint64(s.NarrowingBlocks)
	decayed := new(big.Int).Mul(elapsed, big.NewInt(span))
	decayed.Div(decayed, total)
	return uint32(int64(s.StartAPRBps) - decayed.Int64())
}

// BlockMint computes the amount of new currency minted for one block given
// the current virtual supply, and splits it content/vesting/witness per
// the schedule's basis-point shares.
func (s InflationSchedule) BlockMint(virtualSupply *big.Int, blockNumber uint64) (total, content, vesting, witness *big.Int) {
	if s.BlocksPerYear == 0 {
		zero := big.NewInt(0)
		return zero, zero, zero, zero
	}
	apr := s.currentAPRBps(blockNumber)
	annual := new(big.Int).Mul(virtualSupply, big.NewInt(int64(apr)))
	annual.Div(annual, big.NewInt(10_000))
	total = new(big.Int).Div(annual, new(big.Int).SetUint64(s.BlocksPerYear))

	content = bpsShare(total, s.ContentSplitBps)
	vesting = bpsShare(total, s.VestingSplitBps)
	witness = new(big.Int).Sub(total, new(big.Int).Add(content, vesting))
	return total, content, vesting, witness
}

func bpsShare(total *big.Int, bps uint32) *big.Int {
	out := new(big.Int).Mul(total, big.NewInt(int64(bps)))
	return out.Div(out, big.NewInt(10_000))
}
