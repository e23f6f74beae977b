// Package reward implements the content/voting cashout engine and
// block-level inflation of spec.md §4.7.
package reward

import "math/big"

// CalculateVShares applies the quadratic saturating curve:
//
//	vshares(r) = r * (r + 2*C) / (r + 4*C)
//
// where C is the reward fund's content constant. Negative or zero r yields
// zero (no payout is computed for downvoted or unvoted content by the
// caller, which checks NetRshares <= 0 before calling this at all).
func CalculateVShares(r, contentConstant *big.Int) *big.Int {
	if r == nil || r.Sign() <= 0 {
		return big.NewInt(0)
	}
	twoC := new(big.Int).Mul(contentConstant, big.NewInt(2))
	fourC := new(big.Int).Mul(contentConstant, big.NewInt(4))
	num := new(big.Int).Mul(r, new(big.Int).Add(r, twoC))
	den := new(big.Int).Add(r, fourC)
	if den.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Div(num, den)
}

// DecayRecentClaims halves recentClaims once per halfLifeSeconds elapsed
// (as a continuous linear approximation over deltaSeconds, matching the
// reward fund's "decay on a configured half-life" rule) before the
// just-paid vshares are added back in by the caller.
func DecayRecentClaims(recentClaims *big.Int, deltaSeconds, halfLifeSeconds uint64) *big.Int {
	if halfLifeSeconds == 0 || recentClaims.Sign() == 0 {
		return new(big.Int).Set(recentClaims)
	}
	// (halfLife - delta) / halfLife, floored at 0 — a first-order
	// approximation of exponential decay good enough for a per-block
	// step where deltaSeconds << halfLifeSeconds.
	remaining := int64(halfLifeSeconds) - int64(deltaSeconds)
	if remaining < 0 {
		remaining = 0
	}
	out := new(big.Int).Mul(recentClaims, big.NewInt(remaining))
	out.Div(out, new(big.Int).SetUint64(halfLifeSeconds))
	return out
}
