// Package bandwidth implements the per-account rolling-window throttling
// of spec.md §4.11, grounded on the same decayed-average update shape used
// for engagement weighting, generalized here from an epoch clock to a
// per-transaction delta_t clock, and on a quota's overflow-safe rollover
// bookkeeping.
package bandwidth

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
)

// Params configures the rolling window's width and the chain's declared
// virtual-bandwidth ceiling.
type Params struct {
	WindowSeconds       uint64
	MaxVirtualBandwidth *big.Int
}

// ErrBandwidthExceeded is returned by CheckQuota when the account (or the
// producing witness's block, at generate time) would exceed its quota.
var ErrBandwidthExceeded = chainerr.New(chainerr.Precondition, "bandwidth", "bandwidth_exceeded")

// Charge applies a transaction's byte-size contribution to account's
// rolling average for class, decaying the prior average by
// (WINDOW - delta_t) / WINDOW (floored at 0) first. It does not itself
// enforce the quota; call CheckQuota afterward with the account's vesting
// shares and the chain's totals.
func Charge(db *objectstore.Database, account string, class objectstore.BandwidthClass, txSize uint32, now uint64, params Params) *objectstore.AccountBandwidth {
	key := func(b *objectstore.AccountBandwidth) bool { return b.Account == account && b.Class == class }
	var bw *objectstore.AccountBandwidth
	for _, b := range db.Bandwidth.FindAll("by_account_class", accountClassKey(account, class)) {
		if key(b) {
			bw = b
			break
		}
	}
	if bw == nil {
		bw = db.Bandwidth.Create(&objectstore.AccountBandwidth{}, func(b *objectstore.AccountBandwidth) {
			b.Account = account
			b.Class = class
			b.Average = big.NewInt(0)
			b.LastUpdate = now
		})
	}
	db.Bandwidth.Modify(bw, func(b *objectstore.AccountBandwidth) {
		decayed := decay(b.Average, b.LastUpdate, now, params.WindowSeconds)
		decayed.Add(decayed, new(big.Int).SetUint64(uint64(txSize)*uint64(params.WindowSeconds)))
		b.Average = decayed
		b.LastUpdate = now
	})
	return bw
}

func accountClassKey(account string, class objectstore.BandwidthClass) string {
	return account + "\x00" + string(rune(class))
}

// decay applies the linear decay window: newAvg = oldAvg * max(WINDOW-delta_t,0) / WINDOW.
func decay(oldAvg *big.Int, lastUpdate, now, window uint64) *big.Int {
	if window == 0 {
		return big.NewInt(0)
	}
	deltaT := uint64(0)
	if now > lastUpdate {
		deltaT = now - lastUpdate
	}
	remaining := int64(window) - int64(deltaT)
	if remaining < 0 {
		remaining = 0
	}
	out := new(big.Int).Mul(oldAvg, big.NewInt(remaining))
	out.Div(out, new(big.Int).SetUint64(window))
	return out
}

// CheckQuota enforces:
//
//	account_vshares * max_virtual_bandwidth > average_bandwidth * total_vshares
func CheckQuota(accountVShares, averageBandwidth, totalVShares *big.Int, params Params) error {
	if totalVShares == nil || totalVShares.Sign() == 0 {
		return nil
	}
	lhs := new(big.Int).Mul(accountVShares, params.MaxVirtualBandwidth)
	rhs := new(big.Int).Mul(averageBandwidth, totalVShares)
	if lhs.Cmp(rhs) > 0 {
		return nil
	}
	return ErrBandwidthExceeded
}
