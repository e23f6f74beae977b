// Package exchange runs the base/debt-asset internal market's end-of-block
// sweep: crossing the resting limit order book, expiring stale orders, and
// margin-calling collateralized debt positions that have fallen under the
// maintenance collateral ratio, closing out to global settlement if the
// whole market-issued asset becomes undercollateralized (a "black swan").
// It is grounded on the same big.Rat/big.Int cross-multiplication style
// _examples/josephblackelite-nhbchain/native/lending.Engine uses for its
// collateral health checks, generalized from a lending pool's single
// borrower/lender pair to a full resting order book.
package exchange

import (
	"math/big"
	"sort"

	"chainforge/core/objectstore"
	"chainforge/core/reward"
)

// Params names the two assets this market trades: base (e.g. STEEM) sold
// for debt (e.g. SBD) and vice versa.
type Params struct {
	BaseAsset  string
	DebtAsset  string

	// LiquidityHalfLifeSeconds sets how fast a market maker's accrued
	// volume standing decays, so the liquidity reward tracks recent
	// activity rather than a lifetime total.
	LiquidityHalfLifeSeconds uint64
}

// Fill is a virtual operation: a trade the matching or margin-call sweep
// executed, reported so callers can log or meter it without re-deriving it
// from the resulting balance deltas.
type Fill struct {
	Kind          string // "match", "expire", "margin_call", "settle"
	Seller, Buyer string
	PaysAsset     string
	PaysAmount    *big.Int
	ReceivesAsset string
	ReceivesAmount *big.Int
}

// Run performs one block's worth of market maintenance in the fixed order
// spec.md's original engine used: expire stale orders first (freeing
// balances the match step might otherwise starve), match the book, then
// sweep margin calls, which may themselves need the freshly matched book's
// liquidity to unwind.
func Run(db *objectstore.Database, params Params, now uint64) []Fill {
	var fills []Fill
	fills = append(fills, expireOrders(db, params, now)...)
	fills = append(fills, matchLimitOrders(db, params, now)...)
	fills = append(fills, sweepMarginCalls(db, params)...)
	return fills
}

func creditBase(db *objectstore.Database, name string, amount *big.Int) {
	if acct, ok := db.Accounts.Find("by_name", name); ok {
		db.Accounts.Modify(acct, func(a *objectstore.Account) { a.Liquid.Add(a.Liquid, amount) })
	}
}

func creditDebt(db *objectstore.Database, name string, amount *big.Int) {
	if acct, ok := db.Accounts.Find("by_name", name); ok {
		db.Accounts.Modify(acct, func(a *objectstore.Account) { a.SBD.Add(a.SBD, amount) })
	}
}

// recordVolume decays name's standing to now, then accrues amount of fresh
// base-asset volume on top. Only matchLimitOrders' two counterparties call
// this: resting orders that actually cross are the liquidity the reward is
// meant to pay for, not a margin call's forced liquidation.
func recordVolume(db *objectstore.Database, params Params, name string, amount *big.Int, now uint64) {
	if v, ok := db.MarketMakerVolumes.Find("by_owner", name); ok {
		db.MarketMakerVolumes.Modify(v, func(v *objectstore.MarketMakerVolume) {
			elapsed := uint64(0)
			if now > v.LastUpdate {
				elapsed = now - v.LastUpdate
			}
			decayed := reward.DecayRecentClaims(v.Volume, elapsed, params.LiquidityHalfLifeSeconds)
			v.Volume = new(big.Int).Add(decayed, amount)
			v.LastUpdate = now
		})
		return
	}
	db.MarketMakerVolumes.Create(&objectstore.MarketMakerVolume{}, func(v *objectstore.MarketMakerVolume) {
		v.Owner = name
		v.Volume = new(big.Int).Set(amount)
		v.LastUpdate = now
	})
}

// expireOrders cancels every limit order past its expiration and refunds
// the seller's escrowed balance.
func expireOrders(db *objectstore.Database, params Params, now uint64) []Fill {
	var fills []Fill
	for _, o := range db.LimitOrders.All() {
		if o.Expiration == 0 || o.Expiration > now {
			continue
		}
		if o.ForSaleAsset == params.BaseAsset {
			creditBase(db, o.Seller, o.ForSale)
		} else {
			creditDebt(db, o.Seller, o.ForSale)
		}
		db.LimitOrders.Remove(o)
		fills = append(fills, Fill{Kind: "expire", Seller: o.Seller, PaysAsset: o.ForSaleAsset, PaysAmount: o.ForSale})
	}
	return fills
}

// dustThreshold below which a resting order's remainder is force-cancelled
// rather than left open indefinitely, matching Graphene's dust-order
// removal so the book doesn't accumulate unfillable crumbs.
var dustThreshold = big.NewInt(1)

// matchLimitOrders repeatedly finds the best crossing ask/bid pair and
// trades them at the ask's price (the resting, price-setting side), until
// no pair crosses. Partial fills leave the smaller side fully filled and
// the larger side reduced; a side left below dustThreshold is cancelled and
// refunded rather than kept open.
func matchLimitOrders(db *objectstore.Database, params Params, now uint64) []Fill {
	var fills []Fill
	for {
		asks, bids := splitBook(db, params)
		if len(asks) == 0 || len(bids) == 0 {
			return fills
		}
		ask, bid := asks[0], bids[0]

		bidPricePerBase := new(big.Rat).Inv(bid.SellPrice) // debt per base the bid is willing to pay
		if bidPricePerBase.Cmp(ask.SellPrice) < 0 {
			return fills // best bid no longer crosses the best ask
		}

		bidBaseCapacity := new(big.Rat).Quo(new(big.Rat).SetInt(bid.ForSale), bidPricePerBase)
		bidBaseFloor := new(big.Int).Quo(bidBaseCapacity.Num(), bidBaseCapacity.Denom())

		tradeBase := new(big.Int).Set(ask.ForSale)
		if bidBaseFloor.Cmp(tradeBase) < 0 {
			tradeBase = bidBaseFloor
		}
		if tradeBase.Sign() <= 0 {
			cancelDust(db, params, bid)
			continue
		}
		tradeDebtRat := new(big.Rat).Mul(new(big.Rat).SetInt(tradeBase), ask.SellPrice)
		tradeDebt := new(big.Int).Quo(tradeDebtRat.Num(), tradeDebtRat.Denom())
		if tradeDebt.Sign() <= 0 {
			cancelDust(db, params, ask)
			continue
		}

		creditBase(db, bid.Seller, tradeBase)
		creditDebt(db, ask.Seller, tradeDebt)
		recordVolume(db, params, ask.Seller, tradeBase, now)
		recordVolume(db, params, bid.Seller, tradeBase, now)
		fills = append(fills, Fill{
			Kind: "match", Seller: ask.Seller, Buyer: bid.Seller,
			PaysAsset: params.BaseAsset, PaysAmount: tradeBase,
			ReceivesAsset: params.DebtAsset, ReceivesAmount: tradeDebt,
		})

		askRemaining := new(big.Int).Sub(ask.ForSale, tradeBase)
		bidRemaining := new(big.Int).Sub(bid.ForSale, tradeDebt)
		applyFill(db, ask, askRemaining)
		applyFill(db, bid, bidRemaining)
		if askRemaining.Cmp(dustThreshold) < 0 {
			cancelDust(db, params, ask)
		}
		if bidRemaining.Cmp(dustThreshold) < 0 {
			cancelDust(db, params, bid)
		}
	}
}

func applyFill(db *objectstore.Database, o *objectstore.LimitOrder, remaining *big.Int) {
	db.LimitOrders.Modify(o, func(o *objectstore.LimitOrder) { o.ForSale = remaining })
}

// cancelDust removes o from the book, refunding whatever it has left (a
// no-op refund if it was already fully filled and left at zero).
func cancelDust(db *objectstore.Database, params Params, o *objectstore.LimitOrder) {
	if fresh, ok := db.LimitOrders.Get(o.GetID()); ok {
		if fresh.ForSale.Sign() > 0 {
			if fresh.ForSaleAsset == params.BaseAsset {
				creditBase(db, fresh.Seller, fresh.ForSale)
			} else {
				creditDebt(db, fresh.Seller, fresh.ForSale)
			}
		}
		db.LimitOrders.Remove(fresh)
	}
}

// splitBook partitions the live order book for this market into asks
// (selling base for debt), sorted cheapest-first, and bids (selling debt
// for base), sorted by their implied base price, most-generous-first.
func splitBook(db *objectstore.Database, params Params) (asks, bids []*objectstore.LimitOrder) {
	for _, o := range db.LimitOrders.All() {
		switch {
		case o.ForSaleAsset == params.BaseAsset && o.ReceiveAsset == params.DebtAsset:
			asks = append(asks, o)
		case o.ForSaleAsset == params.DebtAsset && o.ReceiveAsset == params.BaseAsset:
			bids = append(bids, o)
		}
	}
	sort.Slice(asks, func(i, j int) bool { return asks[i].SellPrice.Cmp(asks[j].SellPrice) < 0 })
	sort.Slice(bids, func(i, j int) bool {
		pi := new(big.Rat).Inv(bids[i].SellPrice)
		pj := new(big.Rat).Inv(bids[j].SellPrice)
		return pi.Cmp(pj) > 0
	})
	return asks, bids
}

// sweepMarginCalls first scans every call order against the market-issued
// asset for insolvency (collateral worth less than its debt even at the
// current feed price): if any is found, the whole asset is bankrupt and is
// pushed into global settlement before any individual position is touched,
// so current_supply is never partially unwound by liquidations that turn
// out to have been moot. Only once no call order is bankrupt does it close
// out, one at a time, every position that has merely fallen under the
// maintenance collateral ratio (undercollateralized but still solvent).
func sweepMarginCalls(db *objectstore.Database, params Params) []Fill {
	bit, ok := db.BitAssets.Find("by_asset", params.DebtAsset)
	if !ok || bit.HasSettlement || bit.CurrentFeed == nil || bit.CurrentFeed.Sign() <= 0 {
		return nil
	}
	minRatio := new(big.Rat).Quo(big.NewRat(int64(bit.MaintenanceCollateralRatio), 10_000), bit.CurrentFeed)
	bankruptRatio := new(big.Rat).Inv(bit.CurrentFeed)

	var undercollateralized []*objectstore.CallOrder
	for _, call := range db.CallOrders.All() {
		if call.DebtAsset != params.DebtAsset {
			continue
		}
		ratio := call.CollateralRatio()
		if ratio.Cmp(bankruptRatio) < 0 {
			triggerGlobalSettlement(db, bit, params)
			return []Fill{{Kind: "settle", Seller: call.Borrower, PaysAsset: params.BaseAsset, PaysAmount: call.Collateral}}
		}
		if ratio.Cmp(minRatio) < 0 {
			undercollateralized = append(undercollateralized, call)
		}
	}

	var fills []Fill
	for _, call := range undercollateralized {
		fills = append(fills, closeCallOrder(db, params, bit, call)...)
	}
	return fills
}

// closeCallOrder liquidates an undercollateralized position against the
// resting limit-order book rather than at the bare feed price. Only bids
// priced no better than max_short_squeeze_price are eligible to match at
// all — squeeze bounds which resting orders can be used, it does not
// clamp the price a trade executes at — and every match that does happen
// trades at that bid's own unclamped sell price, per
// original_source/libraries/chain/database.cpp's check_call_orders. The
// position stops giving up collateral the moment the best remaining
// eligible bid's price would exceed its own posted call price
// (CallOrder.CallPrice, locked in at open/update time): a position called
// at a better price than the current squeeze allows never trades past its
// own threshold, even while other positions keep unwinding this sweep.
// Any collateral left once the debt is fully retired is returned to the
// borrower; if the book cannot absorb the whole position this sweep, the
// call order is left open with its reduced debt and collateral (and a
// freshly recomputed call price) for the next block's sweep to keep
// unwinding.
func closeCallOrder(db *objectstore.Database, params Params, bit *objectstore.AssetBitAssetData, call *objectstore.CallOrder) []Fill {
	squeezePrice := new(big.Rat).Mul(bit.CurrentFeed, big.NewRat(int64(bit.MaxShortSqueezeRatio), 10_000))
	callPrice := call.CallPrice()
	remainingDebt := new(big.Int).Set(call.Debt)
	remainingCollateral := new(big.Int).Set(call.Collateral)

	var fills []Fill
	for remainingDebt.Sign() > 0 && remainingCollateral.Sign() > 0 {
		_, bids := splitBook(db, params)
		var bid *objectstore.LimitOrder
		var tradePrice *big.Rat
		for _, b := range bids {
			price := new(big.Rat).Inv(b.SellPrice)
			if price.Sign() <= 0 || price.Cmp(squeezePrice) > 0 {
				continue
			}
			bid, tradePrice = b, price
			break
		}
		if bid == nil {
			break
		}
		if callPrice.Sign() > 0 && tradePrice.Cmp(callPrice) > 0 {
			break
		}

		tradeDebt := new(big.Int).Set(remainingDebt)
		if bid.ForSale.Cmp(tradeDebt) < 0 {
			tradeDebt = new(big.Int).Set(bid.ForSale)
		}
		tradeBaseRat := new(big.Rat).Quo(new(big.Rat).SetInt(tradeDebt), tradePrice)
		tradeBase := new(big.Int).Quo(tradeBaseRat.Num(), tradeBaseRat.Denom())
		if tradeBase.Sign() == 0 {
			break
		}
		if tradeBase.Cmp(remainingCollateral) > 0 {
			tradeBase = new(big.Int).Set(remainingCollateral)
			tradeDebtRat := new(big.Rat).Mul(new(big.Rat).SetInt(tradeBase), tradePrice)
			tradeDebt = new(big.Int).Quo(tradeDebtRat.Num(), tradeDebtRat.Denom())
		}
		if tradeDebt.Sign() == 0 {
			break
		}

		creditBase(db, bid.Seller, tradeBase)
		db.AdjustSupply(params.DebtAsset, params.BaseAsset, params.DebtAsset, new(big.Int).Neg(tradeDebt))

		bidRemaining := new(big.Int).Sub(bid.ForSale, tradeDebt)
		applyFill(db, bid, bidRemaining)
		if bidRemaining.Cmp(dustThreshold) < 0 {
			cancelDust(db, params, bid)
		}

		remainingDebt.Sub(remainingDebt, tradeDebt)
		remainingCollateral.Sub(remainingCollateral, tradeBase)
		fills = append(fills, Fill{
			Kind: "margin_call", Seller: call.Borrower, Buyer: bid.Seller,
			PaysAsset: params.BaseAsset, PaysAmount: tradeBase,
			ReceivesAsset: params.DebtAsset, ReceivesAmount: tradeDebt,
		})
	}

	if remainingDebt.Sign() == 0 {
		if remainingCollateral.Sign() > 0 {
			creditBase(db, call.Borrower, remainingCollateral)
		}
		db.CallOrders.Remove(call)
	} else {
		db.CallOrders.Modify(call, func(c *objectstore.CallOrder) {
			c.Debt = remainingDebt
			c.Collateral = remainingCollateral
			c.SetCallPrice(bit.MaintenanceCollateralRatio)
		})
	}
	return fills
}

// triggerGlobalSettlement freezes new activity in the market-issued asset:
// every remaining call order's collateral is swept into a settlement fund
// and every resting order against the asset is cancelled and refunded.
// settlement_price is derived from what was actually gathered against what
// was actually owed (collateral_gathered/original_supply), not the feed,
// since a black swan by definition means the feed no longer prices the
// asset's collateral correctly. current_supply is left untouched: the
// debt asset's holders still hold exactly what they held before the swan,
// now redeemable from the settlement fund via asset_settle instead of
// backed by individual call orders.
func triggerGlobalSettlement(db *objectstore.Database, bit *objectstore.AssetBitAssetData, params Params) {
	originalSupply := big.NewInt(0)
	if dyn, ok := db.AssetDynamic.Find("by_asset", params.DebtAsset); ok {
		originalSupply = new(big.Int).Set(dyn.CurrentSupply)
	}

	collateralGathered := big.NewInt(0)
	for _, call := range db.CallOrders.All() {
		if call.DebtAsset != params.DebtAsset {
			continue
		}
		collateralGathered.Add(collateralGathered, call.Collateral)
		db.CallOrders.Remove(call)
	}
	for _, o := range db.LimitOrders.All() {
		if o.ForSaleAsset != params.DebtAsset && o.ReceiveAsset != params.DebtAsset {
			continue
		}
		if o.ForSaleAsset == params.BaseAsset {
			creditBase(db, o.Seller, o.ForSale)
		} else {
			creditDebt(db, o.Seller, o.ForSale)
		}
		db.LimitOrders.Remove(o)
	}

	settlementPrice := new(big.Rat).Set(bit.CurrentFeed)
	if originalSupply.Sign() > 0 {
		settlementPrice = new(big.Rat).SetFrac(collateralGathered, originalSupply)
	}

	db.BitAssets.Modify(bit, func(b *objectstore.AssetBitAssetData) {
		b.HasSettlement = true
		b.SettlementPrice = settlementPrice
		b.SettlementFund = collateralGathered
	})
}
