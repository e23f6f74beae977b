// Package housekeeping runs the fixed per-block maintenance sweep of
// spec.md §4.9: minting, cashouts, vesting withdrawals, savings maturity,
// liquidity rewards and virtual-supply bookkeeping. It does not expire
// account-recovery-style requests. It is called once per applied block by
// core/chain, after every transaction in the block has been evaluated,
// mirroring the teacher's pattern of a single deterministic end-of-round
// sweep separate from per-transaction evaluation
// (_examples/josephblackelite-nhbchain/native/potso epoch settlement).
package housekeeping

import (
	"math/big"
	"sort"

	"chainforge/core/objectstore"
	"chainforge/core/reward"
)

// LiquidityRewardBlocks mirrors the historical cadence: liquidity
// providers are paid once per hour of 3-second blocks.
const LiquidityRewardBlocks = 1200

// Params collects the externalized constants the sweep consults.
type Params struct {
	BaseAsset        string
	DebtAsset        string
	Inflation        reward.InflationSchedule
	CurationPercent  uint16
	VestingRate      *big.Rat // liquid units per vesting share, for withdrawal payout conversion
	VestingWithdrawIntervals uint32
	SBDInterestRateBps uint16
	ConversionDelaySeconds uint64
	LiquidityPercent uint16 // basis points of each block's content mint routed to the liquidity reward pool
	LiquidityHalfLifeSeconds uint64 // must match core/exchange.Params so standings decay consistently between accrual and payout
}

// Run executes every step of the sweep against db for the block that just
// landed at headBlockNumber/now. It never fails: every step operates on
// already-validated state, so a housekeeping bug is a programmer error,
// not a rejected block (spec.md §7 places this failure mode in the Fatal
// tier, caught by the surrounding block-level undo session rather than by
// a returned error here).
func Run(db *objectstore.Database, params Params, headBlockNumber, now uint64) {
	burnNullBalances(db)
	mintBlockRewards(db, params, headBlockNumber)
	processConversions(db, now)
	processCashouts(db, params, now)
	processVestingWithdrawals(db, now)
	processSavingsWithdrawals(db, now, params.DebtAsset)
	if headBlockNumber%LiquidityRewardBlocks == 0 {
		payLiquidityReward(db, params, now)
	}
	recomputeVirtualSupply(db, params)
}

// burnNullBalances removes any balance parked on the "null" sink account,
// the STEEM equivalent of sending to the zero address: it is destroyed
// rather than left credited to an unspendable account.
func burnNullBalances(db *objectstore.Database) {
	acct, ok := db.Accounts.Find("by_name", "null")
	if !ok {
		return
	}
	if acct.Liquid.Sign() == 0 && acct.SBD.Sign() == 0 {
		return
	}
	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.CurrentSupply.Sub(g.CurrentSupply, acct.Liquid)
		g.CurrentSBDSupply.Sub(g.CurrentSBDSupply, acct.SBD)
	})
	db.Accounts.Modify(acct, func(a *objectstore.Account) {
		a.Liquid = big.NewInt(0)
		a.SBD = big.NewInt(0)
	})
}

// mintBlockRewards mints this block's inflation and credits the content
// reward fund, the global vesting fund, and the current witness.
func mintBlockRewards(db *objectstore.Database, params Params, headBlockNumber uint64) {
	dgp := db.Singleton()
	if dgp.VirtualSupply == nil || dgp.VirtualSupply.Sign() <= 0 {
		return
	}
	_, content, vesting, witnessPay := params.Inflation.BlockMint(dgp.VirtualSupply, headBlockNumber)

	liquidityShare := new(big.Int).Mul(content, big.NewInt(int64(params.LiquidityPercent)))
	liquidityShare.Div(liquidityShare, big.NewInt(10_000))
	authorShare := new(big.Int).Sub(content, liquidityShare)

	fund := contentFund(db, params)
	db.RewardFunds.Modify(fund, func(f *objectstore.RewardFund) {
		f.RewardBalance.Add(f.RewardBalance, authorShare)
	})
	lfund := liquidityFund(db)
	db.RewardFunds.Modify(lfund, func(f *objectstore.RewardFund) {
		f.RewardBalance.Add(f.RewardBalance, liquidityShare)
	})

	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.TotalVestingFundSteem.Add(g.TotalVestingFundSteem, vesting)
		g.CurrentSupply.Add(g.CurrentSupply, content)
		g.CurrentSupply.Add(g.CurrentSupply, vesting)
		g.CurrentSupply.Add(g.CurrentSupply, witnessPay)
	})

	if witness, ok := db.Witnesses.Find("by_owner", dgp.CurrentWitness); ok {
		if acct, ok := db.Accounts.Find("by_name", witness.Owner); ok {
			shares := vestingSharesFor(dgp, witnessPay)
			db.Accounts.Modify(acct, func(a *objectstore.Account) { a.Vesting.Add(a.Vesting, shares) })
			db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
				g.TotalVestingShares.Add(g.TotalVestingShares, shares)
			})
		}
	}
}

func contentFund(db *objectstore.Database, params Params) *objectstore.RewardFund {
	if f, ok := db.RewardFunds.Find("by_name", "post"); ok {
		return f
	}
	return db.RewardFunds.Create(&objectstore.RewardFund{}, func(f *objectstore.RewardFund) {
		f.Name = "post"
		f.RewardBalance = big.NewInt(0)
		f.RecentClaims = big.NewInt(0)
		f.PercentContentRewards = 10000
		f.ContentConstant = big.NewInt(2000000000000)
	})
}

func liquidityFund(db *objectstore.Database) *objectstore.RewardFund {
	if f, ok := db.RewardFunds.Find("by_name", "sbd_liquidity"); ok {
		return f
	}
	return db.RewardFunds.Create(&objectstore.RewardFund{}, func(f *objectstore.RewardFund) {
		f.Name = "sbd_liquidity"
		f.RewardBalance = big.NewInt(0)
		f.RecentClaims = big.NewInt(0)
		f.ContentConstant = big.NewInt(0)
	})
}

// vestingSharesFor converts a liquid amount into vesting shares at the
// fund's current liquid-per-share exchange rate.
func vestingSharesFor(dgp *objectstore.DynamicGlobalProperties, liquid *big.Int) *big.Int {
	if dgp.TotalVestingShares.Sign() == 0 || dgp.TotalVestingFundSteem.Sign() == 0 {
		return new(big.Int).Set(liquid)
	}
	shares := new(big.Int).Mul(liquid, dgp.TotalVestingShares)
	return shares.Div(shares, dgp.TotalVestingFundSteem)
}

// processConversions releases every convert request whose three-day
// maturity has elapsed. The STEEM side was already minted into the request
// at evalConvert time, so this is a pure balance move onto the owner's
// liquid balance, exactly mirroring processSavingsWithdrawals.
func processConversions(db *objectstore.Database, now uint64) {
	due := make([]*objectstore.ConvertRequest, 0)
	for _, r := range db.ConvertRequests.All() {
		if r.ConversionDate <= now {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ConversionDate < due[j].ConversionDate })
	for _, r := range due {
		if to, ok := db.Accounts.Find("by_name", r.Owner); ok {
			db.Accounts.Modify(to, func(a *objectstore.Account) { a.Liquid.Add(a.Liquid, r.Amount) })
		}
		db.ConvertRequests.Remove(r)
	}
}

// processCashouts pays out every comment whose cashout time has arrived.
func processCashouts(db *objectstore.Database, params Params, now uint64) {
	due := reward.DueComments(db, now)
	if len(due) == 0 {
		return
	}
	fund := contentFund(db, params)
	dgp := db.Singleton()
	for _, c := range due {
		res := reward.Cashout(c, fund, params.CurationPercent)
		applyCashout(db, dgp, fund, res)
	}
}

func applyCashout(db *objectstore.Database, dgp *objectstore.DynamicGlobalProperties, fund *objectstore.RewardFund, res *reward.CashoutResult) {
	spent := new(big.Int).Add(res.AuthorSBD, res.AuthorVesting)
	spent.Add(spent, res.CuratorVesting)
	for _, v := range res.BeneficiaryPaid {
		spent.Add(spent, v)
	}

	if acct, ok := db.Accounts.Find("by_name", res.Comment.Author); ok {
		vestingShares := vestingSharesFor(dgp, res.AuthorVesting)
		db.Accounts.Modify(acct, func(a *objectstore.Account) {
			a.SBD.Add(a.SBD, res.AuthorSBD)
			a.Vesting.Add(a.Vesting, vestingShares)
		})
		db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
			g.TotalVestingShares.Add(g.TotalVestingShares, vestingShares)
			g.CurrentSBDSupply.Add(g.CurrentSBDSupply, res.AuthorSBD)
		})
	}
	for name, amount := range res.BeneficiaryPaid {
		acct, ok := db.Accounts.Find("by_name", name)
		if !ok {
			continue
		}
		shares := vestingSharesFor(dgp, amount)
		db.Accounts.Modify(acct, func(a *objectstore.Account) { a.Vesting.Add(a.Vesting, shares) })
		db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) { g.TotalVestingShares.Add(g.TotalVestingShares, shares) })
	}
	payCurators(db, dgp, res)

	db.RewardFunds.Modify(fund, func(f *objectstore.RewardFund) {
		f.RewardBalance.Sub(f.RewardBalance, spent)
		f.RecentClaims.Add(f.RecentClaims, res.VShares)
	})
	db.Comments.Modify(res.Comment, func(c *objectstore.Comment) {
		c.LastPayout = c.CashoutTime
		c.CashoutTime = objectstore.MaxCashoutTime
	})
}

func payCurators(db *objectstore.Database, dgp *objectstore.DynamicGlobalProperties, res *reward.CashoutResult) {
	if res.CuratorVesting.Sign() <= 0 {
		return
	}
	votes := db.CommentVotes.FindAll("by_comment", commentVoteKey(res.Comment.GetID()))
	weights := reward.CuratorWeights(votes)
	total := big.NewInt(0)
	for _, w := range weights {
		total.Add(total, w)
	}
	if total.Sign() == 0 {
		return
	}
	for _, v := range votes {
		w, ok := weights[v.GetID()]
		if !ok {
			continue
		}
		share := new(big.Int).Mul(res.CuratorVesting, w)
		share.Div(share, total)
		if share.Sign() <= 0 {
			continue
		}
		acct, ok := db.Accounts.Find("by_name", v.Voter)
		if !ok {
			continue
		}
		shares := vestingSharesFor(dgp, share)
		db.Accounts.Modify(acct, func(a *objectstore.Account) { a.Vesting.Add(a.Vesting, shares) })
		db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) { g.TotalVestingShares.Add(g.TotalVestingShares, shares) })
	}
}

func commentVoteKey(id objectstore.ID) string {
	return sprintf20(uint64(id))
}

func sprintf20(v uint64) string {
	buf := make([]byte, 20)
	for i := 19; i >= 0; i-- {
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf)
}

// processVestingWithdrawals pays out one installment of every account's
// active withdraw_vesting schedule that has come due, and adjusts proxied
// vote totals for the account's proxy chain to reflect the reduced stake.
func processVestingWithdrawals(db *objectstore.Database, now uint64) {
	for _, a := range db.Accounts.All() {
		if a.VestingWithdrawRate == nil || a.VestingWithdrawRate.Sign() <= 0 {
			continue
		}
		if a.NextVestingWithdraw == 0 || a.NextVestingWithdraw == ^uint64(0) || a.NextVestingWithdraw > now {
			continue
		}
		installment := new(big.Int).Set(a.VestingWithdrawRate)
		remaining := new(big.Int).Sub(a.ToWithdraw, a.Withdrawn)
		if installment.Cmp(remaining) > 0 {
			installment = remaining
		}
		if installment.Sign() <= 0 {
			continue
		}
		payRoutes(db, a, installment)
		db.Accounts.Modify(a, func(acct *objectstore.Account) {
			acct.Vesting.Sub(acct.Vesting, installment)
			acct.Withdrawn.Add(acct.Withdrawn, installment)
			if acct.Withdrawn.Cmp(acct.ToWithdraw) >= 0 {
				acct.NextVestingWithdraw = ^uint64(0)
				acct.VestingWithdrawRate = big.NewInt(0)
			} else {
				acct.NextVestingWithdraw += 7 * 24 * 3600
			}
		})
		dgp := db.Singleton()
		db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
			g.TotalVestingShares.Sub(g.TotalVestingShares, installment)
		})
	}
}

func payRoutes(db *objectstore.Database, from *objectstore.Account, installment *big.Int) {
	if len(from.WithdrawRoutes) == 0 {
		liquid := vestingToLiquid(db, installment)
		db.Accounts.Modify(from, func(a *objectstore.Account) { a.Liquid.Add(a.Liquid, liquid) })
		return
	}
	remaining := new(big.Int).Set(installment)
	for _, r := range from.WithdrawRoutes {
		to, ok := db.Accounts.Find("by_name", r.ToAccount)
		if !ok {
			continue
		}
		share := new(big.Int).Mul(installment, big.NewInt(int64(r.PercentBp)))
		share.Div(share, big.NewInt(10_000))
		remaining.Sub(remaining, share)
		if r.AutoVest {
			db.Accounts.Modify(to, func(a *objectstore.Account) { a.Vesting.Add(a.Vesting, share) })
		} else {
			liquid := vestingToLiquid(db, share)
			db.Accounts.Modify(to, func(a *objectstore.Account) { a.Liquid.Add(a.Liquid, liquid) })
		}
	}
	if remaining.Sign() > 0 {
		liquid := vestingToLiquid(db, remaining)
		db.Accounts.Modify(from, func(a *objectstore.Account) { a.Liquid.Add(a.Liquid, liquid) })
	}
}

func vestingToLiquid(db *objectstore.Database, shares *big.Int) *big.Int {
	dgp := db.Singleton()
	if dgp.TotalVestingShares.Sign() == 0 {
		return new(big.Int).Set(shares)
	}
	liquid := new(big.Int).Mul(shares, dgp.TotalVestingFundSteem)
	return liquid.Div(liquid, dgp.TotalVestingShares)
}

// processSavingsWithdrawals releases every savings-withdraw request whose
// three-day maturity has elapsed.
func processSavingsWithdrawals(db *objectstore.Database, now uint64, debtAsset string) {
	due := make([]*objectstore.SavingsWithdrawRequest, 0)
	for _, s := range db.SavingsWithdraws.All() {
		if s.Complete <= now {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Complete < due[j].Complete })
	for _, s := range due {
		to, ok := db.Accounts.Find("by_name", s.To)
		if !ok {
			db.SavingsWithdraws.Remove(s)
			continue
		}
		db.Accounts.Modify(to, func(a *objectstore.Account) {
			if s.Asset == debtAsset {
				a.SBD.Add(a.SBD, s.Amount)
			} else {
				a.Liquid.Add(a.Liquid, s.Amount)
			}
		})
		db.SavingsWithdraws.Remove(s)
	}
}

// payLiquidityReward pays the single top-weighted market maker, ranked by
// exponentially-decayed base-asset trade volume core/exchange.Run accrues
// into MarketMakerVolumes as orders match. Every standing is decayed to now
// first so a maker who hasn't traded recently can't coast on a stale total
// against one who has.
func payLiquidityReward(db *objectstore.Database, params Params, now uint64) {
	standings := db.MarketMakerVolumes.All()
	if len(standings) == 0 {
		return
	}
	for _, v := range standings {
		elapsed := uint64(0)
		if now > v.LastUpdate {
			elapsed = now - v.LastUpdate
		}
		db.MarketMakerVolumes.Modify(v, func(v *objectstore.MarketMakerVolume) {
			v.Volume = reward.DecayRecentClaims(v.Volume, elapsed, params.LiquidityHalfLifeSeconds)
			v.LastUpdate = now
		})
	}
	sort.Slice(standings, func(i, j int) bool { return standings[i].Volume.Cmp(standings[j].Volume) > 0 })

	top := standings[0]
	if top.Volume.Sign() <= 0 {
		return
	}
	fund, ok := db.RewardFunds.Find("by_name", "sbd_liquidity")
	if !ok || fund.RewardBalance.Sign() <= 0 {
		return
	}
	acct, ok := db.Accounts.Find("by_name", top.Owner)
	if !ok {
		return
	}
	payout := new(big.Int).Set(fund.RewardBalance)
	db.Accounts.Modify(acct, func(a *objectstore.Account) { a.Liquid.Add(a.Liquid, payout) })
	db.RewardFunds.Modify(fund, func(f *objectstore.RewardFund) { f.RewardBalance.Sub(f.RewardBalance, payout) })
}

// recomputeVirtualSupply sets virtual_supply to the current STEEM supply
// plus the STEEM-equivalent value of all outstanding SBD at the median feed
// price, matching spec.md §8's virtual-supply invariant. When a feed
// exists, the SBD print rate is set to params.SBDInterestRateBps; it does
// not depend on the feed price.
func recomputeVirtualSupply(db *objectstore.Database, params Params) {
	dgp := db.Singleton()
	price := medianFeedPrice(db)
	if price == nil || price.Sign() == 0 {
		db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
			g.VirtualSupply = new(big.Int).Set(g.CurrentSupply)
		})
		return
	}
	sbdInSteem := new(big.Rat).SetInt(dgp.CurrentSBDSupply)
	sbdInSteem.Quo(sbdInSteem, price)
	whole := new(big.Int).Quo(sbdInSteem.Num(), sbdInSteem.Denom())
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.VirtualSupply = new(big.Int).Add(g.CurrentSupply, whole)
		g.SBDPrintRate = params.SBDInterestRateBps
	})
}

func medianFeedPrice(db *objectstore.Database) *big.Rat {
	all := db.BitAssets.All()
	if len(all) == 0 {
		return nil
	}
	rates := make([]*big.Rat, 0, len(all))
	for _, b := range all {
		if b.CurrentFeed != nil && b.CurrentFeed.Sign() > 0 {
			rates = append(rates, b.CurrentFeed)
		}
	}
	if len(rates) == 0 {
		return nil
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Cmp(rates[j]) < 0 })
	return rates[len(rates)/2]
}
