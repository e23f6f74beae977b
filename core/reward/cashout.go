package reward

import (
	"math/big"
	"sort"

	"chainforge/core/objectstore"
)

// CashoutResult reports what a single comment payout distributed, for the
// caller (core/chain's housekeeping step) to fold into virtual-op history
// and account balances.
type CashoutResult struct {
	Comment          *objectstore.Comment
	AuthorSteem      *big.Int
	AuthorSBD        *big.Int
	AuthorVesting    *big.Int
	CuratorVesting   *big.Int
	BeneficiaryPaid  map[string]*big.Int
	VShares          *big.Int
}

// DueComments returns every comment whose CashoutTime has arrived, ordered
// by cashout time then id for determinism.
func DueComments(db *objectstore.Database, now uint64) []*objectstore.Comment {
	all := db.Comments.All()
	due := make([]*objectstore.Comment, 0)
	for _, c := range all {
		if c.CashoutTime != objectstore.MaxCashoutTime && c.CashoutTime <= now {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].CashoutTime != due[j].CashoutTime {
			return due[i].CashoutTime < due[j].CashoutTime
		}
		return due[i].GetID() < due[j].GetID()
	})
	return due
}

// Cashout pays a single comment's accumulated rshares out of fund,
// splitting SBD/vesting per PercentSteemDollars, carving out the curator
// share and any declared beneficiaries first. It mutates fund's balance
// and recentClaims via the caller (core/chain), which also credits the
// resulting balances onto the relevant accounts; Cashout itself only
// computes the split so the caller can apply it inside its own undo
// session.
func Cashout(c *objectstore.Comment, fund *objectstore.RewardFund, curationPercent uint16) *CashoutResult {
	res := &CashoutResult{Comment: c, BeneficiaryPaid: map[string]*big.Int{}}
	vshares := CalculateVShares(c.NetRshares, fund.ContentConstant)
	res.VShares = vshares
	if vshares.Sign() <= 0 || fund.RecentClaims.Sign() <= 0 {
		res.AuthorSteem, res.AuthorSBD, res.AuthorVesting, res.CuratorVesting =
			big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)
		return res
	}

	payout := new(big.Int).Mul(fund.RewardBalance, vshares)
	payout.Div(payout, fund.RecentClaims)
	payout = capPayout(payout, c.MaxAcceptedPayout)

	curatorShare := big.NewInt(0)
	if c.AllowCuration {
		curatorShare = new(big.Int).Mul(payout, big.NewInt(int64(curationPercent)))
		curatorShare.Div(curatorShare, big.NewInt(10_000))
	}
	remaining := new(big.Int).Sub(payout, curatorShare)

	beneficiaryTotal := big.NewInt(0)
	for _, b := range c.Beneficiaries {
		share := new(big.Int).Mul(remaining, big.NewInt(int64(b.Weight)))
		share.Div(share, big.NewInt(10_000))
		res.BeneficiaryPaid[b.Account] = share
		beneficiaryTotal.Add(beneficiaryTotal, share)
	}
	authorShare := new(big.Int).Sub(remaining, beneficiaryTotal)

	sbdShare := new(big.Int).Mul(authorShare, big.NewInt(int64(c.PercentSteemDollars)))
	sbdShare.Div(sbdShare, big.NewInt(2*10_000))
	vestingShare := new(big.Int).Sub(authorShare, sbdShare)

	res.AuthorSBD = sbdShare
	res.AuthorVesting = vestingShare
	res.AuthorSteem = big.NewInt(0)
	res.CuratorVesting = curatorShare
	return res
}

func capPayout(payout *big.Int, max *big.Int) *big.Int {
	if max != nil && max.Sign() > 0 && payout.Cmp(max) > 0 {
		return new(big.Int).Set(max)
	}
	return payout
}

// CuratorWeights splits a cashed-out comment's curator pool proportional to
// each vote's Weight, the square-root rshares delta the vote contributed to
// the comment at the moment it was cast (core/evaluator.curatorRshareWeight)
// — voters earlier in a comment's life net a larger share because their
// vote moved abs_rshares from a smaller base.
func CuratorWeights(votes []*objectstore.CommentVote) map[objectstore.ID]*big.Int {
	total := big.NewInt(0)
	for _, v := range votes {
		if v.Weight != nil && v.Weight.Sign() > 0 {
			total.Add(total, v.Weight)
		}
	}
	out := make(map[objectstore.ID]*big.Int, len(votes))
	if total.Sign() == 0 {
		return out
	}
	for _, v := range votes {
		if v.Weight == nil || v.Weight.Sign() <= 0 {
			continue
		}
		out[v.GetID()] = new(big.Int).Set(v.Weight)
	}
	return out
}
