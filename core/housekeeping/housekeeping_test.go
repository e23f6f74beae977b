package housekeeping

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"chainforge/core/objectstore"
	"chainforge/core/reward"
)

func newTestDB() *objectstore.Database {
	db := objectstore.NewDatabase()
	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.TotalVestingShares = big.NewInt(1_000_000_000)
		g.TotalVestingFundSteem = big.NewInt(1_000_000_000)
	})
	return db
}

func newAccount(db *objectstore.Database, name string) *objectstore.Account {
	return db.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
		a.Name = name
		a.Liquid = big.NewInt(0)
		a.Vesting = big.NewInt(0)
		a.SBD = big.NewInt(0)
		a.Savings = big.NewInt(0)
		a.SBDSavings = big.NewInt(0)
		a.VestingWithdrawRate = big.NewInt(0)
		a.ToWithdraw = big.NewInt(0)
		a.Withdrawn = big.NewInt(0)
	})
}

// TestProcessCashoutsSplitsAuthorCuratorAndSBD is scenario S5: a two-voter
// post cashes out of a fund sized so its whole payout equals the fund's
// balance, with 25% curation and a 50% SBD/50% vesting author split.
func TestProcessCashoutsSplitsAuthorCuratorAndSBD(t *testing.T) {
	db := newTestDB()
	newAccount(db, "carol")
	newAccount(db, "alice")
	newAccount(db, "bob")

	netRshares := big.NewInt(1_000_000_000)
	fund := db.RewardFunds.Create(&objectstore.RewardFund{}, func(f *objectstore.RewardFund) {
		f.Name = "post"
		f.RewardBalance = big.NewInt(100_000)
		f.ContentConstant = big.NewInt(2_000_000_000_000)
	})
	vshares := reward.CalculateVShares(netRshares, fund.ContentConstant)
	db.RewardFunds.Modify(fund, func(f *objectstore.RewardFund) { f.RecentClaims = new(big.Int).Set(vshares) })

	comment := db.Comments.Create(&objectstore.Comment{}, func(c *objectstore.Comment) {
		c.Author = "carol"
		c.Permlink = "post-one"
		c.NetRshares = netRshares
		c.CashoutTime = 1000
		c.PercentSteemDollars = 10000 // core/evaluator/content.go's default: 100% on the doubled scale, i.e. an even 50/50 SBD/vesting author split
		c.AllowCuration = true
	})

	db.CommentVotes.Create(&objectstore.CommentVote{}, func(v *objectstore.CommentVote) {
		v.Voter = "alice"
		v.CommentID = comment.GetID()
		v.Weight = big.NewInt(1)
	})
	db.CommentVotes.Create(&objectstore.CommentVote{}, func(v *objectstore.CommentVote) {
		v.Voter = "bob"
		v.CommentID = comment.GetID()
		v.Weight = big.NewInt(1)
	})

	params := Params{BaseAsset: "STEEM", DebtAsset: "SBD", CurationPercent: 2500}
	processCashouts(db, params, 1000)

	carol, ok := db.Accounts.Find("by_name", "carol")
	require.True(t, ok)
	require.Equal(t, "37500", carol.SBD.String())
	require.Equal(t, "37500", carol.Vesting.String())

	alice, ok := db.Accounts.Find("by_name", "alice")
	require.True(t, ok)
	require.Equal(t, "12500", alice.Vesting.String())

	bob, ok := db.Accounts.Find("by_name", "bob")
	require.True(t, ok)
	require.Equal(t, "12500", bob.Vesting.String())

	updated, ok := db.RewardFunds.Find("by_name", "post")
	require.True(t, ok)
	require.Equal(t, "0", updated.RewardBalance.String())

	updatedComment, ok := db.Comments.Get(comment.GetID())
	require.True(t, ok)
	require.Equal(t, objectstore.MaxCashoutTime, updatedComment.CashoutTime)
	require.Equal(t, uint64(1000), updatedComment.LastPayout)
}

// TestProcessVestingWithdrawalsPaysOneInstallment is scenario S6: an account
// midway through a 13-installment vesting withdrawal has its weekly
// installment routed half auto-vesting and half liquid to a single
// beneficiary, and its own schedule advances by one week.
func TestProcessVestingWithdrawalsPaysOneInstallment(t *testing.T) {
	db := newTestDB()
	alice := newAccount(db, "alice")
	newAccount(db, "dave")

	db.Accounts.Modify(alice, func(a *objectstore.Account) {
		a.Vesting = big.NewInt(130_000_000)
		a.ToWithdraw = big.NewInt(13_000_000)
		a.Withdrawn = big.NewInt(0)
		a.VestingWithdrawRate = big.NewInt(1_000_000)
		a.NextVestingWithdraw = 500
		a.WithdrawRoutes = []objectstore.WithdrawRoute{
			{ToAccount: "dave", PercentBp: 5000, AutoVest: true},
			{ToAccount: "dave", PercentBp: 5000, AutoVest: false},
		}
	})

	processVestingWithdrawals(db, 1000)

	updatedAlice, ok := db.Accounts.Find("by_name", "alice")
	require.True(t, ok)
	require.Equal(t, "129000000", updatedAlice.Vesting.String())
	require.Equal(t, "1000000", updatedAlice.Withdrawn.String())
	require.Equal(t, uint64(500+7*24*3600), updatedAlice.NextVestingWithdraw)

	dave, ok := db.Accounts.Find("by_name", "dave")
	require.True(t, ok)
	require.Equal(t, "500000", dave.Vesting.String())
	require.Equal(t, "500000", dave.Liquid.String())

	require.Equal(t, "999000000", db.Singleton().TotalVestingShares.String())
}
