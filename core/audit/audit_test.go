package audit

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"chainforge/core/objectstore"
)

func newAuditDB(t *testing.T) *objectstore.Database {
	t.Helper()
	db := objectstore.NewDatabase()
	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.CurrentSupply = big.NewInt(0)
		g.VirtualSupply = big.NewInt(0)
		g.CurrentSBDSupply = big.NewInt(0)
		g.TotalVestingFundSteem = big.NewInt(0)
		g.TotalVestingShares = big.NewInt(0)
		g.TotalRewardFundSteem = big.NewInt(0)
	})
	return db
}

func params() Params { return Params{BaseAsset: "STEEM", DebtAsset: "SBD"} }

func TestRunCleanDatabaseHasNoViolations(t *testing.T) {
	db := newAuditDB(t)
	db.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
		a.Name = "alice"
		a.Liquid, a.Vesting, a.SBD, a.Savings, a.SBDSavings = big.NewInt(100), big.NewInt(50), big.NewInt(0), big.NewInt(0), big.NewInt(0)
		a.ProxiedVSFBonus = [4]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)}
		a.WitnessVotes = map[string]bool{"w1": true}
	})
	db.Witnesses.Create(&objectstore.Witness{}, func(w *objectstore.Witness) {
		w.Owner = "w1"
		w.Votes = big.NewInt(50)
	})
	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) {
		g.CurrentSupply = big.NewInt(150)
		g.VirtualSupply = big.NewInt(150)
		g.TotalVestingFundSteem = big.NewInt(50)
		g.TotalVestingShares = big.NewInt(50)
	})

	violations := Run(db, params())
	require.Empty(t, violations)
}

func TestRunDetectsSupplyMismatch(t *testing.T) {
	db := newAuditDB(t)
	db.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
		a.Name = "alice"
		a.Liquid, a.Vesting, a.SBD, a.Savings, a.SBDSavings = big.NewInt(100), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)
		a.ProxiedVSFBonus = [4]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)}
	})
	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) { g.CurrentSupply = big.NewInt(999) })

	violations := Run(db, params())
	require.NotEmpty(t, violations)
	require.Equal(t, "1", violations[0].Invariant)
}

func TestRunDetectsWitnessVotesExceedingTotal(t *testing.T) {
	db := newAuditDB(t)
	db.Witnesses.Create(&objectstore.Witness{}, func(w *objectstore.Witness) {
		w.Owner = "w1"
		w.Votes = big.NewInt(1000)
	})
	dgp := db.Singleton()
	db.Globals.Modify(dgp, func(g *objectstore.DynamicGlobalProperties) { g.TotalVestingShares = big.NewInt(10) })

	violations := Run(db, params())
	var found bool
	for _, v := range violations {
		if v.Invariant == "6" {
			found = true
		}
	}
	require.True(t, found)
}

func TestRunDetectsChildrenRshares2Mismatch(t *testing.T) {
	db := newAuditDB(t)
	root := db.Comments.Create(&objectstore.Comment{}, func(c *objectstore.Comment) {
		c.Author, c.Permlink = "alice", "root"
		c.AbsRshares = big.NewInt(10)
		c.ChildrenRshares2 = big.NewInt(999)
	})
	db.Comments.Create(&objectstore.Comment{}, func(c *objectstore.Comment) {
		c.Author, c.Permlink = "bob", "reply"
		c.ParentAuthor, c.ParentPermlink = root.Author, root.Permlink
		c.AbsRshares = big.NewInt(5)
		c.ChildrenRshares2 = big.NewInt(25)
	})

	violations := Run(db, params())
	var found bool
	for _, v := range violations {
		if v.Invariant == "7" {
			found = true
		}
	}
	require.True(t, found)
}
