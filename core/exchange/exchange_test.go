package exchange

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"chainforge/core/objectstore"
)

func newAccount(db *objectstore.Database, name string) *objectstore.Account {
	return db.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
		a.Name = name
		a.Liquid = big.NewInt(0)
		a.Vesting = big.NewInt(0)
		a.SBD = big.NewInt(0)
		a.Savings = big.NewInt(0)
		a.SBDSavings = big.NewInt(0)
	})
}

// TestSweepMarginCallsClosesUndercollateralizedPosition is scenario S3: a
// call order sitting at a 150% collateral ratio against a 175% maintenance
// requirement gets closed against the best resting bid, capped by neither
// the max short squeeze price nor the position's own collateral, leaving the
// borrower with their surplus collateral back and the bid's owner holding
// the base asset they bought.
func TestSweepMarginCallsClosesUndercollateralizedPosition(t *testing.T) {
	db := objectstore.NewDatabase()
	params := Params{BaseAsset: "STEEM", DebtAsset: "SBD"}

	newAccount(db, "carol")
	newAccount(db, "dave")

	db.BitAssets.Create(&objectstore.AssetBitAssetData{}, func(b *objectstore.AssetBitAssetData) {
		b.Asset = "SBD"
		b.CurrentFeed = big.NewRat(1, 1) // 1 SBD per STEEM
		b.MaintenanceCollateralRatio = 17500
		b.MaxShortSqueezeRatio = 11000
	})

	call := db.CallOrders.Create(&objectstore.CallOrder{}, func(c *objectstore.CallOrder) {
		c.Borrower = "carol"
		c.DebtAsset = "SBD"
		c.Debt = big.NewInt(100)
		c.CollateralAsset = "STEEM"
		c.Collateral = big.NewInt(150)
	})

	db.LimitOrders.Create(&objectstore.LimitOrder{}, func(o *objectstore.LimitOrder) {
		o.Seller = "dave"
		o.OrderID = 1
		o.ForSaleAsset = "SBD"
		o.ForSale = big.NewInt(100)
		o.SellPrice = big.NewRat(120, 100) // wants at least 120 STEEM for 100 SBD
		o.ReceiveAsset = "STEEM"
	})

	fills := sweepMarginCalls(db, params)

	require.Len(t, fills, 1)
	require.Equal(t, "margin_call", fills[0].Kind)
	require.Equal(t, "carol", fills[0].Seller)
	require.Equal(t, "dave", fills[0].Buyer)
	require.Equal(t, "120", fills[0].PaysAmount.String())
	require.Equal(t, "100", fills[0].ReceivesAmount.String())

	_, stillOpen := db.CallOrders.Get(call.GetID())
	require.False(t, stillOpen)

	require.Empty(t, db.LimitOrders.All())

	daveAcct, ok := db.Accounts.Find("by_name", "dave")
	require.True(t, ok)
	require.Equal(t, "120", daveAcct.Liquid.String())

	carolAcct, ok := db.Accounts.Find("by_name", "carol")
	require.True(t, ok)
	require.Equal(t, "30", carolAcct.Liquid.String())
}

// TestSweepMarginCallsStopsAtOwnCallPrice is scenario S3b: a call order
// posted its own call price tighter than the market's current max short
// squeeze price allows, so the one resting bid that would otherwise be
// eligible to match against it is still rejected — the position is called
// at a price no worse than what the borrower posted going in, not merely
// at whatever the squeeze happens to permit this block.
func TestSweepMarginCallsStopsAtOwnCallPrice(t *testing.T) {
	db := objectstore.NewDatabase()
	params := Params{BaseAsset: "STEEM", DebtAsset: "SBD"}

	newAccount(db, "carol")
	newAccount(db, "dave")

	db.BitAssets.Create(&objectstore.AssetBitAssetData{}, func(b *objectstore.AssetBitAssetData) {
		b.Asset = "SBD"
		b.CurrentFeed = big.NewRat(1, 1)
		b.MaintenanceCollateralRatio = 17500
		b.MaxShortSqueezeRatio = 11000
	})

	call := db.CallOrders.Create(&objectstore.CallOrder{}, func(c *objectstore.CallOrder) {
		c.Borrower = "carol"
		c.DebtAsset = "SBD"
		c.Debt = big.NewInt(100)
		c.CollateralAsset = "STEEM"
		c.Collateral = big.NewInt(160)
		c.SetCallPrice(17500) // 100*17500/(160*10000) = 1.09375 debt per base
	})

	db.LimitOrders.Create(&objectstore.LimitOrder{}, func(o *objectstore.LimitOrder) {
		o.Seller = "dave"
		o.OrderID = 1
		o.ForSaleAsset = "SBD"
		o.ForSale = big.NewInt(100)
		o.SellPrice = big.NewRat(200, 219) // implies 219/200 = 1.095 debt per base: inside the 1.1 squeeze ceiling, but past the call's own 1.09375
		o.ReceiveAsset = "STEEM"
	})

	fills := sweepMarginCalls(db, params)

	require.Empty(t, fills)

	stillOpen, ok := db.CallOrders.Get(call.GetID())
	require.True(t, ok)
	require.Equal(t, "100", stillOpen.Debt.String())
	require.Equal(t, "160", stillOpen.Collateral.String())

	require.Len(t, db.LimitOrders.All(), 1)
}

// TestSweepMarginCallsNoOpWithoutFeed confirms a market with no published
// feed price never touches an existing call order: a stale zero feed can't
// be used to compute a collateral ratio at all.
func TestSweepMarginCallsNoOpWithoutFeed(t *testing.T) {
	db := objectstore.NewDatabase()
	params := Params{BaseAsset: "STEEM", DebtAsset: "SBD"}

	db.CallOrders.Create(&objectstore.CallOrder{}, func(c *objectstore.CallOrder) {
		c.Borrower = "carol"
		c.DebtAsset = "SBD"
		c.Debt = big.NewInt(100)
		c.Collateral = big.NewInt(1)
	})

	fills := sweepMarginCalls(db, params)
	require.Nil(t, fills)
	require.Len(t, db.CallOrders.All(), 1)
}
