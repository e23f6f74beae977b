package objectstore

import (
	"fmt"
	"math/big"
)

// commentKey builds the natural (author, permlink) key used by the
// comment-by-author-permlink unique index.
func commentKey(author, permlink string) string { return author + "\x00" + permlink }

// Database groups the Store with every table the chain controller needs,
// pre-wired with the secondary indexes each table's evaluators rely on.
// It is the concrete "abstract transactional object index" spec.md treats
// as an external collaborator's contract made real.
type Database struct {
	Store *Store

	Accounts      *Table[*Account]
	Comments      *Table[*Comment]
	CommentVotes  *Table[*CommentVote]
	Witnesses     *Table[*Witness]
	Schedule      *Table[*WitnessSchedule]
	Globals       *Table[*DynamicGlobalProperties]
	RewardFunds   *Table[*RewardFund]
	LimitOrders   *Table[*LimitOrder]
	CallOrders    *Table[*CallOrder]
	Settlements   *Table[*ForceSettlement]
	Assets        *Table[*Asset]
	AssetDynamic  *Table[*AssetDynamicData]
	BitAssets     *Table[*AssetBitAssetData]
	BlockSummaries *Table[*BlockSummary]
	Hardfork      *Table[*HardforkProperties]
	Bandwidth     *Table[*AccountBandwidth]
	Escrows        *Table[*Escrow]
	SavingsWithdraws *Table[*SavingsWithdrawRequest]
	ConvertRequests  *Table[*ConvertRequest]
	MarketMakerVolumes *Table[*MarketMakerVolume]
}

// NewDatabase allocates a fresh, empty Database with all indexes wired.
func NewDatabase() *Database {
	store := NewStore()
	db := &Database{
		Store:          store,
		Accounts:       NewTable[*Account](store, "account"),
		Comments:       NewTable[*Comment](store, "comment"),
		CommentVotes:   NewTable[*CommentVote](store, "comment_vote"),
		Witnesses:      NewTable[*Witness](store, "witness"),
		Schedule:       NewTable[*WitnessSchedule](store, "witness_schedule"),
		Globals:        NewTable[*DynamicGlobalProperties](store, "dynamic_global_properties"),
		RewardFunds:    NewTable[*RewardFund](store, "reward_fund"),
		LimitOrders:    NewTable[*LimitOrder](store, "limit_order"),
		CallOrders:     NewTable[*CallOrder](store, "call_order"),
		Settlements:    NewTable[*ForceSettlement](store, "force_settlement"),
		Assets:         NewTable[*Asset](store, "asset"),
		AssetDynamic:   NewTable[*AssetDynamicData](store, "asset_dynamic_data"),
		BitAssets:      NewTable[*AssetBitAssetData](store, "asset_bitasset_data"),
		BlockSummaries: NewTable[*BlockSummary](store, "block_summary"),
		Hardfork:       NewTable[*HardforkProperties](store, "hardfork_properties"),
		Bandwidth:      NewTable[*AccountBandwidth](store, "account_bandwidth"),
		Escrows:          NewTable[*Escrow](store, "escrow"),
		SavingsWithdraws: NewTable[*SavingsWithdrawRequest](store, "savings_withdraw_request"),
		ConvertRequests:  NewTable[*ConvertRequest](store, "convert_request"),
		MarketMakerVolumes: NewTable[*MarketMakerVolume](store, "market_maker_volume"),
	}

	db.Accounts.AddIndex("by_name", true, func(a *Account) string { return a.Name })
	db.Comments.AddIndex("by_author_permlink", true, func(c *Comment) string { return commentKey(c.Author, c.Permlink) })
	db.Comments.AddIndex("by_parent", false, func(c *Comment) string { return commentKey(c.ParentAuthor, c.ParentPermlink) })
	db.Comments.AddIndex("by_cashout_time", false, func(c *Comment) string { return fmt.Sprintf("%020d", c.CashoutTime) })
	db.CommentVotes.AddIndex("by_voter_comment", true, func(v *CommentVote) string { return fmt.Sprintf("%s\x00%d", v.Voter, v.CommentID) })
	db.CommentVotes.AddIndex("by_comment", false, func(v *CommentVote) string { return fmt.Sprintf("%020d", v.CommentID) })
	db.RewardFunds.AddIndex("by_name", true, func(f *RewardFund) string { return f.Name })
	db.Witnesses.AddIndex("by_owner", true, func(w *Witness) string { return w.Owner })
	db.Witnesses.AddIndex("by_votes", false, func(w *Witness) string { return fmt.Sprintf("%040s", w.Votes.String()) })
	db.LimitOrders.AddIndex("by_seller_orderid", true, func(o *LimitOrder) string { return fmt.Sprintf("%s\x00%d", o.Seller, o.OrderID) })
	db.LimitOrders.AddIndex("by_expiration", false, func(o *LimitOrder) string { return fmt.Sprintf("%020d", o.Expiration) })
	db.LimitOrders.AddIndex("by_book", false, func(o *LimitOrder) string { return o.ForSaleAsset + "/" + o.ReceiveAsset })
	db.CallOrders.AddIndex("by_borrower_debt", true, func(c *CallOrder) string { return c.Borrower + "\x00" + c.DebtAsset })
	db.CallOrders.AddIndex("by_debt_asset", false, func(c *CallOrder) string { return c.DebtAsset })
	db.Settlements.AddIndex("by_owner_id", true, func(s *ForceSettlement) string { return fmt.Sprintf("%s\x00%d", s.Owner, s.SettlementID) })
	db.Settlements.AddIndex("by_asset", false, func(s *ForceSettlement) string { return s.Asset })
	db.Assets.AddIndex("by_symbol", true, func(a *Asset) string { return a.Symbol })
	db.AssetDynamic.AddIndex("by_asset", true, func(d *AssetDynamicData) string { return d.Asset })
	db.BitAssets.AddIndex("by_asset", true, func(b *AssetBitAssetData) string { return b.Asset })
	db.BlockSummaries.AddIndex("by_slot", true, func(s *BlockSummary) string { return fmt.Sprintf("%05d", s.Slot) })
	db.Bandwidth.AddIndex("by_account_class", true, func(b *AccountBandwidth) string { return fmt.Sprintf("%s\x00%d", b.Account, b.Class) })
	db.Escrows.AddIndex("by_from_id", true, func(e *Escrow) string { return fmt.Sprintf("%s\x00%d", e.From, e.EscrowID) })
	db.Escrows.AddIndex("by_expiration", false, func(e *Escrow) string { return fmt.Sprintf("%020d", e.Expiration) })
	db.SavingsWithdraws.AddIndex("by_from_id", true, func(s *SavingsWithdrawRequest) string { return fmt.Sprintf("%s\x00%d", s.From, s.RequestID) })
	db.SavingsWithdraws.AddIndex("by_complete", false, func(s *SavingsWithdrawRequest) string { return fmt.Sprintf("%020d", s.Complete) })
	db.ConvertRequests.AddIndex("by_from_id", true, func(r *ConvertRequest) string { return fmt.Sprintf("%s\x00%d", r.Owner, r.RequestID) })
	db.ConvertRequests.AddIndex("by_conversion_date", false, func(r *ConvertRequest) string { return fmt.Sprintf("%020d", r.ConversionDate) })
	db.MarketMakerVolumes.AddIndex("by_owner", true, func(v *MarketMakerVolume) string { return v.Owner })

	return db
}

// Singleton returns the sole DynamicGlobalProperties record, creating it
// with zeroed fields on first use (genesis is responsible for filling it
// in properly).
func (db *Database) Singleton() *DynamicGlobalProperties {
	all := db.Globals.All()
	if len(all) > 0 {
		return all[0]
	}
	return db.Globals.Create(&DynamicGlobalProperties{}, func(g *DynamicGlobalProperties) {
		g.RecentSlotsFilled = bigZero()
		g.CurrentSupply = bigZero()
		g.VirtualSupply = bigZero()
		g.CurrentSBDSupply = bigZero()
		g.TotalVestingFundSteem = bigZero()
		g.TotalVestingShares = bigZero()
		g.TotalRewardFundSteem = bigZero()
		g.MaxVirtualBandwidth = bigZero()
	})
}

// AdjustSupply credits (delta > 0) or debits (delta < 0) asset's circulating
// supply by delta, keeping AssetDynamicData.CurrentSupply and, for the two
// named chain assets, DynamicGlobalProperties.CurrentSupply/CurrentSBDSupply
// in lockstep. It is the single place every balance mint or burn against a
// named asset must route through, so core/audit's supply-conservation check
// never observes a mid-transaction desync between an account balance and
// the counters that are supposed to sum to it.
func (db *Database) AdjustSupply(asset, baseAsset, debtAsset string, delta *big.Int) {
	if delta == nil || delta.Sign() == 0 {
		return
	}
	if dyn, ok := db.AssetDynamic.Find("by_asset", asset); ok {
		db.AssetDynamic.Modify(dyn, func(d *AssetDynamicData) { d.CurrentSupply.Add(d.CurrentSupply, delta) })
	}
	switch asset {
	case baseAsset:
		dgp := db.Singleton()
		db.Globals.Modify(dgp, func(g *DynamicGlobalProperties) { g.CurrentSupply.Add(g.CurrentSupply, delta) })
	case debtAsset:
		dgp := db.Singleton()
		db.Globals.Modify(dgp, func(g *DynamicGlobalProperties) { g.CurrentSBDSupply.Add(g.CurrentSBDSupply, delta) })
	}
}

// ScheduleSingleton returns the sole WitnessSchedule record, creating an
// empty one on first use.
func (db *Database) ScheduleSingleton() *WitnessSchedule {
	all := db.Schedule.All()
	if len(all) > 0 {
		return all[0]
	}
	return db.Schedule.Create(&WitnessSchedule{}, func(s *WitnessSchedule) {
		s.MedianProps.AccountCreationFee = bigZero()
		s.CurrentVirtualTime = bigRatZero()
	})
}

// HardforkSingleton returns the sole HardforkProperties record, creating an
// empty one on first use.
func (db *Database) HardforkSingleton() *HardforkProperties {
	all := db.Hardfork.All()
	if len(all) > 0 {
		return all[0]
	}
	return db.Hardfork.Create(&HardforkProperties{}, nil)
}
