// Package objectstore implements the transactional, multi-index object
// container the rest of the chain mutates through. Every entity is a plain
// struct addressed by a stable numeric ID; all mutation flows through a
// nested undo-session stack (see session.go) so a block, a transaction, or
// a single evaluator's tentative change can be rolled back without
// disturbing its enclosing scope.
package objectstore

import "math/big"

// ID is a stable, table-scoped object identifier. IDs are never reused
// within a table's lifetime even after the object they named is removed.
type ID uint64

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func cloneBigMap(m map[string]*big.Int) map[string]*big.Int {
	if m == nil {
		return nil
	}
	out := make(map[string]*big.Int, len(m))
	for k, v := range m {
		out[k] = cloneBig(v)
	}
	return out
}

func cloneUint64Slice(s []uint64) []uint64 {
	if s == nil {
		return nil
	}
	out := make([]uint64, len(s))
	copy(out, s)
	return out
}

// WithdrawRoute directs a slice of a vesting withdrawal to another account,
// optionally converting that slice to vesting shares immediately.
type WithdrawRoute struct {
	ToAccount string
	PercentBp uint16 // basis points of the withdrawal, 0..10000
	AutoVest  bool
}

func (r WithdrawRoute) clone() WithdrawRoute { return r }

// Authority is a weighted-threshold multisig descriptor: satisfied when the
// sum of weights of the keys/accounts that signed meets Threshold.
type Authority struct {
	Threshold    uint32
	KeyWeights   map[string]uint32 // public key -> weight
	AccountAuths map[string]uint32 // account name -> weight (recursive)
}

func (a Authority) clone() Authority {
	out := Authority{Threshold: a.Threshold}
	if a.KeyWeights != nil {
		out.KeyWeights = make(map[string]uint32, len(a.KeyWeights))
		for k, v := range a.KeyWeights {
			out.KeyWeights[k] = v
		}
	}
	if a.AccountAuths != nil {
		out.AccountAuths = make(map[string]uint32, len(a.AccountAuths))
		for k, v := range a.AccountAuths {
			out.AccountAuths[k] = v
		}
	}
	return out
}

// Account is the primary identity/balance record. See spec §3.
type Account struct {
	id ID

	Name    string
	Owner   Authority
	Active  Authority
	Posting Authority
	Memo    string // memo public key

	Liquid  *big.Int // liquid base-asset balance
	Vesting *big.Int // staked balance, in vesting shares
	SBD     *big.Int // stablecoin balance
	Savings *big.Int
	SBDSavings *big.Int

	VestingWithdrawRate  *big.Int
	ToWithdraw           *big.Int
	Withdrawn            *big.Int
	NextVestingWithdraw  uint64 // unix seconds; max-uint64 sentinel when none scheduled
	WithdrawRoutes       []WithdrawRoute

	Proxy           string // "" means self
	ProxiedVSFBonus [4]*big.Int // vote weight proxied in from depth 0..3

	WitnessVotes   map[string]bool // set of witness names voted for
	RecoveryAccount string
	CanVote         bool
	LastOwnerUpdate uint64

	CreatedAt uint64
}

func (a *Account) GetID() ID  { return a.id }
func (a *Account) setID(id ID) { a.id = id }

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Owner = a.Owner.clone()
	c.Active = a.Active.clone()
	c.Posting = a.Posting.clone()
	c.Liquid = cloneBig(a.Liquid)
	c.Vesting = cloneBig(a.Vesting)
	c.SBD = cloneBig(a.SBD)
	c.Savings = cloneBig(a.Savings)
	c.SBDSavings = cloneBig(a.SBDSavings)
	c.VestingWithdrawRate = cloneBig(a.VestingWithdrawRate)
	c.ToWithdraw = cloneBig(a.ToWithdraw)
	c.Withdrawn = cloneBig(a.Withdrawn)
	if a.WithdrawRoutes != nil {
		c.WithdrawRoutes = append([]WithdrawRoute(nil), a.WithdrawRoutes...)
	}
	for i := range a.ProxiedVSFBonus {
		c.ProxiedVSFBonus[i] = cloneBig(a.ProxiedVSFBonus[i])
	}
	if a.WitnessVotes != nil {
		c.WitnessVotes = make(map[string]bool, len(a.WitnessVotes))
		for k, v := range a.WitnessVotes {
			c.WitnessVotes[k] = v
		}
	}
	return &c
}

// Comment is a post or reply. Author+Permlink is the natural key; ID is the
// stable numeric handle used by indexes and the parent pointer.
type Comment struct {
	id ID

	Author   string
	Permlink string

	ParentAuthor   string // "" for a root (top-level) post
	ParentPermlink string
	RootCommentID  ID

	NetRshares   *big.Int
	AbsRshares   *big.Int
	VoteRshares  *big.Int
	ChildrenRshares2 *big.Int

	Created     uint64
	CashoutTime uint64 // MaxCashoutTime sentinel once paid or excluded
	LastPayout  uint64

	Beneficiaries      []Beneficiary
	PercentSteemDollars uint16 // basis points, 0..10000 (spec's percent_steem_dollars)
	MaxAcceptedPayout  *big.Int
	AllowCuration      bool
	AllowVotes         bool

	Children       uint32
	RewardWeight   uint16 // basis points

	WasVoted bool // set once, prevents comment_options changes to payout terms
}

// MaxCashoutTime is the sentinel meaning "paid, or excluded from payout".
const MaxCashoutTime = ^uint64(0)

// Beneficiary is a comment-payout split recipient.
type Beneficiary struct {
	Account string
	Weight  uint16 // basis points
}

func (c *Comment) GetID() ID   { return c.id }
func (c *Comment) setID(id ID) { c.id = id }

func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cl := *c
	cl.NetRshares = cloneBig(c.NetRshares)
	cl.AbsRshares = cloneBig(c.AbsRshares)
	cl.VoteRshares = cloneBig(c.VoteRshares)
	cl.ChildrenRshares2 = cloneBig(c.ChildrenRshares2)
	cl.MaxAcceptedPayout = cloneBig(c.MaxAcceptedPayout)
	if c.Beneficiaries != nil {
		cl.Beneficiaries = append([]Beneficiary(nil), c.Beneficiaries...)
	}
	return &cl
}

// CommentVote is the (voter, comment) unique record backing curator payouts.
type CommentVote struct {
	id ID

	Voter      string
	CommentID  ID
	Weight     *big.Int // recorded curator weight contribution
	Rshares    *big.Int
	NumChanges uint32
	VoteTime   uint64
}

func (v *CommentVote) GetID() ID   { return v.id }
func (v *CommentVote) setID(id ID) { v.id = id }

func (v *CommentVote) Clone() *CommentVote {
	if v == nil {
		return nil
	}
	cl := *v
	cl.Weight = cloneBig(v.Weight)
	cl.Rshares = cloneBig(v.Rshares)
	return &cl
}

// ScheduleClass distinguishes how a witness earned its scheduled slot.
type ScheduleClass int

const (
	ScheduleClassTop ScheduleClass = iota
	ScheduleClassTimeshare
	ScheduleClassMiner
	ScheduleClassNone
)

// Witness is an elected block-producer record.
type Witness struct {
	id ID

	Owner            string
	SigningKey       string
	RunningVersion   [3]uint16 // major.minor.patch of the reported client
	HardforkVote     uint32
	HardforkTimeVote uint64

	Votes *big.Int // sum of backing vesting shares

	VirtualLastUpdate  *big.Rat
	VirtualPosition    *big.Rat
	VirtualSchedTime   *big.Rat

	TotalMissed         uint64
	LastConfirmedBlock  uint64
	LastAslot           uint64

	ScheduleClass ScheduleClass

	SBDExchangeRate    *big.Rat
	LastSBDExchangeUpdate uint64

	Props WitnessProps

	CreatedAt uint64
}

// WitnessProps are the chain properties a witness votes on; the scheduler
// takes the per-property median across the active schedule each round.
type WitnessProps struct {
	AccountCreationFee *big.Int
	MaxBlockSize       uint32
	SBDInterestRate    uint16 // basis points
}

func (w *Witness) GetID() ID   { return w.id }
func (w *Witness) setID(id ID) { w.id = id }

func (w *Witness) Clone() *Witness {
	if w == nil {
		return nil
	}
	cl := *w
	cl.Votes = cloneBig(w.Votes)
	if w.VirtualLastUpdate != nil {
		cl.VirtualLastUpdate = new(big.Rat).Set(w.VirtualLastUpdate)
	}
	if w.VirtualPosition != nil {
		cl.VirtualPosition = new(big.Rat).Set(w.VirtualPosition)
	}
	if w.VirtualSchedTime != nil {
		cl.VirtualSchedTime = new(big.Rat).Set(w.VirtualSchedTime)
	}
	if w.SBDExchangeRate != nil {
		cl.SBDExchangeRate = new(big.Rat).Set(w.SBDExchangeRate)
	}
	cl.Props.AccountCreationFee = cloneBig(w.Props.AccountCreationFee)
	return &cl
}

// WitnessSchedule is the singleton current round schedule.
type WitnessSchedule struct {
	id ID

	CurrentShuffledWitnesses []string
	NumScheduledWitnesses    uint8
	TopN                     uint8
	TimeshareN               uint8
	MinerN                   uint8

	WitnessPayNormalizationFactor uint32
	CurrentVirtualTime            *big.Rat

	MedianProps WitnessProps
}

func (s *WitnessSchedule) GetID() ID   { return s.id }
func (s *WitnessSchedule) setID(id ID) { s.id = id }

func (s *WitnessSchedule) Clone() *WitnessSchedule {
	if s == nil {
		return nil
	}
	cl := *s
	cl.CurrentShuffledWitnesses = append([]string(nil), s.CurrentShuffledWitnesses...)
	if s.CurrentVirtualTime != nil {
		cl.CurrentVirtualTime = new(big.Rat).Set(s.CurrentVirtualTime)
	}
	cl.MedianProps.AccountCreationFee = cloneBig(s.MedianProps.AccountCreationFee)
	return &cl
}

// DynamicGlobalProperties is the singleton head-of-chain summary record.
type DynamicGlobalProperties struct {
	id ID

	HeadBlockNumber uint64
	HeadBlockID     [20]byte
	Time            uint64

	CurrentWitness string
	CurrentAslot   uint64

	LastIrreversibleBlockNum uint64

	RecentSlotsFilled  *big.Int // 128-bit participation bitmap, kept in a big.Int
	ParticipationCount uint8

	CurrentSupply       *big.Int
	VirtualSupply        *big.Int
	CurrentSBDSupply     *big.Int
	SBDPrintRate         uint16 // basis points

	TotalVestingFundSteem *big.Int
	TotalVestingShares    *big.Int
	TotalRewardFundSteem  *big.Int

	CurrentReserveRatio uint32
	MaxVirtualBandwidth *big.Int
	AverageBlockSize    uint32
	MaximumBlockSize    uint32
}

func (d *DynamicGlobalProperties) GetID() ID   { return d.id }
func (d *DynamicGlobalProperties) setID(id ID) { d.id = id }

func (d *DynamicGlobalProperties) Clone() *DynamicGlobalProperties {
	if d == nil {
		return nil
	}
	cl := *d
	cl.RecentSlotsFilled = cloneBig(d.RecentSlotsFilled)
	cl.CurrentSupply = cloneBig(d.CurrentSupply)
	cl.VirtualSupply = cloneBig(d.VirtualSupply)
	cl.CurrentSBDSupply = cloneBig(d.CurrentSBDSupply)
	cl.TotalVestingFundSteem = cloneBig(d.TotalVestingFundSteem)
	cl.TotalVestingShares = cloneBig(d.TotalVestingShares)
	cl.TotalRewardFundSteem = cloneBig(d.TotalRewardFundSteem)
	cl.MaxVirtualBandwidth = cloneBig(d.MaxVirtualBandwidth)
	return &cl
}

// RewardFund is a named content-reward pool (e.g. "post", "comment").
type RewardFund struct {
	id ID

	Name                 string
	RewardBalance        *big.Int
	RecentClaims         *big.Int // decayed sum of calculate_vshares across pending posts
	PercentContentRewards uint16  // basis points of block inflation routed here
	ContentConstant      *big.Int
	LastUpdate           uint64
}

func (f *RewardFund) GetID() ID   { return f.id }
func (f *RewardFund) setID(id ID) { f.id = id }

func (f *RewardFund) Clone() *RewardFund {
	if f == nil {
		return nil
	}
	cl := *f
	cl.RewardBalance = cloneBig(f.RewardBalance)
	cl.RecentClaims = cloneBig(f.RecentClaims)
	cl.ContentConstant = cloneBig(f.ContentConstant)
	return &cl
}

// LimitOrder is a resting order in the exchange order book.
type LimitOrder struct {
	id ID

	Seller       string
	OrderID      uint32 // seller-scoped, for cancel lookups
	ForSaleAsset string
	ForSale      *big.Int // remaining amount for sale
	SellPrice    *big.Rat // receive-asset per for-sale-asset unit
	ReceiveAsset string
	Expiration   uint64
	DeferredFee  *big.Int
}

func (o *LimitOrder) GetID() ID   { return o.id }
func (o *LimitOrder) setID(id ID) { o.id = id }

func (o *LimitOrder) Clone() *LimitOrder {
	if o == nil {
		return nil
	}
	cl := *o
	cl.ForSale = cloneBig(o.ForSale)
	if o.SellPrice != nil {
		cl.SellPrice = new(big.Rat).Set(o.SellPrice)
	}
	cl.DeferredFee = cloneBig(o.DeferredFee)
	return &cl
}

// AmountToReceive computes for_sale * sell_price in the receive asset.
func (o *LimitOrder) AmountToReceive() *big.Rat {
	amt := new(big.Rat).SetInt(o.ForSale)
	return amt.Mul(amt, o.SellPrice)
}

// CallOrder is a borrower's collateralized debt position.
type CallOrder struct {
	id ID

	Borrower       string
	DebtAsset      string
	Debt           *big.Int
	CollateralAsset string
	Collateral     *big.Int
	CallPriceNum   *big.Int // call price num/den, in debt-per-unit-collateral terms: Debt*MCR/(Collateral*10000)
	CallPriceDen   *big.Int
}

func (c *CallOrder) GetID() ID   { return c.id }
func (c *CallOrder) setID(id ID) { c.id = id }

// CollateralRatio returns collateral/debt as a rational.
func (c *CallOrder) CollateralRatio() *big.Rat {
	if c.Debt == nil || c.Debt.Sign() == 0 {
		return new(big.Rat).SetInt64(0)
	}
	return new(big.Rat).SetFrac(c.Collateral, c.Debt)
}

// SetCallPrice recomputes CallPriceNum/CallPriceDen from the position's
// current Debt and Collateral at mcrBps (basis points), in the same
// debt-per-unit-collateral terms as AssetBitAssetData.CurrentFeed:
// call_price = Debt*MCR/(Collateral*10000). It is locked in whenever the
// position is opened or its Debt/Collateral change, and does not move
// again on its own as the feed does.
func (c *CallOrder) SetCallPrice(mcrBps uint16) {
	if c.Collateral == nil || c.Collateral.Sign() == 0 || c.Debt == nil {
		c.CallPriceNum, c.CallPriceDen = big.NewInt(0), big.NewInt(1)
		return
	}
	r := new(big.Rat).SetFrac(new(big.Int).Mul(c.Debt, big.NewInt(int64(mcrBps))), new(big.Int).Mul(c.Collateral, big.NewInt(10_000)))
	c.CallPriceNum, c.CallPriceDen = new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom())
}

// CallPrice returns the position's posted call price as a rational,
// zero if it was never set.
func (c *CallOrder) CallPrice() *big.Rat {
	if c.CallPriceDen == nil || c.CallPriceDen.Sign() == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(c.CallPriceNum, c.CallPriceDen)
}

func (c *CallOrder) Clone() *CallOrder {
	if c == nil {
		return nil
	}
	cl := *c
	cl.Debt = cloneBig(c.Debt)
	cl.Collateral = cloneBig(c.Collateral)
	cl.CallPriceNum = cloneBig(c.CallPriceNum)
	cl.CallPriceDen = cloneBig(c.CallPriceDen)
	return &cl
}

// ForceSettlement is a pending settle-at-feed-price request against a
// market-issued asset.
type ForceSettlement struct {
	id ID

	Owner        string
	SettlementID uint32
	Asset        string
	Balance      *big.Int
	Requested    uint64
}

func (s *ForceSettlement) GetID() ID   { return s.id }
func (s *ForceSettlement) setID(id ID) { s.id = id }

func (s *ForceSettlement) Clone() *ForceSettlement {
	if s == nil {
		return nil
	}
	cl := *s
	cl.Balance = cloneBig(s.Balance)
	return &cl
}

// AssetOptions holds the mutable per-asset policy flags.
type AssetOptions struct {
	MaxSupply        *big.Int
	MarketFeePercent uint16 // basis points
	MaxMarketFee     *big.Int
	Whitelist        map[string]bool // empty/nil == unrestricted
	IsPredictionMarket bool
}

func (o AssetOptions) clone() AssetOptions {
	out := o
	out.MaxSupply = cloneBig(o.MaxSupply)
	out.MaxMarketFee = cloneBig(o.MaxMarketFee)
	if o.Whitelist != nil {
		out.Whitelist = make(map[string]bool, len(o.Whitelist))
		for k, v := range o.Whitelist {
			out.Whitelist[k] = v
		}
	}
	return out
}

// Asset is the static definition of a token symbol.
type Asset struct {
	id ID

	Symbol        string
	Issuer        string
	Precision     uint8
	Options       AssetOptions
	IsMarketIssued bool
	BackingAsset  string // only for market-issued assets
}

func (a *Asset) GetID() ID   { return a.id }
func (a *Asset) setID(id ID) { a.id = id }

func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	cl := *a
	cl.Options = a.Options.clone()
	return &cl
}

// AssetDynamicData tracks live supply/fee counters for an asset.
type AssetDynamicData struct {
	id ID

	Asset          string
	CurrentSupply  *big.Int
	AccumulatedFees *big.Int
	FeePool        *big.Int
}

func (d *AssetDynamicData) GetID() ID   { return d.id }
func (d *AssetDynamicData) setID(id ID) { d.id = id }

func (d *AssetDynamicData) Clone() *AssetDynamicData {
	if d == nil {
		return nil
	}
	cl := *d
	cl.CurrentSupply = cloneBig(d.CurrentSupply)
	cl.AccumulatedFees = cloneBig(d.AccumulatedFees)
	cl.FeePool = cloneBig(d.FeePool)
	return &cl
}

// AssetBitAssetData carries the market-issued-asset-only fields: feed,
// MCR, and (once triggered) global-settlement state.
type AssetBitAssetData struct {
	id ID

	Asset               string
	FeedProducers       map[string]bool
	Feeds               map[string]*big.Rat // producer -> submitted price
	CurrentFeed         *big.Rat            // median of Feeds
	CurrentFeedPublished uint64
	MaintenanceCollateralRatio uint16 // basis points, e.g. 17500 == 175%
	MaxShortSqueezeRatio       uint16

	HasSettlement    bool
	SettlementPrice  *big.Rat
	SettlementFund   *big.Int
	IsPredictionMarket bool
}

func (b *AssetBitAssetData) GetID() ID   { return b.id }
func (b *AssetBitAssetData) setID(id ID) { b.id = id }

func (b *AssetBitAssetData) Clone() *AssetBitAssetData {
	if b == nil {
		return nil
	}
	cl := *b
	if b.FeedProducers != nil {
		cl.FeedProducers = make(map[string]bool, len(b.FeedProducers))
		for k, v := range b.FeedProducers {
			cl.FeedProducers[k] = v
		}
	}
	if b.Feeds != nil {
		cl.Feeds = make(map[string]*big.Rat, len(b.Feeds))
		for k, v := range b.Feeds {
			cl.Feeds[k] = new(big.Rat).Set(v)
		}
	}
	if b.CurrentFeed != nil {
		cl.CurrentFeed = new(big.Rat).Set(b.CurrentFeed)
	}
	if b.SettlementPrice != nil {
		cl.SettlementPrice = new(big.Rat).Set(b.SettlementPrice)
	}
	cl.SettlementFund = cloneBig(b.SettlementFund)
	return &cl
}

// BlockSummary is one slot of the 2^16-entry TaPoS ring buffer.
type BlockSummary struct {
	id ID

	Slot    uint16
	BlockID [20]byte
}

func (s *BlockSummary) GetID() ID   { return s.id }
func (s *BlockSummary) setID(id ID) { s.id = id }

func (s *BlockSummary) Clone() *BlockSummary {
	if s == nil {
		return nil
	}
	cl := *s
	return &cl
}

// HardforkProperties is the singleton hardfork-progress record.
type HardforkProperties struct {
	id ID

	ProcessedHardforks []uint64 // activation timestamp per applied hardfork
	LastHardfork       uint32
	CurrentHardforkVersion [3]uint16
	NextHardforkTime    uint64
}

func (h *HardforkProperties) GetID() ID   { return h.id }
func (h *HardforkProperties) setID(id ID) { h.id = id }

func (h *HardforkProperties) Clone() *HardforkProperties {
	if h == nil {
		return nil
	}
	cl := *h
	cl.ProcessedHardforks = cloneUint64Slice(h.ProcessedHardforks)
	return &cl
}

// BandwidthClass distinguishes forum vs market bandwidth pools (and their
// pre-hardfork "old" variants, kept only long enough to expire).
type BandwidthClass uint8

const (
	BandwidthForum BandwidthClass = iota
	BandwidthMarket
	BandwidthOldForum
	BandwidthOldMarket
)

// AccountBandwidth is a per-(account, class) rolling EWMA record.
type AccountBandwidth struct {
	id ID

	Account    string
	Class      BandwidthClass
	Average    *big.Int
	LastUpdate uint64
}

func (b *AccountBandwidth) GetID() ID   { return b.id }
func (b *AccountBandwidth) setID(id ID) { b.id = id }

// Escrow is a three-party (from, to, agent) conditional transfer, generalized
// from a bilateral buyer/seller hold: release requires either both non-agent
// parties to approve, or the agent to arbitrate once a dispute is raised.
type Escrow struct {
	id ID

	From     string
	To       string
	Agent    string
	EscrowID uint32

	Asset  string
	Amount *big.Int
	Fee    *big.Int

	RatificationDeadline uint64
	Expiration           uint64

	ToApproved    bool
	AgentApproved bool
	Disputed      bool

	JSONMeta string
}

func (e *Escrow) GetID() ID   { return e.id }
func (e *Escrow) setID(id ID) { e.id = id }

func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	cl := *e
	cl.Amount = cloneBig(e.Amount)
	cl.Fee = cloneBig(e.Fee)
	return &cl
}

// SavingsWithdrawRequest is a pending, delayed transfer_from_savings request.
type SavingsWithdrawRequest struct {
	id ID

	From      string
	RequestID uint32
	To        string
	Amount    *big.Int
	Asset     string
	Memo      string
	Complete  uint64 // unix seconds when the withdrawal becomes payable
}

func (s *SavingsWithdrawRequest) GetID() ID   { return s.id }
func (s *SavingsWithdrawRequest) setID(id ID) { s.id = id }

func (s *SavingsWithdrawRequest) Clone() *SavingsWithdrawRequest {
	if s == nil {
		return nil
	}
	cl := *s
	cl.Amount = cloneBig(s.Amount)
	return &cl
}

// ConvertRequest is a pending SBD->STEEM conversion opened by convert. The
// STEEM side is minted up front at the feed price prevailing at request
// time and held here until ConversionDate, when the housekeeping sweep
// transfers it to Owner; the mint already happened, so maturity is a pure
// balance move with no further supply change.
type ConvertRequest struct {
	id ID

	Owner          string
	RequestID      uint32
	Amount         *big.Int
	ConversionDate uint64
}

func (r *ConvertRequest) GetID() ID   { return r.id }
func (r *ConvertRequest) setID(id ID) { r.id = id }

func (r *ConvertRequest) Clone() *ConvertRequest {
	if r == nil {
		return nil
	}
	cl := *r
	cl.Amount = cloneBig(r.Amount)
	return &cl
}

// MarketMakerVolume tracks an account's exponentially-decayed base-asset
// trade volume, the score the liquidity reward ranks accounts by.
// LastUpdate is the timestamp Volume was last decayed to, so the sweep can
// compute how much time-based decay to apply before adding freshly matched
// volume or comparing standings.
type MarketMakerVolume struct {
	id ID

	Owner      string
	Volume     *big.Int
	LastUpdate uint64
}

func (v *MarketMakerVolume) GetID() ID   { return v.id }
func (v *MarketMakerVolume) setID(id ID) { v.id = id }

func (v *MarketMakerVolume) Clone() *MarketMakerVolume {
	if v == nil {
		return nil
	}
	cl := *v
	cl.Volume = cloneBig(v.Volume)
	return &cl
}

func (b *AccountBandwidth) Clone() *AccountBandwidth {
	if b == nil {
		return nil
	}
	cl := *b
	cl.Average = cloneBig(b.Average)
	return &cl
}
