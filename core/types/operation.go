package types

import "math/big"

// OpTag identifies an operation variant for dispatch through the evaluator
// registry (see core/evaluator). Values are stable across hardforks; new
// operations are always appended.
type OpTag byte

const (
	OpVote OpTag = iota
	OpComment
	OpCommentOptions
	OpDeleteComment
	OpTransfer
	OpTransferToVesting
	OpWithdrawVesting
	OpSetWithdrawVestingRoute
	OpAccountCreate
	OpAccountCreateWithDelegation
	OpAccountUpdate
	OpWitnessUpdate
	OpAccountWitnessVote
	OpAccountWitnessProxy
	OpCustom
	OpCustomBinary
	OpCustomJSON
	OpPow
	OpPow2
	OpReportOverProduction
	OpFeedPublish
	OpConvert
	OpLimitOrderCreate
	OpLimitOrderCreate2
	OpLimitOrderCancel
	OpChallengeAuthority
	OpProveAuthority
	OpRequestAccountRecovery
	OpRecoverAccount
	OpChangeRecoveryAccount
	OpEscrowTransfer
	OpEscrowApprove
	OpEscrowDispute
	OpEscrowRelease
	OpTransferToSavings
	OpTransferFromSavings
	OpCancelTransferFromSavings
	OpDeclineVotingRights
	OpResetAccount
	OpSetResetAccount
	OpDelegateVestingShares
	OpAssetCreate
	OpAssetIssue
	OpAssetReserve
	OpAssetUpdate
	OpAssetUpdateBitasset
	OpAssetUpdateFeedProducers
	OpAssetFundFeePool
	OpAssetGlobalSettle
	OpAssetSettle
	OpAssetForceSettle
	OpAssetPublishFeeds
	OpAssetClaimFees
	OpCallOrderUpdate

	opTagCount
)

// Operation is implemented by every transaction payload variant. Required*
// report which account names must contribute a signature at that
// authority level or above for the transaction to validate; the chain
// controller resolves those names through the weighted-threshold
// authority graph (see core/evaluator/authority.go).
type Operation interface {
	OpType() OpTag
	RequiredPosting() []string
	RequiredActive() []string
	RequiredOwner() []string
}

type baseAuth struct{}

func (baseAuth) RequiredOwner() []string { return nil }

// --- content / voting ---

type VoteOp struct {
	Voter    string
	Author   string
	Permlink string
	Weight   int16 // -10000..10000
}

func (VoteOp) OpType() OpTag                { return OpVote }
func (o VoteOp) RequiredPosting() []string  { return []string{o.Voter} }
func (VoteOp) RequiredActive() []string     { return nil }
func (VoteOp) RequiredOwner() []string      { return nil }

type CommentOp struct {
	ParentAuthor   string
	ParentPermlink string
	Author         string
	Permlink       string
	Title          string
	Body           string
	JSONMetadata   string
}

func (CommentOp) OpType() OpTag               { return OpComment }
func (o CommentOp) RequiredPosting() []string { return []string{o.Author} }
func (CommentOp) RequiredActive() []string    { return nil }
func (CommentOp) RequiredOwner() []string     { return nil }

type CommentOptionsOp struct {
	Author              string
	Permlink            string
	MaxAcceptedPayout   *big.Int
	PercentSteemDollars uint16
	AllowVotes          bool
	AllowCuration       bool
	Beneficiaries       []Beneficiary
}

// Beneficiary mirrors objectstore.Beneficiary at the wire layer to avoid a
// dependency from types on objectstore.
type Beneficiary struct {
	Account string
	Weight  uint16
}

func (CommentOptionsOp) OpType() OpTag               { return OpCommentOptions }
func (o CommentOptionsOp) RequiredPosting() []string { return []string{o.Author} }
func (CommentOptionsOp) RequiredActive() []string    { return nil }
func (CommentOptionsOp) RequiredOwner() []string     { return nil }

type DeleteCommentOp struct {
	Author   string
	Permlink string
}

func (DeleteCommentOp) OpType() OpTag               { return OpDeleteComment }
func (o DeleteCommentOp) RequiredPosting() []string { return []string{o.Author} }
func (DeleteCommentOp) RequiredActive() []string    { return nil }
func (DeleteCommentOp) RequiredOwner() []string     { return nil }

// --- transfers / vesting ---

type TransferOp struct {
	From   string
	To     string
	Amount *big.Int
	Asset  string
	Memo   string
}

func (TransferOp) OpType() OpTag             { return OpTransfer }
func (TransferOp) RequiredPosting() []string { return nil }
func (o TransferOp) RequiredActive() []string { return []string{o.From} }
func (TransferOp) RequiredOwner() []string   { return nil }

type TransferToVestingOp struct {
	From   string
	To     string
	Amount *big.Int
}

func (TransferToVestingOp) OpType() OpTag              { return OpTransferToVesting }
func (TransferToVestingOp) RequiredPosting() []string  { return nil }
func (o TransferToVestingOp) RequiredActive() []string { return []string{o.From} }
func (TransferToVestingOp) RequiredOwner() []string    { return nil }

type WithdrawVestingOp struct {
	Account       string
	VestingShares *big.Int
}

func (WithdrawVestingOp) OpType() OpTag              { return OpWithdrawVesting }
func (WithdrawVestingOp) RequiredPosting() []string  { return nil }
func (o WithdrawVestingOp) RequiredActive() []string { return []string{o.Account} }
func (WithdrawVestingOp) RequiredOwner() []string    { return nil }

type SetWithdrawVestingRouteOp struct {
	FromAccount string
	ToAccount   string
	PercentBp   uint16
	AutoVest    bool
}

func (SetWithdrawVestingRouteOp) OpType() OpTag              { return OpSetWithdrawVestingRoute }
func (SetWithdrawVestingRouteOp) RequiredPosting() []string  { return nil }
func (o SetWithdrawVestingRouteOp) RequiredActive() []string { return []string{o.FromAccount} }
func (SetWithdrawVestingRouteOp) RequiredOwner() []string    { return nil }

type DelegateVestingSharesOp struct {
	Delegator     string
	Delegatee     string
	VestingShares *big.Int
}

func (DelegateVestingSharesOp) OpType() OpTag              { return OpDelegateVestingShares }
func (DelegateVestingSharesOp) RequiredPosting() []string  { return nil }
func (o DelegateVestingSharesOp) RequiredActive() []string { return []string{o.Delegator} }
func (DelegateVestingSharesOp) RequiredOwner() []string    { return nil }

// --- account management ---

type AuthorityWire struct {
	Threshold    uint32
	KeyWeights   map[string]uint32
	AccountAuths map[string]uint32
}

type AccountCreateOp struct {
	Fee            *big.Int
	Creator        string
	NewAccountName string
	Owner          AuthorityWire
	Active         AuthorityWire
	Posting        AuthorityWire
	MemoKey        string
}

func (AccountCreateOp) OpType() OpTag              { return OpAccountCreate }
func (AccountCreateOp) RequiredPosting() []string  { return nil }
func (o AccountCreateOp) RequiredActive() []string { return []string{o.Creator} }
func (AccountCreateOp) RequiredOwner() []string    { return nil }

type AccountCreateWithDelegationOp struct {
	AccountCreateOp
	Delegation *big.Int
}

func (AccountCreateWithDelegationOp) OpType() OpTag { return OpAccountCreateWithDelegation }

type AccountUpdateOp struct {
	Account string
	Owner   *AuthorityWire
	Active  *AuthorityWire
	Posting *AuthorityWire
	MemoKey string
}

func (AccountUpdateOp) OpType() OpTag              { return OpAccountUpdate }
func (AccountUpdateOp) RequiredPosting() []string  { return nil }
func (o AccountUpdateOp) RequiredActive() []string { return []string{o.Account} }
func (o AccountUpdateOp) RequiredOwner() []string {
	if o.Owner != nil {
		return []string{o.Account}
	}
	return nil
}

type RequestAccountRecoveryOp struct {
	RecoveryAccount string
	AccountToRecover string
	NewOwnerAuthority AuthorityWire
}

func (RequestAccountRecoveryOp) OpType() OpTag              { return OpRequestAccountRecovery }
func (RequestAccountRecoveryOp) RequiredPosting() []string  { return nil }
func (o RequestAccountRecoveryOp) RequiredActive() []string { return []string{o.RecoveryAccount} }
func (RequestAccountRecoveryOp) RequiredOwner() []string    { return nil }

type RecoverAccountOp struct {
	AccountToRecover  string
	NewOwnerAuthority AuthorityWire
	RecentOwnerAuthority AuthorityWire
}

func (RecoverAccountOp) OpType() OpTag             { return OpRecoverAccount }
func (RecoverAccountOp) RequiredPosting() []string { return nil }
func (RecoverAccountOp) RequiredActive() []string  { return nil }
func (o RecoverAccountOp) RequiredOwner() []string { return []string{o.AccountToRecover} }

type ChangeRecoveryAccountOp struct {
	AccountToRecover  string
	NewRecoveryAccount string
}

func (ChangeRecoveryAccountOp) OpType() OpTag             { return OpChangeRecoveryAccount }
func (ChangeRecoveryAccountOp) RequiredPosting() []string { return nil }
func (ChangeRecoveryAccountOp) RequiredActive() []string  { return nil }
func (o ChangeRecoveryAccountOp) RequiredOwner() []string { return []string{o.AccountToRecover} }

type DeclineVotingRightsOp struct {
	Account string
	Decline bool
}

func (DeclineVotingRightsOp) OpType() OpTag              { return OpDeclineVotingRights }
func (DeclineVotingRightsOp) RequiredPosting() []string  { return nil }
func (o DeclineVotingRightsOp) RequiredActive() []string { return nil }
func (o DeclineVotingRightsOp) RequiredOwner() []string  { return []string{o.Account} }

type ResetAccountOp struct {
	ResetAccount    string
	AccountToReset  string
	NewOwnerAuthority AuthorityWire
}

func (ResetAccountOp) OpType() OpTag              { return OpResetAccount }
func (ResetAccountOp) RequiredPosting() []string  { return nil }
func (o ResetAccountOp) RequiredActive() []string { return []string{o.ResetAccount} }
func (ResetAccountOp) RequiredOwner() []string    { return nil }

type SetResetAccountOp struct {
	Account         string
	CurrentResetAccount string
	ResetAccount    string
}

func (SetResetAccountOp) OpType() OpTag              { return OpSetResetAccount }
func (SetResetAccountOp) RequiredPosting() []string  { return nil }
func (o SetResetAccountOp) RequiredActive() []string { return []string{o.Account} }
func (SetResetAccountOp) RequiredOwner() []string    { return nil }

// --- witnesses ---

type WitnessUpdateOp struct {
	Owner              string
	URL                string
	SigningKey         string
	AccountCreationFee *big.Int
	MaxBlockSize       uint32
	SBDInterestRate    uint16
}

func (WitnessUpdateOp) OpType() OpTag              { return OpWitnessUpdate }
func (WitnessUpdateOp) RequiredPosting() []string  { return nil }
func (o WitnessUpdateOp) RequiredActive() []string { return []string{o.Owner} }
func (WitnessUpdateOp) RequiredOwner() []string    { return nil }

type AccountWitnessVoteOp struct {
	Account string
	Witness string
	Approve bool
}

func (AccountWitnessVoteOp) OpType() OpTag              { return OpAccountWitnessVote }
func (AccountWitnessVoteOp) RequiredPosting() []string  { return nil }
func (o AccountWitnessVoteOp) RequiredActive() []string { return []string{o.Account} }
func (AccountWitnessVoteOp) RequiredOwner() []string    { return nil }

type AccountWitnessProxyOp struct {
	Account string
	Proxy   string // "" clears the proxy
}

func (AccountWitnessProxyOp) OpType() OpTag              { return OpAccountWitnessProxy }
func (AccountWitnessProxyOp) RequiredPosting() []string  { return nil }
func (o AccountWitnessProxyOp) RequiredActive() []string { return []string{o.Account} }
func (AccountWitnessProxyOp) RequiredOwner() []string    { return nil }

type ReportOverProductionOp struct {
	Reporter        string
	FirstBlock      *Header
	SecondBlock     *Header
}

func (ReportOverProductionOp) OpType() OpTag              { return OpReportOverProduction }
func (ReportOverProductionOp) RequiredPosting() []string  { return nil }
func (o ReportOverProductionOp) RequiredActive() []string { return []string{o.Reporter} }
func (ReportOverProductionOp) RequiredOwner() []string    { return nil }

type ChallengeAuthorityOp struct {
	Challenger string
	Challenged string
	RequireOwner bool
}

func (ChallengeAuthorityOp) OpType() OpTag              { return OpChallengeAuthority }
func (ChallengeAuthorityOp) RequiredPosting() []string  { return nil }
func (o ChallengeAuthorityOp) RequiredActive() []string { return []string{o.Challenger} }
func (ChallengeAuthorityOp) RequiredOwner() []string    { return nil }

type ProveAuthorityOp struct {
	Challenged   string
	RequireOwner bool
}

func (ProveAuthorityOp) OpType() OpTag             { return OpProveAuthority }
func (ProveAuthorityOp) RequiredPosting() []string { return nil }
func (o ProveAuthorityOp) RequiredActive() []string {
	if o.RequireOwner {
		return nil
	}
	return []string{o.Challenged}
}
func (o ProveAuthorityOp) RequiredOwner() []string {
	if o.RequireOwner {
		return []string{o.Challenged}
	}
	return nil
}

// --- custom / pow (deprecated but must still dispatch cleanly) ---

type CustomOp struct {
	RequiredAuths []string
	ID            uint16
	Data          []byte
}

func (CustomOp) OpType() OpTag                { return OpCustom }
func (CustomOp) RequiredPosting() []string    { return nil }
func (o CustomOp) RequiredActive() []string   { return o.RequiredAuths }
func (CustomOp) RequiredOwner() []string      { return nil }

type CustomJSONOp struct {
	RequiredAuths        []string
	RequiredPostingAuths []string
	ID                   string
	JSON                 string
}

func (CustomJSONOp) OpType() OpTag              { return OpCustomJSON }
func (o CustomJSONOp) RequiredPosting() []string { return o.RequiredPostingAuths }
func (o CustomJSONOp) RequiredActive() []string  { return o.RequiredAuths }
func (CustomJSONOp) RequiredOwner() []string     { return nil }

type CustomBinaryOp struct {
	RequiredOwnerAuths   []string
	RequiredActiveAuths  []string
	RequiredPostingAuths []string
	ID                   string
	Data                 []byte
}

func (CustomBinaryOp) OpType() OpTag               { return OpCustomBinary }
func (o CustomBinaryOp) RequiredPosting() []string { return o.RequiredPostingAuths }
func (o CustomBinaryOp) RequiredActive() []string  { return o.RequiredActiveAuths }
func (o CustomBinaryOp) RequiredOwner() []string   { return o.RequiredOwnerAuths }

// PowOp and Pow2Op are accepted for wire compatibility with older
// transaction batches but are no-ops at evaluation time: this chain has no
// mining-based witness class enabled (see core/witness).
type PowOp struct {
	WorkerAccount string
}

func (PowOp) OpType() OpTag              { return OpPow }
func (PowOp) RequiredPosting() []string  { return nil }
func (o PowOp) RequiredActive() []string { return []string{o.WorkerAccount} }
func (PowOp) RequiredOwner() []string    { return nil }

type Pow2Op struct {
	WorkerAccount string
}

func (Pow2Op) OpType() OpTag              { return OpPow2 }
func (Pow2Op) RequiredPosting() []string  { return nil }
func (o Pow2Op) RequiredActive() []string { return []string{o.WorkerAccount} }
func (Pow2Op) RequiredOwner() []string    { return nil }

// --- market / feed ---

type FeedPublishOp struct {
	Publisher   string
	ExchangeRate *big.Rat // SBD per STEEM
}

func (FeedPublishOp) OpType() OpTag              { return OpFeedPublish }
func (FeedPublishOp) RequiredPosting() []string  { return nil }
func (o FeedPublishOp) RequiredActive() []string { return []string{o.Publisher} }
func (FeedPublishOp) RequiredOwner() []string    { return nil }

type ConvertOp struct {
	Owner    string
	RequestID uint32
	Amount   *big.Int
	Asset    string // must be SBD
}

func (ConvertOp) OpType() OpTag              { return OpConvert }
func (ConvertOp) RequiredPosting() []string  { return nil }
func (o ConvertOp) RequiredActive() []string { return []string{o.Owner} }
func (ConvertOp) RequiredOwner() []string    { return nil }

type LimitOrderCreateOp struct {
	Owner        string
	OrderID      uint32
	AmountToSell *big.Int
	SellAsset    string
	MinToReceive *big.Int
	ReceiveAsset string
	FillOrKill   bool
	Expiration   uint64
}

func (LimitOrderCreateOp) OpType() OpTag              { return OpLimitOrderCreate }
func (LimitOrderCreateOp) RequiredPosting() []string  { return nil }
func (o LimitOrderCreateOp) RequiredActive() []string { return []string{o.Owner} }
func (LimitOrderCreateOp) RequiredOwner() []string    { return nil }

// LimitOrderCreate2Op expresses the same intent as LimitOrderCreateOp but
// via an explicit price rather than a min-to-receive amount.
type LimitOrderCreate2Op struct {
	Owner        string
	OrderID      uint32
	AmountToSell *big.Int
	SellAsset    string
	ReceiveAsset string
	PriceNum     *big.Int
	PriceDen     *big.Int
	FillOrKill   bool
	Expiration   uint64
}

func (LimitOrderCreate2Op) OpType() OpTag              { return OpLimitOrderCreate2 }
func (LimitOrderCreate2Op) RequiredPosting() []string  { return nil }
func (o LimitOrderCreate2Op) RequiredActive() []string { return []string{o.Owner} }
func (LimitOrderCreate2Op) RequiredOwner() []string    { return nil }

type LimitOrderCancelOp struct {
	Owner   string
	OrderID uint32
}

func (LimitOrderCancelOp) OpType() OpTag              { return OpLimitOrderCancel }
func (LimitOrderCancelOp) RequiredPosting() []string  { return nil }
func (o LimitOrderCancelOp) RequiredActive() []string { return []string{o.Owner} }
func (LimitOrderCancelOp) RequiredOwner() []string    { return nil }

type CallOrderUpdateOp struct {
	Borrower         string
	DeltaCollateral  *big.Int
	CollateralAsset  string
	DeltaDebt        *big.Int
	DebtAsset        string
}

func (CallOrderUpdateOp) OpType() OpTag              { return OpCallOrderUpdate }
func (CallOrderUpdateOp) RequiredPosting() []string  { return nil }
func (o CallOrderUpdateOp) RequiredActive() []string { return []string{o.Borrower} }
func (CallOrderUpdateOp) RequiredOwner() []string    { return nil }

// --- escrow ---

type EscrowTransferOp struct {
	From                string
	To                  string
	Agent               string
	EscrowID            uint32
	Amount              *big.Int
	Asset               string
	Fee                 *big.Int
	RatificationDeadline uint64
	EscrowExpiration    uint64
	JSONMeta            string
}

func (EscrowTransferOp) OpType() OpTag              { return OpEscrowTransfer }
func (EscrowTransferOp) RequiredPosting() []string  { return nil }
func (o EscrowTransferOp) RequiredActive() []string { return []string{o.From} }
func (EscrowTransferOp) RequiredOwner() []string    { return nil }

type EscrowApproveOp struct {
	From     string
	To       string
	Agent    string
	Who      string // "to" or "agent"
	EscrowID uint32
	Approve  bool
}

func (EscrowApproveOp) OpType() OpTag              { return OpEscrowApprove }
func (EscrowApproveOp) RequiredPosting() []string  { return nil }
func (o EscrowApproveOp) RequiredActive() []string { return []string{o.Who} }
func (EscrowApproveOp) RequiredOwner() []string    { return nil }

type EscrowDisputeOp struct {
	From     string
	To       string
	Agent    string
	Who      string
	EscrowID uint32
}

func (EscrowDisputeOp) OpType() OpTag              { return OpEscrowDispute }
func (EscrowDisputeOp) RequiredPosting() []string  { return nil }
func (o EscrowDisputeOp) RequiredActive() []string { return []string{o.Who} }
func (EscrowDisputeOp) RequiredOwner() []string    { return nil }

type EscrowReleaseOp struct {
	From      string
	To        string
	Agent     string
	Who       string
	Receiver  string
	EscrowID  uint32
	Amount    *big.Int
	Asset     string
}

func (EscrowReleaseOp) OpType() OpTag              { return OpEscrowRelease }
func (EscrowReleaseOp) RequiredPosting() []string  { return nil }
func (o EscrowReleaseOp) RequiredActive() []string { return []string{o.Who} }
func (EscrowReleaseOp) RequiredOwner() []string    { return nil }

// --- savings ---

type TransferToSavingsOp struct {
	From     string
	To       string
	Amount   *big.Int
	Asset    string
	Memo     string
}

func (TransferToSavingsOp) OpType() OpTag              { return OpTransferToSavings }
func (TransferToSavingsOp) RequiredPosting() []string  { return nil }
func (o TransferToSavingsOp) RequiredActive() []string { return []string{o.From} }
func (TransferToSavingsOp) RequiredOwner() []string    { return nil }

type TransferFromSavingsOp struct {
	From      string
	RequestID uint32
	To        string
	Amount    *big.Int
	Asset     string
	Memo      string
}

func (TransferFromSavingsOp) OpType() OpTag              { return OpTransferFromSavings }
func (TransferFromSavingsOp) RequiredPosting() []string  { return nil }
func (o TransferFromSavingsOp) RequiredActive() []string { return []string{o.From} }
func (TransferFromSavingsOp) RequiredOwner() []string    { return nil }

type CancelTransferFromSavingsOp struct {
	From      string
	RequestID uint32
}

func (CancelTransferFromSavingsOp) OpType() OpTag              { return OpCancelTransferFromSavings }
func (CancelTransferFromSavingsOp) RequiredPosting() []string  { return nil }
func (o CancelTransferFromSavingsOp) RequiredActive() []string { return []string{o.From} }
func (CancelTransferFromSavingsOp) RequiredOwner() []string    { return nil }

// --- assets ---

type AssetOptionsWire struct {
	MaxSupply          *big.Int
	MarketFeePercent   uint16
	MaxMarketFee       *big.Int
	Whitelist          []string
	IsPredictionMarket bool
}

type AssetCreateOp struct {
	Issuer         string
	Symbol         string
	Precision      uint8
	Options        AssetOptionsWire
	IsMarketIssued bool
	BackingAsset   string
	MCRBp          uint16
	MSSRBp         uint16
}

func (AssetCreateOp) OpType() OpTag              { return OpAssetCreate }
func (AssetCreateOp) RequiredPosting() []string  { return nil }
func (o AssetCreateOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetCreateOp) RequiredOwner() []string    { return nil }

type AssetIssueOp struct {
	Issuer     string
	Asset      string
	Amount     *big.Int
	IssueTo    string
	Memo       string
}

func (AssetIssueOp) OpType() OpTag              { return OpAssetIssue }
func (AssetIssueOp) RequiredPosting() []string  { return nil }
func (o AssetIssueOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetIssueOp) RequiredOwner() []string    { return nil }

type AssetReserveOp struct {
	Payer  string
	Asset  string
	Amount *big.Int
}

func (AssetReserveOp) OpType() OpTag              { return OpAssetReserve }
func (AssetReserveOp) RequiredPosting() []string  { return nil }
func (o AssetReserveOp) RequiredActive() []string { return []string{o.Payer} }
func (AssetReserveOp) RequiredOwner() []string    { return nil }

type AssetUpdateOp struct {
	Issuer     string
	Asset      string
	NewIssuer  string
	Options    AssetOptionsWire
}

func (AssetUpdateOp) OpType() OpTag              { return OpAssetUpdate }
func (AssetUpdateOp) RequiredPosting() []string  { return nil }
func (o AssetUpdateOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetUpdateOp) RequiredOwner() []string    { return nil }

type AssetUpdateBitassetOp struct {
	Issuer      string
	Asset       string
	MCRBp       uint16
	MSSRBp      uint16
}

func (AssetUpdateBitassetOp) OpType() OpTag              { return OpAssetUpdateBitasset }
func (AssetUpdateBitassetOp) RequiredPosting() []string  { return nil }
func (o AssetUpdateBitassetOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetUpdateBitassetOp) RequiredOwner() []string    { return nil }

type AssetUpdateFeedProducersOp struct {
	Issuer         string
	Asset          string
	FeedProducers  []string
}

func (AssetUpdateFeedProducersOp) OpType() OpTag              { return OpAssetUpdateFeedProducers }
func (AssetUpdateFeedProducersOp) RequiredPosting() []string  { return nil }
func (o AssetUpdateFeedProducersOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetUpdateFeedProducersOp) RequiredOwner() []string    { return nil }

type AssetFundFeePoolOp struct {
	Payer  string
	Asset  string
	Amount *big.Int
}

func (AssetFundFeePoolOp) OpType() OpTag              { return OpAssetFundFeePool }
func (AssetFundFeePoolOp) RequiredPosting() []string  { return nil }
func (o AssetFundFeePoolOp) RequiredActive() []string { return []string{o.Payer} }
func (AssetFundFeePoolOp) RequiredOwner() []string    { return nil }

type AssetGlobalSettleOp struct {
	Issuer         string
	Asset          string
	SettlePriceNum *big.Int
	SettlePriceDen *big.Int
}

func (AssetGlobalSettleOp) OpType() OpTag              { return OpAssetGlobalSettle }
func (AssetGlobalSettleOp) RequiredPosting() []string  { return nil }
func (o AssetGlobalSettleOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetGlobalSettleOp) RequiredOwner() []string    { return nil }

type AssetSettleOp struct {
	Account string
	Asset   string
	Amount  *big.Int
}

func (AssetSettleOp) OpType() OpTag              { return OpAssetSettle }
func (AssetSettleOp) RequiredPosting() []string  { return nil }
func (o AssetSettleOp) RequiredActive() []string { return []string{o.Account} }
func (AssetSettleOp) RequiredOwner() []string    { return nil }

type AssetForceSettleOp struct {
	Account string
	Asset   string
	Amount  *big.Int
}

func (AssetForceSettleOp) OpType() OpTag              { return OpAssetForceSettle }
func (AssetForceSettleOp) RequiredPosting() []string  { return nil }
func (o AssetForceSettleOp) RequiredActive() []string { return []string{o.Account} }
func (AssetForceSettleOp) RequiredOwner() []string    { return nil }

type AssetPublishFeedsOp struct {
	Publisher string
	Asset     string
	FeedNum   *big.Int
	FeedDen   *big.Int
}

func (AssetPublishFeedsOp) OpType() OpTag              { return OpAssetPublishFeeds }
func (AssetPublishFeedsOp) RequiredPosting() []string  { return nil }
func (o AssetPublishFeedsOp) RequiredActive() []string { return []string{o.Publisher} }
func (AssetPublishFeedsOp) RequiredOwner() []string    { return nil }

type AssetClaimFeesOp struct {
	Issuer string
	Asset  string
	Amount *big.Int
}

func (AssetClaimFeesOp) OpType() OpTag              { return OpAssetClaimFees }
func (AssetClaimFeesOp) RequiredPosting() []string  { return nil }
func (o AssetClaimFeesOp) RequiredActive() []string { return []string{o.Issuer} }
func (AssetClaimFeesOp) RequiredOwner() []string    { return nil }
