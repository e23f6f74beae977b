package types

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// opEnvelope is the wire encoding of a single tagged operation: enough to
// round-trip through JSON without teaching the codec about every concrete
// Operation type via reflection-heavy interface (de)serialization.
type opEnvelope struct {
	Tag     OpTag
	Payload json.RawMessage
}

// Transaction binds an ordered operation list to a TaPoS reference and an
// expiration, and carries one signature per required authority.
type Transaction struct {
	RefBlockNum    uint16 // low 16 bits of a recent block number
	RefBlockPrefix uint32 // second 32 bits of that block's id
	Expiration     uint64
	Operations     []Operation
	Signatures     [][]byte // 65-byte recoverable ECDSA signatures
}

// SigningBytes returns the deterministic byte sequence signers sign over:
// the TaPoS fields, expiration, and every operation tagged with its
// variant so a signature cannot be replayed against a different payload.
func (t *Transaction) SigningBytes() ([]byte, error) {
	envelopes := make([]opEnvelope, len(t.Operations))
	for i, op := range t.Operations {
		payload, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("encode operation %d: %w", i, err)
		}
		envelopes[i] = opEnvelope{Tag: op.OpType(), Payload: payload}
	}
	body := struct {
		RefBlockNum    uint16
		RefBlockPrefix uint32
		Expiration     uint64
		Operations     []opEnvelope
	}{t.RefBlockNum, t.RefBlockPrefix, t.Expiration, envelopes}
	return json.Marshal(body)
}

// Digest returns the SHA-256 digest signed and recovered against.
func (t *Transaction) Digest() ([32]byte, error) {
	b, err := t.SigningBytes()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// ID is the transaction's identity for duplicate-detection purposes: the
// digest, independent of which signatures are attached.
func (t *Transaction) ID() ([32]byte, error) { return t.Digest() }

// AddSignature signs the transaction digest with key and appends the
// resulting recoverable signature.
func (t *Transaction) AddSignature(key *ecdsa.PrivateKey) error {
	digest, err := t.Digest()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return err
	}
	t.Signatures = append(t.Signatures, sig)
	return nil
}

// SignerKeys recovers the uncompressed public key bytes behind every
// attached signature. Mapping those keys to account names and weights is
// the authority-resolution job of core/evaluator, not this package.
func (t *Transaction) SignerKeys() ([][]byte, error) {
	digest, err := t.Digest()
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(t.Signatures))
	for i, sig := range t.Signatures {
		pub, err := crypto.SigToPub(digest[:], sig)
		if err != nil {
			return nil, fmt.Errorf("recover signature %d: %w", i, err)
		}
		keys[i] = crypto.FromECDSAPub(pub)
	}
	return keys, nil
}

// wireTransaction is Transaction's on-disk/JSON shape: Operations goes
// through opEnvelope so the tagged union round-trips without a generic
// interface decoder.
type wireTransaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     uint64
	Operations     []opEnvelope
	Signatures     [][]byte
}

// MarshalJSON tags every operation with its OpTag so UnmarshalJSON can
// reconstruct the correct concrete type.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	envelopes := make([]opEnvelope, len(t.Operations))
	for i, op := range t.Operations {
		payload, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("encode operation %d: %w", i, err)
		}
		envelopes[i] = opEnvelope{Tag: op.OpType(), Payload: payload}
	}
	return json.Marshal(wireTransaction{
		RefBlockNum:    t.RefBlockNum,
		RefBlockPrefix: t.RefBlockPrefix,
		Expiration:     t.Expiration,
		Operations:     envelopes,
		Signatures:     t.Signatures,
	})
}

// UnmarshalJSON reverses MarshalJSON, dispatching each envelope's Tag to
// its concrete Operation type.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var wire wireTransaction
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ops := make([]Operation, len(wire.Operations))
	for i, env := range wire.Operations {
		op, err := decodeOperation(env.Tag, env.Payload)
		if err != nil {
			return fmt.Errorf("decode operation %d: %w", i, err)
		}
		ops[i] = op
	}
	t.RefBlockNum = wire.RefBlockNum
	t.RefBlockPrefix = wire.RefBlockPrefix
	t.Expiration = wire.Expiration
	t.Operations = ops
	t.Signatures = wire.Signatures
	return nil
}

// decodeOperation unmarshals payload into the concrete Operation type
// named by tag.
func decodeOperation(tag OpTag, payload json.RawMessage) (Operation, error) {
	factory, ok := operationFactories[tag]
	if !ok {
		return nil, fmt.Errorf("unknown operation tag %d", tag)
	}
	return factory(payload)
}

type opFactory func(json.RawMessage) (Operation, error)

func decodeInto[T any](payload json.RawMessage, wrap func(T) Operation) (Operation, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return wrap(v), nil
}

var operationFactories = map[OpTag]opFactory{
	OpVote:                        func(p json.RawMessage) (Operation, error) { return decodeInto[VoteOp](p, func(v VoteOp) Operation { return v }) },
	OpComment:                     func(p json.RawMessage) (Operation, error) { return decodeInto[CommentOp](p, func(v CommentOp) Operation { return v }) },
	OpCommentOptions:              func(p json.RawMessage) (Operation, error) { return decodeInto[CommentOptionsOp](p, func(v CommentOptionsOp) Operation { return v }) },
	OpDeleteComment:               func(p json.RawMessage) (Operation, error) { return decodeInto[DeleteCommentOp](p, func(v DeleteCommentOp) Operation { return v }) },
	OpTransfer:                    func(p json.RawMessage) (Operation, error) { return decodeInto[TransferOp](p, func(v TransferOp) Operation { return v }) },
	OpTransferToVesting:           func(p json.RawMessage) (Operation, error) { return decodeInto[TransferToVestingOp](p, func(v TransferToVestingOp) Operation { return v }) },
	OpWithdrawVesting:             func(p json.RawMessage) (Operation, error) { return decodeInto[WithdrawVestingOp](p, func(v WithdrawVestingOp) Operation { return v }) },
	OpSetWithdrawVestingRoute:     func(p json.RawMessage) (Operation, error) { return decodeInto[SetWithdrawVestingRouteOp](p, func(v SetWithdrawVestingRouteOp) Operation { return v }) },
	OpAccountCreate:               func(p json.RawMessage) (Operation, error) { return decodeInto[AccountCreateOp](p, func(v AccountCreateOp) Operation { return v }) },
	OpAccountCreateWithDelegation: func(p json.RawMessage) (Operation, error) {
		return decodeInto[AccountCreateWithDelegationOp](p, func(v AccountCreateWithDelegationOp) Operation { return v })
	},
	OpAccountUpdate:            func(p json.RawMessage) (Operation, error) { return decodeInto[AccountUpdateOp](p, func(v AccountUpdateOp) Operation { return v }) },
	OpWitnessUpdate:            func(p json.RawMessage) (Operation, error) { return decodeInto[WitnessUpdateOp](p, func(v WitnessUpdateOp) Operation { return v }) },
	OpAccountWitnessVote:       func(p json.RawMessage) (Operation, error) { return decodeInto[AccountWitnessVoteOp](p, func(v AccountWitnessVoteOp) Operation { return v }) },
	OpAccountWitnessProxy:      func(p json.RawMessage) (Operation, error) { return decodeInto[AccountWitnessProxyOp](p, func(v AccountWitnessProxyOp) Operation { return v }) },
	OpCustom:                   func(p json.RawMessage) (Operation, error) { return decodeInto[CustomOp](p, func(v CustomOp) Operation { return v }) },
	OpCustomBinary:             func(p json.RawMessage) (Operation, error) { return decodeInto[CustomBinaryOp](p, func(v CustomBinaryOp) Operation { return v }) },
	OpCustomJSON:               func(p json.RawMessage) (Operation, error) { return decodeInto[CustomJSONOp](p, func(v CustomJSONOp) Operation { return v }) },
	OpPow:                      func(p json.RawMessage) (Operation, error) { return decodeInto[PowOp](p, func(v PowOp) Operation { return v }) },
	OpPow2:                     func(p json.RawMessage) (Operation, error) { return decodeInto[Pow2Op](p, func(v Pow2Op) Operation { return v }) },
	OpReportOverProduction:     func(p json.RawMessage) (Operation, error) { return decodeInto[ReportOverProductionOp](p, func(v ReportOverProductionOp) Operation { return v }) },
	OpFeedPublish:              func(p json.RawMessage) (Operation, error) { return decodeInto[FeedPublishOp](p, func(v FeedPublishOp) Operation { return v }) },
	OpConvert:                  func(p json.RawMessage) (Operation, error) { return decodeInto[ConvertOp](p, func(v ConvertOp) Operation { return v }) },
	OpLimitOrderCreate:         func(p json.RawMessage) (Operation, error) { return decodeInto[LimitOrderCreateOp](p, func(v LimitOrderCreateOp) Operation { return v }) },
	OpLimitOrderCreate2:        func(p json.RawMessage) (Operation, error) { return decodeInto[LimitOrderCreate2Op](p, func(v LimitOrderCreate2Op) Operation { return v }) },
	OpLimitOrderCancel:         func(p json.RawMessage) (Operation, error) { return decodeInto[LimitOrderCancelOp](p, func(v LimitOrderCancelOp) Operation { return v }) },
	OpChallengeAuthority:       func(p json.RawMessage) (Operation, error) { return decodeInto[ChallengeAuthorityOp](p, func(v ChallengeAuthorityOp) Operation { return v }) },
	OpProveAuthority:           func(p json.RawMessage) (Operation, error) { return decodeInto[ProveAuthorityOp](p, func(v ProveAuthorityOp) Operation { return v }) },
	OpRequestAccountRecovery:   func(p json.RawMessage) (Operation, error) { return decodeInto[RequestAccountRecoveryOp](p, func(v RequestAccountRecoveryOp) Operation { return v }) },
	OpRecoverAccount:           func(p json.RawMessage) (Operation, error) { return decodeInto[RecoverAccountOp](p, func(v RecoverAccountOp) Operation { return v }) },
	OpChangeRecoveryAccount:    func(p json.RawMessage) (Operation, error) { return decodeInto[ChangeRecoveryAccountOp](p, func(v ChangeRecoveryAccountOp) Operation { return v }) },
	OpEscrowTransfer:           func(p json.RawMessage) (Operation, error) { return decodeInto[EscrowTransferOp](p, func(v EscrowTransferOp) Operation { return v }) },
	OpEscrowApprove:            func(p json.RawMessage) (Operation, error) { return decodeInto[EscrowApproveOp](p, func(v EscrowApproveOp) Operation { return v }) },
	OpEscrowDispute:            func(p json.RawMessage) (Operation, error) { return decodeInto[EscrowDisputeOp](p, func(v EscrowDisputeOp) Operation { return v }) },
	OpEscrowRelease:            func(p json.RawMessage) (Operation, error) { return decodeInto[EscrowReleaseOp](p, func(v EscrowReleaseOp) Operation { return v }) },
	OpTransferToSavings:        func(p json.RawMessage) (Operation, error) { return decodeInto[TransferToSavingsOp](p, func(v TransferToSavingsOp) Operation { return v }) },
	OpTransferFromSavings:      func(p json.RawMessage) (Operation, error) { return decodeInto[TransferFromSavingsOp](p, func(v TransferFromSavingsOp) Operation { return v }) },
	OpCancelTransferFromSavings: func(p json.RawMessage) (Operation, error) {
		return decodeInto[CancelTransferFromSavingsOp](p, func(v CancelTransferFromSavingsOp) Operation { return v })
	},
	OpDeclineVotingRights:      func(p json.RawMessage) (Operation, error) { return decodeInto[DeclineVotingRightsOp](p, func(v DeclineVotingRightsOp) Operation { return v }) },
	OpResetAccount:             func(p json.RawMessage) (Operation, error) { return decodeInto[ResetAccountOp](p, func(v ResetAccountOp) Operation { return v }) },
	OpSetResetAccount:          func(p json.RawMessage) (Operation, error) { return decodeInto[SetResetAccountOp](p, func(v SetResetAccountOp) Operation { return v }) },
	OpDelegateVestingShares:    func(p json.RawMessage) (Operation, error) { return decodeInto[DelegateVestingSharesOp](p, func(v DelegateVestingSharesOp) Operation { return v }) },
	OpAssetCreate:              func(p json.RawMessage) (Operation, error) { return decodeInto[AssetCreateOp](p, func(v AssetCreateOp) Operation { return v }) },
	OpAssetIssue:               func(p json.RawMessage) (Operation, error) { return decodeInto[AssetIssueOp](p, func(v AssetIssueOp) Operation { return v }) },
	OpAssetReserve:             func(p json.RawMessage) (Operation, error) { return decodeInto[AssetReserveOp](p, func(v AssetReserveOp) Operation { return v }) },
	OpAssetUpdate:              func(p json.RawMessage) (Operation, error) { return decodeInto[AssetUpdateOp](p, func(v AssetUpdateOp) Operation { return v }) },
	OpAssetUpdateBitasset:      func(p json.RawMessage) (Operation, error) { return decodeInto[AssetUpdateBitassetOp](p, func(v AssetUpdateBitassetOp) Operation { return v }) },
	OpAssetUpdateFeedProducers: func(p json.RawMessage) (Operation, error) {
		return decodeInto[AssetUpdateFeedProducersOp](p, func(v AssetUpdateFeedProducersOp) Operation { return v })
	},
	OpAssetFundFeePool:  func(p json.RawMessage) (Operation, error) { return decodeInto[AssetFundFeePoolOp](p, func(v AssetFundFeePoolOp) Operation { return v }) },
	OpAssetGlobalSettle: func(p json.RawMessage) (Operation, error) { return decodeInto[AssetGlobalSettleOp](p, func(v AssetGlobalSettleOp) Operation { return v }) },
	OpAssetSettle:       func(p json.RawMessage) (Operation, error) { return decodeInto[AssetSettleOp](p, func(v AssetSettleOp) Operation { return v }) },
	OpAssetForceSettle:  func(p json.RawMessage) (Operation, error) { return decodeInto[AssetForceSettleOp](p, func(v AssetForceSettleOp) Operation { return v }) },
	OpAssetPublishFeeds: func(p json.RawMessage) (Operation, error) { return decodeInto[AssetPublishFeedsOp](p, func(v AssetPublishFeedsOp) Operation { return v }) },
	OpAssetClaimFees:    func(p json.RawMessage) (Operation, error) { return decodeInto[AssetClaimFeesOp](p, func(v AssetClaimFeesOp) Operation { return v }) },
	OpCallOrderUpdate:   func(p json.RawMessage) (Operation, error) { return decodeInto[CallOrderUpdateOp](p, func(v CallOrderUpdateOp) Operation { return v }) },
}
