// Package evaluator applies a single validated operation to the object
// store, per spec.md §4.6: "each operation type maps to exactly one
// evaluator; the evaluator both validates preconditions and performs the
// state transition inside its own child undo session."
package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

// Context carries everything an evaluator needs beyond the operation
// itself: the object store, the current head time (for expirations and
// cashout scheduling), and chain-wide parameters an evaluator must consult
// (fee schedules, asset symbols).
type Context struct {
	DB         *objectstore.Database
	Now        uint64
	BlockNum   uint64
	SignerKeys map[string]bool
	Params     Params
}

// Params collects the externalized chain constants evaluators consult.
// Every field here is a candidate for genesis/config override, per spec.md
// §1's "constants and hardfork dates are externalized" non-goal.
type Params struct {
	BaseAsset              string
	DebtAsset              string // stable-asset symbol (SBD-equivalent)
	MinAccountCreationFee  *big.Int
	VestingConversionRate  *big.Rat // liquid units per vesting share
	MaxVoteChangesPerWeek  uint32
	MinDelegationSeconds   uint64
	CurationRewardPercent  uint16
	AccountRecoveryWindow  uint64
	OwnerAuthorityHistoryS uint64
}

// Evaluator applies one operation within ctx, mutating ctx.DB. It must
// return a *chainerr.Error (or wrap one) on any failure so the chain
// controller can classify the failure without inspecting error text.
type Evaluator func(ctx *Context, op types.Operation) error

// Registry dispatches by OpTag.
type Registry struct {
	evaluators map[types.OpTag]Evaluator
}

// NewRegistry builds a Registry with every operation defined in
// core/types/operation.go wired to its evaluator.
func NewRegistry() *Registry {
	r := &Registry{evaluators: make(map[types.OpTag]Evaluator, 64)}
	registerContentOps(r)
	registerTransferOps(r)
	registerAccountOps(r)
	registerWitnessOps(r)
	registerCustomOps(r)
	registerMarketOps(r)
	registerEscrowOps(r)
	registerSavingsOps(r)
	registerAssetOps(r)
	return r
}

func (r *Registry) register(tag types.OpTag, fn Evaluator) {
	r.evaluators[tag] = fn
}

// Apply runs op's evaluator within its own child undo session, squashing
// into the parent on success and rolling back (returning the error) on
// failure.
func (r *Registry) Apply(ctx *Context, op types.Operation) error {
	fn, ok := r.evaluators[op.OpType()]
	if !ok {
		return chainerr.New(chainerr.Validation, "evaluator", "no evaluator registered for op tag %d", op.OpType())
	}
	session := ctx.DB.Store.Begin()
	if err := fn(ctx, op); err != nil {
		session.Undo()
		return err
	}
	session.Squash()
	return nil
}
