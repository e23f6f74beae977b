// Escrow evaluators generalize the bilateral hold in
// _examples/josephblackelite-nhbchain/native/escrow to a three-party
// (from, to, agent) conditional transfer. The recipient and the agent each
// approve or reject; a rejection refunds amount and fee to the sender, and
// once both have approved the fee is paid to the agent. Before a dispute the
// sender may release at any time, and the recipient or the agent once it has
// approved; after a dispute only the agent may release.
package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerEscrowOps(r *Registry) {
	r.register(types.OpEscrowTransfer, evalEscrowTransfer)
	r.register(types.OpEscrowApprove, evalEscrowApprove)
	r.register(types.OpEscrowDispute, evalEscrowDispute)
	r.register(types.OpEscrowRelease, evalEscrowRelease)
}

func findEscrow(db *objectstore.Database, from string, id uint32) (*objectstore.Escrow, bool) {
	return db.Escrows.Find("by_from_id", from+"\x00"+itoa64(uint64(id)))
}

func evalEscrowTransfer(ctx *Context, operation types.Operation) error {
	op := operation.(types.EscrowTransferOp)
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		return chainerr.New(chainerr.Validation, "escrow_transfer", "amount must be positive")
	}
	from, ok := ctx.DB.Accounts.Find("by_name", op.From)
	if !ok {
		return chainerr.New(chainerr.Precondition, "escrow_transfer", "unknown account %s", op.From)
	}
	for _, name := range []string{op.To, op.Agent} {
		if _, ok := ctx.DB.Accounts.Find("by_name", name); !ok {
			return chainerr.New(chainerr.Precondition, "escrow_transfer", "unknown account %s", name)
		}
	}
	if _, exists := findEscrow(ctx.DB, op.From, op.EscrowID); exists {
		return chainerr.Wrap(chainerr.Precondition, "escrow_transfer", chainerr.ErrDuplicate)
	}
	fee := op.Fee
	if fee == nil {
		fee = big.NewInt(0)
	}
	total := new(big.Int).Add(op.Amount, fee)
	bal, err := balanceField(from, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
	if err != nil {
		return err
	}
	if bal.Cmp(total) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "escrow_transfer", chainerr.ErrInsufficientFund)
	}
	if op.RatificationDeadline >= op.EscrowExpiration {
		return chainerr.New(chainerr.Validation, "escrow_transfer", "ratification deadline must precede expiration")
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		b, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Sub(b, total)
	})
	ctx.DB.Escrows.Create(&objectstore.Escrow{}, func(e *objectstore.Escrow) {
		e.From = op.From
		e.To = op.To
		e.Agent = op.Agent
		e.EscrowID = op.EscrowID
		e.Asset = op.Asset
		e.Amount = new(big.Int).Set(op.Amount)
		e.Fee = new(big.Int).Set(fee)
		e.RatificationDeadline = op.RatificationDeadline
		e.Expiration = op.EscrowExpiration
		e.JSONMeta = op.JSONMeta
	})
	return nil
}

func evalEscrowApprove(ctx *Context, operation types.Operation) error {
	op := operation.(types.EscrowApproveOp)
	e, ok := findEscrow(ctx.DB, op.From, op.EscrowID)
	if !ok {
		return chainerr.New(chainerr.Precondition, "escrow_approve", "unknown escrow %s/%d", op.From, op.EscrowID)
	}
	if e.To != op.To || e.Agent != op.Agent {
		return chainerr.New(chainerr.Validation, "escrow_approve", "escrow parties do not match")
	}
	if op.Who != e.To && op.Who != e.Agent {
		return chainerr.New(chainerr.AuthorityMissing, "escrow_approve", "%s is not a party to this escrow", op.Who)
	}
	if !op.Approve {
		refundEscrow(ctx, e)
		ctx.DB.Escrows.Remove(e)
		return nil
	}
	ctx.DB.Escrows.Modify(e, func(e *objectstore.Escrow) {
		if op.Who == e.To {
			e.ToApproved = true
		} else {
			e.AgentApproved = true
		}
	})
	if e.ToApproved && e.AgentApproved && e.Fee.Sign() > 0 {
		if agent, ok := ctx.DB.Accounts.Find("by_name", e.Agent); ok {
			fee := new(big.Int).Set(e.Fee)
			ctx.DB.Accounts.Modify(agent, func(a *objectstore.Account) {
				b, _ := balanceField(a, e.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
				b.Add(b, fee)
			})
			ctx.DB.Escrows.Modify(e, func(e *objectstore.Escrow) { e.Fee = big.NewInt(0) })
		}
	}
	return nil
}

func evalEscrowDispute(ctx *Context, operation types.Operation) error {
	op := operation.(types.EscrowDisputeOp)
	e, ok := findEscrow(ctx.DB, op.From, op.EscrowID)
	if !ok {
		return chainerr.New(chainerr.Precondition, "escrow_dispute", "unknown escrow %s/%d", op.From, op.EscrowID)
	}
	if op.Who != e.From && op.Who != e.To {
		return chainerr.New(chainerr.AuthorityMissing, "escrow_dispute", "%s is not a party to this escrow", op.Who)
	}
	if ctx.Now > e.Expiration {
		return chainerr.New(chainerr.Precondition, "escrow_dispute", "escrow has already expired")
	}
	ctx.DB.Escrows.Modify(e, func(e *objectstore.Escrow) { e.Disputed = true })
	return nil
}

func evalEscrowRelease(ctx *Context, operation types.Operation) error {
	op := operation.(types.EscrowReleaseOp)
	e, ok := findEscrow(ctx.DB, op.From, op.EscrowID)
	if !ok {
		return chainerr.New(chainerr.Precondition, "escrow_release", "unknown escrow %s/%d", op.From, op.EscrowID)
	}
	if op.Receiver != e.From && op.Receiver != e.To {
		return chainerr.New(chainerr.Validation, "escrow_release", "receiver must be a non-agent party")
	}
	if op.Amount == nil || op.Amount.Sign() <= 0 || op.Amount.Cmp(e.Amount) > 0 {
		return chainerr.New(chainerr.Validation, "escrow_release", "amount out of range")
	}

	authorized := false
	switch {
	case e.Disputed:
		authorized = op.Who == e.Agent
	default:
		authorized = op.Who == e.From || (op.Who == e.To && e.ToApproved) || (op.Who == e.Agent && e.AgentApproved)
	}
	if !authorized {
		return chainerr.New(chainerr.AuthorityMissing, "escrow_release", "%s is not authorized to release this escrow", op.Who)
	}

	receiver, ok := ctx.DB.Accounts.Find("by_name", op.Receiver)
	if !ok {
		return chainerr.New(chainerr.Precondition, "escrow_release", "unknown account %s", op.Receiver)
	}
	ctx.DB.Accounts.Modify(receiver, func(a *objectstore.Account) {
		b, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Add(b, op.Amount)
	})
	remaining := new(big.Int).Sub(e.Amount, op.Amount)
	if remaining.Sign() == 0 {
		ctx.DB.Escrows.Remove(e)
	} else {
		ctx.DB.Escrows.Modify(e, func(e *objectstore.Escrow) { e.Amount = remaining })
	}
	return nil
}

func refundEscrow(ctx *Context, e *objectstore.Escrow) {
	from, ok := ctx.DB.Accounts.Find("by_name", e.From)
	if !ok {
		return
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		b, _ := balanceField(a, e.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		total := new(big.Int).Add(e.Amount, e.Fee)
		b.Add(b, total)
	})
}
