package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerSavingsOps(r *Registry) {
	r.register(types.OpTransferToSavings, evalTransferToSavings)
	r.register(types.OpTransferFromSavings, evalTransferFromSavings)
	r.register(types.OpCancelTransferFromSavings, evalCancelTransferFromSavings)
}

const savingsWithdrawDelaySeconds = 3 * 24 * 3600

func savingsField(a *objectstore.Account, asset, base, debt string) (*big.Int, error) {
	switch asset {
	case base:
		return a.Savings, nil
	case debt:
		return a.SBDSavings, nil
	default:
		return nil, chainerr.New(chainerr.Validation, "transfer_to_savings", "unsupported asset %s", asset)
	}
}

func evalTransferToSavings(ctx *Context, operation types.Operation) error {
	op := operation.(types.TransferToSavingsOp)
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		return chainerr.New(chainerr.Validation, "transfer_to_savings", "amount must be positive")
	}
	from, ok := ctx.DB.Accounts.Find("by_name", op.From)
	if !ok {
		return chainerr.New(chainerr.Precondition, "transfer_to_savings", "unknown account %s", op.From)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.To); !ok {
		return chainerr.New(chainerr.Precondition, "transfer_to_savings", "unknown account %s", op.To)
	}
	bal, err := balanceField(from, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
	if err != nil {
		return err
	}
	if bal.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "transfer_to_savings", chainerr.ErrInsufficientFund)
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		b, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Sub(b, op.Amount)
	})
	to, _ := ctx.DB.Accounts.Find("by_name", op.To)
	ctx.DB.Accounts.Modify(to, func(a *objectstore.Account) {
		s, _ := savingsField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		s.Add(s, op.Amount)
	})
	return nil
}

func evalTransferFromSavings(ctx *Context, operation types.Operation) error {
	op := operation.(types.TransferFromSavingsOp)
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		return chainerr.New(chainerr.Validation, "transfer_from_savings", "amount must be positive")
	}
	from, ok := ctx.DB.Accounts.Find("by_name", op.From)
	if !ok {
		return chainerr.New(chainerr.Precondition, "transfer_from_savings", "unknown account %s", op.From)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.To); !ok {
		return chainerr.New(chainerr.Precondition, "transfer_from_savings", "unknown account %s", op.To)
	}
	savings, err := savingsField(from, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
	if err != nil {
		return err
	}
	if savings.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "transfer_from_savings", chainerr.ErrInsufficientFund)
	}
	if _, exists := ctx.DB.SavingsWithdraws.Find("by_from_id", op.From+"\x00"+itoa64(uint64(op.RequestID))); exists {
		return chainerr.Wrap(chainerr.Precondition, "transfer_from_savings", chainerr.ErrDuplicate)
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		s, _ := savingsField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		s.Sub(s, op.Amount)
	})
	ctx.DB.SavingsWithdraws.Create(&objectstore.SavingsWithdrawRequest{}, func(s *objectstore.SavingsWithdrawRequest) {
		s.From = op.From
		s.RequestID = op.RequestID
		s.To = op.To
		s.Amount = new(big.Int).Set(op.Amount)
		s.Asset = op.Asset
		s.Memo = op.Memo
		s.Complete = ctx.Now + savingsWithdrawDelaySeconds
	})
	return nil
}

func evalCancelTransferFromSavings(ctx *Context, operation types.Operation) error {
	op := operation.(types.CancelTransferFromSavingsOp)
	req, ok := ctx.DB.SavingsWithdraws.Find("by_from_id", op.From+"\x00"+itoa64(uint64(op.RequestID)))
	if !ok {
		return chainerr.New(chainerr.Precondition, "cancel_transfer_from_savings", "unknown request %s/%d", op.From, op.RequestID)
	}
	from, ok := ctx.DB.Accounts.Find("by_name", op.From)
	if !ok {
		return chainerr.New(chainerr.Precondition, "cancel_transfer_from_savings", "unknown account %s", op.From)
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		s, _ := savingsField(a, req.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		s.Add(s, req.Amount)
	})
	ctx.DB.SavingsWithdraws.Remove(req)
	return nil
}
