package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerTransferOps(r *Registry) {
	r.register(types.OpTransfer, evalTransfer)
	r.register(types.OpTransferToVesting, evalTransferToVesting)
	r.register(types.OpWithdrawVesting, evalWithdrawVesting)
	r.register(types.OpSetWithdrawVestingRoute, evalSetWithdrawVestingRoute)
	r.register(types.OpDelegateVestingShares, evalDelegateVestingShares)
}

func balanceField(a *objectstore.Account, asset, base, debt string) (*big.Int, error) {
	switch asset {
	case base:
		return a.Liquid, nil
	case debt:
		return a.SBD, nil
	default:
		return nil, chainerr.New(chainerr.Validation, "transfer", "unsupported asset %s", asset)
	}
}

func evalTransfer(ctx *Context, operation types.Operation) error {
	op := operation.(types.TransferOp)
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		return chainerr.New(chainerr.Validation, "transfer", "amount must be positive")
	}
	from, ok := ctx.DB.Accounts.Find("by_name", op.From)
	if !ok {
		return chainerr.New(chainerr.Precondition, "transfer", "unknown account %s", op.From)
	}
	to, ok := ctx.DB.Accounts.Find("by_name", op.To)
	if !ok {
		return chainerr.New(chainerr.Precondition, "transfer", "unknown account %s", op.To)
	}
	fromBal, err := balanceField(from, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
	if err != nil {
		return err
	}
	if fromBal.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "transfer", chainerr.ErrInsufficientFund)
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		bal, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		bal.Sub(bal, op.Amount)
	})
	ctx.DB.Accounts.Modify(to, func(a *objectstore.Account) {
		bal, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		bal.Add(bal, op.Amount)
	})
	return nil
}

func evalTransferToVesting(ctx *Context, operation types.Operation) error {
	op := operation.(types.TransferToVestingOp)
	if op.Amount == nil || op.Amount.Sign() <= 0 {
		return chainerr.New(chainerr.Validation, "transfer_to_vesting", "amount must be positive")
	}
	from, ok := ctx.DB.Accounts.Find("by_name", op.From)
	if !ok {
		return chainerr.New(chainerr.Precondition, "transfer_to_vesting", "unknown account %s", op.From)
	}
	to := from
	if op.To != "" && op.To != op.From {
		var ok bool
		to, ok = ctx.DB.Accounts.Find("by_name", op.To)
		if !ok {
			return chainerr.New(chainerr.Precondition, "transfer_to_vesting", "unknown account %s", op.To)
		}
	}
	if from.Liquid.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "transfer_to_vesting", chainerr.ErrInsufficientFund)
	}

	globals := ctx.DB.Singleton()
	shares := new(big.Int).Set(op.Amount)
	if globals.TotalVestingFundSteem.Sign() > 0 {
		shares.Mul(shares, globals.TotalVestingShares)
		shares.Div(shares, globals.TotalVestingFundSteem)
	}

	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) { a.Liquid.Sub(a.Liquid, op.Amount) })
	ctx.DB.Accounts.Modify(to, func(a *objectstore.Account) { a.Vesting.Add(a.Vesting, shares) })
	ctx.DB.Globals.Modify(globals, func(g *objectstore.DynamicGlobalProperties) {
		g.TotalVestingFundSteem.Add(g.TotalVestingFundSteem, op.Amount)
		g.TotalVestingShares.Add(g.TotalVestingShares, shares)
	})
	return nil
}

const vestingWithdrawIntervals = 13
const vestingWithdrawIntervalSeconds = 7 * 24 * 3600

func evalWithdrawVesting(ctx *Context, operation types.Operation) error {
	op := operation.(types.WithdrawVestingOp)
	if op.VestingShares == nil || op.VestingShares.Sign() < 0 {
		return chainerr.New(chainerr.Validation, "withdraw_vesting", "vesting_shares must be non-negative")
	}
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "withdraw_vesting", "unknown account %s", op.Account)
	}
	if acct.Vesting.Cmp(op.VestingShares) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "withdraw_vesting", chainerr.ErrInsufficientFund)
	}
	rate := new(big.Int).Div(op.VestingShares, big.NewInt(vestingWithdrawIntervals))
	if rate.Sign() == 0 && op.VestingShares.Sign() > 0 {
		rate = new(big.Int).Set(op.VestingShares)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		a.VestingWithdrawRate = rate
		a.ToWithdraw = new(big.Int).Set(op.VestingShares)
		a.Withdrawn = big.NewInt(0)
		if op.VestingShares.Sign() == 0 {
			a.NextVestingWithdraw = ^uint64(0)
		} else {
			a.NextVestingWithdraw = ctx.Now + vestingWithdrawIntervalSeconds
		}
	})
	return nil
}

func evalSetWithdrawVestingRoute(ctx *Context, operation types.Operation) error {
	op := operation.(types.SetWithdrawVestingRouteOp)
	from, ok := ctx.DB.Accounts.Find("by_name", op.FromAccount)
	if !ok {
		return chainerr.New(chainerr.Precondition, "set_withdraw_vesting_route", "unknown account %s", op.FromAccount)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.ToAccount); !ok {
		return chainerr.New(chainerr.Precondition, "set_withdraw_vesting_route", "unknown account %s", op.ToAccount)
	}
	if op.PercentBp > 10000 {
		return chainerr.New(chainerr.Validation, "set_withdraw_vesting_route", "percent exceeds 100%%")
	}
	var total uint32
	for _, rt := range from.WithdrawRoutes {
		if rt.ToAccount != op.ToAccount {
			total += uint32(rt.PercentBp)
		}
	}
	if total+uint32(op.PercentBp) > 10000 {
		return chainerr.New(chainerr.Validation, "set_withdraw_vesting_route", "routes exceed 100%% of withdrawal")
	}
	ctx.DB.Accounts.Modify(from, func(a *objectstore.Account) {
		routes := make([]objectstore.WithdrawRoute, 0, len(a.WithdrawRoutes)+1)
		for _, rt := range a.WithdrawRoutes {
			if rt.ToAccount != op.ToAccount {
				routes = append(routes, rt)
			}
		}
		if op.PercentBp > 0 {
			routes = append(routes, objectstore.WithdrawRoute{ToAccount: op.ToAccount, PercentBp: op.PercentBp, AutoVest: op.AutoVest})
		}
		a.WithdrawRoutes = routes
	})
	return nil
}

func evalDelegateVestingShares(ctx *Context, operation types.Operation) error {
	op := operation.(types.DelegateVestingSharesOp)
	if op.VestingShares == nil || op.VestingShares.Sign() < 0 {
		return chainerr.New(chainerr.Validation, "delegate_vesting_shares", "amount must be non-negative")
	}
	delegator, ok := ctx.DB.Accounts.Find("by_name", op.Delegator)
	if !ok {
		return chainerr.New(chainerr.Precondition, "delegate_vesting_shares", "unknown account %s", op.Delegator)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Delegatee); !ok {
		return chainerr.New(chainerr.Precondition, "delegate_vesting_shares", "unknown account %s", op.Delegatee)
	}
	if delegator.Vesting.Cmp(op.VestingShares) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "delegate_vesting_shares", chainerr.ErrInsufficientFund)
	}
	// The delegation is only validated: no delegation record is kept, and
	// neither account's vesting shares, vote weight or bandwidth change.
	return nil
}
