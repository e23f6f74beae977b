package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerAccountOps(r *Registry) {
	r.register(types.OpAccountCreate, evalAccountCreate)
	r.register(types.OpAccountCreateWithDelegation, evalAccountCreateWithDelegation)
	r.register(types.OpAccountUpdate, evalAccountUpdate)
	r.register(types.OpRequestAccountRecovery, evalRequestAccountRecovery)
	r.register(types.OpRecoverAccount, evalRecoverAccount)
	r.register(types.OpChangeRecoveryAccount, evalChangeRecoveryAccount)
	r.register(types.OpDeclineVotingRights, evalDeclineVotingRights)
	r.register(types.OpResetAccount, evalResetAccount)
	r.register(types.OpSetResetAccount, evalSetResetAccount)
}

func wireAuthority(w types.AuthorityWire) objectstore.Authority {
	return objectstore.Authority{Threshold: w.Threshold, KeyWeights: w.KeyWeights, AccountAuths: w.AccountAuths}
}

func createAccount(ctx *Context, creator, name string, fee *big.Int, owner, active, posting types.AuthorityWire, memoKey string, op string) error {
	if _, exists := ctx.DB.Accounts.Find("by_name", name); exists {
		return chainerr.Wrap(chainerr.Precondition, op, chainerr.ErrDuplicate)
	}
	creatorAcct, ok := ctx.DB.Accounts.Find("by_name", creator)
	if !ok {
		return chainerr.New(chainerr.Precondition, op, "unknown creator %s", creator)
	}
	if fee == nil {
		fee = big.NewInt(0)
	}
	if creatorAcct.Liquid.Cmp(fee) < 0 {
		return chainerr.Wrap(chainerr.Precondition, op, chainerr.ErrInsufficientFund)
	}
	minFee := ctx.Params.MinAccountCreationFee
	if minFee != nil && fee.Cmp(minFee) < 0 {
		return chainerr.New(chainerr.Validation, op, "fee below minimum account creation fee")
	}

	globals := ctx.DB.Singleton()
	shares := new(big.Int).Set(fee)
	if globals.TotalVestingFundSteem.Sign() > 0 {
		shares.Mul(shares, globals.TotalVestingShares)
		shares.Div(shares, globals.TotalVestingFundSteem)
	}

	ctx.DB.Accounts.Modify(creatorAcct, func(a *objectstore.Account) { a.Liquid.Sub(a.Liquid, fee) })
	ctx.DB.Globals.Modify(globals, func(g *objectstore.DynamicGlobalProperties) {
		g.TotalVestingFundSteem.Add(g.TotalVestingFundSteem, fee)
		g.TotalVestingShares.Add(g.TotalVestingShares, shares)
	})

	ctx.DB.Accounts.Create(&objectstore.Account{}, func(a *objectstore.Account) {
		a.Name = name
		a.Owner = wireAuthority(owner)
		a.Active = wireAuthority(active)
		a.Posting = wireAuthority(posting)
		a.Memo = memoKey
		a.Liquid = big.NewInt(0)
		a.Vesting = shares
		a.SBD = big.NewInt(0)
		a.Savings = big.NewInt(0)
		a.SBDSavings = big.NewInt(0)
		a.VestingWithdrawRate = big.NewInt(0)
		a.ToWithdraw = big.NewInt(0)
		a.Withdrawn = big.NewInt(0)
		a.NextVestingWithdraw = ^uint64(0)
		for i := range a.ProxiedVSFBonus {
			a.ProxiedVSFBonus[i] = big.NewInt(0)
		}
		a.WitnessVotes = map[string]bool{}
		a.RecoveryAccount = creator
		a.CanVote = true
		a.CreatedAt = ctx.Now
	})
	return nil
}

func evalAccountCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountCreateOp)
	return createAccount(ctx, op.Creator, op.NewAccountName, op.Fee, op.Owner, op.Active, op.Posting, op.MemoKey, "account_create")
}

func evalAccountCreateWithDelegation(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountCreateWithDelegationOp)
	// Delegated vesting collateral in lieu of a larger fee is not tracked
	// against a delegation ledger yet (see delegate_vesting_shares); the
	// account is created against Fee alone.
	return createAccount(ctx, op.Creator, op.NewAccountName, op.Fee, op.Owner, op.Active, op.Posting, op.MemoKey, "account_create_with_delegation")
}

func evalAccountUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountUpdateOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "account_update", "unknown account %s", op.Account)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		if op.Owner != nil {
			a.Owner = wireAuthority(*op.Owner)
			a.LastOwnerUpdate = ctx.Now
		}
		if op.Active != nil {
			a.Active = wireAuthority(*op.Active)
		}
		if op.Posting != nil {
			a.Posting = wireAuthority(*op.Posting)
		}
		if op.MemoKey != "" {
			a.Memo = op.MemoKey
		}
	})
	return nil
}

func evalRequestAccountRecovery(ctx *Context, operation types.Operation) error {
	op := operation.(types.RequestAccountRecoveryOp)
	target, ok := ctx.DB.Accounts.Find("by_name", op.AccountToRecover)
	if !ok {
		return chainerr.New(chainerr.Precondition, "request_account_recovery", "unknown account %s", op.AccountToRecover)
	}
	if target.RecoveryAccount != op.RecoveryAccount {
		return chainerr.New(chainerr.AuthorityMissing, "request_account_recovery", "%s is not %s's recovery account", op.RecoveryAccount, op.AccountToRecover)
	}
	// The operation is only validated: no recovery request is recorded,
	// neither in the object store nor in the chain controller.
	return nil
}

func evalRecoverAccount(ctx *Context, operation types.Operation) error {
	op := operation.(types.RecoverAccountOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.AccountToRecover)
	if !ok {
		return chainerr.New(chainerr.Precondition, "recover_account", "unknown account %s", op.AccountToRecover)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		a.Owner = wireAuthority(op.NewOwnerAuthority)
		a.LastOwnerUpdate = ctx.Now
	})
	return nil
}

func evalChangeRecoveryAccount(ctx *Context, operation types.Operation) error {
	op := operation.(types.ChangeRecoveryAccountOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.AccountToRecover)
	if !ok {
		return chainerr.New(chainerr.Precondition, "change_recovery_account", "unknown account %s", op.AccountToRecover)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.NewRecoveryAccount); !ok {
		return chainerr.New(chainerr.Precondition, "change_recovery_account", "unknown account %s", op.NewRecoveryAccount)
	}
	// The recovery account is not changed and no delayed change is
	// scheduled anywhere; the Modify below leaves the account as it is.
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {})
	return nil
}

func evalDeclineVotingRights(ctx *Context, operation types.Operation) error {
	op := operation.(types.DeclineVotingRightsOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "decline_voting_rights", "unknown account %s", op.Account)
	}
	if !op.Decline {
		ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) { a.CanVote = true })
		return nil
	}
	// Declining is not applied or scheduled: CanVote stays as it is and
	// no request is recorded.
	return nil
}

func evalResetAccount(ctx *Context, operation types.Operation) error {
	op := operation.(types.ResetAccountOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.AccountToReset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "reset_account", "unknown account %s", op.AccountToReset)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		a.Owner = wireAuthority(op.NewOwnerAuthority)
		a.LastOwnerUpdate = ctx.Now
	})
	return nil
}

func evalSetResetAccount(ctx *Context, operation types.Operation) error {
	op := operation.(types.SetResetAccountOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Account); !ok {
		return chainerr.New(chainerr.Precondition, "set_reset_account", "unknown account %s", op.Account)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.ResetAccount); !ok {
		return chainerr.New(chainerr.Precondition, "set_reset_account", "unknown account %s", op.ResetAccount)
	}
	return nil
}
