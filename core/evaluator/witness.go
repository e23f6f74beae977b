package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerWitnessOps(r *Registry) {
	r.register(types.OpWitnessUpdate, evalWitnessUpdate)
	r.register(types.OpAccountWitnessVote, evalAccountWitnessVote)
	r.register(types.OpAccountWitnessProxy, evalAccountWitnessProxy)
	r.register(types.OpReportOverProduction, evalReportOverProduction)
	r.register(types.OpChallengeAuthority, evalChallengeAuthority)
	r.register(types.OpProveAuthority, evalProveAuthority)
}

func evalWitnessUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.WitnessUpdateOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Owner); !ok {
		return chainerr.New(chainerr.Precondition, "witness_update", "unknown account %s", op.Owner)
	}
	w, exists := ctx.DB.Witnesses.Find("by_owner", op.Owner)
	if !exists {
		ctx.DB.Witnesses.Create(&objectstore.Witness{}, func(w *objectstore.Witness) {
			w.Owner = op.Owner
			w.SigningKey = op.SigningKey
			w.Votes = big.NewInt(0)
			w.VirtualPosition = big.NewRat(0, 1)
			w.VirtualLastUpdate = big.NewRat(0, 1)
			w.VirtualSchedTime = big.NewRat(0, 1)
			w.ScheduleClass = objectstore.ScheduleClassNone
			w.Props = objectstore.WitnessProps{
				AccountCreationFee: op.AccountCreationFee,
				MaxBlockSize:       op.MaxBlockSize,
				SBDInterestRate:    op.SBDInterestRate,
			}
			w.CreatedAt = ctx.Now
		})
		return nil
	}
	ctx.DB.Witnesses.Modify(w, func(w *objectstore.Witness) {
		w.SigningKey = op.SigningKey
		w.Props.AccountCreationFee = op.AccountCreationFee
		w.Props.MaxBlockSize = op.MaxBlockSize
		w.Props.SBDInterestRate = op.SBDInterestRate
	})
	return nil
}

func evalAccountWitnessVote(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountWitnessVoteOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "account_witness_vote", "unknown account %s", op.Account)
	}
	if !acct.CanVote {
		return chainerr.New(chainerr.Precondition, "account_witness_vote", "%s has declined voting rights", op.Account)
	}
	w, ok := ctx.DB.Witnesses.Find("by_owner", op.Witness)
	if !ok {
		return chainerr.New(chainerr.Precondition, "account_witness_vote", "unknown witness %s", op.Witness)
	}
	already := acct.WitnessVotes[op.Witness]
	if op.Approve == already {
		return nil
	}
	weight := voteWeight(acct)
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		if a.WitnessVotes == nil {
			a.WitnessVotes = map[string]bool{}
		}
		if op.Approve {
			a.WitnessVotes[op.Witness] = true
		} else {
			delete(a.WitnessVotes, op.Witness)
		}
	})
	ctx.DB.Witnesses.Modify(w, func(w *objectstore.Witness) {
		if op.Approve {
			w.Votes.Add(w.Votes, weight)
		} else {
			w.Votes.Sub(w.Votes, weight)
		}
	})
	return nil
}

// voteWeight is the effective governance weight of acct's vote: its own
// vesting shares plus any weight proxied in from accounts naming it as
// their voting proxy (see AccountWitnessProxyOp).
func voteWeight(acct *objectstore.Account) *big.Int {
	total := new(big.Int).Set(acct.Vesting)
	for _, bonus := range acct.ProxiedVSFBonus {
		if bonus != nil {
			total.Add(total, bonus)
		}
	}
	return total
}

func evalAccountWitnessProxy(ctx *Context, operation types.Operation) error {
	op := operation.(types.AccountWitnessProxyOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "account_witness_proxy", "unknown account %s", op.Account)
	}
	if op.Proxy == op.Account {
		return chainerr.New(chainerr.Validation, "account_witness_proxy", "cannot proxy to self")
	}
	if op.Proxy != "" {
		if _, ok := ctx.DB.Accounts.Find("by_name", op.Proxy); !ok {
			return chainerr.New(chainerr.Precondition, "account_witness_proxy", "unknown proxy %s", op.Proxy)
		}
	}
	oldProxy := acct.Proxy
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) { a.Proxy = op.Proxy })

	weight := voteWeight(acct)
	if oldProxy != "" {
		if p, ok := ctx.DB.Accounts.Find("by_name", oldProxy); ok {
			ctx.DB.Accounts.Modify(p, func(a *objectstore.Account) {
				a.ProxiedVSFBonus[0].Sub(a.ProxiedVSFBonus[0], weight)
			})
		}
	}
	if op.Proxy != "" {
		if p, ok := ctx.DB.Accounts.Find("by_name", op.Proxy); ok {
			ctx.DB.Accounts.Modify(p, func(a *objectstore.Account) {
				a.ProxiedVSFBonus[0].Add(a.ProxiedVSFBonus[0], weight)
			})
		}
	}
	return nil
}

func evalReportOverProduction(ctx *Context, operation types.Operation) error {
	op := operation.(types.ReportOverProductionOp)
	if op.FirstBlock == nil || op.SecondBlock == nil {
		return chainerr.New(chainerr.Validation, "report_over_production", "both headers are required")
	}
	if op.FirstBlock.Witness != op.SecondBlock.Witness {
		return chainerr.New(chainerr.Validation, "report_over_production", "headers were not signed by the same witness")
	}
	if op.FirstBlock.PreviousID == op.SecondBlock.PreviousID && op.FirstBlock.Timestamp == op.SecondBlock.Timestamp {
		// Two conflicting headers for the same slot: an equivocating
		// witness. The report is accepted; no penalty is applied to the
		// witness, here or in the chain controller.
		return nil
	}
	return chainerr.New(chainerr.Validation, "report_over_production", "headers do not conflict")
}

func evalChallengeAuthority(ctx *Context, operation types.Operation) error {
	op := operation.(types.ChallengeAuthorityOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Challenged); !ok {
		return chainerr.New(chainerr.Precondition, "challenge_authority", "unknown account %s", op.Challenged)
	}
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Challenger); !ok {
		return chainerr.New(chainerr.Precondition, "challenge_authority", "unknown account %s", op.Challenger)
	}
	// Only validates the two accounts: no challenge is recorded, so there
	// is nothing to expire or to resolve with prove_authority.
	return nil
}

func evalProveAuthority(ctx *Context, operation types.Operation) error {
	op := operation.(types.ProveAuthorityOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Challenged); !ok {
		return chainerr.New(chainerr.Precondition, "prove_authority", "unknown account %s", op.Challenged)
	}
	return nil
}
