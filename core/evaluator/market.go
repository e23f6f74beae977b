package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerMarketOps(r *Registry) {
	r.register(types.OpFeedPublish, evalFeedPublish)
	r.register(types.OpConvert, evalConvert)
	r.register(types.OpLimitOrderCreate, evalLimitOrderCreate)
	r.register(types.OpLimitOrderCreate2, evalLimitOrderCreate2)
	r.register(types.OpLimitOrderCancel, evalLimitOrderCancel)
	r.register(types.OpCallOrderUpdate, evalCallOrderUpdate)
}

func evalFeedPublish(ctx *Context, operation types.Operation) error {
	op := operation.(types.FeedPublishOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Publisher); !ok {
		return chainerr.New(chainerr.Precondition, "feed_publish", "unknown account %s", op.Publisher)
	}
	bit, ok := ctx.DB.BitAssets.Find("by_asset", ctx.Params.DebtAsset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "feed_publish", "unknown market-issued asset %s", ctx.Params.DebtAsset)
	}
	if !bit.FeedProducers[op.Publisher] {
		return chainerr.New(chainerr.AuthorityMissing, "feed_publish", "%s is not a registered feed producer", op.Publisher)
	}
	ctx.DB.BitAssets.Modify(bit, func(b *objectstore.AssetBitAssetData) {
		if b.Feeds == nil {
			b.Feeds = map[string]*big.Rat{}
		}
		b.Feeds[op.Publisher] = op.ExchangeRate
		b.CurrentFeed = medianFeed(b.Feeds)
		b.CurrentFeedPublished = ctx.Now
	})
	return nil
}

func medianFeed(feeds map[string]*big.Rat) *big.Rat {
	if len(feeds) == 0 {
		return big.NewRat(0, 1)
	}
	rates := make([]*big.Rat, 0, len(feeds))
	for _, r := range feeds {
		rates = append(rates, r)
	}
	for i := 1; i < len(rates); i++ {
		for j := i; j > 0 && rates[j].Cmp(rates[j-1]) < 0; j-- {
			rates[j], rates[j-1] = rates[j-1], rates[j]
		}
	}
	return new(big.Rat).Set(rates[len(rates)/2])
}

const convertDelaySeconds = 3 * 24 * 3600

func evalConvert(ctx *Context, operation types.Operation) error {
	op := operation.(types.ConvertOp)
	if op.Asset != ctx.Params.DebtAsset {
		return chainerr.New(chainerr.Validation, "convert", "convert only accepts %s", ctx.Params.DebtAsset)
	}
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Owner)
	if !ok {
		return chainerr.New(chainerr.Precondition, "convert", "unknown account %s", op.Owner)
	}
	if acct.SBD.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "convert", chainerr.ErrInsufficientFund)
	}
	if _, exists := ctx.DB.ConvertRequests.Find("by_from_id", op.Owner+"\x00"+itoa64(uint64(op.RequestID))); exists {
		return chainerr.Wrap(chainerr.Precondition, "convert", chainerr.ErrDuplicate)
	}
	bit, ok := ctx.DB.BitAssets.Find("by_asset", ctx.Params.DebtAsset)
	if !ok || bit.CurrentFeed == nil || bit.CurrentFeed.Sign() <= 0 {
		return chainerr.New(chainerr.Precondition, "convert", "no feed price published for %s", ctx.Params.DebtAsset)
	}
	payoutRat := new(big.Rat).Quo(new(big.Rat).SetInt(op.Amount), bit.CurrentFeed)
	payout := new(big.Int).Quo(payoutRat.Num(), payoutRat.Denom())

	// The SBD side burns immediately at request time; the base-asset payout
	// mints into the pending request itself rather than the account, so it
	// stays out of any balance table until maturity, mirroring how
	// force_settle holds the settling account's balance in Settlements
	// instead of crediting it up front.
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) { a.SBD.Sub(a.SBD, op.Amount) })
	ctx.DB.AdjustSupply(ctx.Params.DebtAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, new(big.Int).Neg(op.Amount))
	ctx.DB.AdjustSupply(ctx.Params.BaseAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, payout)

	ctx.DB.ConvertRequests.Create(&objectstore.ConvertRequest{}, func(r *objectstore.ConvertRequest) {
		r.Owner = op.Owner
		r.RequestID = op.RequestID
		r.Amount = payout
		r.ConversionDate = ctx.Now + convertDelaySeconds
	})
	return nil
}

func evalLimitOrderCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.LimitOrderCreateOp)
	if op.AmountToSell == nil || op.AmountToSell.Sign() <= 0 {
		return chainerr.New(chainerr.Validation, "limit_order_create", "amount_to_sell must be positive")
	}
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Owner)
	if !ok {
		return chainerr.New(chainerr.Precondition, "limit_order_create", "unknown account %s", op.Owner)
	}
	bal, err := balanceField(acct, op.SellAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
	if err != nil {
		return err
	}
	if bal.Cmp(op.AmountToSell) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "limit_order_create", chainerr.ErrInsufficientFund)
	}
	if _, exists := ctx.DB.LimitOrders.Find("by_seller_orderid", op.Owner+"\x00"+itoa64(uint64(op.OrderID))); exists {
		return chainerr.Wrap(chainerr.Precondition, "limit_order_create", chainerr.ErrDuplicate)
	}
	price := new(big.Rat).SetFrac(op.MinToReceive, op.AmountToSell)

	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		b, _ := balanceField(a, op.SellAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Sub(b, op.AmountToSell)
	})
	ctx.DB.LimitOrders.Create(&objectstore.LimitOrder{}, func(o *objectstore.LimitOrder) {
		o.Seller = op.Owner
		o.OrderID = op.OrderID
		o.ForSaleAsset = op.SellAsset
		o.ForSale = new(big.Int).Set(op.AmountToSell)
		o.SellPrice = price
		o.ReceiveAsset = op.ReceiveAsset
		o.Expiration = op.Expiration
		o.DeferredFee = big.NewInt(0)
	})
	return nil
}

func evalLimitOrderCreate2(ctx *Context, operation types.Operation) error {
	op := operation.(types.LimitOrderCreate2Op)
	if op.PriceDen == nil || op.PriceDen.Sign() == 0 {
		return chainerr.New(chainerr.Validation, "limit_order_create2", "price denominator must be non-zero")
	}
	minToReceive := new(big.Int).Mul(op.AmountToSell, op.PriceNum)
	minToReceive.Div(minToReceive, op.PriceDen)
	wrapped := types.LimitOrderCreateOp{
		Owner: op.Owner, OrderID: op.OrderID, AmountToSell: op.AmountToSell,
		SellAsset: op.SellAsset, MinToReceive: minToReceive, ReceiveAsset: op.ReceiveAsset,
		FillOrKill: op.FillOrKill, Expiration: op.Expiration,
	}
	return evalLimitOrderCreate(ctx, wrapped)
}

func evalLimitOrderCancel(ctx *Context, operation types.Operation) error {
	op := operation.(types.LimitOrderCancelOp)
	o, ok := ctx.DB.LimitOrders.Find("by_seller_orderid", op.Owner+"\x00"+itoa64(uint64(op.OrderID)))
	if !ok {
		return chainerr.New(chainerr.Precondition, "limit_order_cancel", "unknown order %s/%d", op.Owner, op.OrderID)
	}
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Owner)
	if !ok {
		return chainerr.New(chainerr.Precondition, "limit_order_cancel", "unknown account %s", op.Owner)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		b, _ := balanceField(a, o.ForSaleAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Add(b, o.ForSale)
	})
	ctx.DB.LimitOrders.Remove(o)
	return nil
}

func evalCallOrderUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.CallOrderUpdateOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Borrower)
	if !ok {
		return chainerr.New(chainerr.Precondition, "call_order_update", "unknown account %s", op.Borrower)
	}
	if op.DeltaCollateral == nil {
		op.DeltaCollateral = big.NewInt(0)
	}
	if op.DeltaDebt == nil {
		op.DeltaDebt = big.NewInt(0)
	}
	bit, ok := ctx.DB.BitAssets.Find("by_asset", op.DebtAsset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "call_order_update", "unknown market-issued asset %s", op.DebtAsset)
	}

	call, exists := ctx.DB.CallOrders.Find("by_borrower_debt", op.Borrower+"\x00"+op.DebtAsset)
	if !exists {
		if op.DeltaCollateral.Sign() <= 0 || op.DeltaDebt.Sign() <= 0 {
			return chainerr.New(chainerr.Validation, "call_order_update", "opening a call order requires positive collateral and debt")
		}
		collBal, err := balanceField(acct, op.CollateralAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		if err != nil {
			return err
		}
		if collBal.Cmp(op.DeltaCollateral) < 0 {
			return chainerr.Wrap(chainerr.Precondition, "call_order_update", chainerr.ErrInsufficientFund)
		}
		ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
			b, _ := balanceField(a, op.CollateralAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
			b.Sub(b, op.DeltaCollateral)
			a.SBD.Add(a.SBD, op.DeltaDebt)
		})
		ctx.DB.AdjustSupply(op.DebtAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, op.DeltaDebt)
		call = ctx.DB.CallOrders.Create(&objectstore.CallOrder{}, func(c *objectstore.CallOrder) {
			c.Borrower = op.Borrower
			c.DebtAsset = op.DebtAsset
			c.Debt = new(big.Int).Set(op.DeltaDebt)
			c.CollateralAsset = op.CollateralAsset
			c.Collateral = new(big.Int).Set(op.DeltaCollateral)
			c.SetCallPrice(bit.MaintenanceCollateralRatio)
		})
	} else {
		newDebt := new(big.Int).Add(call.Debt, op.DeltaDebt)
		newCollateral := new(big.Int).Add(call.Collateral, op.DeltaCollateral)
		if newDebt.Sign() < 0 || newCollateral.Sign() < 0 {
			return chainerr.New(chainerr.Validation, "call_order_update", "update would underflow the position")
		}
		if op.DeltaDebt.Sign() > 0 {
			ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) { a.SBD.Add(a.SBD, op.DeltaDebt) })
			ctx.DB.AdjustSupply(op.DebtAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, op.DeltaDebt)
		} else if op.DeltaDebt.Sign() < 0 {
			owed := new(big.Int).Neg(op.DeltaDebt)
			if acct.SBD.Cmp(owed) < 0 {
				return chainerr.Wrap(chainerr.Precondition, "call_order_update", chainerr.ErrInsufficientFund)
			}
			ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) { a.SBD.Sub(a.SBD, owed) })
			ctx.DB.AdjustSupply(op.DebtAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, op.DeltaDebt)
		}
		if op.DeltaCollateral.Sign() != 0 {
			ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
				b, _ := balanceField(a, op.CollateralAsset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
				b.Sub(b, op.DeltaCollateral)
			})
		}
		if newDebt.Sign() == 0 {
			ctx.DB.CallOrders.Remove(call)
			return nil
		}
		ctx.DB.CallOrders.Modify(call, func(c *objectstore.CallOrder) {
			c.Debt = newDebt
			c.Collateral = newCollateral
			c.SetCallPrice(bit.MaintenanceCollateralRatio)
		})
	}

	mcr := bit.MaintenanceCollateralRatio
	ratio := call.CollateralRatio()
	minRatio := big.NewRat(int64(mcr), 10000)
	if ratio.Cmp(minRatio) < 0 {
		return chainerr.New(chainerr.BlackSwan, "call_order_update", "resulting position falls below the maintenance collateral ratio")
	}
	return nil
}
