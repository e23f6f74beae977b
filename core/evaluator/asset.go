package evaluator

import (
	"math/big"

	"chainforge/core/chainerr"
	"chainforge/core/objectstore"
	"chainforge/core/types"
)

func registerAssetOps(r *Registry) {
	r.register(types.OpAssetCreate, evalAssetCreate)
	r.register(types.OpAssetIssue, evalAssetIssue)
	r.register(types.OpAssetReserve, evalAssetReserve)
	r.register(types.OpAssetUpdate, evalAssetUpdate)
	r.register(types.OpAssetUpdateBitasset, evalAssetUpdateBitasset)
	r.register(types.OpAssetUpdateFeedProducers, evalAssetUpdateFeedProducers)
	r.register(types.OpAssetFundFeePool, evalAssetFundFeePool)
	r.register(types.OpAssetGlobalSettle, evalAssetGlobalSettle)
	r.register(types.OpAssetSettle, evalAssetSettle)
	r.register(types.OpAssetForceSettle, evalAssetForceSettle)
	r.register(types.OpAssetPublishFeeds, evalAssetPublishFeeds)
	r.register(types.OpAssetClaimFees, evalAssetClaimFees)
}

func wireOptions(w types.AssetOptionsWire) objectstore.AssetOptions {
	whitelist := map[string]bool(nil)
	if len(w.Whitelist) > 0 {
		whitelist = make(map[string]bool, len(w.Whitelist))
		for _, name := range w.Whitelist {
			whitelist[name] = true
		}
	}
	return objectstore.AssetOptions{
		MaxSupply:          w.MaxSupply,
		MarketFeePercent:   w.MarketFeePercent,
		MaxMarketFee:       w.MaxMarketFee,
		Whitelist:          whitelist,
		IsPredictionMarket: w.IsPredictionMarket,
	}
}

func evalAssetCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetCreateOp)
	if _, ok := ctx.DB.Accounts.Find("by_name", op.Issuer); !ok {
		return chainerr.New(chainerr.Precondition, "asset_create", "unknown issuer %s", op.Issuer)
	}
	if _, exists := ctx.DB.Assets.Find("by_symbol", op.Symbol); exists {
		return chainerr.Wrap(chainerr.Precondition, "asset_create", chainerr.ErrDuplicate)
	}
	if op.IsMarketIssued {
		if _, ok := ctx.DB.Assets.Find("by_symbol", op.BackingAsset); !ok {
			return chainerr.New(chainerr.Precondition, "asset_create", "unknown backing asset %s", op.BackingAsset)
		}
	}
	ctx.DB.Assets.Create(&objectstore.Asset{}, func(a *objectstore.Asset) {
		a.Symbol = op.Symbol
		a.Issuer = op.Issuer
		a.Precision = op.Precision
		a.Options = wireOptions(op.Options)
		a.IsMarketIssued = op.IsMarketIssued
		a.BackingAsset = op.BackingAsset
	})
	ctx.DB.AssetDynamic.Create(&objectstore.AssetDynamicData{}, func(d *objectstore.AssetDynamicData) {
		d.Asset = op.Symbol
		d.CurrentSupply = big.NewInt(0)
		d.AccumulatedFees = big.NewInt(0)
		d.FeePool = big.NewInt(0)
	})
	if op.IsMarketIssued {
		ctx.DB.BitAssets.Create(&objectstore.AssetBitAssetData{}, func(b *objectstore.AssetBitAssetData) {
			b.Asset = op.Symbol
			b.FeedProducers = map[string]bool{}
			b.Feeds = map[string]*big.Rat{}
			b.CurrentFeed = big.NewRat(0, 1)
			b.MaintenanceCollateralRatio = op.MCRBp
			b.MaxShortSqueezeRatio = op.MSSRBp
		})
	}
	return nil
}

func evalAssetIssue(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetIssueOp)
	asset, ok := ctx.DB.Assets.Find("by_symbol", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_issue", "unknown asset %s", op.Asset)
	}
	if asset.Issuer != op.Issuer {
		return chainerr.New(chainerr.AuthorityMissing, "asset_issue", "%s is not the issuer of %s", op.Issuer, op.Asset)
	}
	if asset.IsMarketIssued {
		return chainerr.New(chainerr.Validation, "asset_issue", "market-issued assets cannot be issued directly")
	}
	dyn, _ := ctx.DB.AssetDynamic.Find("by_asset", op.Asset)
	newSupply := new(big.Int).Add(dyn.CurrentSupply, op.Amount)
	if asset.Options.MaxSupply != nil && asset.Options.MaxSupply.Sign() > 0 && newSupply.Cmp(asset.Options.MaxSupply) > 0 {
		return chainerr.New(chainerr.Validation, "asset_issue", "issuance exceeds max_supply")
	}
	receiver, ok := ctx.DB.Accounts.Find("by_name", op.IssueTo)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_issue", "unknown account %s", op.IssueTo)
	}
	ctx.DB.Accounts.Modify(receiver, func(a *objectstore.Account) {
		if op.Asset == ctx.Params.BaseAsset {
			a.Liquid.Add(a.Liquid, op.Amount)
		} else if op.Asset == ctx.Params.DebtAsset {
			a.SBD.Add(a.SBD, op.Amount)
		}
	})
	ctx.DB.AdjustSupply(op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, op.Amount)
	return nil
}

func evalAssetReserve(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetReserveOp)
	dyn, ok := ctx.DB.AssetDynamic.Find("by_asset", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_reserve", "unknown asset %s", op.Asset)
	}
	payer, ok := ctx.DB.Accounts.Find("by_name", op.Payer)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_reserve", "unknown account %s", op.Payer)
	}
	bal, err := balanceField(payer, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
	if err != nil {
		return err
	}
	if bal.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "asset_reserve", chainerr.ErrInsufficientFund)
	}
	if dyn.CurrentSupply.Cmp(op.Amount) < 0 {
		return chainerr.New(chainerr.Validation, "asset_reserve", "reserving more than current supply")
	}
	ctx.DB.Accounts.Modify(payer, func(a *objectstore.Account) {
		b, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Sub(b, op.Amount)
	})
	ctx.DB.AdjustSupply(op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset, new(big.Int).Neg(op.Amount))
	return nil
}

func evalAssetUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetUpdateOp)
	asset, ok := ctx.DB.Assets.Find("by_symbol", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_update", "unknown asset %s", op.Asset)
	}
	if asset.Issuer != op.Issuer {
		return chainerr.New(chainerr.AuthorityMissing, "asset_update", "%s is not the issuer of %s", op.Issuer, op.Asset)
	}
	if op.NewIssuer != "" {
		if _, ok := ctx.DB.Accounts.Find("by_name", op.NewIssuer); !ok {
			return chainerr.New(chainerr.Precondition, "asset_update", "unknown account %s", op.NewIssuer)
		}
	}
	ctx.DB.Assets.Modify(asset, func(a *objectstore.Asset) {
		a.Options = wireOptions(op.Options)
		if op.NewIssuer != "" {
			a.Issuer = op.NewIssuer
		}
	})
	return nil
}

func evalAssetUpdateBitasset(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetUpdateBitassetOp)
	asset, ok := ctx.DB.Assets.Find("by_symbol", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_update_bitasset", "unknown asset %s", op.Asset)
	}
	if asset.Issuer != op.Issuer {
		return chainerr.New(chainerr.AuthorityMissing, "asset_update_bitasset", "%s is not the issuer of %s", op.Issuer, op.Asset)
	}
	bit, ok := ctx.DB.BitAssets.Find("by_asset", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Validation, "asset_update_bitasset", "%s is not market-issued", op.Asset)
	}
	if bit.HasSettlement {
		return chainerr.New(chainerr.Precondition, "asset_update_bitasset", "asset has already been globally settled")
	}
	ctx.DB.BitAssets.Modify(bit, func(b *objectstore.AssetBitAssetData) {
		b.MaintenanceCollateralRatio = op.MCRBp
		b.MaxShortSqueezeRatio = op.MSSRBp
	})
	return nil
}

func evalAssetUpdateFeedProducers(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetUpdateFeedProducersOp)
	asset, ok := ctx.DB.Assets.Find("by_symbol", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_update_feed_producers", "unknown asset %s", op.Asset)
	}
	if asset.Issuer != op.Issuer {
		return chainerr.New(chainerr.AuthorityMissing, "asset_update_feed_producers", "%s is not the issuer of %s", op.Issuer, op.Asset)
	}
	bit, ok := ctx.DB.BitAssets.Find("by_asset", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Validation, "asset_update_feed_producers", "%s is not market-issued", op.Asset)
	}
	producers := make(map[string]bool, len(op.FeedProducers))
	for _, name := range op.FeedProducers {
		if _, ok := ctx.DB.Accounts.Find("by_name", name); !ok {
			return chainerr.New(chainerr.Precondition, "asset_update_feed_producers", "unknown account %s", name)
		}
		producers[name] = true
	}
	ctx.DB.BitAssets.Modify(bit, func(b *objectstore.AssetBitAssetData) {
		b.FeedProducers = producers
		for k := range b.Feeds {
			if !producers[k] {
				delete(b.Feeds, k)
			}
		}
		b.CurrentFeed = medianFeed(b.Feeds)
	})
	return nil
}

func evalAssetFundFeePool(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetFundFeePoolOp)
	payer, ok := ctx.DB.Accounts.Find("by_name", op.Payer)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_fund_fee_pool", "unknown account %s", op.Payer)
	}
	dyn, ok := ctx.DB.AssetDynamic.Find("by_asset", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_fund_fee_pool", "unknown asset %s", op.Asset)
	}
	if payer.Liquid.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "asset_fund_fee_pool", chainerr.ErrInsufficientFund)
	}
	ctx.DB.Accounts.Modify(payer, func(a *objectstore.Account) { a.Liquid.Sub(a.Liquid, op.Amount) })
	ctx.DB.AssetDynamic.Modify(dyn, func(d *objectstore.AssetDynamicData) { d.FeePool.Add(d.FeePool, op.Amount) })
	return nil
}

func evalAssetGlobalSettle(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetGlobalSettleOp)
	asset, ok := ctx.DB.Assets.Find("by_symbol", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_global_settle", "unknown asset %s", op.Asset)
	}
	if asset.Issuer != op.Issuer {
		return chainerr.New(chainerr.AuthorityMissing, "asset_global_settle", "%s is not the issuer of %s", op.Issuer, op.Asset)
	}
	bit, ok := ctx.DB.BitAssets.Find("by_asset", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Validation, "asset_global_settle", "%s is not market-issued", op.Asset)
	}
	if bit.HasSettlement {
		return chainerr.Wrap(chainerr.Precondition, "asset_global_settle", chainerr.ErrDuplicate)
	}
	if op.SettlePriceDen == nil || op.SettlePriceDen.Sign() == 0 {
		return chainerr.New(chainerr.Validation, "asset_global_settle", "settlement price denominator must be non-zero")
	}
	price := new(big.Rat).SetFrac(op.SettlePriceNum, op.SettlePriceDen)

	fund := big.NewInt(0)
	for _, call := range ctx.DB.CallOrders.FindAll("by_debt_asset", op.Asset) {
		fund.Add(fund, call.Collateral)
		ctx.DB.CallOrders.Remove(call)
	}
	ctx.DB.BitAssets.Modify(bit, func(b *objectstore.AssetBitAssetData) {
		b.HasSettlement = true
		b.SettlementPrice = price
		b.SettlementFund = fund
	})
	return nil
}

func evalAssetSettle(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetSettleOp)
	bit, ok := ctx.DB.BitAssets.Find("by_asset", op.Asset)
	if !ok || !bit.HasSettlement {
		return chainerr.New(chainerr.Precondition, "settle", "%s has not been globally settled", op.Asset)
	}
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "settle", "unknown account %s", op.Account)
	}
	if acct.SBD.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "settle", chainerr.ErrInsufficientFund)
	}
	payout := new(big.Rat).SetInt(op.Amount)
	payout.Mul(payout, bit.SettlementPrice)
	payoutAmount := new(big.Int).Quo(payout.Num(), payout.Denom())
	if payoutAmount.Cmp(bit.SettlementFund) > 0 {
		payoutAmount = new(big.Int).Set(bit.SettlementFund)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) {
		a.SBD.Sub(a.SBD, op.Amount)
		a.Liquid.Add(a.Liquid, payoutAmount)
	})
	ctx.DB.BitAssets.Modify(bit, func(b *objectstore.AssetBitAssetData) { b.SettlementFund.Sub(b.SettlementFund, payoutAmount) })
	return nil
}

func evalAssetForceSettle(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetForceSettleOp)
	acct, ok := ctx.DB.Accounts.Find("by_name", op.Account)
	if !ok {
		return chainerr.New(chainerr.Precondition, "force_settle", "unknown account %s", op.Account)
	}
	if _, ok := ctx.DB.BitAssets.Find("by_asset", op.Asset); !ok {
		return chainerr.New(chainerr.Precondition, "force_settle", "%s is not market-issued", op.Asset)
	}
	if acct.SBD.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "force_settle", chainerr.ErrInsufficientFund)
	}
	ctx.DB.Accounts.Modify(acct, func(a *objectstore.Account) { a.SBD.Sub(a.SBD, op.Amount) })

	settlementID := uint32(ctx.Now)
	for {
		if _, exists := ctx.DB.Settlements.Find("by_owner_id", op.Account+"\x00"+itoa64(uint64(settlementID))); !exists {
			break
		}
		settlementID++
	}
	ctx.DB.Settlements.Create(&objectstore.ForceSettlement{}, func(s *objectstore.ForceSettlement) {
		s.Owner = op.Account
		s.SettlementID = settlementID
		s.Asset = op.Asset
		s.Balance = new(big.Int).Set(op.Amount)
		s.Requested = ctx.Now
	})
	return nil
}

func evalAssetPublishFeeds(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetPublishFeedsOp)
	return evalFeedPublish(ctx, types.FeedPublishOp{Publisher: op.Publisher, ExchangeRate: new(big.Rat).SetFrac(op.FeedNum, op.FeedDen)})
}

func evalAssetClaimFees(ctx *Context, operation types.Operation) error {
	op := operation.(types.AssetClaimFeesOp)
	asset, ok := ctx.DB.Assets.Find("by_symbol", op.Asset)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_claim_fees", "unknown asset %s", op.Asset)
	}
	if asset.Issuer != op.Issuer {
		return chainerr.New(chainerr.AuthorityMissing, "asset_claim_fees", "%s is not the issuer of %s", op.Issuer, op.Asset)
	}
	dyn, _ := ctx.DB.AssetDynamic.Find("by_asset", op.Asset)
	if dyn.AccumulatedFees.Cmp(op.Amount) < 0 {
		return chainerr.Wrap(chainerr.Precondition, "asset_claim_fees", chainerr.ErrInsufficientFund)
	}
	issuer, ok := ctx.DB.Accounts.Find("by_name", op.Issuer)
	if !ok {
		return chainerr.New(chainerr.Precondition, "asset_claim_fees", "unknown account %s", op.Issuer)
	}
	ctx.DB.AssetDynamic.Modify(dyn, func(d *objectstore.AssetDynamicData) { d.AccumulatedFees.Sub(d.AccumulatedFees, op.Amount) })
	ctx.DB.Accounts.Modify(issuer, func(a *objectstore.Account) {
		b, _ := balanceField(a, op.Asset, ctx.Params.BaseAsset, ctx.Params.DebtAsset)
		b.Add(b, op.Amount)
	})
	return nil
}
