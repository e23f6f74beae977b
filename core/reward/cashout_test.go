package reward

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"chainforge/core/objectstore"
)

func newCashoutFund(rewardBalance int64) *objectstore.RewardFund {
	f := &objectstore.RewardFund{
		RewardBalance:   big.NewInt(rewardBalance),
		ContentConstant: big.NewInt(2_000_000_000_000),
	}
	f.RecentClaims = CalculateVShares(big.NewInt(1_000_000_000), f.ContentConstant)
	return f
}

// TestCashoutDefaultPercentSteemDollarsSplitsEvenly pins down
// percent_steem_dollars' doubled scale: the evaluator default of 10000
// (core/evaluator/content.go) must produce an even 50/50 author split
// between SBD and vesting, not 100% SBD.
func TestCashoutDefaultPercentSteemDollarsSplitsEvenly(t *testing.T) {
	fund := newCashoutFund(100_000)
	c := &objectstore.Comment{
		NetRshares:          big.NewInt(1_000_000_000),
		PercentSteemDollars: 10000,
		AllowCuration:       true,
	}

	res := Cashout(c, fund, 2500)

	require.Equal(t, "37500", res.AuthorSBD.String())
	require.Equal(t, "37500", res.AuthorVesting.String())
	require.Equal(t, "25000", res.CuratorVesting.String())
}

// TestCashoutPartialPercentSteemDollars confirms the halving applies to any
// configured percent_steem_dollars, not just the 10000 default: 8000 (80%
// on the doubled scale) must yield 40% SBD / 60% vesting of the author's
// share, matching original_source's
// `sbd_steem = author_tokens * percent_steem_dollars / (2 * 100_percent)`.
func TestCashoutPartialPercentSteemDollars(t *testing.T) {
	fund := newCashoutFund(100_000)
	c := &objectstore.Comment{
		NetRshares:          big.NewInt(1_000_000_000),
		PercentSteemDollars: 8000,
		AllowCuration:       true,
	}

	res := Cashout(c, fund, 2500)

	require.Equal(t, "30000", res.AuthorSBD.String())
	require.Equal(t, "45000", res.AuthorVesting.String())
}

// TestCashoutZeroPercentSteemDollarsIsAllVesting confirms 0 pays the whole
// author share as vesting, the other end of the doubled scale.
func TestCashoutZeroPercentSteemDollarsIsAllVesting(t *testing.T) {
	fund := newCashoutFund(100_000)
	c := &objectstore.Comment{
		NetRshares:          big.NewInt(1_000_000_000),
		PercentSteemDollars: 0,
		AllowCuration:       true,
	}

	res := Cashout(c, fund, 2500)

	require.Equal(t, "0", res.AuthorSBD.String())
	require.Equal(t, "75000", res.AuthorVesting.String())
}
