package objectstore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCallOrderSetCallPriceDerivesFromDebtAndCollateral confirms the
// derived call price tracks Debt*MCR/(Collateral*10000) and is stable
// under Clone, the same debt-per-collateral units AssetBitAssetData's
// CurrentFeed uses.
func TestCallOrderSetCallPriceDerivesFromDebtAndCollateral(t *testing.T) {
	c := &CallOrder{Debt: big.NewInt(100), Collateral: big.NewInt(160)}
	c.SetCallPrice(17500)

	require.Equal(t, big.NewRat(175, 160), c.CallPrice())

	clone := c.Clone()
	require.Equal(t, c.CallPrice(), clone.CallPrice())
}

// TestCallOrderCallPriceZeroUntilSet confirms a call order that never had
// SetCallPrice called on it (the zero value) reports a zero call price
// rather than panicking on a nil denominator.
func TestCallOrderCallPriceZeroUntilSet(t *testing.T) {
	c := &CallOrder{Debt: big.NewInt(100), Collateral: big.NewInt(160)}
	require.Equal(t, new(big.Rat), c.CallPrice())
}

// TestCallOrderSetCallPriceZeroCollateralIsZero confirms a position with
// no collateral left reports a zero call price instead of dividing by
// zero.
func TestCallOrderSetCallPriceZeroCollateralIsZero(t *testing.T) {
	c := &CallOrder{Debt: big.NewInt(100), Collateral: big.NewInt(0)}
	c.SetCallPrice(17500)
	require.Equal(t, 0, c.CallPrice().Sign())
}
