package objectstore

import "math/big"

func bigZero() *big.Int    { return big.NewInt(0) }
func bigRatZero() *big.Rat { return new(big.Rat) }
