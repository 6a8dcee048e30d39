package evmcore

import "math/big"

func weiEther(n int64) *big.Int {
	v := big.NewInt(n)
	return v.Mul(v, big.NewInt(1_000_000_000_000_000_000))
}

func bigMul(a, b int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
}
