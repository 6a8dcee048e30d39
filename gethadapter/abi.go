package gethadapter

import (
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// abiUnpackRevert decodes returnData as a standard Solidity
// Error(string) revert payload via go-ethereum's accounts/abi package.
func abiUnpackRevert(returnData []byte) (string, error) {
	return gethabi.UnpackRevert(returnData)
}
