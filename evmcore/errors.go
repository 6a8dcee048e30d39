package evmcore

import (
	"errors"
	"fmt"

	"github.com/primablock/parables/executor"
	"github.com/primablock/parables/types"
)

// Evm errors.
var (
	ErrDeployReverted = errors.New("evmcore: deploy reverted")
	ErrDeployFailed   = errors.New("evmcore: deploy failed")
)

// DeployRevertedError carries the revert detail for a failed deploy. Wraps
// ErrDeployReverted so callers can use errors.Is(err, ErrDeployReverted).
type DeployRevertedError struct {
	Output  types.Bytes
	Reason  *string
	GasUsed types.U256
}

func (e *DeployRevertedError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("evmcore: deploy reverted: %s", *e.Reason)
	}
	return "evmcore: deploy reverted"
}

func (e *DeployRevertedError) Unwrap() error { return ErrDeployReverted }

// DeployFailedError carries the VM failure detail for a failed deploy.
// Wraps ErrDeployFailed.
type DeployFailedError struct {
	Kind    executor.FailureKind
	GasUsed types.U256
}

func (e *DeployFailedError) Error() string {
	return fmt.Sprintf("evmcore: deploy failed: %s", e.Kind)
}

func (e *DeployFailedError) Unwrap() error { return ErrDeployFailed }
