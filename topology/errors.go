package topology

import (
	"fmt"
	"net/http"

	"bitsyflow/core/errors"
)

// Compile-time error codes. All are caller mistakes, not runtime failures,
// so every constructor below maps to http.StatusBadRequest and is
// non-retryable, following the same convention as errors.InvalidInput.
const (
	ErrCodeDuplicateName     errors.ErrorCode = "TOPOLOGY_DUPLICATE_NAME"
	ErrCodeUnknownDependency errors.ErrorCode = "TOPOLOGY_UNKNOWN_DEPENDENCY"
	ErrCodeCycleDetected     errors.ErrorCode = "TOPOLOGY_CYCLE_DETECTED"
	ErrCodeReservedName      errors.ErrorCode = "TOPOLOGY_RESERVED_NAME"
	ErrCodeInvalidPolling    errors.ErrorCode = "TOPOLOGY_INVALID_POLLING"
)

// DuplicateNameError reports that two nodes were added with the same name.
func DuplicateNameError(name string) *errors.AppError {
	return &errors.AppError{
		Code:       ErrCodeDuplicateName,
		Message:    fmt.Sprintf("node %q was added more than once", name),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"name": name},
	}
}

// UnknownDependencyError reports a needs/needs_all reference to a node that
// was never added.
func UnknownDependencyError(node, dependency string) *errors.AppError {
	return &errors.AppError{
		Code:       ErrCodeUnknownDependency,
		Message:    fmt.Sprintf("node %q needs unknown node %q", node, dependency),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"node": node, "dependency": dependency},
	}
}

// CycleDetectedError reports that the declared needs edges are not acyclic.
func CycleDetectedError(remaining []string) *errors.AppError {
	return &errors.AppError{
		Code:       ErrCodeCycleDetected,
		Message:    "flow contains a cycle and cannot be compiled",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"unresolved": remaining},
	}
}

// ReservedNameError reports an attempt to name a user node after a
// reserved identifier.
func ReservedNameError(name string) *errors.AppError {
	return &errors.AppError{
		Code:       ErrCodeReservedName,
		Message:    fmt.Sprintf("%q is a reserved node name", name),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"name": name},
	}
}

// InvalidPollingError reports a malformed polling policy entry.
func InvalidPollingError(node, endpoint string, mode PollMode) *errors.AppError {
	return &errors.AppError{
		Code:       ErrCodeInvalidPolling,
		Message:    fmt.Sprintf("node %q has invalid polling mode %q for endpoint %q", node, mode, endpoint),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"node": node, "endpoint": endpoint, "mode": mode},
	}
}
