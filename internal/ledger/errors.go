package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrRetriesExhausted is matched by every error returned after all retry
// attempts of a read call failed transiently.
var ErrRetriesExhausted = errors.New("max retries exceeded")

// RetryError carries the last transient failure of an exhausted call.
type RetryError struct {
	Method   string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: max retries exceeded after %d attempts: %v", e.Method, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRetriesExhausted) true.
func (e *RetryError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// RPCError represents a JSON-RPC 2.0 error object. RPC errors are not retried.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// ErrorData returns the raw data field.
func (e *RPCError) ErrorData() interface{} {
	return e.Data
}

// RevertData returns the ABI-encoded revert payload carried in the data field,
// or nil when the error is not an execution revert.
func (e *RPCError) RevertData() []byte {
	s, ok := e.Data.(string)
	if !ok || !strings.HasPrefix(s, "0x") {
		return nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil
	}
	return b
}
