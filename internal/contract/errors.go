package contract

import (
	"errors"
	"fmt"
)

// ErrUnavailable is matched by read failures that persisted through every
// retry. Aggregation callers degrade to zero/empty values on it.
var ErrUnavailable = errors.New("contract unavailable")

// Reasons carried by NotConnectedError.
var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrWrongNetwork = errors.New("wrong network")
)

// TimeoutError is returned when a read or a receipt wait could not complete.
type TimeoutError struct {
	Method string
	TxHash string // set when waiting for a receipt
	Err    error
}

func (e *TimeoutError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("%s: timed out waiting for receipt of %s: %v", e.Method, e.TxHash, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrUnavailable
}

// NotConnectedError blocks state-changing calls until a wallet session exists
// on the expected network.
type NotConnectedError struct {
	Reason error // ErrNotConnected or ErrWrongNetwork
	Detail string
}

func (e *NotConnectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s", e.Reason, e.Detail)
	}
	return e.Reason.Error()
}

func (e *NotConnectedError) Unwrap() error { return e.Reason }

// TransactionError reports a rejected or reverted write.
type TransactionError struct {
	Method string
	TxHash string // empty when the node rejected the submission
	Reason string // revert reason when decodable
	Err    error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("%s: transaction failed", e.Method)
	if e.TxHash != "" {
		msg += " (" + e.TxHash + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransactionError) Unwrap() error { return e.Err }
