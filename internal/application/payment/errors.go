package payment

import "errors"

var (
	ErrBridgeTimeout    = errors.New("payment record not available before grace period elapsed")
	ErrWorkflowNotFound = errors.New("payment workflow not found")
	ErrWorkflowStarted  = errors.New("payment workflow already started")
	ErrNotCancellable   = errors.New("only pending credit card payments can be cancelled")
)
