package types

import "github.com/xarmian/voi-wallet-sub008/pkg/signererr"

// SigningCallbacks is the caller-supplied bundle of optional phase hooks.
// Nil hooks are skipped. OnComplete is invoked exactly once per signing
// attempt; every other hook fires zero or more times.
type SigningCallbacks struct {
	OnAuthStart   func()
	OnAuthSuccess func()
	OnAuthError   func(err *signererr.Error)

	OnSigningStart func()

	// Device hooks report per-item progress with a 1-indexed position.
	OnDeviceAwait    func(index, total int)
	OnDeviceSigned   func(index, total int)
	OnDeviceRejected func(index, total int, err *signererr.Error)

	OnNetworkSubmit    func()
	OnNetworkConfirmed func(txID string)
	OnNetworkError     func(err *signererr.Error)

	OnComplete func(result *SigningResult)
	OnError    func(err *signererr.Error)
}

// ExecutorCallbacks is the reduced subset forwarded to transfer and rekey
// executors: device prompts and network phases only.
type ExecutorCallbacks struct {
	OnDeviceAwait    func(index, total int)
	OnDeviceSigned   func(index, total int)
	OnDeviceRejected func(index, total int, err *signererr.Error)

	OnNetworkSubmit    func()
	OnNetworkConfirmed func(txID string)
	OnNetworkError     func(err *signererr.Error)
}

// ExecutorSubset extracts the reduced callback bundle for delegation.
func (c *SigningCallbacks) ExecutorSubset() *ExecutorCallbacks {
	if c == nil {
		return &ExecutorCallbacks{}
	}
	return &ExecutorCallbacks{
		OnDeviceAwait:      c.OnDeviceAwait,
		OnDeviceSigned:     c.OnDeviceSigned,
		OnDeviceRejected:   c.OnDeviceRejected,
		OnNetworkSubmit:    c.OnNetworkSubmit,
		OnNetworkConfirmed: c.OnNetworkConfirmed,
		OnNetworkError:     c.OnNetworkError,
	}
}

func (c *SigningCallbacks) EmitAuthStart() {
	if c != nil && c.OnAuthStart != nil {
		c.OnAuthStart()
	}
}

func (c *SigningCallbacks) EmitAuthSuccess() {
	if c != nil && c.OnAuthSuccess != nil {
		c.OnAuthSuccess()
	}
}

func (c *SigningCallbacks) EmitAuthError(err *signererr.Error) {
	if c != nil && c.OnAuthError != nil {
		c.OnAuthError(err)
	}
}

func (c *SigningCallbacks) EmitSigningStart() {
	if c != nil && c.OnSigningStart != nil {
		c.OnSigningStart()
	}
}

func (c *SigningCallbacks) EmitDeviceAwait(index, total int) {
	if c != nil && c.OnDeviceAwait != nil {
		c.OnDeviceAwait(index, total)
	}
}

func (c *SigningCallbacks) EmitDeviceSigned(index, total int) {
	if c != nil && c.OnDeviceSigned != nil {
		c.OnDeviceSigned(index, total)
	}
}

func (c *SigningCallbacks) EmitDeviceRejected(index, total int, err *signererr.Error) {
	if c != nil && c.OnDeviceRejected != nil {
		c.OnDeviceRejected(index, total, err)
	}
}

func (c *SigningCallbacks) EmitComplete(result *SigningResult) {
	if c != nil && c.OnComplete != nil {
		c.OnComplete(result)
	}
}

func (c *SigningCallbacks) EmitError(err *signererr.Error) {
	if c != nil && c.OnError != nil {
		c.OnError(err)
	}
}
