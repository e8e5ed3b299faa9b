package signererr

import "strings"

const (
	msgDeviceGuidance    = "unlock your device and open the signing app, then try again"
	msgBluetoothGuidance = "bluetooth connection failed, move closer to your device and try again"
	msgDeviceNotFound    = "signing device is not connected"
	msgUnknownFailure    = "unknown signing error"
)

// Sanitize collapses an arbitrary backend fault into the closed taxonomy.
// Rules are evaluated in order, first match wins:
//
//  1. Already-typed device/account faults pass through unchanged. User
//     rejection in particular is a legitimate terminal decision and is never
//     reworded.
//  2. Messages mentioning a timeout become device-unlock guidance.
//  3. Messages mentioning BLE become connectivity guidance.
//  4. Messages mentioning "not connected" or "not found" become a
//     device-not-connected error.
//  5. Any other error keeps its original message under CodeUnknown.
//  6. A nil fault becomes a generic unknown signing error.
//
// The mapping is pure: the same input always yields the same output.
func Sanitize(err error) *Error {
	if err == nil {
		return New(CodeUnknown, msgUnknownFailure)
	}

	if sErr, ok := FromError(err); ok {
		switch sErr.Code {
		case CodeDeviceNotConnected, CodeSigningAppNotOpen, CodeUserRejected, CodeAccount:
			return sErr
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return Wrap(CodeTransportTimeout, msgDeviceGuidance, err)
	case strings.Contains(msg, "ble"):
		return Wrap(CodeBluetoothUnavailable, msgBluetoothGuidance, err)
	case strings.Contains(msg, "not connected"), strings.Contains(msg, "not found"):
		return Wrap(CodeDeviceNotConnected, msgDeviceNotFound, err)
	}

	return Wrap(CodeUnknown, err.Error(), err)
}
