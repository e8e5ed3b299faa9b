package signer

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

// Transport is the Bluetooth link to a hardware signing device. The concrete
// BLE implementation lives outside this core; tests use a fake.
type Transport interface {
	Connect(ctx context.Context) error
	Connected() bool
	// Exchange sends one APDU frame and returns the raw device reply,
	// including the trailing status word.
	Exchange(ctx context.Context, apdu []byte) ([]byte, error)
}

// APDU framing for the signing app. Payloads larger than one frame are
// split into chunks flagged through P1/P2, following the usual ledger-style
// wire protocol.
const (
	claWallet byte = 0x80
	insSign   byte = 0x08

	p1FirstChunk byte = 0x00
	p1MoreChunks byte = 0x80
	p2LastChunk  byte = 0x00
	p2MoreChunks byte = 0x80

	maxChunkSize = 250
)

// Device status words.
const (
	swOK            uint16 = 0x9000
	swUserRejected  uint16 = 0x6985
	swAppNotOpen    uint16 = 0x6d00
	swClaNotEnabled uint16 = 0x6e00
)

// HardwareSigner drives a Bluetooth-connected signing device. Faults the
// device itself reports become typed errors; transport-level failures are
// returned raw and normalized by signererr.Sanitize at the boundary.
type HardwareSigner struct {
	transport Transport
}

func NewHardwareSigner(transport Transport) *HardwareSigner {
	return &HardwareSigner{transport: transport}
}

func (h *HardwareSigner) Available() bool {
	return h.transport.Connected()
}

// Sign sends the transaction to the device and waits for the user to confirm
// on it. There is no cancellation channel: the only way out of a pending
// prompt is the device reporting approval or rejection.
func (h *HardwareSigner) Sign(ctx context.Context, tx []byte, address string, cred *types.Credential) ([]byte, error) {
	if !h.transport.Connected() {
		if err := h.transport.Connect(ctx); err != nil {
			return nil, signererr.Wrap(signererr.CodeDeviceNotConnected,
				"signing device is not connected", err)
		}
	}

	reply, err := h.exchangeSign(ctx, tx)
	if err != nil {
		return nil, err
	}

	if len(reply) < 2 {
		return nil, fmt.Errorf("malformed device reply: %d bytes", len(reply))
	}
	sw := binary.BigEndian.Uint16(reply[len(reply)-2:])
	payload := reply[:len(reply)-2]

	switch sw {
	case swOK:
		// fall through to the signature checks below
	case swUserRejected:
		return nil, signererr.New(signererr.CodeUserRejected, "transaction rejected on device")
	case swAppNotOpen, swClaNotEnabled:
		return nil, signererr.New(signererr.CodeSigningAppNotOpen, "signing app is not open on device")
	default:
		return nil, fmt.Errorf("device returned status 0x%04x", sw)
	}

	if len(payload) != ed25519.SignatureSize {
		return nil, fmt.Errorf("device returned %d-byte signature, want %d",
			len(payload), ed25519.SignatureSize)
	}
	logger.Debug("Device produced signature", "address", address, "txBytes", len(tx))
	return payload, nil
}

// exchangeSign streams the transaction to the device in chunks. Only the
// final frame's reply carries the signature.
func (h *HardwareSigner) exchangeSign(ctx context.Context, tx []byte) ([]byte, error) {
	var reply []byte
	for offset := 0; offset < len(tx) || offset == 0; offset += maxChunkSize {
		end := offset + maxChunkSize
		if end > len(tx) {
			end = len(tx)
		}
		chunk := tx[offset:end]

		p1 := p1MoreChunks
		if offset == 0 {
			p1 = p1FirstChunk
		}
		p2 := p2MoreChunks
		if end == len(tx) {
			p2 = p2LastChunk
		}

		apdu := make([]byte, 0, 5+len(chunk))
		apdu = append(apdu, claWallet, insSign, p1, p2, byte(len(chunk)))
		apdu = append(apdu, chunk...)

		var err error
		reply, err = h.transport.Exchange(ctx, apdu)
		if err != nil {
			return nil, err
		}
	}
	return reply, nil
}
