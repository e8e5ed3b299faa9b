// Package signing drives signature production for one request at a time:
// validate, authenticate, sign with the account's backend, and report
// phase-by-phase progress through caller-supplied callbacks. Every call ends
// in exactly one terminal outcome.
package signing

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

// TransferExecutor signs and submits a transfer transaction. Network
// submission and fee construction live behind this boundary.
type TransferExecutor interface {
	Execute(ctx context.Context, params *types.TransferParams, account *types.Account,
		cred *types.Credential, cb *types.ExecutorCallbacks) (string, error)
}

// RekeyExecutor signs and submits a rekey transaction. A nil RekeyToAddress
// reverses a previous rekey back to the account's own key.
type RekeyExecutor interface {
	Rekey(ctx context.Context, params *types.RekeyParams, account *types.Account,
		cred *types.Credential, cb *types.ExecutorCallbacks) (string, error)
}

// KeyManager signs decoded transaction bytes with the backend holding the
// key for the signer address.
type KeyManager interface {
	Sign(ctx context.Context, tx []byte, address string, cred *types.Credential) ([]byte, error)
}

// Authenticator verifies an account's credential without signing anything.
type Authenticator interface {
	Authenticate(ctx context.Context, account *types.Account, cred *types.Credential) error
}

// Orchestrator is the single entry point for signing. It holds no state
// between calls; one long-lived instance is shared across the application.
type Orchestrator struct {
	transfers TransferExecutor
	rekeys    RekeyExecutor
	keys      KeyManager
	auth      Authenticator
}

func New(transfers TransferExecutor, rekeys RekeyExecutor, keys KeyManager, auth Authenticator) *Orchestrator {
	return &Orchestrator{
		transfers: transfers,
		rekeys:    rekeys,
		keys:      keys,
		auth:      auth,
	}
}

// SignTransaction runs the linear pipeline Validating, Authenticating,
// Signing, Complete, with the error exit reachable from every phase. On
// failure the error is delivered through both OnError/OnComplete and the
// returned error, so callers relying on either mechanism observe the same
// terminal outcome. OnComplete fires exactly once per call.
func (o *Orchestrator) SignTransaction(ctx context.Context, req *types.SigningRequest, cb *types.SigningCallbacks) (*types.SigningResult, error) {
	// Validation short-circuits before Authenticating: a request that was
	// never going to be valid must not trigger auth side effects.
	if vErr := validate(req); vErr != nil {
		return o.fail(cb, &types.SigningResult{Success: false, Err: vErr}, vErr)
	}

	cb.EmitAuthStart()
	if o.auth != nil {
		if err := o.auth.Authenticate(ctx, req.Account, req.Credential); err != nil {
			sErr := signererr.Sanitize(err)
			cb.EmitAuthError(sErr)
			return o.fail(cb, &types.SigningResult{Success: false, Err: sErr}, sErr)
		}
	}
	cb.EmitAuthSuccess()

	cb.EmitSigningStart()
	result, sErr := o.dispatch(ctx, req, cb)
	if sErr != nil {
		return o.fail(cb, result, sErr)
	}

	cb.EmitComplete(result)
	return result, nil
}

func (o *Orchestrator) fail(cb *types.SigningCallbacks, result *types.SigningResult, sErr *signererr.Error) (*types.SigningResult, error) {
	logger.Warn("Signing attempt failed", "code", string(sErr.Code), "reason", sErr.Message)
	cb.EmitError(sErr)
	cb.EmitComplete(result)
	return result, sErr
}

func (o *Orchestrator) dispatch(ctx context.Context, req *types.SigningRequest, cb *types.SigningCallbacks) (*types.SigningResult, *signererr.Error) {
	switch req.Type {
	case types.TxTypeNativeTransfer, types.TxTypeTokenTransfer,
		types.TxTypeContractTokenTransfer, types.TxTypeNFTTransfer:
		return o.signTransfer(ctx, req, cb)
	case types.TxTypeRekey, types.TxTypeRekeyReverse:
		return o.signRekey(ctx, req, cb)
	case types.TxTypeBatchSign:
		return o.signBatch(ctx, req, cb)
	default:
		// validate guarantees a supported type; keep the closed switch honest.
		sErr := signererr.New(signererr.CodeValidation,
			fmt.Sprintf("unsupported transaction type %q", req.Type))
		return &types.SigningResult{Success: false, Err: sErr}, sErr
	}
}

// signTransfer delegates signing and network submission to the transfer
// executor, forwarding only the device and network callbacks.
func (o *Orchestrator) signTransfer(ctx context.Context, req *types.SigningRequest, cb *types.SigningCallbacks) (*types.SigningResult, *signererr.Error) {
	if o.transfers == nil {
		// A headless deployment wires no transfer executor; resolve through
		// the normal error exit instead of panicking.
		sErr := signererr.New(signererr.CodeValidation, "transfer execution is not available")
		return &types.SigningResult{Success: false, Err: sErr}, sErr
	}
	txID, err := o.transfers.Execute(ctx, req.Transfer, req.Account, req.Credential, cb.ExecutorSubset())
	if err != nil {
		sErr := signererr.Sanitize(err)
		return &types.SigningResult{Success: false, Err: sErr}, sErr
	}
	return &types.SigningResult{Success: true, TxID: txID}, nil
}

func (o *Orchestrator) signRekey(ctx context.Context, req *types.SigningRequest, cb *types.SigningCallbacks) (*types.SigningResult, *signererr.Error) {
	if o.rekeys == nil {
		sErr := signererr.New(signererr.CodeValidation, "rekey execution is not available")
		return &types.SigningResult{Success: false, Err: sErr}, sErr
	}
	params := *req.Rekey
	if req.Type == types.TxTypeRekeyReverse {
		// Reversal re-signs with the account's own key; the target field is
		// meaningless here and must not reach the executor.
		params.RekeyToAddress = ""
	}
	txID, err := o.rekeys.Rekey(ctx, &params, req.Account, req.Credential, cb.ExecutorSubset())
	if err != nil {
		sErr := signererr.Sanitize(err)
		return &types.SigningResult{Success: false, Err: sErr}, sErr
	}
	return &types.SigningResult{Success: true, TxID: txID}, nil
}

// signBatch signs a peer-proposed transaction set in order. A single failing
// item aborts the whole batch: there is no partial success and no
// skip-and-continue. Signatures produced before the failing item stay in the
// failed result for inspection.
func (o *Orchestrator) signBatch(ctx context.Context, req *types.SigningRequest, cb *types.SigningCallbacks) (*types.SigningResult, *signererr.Error) {
	txns := req.Batch.Txns
	total := len(txns)

	signed := make([]string, 0, total)
	txIDs := make([]string, 0, total)

	for i := range txns {
		index := i + 1 // progress callbacks are 1-indexed
		cb.EmitDeviceAwait(index, total)

		raw, err := base64.StdEncoding.DecodeString(txns[i].TxnBase64)
		if err != nil {
			sErr := signererr.New(signererr.CodeValidation,
				fmt.Sprintf("transaction %d of %d is not valid base64", index, total))
			cb.EmitDeviceRejected(index, total, sErr)
			return &types.SigningResult{Success: false, SignedTxns: signed, Err: sErr}, sErr
		}

		address := txns[i].SignerAddress(req.Account)
		sig, err := o.keys.Sign(ctx, raw, address, req.Credential)
		if err != nil {
			sErr := signererr.Sanitize(err)
			cb.EmitDeviceRejected(index, total, sErr)
			return &types.SigningResult{Success: false, SignedTxns: signed, Err: sErr}, sErr
		}

		signed = append(signed, base64.StdEncoding.EncodeToString(sig))
		txIDs = append(txIDs, transactionID(raw))
		cb.EmitDeviceSigned(index, total)
	}

	return &types.SigningResult{Success: true, TxIDs: txIDs, SignedTxns: signed}, nil
}
