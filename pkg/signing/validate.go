package signing

import (
	"crypto/sha512"
	"encoding/base32"
	"fmt"

	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

// MinTxnFee is the network's flat minimum fee in microVOI.
const MinTxnFee uint64 = 1000

// txIDPrefix domain-separates the transaction hash, per AVM convention.
var txIDPrefix = []byte("TX")

var txIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// validate is the single source of truth for request shape: SignTransaction
// and ValidateTransaction both call it, so the two can never disagree.
func validate(req *types.SigningRequest) *signererr.Error {
	if req == nil {
		return signererr.New(signererr.CodeValidation, "missing signing request")
	}
	if req.Account == nil {
		return signererr.New(signererr.CodeValidation, "missing account")
	}

	switch req.Type {
	case types.TxTypeNativeTransfer, types.TxTypeTokenTransfer,
		types.TxTypeContractTokenTransfer, types.TxTypeNFTTransfer:
		if req.Transfer == nil {
			return signererr.New(signererr.CodeValidation,
				fmt.Sprintf("missing transfer parameters for type %q", req.Type))
		}
		if req.Rekey != nil || req.Batch != nil {
			return mismatchedVariant(req.Type)
		}

	case types.TxTypeRekey:
		if req.Rekey == nil {
			return signererr.New(signererr.CodeValidation, "missing rekey parameters")
		}
		if req.Transfer != nil || req.Batch != nil {
			return mismatchedVariant(req.Type)
		}
		if req.Rekey.FromAddress == "" {
			return signererr.New(signererr.CodeValidation, "missing rekey source address")
		}
		if req.Rekey.RekeyToAddress == "" {
			return signererr.New(signererr.CodeValidation, "missing rekey target address")
		}
		if req.Rekey.RekeyToAddress == req.Rekey.FromAddress {
			return signererr.New(signererr.CodeValidation, "cannot rekey an account to itself")
		}

	case types.TxTypeRekeyReverse:
		if req.Rekey == nil {
			return signererr.New(signererr.CodeValidation, "missing rekey parameters")
		}
		if req.Transfer != nil || req.Batch != nil {
			return mismatchedVariant(req.Type)
		}
		if req.Rekey.FromAddress == "" {
			return signererr.New(signererr.CodeValidation, "missing rekey source address")
		}

	case types.TxTypeBatchSign:
		if req.Batch == nil {
			return signererr.New(signererr.CodeValidation, "missing batch parameters")
		}
		if req.Transfer != nil || req.Rekey != nil {
			return mismatchedVariant(req.Type)
		}
		if len(req.Batch.Txns) == 0 {
			return signererr.New(signererr.CodeValidation, "batch contains no transactions")
		}

	default:
		return signererr.New(signererr.CodeValidation,
			fmt.Sprintf("unsupported transaction type %q", req.Type))
	}

	return nil
}

func mismatchedVariant(t types.TransactionType) *signererr.Error {
	return signererr.New(signererr.CodeValidation,
		fmt.Sprintf("parameter variant does not match type %q", t))
}

// ValidateTransaction checks a request's shape without side effects and
// without requiring a credential, so callers can pre-flight before committing
// to a real signing attempt.
func (o *Orchestrator) ValidateTransaction(req *types.SigningRequest) error {
	if vErr := validate(req); vErr != nil {
		return vErr
	}
	return nil
}

// EstimateTransactionCost returns the flat fee a request will cost in
// microVOI. Pure and credential-free; it never fails for a well-formed
// request of a supported type.
func (o *Orchestrator) EstimateTransactionCost(req *types.SigningRequest) (uint64, error) {
	if vErr := validate(req); vErr != nil {
		return 0, vErr
	}
	if req.Type == types.TxTypeBatchSign {
		return MinTxnFee * uint64(len(req.Batch.Txns)), nil
	}
	return MinTxnFee, nil
}

// transactionID derives the canonical transaction id: base32 of the
// SHA-512/256 hash over the prefixed transaction bytes.
func transactionID(raw []byte) string {
	payload := make([]byte, 0, len(txIDPrefix)+len(raw))
	payload = append(payload, txIDPrefix...)
	payload = append(payload, raw...)
	digest := sha512.Sum512_256(payload)
	return txIDEncoding.EncodeToString(digest[:])
}
