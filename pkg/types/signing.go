package types

import "github.com/xarmian/voi-wallet-sub008/pkg/signererr"

// TransactionType discriminates the signing request union. Exactly one
// parameter variant matching the type must be populated.
type TransactionType string

const (
	TxTypeNativeTransfer        TransactionType = "native_transfer"
	TxTypeTokenTransfer         TransactionType = "token_transfer"
	TxTypeContractTokenTransfer TransactionType = "contract_token_transfer"
	TxTypeNFTTransfer           TransactionType = "nft_transfer"
	TxTypeRekey                 TransactionType = "rekey"
	TxTypeRekeyReverse          TransactionType = "rekey_reverse"
	TxTypeBatchSign             TransactionType = "batch_sign"
)

// AccountType distinguishes the signer backend holding an account's key.
type AccountType string

const (
	AccountTypeSoftware AccountType = "software"
	AccountTypeHardware AccountType = "hardware"
)

// Account references a wallet account by address.
type Account struct {
	Address string      `json:"address"`
	Name    string      `json:"name,omitempty"`
	Type    AccountType `json:"type"`
}

// Credential carries the PIN unlocking a software key. Hardware accounts
// confirm on the device instead and need no credential.
type Credential struct {
	PIN string `json:"-"`
}

// TransferParams describes any of the transfer transaction types.
type TransferParams struct {
	Receiver string `json:"receiver"`
	Amount   uint64 `json:"amount"`
	AssetID  uint64 `json:"assetId,omitempty"` // token and NFT transfers
	AppID    uint64 `json:"appId,omitempty"`   // contract token transfers
	Note     []byte `json:"note,omitempty"`
}

// RekeyParams describes a rekey or rekey-reverse transaction. RekeyToAddress
// is required for rekey and must differ from FromAddress; rekey_reverse only
// needs FromAddress.
type RekeyParams struct {
	FromAddress    string `json:"fromAddress"`
	RekeyToAddress string `json:"rekeyToAddress,omitempty"`
	Note           []byte `json:"note,omitempty"`
	Network        string `json:"network,omitempty"`
}

// BatchTxn is one transaction inside a peer-proposed signing batch.
type BatchTxn struct {
	TxnBase64 string `json:"txn"`
	// Signers optionally declares which addresses may sign this txn.
	Signers []string `json:"signers,omitempty"`
	// AuthAddress overrides the signer when the account has been rekeyed.
	AuthAddress string `json:"authAddr,omitempty"`
}

// SignerAddress resolves the effective signing address for the txn, falling
// back to the account address. Precedence: explicit auth address, then the
// first declared signer.
func (t *BatchTxn) SignerAddress(account *Account) string {
	if t.AuthAddress != "" {
		return t.AuthAddress
	}
	if len(t.Signers) > 0 {
		return t.Signers[0]
	}
	return account.Address
}

// BatchSignParams carries the ordered transaction set proposed by a peer.
// Order is significant and preserved in the result.
type BatchSignParams struct {
	Txns []BatchTxn `json:"txns"`
}

// SigningRequest is the ephemeral input to one SignTransaction call. It is
// never persisted.
type SigningRequest struct {
	Type       TransactionType `json:"type"`
	Account    *Account        `json:"account"`
	Credential *Credential     `json:"-"`

	Transfer *TransferParams  `json:"transfer,omitempty"`
	Rekey    *RekeyParams     `json:"rekey,omitempty"`
	Batch    *BatchSignParams `json:"batch,omitempty"`
}

// SigningResult is the single terminal outcome of a signing attempt. It is
// never mutated after construction.
type SigningResult struct {
	Success bool `json:"success"`

	TxID       string   `json:"txId,omitempty"`
	TxIDs      []string `json:"txIds,omitempty"`
	SignedTxns []string `json:"signedTxns,omitempty"` // base64-encoded signatures, batch order

	Err *signererr.Error `json:"error,omitempty"`
}
