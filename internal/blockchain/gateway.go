// Package blockchain provides the chain gateway consumed by the bet engine:
// account issuance, balance and transaction lookups, and value transfer
// against a TRON full node's HTTP API.
package blockchain

import "context"

// Account is a freshly generated single-use wallet.
type Account struct {
	Address    string
	PublicKey  string
	PrivateKey string
}

// AccountTx is one transaction addressed to an account. Asset is empty for
// native TRX transfers and carries the token name for TRC10 transfers.
type AccountTx struct {
	TxID   string
	Sender string
	Asset  string
}

// TxInfo is the confirmation record of a transaction.
type TxInfo struct {
	BlockNumber int64
}

// Block is a confirmed block header.
type Block struct {
	Number int64
	Hash   string
}

// TransferResult carries the id of a submitted transfer.
type TransferResult struct {
	TxID string
}

// TransferContext identifies the wallet a transfer is sent from.
type TransferContext struct {
	Address    string
	PrivateKey string
}

// Gateway is the chain capability the engine depends on. All methods block
// for the duration of the network call; the caller bounds them via ctx.
type Gateway interface {
	CreateAccount(ctx context.Context) (*Account, error)
	GetBalance(ctx context.Context, address string) (int64, error)
	GetInboundTransactions(ctx context.Context, address string) ([]AccountTx, error)
	GetTransactionInfo(ctx context.Context, txID string) (*TxInfo, error)
	GetBlock(ctx context.Context, number int64) (*Block, error)
	Transfer(ctx context.Context, from TransferContext, toAddress string, amountSun int64) (*TransferResult, error)
}
