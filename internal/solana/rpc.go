package solana

import "context"

// RPCClient defines the subset of the Solana RPC HTTP interface used to read
// metadata accounts and land transactions.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil, nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string, commitment Commitment) (*AccountInfo, error)

	// GetLatestBlockhash retrieves a recent blockhash and its expiry height.
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error)

	// SendTransaction submits a serialized, signed transaction and returns its signature.
	SendTransaction(ctx context.Context, rawTx []byte, opts SendOptions) (string, error)

	// GetSignatureStatuses retrieves statuses in request order; unknown signatures are nil.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetBlockHeight retrieves the current block height.
	GetBlockHeight(ctx context.Context, commitment Commitment) (uint64, error)
}
