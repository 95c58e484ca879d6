package stub

import (
	"context"
	"errors"

	"github.com/mr-tron/base58"

	"token-metadata-cli/internal/solana"
)

// ErrNoSignature is returned when a submitted transaction carries no signature.
var ErrNoSignature = errors.New("transaction has no signature")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Accounts  map[string]*solana.AccountInfo
	Statuses  map[string]*solana.SignatureStatus
	Blockhash solana.LatestBlockhash

	// BlockHeight is returned by GetBlockHeight. When BlockHeights is non-empty
	// its values are returned in order first.
	BlockHeight  uint64
	BlockHeights []uint64

	// ConfirmOnSend marks every sent transaction as confirmed at ConfirmStatus.
	ConfirmOnSend bool
	ConfirmStatus solana.Commitment

	// Errors injected per method.
	AccountErr   error
	BlockhashErr error
	SendErr      error
	StatusErr    error

	// Sent holds every raw transaction passed to SendTransaction.
	Sent [][]byte
	// Calls records method names in call order.
	Calls []string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts: make(map[string]*solana.AccountInfo),
		Statuses: make(map[string]*solana.SignatureStatus),
		Blockhash: solana.LatestBlockhash{
			Slot:                 1000,
			Blockhash:            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
			LastValidBlockHeight: 1150,
		},
		BlockHeight:   1000,
		ConfirmOnSend: true,
		ConfirmStatus: solana.CommitmentConfirmed,
	}
}

// AddAccount stores account data under address.
func (c *RPCClient) AddAccount(address string, owner string, data []byte) {
	c.Accounts[address] = &solana.AccountInfo{
		Lamports: 5616720,
		Owner:    owner,
		Data:     data,
	}
}

// GetAccountInfo retrieves an account from the stub store.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string, _ solana.Commitment) (*solana.AccountInfo, error) {
	c.Calls = append(c.Calls, "getAccountInfo")
	if c.AccountErr != nil {
		return nil, c.AccountErr
	}
	info, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	return info, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context, _ solana.Commitment) (*solana.LatestBlockhash, error) {
	c.Calls = append(c.Calls, "getLatestBlockhash")
	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	bh := c.Blockhash
	return &bh, nil
}

// SendTransaction records the transaction and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte, _ solana.SendOptions) (string, error) {
	c.Calls = append(c.Calls, "sendTransaction")
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, rawTx)

	sig, err := FirstSignature(rawTx)
	if err != nil {
		return "", err
	}
	if c.ConfirmOnSend {
		c.Statuses[sig] = &solana.SignatureStatus{
			Slot:               c.Blockhash.Slot + 2,
			ConfirmationStatus: c.ConfirmStatus,
		}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.Calls = append(c.Calls, "getSignatureStatuses")
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// GetBlockHeight returns the next scripted height or BlockHeight.
func (c *RPCClient) GetBlockHeight(_ context.Context, _ solana.Commitment) (uint64, error) {
	c.Calls = append(c.Calls, "getBlockHeight")
	if len(c.BlockHeights) > 0 {
		h := c.BlockHeights[0]
		c.BlockHeights = c.BlockHeights[1:]
		c.BlockHeight = h
		return h, nil
	}
	return c.BlockHeight, nil
}

// FirstSignature extracts the fee payer signature from a serialized
// transaction: a compact-u16 signature count followed by 64-byte signatures.
func FirstSignature(rawTx []byte) (string, error) {
	if len(rawTx) < 1+64 || rawTx[0] == 0 {
		return "", ErrNoSignature
	}
	return base58.Encode(rawTx[1:65]), nil
}
