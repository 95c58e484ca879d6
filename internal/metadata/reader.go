package metadata

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"token-metadata-cli/internal/domain"
	"token-metadata-cli/internal/solana"
)

// Reader fetches and decodes metadata accounts.
type Reader struct {
	rpc        solana.RPCClient
	commitment solana.Commitment
}

// NewReader creates a Reader reading at the given commitment.
func NewReader(rpc solana.RPCClient, commitment solana.Commitment) *Reader {
	return &Reader{rpc: rpc, commitment: commitment}
}

// Fetch reads the metadata account at address.
// Returns *AccountNotFoundError if it does not exist and *DecodeError if its
// bytes are not a metadata account.
func (r *Reader) Fetch(ctx context.Context, address common.PublicKey) (*domain.MetadataAccount, error) {
	info, err := r.rpc.GetAccountInfo(ctx, address.ToBase58(), r.commitment)
	if err != nil {
		return nil, fmt.Errorf("get account info %s: %w", address.ToBase58(), err)
	}
	if info == nil {
		return nil, &AccountNotFoundError{Address: address.ToBase58()}
	}
	if info.Owner != ProgramID.ToBase58() {
		return nil, &DecodeError{Reason: fmt.Sprintf("account is owned by %s, not the token metadata program", info.Owner)}
	}
	return Decode(info.Data)
}
