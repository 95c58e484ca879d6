// Package metadata locates, reads and rewrites Metaplex Token Metadata
// accounts.
package metadata

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// ProgramID is the Metaplex Token Metadata program.
var ProgramID = common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// SeedLabel is the literal prefix of every metadata PDA seed list.
const SeedLabel = "metadata"

// DeriveAddress derives the metadata PDA for a mint.
// Seeds: ["metadata", program_id, mint], bump searched from 255 down.
func DeriveAddress(mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := common.FindProgramAddress([][]byte{
		[]byte(SeedLabel),
		ProgramID.Bytes(),
		mint.Bytes(),
	}, ProgramID)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive metadata address for %s: %w", mint.ToBase58(), err)
	}
	return addr, nil
}
