package metadata

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"

	"token-metadata-cli/internal/domain"
)

// CreateInput is everything a create instruction needs.
type CreateInput struct {
	Metadata  common.PublicKey
	Mint      common.PublicKey
	Authority common.PublicKey // mint authority, payer and update authority
	Record    domain.Record
}

// UpdateInput is everything an update instruction needs.
type UpdateInput struct {
	Metadata  common.PublicKey
	Authority common.PublicKey
	Record    domain.Record
}

// InstructionBuilder encodes metadata program instructions.
type InstructionBuilder interface {
	BuildCreate(in CreateInput) types.Instruction
	BuildUpdate(in UpdateInput) types.Instruction
}

// BloctoBuilder encodes instructions with blocto's token_metadata program bindings.
type BloctoBuilder struct{}

// NewBuilder returns the default instruction builder.
func NewBuilder() BloctoBuilder {
	return BloctoBuilder{}
}

// BuildCreate returns a CreateMetadataAccountV3 instruction. The authority
// signs as update authority; collection details are left empty.
func (BloctoBuilder) BuildCreate(in CreateInput) types.Instruction {
	return token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                in.Metadata,
		Mint:                    in.Mint,
		MintAuthority:           in.Authority,
		Payer:                   in.Authority,
		UpdateAuthority:         in.Authority,
		UpdateAuthorityIsSigner: true,
		IsMutable:               in.Record.IsMutable,
		Data:                    toDataV2(in.Record),
	})
}

// BuildUpdate returns an UpdateMetadataAccountV2 instruction that replaces
// only the data payload; update authority, primary sale flag and mutability
// stay as they are.
func (BloctoBuilder) BuildUpdate(in UpdateInput) types.Instruction {
	data := toDataV2(in.Record)
	return token_metadata.UpdateMetadataAccountV2(token_metadata.UpdateMetadataAccountV2Param{
		MetadataAccount: in.Metadata,
		UpdateAuthority: in.Authority,
		Data:            &data,
	})
}

func toDataV2(r domain.Record) token_metadata.DataV2 {
	data := token_metadata.DataV2{
		Name:                 r.Name,
		Symbol:               r.Symbol,
		Uri:                  r.URI,
		SellerFeeBasisPoints: r.SellerFeeBasisPoints,
	}
	if r.Creators != nil {
		creators := make([]token_metadata.Creator, len(*r.Creators))
		for i, c := range *r.Creators {
			creators[i] = token_metadata.Creator{
				Address:  c.Address,
				Verified: c.Verified,
				Share:    c.Share,
			}
		}
		data.Creators = &creators
	}
	if r.Collection != nil {
		data.Collection = &token_metadata.Collection{
			Verified: r.Collection.Verified,
			Key:      r.Collection.Key,
		}
	}
	if r.Uses != nil {
		data.Uses = &token_metadata.Uses{
			UseMethod: token_metadata.UseMethod(r.Uses.UseMethod),
			Remaining: r.Uses.Remaining,
			Total:     r.Uses.Total,
		}
	}
	return data
}
