package metadata

import (
	"github.com/near/borsh-go"

	"token-metadata-cli/internal/domain"
)

// Encode serializes acct in the account layout Decode reads, without the
// trailing allocation padding.
func Encode(acct *domain.MetadataAccount) ([]byte, error) {
	return borsh.Serialize(fromDomain(acct))
}

func fromDomain(acct *domain.MetadataAccount) borshMetadata {
	r := acct.Record
	m := borshMetadata{
		Key:             acct.Key,
		UpdateAuthority: acct.UpdateAuthority,
		Mint:            acct.Mint,
		Data: borshData{
			Name:                 r.Name,
			Symbol:               r.Symbol,
			Uri:                  r.URI,
			SellerFeeBasisPoints: r.SellerFeeBasisPoints,
		},
		PrimarySaleHappened: acct.PrimarySaleHappened,
		IsMutable:           r.IsMutable,
		EditionNonce:        acct.EditionNonce,
		TokenStandard:       acct.TokenStandard,
	}
	if r.Creators != nil {
		creators := make([]borshCreator, len(*r.Creators))
		for i, c := range *r.Creators {
			creators[i] = borshCreator{Address: c.Address, Verified: c.Verified, Share: c.Share}
		}
		m.Data.Creators = &creators
	}
	if r.Collection != nil {
		m.Collection = &borshCollection{Verified: r.Collection.Verified, Key: r.Collection.Key}
	}
	if r.Uses != nil {
		m.Uses = &borshUses{UseMethod: uint8(r.Uses.UseMethod), Remaining: r.Uses.Remaining, Total: r.Uses.Total}
	}
	return m
}
