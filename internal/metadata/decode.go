package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"

	"token-metadata-cli/internal/domain"
)

// Metaplex Metadata layout, as far as this tool reads it:
//   - key: u8 (4 = MetadataV1)
//   - updateAuthority: Pubkey
//   - mint: Pubkey
//   - data: {name, symbol, uri: String; sellerFeeBasisPoints: u16; creators: Option<Vec<Creator>>}
//   - primarySaleHappened: bool
//   - isMutable: bool
//   - editionNonce: Option<u8>
//   - tokenStandard: Option<u8>
//   - collection: Option<Collection>
//   - uses: Option<Uses>
//
// Later fields and the zero padding the program allocates are ignored.
type borshMetadata struct {
	Key                 uint8
	UpdateAuthority     common.PublicKey
	Mint                common.PublicKey
	Data                borshData
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *uint8
	Collection          *borshCollection
	Uses                *borshUses
}

type borshData struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]borshCreator
}

type borshCreator struct {
	Address  common.PublicKey
	Verified bool
	Share    uint8
}

type borshCollection struct {
	Verified bool
	Key      common.PublicKey
}

type borshUses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

// minAccountLen covers key, both pubkeys and three empty string prefixes.
const minAccountLen = 1 + 32 + 32 + 4 + 4 + 4

// Field limits enforced by the program; longer lengths mean a corrupt buffer.
const (
	maxNameLen     = 32
	maxSymbolLen   = 10
	maxURILen      = 200
	maxCreatorsLen = 5
)

// Decode parses raw metadata account bytes.
// String fields keep their NUL padding.
func Decode(data []byte) (*domain.MetadataAccount, error) {
	if len(data) < minAccountLen {
		return nil, &DecodeError{Reason: fmt.Sprintf("account data too short: %d bytes", len(data))}
	}
	if data[0] != domain.MetadataV1Key {
		return nil, &DecodeError{Reason: fmt.Sprintf("unexpected account key %d, want %d (MetadataV1)", data[0], domain.MetadataV1Key)}
	}
	if err := checkStringPrefixes(data); err != nil {
		return nil, err
	}

	var raw borshMetadata
	if err := borsh.Deserialize(&raw, data); err != nil {
		return nil, &DecodeError{Reason: "malformed account data", Err: err}
	}

	if raw.Data.Creators != nil && len(*raw.Data.Creators) > maxCreatorsLen {
		return nil, &DecodeError{Reason: fmt.Sprintf("too many creators: %d", len(*raw.Data.Creators))}
	}
	if raw.Uses != nil && raw.Uses.UseMethod > uint8(domain.UseMethodSingle) {
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown use method %d", raw.Uses.UseMethod)}
	}

	acct := raw.toDomain()
	if err := checkCanonical(acct, data); err != nil {
		return nil, err
	}
	return acct, nil
}

// checkCanonical re-encodes acct and compares it against the bytes it came
// from. The generic decoder reads any non-zero Option tag as Some, so a tag
// such as 0x02 only shows up as a mismatch here.
func checkCanonical(acct *domain.MetadataAccount, data []byte) error {
	canonical, err := Encode(acct)
	if err != nil {
		return &DecodeError{Reason: "re-encode account", Err: err}
	}
	if len(canonical) > len(data) {
		return &DecodeError{Reason: "account data shorter than its decoded fields"}
	}
	for i := range canonical {
		if canonical[i] != data[i] {
			return &DecodeError{Reason: fmt.Sprintf("unexpected field encoding at byte %d: 0x%02x", i, data[i])}
		}
	}
	return nil
}

// checkStringPrefixes validates the three length-prefixed strings before the
// generic decoder allocates buffers from them.
func checkStringPrefixes(data []byte) error {
	offset := 1 + 32 + 32
	for _, f := range []struct {
		name string
		max  int
	}{
		{"name", maxNameLen},
		{"symbol", maxSymbolLen},
		{"uri", maxURILen},
	} {
		if offset+4 > len(data) {
			return &DecodeError{Reason: fmt.Sprintf("truncated before %s length", f.name)}
		}
		n := int(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		if n > f.max {
			return &DecodeError{Reason: fmt.Sprintf("%s length %d exceeds %d", f.name, n, f.max)}
		}
		if offset+n > len(data) {
			return &DecodeError{Reason: fmt.Sprintf("truncated %s: need %d bytes, have %d", f.name, n, len(data)-offset)}
		}
		offset += n
	}
	return nil
}

func (m *borshMetadata) toDomain() *domain.MetadataAccount {
	acct := &domain.MetadataAccount{
		Key:                 m.Key,
		UpdateAuthority:     m.UpdateAuthority,
		Mint:                m.Mint,
		PrimarySaleHappened: m.PrimarySaleHappened,
		EditionNonce:        m.EditionNonce,
		TokenStandard:       m.TokenStandard,
		Record: domain.Record{
			Name:                 m.Data.Name,
			Symbol:               m.Data.Symbol,
			URI:                  m.Data.Uri,
			SellerFeeBasisPoints: m.Data.SellerFeeBasisPoints,
			IsMutable:            m.IsMutable,
		},
	}

	if m.Data.Creators != nil {
		creators := make([]domain.Creator, len(*m.Data.Creators))
		for i, c := range *m.Data.Creators {
			creators[i] = domain.Creator{Address: c.Address, Verified: c.Verified, Share: c.Share}
		}
		acct.Record.Creators = &creators
	}
	if m.Collection != nil {
		acct.Record.Collection = &domain.Collection{Verified: m.Collection.Verified, Key: m.Collection.Key}
	}
	if m.Uses != nil {
		acct.Record.Uses = &domain.Uses{
			UseMethod: domain.UseMethod(m.Uses.UseMethod),
			Remaining: m.Uses.Remaining,
			Total:     m.Uses.Total,
		}
	}
	return acct
}
