// Package domain defines the metadata record and address types shared across packages.
package domain

import (
	"strings"

	"github.com/blocto/solana-go-sdk/common"
)

// MetadataV1Key is the account-type discriminator of a Metaplex metadata account.
const MetadataV1Key uint8 = 4

// Record is the descriptive data attached to a mint.
// Optional fields are nil when absent on chain.
type Record struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	IsMutable            bool
	Creators             *[]Creator
	Collection           *Collection
	Uses                 *Uses
}

// Creator is a verified or unverified royalty recipient.
type Creator struct {
	Address  common.PublicKey
	Verified bool
	Share    uint8
}

// Collection links a mint to a collection mint.
type Collection struct {
	Verified bool
	Key      common.PublicKey
}

// UseMethod is how a use is consumed.
type UseMethod uint8

// Use methods, in on-chain enum order.
const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle
)

// Uses limits how many times a token may be used.
type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

// MetadataAccount is a decoded metadata account.
type MetadataAccount struct {
	Key                 uint8
	UpdateAuthority     common.PublicKey
	Mint                common.PublicKey
	PrimarySaleHappened bool
	EditionNonce        *uint8
	TokenStandard       *uint8
	Record              Record
}

// TrimPadding strips the trailing NUL bytes the program pads string fields with.
// Use it for display only; the padded form is what round-trips on chain.
func TrimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}
