package metadata

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// accountSize is the allocation the program uses for a metadata account.
const accountSize = 679

var (
	testMint      = common.PublicKeyFromString("So11111111111111111111111111111111111111112")
	testAuthority = common.PublicKeyFromString("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	testCreator   = common.PublicKeyFromString("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	testColl      = common.PublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

// pad mirrors how the program stores fixed-width strings.
func pad(s string, n int) string {
	for len(s) < n {
		s += "\x00"
	}
	return s
}

func sampleRaw() borshMetadata {
	nonce := uint8(254)
	creators := []borshCreator{
		{Address: testCreator, Verified: true, Share: 70},
		{Address: testAuthority, Verified: false, Share: 30},
	}
	return borshMetadata{
		Key:             4,
		UpdateAuthority: testAuthority,
		Mint:            testMint,
		Data: borshData{
			Name:                 pad("Foo", maxNameLen),
			Symbol:               pad("FOO", maxSymbolLen),
			Uri:                  pad("https://x/y.json", maxURILen),
			SellerFeeBasisPoints: 500,
			Creators:             &creators,
		},
		PrimarySaleHappened: true,
		IsMutable:           true,
		EditionNonce:        &nonce,
		Collection:          &borshCollection{Verified: true, Key: testColl},
		Uses:                &borshUses{UseMethod: 1, Remaining: 3, Total: 10},
	}
}

func encodeUnpadded(m borshMetadata) ([]byte, error) {
	return borsh.Serialize(m)
}

// encodeAccount serializes m and zero-pads it like an on-chain account.
func encodeAccount(t *testing.T, m borshMetadata) []byte {
	t.Helper()
	b, err := encodeUnpadded(m)
	if err != nil {
		t.Fatalf("borsh serialize: %v", err)
	}
	if len(b) < accountSize {
		b = append(b, make([]byte, accountSize-len(b))...)
	}
	return b
}
