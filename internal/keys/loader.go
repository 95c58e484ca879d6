// Package keys loads the signing keypair from a solana-keygen JSON file.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
)

// DefaultPath is where solana-keygen writes the default keypair.
const DefaultPath = "~/.config/solana/id.json"

// ErrPublicKeyMismatch is returned when the public half of a keypair file
// does not belong to its secret seed.
var ErrPublicKeyMismatch = errors.New("public key does not match secret key")

// KeyLoadError is returned when the keypair file cannot be used.
type KeyLoadError struct {
	Path string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("load keypair %s: %v", e.Path, e.Err)
}

func (e *KeyLoadError) Unwrap() error {
	return e.Err
}

// ExpandHome replaces a leading "~" with *home. A nil home (HOME unset)
// leaves the path untouched so the read fails on the literal path; an empty
// one turns "~/x" into "/x".
func ExpandHome(path string, home *string) string {
	if home == nil || !strings.HasPrefix(path, "~") {
		return path
	}
	return *home + strings.TrimPrefix(path, "~")
}

// Load reads the keypair at path, expanding "~" against home.
func Load(path string, home *string) (types.Account, error) {
	expanded := ExpandHome(path, home)

	pk, err := solana.PrivateKeyFromSolanaKeygenFile(expanded)
	if err != nil {
		return types.Account{}, &KeyLoadError{Path: expanded, Err: err}
	}
	if len(pk) != ed25519.PrivateKeySize {
		return types.Account{}, &KeyLoadError{
			Path: expanded,
			Err:  fmt.Errorf("invalid key length %d, want %d", len(pk), ed25519.PrivateKeySize),
		}
	}

	derived := ed25519.NewKeyFromSeed(pk[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], pk[ed25519.SeedSize:]) {
		return types.Account{}, &KeyLoadError{Path: expanded, Err: ErrPublicKeyMismatch}
	}

	acct, err := types.AccountFromBytes(pk)
	if err != nil {
		return types.Account{}, &KeyLoadError{Path: expanded, Err: err}
	}
	return acct, nil
}
