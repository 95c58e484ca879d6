package domain

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// InvalidAddressError is returned for text that is not a base58 public key.
type InvalidAddressError struct {
	Input string
	Err   error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Input, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}

// ParseAddress decodes a base58 public key, requiring exactly 32 bytes.
func ParseAddress(s string) (common.PublicKey, error) {
	if s == "" {
		return common.PublicKey{}, &InvalidAddressError{Input: s, Err: fmt.Errorf("empty")}
	}
	b, err := base58.Decode(s)
	if err != nil {
		return common.PublicKey{}, &InvalidAddressError{Input: s, Err: err}
	}
	if len(b) != common.PublicKeyLength {
		return common.PublicKey{}, &InvalidAddressError{
			Input: s,
			Err:   fmt.Errorf("decoded to %d bytes, want %d", len(b), common.PublicKeyLength),
		}
	}
	return common.PublicKeyFromBytes(b), nil
}
