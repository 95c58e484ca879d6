package metadata

import "fmt"

// AccountNotFoundError is returned when no account exists at the metadata address.
type AccountNotFoundError struct {
	Address string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("metadata account %s not found: does it exist? (create it first)", e.Address)
}

// DecodeError is returned when account bytes do not match the metadata layout.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode metadata: %s: %v", e.Reason, e.Err)
	}
	return "decode metadata: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
