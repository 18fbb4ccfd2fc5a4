package testing

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/LeJamon/goAMM/internal/core/asset"
)

// Account is a named test account.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// ID is the account's id on the ledger, derived from Name.
	ID asset.ID
}

// NewAccount creates an account whose id is derived from name, so the same
// name always yields the same account.
func NewAccount(name string) *Account {
	sum := sha512.Sum512([]byte(name))
	return &Account{
		Name: name,
		ID:   asset.Account(binary.LittleEndian.Uint64(sum[:8])),
	}
}

// String returns a string representation of the account.
func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.ID)
}
