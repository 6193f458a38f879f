package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Identity is an account or collection address, "0x" followed by 40 hex chars.
// It is always kept in lower case so that two spellings of the same address
// compare equal.
type Identity string

const ZeroIdentity Identity = "0x0000000000000000000000000000000000000000"

var identityRegex = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

func (i Identity) String() string {
	return string(i)
}

func (i Identity) IsZero() bool {
	return i == "" || i == ZeroIdentity
}

// NewIdentity parses and normalizes an address.
func NewIdentity(s string) (Identity, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if !identityRegex.MatchString(normalized) {
		return "", fmt.Errorf("invalid address: %s", s)
	}
	return Identity(normalized), nil
}

// MustNewIdentity is NewIdentity for constants and tests.
func MustNewIdentity(s string) Identity {
	id, err := NewIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}
