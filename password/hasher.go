package password

import "errors"

var (
	// ErrUnsupportedHash is returned when no hasher recognizes an encoded hash.
	ErrUnsupportedHash = errors.New("unsupported password hash")
	// ErrPasswordLength is returned for passwords outside the accepted byte range.
	ErrPasswordLength = errors.New("password length out of range")
)

// Hasher hashes and verifies one password hash family.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	// Recognizes reports whether encoded belongs to this family.
	Recognizes(encoded string) bool
}

// Chain verifies hashes of any registered family and hashes new passwords
// with the first one.
type Chain struct {
	hashers []Hasher
	dummy   string
}

// NewChain builds a chain. primary is used for new hashes and for the
// dummy comparison.
func NewChain(primary Hasher, legacy ...Hasher) (*Chain, error) {
	if primary == nil {
		return nil, errors.New("password chain requires a primary hasher")
	}
	dummy, err := primary.Hash("authchain-dummy-password")
	if err != nil {
		return nil, err
	}
	hashers := append([]Hasher{primary}, legacy...)
	return &Chain{hashers: hashers, dummy: dummy}, nil
}

// Hash encodes password with the primary hasher.
func (c *Chain) Hash(password string) (string, error) {
	return c.hashers[0].Hash(password)
}

// Verify compares password against encoded using the hasher that recognizes it.
func (c *Chain) Verify(password, encoded string) (bool, error) {
	for _, h := range c.hashers {
		if h.Recognizes(encoded) {
			return h.Verify(password, encoded)
		}
	}
	return false, ErrUnsupportedHash
}

// VerifyDummy runs a comparison that always fails.
func (c *Chain) VerifyDummy(password string) {
	_, _ = c.hashers[0].Verify(password, c.dummy)
}
