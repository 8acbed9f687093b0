package authchain

import "context"

// Strategy names.
const (
	StrategyCredentials = "credentials-auth"
	StrategyToken       = "jwt-auth"
	StrategySecretKey   = "secret-key-auth"
)

// Variant tags the closed set of strategy implementations.
type Variant uint8

const (
	VariantCredential Variant = iota + 1
	VariantToken
	VariantSecretKey
)

// Strategy is one verification method. The set is closed: only
// [*CredentialStrategy], [*TokenStrategy] and [*SecretKeyStrategy]
// implement it.
type Strategy interface {
	Name() string
	Variant() Variant
	// Verify returns a Verification or a *Failure, never both.
	Verify(ctx context.Context, req *Request) (*Verification, error)

	sealed()
}

// keyedStrategy is implemented by strategies that sign tokens.
type keyedStrategy interface {
	Strategy
	SigningKey() []byte
}
