// Package jwt signs and verifies the EdDSA (Ed25519) compact tokens issued by
// authchain.
//
// Two token kinds share one key pair and are told apart by the JOSE "typ"
// header: access tokens carry "at+jwt", refresh tokens carry "rt+jwt". A
// [Verifier] refuses a token whose header does not match the claims type it is
// asked to decode, so a refresh token can never be accepted as an access token
// or the other way round.
//
// This package does not consult session or revocation state. Callers decide
// what a verified token means.
package jwt
