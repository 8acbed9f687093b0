// Package authchain authenticates callers through named strategies and
// manages the access/refresh token pairs issued to them.
//
// # Construction
//
// An [Engine] is built once at startup with [Builder] and shared by every
// request handler:
//
//	engine, err := authchain.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserStore(users).
//		Build()
//
// Build fails when any strategy cannot be configured (missing signing key,
// undecodable key material). An engine is never handed out half-configured.
//
// # Strategies
//
// Three strategies are registered by name: [StrategyCredentials] checks a
// username and password, [StrategyToken] verifies EdDSA access and refresh
// tokens, and [StrategySecretKey] checks a shared bootstrap secret. Every
// strategy returns a [*Verification] or a [*Failure]; there are no callbacks.
//
// # Sessions
//
// Each issued pair shares a session id (the jti claim). The session cache
// holds one live entry per login session; renewing consumes the old entry
// and creates a new one, so a refresh token works exactly once. Logout
// removes the entry and records the refresh token in the revocation store,
// which rejects it permanently.
//
// # Errors
//
// All failures crossing the package boundary are [*Failure] values of one of
// five kinds. Use errors.Is against the kind sentinels ([ErrUnauthorized],
// [ErrForbidden], [ErrSessionExpired], [ErrUnsupportedStrategy],
// [ErrServerError]) or the named ones such as [ErrInvalidCredentials].
package authchain
