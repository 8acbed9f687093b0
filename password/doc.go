// Package password hashes and verifies account passwords.
//
// New hashes are Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Legacy bcrypt hashes ($2a$, $2b$, $2y$) can still be verified through a
// [Chain], which dispatches on the hash prefix. [Chain.VerifyDummy] burns the
// same work as a real comparison, so callers can answer unknown accounts in
// the same time as known ones.
//
// This package never stores passwords and never logs them.
package password
