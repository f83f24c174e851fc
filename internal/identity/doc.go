// Package identity manages users, roles, and claims held in the security
// context. It enforces the configured password policy and user options,
// hashes credentials, and builds the claims principal that both
// authentication schemes attach to a request.
//
// Every membership, claim, or credential change rotates the user's security
// stamp so previously issued principals can be told apart from current ones.
package identity
