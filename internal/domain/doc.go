// Package domain contains the entities shared by the persistence, identity,
// and API layers: identity records (users, roles, claims) held in the security
// context and application items held in the server context.
package domain
