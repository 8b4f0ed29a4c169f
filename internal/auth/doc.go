// Package auth provides host-backed authentication.
//
// Login proves a password against the host account database through a chain
// of mechanisms (shadow hash, su(1) on a pseudo-terminal, sudo(8)) and issues
// a stateless HS256 session token. Authorization binds to host privileges:
// admin status is derived live from group membership and sudo entitlement
// and is never stored in the token.
package auth
