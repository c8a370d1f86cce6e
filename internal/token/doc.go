// Package token keeps the carrier OAuth2 token of the process.
//
// A Manager holds at most one Record. GetToken serves the cached access
// token while it outlives the safety margin and otherwise refreshes it
// through the IdentityProvider; concurrent callers share one refresh.
// GenerateToken installs a record from a PKCE authorization-code exchange
// and ClearCache drops it.
package token
