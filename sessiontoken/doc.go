// Package sessiontoken mints and validates HS256 session tokens that embed
// the user's token version. The engine compares a presented token's version
// against the registry's current value; a single version bump after a
// password reset therefore invalidates every previously minted token.
package sessiontoken
