// Package password ships the default collaborator implementations for the
// reset and change flows: an argon2id hasher with PHC-encoded output and a
// policy engine covering length/charset requirements, strength scoring,
// history lookups, and minimum password age. Both are injectable; callers
// with their own hashing or policy infrastructure replace them through the
// Builder.
package password
