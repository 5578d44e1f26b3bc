// Package cache provides a two-tier TTL cache with a shared byte budget.
//
// A TieredCache holds a standard tier and a secure tier, each backed by a
// store.Store. Entries are JSON records of value, creation time and TTL;
// the TTL comes from the entry's Category via a Policy and is fixed at
// write time. Reads never return expired entries: they are purged on
// sight, and Sweep removes the rest, either inline when a write would
// overflow the budget or periodically once Start is called.
//
// Secure entries are expected to live in an encrypting store. Removing one
// always persists an empty value before the key is deleted.
//
// Loader adds read-through loading with per-key miss collapsing, and
// Keyer derives deterministic keys from request parameters.
package cache
