// Package store provides the key/value backends behind each cache tier.
//
// A tier is any Store. The package ships three:
//
//   - MemoryStore keeps blobs in a map; it is used in tests and for
//     ephemeral caches.
//   - SQLiteStore persists blobs in one table of a local SQLite database.
//     Several tiers can share one database file through OpenSQLite.
//   - EncryptedStore wraps another Store and seals every blob with
//     AES-256-GCM, binding the key name as additional data.
//
// The cache picks a Store per tier; callers never branch on the backing
// technology.
package store
