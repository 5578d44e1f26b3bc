// Package secret resolves the key material used by the encrypted cache tier.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in configuration values (see Resolver)
//   - Decoding a resolved value into an AES-256 key (see ParseKey)
//
// References use the prefix "secretref:":
//   - Environment: secretref:env:TIERCACHE_SECURE_KEY
//   - File:        secretref:file:/run/keys/cache.key
//
// The "env" and "file" providers are registered with DefaultRegistry.
package secret
