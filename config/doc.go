// Package config loads tiercache configuration from YAML.
//
// A config file has three sections:
//
//	cache:
//	  max_size_bytes: 52428800
//	  sweep_interval: 6h
//	  max_ttl: 24h
//	  ttls:
//	    player-stats: 5m
//	    weather: 30m
//	store:
//	  path: ~/.tiercache/cache.db
//	  secure_key: secretref:env:TIERCACHE_SECURE_KEY
//	observe:
//	  service_name: tiercache
//	  logging:
//	    enabled: true
//	    level: info
//
// ${VAR} references are expanded before parsing and fail when VAR is unset.
// store.secure_key is resolved separately through a secret.Resolver so the
// key never needs to appear in the file.
package config
