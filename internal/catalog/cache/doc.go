// Package cache provides file-based caching of catalog snapshots with TTL
// expiration.
//
// Reading a large catalog (a Postgres table or a multi-megabyte YAML export)
// on every CLI invocation is wasteful when the catalog changes rarely. Key
// features:
//   - File-based storage in ~/.boqlca/cache/ (one JSON file per provider)
//   - Configurable TTL (default 1 hour) via config file, environment variable, or CLI flag
//   - Expired entries are ignored and removed on read
//   - SHA256-based cache keys derived from the provider name
package cache
