// Package state persists the two records a release watcher keeps between
// runs: the last seen manifest fingerprint and the id of the currently
// pinned announcement.
//
// Both records live in a key/value Store. Backends:
//   - file:   one file per record in a directory (compatible with the
//     last_hash.txt / last_pin.txt layout of earlier deployments)
//   - sqlite: a single table keyed by (namespace, key)
//   - nats:   a JetStream key/value bucket
//   - memory: in-process, for tests and dry runs
//
// Absence is first-class: Get returns foundation.None when a record has
// never been written, which is distinct from an empty value.
package state
