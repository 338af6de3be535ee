// Package space defines hyperparameter search spaces.
//
// A Space is an ordered set of parameter declarations (integer ranges with a
// step, or discrete choice sets). Sampling a Space produces a Configuration,
// an immutable name-to-value mapping. Configurations carry a content-addressed
// fingerprint computed from canonical JSON, which the result store uses to
// recognize previously evaluated configurations on resume.
//
// This package contains type definitions and pure functions only. All other
// internal packages import space; space imports nothing internal.
//
// Key design constraints:
//   - Declaration order of parameters is preserved and significant
//   - Configurations are immutable once created
//   - Canonical serialization: sorted keys, shortest round-trip float form
//   - Validation fails fast with ConfigurationError before any trial runs
package space
