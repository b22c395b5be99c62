// Package types defines the shared data model used by the pooling engine,
// the scenario loaders and the runner. These are the canonical in-memory
// representations, separate from the YAML scenario file format.
package types
