// Package data holds reference data compiled into the binaries.
package data

import (
	_ "embed"
)

// Seed is the default slot and college seed used by rcfctl seed
//
//go:embed seed.yaml
var Seed []byte
