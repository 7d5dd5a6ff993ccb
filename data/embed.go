// Package data embeds the JSON fixtures the marketing site is built from.
package data

import "embed"

// Fixtures embeds the content fixture files.
//
//go:embed fixtures/*.json
var Fixtures embed.FS
