// Package web holds the embedded templates and static assets.
package web

import "embed"

// Templates embeds the HTML templates.
//
//go:embed templates
var Templates embed.FS

// Static embeds the static assets served under /static/.
//
//go:embed static
var Static embed.FS
