// Package templates embeds the static assets served under /static/.
package templates

import "embed"

//go:embed static
var Static embed.FS
