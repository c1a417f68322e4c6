// Package stdlib embeds the standard prelude.
package stdlib

import _ "embed"

// Prelude is the source of the standard prelude: definitions only.
//
//go:embed prelude.ski
var Prelude string

// Filename names the prelude in error messages.
const Filename = "prelude.ski"
