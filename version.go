package facet

import _ "embed"

// Version is the released version of facet.
//
//go:embed VERSION
var Version string
