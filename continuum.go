package continuum

import _ "embed"

// Version is the release of the continuum server, read from the VERSION file.
//
//go:embed VERSION
var Version string
