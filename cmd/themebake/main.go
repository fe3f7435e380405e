// Package main is the entry point for themebake.
//
//	@title			themebake API
//	@version		1.0
//	@description	Composes theme fields across included themes and serves the baked result.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
package main

import "github.com/artpar/themebake/bootstrap"

var (
	// Set via ldflags at build time
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	bootstrap.Version = version
	Execute()
}
