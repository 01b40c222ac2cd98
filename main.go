package main

import (
	"fmt"
	"os"
)

//go:generate swag init --generalInfo main.go --output docs --outputTypes go

// Build infos injected with -ldflags.
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

//	@title						Books store api
//	@version					1.0
//	@description				CRUD endpoints to manage a books catalog.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "application exited. check logs for more details.", err)
		os.Exit(1)
	}
}
