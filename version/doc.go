// Package version reports which flowkit build is running.
//
// Applications embedding flowkit get the module version recorded in their
// build info. The value can be pinned at link time:
//
//	go build -ldflags "-X github.com/kbukum/flowkit/version.Version=1.2.0"
package version
