// -- cmd/version.go --
package cmd

// Version is the application version. Overridden at build time via
// -ldflags "-X github.com/pkarlgren/bryggan/cmd.Version=...".
var Version = "0.2.0-dev"
