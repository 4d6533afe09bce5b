// Package cli parses the synnia command line into an app.Config and maps bad
// input to exit codes through ExitError.
package cli
