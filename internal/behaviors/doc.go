// Package behaviors provides the concrete behavior bundles for every built-in
// node type and registers them with a behavior.Registry.
//
// Every bundle starts from Standard and replaces only the hooks it needs.
package behaviors
