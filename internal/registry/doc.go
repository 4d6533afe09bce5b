// Package registry provides the central "glue" for the module system.
//
// The Registry holds everything a module can contribute: node behaviors,
// recipe definitions, compute providers and named Go execute handlers that
// HCL manifests refer to with `handler = "<name>"`.
//
// During application startup, modules register first, manifests are loaded
// on top, and the registry is then validated so that manifests and Go code
// agree before the first recipe runs.
package registry
