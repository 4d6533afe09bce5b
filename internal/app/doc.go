// Package app contains the core application logic. It wires the registry,
// the graph engine and the execution pipeline around one project directory,
// decoupled from any specific entrypoint like a CLI or server.
package app
