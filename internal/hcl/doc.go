// Package hcl loads recipe manifests written in HCL and translates them into
// recipe definitions. Prompts are HCL template expressions evaluated against
// the recipe's effective inputs each time the recipe runs.
package hcl
