// Package validator decides whether a resolved port value may flow into a
// target field and, if so, what value the field receives.
//
// Coercion follows the declared field type:
//
//	object  <- array    first element, if it is an object
//	object  <- object   accepted; missing required keys only warn
//	array   <- array    accepted
//	array   <- object   wrapped into a one-element list
//	string, number, boolean <- anything   primitive conversion
//
// Ports in the reserved set bypass coercion. Targets without a schema use
// the legacy rule: take the field named after the target port from the
// first list element or from the object, or pass a primitive through.
//
// The package also rejects structurally invalid edges: self-loops and
// anything that would close a cycle through edges or dock chains.
package validator
