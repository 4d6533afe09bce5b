/*
Package port describes the named connection points of a node and the typed
values that flow through them.

Port identifiers come in three shapes:

	origin, output, product, trigger, reference   reserved ports
	chain                                         dock-chain port of forms
	field:<key>                                   a single field of a record

Bare field keys (e.g. `topic`) are accepted wherever a field port is expected
and mean the same as `field:topic`.
*/
package port
