// Package behavior holds the per-node-type capability bundles that customize
// how the graph engine resolves output ports, validates connections and
// reacts to structural changes.
//
// A Behavior is a plain struct of optional hooks. A nil hook means "use the
// engine default". Variants are built by taking a canonical bundle and
// replacing individual hooks with Extend, never by layering types.
//
// Behaviors are looked up by node type through a Registry. A type such as
// `recipe:storyteller` that has no exact registration falls back to its
// category (`recipe`), and any unknown type resolves to a shared empty
// behavior, so lookups never fail.
package behavior
