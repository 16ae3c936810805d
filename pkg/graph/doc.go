// Package graph walks a host-owned VFX graph through the resolution cache:
// depth-first model traversal, slot discovery with the four-tier name
// fallback, inbound data links, outbound flow links and loose value coercion.
package graph
