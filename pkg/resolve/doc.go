// Package resolve memoizes lookups of host types, methods and members by
// logical name.
//
// The host's internal surface drifts between releases, so every lookup
// degrades to a nil "not found" result instead of failing. Results, including
// misses, are cached until Clear is called, which the embedding application
// must wire to the host's reload notification.
package resolve
