/*
Package session serializes mutations per asset.

Every action that touches an asset runs under the lock of its path. Locks are
local mutexes, reference counted so idle paths hold no memory, optionally
backed by a ports.DistributedLocker when several bridge replicas share one
asset store.
*/
package session
