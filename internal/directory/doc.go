// Package directory holds the lookup structures behind the handle cache.
//
// A Directory maps a cache key to the bucket of slots opened under it and
// maps every resource back to its slot, so a release needs nothing but the
// resource itself. Both maps and the slot count change together under one
// lock.
//
// # Slot states
//
// Every slot moves through a small state machine driven only by CAS:
//
//	Free ──TryLease──▶ Leased ──Return──▶ Free
//	Free ──TryClaim──▶ Evicting (terminal; the slot is removed and closed)
//
// A leased slot cannot be claimed and an evicting slot cannot be leased, so
// lending and eviction never race on the same resource.
package directory
