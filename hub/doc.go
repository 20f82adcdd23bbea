// Package hub implements the event bus that fans lifecycle events out from
// the producer side to attached observers (UI surfaces). Delivery is
// fire-and-forget: dispatch is synchronous, delivery is asynchronous through
// a per-observer FIFO queue drained by a dedicated goroutine, so a slow
// observer never blocks the producer and per-task event order is preserved.
// There is no queuing beyond that buffer, no retry and no acknowledgement;
// observers that are absent at delivery time miss the event (the client
// store compensates via its queued auto-creation rule).
package hub
