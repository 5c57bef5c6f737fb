// Package stream fans ledger events out to consumers: the journal writer
// and live WebSocket clients. Publishing never blocks a marketplace
// operation; each subscriber owns a growable buffer that absorbs bursts.
package stream
