package model

import "github.com/google/uuid"

// Principal is an opaque account reference used for ownership,
// authorization, and payment routing.
type Principal string

// Token is one minted non-fungible asset.
type Token struct {
	ID         uint64    // Primary key, assigned at mint, never reused
	Owner      Principal // Current holder, changes only on purchase
	Creator    Principal // Caller that executed the mint, immutable
	URI        string    // Optional off-ledger content reference ("" = absent)
	RoyaltyBps uint64    // Share of every resale paid to Creator, 0-10,000
}

// TokenMetadata is the immutable portion of a token record, fixed at mint.
type TokenMetadata struct {
	URI        string    `json:"uri"`
	Creator    Principal `json:"creator"`
	RoyaltyBps uint64    `json:"royalty_bps"`
}

// Listing is an offer to sell a token at a fixed price. At most one
// listing exists per token at any time.
type Listing struct {
	TokenID uint64    `json:"token_id"`
	Seller  Principal `json:"seller"` // Equals the token owner for the listing's lifetime
	Price   uint64    `json:"price"`  // Always > 0
}

// EventType identifies a ledger mutation.
type EventType string

const (
	EventMinted       EventType = "minted"
	EventListed       EventType = "listed"
	EventPriceChanged EventType = "price_changed"
	EventDelisted     EventType = "delisted"
	EventPurchased    EventType = "purchased"
)

// Event records one successful ledger mutation for the journal and the
// live stream.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Type         EventType `json:"type"`
	TokenID      uint64    `json:"token_id"`
	Actor        Principal `json:"actor"`                  // Caller that performed the operation
	Counterparty Principal `json:"counterparty,omitempty"` // Owner on mint, seller on purchase
	Price        uint64    `json:"price,omitempty"`        // List/sale price, 0 when not applicable
	Royalty      uint64    `json:"royalty,omitempty"`      // Royalty paid on purchase
	OccurredAt   int64     `json:"occurred_at"`            // µs since epoch
}
