// Package token implements the token registry: per-asset identity,
// current ownership, and the immutable metadata fixed at mint time.
package token

import (
	"github.com/TYDev01/009-MarketPlace/internal/model"
)

// MaxRoyaltyBps is the highest royalty a token may carry (100%).
const MaxRoyaltyBps uint64 = 10000

// Registry holds every minted token, keyed by id. It is not safe for
// concurrent use; the marketplace serializes all access to it.
type Registry struct {
	tokens map[uint64]*model.Token
	lastID uint64
}

// NewRegistry returns an empty registry. The first minted token gets id 1.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[uint64]*model.Token)}
}

// Mint allocates the next token id and records a new token. Ids are
// assigned monotonically and never reused; a failed mint does not
// consume an id.
func (r *Registry) Mint(owner, creator model.Principal, uri string, royaltyBps uint64) (uint64, error) {
	if royaltyBps > MaxRoyaltyBps {
		return 0, model.ErrInvalidRoyalty
	}

	r.lastID++
	id := r.lastID
	r.tokens[id] = &model.Token{
		ID:         id,
		Owner:      owner,
		Creator:    creator,
		URI:        uri,
		RoyaltyBps: royaltyBps,
	}
	return id, nil
}

// LastID returns the most recently assigned token id, 0 before the first
// mint.
func (r *Registry) LastID() uint64 {
	return r.lastID
}

// Owner returns the current owner of a token, or false if the token does
// not exist.
func (r *Registry) Owner(id uint64) (model.Principal, bool) {
	t, ok := r.tokens[id]
	if !ok {
		return "", false
	}
	return t.Owner, true
}

// Metadata returns the immutable metadata of a token, or false if the
// token does not exist.
func (r *Registry) Metadata(id uint64) (model.TokenMetadata, bool) {
	t, ok := r.tokens[id]
	if !ok {
		return model.TokenMetadata{}, false
	}
	return model.TokenMetadata{
		URI:        t.URI,
		Creator:    t.Creator,
		RoyaltyBps: t.RoyaltyBps,
	}, true
}

// Transfer reassigns ownership of a token. Only the marketplace calls
// this, during purchase settlement; there is no standalone transfer
// operation. Returns false if the token does not exist.
func (r *Registry) Transfer(id uint64, to model.Principal) bool {
	t, ok := r.tokens[id]
	if !ok {
		return false
	}
	t.Owner = to
	return true
}
