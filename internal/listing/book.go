// Package listing implements the listing registry: the set of tokens
// currently offered for sale, at most one listing per token.
package listing

import (
	"github.com/TYDev01/009-MarketPlace/internal/model"
)

// Book holds all active listings, keyed by token id. It is not safe for
// concurrent use; the marketplace serializes all access to it.
type Book struct {
	listings map[uint64]*model.Listing
}

// NewBook returns an empty listing book.
func NewBook() *Book {
	return &Book{listings: make(map[uint64]*model.Listing)}
}

// Create records a listing, overwriting any prior listing for the same
// token. Relisting is always permitted for the current owner.
func (b *Book) Create(tokenID uint64, seller model.Principal, price uint64) error {
	if price == 0 {
		return model.ErrInvalidPrice
	}
	b.listings[tokenID] = &model.Listing{
		TokenID: tokenID,
		Seller:  seller,
		Price:   price,
	}
	return nil
}

// Update changes the price of an existing listing. The seller never
// changes; delist and relist to change it.
func (b *Book) Update(tokenID, newPrice uint64) error {
	l, ok := b.listings[tokenID]
	if !ok {
		return model.ErrNotListed
	}
	if newPrice == 0 {
		return model.ErrInvalidPrice
	}
	l.Price = newPrice
	return nil
}

// Remove deletes the listing for a token. No-op when the token is not
// listed.
func (b *Book) Remove(tokenID uint64) {
	delete(b.listings, tokenID)
}

// Get returns the listing for a token, or false if none exists.
func (b *Book) Get(tokenID uint64) (model.Listing, bool) {
	l, ok := b.listings[tokenID]
	if !ok {
		return model.Listing{}, false
	}
	return *l, true
}

// Len returns the number of active listings.
func (b *Book) Len() int {
	return len(b.listings)
}
