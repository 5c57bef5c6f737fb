package marketplace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TYDev01/009-MarketPlace/internal/listing"
	"github.com/TYDev01/009-MarketPlace/internal/model"
	"github.com/TYDev01/009-MarketPlace/internal/token"
)

// Treasury is the host currency-transfer primitive used to settle
// purchases. A transfer either fully applies or returns an error with no
// balance movement.
type Treasury interface {
	Transfer(from, to model.Principal, amount uint64) error
}

// EventSink receives one event per successful mutation. Publish must not
// block the operation.
type EventSink interface {
	Publish(model.Event)
}

// Marketplace owns the token registry and the listing book and mediates
// every mutation of them.
type Marketplace struct {
	mu       sync.Mutex
	tokens   *token.Registry
	listings *listing.Book
	treasury Treasury
	events   EventSink
	logger   *slog.Logger
}

// New creates a marketplace with empty registries. events may be nil when
// no feed is attached.
func New(treasury Treasury, events EventSink, logger *slog.Logger) *Marketplace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Marketplace{
		tokens:   token.NewRegistry(),
		listings: listing.NewBook(),
		treasury: treasury,
		events:   events,
		logger:   logger,
	}
}

// Mint creates a token owned by owner and returns its id. The caller
// becomes the token's creator and collects royaltyBps of every resale.
// Anyone may mint; owner and creator are independent.
func (m *Marketplace) Mint(caller, owner model.Principal, uri string, royaltyBps uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.tokens.Mint(owner, caller, uri, royaltyBps)
	if err != nil {
		return 0, err
	}

	m.logger.Info("token minted",
		"token_id", id,
		"owner", owner,
		"creator", caller,
		"royalty_bps", royaltyBps,
	)
	m.emit(model.Event{
		Type:         model.EventMinted,
		TokenID:      id,
		Actor:        caller,
		Counterparty: owner,
	})
	return id, nil
}

// ListToken offers a token for sale at price. Only the current owner may
// list; listing an already-listed token overwrites the previous listing.
func (m *Marketplace) ListToken(caller model.Principal, tokenID, price uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.tokens.Owner(tokenID)
	if !ok || owner != caller {
		return 0, model.ErrNotOwner
	}
	if err := m.listings.Create(tokenID, caller, price); err != nil {
		return 0, err
	}

	m.logger.Info("token listed", "token_id", tokenID, "seller", caller, "price", price)
	m.emit(model.Event{
		Type:    model.EventListed,
		TokenID: tokenID,
		Actor:   caller,
		Price:   price,
	})
	return tokenID, nil
}

// UpdateListing changes the price of the caller's existing listing.
func (m *Marketplace) UpdateListing(caller model.Principal, tokenID, newPrice uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings.Get(tokenID)
	if !ok {
		return 0, model.ErrNotListed
	}
	if l.Seller != caller {
		return 0, model.ErrNotOwner
	}
	if err := m.listings.Update(tokenID, newPrice); err != nil {
		return 0, err
	}

	m.logger.Info("listing updated", "token_id", tokenID, "seller", caller, "price", newPrice)
	m.emit(model.Event{
		Type:    model.EventPriceChanged,
		TokenID: tokenID,
		Actor:   caller,
		Price:   newPrice,
	})
	return tokenID, nil
}

// CancelListing withdraws the caller's listing for a token.
func (m *Marketplace) CancelListing(caller model.Principal, tokenID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings.Get(tokenID)
	if !ok {
		return 0, model.ErrNotListed
	}
	if l.Seller != caller {
		return 0, model.ErrNotOwner
	}
	m.listings.Remove(tokenID)

	m.logger.Info("listing cancelled", "token_id", tokenID, "seller", caller)
	m.emit(model.Event{
		Type:    model.EventDelisted,
		TokenID: tokenID,
		Actor:   caller,
	})
	return tokenID, nil
}

// Purchase buys a listed token at its asking price. The price is split
// between the seller and the token's creator per the royalty fixed at
// mint time, ownership moves to the buyer, and the listing is removed.
// On any failure nothing changes.
func (m *Marketplace) Purchase(caller model.Principal, tokenID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings.Get(tokenID)
	if !ok {
		return 0, model.ErrNotListed
	}
	if l.Seller == caller {
		return 0, model.ErrSelfPurchase
	}

	// A listing always references a minted token: mints never delete and
	// listing creation validated ownership.
	meta, ok := m.tokens.Metadata(tokenID)
	if !ok {
		return 0, model.ErrNotListed
	}

	royalty := royaltyAmount(l.Price, meta.RoyaltyBps)
	sellerAmount := l.Price - royalty

	if err := m.settle(caller, l.Seller, meta.Creator, l.Price, royalty, sellerAmount); err != nil {
		return 0, err
	}

	m.tokens.Transfer(tokenID, caller)
	m.listings.Remove(tokenID)

	m.logger.Info("token purchased",
		"token_id", tokenID,
		"buyer", caller,
		"seller", l.Seller,
		"price", l.Price,
		"royalty", royalty,
	)
	m.emit(model.Event{
		Type:         model.EventPurchased,
		TokenID:      tokenID,
		Actor:        caller,
		Counterparty: l.Seller,
		Price:        l.Price,
		Royalty:      royalty,
	})
	return tokenID, nil
}

// royaltyAmount computes price*bps/10000 rounded down. The product
// price*bps can exceed 64 bits for large prices, so the division is
// split: bps never exceeds MaxRoyaltyBps, keeping the remainder term
// below 10000*10000.
func royaltyAmount(price, bps uint64) uint64 {
	return price/token.MaxRoyaltyBps*bps + price%token.MaxRoyaltyBps*bps/token.MaxRoyaltyBps
}

// settle moves the sale proceeds. When the seller is also the creator,
// or the royalty truncates to zero, a single transfer of the full price
// suffices; the split always sums to price exactly. With two transfers,
// a failure of the second refunds the first so no partial settlement
// survives.
func (m *Marketplace) settle(buyer, seller, creator model.Principal, price, royalty, sellerAmount uint64) error {
	if royalty == 0 || creator == seller {
		return m.treasury.Transfer(buyer, seller, price)
	}

	if err := m.treasury.Transfer(buyer, creator, royalty); err != nil {
		return err
	}
	if err := m.treasury.Transfer(buyer, seller, sellerAmount); err != nil {
		if rbErr := m.treasury.Transfer(creator, buyer, royalty); rbErr != nil {
			m.logger.Error("royalty refund failed after aborted settlement",
				"error", rbErr,
				"buyer", buyer,
				"creator", creator,
				"amount", royalty,
			)
		}
		return err
	}
	return nil
}

// emit stamps and publishes an event. Nil sink means events are disabled.
func (m *Marketplace) emit(ev model.Event) {
	if m.events == nil {
		return
	}
	ev.ID = uuid.New()
	ev.OccurredAt = time.Now().UnixMicro()
	m.events.Publish(ev)
}

// LastTokenID returns the id of the most recently minted token, 0 before
// the first mint.
func (m *Marketplace) LastTokenID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.LastID()
}

// Owner returns the current owner of a token, or false if the token does
// not exist.
func (m *Marketplace) Owner(tokenID uint64) (model.Principal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Owner(tokenID)
}

// TokenMetadata returns the immutable metadata of a token, or false if
// the token does not exist.
func (m *Marketplace) TokenMetadata(tokenID uint64) (model.TokenMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Metadata(tokenID)
}

// Listing returns the active listing for a token, or false if the token
// is not listed.
func (m *Marketplace) Listing(tokenID uint64) (model.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings.Get(tokenID)
}
