package marketplace_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TYDev01/009-MarketPlace/internal/bank"
	"github.com/TYDev01/009-MarketPlace/internal/marketplace"
	"github.com/TYDev01/009-MarketPlace/internal/model"
)

const (
	deployer = model.Principal("deployer")
	wallet1  = model.Principal("wallet_1")
	wallet2  = model.Principal("wallet_2")
	wallet3  = model.Principal("wallet_3")
)

// captureSink records emitted events for assertions.
type captureSink struct {
	events []model.Event
}

func (c *captureSink) Publish(ev model.Event) {
	c.events = append(c.events, ev)
}

func newMarket(t *testing.T) (*marketplace.Marketplace, *bank.Ledger, *captureSink) {
	t.Helper()

	ledger := bank.NewLedger()
	for _, p := range []model.Principal{deployer, wallet1, wallet2, wallet3} {
		ledger.Deposit(p, 100_000_000)
	}

	sink := &captureSink{}
	m := marketplace.New(ledger, sink, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return m, ledger, sink
}

func assertCode(t *testing.T, err error, code uint32) {
	t.Helper()
	var lerr *model.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, code, lerr.Code)
}

func TestMint(t *testing.T) {
	m, _, _ := newMarket(t)

	id, err := m.Mint(deployer, wallet1, "https://example.com/1", 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	owner, ok := m.Owner(id)
	require.True(t, ok)
	assert.Equal(t, wallet1, owner)

	meta, ok := m.TokenMetadata(id)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/1", meta.URI)
	assert.Equal(t, deployer, meta.Creator)
	assert.Equal(t, uint64(500), meta.RoyaltyBps)
}

func TestMint_InvalidRoyalty(t *testing.T) {
	m, _, _ := newMarket(t)

	_, err := m.Mint(deployer, wallet1, "", 10001)
	assertCode(t, err, model.CodeInvalidRoyalty)

	// Failed mints never consume ids.
	assert.Equal(t, uint64(0), m.LastTokenID())
}

func TestMint_MaxRoyalty(t *testing.T) {
	m, _, _ := newMarket(t)

	before := m.LastTokenID()
	id, err := m.Mint(deployer, wallet1, "", 10000)
	require.NoError(t, err)
	assert.Equal(t, before+1, id)
}

func TestLastTokenID(t *testing.T) {
	m, _, _ := newMarket(t)

	before := m.LastTokenID()
	_, err := m.Mint(deployer, wallet1, "", 500)
	require.NoError(t, err)
	assert.Equal(t, before+1, m.LastTokenID())

	_, err = m.Mint(deployer, wallet1, "", 10001)
	require.Error(t, err)
	assert.Equal(t, before+1, m.LastTokenID())
}

func TestListToken(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	got, err := m.ListToken(wallet1, id, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	l, ok := m.Listing(id)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_000), l.Price)
	assert.Equal(t, wallet1, l.Seller)
}

func TestListToken_NotOwner(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	_, err := m.ListToken(wallet2, id, 1_000_000)
	assertCode(t, err, model.CodeNotOwner)
}

func TestListToken_ZeroPrice(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	_, err := m.ListToken(wallet1, id, 0)
	assertCode(t, err, model.CodeInvalidPrice)

	_, ok := m.Listing(id)
	assert.False(t, ok)
}

func TestListToken_MissingToken(t *testing.T) {
	m, _, _ := newMarket(t)

	_, err := m.ListToken(wallet1, 999_999, 1_000_000)
	assertCode(t, err, model.CodeNotOwner)
}

func TestUpdateListing(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)
	_, err := m.ListToken(wallet1, id, 1_000_000)
	require.NoError(t, err)

	got, err := m.UpdateListing(wallet1, id, 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	l, ok := m.Listing(id)
	require.True(t, ok)
	assert.Equal(t, uint64(2_000_000), l.Price)
	assert.Equal(t, wallet1, l.Seller)
}

func TestUpdateListing_NotSeller(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)
	m.ListToken(wallet1, id, 1_000_000)

	_, err := m.UpdateListing(wallet2, id, 2_000_000)
	assertCode(t, err, model.CodeNotOwner)
}

func TestUpdateListing_NotListed(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	_, err := m.UpdateListing(wallet1, id, 2_000_000)
	assertCode(t, err, model.CodeNotListed)
}

func TestUpdateListing_ZeroPrice(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)
	m.ListToken(wallet1, id, 1_000_000)

	_, err := m.UpdateListing(wallet1, id, 0)
	assertCode(t, err, model.CodeInvalidPrice)

	l, _ := m.Listing(id)
	assert.Equal(t, uint64(1_000_000), l.Price)
}

func TestCancelListing(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)
	m.ListToken(wallet1, id, 1_000_000)

	got, err := m.CancelListing(wallet1, id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, ok := m.Listing(id)
	assert.False(t, ok)
}

func TestCancelListing_NotSeller(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)
	m.ListToken(wallet1, id, 1_000_000)

	_, err := m.CancelListing(wallet2, id)
	assertCode(t, err, model.CodeNotOwner)
}

func TestCancelListing_NotListed(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	_, err := m.CancelListing(wallet1, id)
	assertCode(t, err, model.CodeNotListed)
}

func TestRelistAfterCancel(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	_, err := m.ListToken(wallet1, id, 1_000_000)
	require.NoError(t, err)
	_, err = m.CancelListing(wallet1, id)
	require.NoError(t, err)
	_, err = m.ListToken(wallet1, id, 3_000_000)
	require.NoError(t, err)

	l, ok := m.Listing(id)
	require.True(t, ok)
	assert.Equal(t, uint64(3_000_000), l.Price)
	assert.Equal(t, wallet1, l.Seller)
}

func TestPurchase_RoyaltySplit(t *testing.T) {
	m, ledger, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 250)
	m.ListToken(wallet1, id, 1_000_000)

	sellerBefore := ledger.Balance(wallet1)
	creatorBefore := ledger.Balance(deployer)
	buyerBefore := ledger.Balance(wallet2)

	got, err := m.Purchase(wallet2, id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// 250 bps of 1,000,000 = 25,000 to the creator, remainder to seller.
	assert.Equal(t, creatorBefore+25_000, ledger.Balance(deployer))
	assert.Equal(t, sellerBefore+975_000, ledger.Balance(wallet1))
	assert.Equal(t, buyerBefore-1_000_000, ledger.Balance(wallet2))

	owner, ok := m.Owner(id)
	require.True(t, ok)
	assert.Equal(t, wallet2, owner)

	_, ok = m.Listing(id)
	assert.False(t, ok)
}

func TestPurchase_LargePriceRoyalty(t *testing.T) {
	// price*bps exceeds 64 bits here; the split must not wrap.
	const price = uint64(1) << 63

	ledger := bank.NewLedger()
	ledger.Deposit(wallet2, price)
	m := marketplace.New(ledger, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	id, _ := m.Mint(deployer, wallet1, "", 4)
	_, err := m.ListToken(wallet1, id, price)
	require.NoError(t, err)

	_, err = m.Purchase(wallet2, id)
	require.NoError(t, err)

	// floor(2^63 * 4 / 10000) = 3,689,348,814,741,910.
	const wantRoyalty = uint64(3_689_348_814_741_910)
	assert.Equal(t, wantRoyalty, ledger.Balance(deployer))
	assert.Equal(t, price-wantRoyalty, ledger.Balance(wallet1))
	assert.Equal(t, uint64(0), ledger.Balance(wallet2))
}

func TestPurchase_CreatorIsSeller(t *testing.T) {
	m, ledger, _ := newMarket(t)
	id, _ := m.Mint(deployer, deployer, "", 500)
	m.ListToken(deployer, id, 1_000_000)

	sellerBefore := ledger.Balance(deployer)

	_, err := m.Purchase(wallet1, id)
	require.NoError(t, err)

	// Royalty and seller share merge into one payment of the full price.
	assert.Equal(t, sellerBefore+1_000_000, ledger.Balance(deployer))

	owner, _ := m.Owner(id)
	assert.Equal(t, wallet1, owner)
}

func TestPurchase_SelfPurchase(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)
	m.ListToken(wallet1, id, 1_000_000)

	_, err := m.Purchase(wallet1, id)
	assertCode(t, err, model.CodeSelfPurchase)

	// Listing and ownership untouched.
	_, ok := m.Listing(id)
	assert.True(t, ok)
	owner, _ := m.Owner(id)
	assert.Equal(t, wallet1, owner)
}

func TestPurchase_NotListed(t *testing.T) {
	m, _, _ := newMarket(t)
	id, _ := m.Mint(deployer, wallet1, "", 500)

	_, err := m.Purchase(wallet2, id)
	assertCode(t, err, model.CodeNotListed)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	ledger := bank.NewLedger()
	ledger.Deposit(wallet1, 100)
	m := marketplace.New(ledger, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	id, _ := m.Mint(deployer, wallet1, "", 250)
	_, err := m.ListToken(wallet1, id, 1_000_000)
	require.NoError(t, err)

	// wallet2 holds nothing.
	_, err = m.Purchase(wallet2, id)
	require.ErrorIs(t, err, bank.ErrInsufficientFunds)

	// No state mutated, no money moved.
	owner, _ := m.Owner(id)
	assert.Equal(t, wallet1, owner)
	l, ok := m.Listing(id)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_000), l.Price)
	assert.Equal(t, uint64(100), ledger.Balance(wallet1))
	assert.Equal(t, uint64(0), ledger.Balance(wallet2))
}

// rejectingTreasury fails any transfer to a chosen principal, delegating
// the rest to a real ledger.
type rejectingTreasury struct {
	inner  *bank.Ledger
	reject model.Principal
}

func (rt *rejectingTreasury) Transfer(from, to model.Principal, amount uint64) error {
	if to == rt.reject {
		return errors.New("transfer rejected")
	}
	return rt.inner.Transfer(from, to, amount)
}

func TestPurchase_SellerPayoutFailureRefundsRoyalty(t *testing.T) {
	ledger := bank.NewLedger()
	ledger.Deposit(wallet2, 2_000_000)
	treasury := &rejectingTreasury{inner: ledger, reject: wallet1}
	m := marketplace.New(treasury, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	id, _ := m.Mint(deployer, wallet1, "", 1000)
	_, err := m.ListToken(wallet1, id, 1_000_000)
	require.NoError(t, err)

	_, err = m.Purchase(wallet2, id)
	require.Error(t, err)

	// The royalty that went out before the failed seller payout came back.
	assert.Equal(t, uint64(2_000_000), ledger.Balance(wallet2))
	assert.Equal(t, uint64(0), ledger.Balance(deployer))

	owner, _ := m.Owner(id)
	assert.Equal(t, wallet1, owner)
	_, ok := m.Listing(id)
	assert.True(t, ok)
}

func TestReadOnly_AbsentToken(t *testing.T) {
	m, _, _ := newMarket(t)

	_, ok := m.Owner(999_999)
	assert.False(t, ok)
	_, ok = m.TokenMetadata(999_999)
	assert.False(t, ok)
	_, ok = m.Listing(999_999)
	assert.False(t, ok)
}

func TestEvents(t *testing.T) {
	m, _, sink := newMarket(t)

	id, _ := m.Mint(deployer, wallet1, "uri", 250)
	m.ListToken(wallet1, id, 1_000_000)
	m.UpdateListing(wallet1, id, 2_000_000)
	m.Purchase(wallet2, id)

	require.Len(t, sink.events, 4)

	types := []model.EventType{
		model.EventMinted,
		model.EventListed,
		model.EventPriceChanged,
		model.EventPurchased,
	}
	for i, want := range types {
		assert.Equal(t, want, sink.events[i].Type)
		assert.Equal(t, id, sink.events[i].TokenID)
		assert.NotZero(t, sink.events[i].ID)
		assert.NotZero(t, sink.events[i].OccurredAt)
	}

	purchased := sink.events[3]
	assert.Equal(t, wallet2, purchased.Actor)
	assert.Equal(t, wallet1, purchased.Counterparty)
	assert.Equal(t, uint64(2_000_000), purchased.Price)
	assert.Equal(t, uint64(50_000), purchased.Royalty)
}

// TestMarketplaceFlow walks the full lifecycle end to end.
func TestMarketplaceFlow(t *testing.T) {
	m, ledger, _ := newMarket(t)

	id, err := m.Mint(deployer, wallet1, "https://example.com/full-test", 250)
	require.NoError(t, err)

	_, err = m.ListToken(wallet1, id, 5_000_000)
	require.NoError(t, err)

	_, err = m.UpdateListing(wallet1, id, 4_000_000)
	require.NoError(t, err)

	sellerBefore := ledger.Balance(wallet1)
	creatorBefore := ledger.Balance(deployer)

	_, err = m.Purchase(wallet2, id)
	require.NoError(t, err)

	owner, ok := m.Owner(id)
	require.True(t, ok)
	assert.Equal(t, wallet2, owner)

	_, ok = m.Listing(id)
	assert.False(t, ok)

	// 250 bps of 4,000,000 = 100,000.
	assert.Equal(t, creatorBefore+100_000, ledger.Balance(deployer))
	assert.Equal(t, sellerBefore+3_900_000, ledger.Balance(wallet1))
}
