// Package bank provides the native-currency ledger used to settle
// purchases. It stands in for the host chain's account balances and its
// atomic transfer primitive.
package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/TYDev01/009-MarketPlace/internal/model"
)

// ErrInsufficientFunds aborts a transfer whose sender cannot cover the
// amount. The marketplace propagates it unchanged; no ledger code is
// assigned because the failure belongs to the currency host.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger tracks native-currency balances per principal. Transfers are
// all-or-nothing.
type Ledger struct {
	mu       sync.Mutex
	balances map[model.Principal]uint64
}

// NewLedger returns an empty ledger. Accounts spring into existence on
// first deposit.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[model.Principal]uint64)}
}

// Deposit credits an account. Used to seed genesis balances at startup.
func (l *Ledger) Deposit(account model.Principal, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Balance returns the current balance of an account, 0 for unknown
// accounts.
func (l *Ledger) Balance(account model.Principal) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Transfer moves amount from one account to another. It either fully
// applies or fails with ErrInsufficientFunds leaving both balances
// untouched.
func (l *Ledger) Transfer(from, to model.Principal, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, l.balances[from], amount)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
