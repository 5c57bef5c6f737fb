package model

import "fmt"

// Ledger error codes. Stable wire values, must not be renumbered.
const (
	CodeNotOwner       uint32 = 100
	CodeInvalidRoyalty uint32 = 102
	CodeInvalidPrice   uint32 = 104
	CodeNotListed      uint32 = 105
	CodeSelfPurchase   uint32 = 106
)

// Error is a coded precondition failure. Every failed operation returns
// one of the sentinel values below; no partial state change accompanies
// an Error.
type Error struct {
	Code    uint32
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

var (
	ErrNotOwner       = &Error{CodeNotOwner, "caller lacks required ownership or seller authority"}
	ErrInvalidRoyalty = &Error{CodeInvalidRoyalty, "royalty exceeds 10000 basis points"}
	ErrInvalidPrice   = &Error{CodeInvalidPrice, "price must be greater than zero"}
	ErrNotListed      = &Error{CodeNotListed, "token is not listed for sale"}
	ErrSelfPurchase   = &Error{CodeSelfPurchase, "seller may not purchase their own listing"}
)
