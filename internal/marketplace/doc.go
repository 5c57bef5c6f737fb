// Package marketplace orchestrates the public ledger operations: mint,
// list, update-listing, cancel-listing, and purchase.
//
// Every operation takes the caller's principal as an explicit parameter
// and runs under a single mutex, so operations observe a total order and
// either fully commit or leave no trace, like an on-chain transaction
// boundary. All precondition failures are coded
// model.Error values; the only mid-operation failure source is the
// currency transfer during purchase settlement, which is compensated
// explicitly.
package marketplace
