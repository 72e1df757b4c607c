package wallet

import (
	"sync"

	"github.com/lightningnetwork/lnd/lntypes"
)

// invoiceStore caches invoices issued by a Backend, keyed by payment hash,
// so repeated lookups are cheap and a settlement observed once (e.g. via a
// background poll or push notification) is visible to every subsequent
// LookupInvoice call. Tracks only the paid/unpaid boolean this adapter
// needs, not full lnrpc invoice-state tracking.
type invoiceStore struct {
	mtx      sync.Mutex
	cond     *sync.Cond
	invoices map[lntypes.Hash]*Invoice
}

func newInvoiceStore() *invoiceStore {
	s := &invoiceStore{
		invoices: make(map[lntypes.Hash]*Invoice),
	}
	s.cond = sync.NewCond(&s.mtx)
	return s
}

// put records or replaces the cached invoice for its payment hash.
func (s *invoiceStore) put(inv *Invoice) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.invoices[inv.PaymentHash] = inv
	s.cond.Broadcast()
}

// get returns the cached invoice for hash, if any.
func (s *invoiceStore) get(hash lntypes.Hash) (*Invoice, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	inv, ok := s.invoices[hash]
	return inv, ok
}

// markPaid flips the cached invoice for hash to paid, attaching the
// preimage that settled it. It is a no-op if the invoice isn't cached yet
// (the backend is still the source of truth in that case).
func (s *invoiceStore) markPaid(hash lntypes.Hash, preimage lntypes.Preimage) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	inv, ok := s.invoices[hash]
	if !ok {
		return
	}
	inv.Paid = true
	inv.Preimage = &preimage
	s.cond.Broadcast()
}
