package wallet

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
)

// StubBackend is an in-process fake Backend for tests and demos. It mints
// real preimages and payment hashes locally rather than talking to a
// Lightning node, and exposes Settle so a caller can simulate payment
// confirmation.
type StubBackend struct {
	mtx      sync.Mutex
	store    *invoiceStore
	preimage map[lntypes.Hash]lntypes.Preimage
}

var _ Backend = (*StubBackend)(nil)

// NewStubBackend creates an empty stub wallet.
func NewStubBackend() *StubBackend {
	return &StubBackend{
		store:    newInvoiceStore(),
		preimage: make(map[lntypes.Hash]lntypes.Preimage),
	}
}

// CreateInvoice mints a fresh random preimage, derives its payment hash, and
// fabricates a bolt11-shaped placeholder string carrying a unique tag so two
// invoices for the same amount/description are still distinguishable.
func (s *StubBackend) CreateInvoice(_ context.Context, amountSats int64,
	description string) (*Invoice, error) {

	var preimageBytes [32]byte
	if _, err := rand.Read(preimageBytes[:]); err != nil {
		return nil, fmt.Errorf("generate preimage: %w", err)
	}
	preimage, err := lntypes.MakePreimage(preimageBytes[:])
	if err != nil {
		return nil, err
	}
	hashBytes := sha256.Sum256(preimage[:])
	paymentHash, err := lntypes.MakeHash(hashBytes[:])
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		PaymentHash: paymentHash,
		Bolt11: fmt.Sprintf(
			"lnbcrt%d1stub%s", amountSats, uuid.NewString(),
		),
		AmountSats:  amountSats,
		Description: description,
		CreatedAt:   time.Now(),
	}

	s.mtx.Lock()
	s.preimage[paymentHash] = preimage
	s.mtx.Unlock()

	s.store.put(inv)
	log.Debugf("stub minted invoice for %d sats, hash=%s", amountSats,
		hashHex(paymentHash))
	return inv, nil
}

// LookupInvoice returns the cached invoice for hash, or ErrInvoiceNotFound
// if this stub never minted it.
func (s *StubBackend) LookupInvoice(_ context.Context,
	hash lntypes.Hash) (*Invoice, error) {

	inv, ok := s.store.get(hash)
	if !ok {
		return nil, ErrInvoiceNotFound
	}

	cp := *inv
	return &cp, nil
}

// Settle marks hash as paid, as if a Lightning node had just reported a
// settlement, and returns the preimage that satisfies it. Test/demo-only.
func (s *StubBackend) Settle(hash lntypes.Hash) (lntypes.Preimage, error) {
	s.mtx.Lock()
	preimage, ok := s.preimage[hash]
	s.mtx.Unlock()
	if !ok {
		return lntypes.Preimage{}, ErrInvoiceNotFound
	}

	s.store.markPaid(hash, preimage)
	return preimage, nil
}

// Close is a no-op for the stub backend.
func (s *StubBackend) Close() error {
	return nil
}
