//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package bedoza

import (
	"fmt"
	"math/big"
)

// TripleShares is one party's half of a Beaver triple (u, v, w) with
// u*v = w mod p. A TrustedDealer hands one TripleShares to each party;
// neither party ever sees the other's half or the opened u, v, w.
type TripleShares struct {
	U *big.Int
	V *big.Int
	W *big.Int
}

// TripleSource supplies fresh Beaver triples to an ABB. TrustedDealer
// is the only TripleSource the signing path wires in; the seam exists
// so a future OT-based source (internal/collaborators/elgamal's
// one-of-k OT is the candidate) can replace it without ABB's contract
// changing at all.
type TripleSource interface {
	GenerateTriple() (a, b *TripleShares, err error)
}

// TrustedDealer generates Beaver triples for a two-party ABB. It is
// the triple source this passively-secure scheme's signing path uses;
// internal/collaborators/elgamal implements the 1-of-k OT an
// alternative source would build on, and this package does not depend
// on it.
type TrustedDealer struct {
	params *FieldParams
}

var _ TripleSource = (*TrustedDealer)(nil)

// NewTrustedDealer returns a dealer over the given field.
func NewTrustedDealer(params *FieldParams) *TrustedDealer {
	return &TrustedDealer{params: params}
}

// GenerateTriple samples a fresh Beaver triple (u, v uniform, w = u*v)
// and splits it into two additive TripleShares, one per party, per
// spec.md section 4.2: plain uniform sampling, no rejection. A
// consumer that needs a nonzero opened value (crypto/tecdsa's
// user-independent preprocessing opens one triple component as a
// blinding factor it must invert) is responsible for checking the
// opened value itself and redrawing; the dealer does not guess which
// triples will be used that way.
func (d *TrustedDealer) GenerateTriple() (a, b *TripleShares, err error) {
	u, err := d.params.RandomElement()
	if err != nil {
		return nil, nil, fmt.Errorf("bedoza: dealer sample u: %w", err)
	}
	v, err := d.params.RandomElement()
	if err != nil {
		return nil, nil, fmt.Errorf("bedoza: dealer sample v: %w", err)
	}
	w := d.params.Mul(u, v)

	uA, err := d.params.RandomElement()
	if err != nil {
		return nil, nil, fmt.Errorf("bedoza: dealer split u: %w", err)
	}
	vA, err := d.params.RandomElement()
	if err != nil {
		return nil, nil, fmt.Errorf("bedoza: dealer split v: %w", err)
	}
	wA, err := d.params.RandomElement()
	if err != nil {
		return nil, nil, fmt.Errorf("bedoza: dealer split w: %w", err)
	}

	uB := d.params.Sub(u, uA)
	vB := d.params.Sub(v, vA)
	wB := d.params.Sub(w, wA)

	a = &TripleShares{U: uA, V: vA, W: wA}
	b = &TripleShares{U: uB, V: vB, W: wB}
	return a, b, nil
}

// GenerateBatch draws n independent triples, one pair of TripleShares
// per slot. It stops at the first failure rather than returning a
// partial batch.
func (d *TrustedDealer) GenerateBatch(n int) (forA, forB []*TripleShares, err error) {
	forA = make([]*TripleShares, n)
	forB = make([]*TripleShares, n)
	for i := 0; i < n; i++ {
		forA[i], forB[i], err = d.GenerateTriple()
		if err != nil {
			return nil, nil, fmt.Errorf("bedoza: generate batch triple %d/%d: %w", i, n, err)
		}
	}
	return forA, forB, nil
}
