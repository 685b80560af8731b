//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package bedoza

import (
	"fmt"
	"math/big"

	bnbcrypto "github.com/bnb-chain/tss-lib/v2/crypto"
)

// Party holds one party's half of every live share: a map of F_p
// shares and a map of curve-point shares, both keyed by share name.
// Both maps grow monotonically; shares are never explicitly removed.
//
// Party performs no locking of its own; the ABB that drives a pair of
// Parties is responsible for any concurrency discipline its caller
// needs.
type Party struct {
	params *FieldParams
	zp     map[FieldShare]*big.Int
	ec     map[PointShare]*bnbcrypto.ECPoint
}

// NewParty returns an empty Party over the given field.
func NewParty(params *FieldParams) *Party {
	return &Party{
		params: params,
		zp:     make(map[FieldShare]*big.Int),
		ec:     make(map[PointShare]*bnbcrypto.ECPoint),
	}
}

// Rand draws a fresh uniform field element, stores it under name, and
// returns it. It is the local half of ABB.Rand: each party calls Rand
// independently and the sum of the two draws is never itself opened.
func (p *Party) Rand(name FieldShare) (*big.Int, error) {
	r, err := p.params.RandomElement()
	if err != nil {
		return nil, fmt.Errorf("bedoza: party rand %s: %w", name, err)
	}
	p.zp[name] = r
	return r, nil
}

// CreateSecretShare splits value into two additive shares: it keeps
// value-r for itself under name and returns r, the share meant for the
// other party.
func (p *Party) CreateSecretShare(name FieldShare, value *big.Int) (*big.Int, error) {
	r, err := p.params.RandomElement()
	if err != nil {
		return nil, fmt.Errorf("bedoza: create secret share %s: %w", name, err)
	}
	p.zp[name] = p.params.Sub(value, r)
	return r, nil
}

// ReceiveSecretShare stores a share handed to this party by its peer's
// CreateSecretShare call.
func (p *Party) ReceiveSecretShare(name FieldShare, share *big.Int) {
	p.zp[name] = p.params.Canonicalize(share)
}

// Share returns this party's half of name, or ErrUnknownShare.
func (p *Party) Share(name FieldShare) (*big.Int, error) {
	v, ok := p.zp[name]
	if !ok {
		return nil, fmt.Errorf("bedoza: share %s: %w", name, ErrUnknownShare)
	}
	return v, nil
}

// SetShare installs a raw value for name, overwriting any existing
// share. It is used internally to record the outputs of local
// arithmetic (AddConst, MulConst, Add, ...).
func (p *Party) SetShare(name FieldShare, value *big.Int) {
	p.zp[name] = p.params.Canonicalize(value)
}

// AddConst sets out = in + k (locally, no interaction): exactly one of
// the two parties must fold k in, per the ABB's convention that party
// A carries public constants.
func (p *Party) AddConst(in FieldShare, out FieldShare, k *big.Int, foldConstant bool) error {
	v, err := p.Share(in)
	if err != nil {
		return err
	}
	if foldConstant {
		p.SetShare(out, p.params.Add(v, k))
	} else {
		p.SetShare(out, v)
	}
	return nil
}

// MulConst sets out = in * k locally. Both parties multiply their own
// share by the public constant; no interaction is required since
// k*(a+b) = k*a + k*b.
func (p *Party) MulConst(in FieldShare, out FieldShare, k *big.Int) error {
	v, err := p.Share(in)
	if err != nil {
		return err
	}
	p.SetShare(out, p.params.Mul(v, k))
	return nil
}

// Add sets out = in1 + in2 locally.
func (p *Party) Add(in1, in2 FieldShare, out FieldShare) error {
	a, err := p.Share(in1)
	if err != nil {
		return err
	}
	b, err := p.Share(in2)
	if err != nil {
		return err
	}
	p.SetShare(out, p.params.Add(a, b))
	return nil
}

// ConvertEC lifts this party's F_p share of name into a curve-point
// share stored under the SAME name, by computing share*G. The two
// parties' point shares sum (as curve points) to value*G because
// scalar multiplication is linear over Z_n, exactly as the F_p shares
// sum to value over Z_p — but only when p equals the curve's group
// order, which the caller (ABB) must guarantee.
func (p *Party) ConvertEC(name FieldShare) error {
	v, err := p.Share(name)
	if err != nil {
		return err
	}
	pt := bnbcrypto.ScalarBaseMult(curve, v)
	p.ec[PointShare(name)] = pt
	return nil
}

// ECShare returns this party's half of a point share, or
// ErrUnknownShare.
func (p *Party) ECShare(name PointShare) (*bnbcrypto.ECPoint, error) {
	pt, ok := p.ec[name]
	if !ok {
		return nil, fmt.Errorf("bedoza: ec share %s: %w", name, ErrUnknownShare)
	}
	return pt, nil
}

// SetECShare installs a point share, overwriting any existing one.
func (p *Party) SetECShare(name PointShare, pt *bnbcrypto.ECPoint) {
	p.ec[name] = pt
}

// MulConstEC sets out = in * k, where in and out are point shares and
// k is a public field element: both parties scale their own point
// share by k, and the sum remains consistent by the same linearity
// ConvertEC relies on. Unlike ConvertEC, the result is stored under a
// fresh name, not the input's name.
func (p *Party) MulConstEC(in PointShare, out PointShare, k *big.Int) error {
	pt, err := p.ECShare(in)
	if err != nil {
		return err
	}
	scaled := pt.ScalarMult(p.params.Canonicalize(k))
	p.SetECShare(out, scaled)
	return nil
}

// AddEC sets out = in1 + in2, both point shares.
func (p *Party) AddEC(in1, in2 PointShare, out PointShare) error {
	a, err := p.ECShare(in1)
	if err != nil {
		return err
	}
	b, err := p.ECShare(in2)
	if err != nil {
		return err
	}
	sum, err := a.Add(b)
	if err != nil {
		return fmt.Errorf("bedoza: add ec shares %s+%s: %w", in1, in2, err)
	}
	p.SetECShare(out, sum)
	return nil
}
