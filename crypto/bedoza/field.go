//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package bedoza implements a two-party, passively-secure additive
// secret-sharing arithmetic black box (the "BeDOZa" ABB) over a prime
// field, together with the homomorphic bridge that lifts an additive
// F_p share into an additive sharing of a P-256 point.
package bedoza

import (
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	tsscommon "github.com/bnb-chain/tss-lib/v2/common"
)

// curve is the only curve the signing core ever runs over. convert_ec
// is sound only when FieldParams.p equals this curve's order.
var curve = elliptic.P256()

// maxRandAttempts bounds the field's rejection sampler. It is a
// liveness guard, not a security parameter.
const maxRandAttempts = 10000

// FieldParams describes the prime field F_p the ABB's shares live in.
// It is immutable after construction and safe for concurrent read
// access.
type FieldParams struct {
	bitWidth int
	p        *big.Int
	mod      *tsscommon.ModInt
}

// FieldRecord is the persisted, text-encoded form of a FieldParams: a
// bit width and a decimal modulus, suitable for JSON round-tripping.
type FieldRecord struct {
	SizeInBits uint   `json:"size_in_bits"`
	P          string `json:"p"`
}

// NewP256FieldParams returns the field whose modulus is the P-256
// group order n. This is the only field the signing core uses.
func NewP256FieldParams() *FieldParams {
	n := curve.Params().N
	return newFieldParams(n.BitLen(), n)
}

// NewSafePrimeFieldParams returns a FieldParams over a freshly sampled
// safe prime of the given bit width. It exists for exercising the ABB
// independently of P-256 and must never be handed to crypto/tecdsa.
func NewSafePrimeFieldParams(bits int) (*FieldParams, error) {
	for {
		q, err := rand.Prime(rand.Reader, bits-1)
		if err != nil {
			return nil, fmt.Errorf("bedoza: sample safe-prime field: %w", err)
		}
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, big.NewInt(1))
		if p.ProbablyPrime(20) {
			return newFieldParams(bits, p), nil
		}
	}
}

func newFieldParams(bitWidth int, p *big.Int) *FieldParams {
	return &FieldParams{
		bitWidth: bitWidth,
		p:        new(big.Int).Set(p),
		mod:      tsscommon.ModInt(p),
	}
}

// BitWidth returns the field's configured bit width.
func (fp *FieldParams) BitWidth() int {
	return fp.bitWidth
}

// P returns the field's modulus. The caller must not mutate it.
func (fp *FieldParams) P() *big.Int {
	return fp.p
}

// Canonicalize returns the least non-negative residue of z modulo p.
func (fp *FieldParams) Canonicalize(z *big.Int) *big.Int {
	r := new(big.Int).Mod(z, fp.p)
	if r.Sign() < 0 {
		r.Add(r, fp.p)
	}
	return r
}

// Add returns canonicalize(a+b).
func (fp *FieldParams) Add(a, b *big.Int) *big.Int {
	return fp.mod.Add(a, b)
}

// Sub returns canonicalize(a-b).
func (fp *FieldParams) Sub(a, b *big.Int) *big.Int {
	return fp.mod.Sub(a, b)
}

// Mul returns canonicalize(a*b).
func (fp *FieldParams) Mul(a, b *big.Int) *big.Int {
	return fp.mod.Mul(a, b)
}

// Inverse returns the canonical inverse of a modulo p. It fails with
// ErrNoInverse when a is 0.
func (fp *FieldParams) Inverse(a *big.Int) (*big.Int, error) {
	c := fp.Canonicalize(a)
	if c.Sign() == 0 {
		return nil, ErrNoInverse
	}
	return fp.mod.ModInverse(c), nil
}

// RandomElement samples a uniformly random element of F_p by rejection
// sampling on bitWidth uniform random bits, accepting the first draw
// less than p. It fails with ErrRngExhausted if no acceptable sample
// is found within maxRandAttempts draws.
func (fp *FieldParams) RandomElement() (*big.Int, error) {
	nBytes := (fp.bitWidth + 7) / 8
	buf := make([]byte, nBytes)
	excess := uint(nBytes*8 - fp.bitWidth)

	for attempt := 0; attempt < maxRandAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("bedoza: read random bytes: %w", err)
		}
		if excess > 0 {
			buf[0] &= 0xff >> excess
		}
		z := new(big.Int).SetBytes(buf)
		if z.Cmp(fp.p) < 0 {
			return z, nil
		}
	}
	return nil, ErrRngExhausted
}

// MarshalRecord returns the persisted form of fp.
func (fp *FieldParams) MarshalRecord() FieldRecord {
	return FieldRecord{
		SizeInBits: uint(fp.bitWidth),
		P:          fp.p.String(),
	}
}

// ParseFieldRecord parses and validates a persisted FieldRecord.
func ParseFieldRecord(rec FieldRecord) (*FieldParams, error) {
	p, ok := new(big.Int).SetString(rec.P, 10)
	if !ok || p.Sign() <= 0 {
		return nil, fmt.Errorf("bedoza: parse field record: %w", ErrInvalidParameters)
	}
	if uint(p.BitLen()) != rec.SizeInBits {
		return nil, fmt.Errorf(
			"bedoza: field record bit width %d does not match p's bit length %d: %w",
			rec.SizeInBits, p.BitLen(), ErrInvalidParameters)
	}
	return newFieldParams(int(rec.SizeInBits), p), nil
}
