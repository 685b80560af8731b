//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package primegroup generates and persists safe-prime Schnorr groups
// (p = 2q+1, both prime, g a generator of the order-q subgroup). This
// is collaborator infrastructure for internal/collaborators/elgamal's
// 1-of-k oblivious transfer path, not the P-256 signing core: the
// signing core's ABB runs over F_n where n is the P-256 group order
// and never touches this package.
package primegroup

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/otiai10/primes"
	"github.com/pkg/errors"
)

// maxSearchAttempts bounds how many Sophie Germain candidates are
// tried before giving up; it is a liveness guard, not a security
// parameter.
const maxSearchAttempts = 1 << 20

// smallRejectBound is the largest candidate offset checked with a
// cheap machine-word primality test before paying for a big.Int
// Miller-Rabin pass; it exists purely to reject obviously-composite
// candidates fast.
const smallRejectBound = 1 << 12

// Group is a safe-prime Schnorr group: P = 2Q+1, both prime, and G
// generates the order-Q subgroup of (Z/PZ)*.
type Group struct {
	P *big.Int
	Q *big.Int
	G *big.Int
}

// Record is the persisted, text-encoded form of a Group: the
// generator, subgroup order, and modulus as decimal integer strings.
type Record struct {
	G string `json:"g"`
	Q string `json:"q"`
	P string `json:"p"`
}

// Generate searches for a safe-prime group whose modulus P has pBits
// bits, then finds a generator of its order-Q subgroup.
func Generate(pBits int) (*Group, error) {
	if pBits < 8 {
		return nil, fmt.Errorf("primegroup: generate: bit width %d too small", pBits)
	}
	qBits := pBits - 1

	for attempt := 0; attempt < maxSearchAttempts; attempt++ {
		q, err := rand.Prime(rand.Reader, qBits)
		if err != nil {
			return nil, errors.Wrap(err, "primegroup: sample candidate q")
		}
		if !quickReject(q) {
			continue
		}

		p := new(big.Int).Lsh(q, 1)
		p.Add(p, big.NewInt(1))
		if !p.ProbablyPrime(40) {
			continue
		}

		g, err := findGenerator(p, q)
		if err != nil {
			continue
		}
		return &Group{P: p, Q: q, G: g}, nil
	}
	return nil, fmt.Errorf("primegroup: generate: exhausted %d attempts at %d bits", maxSearchAttempts, pBits)
}

// quickReject trial-divides q by small odd candidates, using
// otiai10/primes to recognize which candidates are themselves prime,
// before paying for a big.Int Miller-Rabin pass on an obviously
// composite q.
func quickReject(q *big.Int) bool {
	for candidate := 3; candidate < smallRejectBound; candidate += 2 {
		if !primes.IsPrime(candidate) {
			continue
		}
		rem := new(big.Int).Mod(q, big.NewInt(int64(candidate)))
		if rem.Sign() == 0 && q.Cmp(big.NewInt(int64(candidate))) != 0 {
			return false
		}
	}
	return q.ProbablyPrime(20)
}

// findGenerator returns a generator of the order-q subgroup of
// (Z/pZ)*, given p = 2q+1. A random h raised to the power 2 is a
// generator unless h^2 == 1, which happens with negligible
// probability.
func findGenerator(p, q *big.Int) (*big.Int, error) {
	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	for attempt := 0; attempt < 100; attempt++ {
		h, err := rand.Int(rand.Reader, pMinus1)
		if err != nil {
			return nil, errors.Wrap(err, "primegroup: sample generator candidate")
		}
		h.Add(h, big.NewInt(1))

		g := new(big.Int).Exp(h, big.NewInt(2), p)
		if g.Cmp(big.NewInt(1)) == 0 {
			continue
		}
		if new(big.Int).Exp(g, q, p).Cmp(big.NewInt(1)) == 0 {
			return g, nil
		}
	}
	return nil, fmt.Errorf("primegroup: find generator: exhausted attempts")
}

// MarshalRecord returns the persisted form of g.
func (g *Group) MarshalRecord() Record {
	return Record{
		G: g.G.String(),
		Q: g.Q.String(),
		P: g.P.String(),
	}
}

// ParseRecord parses and structurally validates a persisted Record.
func ParseRecord(rec Record) (*Group, error) {
	p, ok := new(big.Int).SetString(rec.P, 10)
	if !ok || p.Sign() <= 0 {
		return nil, fmt.Errorf("primegroup: parse record: invalid p")
	}
	q, ok := new(big.Int).SetString(rec.Q, 10)
	if !ok || q.Sign() <= 0 {
		return nil, fmt.Errorf("primegroup: parse record: invalid q")
	}
	g, ok := new(big.Int).SetString(rec.G, 10)
	if !ok || g.Sign() <= 0 {
		return nil, fmt.Errorf("primegroup: parse record: invalid g")
	}
	want := new(big.Int).Lsh(q, 1)
	want.Add(want, big.NewInt(1))
	if p.Cmp(want) != 0 {
		return nil, fmt.Errorf("primegroup: parse record: p != 2q+1")
	}
	return &Group{P: p, Q: q, G: g}, nil
}
