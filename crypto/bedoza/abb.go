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
	"go.uber.org/zap"
)

// ABB is the two-party arithmetic black box: it owns both parties'
// stores in-process (there is no network transport here) and a
// TripleSource for Beaver triples, and exposes a small operation set
// over opaque share names: draw shares, secret-share a value, open a
// share, and combine shares locally or via a Beaver triple.
//
// An ABB is not safe for concurrent use: it is driven by a single
// protocol run at a time, in a passively-secure, sequential execution
// model.
type ABB struct {
	params  *FieldParams
	a       *Party
	b       *Party
	triples TripleSource
	names   nameGenerator
	log     *zap.SugaredLogger
}

// NewABB wires up an ABB over the given field, with fresh, empty
// parties and the given TripleSource. A nil triples argument defaults
// to a *TrustedDealer over params, the only triple source the signing
// path actually uses; passing a different TripleSource (an OT-based
// one, say) requires no other change anywhere in this package.
func NewABB(params *FieldParams, triples TripleSource, log *zap.SugaredLogger) *ABB {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if triples == nil {
		triples = NewTrustedDealer(params)
	}
	return &ABB{
		params:  params,
		a:       NewParty(params),
		b:       NewParty(params),
		triples: triples,
		log:     log,
	}
}

// Params returns the field the ABB operates over.
func (abb *ABB) Params() *FieldParams {
	return abb.params
}

// freshName allocates a share name never previously returned by this
// ABB.
func (abb *ABB) freshName() FieldShare {
	return FieldShare(abb.names.Next())
}

// Rand has both parties locally draw a fresh share of a uniform random
// field element under a new name, without ever opening it, and
// returns the name.
func (abb *ABB) Rand() (FieldShare, error) {
	name := abb.freshName()
	if _, err := abb.a.Rand(name); err != nil {
		return "", err
	}
	if _, err := abb.b.Rand(name); err != nil {
		return "", err
	}
	abb.log.Debugw("rand", "share", name)
	return name, nil
}

// RandMul draws a fresh Beaver triple from the dealer and installs its
// three components as ordinary, never-opened field shares (u, v, w)
// with u*v = w mod p. It is the ABB-level primitive that
// crypto/tecdsa's preprocessing builds on; Mul does not call it and
// draws its own triple from the TripleSource directly.
func (abb *ABB) RandMul() (u, v, w FieldShare, err error) {
	triA, triB, err := abb.triples.GenerateTriple()
	if err != nil {
		return "", "", "", fmt.Errorf("bedoza: rand_mul: %w", err)
	}
	u, v, w = abb.freshName(), abb.freshName(), abb.freshName()
	abb.a.SetShare(u, triA.U)
	abb.b.SetShare(u, triB.U)
	abb.a.SetShare(v, triA.V)
	abb.b.SetShare(v, triB.V)
	abb.a.SetShare(w, triA.W)
	abb.b.SetShare(w, triB.W)
	abb.log.Debugw("rand_mul", "u", u, "v", v, "w", w)
	return u, v, w, nil
}

// LocalConstMul computes x*open(a) + y*open(b) without opening a or b:
// it composes MulConst and Add, the two purely local primitives, and
// allocates a single fresh output name.
func (abb *ABB) LocalConstMul(a, b FieldShare, x, y *big.Int) (FieldShare, error) {
	xa, err := abb.MulConst(a, x)
	if err != nil {
		return "", err
	}
	yb, err := abb.MulConst(b, y)
	if err != nil {
		return "", err
	}
	return abb.Add(xa, yb)
}

// InputByA lets party A secret-share a value it knows: A keeps
// value-r and hands r to B, under a freshly allocated name.
func (abb *ABB) InputByA(value *big.Int) (FieldShare, error) {
	name := abb.freshName()
	r, err := abb.a.CreateSecretShare(name, value)
	if err != nil {
		return "", err
	}
	abb.b.ReceiveSecretShare(name, r)
	abb.log.Debugw("input", "share", name, "by", "A")
	return name, nil
}

// InputByB is InputByA with the roles reversed.
func (abb *ABB) InputByB(value *big.Int) (FieldShare, error) {
	name := abb.freshName()
	r, err := abb.b.CreateSecretShare(name, value)
	if err != nil {
		return "", err
	}
	abb.a.ReceiveSecretShare(name, r)
	abb.log.Debugw("input", "share", name, "by", "B")
	return name, nil
}

// Open reconstructs the value behind name by summing both parties'
// shares. It is the ABB's only deliberate leak of a value to both
// parties, and callers are expected to call it only on quantities the
// protocol intends to reveal (blinding factors, the final signature,
// never a raw secret key share).
func (abb *ABB) Open(name FieldShare) (*big.Int, error) {
	a, err := abb.a.Share(name)
	if err != nil {
		return nil, err
	}
	b, err := abb.b.Share(name)
	if err != nil {
		return nil, err
	}
	v := abb.params.Add(a, b)
	abb.log.Debugw("open", "share", name)
	return v, nil
}

// AddConst sets out = in + k, folding the public constant into party
// A's share only, and allocates out as a fresh name.
func (abb *ABB) AddConst(in FieldShare, k *big.Int) (FieldShare, error) {
	out := abb.freshName()
	if err := abb.a.AddConst(in, out, k, true); err != nil {
		return "", err
	}
	if err := abb.b.AddConst(in, out, k, false); err != nil {
		return "", err
	}
	return out, nil
}

// MulConst sets out = in * k locally at both parties and allocates out
// as a fresh name.
func (abb *ABB) MulConst(in FieldShare, k *big.Int) (FieldShare, error) {
	out := abb.freshName()
	if err := abb.a.MulConst(in, out, k); err != nil {
		return "", err
	}
	if err := abb.b.MulConst(in, out, k); err != nil {
		return "", err
	}
	return out, nil
}

// Add sets out = in1 + in2 locally at both parties and allocates out
// as a fresh name.
func (abb *ABB) Add(in1, in2 FieldShare) (FieldShare, error) {
	out := abb.freshName()
	if err := abb.a.Add(in1, in2, out); err != nil {
		return "", err
	}
	if err := abb.b.Add(in1, in2, out); err != nil {
		return "", err
	}
	return out, nil
}

// Sub sets out = in1 - in2, implemented as in1 + (-1)*in2 so it shares
// the same local-arithmetic path as Add and MulConst.
func (abb *ABB) Sub(in1, in2 FieldShare) (FieldShare, error) {
	negIn2, err := abb.MulConst(in2, big.NewInt(-1))
	if err != nil {
		return "", err
	}
	return abb.Add(in1, negIn2)
}

// Mul computes a share of x*y from shares x and y using the classic
// Beaver blind-and-open trick: draw a fresh triple (u,v,w), open
// d = x-u and e = y-v, then each party locally sets
// z_i = w_i + e*x_i + d*y_i, with party A additionally folding in e*d
// so the two shares sum to x*y.
func (abb *ABB) Mul(x, y FieldShare) (FieldShare, error) {
	triA, triB, err := abb.triples.GenerateTriple()
	if err != nil {
		return "", fmt.Errorf("bedoza: mul %s*%s: %w", x, y, err)
	}
	uName, vName := abb.freshName(), abb.freshName()
	abb.a.SetShare(uName, triA.U)
	abb.b.SetShare(uName, triB.U)
	abb.a.SetShare(vName, triA.V)
	abb.b.SetShare(vName, triB.V)

	dName, err := abb.Sub(x, uName)
	if err != nil {
		return "", err
	}
	eName, err := abb.Sub(y, vName)
	if err != nil {
		return "", err
	}
	d, err := abb.Open(dName)
	if err != nil {
		return "", err
	}
	e, err := abb.Open(eName)
	if err != nil {
		return "", err
	}

	out := abb.freshName()
	ed := abb.params.Mul(e, d)
	if err := abb.localMulShare(abb.a, out, triA.W, x, y, e, d, ed, true); err != nil {
		return "", err
	}
	if err := abb.localMulShare(abb.b, out, triB.W, x, y, e, d, ed, false); err != nil {
		return "", err
	}
	abb.log.Debugw("mul", "x", x, "y", y, "out", out)
	return out, nil
}

func (abb *ABB) localMulShare(p *Party, out FieldShare, w *big.Int, x, y FieldShare, e, d, ed *big.Int, foldEd bool) error {
	xi, err := p.Share(x)
	if err != nil {
		return err
	}
	yi, err := p.Share(y)
	if err != nil {
		return err
	}
	z := abb.params.Add(w, abb.params.Mul(e, xi))
	z = abb.params.Add(z, abb.params.Mul(d, yi))
	if foldEd {
		z = abb.params.Sub(z, ed)
	}
	p.SetShare(out, z)
	return nil
}

// ConvertEC lifts the F_p share name into a point share stored under
// the SAME name (it does not allocate a fresh name, unlike MulConstEC,
// since it transforms a share in place rather than combining two
// shares into a new one). It fails if the ABB's field modulus is not
// the curve's group order, since that is the only case in which
// scalar multiplication by G is linear in the same way addition mod p
// is.
func (abb *ABB) ConvertEC(name FieldShare) (PointShare, error) {
	if abb.params.P().Cmp(curve.Params().N) != 0 {
		return "", fmt.Errorf("bedoza: convert_ec %s: %w", name, ErrInvalidParameters)
	}
	if err := abb.a.ConvertEC(name); err != nil {
		return "", err
	}
	if err := abb.b.ConvertEC(name); err != nil {
		return "", err
	}
	out := PointShare(name)
	abb.log.Debugw("convert_ec", "share", name)
	return out, nil
}

// MulConstEC sets out = in * k for a point share in and public
// constant k, allocating out as a fresh name.
func (abb *ABB) MulConstEC(in PointShare, k *big.Int) (PointShare, error) {
	out := PointShare(abb.freshName())
	if err := abb.a.MulConstEC(in, out, k); err != nil {
		return "", err
	}
	if err := abb.b.MulConstEC(in, out, k); err != nil {
		return "", err
	}
	return out, nil
}

// AddEC sets out = in1 + in2 for two point shares, allocating out as a
// fresh name.
func (abb *ABB) AddEC(in1, in2 PointShare) (PointShare, error) {
	out := PointShare(abb.freshName())
	if err := abb.a.AddEC(in1, in2, out); err != nil {
		return "", err
	}
	if err := abb.b.AddEC(in1, in2, out); err != nil {
		return "", err
	}
	return out, nil
}

// OpenEC reconstructs the curve point behind a point share by adding
// both parties' halves.
func (abb *ABB) OpenEC(name PointShare) (*bnbcrypto.ECPoint, error) {
	a, err := abb.a.ECShare(name)
	if err != nil {
		return nil, err
	}
	b, err := abb.b.ECShare(name)
	if err != nil {
		return nil, err
	}
	pt, err := a.Add(b)
	if err != nil {
		return nil, fmt.Errorf("bedoza: open_ec %s: %w", name, err)
	}
	abb.log.Debugw("open_ec", "share", name)
	return pt, nil
}

// ExportShare returns both parties' raw halves of an F_p share, for a
// caller that needs to persist protocol state across process
// invocations (crypto/tecdsa's CLI demo is the only caller of this).
// It does not open or otherwise combine the halves; it exists purely
// to get a share's bytes out of an in-process ABB that will not
// survive past this run.
func (abb *ABB) ExportShare(name FieldShare) (aVal, bVal *big.Int, err error) {
	aVal, err = abb.a.Share(name)
	if err != nil {
		return nil, nil, err
	}
	bVal, err = abb.b.Share(name)
	if err != nil {
		return nil, nil, err
	}
	return aVal, bVal, nil
}

// ImportShare installs a previously exported pair of raw halves under
// a freshly allocated name, the inverse of ExportShare.
func (abb *ABB) ImportShare(aVal, bVal *big.Int) FieldShare {
	name := abb.freshName()
	abb.a.SetShare(name, aVal)
	abb.b.SetShare(name, bVal)
	return name
}

// ExportECShare returns both parties' raw halves of a point share, the
// point-share counterpart to ExportShare.
func (abb *ABB) ExportECShare(name PointShare) (aPt, bPt *bnbcrypto.ECPoint, err error) {
	aPt, err = abb.a.ECShare(name)
	if err != nil {
		return nil, nil, err
	}
	bPt, err = abb.b.ECShare(name)
	if err != nil {
		return nil, nil, err
	}
	return aPt, bPt, nil
}

// ImportECShare installs a previously exported pair of point-share
// halves under a freshly allocated name, the inverse of
// ExportECShare.
func (abb *ABB) ImportECShare(aPt, bPt *bnbcrypto.ECPoint) PointShare {
	name := PointShare(abb.freshName())
	abb.a.SetECShare(name, aPt)
	abb.b.SetECShare(name, bPt)
	return name
}
