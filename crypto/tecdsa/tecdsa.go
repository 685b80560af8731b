//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package tecdsa implements two-party threshold ECDSA over P-256,
// built entirely on the additive-sharing arithmetic black box in
// crypto/bedoza. It follows the Gennaro-Goldfeder-style split of
// preprocessing (a key-independent nonce phase followed by a
// key-dependent phase, both independent of the message) from the
// online signing step, adapted to the passively-secure
// Beaver-triple ABB rather than to Paillier or OT-based
// multiplication.
package tecdsa

import (
	"crypto/elliptic"
	"crypto/sha512"
	"errors"
	"fmt"
	"math/big"

	"github.com/markkurossi/bedoza/crypto/bedoza"
	bnbcrypto "github.com/bnb-chain/tss-lib/v2/crypto"
	"go.uber.org/zap"
)

// KeyShare is one run's long-lived secret-key share, the handle
// returned by GenKeypair and consumed by every later preprocessing and
// signing call over the same key.
type KeyShare struct {
	sk bedoza.FieldShare
	pk *bnbcrypto.ECPoint
}

// PublicKey returns the reconstructed P-256 public key for this key
// share.
func (k *KeyShare) PublicKey() *bnbcrypto.ECPoint {
	return k.pk
}

// Preprocessing is the output of one user-independent plus
// user-dependent preprocessing round: a single-use nonce commitment
// ready to be consumed by exactly one Sign call. Reusing a
// Preprocessing across two Sign calls breaks the scheme and is the
// caller's responsibility to avoid; ThresholdECDSA does not track use.
type Preprocessing struct {
	k     bedoza.PointShare
	kInv  bedoza.FieldShare
	skTag bedoza.FieldShare
}

// Signature is a two-party ECDSA signature (r, s), both canonical F_n
// elements.
type Signature struct {
	R *big.Int
	S *big.Int
}

// ThresholdECDSA drives one two-party signing relationship over a
// single bedoza.ABB instance. It assumes the ABB's field is exactly
// the P-256 group order, since ConvertEC's curve homomorphism depends
// on it; NewThresholdECDSA enforces this at construction.
type ThresholdECDSA struct {
	abb *bedoza.ABB
	log *zap.SugaredLogger

	hashFn func([]byte) []byte
}

// Option configures a ThresholdECDSA at construction.
type Option func(*ThresholdECDSA)

// WithTruncatedHash makes Sign and Verify truncate SHA-512(message) to
// the curve's bit length before reducing mod n, matching the behavior
// of conventional ECDSA implementations (RFC 6979, FIPS 186-4) rather
// than reducing the full 64-byte digest mod n, which is this
// package's default. It exists so this package can interoperate with
// verifiers that expect standard truncation; it changes only how the
// hash is folded into F_n, never the signing protocol itself.
func WithTruncatedHash() Option {
	return func(t *ThresholdECDSA) {
		t.hashFn = func(msg []byte) []byte {
			sum := sha512.Sum512(msg)
			// P-256's order is 256 bits; keep the leading 32 bytes of
			// the 64-byte SHA-512 digest.
			return sum[:32]
		}
	}
}

// NewThresholdECDSA wires a ThresholdECDSA on top of params, which
// must equal the P-256 group order.
func NewThresholdECDSA(params *bedoza.FieldParams, log *zap.SugaredLogger, opts ...Option) (*ThresholdECDSA, error) {
	if params.P().Cmp(elliptic.P256().Params().N) != 0 {
		return nil, fmt.Errorf("tecdsa: field modulus is not the P-256 group order: %w", bedoza.ErrInvalidParameters)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	t := &ThresholdECDSA{
		abb: bedoza.NewABB(params, nil, log),
		log: log,
		hashFn: func(msg []byte) []byte {
			sum := sha512.Sum512(msg)
			return sum[:]
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// GenKeypair draws a fresh shared secret key, lifts it to a curve
// point share, and opens the reconstructed public key.
func (t *ThresholdECDSA) GenKeypair() (*KeyShare, error) {
	sk, err := t.abb.Rand()
	if err != nil {
		return nil, fmt.Errorf("tecdsa: gen_keypair: %w", err)
	}
	skPoint, err := t.abb.ConvertEC(sk)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: gen_keypair: %w", err)
	}
	pk, err := t.abb.OpenEC(skPoint)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: gen_keypair: %w", err)
	}
	t.log.Infow("gen_keypair", "sk_share", sk)
	return &KeyShare{sk: sk, pk: pk}, nil
}

// UserIndependentPreprocessing draws a fresh nonce share k and its
// inverse k_inv, independent of both the signing key and the message.
// It fails with bedoza.ErrDegenerateTriple when the opened blinding
// factor is zero (probability 1/n); callers retry by calling again, as
// SignWithRetry does automatically.
func (t *ThresholdECDSA) UserIndependentPreprocessing() (k bedoza.PointShare, kInv bedoza.FieldShare, err error) {
	a, b, c, err := t.abb.RandMul()
	if err != nil {
		return "", "", fmt.Errorf("tecdsa: user_independent_preprocessing: %w", err)
	}
	C, err := t.abb.Open(c)
	if err != nil {
		return "", "", fmt.Errorf("tecdsa: user_independent_preprocessing: %w", err)
	}
	if C.Sign() == 0 {
		return "", "", bedoza.ErrDegenerateTriple
	}
	CInv, err := t.abb.Params().Inverse(C)
	if err != nil {
		return "", "", fmt.Errorf("tecdsa: user_independent_preprocessing: %w", err)
	}

	bPoint, err := t.abb.ConvertEC(b)
	if err != nil {
		return "", "", fmt.Errorf("tecdsa: user_independent_preprocessing: %w", err)
	}
	k, err = t.abb.MulConstEC(bPoint, CInv)
	if err != nil {
		return "", "", fmt.Errorf("tecdsa: user_independent_preprocessing: %w", err)
	}
	t.log.Debugw("user_independent_preprocessing", "k", k, "k_inv", a)
	return k, a, nil
}

// UserDependentPreprocessing folds the key share into the nonce
// preprocessing, producing sk' = k_inv * sk.
func (t *ThresholdECDSA) UserDependentPreprocessing(key *KeyShare, k bedoza.PointShare, kInv bedoza.FieldShare) (*Preprocessing, error) {
	skTag, err := t.abb.Mul(kInv, key.sk)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: user_dependent_preprocessing: %w", err)
	}
	return &Preprocessing{k: k, kInv: kInv, skTag: skTag}, nil
}

// Preprocess runs UserIndependentPreprocessing immediately followed by
// UserDependentPreprocessing for the given key, a convenience most
// callers want since the two are never meaningfully separated in this
// package's in-process model.
func (t *ThresholdECDSA) Preprocess(key *KeyShare) (*Preprocessing, error) {
	k, kInv, err := t.UserIndependentPreprocessing()
	if err != nil {
		return nil, err
	}
	return t.UserDependentPreprocessing(key, k, kInv)
}

func (t *ThresholdECDSA) hashToField(message []byte) *big.Int {
	digest := t.hashFn(message)
	h := new(big.Int).SetBytes(digest)
	return t.abb.Params().Canonicalize(h)
}

// Sign consumes pre, which must not be reused for any other message,
// and produces a signature over message. It fails with
// bedoza.ErrDegenerateTriple if either r or s would be zero;
// SignWithRetry handles this by drawing fresh preprocessing.
func (t *ThresholdECDSA) Sign(key *KeyShare, pre *Preprocessing, message []byte) (*Signature, error) {
	R, err := t.abb.OpenEC(pre.k)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: sign: %w", err)
	}
	r := t.abb.Params().Canonicalize(R.X())
	if r.Sign() == 0 {
		return nil, bedoza.ErrDegenerateTriple
	}

	h := t.hashToField(message)

	sLeft, err := t.abb.MulConst(pre.kInv, h)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: sign: %w", err)
	}
	sRight, err := t.abb.MulConst(pre.skTag, r)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: sign: %w", err)
	}
	sShare, err := t.abb.Add(sLeft, sRight)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: sign: %w", err)
	}
	s, err := t.abb.Open(sShare)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: sign: %w", err)
	}
	if s.Sign() == 0 {
		return nil, bedoza.ErrDegenerateTriple
	}

	t.log.Infow("sign", "r", r, "s", s)
	return &Signature{R: r, S: s}, nil
}

// SignWithRetry runs Preprocess followed by Sign, automatically
// redrawing preprocessing whenever either step reports
// bedoza.ErrDegenerateTriple, up to maxAttempts times. The ABB core
// itself never retries; this is the layer above it that does.
func (t *ThresholdECDSA) SignWithRetry(key *KeyShare, message []byte, maxAttempts int) (*Signature, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		pre, err := t.Preprocess(key)
		if err != nil {
			if errors.Is(err, bedoza.ErrDegenerateTriple) {
				lastErr = err
				continue
			}
			return nil, err
		}
		sig, err := t.Sign(key, pre, message)
		if err != nil {
			if errors.Is(err, bedoza.ErrDegenerateTriple) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return sig, nil
	}
	return nil, fmt.Errorf("tecdsa: sign_with_retry: exhausted %d attempts: %w", maxAttempts, lastErr)
}

// Verify checks sig against message and pk using the standard ECDSA
// verification equation.
func (t *ThresholdECDSA) Verify(pk *bnbcrypto.ECPoint, message []byte, sig *Signature) bool {
	params := t.abb.Params()
	if sig.R.Sign() == 0 || sig.S.Sign() == 0 {
		return false
	}

	h := t.hashToField(message)

	sInv, err := params.Inverse(sig.S)
	if err != nil {
		return false
	}

	u1 := params.Mul(h, sInv)
	u2 := params.Mul(sig.R, sInv)

	p1 := bnbcrypto.ScalarBaseMult(pk.Curve(), u1)
	p2 := pk.ScalarMult(u2)

	p, err := p1.Add(p2)
	if err != nil {
		return false
	}
	if p.X() == nil || p.Y() == nil {
		return false
	}

	return params.Canonicalize(p.X()).Cmp(sig.R) == 0
}
