//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package tecdsa

import (
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/markkurossi/bedoza/crypto/bedoza"
	bnbcrypto "github.com/bnb-chain/tss-lib/v2/crypto"
)

// KeyShareRecord is the persisted, JSON-encoded form of a KeyShare:
// both parties' raw secret-key shares plus the reconstructed public
// key, decimal-string encoded like bedoza.FieldRecord. Persisting both
// parties' shares into one file only makes sense because this library
// runs both parties co-located in one process's memory (spec.md
// section 5); cmd/bedoza-ecdsa is this record's only consumer, reading
// and writing it between separate invocations the way the teacher's
// crypto/tss.WriteSaveData/ReadSaveData persist a LocalPartySaveData.
type KeyShareRecord struct {
	SkA string `json:"sk_a"`
	SkB string `json:"sk_b"`
	PkX string `json:"pk_x"`
	PkY string `json:"pk_y"`
}

// MarshalKeyShare exports key's underlying F_p share out of t's ABB
// into a persisted record.
func (t *ThresholdECDSA) MarshalKeyShare(key *KeyShare) (KeyShareRecord, error) {
	a, b, err := t.abb.ExportShare(key.sk)
	if err != nil {
		return KeyShareRecord{}, fmt.Errorf("tecdsa: marshal key share: %w", err)
	}
	return KeyShareRecord{
		SkA: a.String(),
		SkB: b.String(),
		PkX: key.pk.X().String(),
		PkY: key.pk.Y().String(),
	}, nil
}

// UnmarshalKeyShare re-imports a persisted KeyShareRecord into t's
// ABB under a freshly allocated share name, the inverse of
// MarshalKeyShare. The returned KeyShare is only valid against this t.
func (t *ThresholdECDSA) UnmarshalKeyShare(rec KeyShareRecord) (*KeyShare, error) {
	a, err := parseDecimal(rec.SkA)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal key share: sk_a: %w", err)
	}
	b, err := parseDecimal(rec.SkB)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal key share: sk_b: %w", err)
	}
	x, err := parseDecimal(rec.PkX)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal key share: pk_x: %w", err)
	}
	y, err := parseDecimal(rec.PkY)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal key share: pk_y: %w", err)
	}
	pk, err := bnbcrypto.NewECPoint(elliptic.P256(), x, y)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal key share: %w: %w", bedoza.ErrInvalidParameters, err)
	}
	sk := t.abb.ImportShare(a, b)
	return &KeyShare{sk: sk, pk: pk}, nil
}

// PreprocessingRecord is the persisted, JSON-encoded form of a
// Preprocessing: both parties' raw halves of the nonce point share,
// its inverse share, and the key-dependent share, so a Preprocessing
// produced by one cmd/bedoza-ecdsa invocation can be consumed by
// Sign in a later one. Like KeyShareRecord, never send this across a
// real network boundary; spec.md section 5 excludes transport
// entirely, and reusing a Preprocessing for more than one signature
// breaks the scheme regardless of how it was obtained.
type PreprocessingRecord struct {
	KAX    string `json:"k_a_x"`
	KAY    string `json:"k_a_y"`
	KBX    string `json:"k_b_x"`
	KBY    string `json:"k_b_y"`
	KInvA  string `json:"k_inv_a"`
	KInvB  string `json:"k_inv_b"`
	SkTagA string `json:"sk_tag_a"`
	SkTagB string `json:"sk_tag_b"`
}

// MarshalPreprocessing exports pre's underlying shares out of t's ABB
// into a persisted record.
func (t *ThresholdECDSA) MarshalPreprocessing(pre *Preprocessing) (PreprocessingRecord, error) {
	kA, kB, err := t.abb.ExportECShare(pre.k)
	if err != nil {
		return PreprocessingRecord{}, fmt.Errorf("tecdsa: marshal preprocessing: k: %w", err)
	}
	kInvA, kInvB, err := t.abb.ExportShare(pre.kInv)
	if err != nil {
		return PreprocessingRecord{}, fmt.Errorf("tecdsa: marshal preprocessing: k_inv: %w", err)
	}
	skTagA, skTagB, err := t.abb.ExportShare(pre.skTag)
	if err != nil {
		return PreprocessingRecord{}, fmt.Errorf("tecdsa: marshal preprocessing: sk_tag: %w", err)
	}
	return PreprocessingRecord{
		KAX:    kA.X().String(),
		KAY:    kA.Y().String(),
		KBX:    kB.X().String(),
		KBY:    kB.Y().String(),
		KInvA:  kInvA.String(),
		KInvB:  kInvB.String(),
		SkTagA: skTagA.String(),
		SkTagB: skTagB.String(),
	}, nil
}

// UnmarshalPreprocessing re-imports a persisted PreprocessingRecord
// into t's ABB under freshly allocated share names, the inverse of
// MarshalPreprocessing. The returned Preprocessing is only valid
// against this t, and against the same KeyShare it was produced for.
func (t *ThresholdECDSA) UnmarshalPreprocessing(rec PreprocessingRecord) (*Preprocessing, error) {
	kAX, err := parseDecimal(rec.KAX)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_a_x: %w", err)
	}
	kAY, err := parseDecimal(rec.KAY)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_a_y: %w", err)
	}
	kBX, err := parseDecimal(rec.KBX)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_b_x: %w", err)
	}
	kBY, err := parseDecimal(rec.KBY)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_b_y: %w", err)
	}
	kInvA, err := parseDecimal(rec.KInvA)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_inv_a: %w", err)
	}
	kInvB, err := parseDecimal(rec.KInvB)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_inv_b: %w", err)
	}
	skTagA, err := parseDecimal(rec.SkTagA)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: sk_tag_a: %w", err)
	}
	skTagB, err := parseDecimal(rec.SkTagB)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: sk_tag_b: %w", err)
	}

	kA, err := bnbcrypto.NewECPoint(elliptic.P256(), kAX, kAY)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_a: %w: %w", bedoza.ErrInvalidParameters, err)
	}
	kB, err := bnbcrypto.NewECPoint(elliptic.P256(), kBX, kBY)
	if err != nil {
		return nil, fmt.Errorf("tecdsa: unmarshal preprocessing: k_b: %w: %w", bedoza.ErrInvalidParameters, err)
	}

	k := t.abb.ImportECShare(kA, kB)
	kInv := t.abb.ImportShare(kInvA, kInvB)
	skTag := t.abb.ImportShare(skTagA, skTagB)
	return &Preprocessing{k: k, kInv: kInv, skTag: skTag}, nil
}

func parseDecimal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, bedoza.ErrInvalidParameters
	}
	return v, nil
}
