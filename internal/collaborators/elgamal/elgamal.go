//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package elgamal implements ElGamal encryption over a safe-prime
// Schnorr group, and a 1-of-k oblivious transfer built on top of it.
// The OT is a building block for an alternative to the TrustedDealer
// in crypto/bedoza, which is the only triple source the threshold-ECDSA
// core actually uses; this package itself does not generate Beaver
// triples. This package exists as collaborator
// infrastructure, exercised directly by its own tests, not by
// crypto/tecdsa.
package elgamal

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/markkurossi/bedoza/internal/collaborators/primegroup"
	"github.com/pkg/errors"
)

// PublicKey is an ElGamal public key over a safe-prime Schnorr group.
type PublicKey struct {
	Group *primegroup.Group
	Y     *big.Int // Y = G^X mod P
}

// PrivateKey is the corresponding private exponent.
type PrivateKey struct {
	X *big.Int
}

// Ciphertext is an ElGamal ciphertext: R = G^r, and a one-time-pad
// mask of the message under SHA-512(Y^r).
type Ciphertext struct {
	R *big.Int
	C []byte
}

const hashByteSize = sha512.Size

// KeyGen draws a fresh ElGamal keypair over a freshly generated
// safe-prime group of the given modulus bit width.
func KeyGen(pBits int) (*PublicKey, *PrivateKey, error) {
	group, err := primegroup.Generate(pBits)
	if err != nil {
		return nil, nil, errors.Wrap(err, "elgamal: keygen")
	}
	x, err := rand.Int(rand.Reader, group.Q)
	if err != nil {
		return nil, nil, errors.Wrap(err, "elgamal: keygen: sample x")
	}
	y := new(big.Int).Exp(group.G, x, group.P)

	return &PublicKey{Group: group, Y: y}, &PrivateKey{X: x}, nil
}

// Enc encrypts a message of at most 64 bytes (SHA-512's output size)
// under pub.
func Enc(pub *PublicKey, message []byte) (*Ciphertext, error) {
	if len(message) > hashByteSize {
		return nil, fmt.Errorf("elgamal: enc: message must be at most %d bytes, got %d", hashByteSize, len(message))
	}
	padded := make([]byte, hashByteSize)
	copy(padded, message)

	r, err := rand.Int(rand.Reader, pub.Group.Q)
	if err != nil {
		return nil, errors.Wrap(err, "elgamal: enc: sample r")
	}

	R := new(big.Int).Exp(pub.Group.G, r, pub.Group.P)
	yr := new(big.Int).Exp(pub.Y, r, pub.Group.P)
	key := sha512.Sum512(yr.Bytes())

	c := make([]byte, hashByteSize)
	for i := range c {
		c[i] = padded[i] ^ key[i]
	}
	return &Ciphertext{R: R, C: c}, nil
}

// Dec recovers the plaintext, stripped of its zero padding up to
// msgLen bytes.
func Dec(pub *PublicKey, priv *PrivateKey, ctxt *Ciphertext, msgLen int) ([]byte, error) {
	if msgLen < 0 || msgLen > hashByteSize {
		return nil, fmt.Errorf("elgamal: dec: invalid message length %d", msgLen)
	}
	yr := new(big.Int).Exp(ctxt.R, priv.X, pub.Group.P)
	key := sha512.Sum512(yr.Bytes())

	msg := make([]byte, hashByteSize)
	for i := range msg {
		msg[i] = ctxt.C[i] ^ key[i]
	}
	return msg[:msgLen], nil
}

// OTSender is the sending side of a 1-of-k oblivious transfer: given
// the receiver's k offered public keys and k secrets, it returns k
// ciphertexts such that only the secret matching the receiver's actual
// private key decrypts correctly.
type OTSender struct {
	group *primegroup.Group
}

// NewOTSender returns an OT sender over the given group, shared
// out-of-band with the receiver.
func NewOTSender(group *primegroup.Group) *OTSender {
	return &OTSender{group: group}
}

// Send encrypts secrets[i] under the i-th of the receiver's k offered
// public keys. Exactly one of those keys corresponds to a private key
// the receiver holds; the rest are decoys the receiver generated
// without retaining their exponents.
func (s *OTSender) Send(receiverKeys []*PublicKey, secrets [][]byte) ([]*Ciphertext, error) {
	if len(receiverKeys) != len(secrets) {
		return nil, fmt.Errorf("elgamal: ot send: %d keys but %d secrets", len(receiverKeys), len(secrets))
	}
	out := make([]*Ciphertext, len(secrets))
	for i, secret := range secrets {
		ct, err := Enc(receiverKeys[i], secret)
		if err != nil {
			return nil, errors.Wrapf(err, "elgamal: ot send: encrypt slot %d", i)
		}
		out[i] = ct
	}
	return out, nil
}

// OTReceiver is the receiving side of a 1-of-k oblivious transfer: it
// knows the index it wants, holds the real keypair for that index, and
// generates decoy public keys (without retained private exponents) for
// every other index.
type OTReceiver struct {
	group  *primegroup.Group
	choice int
	priv   *PrivateKey
}

// NewOTReceiver prepares a receiver over group that will request slot
// choice out of k.
func NewOTReceiver(group *primegroup.Group, choice, k int) (*OTReceiver, []*PublicKey, error) {
	if choice < 0 || choice >= k {
		return nil, nil, fmt.Errorf("elgamal: ot receiver: choice %d out of range [0,%d)", choice, k)
	}
	keys := make([]*PublicKey, k)
	var chosenPriv *PrivateKey
	for i := 0; i < k; i++ {
		if i == choice {
			x, err := rand.Int(rand.Reader, group.Q)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "elgamal: ot receiver: sample x slot %d", i)
			}
			y := new(big.Int).Exp(group.G, x, group.P)
			chosenPriv = &PrivateKey{X: x}
			keys[i] = &PublicKey{Group: group, Y: y}
			continue
		}
		// A decoy public key: a uniform group element with no known
		// discrete log, so the receiver cannot decrypt this slot even
		// if it wanted to.
		decoyY, err := rand.Int(rand.Reader, group.P)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "elgamal: ot receiver: sample decoy %d", i)
		}
		keys[i] = &PublicKey{Group: group, Y: decoyY}
	}
	return &OTReceiver{group: group, choice: choice, priv: chosenPriv}, keys, nil
}

// Receive decrypts the ciphertext at the receiver's chosen index.
func (r *OTReceiver) Receive(ciphertexts []*Ciphertext, msgLen int) ([]byte, error) {
	if r.choice >= len(ciphertexts) {
		return nil, fmt.Errorf("elgamal: ot receive: choice %d out of range", r.choice)
	}
	pub := &PublicKey{Group: r.group, Y: new(big.Int).Exp(r.group.G, r.priv.X, r.group.P)}
	return Dec(pub, r.priv, ciphertexts[r.choice], msgLen)
}
