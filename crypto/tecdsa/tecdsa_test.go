//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package tecdsa

import (
	"errors"
	"testing"

	"github.com/markkurossi/bedoza/crypto/bedoza"
	"github.com/stretchr/testify/require"
)

// S6: end-to-end sign-then-verify, including a rejected tampered
// message.
func TestSignVerifyEndToEnd(t *testing.T) {
	params := bedoza.NewP256FieldParams()
	tecdsa, err := NewThresholdECDSA(params, nil)
	require.NoError(t, err)

	key, err := tecdsa.GenKeypair()
	require.NoError(t, err)

	sig, err := tecdsa.SignWithRetry(key, []byte("hello world"), 8)
	require.NoError(t, err)
	require.NotZero(t, sig.R.Sign())
	require.NotZero(t, sig.S.Sign())

	require.True(t, tecdsa.Verify(key.PublicKey(), []byte("hello world"), sig))
	require.False(t, tecdsa.Verify(key.PublicKey(), []byte("goodbye"), sig))
}

// Soundness of r extraction: r must equal canonicalize(affine-x of
// open_ec(k)) for the nonce share actually consumed.
func TestSignRMatchesOpenedNoncePoint(t *testing.T) {
	params := bedoza.NewP256FieldParams()
	tecdsa, err := NewThresholdECDSA(params, nil)
	require.NoError(t, err)

	key, err := tecdsa.GenKeypair()
	require.NoError(t, err)

	var pre *Preprocessing
	for {
		k, kInv, err := tecdsa.UserIndependentPreprocessing()
		if errors.Is(err, bedoza.ErrDegenerateTriple) {
			continue
		}
		require.NoError(t, err)
		pre, err = tecdsa.UserDependentPreprocessing(key, k, kInv)
		require.NoError(t, err)
		break
	}

	R, err := tecdsa.abb.OpenEC(pre.k)
	require.NoError(t, err)
	wantR := params.Canonicalize(R.X())

	sig, err := tecdsa.Sign(key, pre, []byte("r extraction"))
	require.NoError(t, err)

	require.Equal(t, wantR, sig.R)
}

func TestTruncatedHashOptionStillVerifies(t *testing.T) {
	params := bedoza.NewP256FieldParams()
	full, err := NewThresholdECDSA(params, nil)
	require.NoError(t, err)
	truncated, err := NewThresholdECDSA(params, nil, WithTruncatedHash())
	require.NoError(t, err)

	keyFull, err := full.GenKeypair()
	require.NoError(t, err)
	keyTrunc, err := truncated.GenKeypair()
	require.NoError(t, err)

	sigFull, err := full.SignWithRetry(keyFull, []byte("same message"), 8)
	require.NoError(t, err)
	sigTrunc, err := truncated.SignWithRetry(keyTrunc, []byte("same message"), 8)
	require.NoError(t, err)

	require.True(t, full.Verify(keyFull.PublicKey(), []byte("same message"), sigFull))
	require.True(t, truncated.Verify(keyTrunc.PublicKey(), []byte("same message"), sigTrunc))
}
