//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package tecdsa

import (
	"encoding/json"
	"testing"

	"github.com/markkurossi/bedoza/crypto/bedoza"
	"github.com/stretchr/testify/require"
)

// Exercises the cmd/bedoza-ecdsa persistence path: a key share and a
// preprocessing round-tripped through JSON, as they would be across
// separate invocations of the CLI, still produce a verifying
// signature.
func TestKeyShareAndPreprocessingJSONRoundTrip(t *testing.T) {
	params := bedoza.NewP256FieldParams()

	keygenSigner, err := NewThresholdECDSA(params, nil)
	require.NoError(t, err)
	key, err := keygenSigner.GenKeypair()
	require.NoError(t, err)

	keyRec, err := keygenSigner.MarshalKeyShare(key)
	require.NoError(t, err)
	keyJSON, err := json.Marshal(keyRec)
	require.NoError(t, err)

	// Simulate a fresh process: a new ThresholdECDSA over a new,
	// empty ABB, importing only what was persisted to disk.
	preprocessSigner, err := NewThresholdECDSA(params, nil)
	require.NoError(t, err)
	var decodedKeyRec KeyShareRecord
	require.NoError(t, json.Unmarshal(keyJSON, &decodedKeyRec))
	importedKey, err := preprocessSigner.UnmarshalKeyShare(decodedKeyRec)
	require.NoError(t, err)
	require.Equal(t, 0, key.PublicKey().X().Cmp(importedKey.PublicKey().X()))
	require.Equal(t, 0, key.PublicKey().Y().Cmp(importedKey.PublicKey().Y()))

	var pre *Preprocessing
	for {
		var perr error
		pre, perr = preprocessSigner.Preprocess(importedKey)
		if perr == nil {
			break
		}
		require.ErrorIs(t, perr, bedoza.ErrDegenerateTriple)
	}
	preRec, err := preprocessSigner.MarshalPreprocessing(pre)
	require.NoError(t, err)
	preJSON, err := json.Marshal(preRec)
	require.NoError(t, err)

	// Simulate yet another fresh process for the sign step.
	signSigner, err := NewThresholdECDSA(params, nil)
	require.NoError(t, err)
	var decodedKeyRec2 KeyShareRecord
	require.NoError(t, json.Unmarshal(keyJSON, &decodedKeyRec2))
	signKey, err := signSigner.UnmarshalKeyShare(decodedKeyRec2)
	require.NoError(t, err)
	var decodedPreRec PreprocessingRecord
	require.NoError(t, json.Unmarshal(preJSON, &decodedPreRec))
	signPre, err := signSigner.UnmarshalPreprocessing(decodedPreRec)
	require.NoError(t, err)

	sig, err := signSigner.Sign(signKey, signPre, []byte("persisted across processes"))
	require.NoError(t, err)
	require.True(t, signSigner.Verify(signKey.PublicKey(), []byte("persisted across processes"), sig))
}
