//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package elgamal

import (
	"testing"

	"github.com/markkurossi/bedoza/internal/collaborators/primegroup"
	"github.com/stretchr/testify/require"
)

func TestEncDecRoundTrip(t *testing.T) {
	pub, priv, err := KeyGen(48)
	require.NoError(t, err)

	message := []byte("trusted dealer substitute")
	ct, err := Enc(pub, message)
	require.NoError(t, err)

	got, err := Dec(pub, priv, ct, len(message))
	require.NoError(t, err)
	require.Equal(t, message, got)
}

func TestOneOfKObliviousTransfer(t *testing.T) {
	group, err := primegroup.Generate(48)
	require.NoError(t, err)

	secrets := [][]byte{
		[]byte("secret-0"),
		[]byte("secret-1"),
		[]byte("secret-2"),
		[]byte("secret-3"),
	}

	receiver, receiverKeys, err := NewOTReceiver(group, 2, len(secrets))
	require.NoError(t, err)

	sender := NewOTSender(group)
	ciphertexts, err := sender.Send(receiverKeys, secrets)
	require.NoError(t, err)

	got, err := receiver.Receive(ciphertexts, len("secret-2"))
	require.NoError(t, err)
	require.Equal(t, secrets[2], got)
}
