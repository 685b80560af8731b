//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package primegroup

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesSafePrimeGroup(t *testing.T) {
	g, err := Generate(48)
	require.NoError(t, err)

	assert.True(t, g.P.ProbablyPrime(40))
	assert.True(t, g.Q.ProbablyPrime(40))

	want := new(big.Int).Lsh(g.Q, 1)
	want.Add(want, big.NewInt(1))
	assert.Equal(t, 0, g.P.Cmp(want))

	order := new(big.Int).Exp(g.G, g.Q, g.P)
	assert.Equal(t, 0, order.Cmp(big.NewInt(1)))
}

func TestRecordRoundTrip(t *testing.T) {
	g, err := Generate(48)
	require.NoError(t, err)

	rec := g.MarshalRecord()
	parsed, err := ParseRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, 0, g.P.Cmp(parsed.P))
	assert.Equal(t, 0, g.Q.Cmp(parsed.Q))
	assert.Equal(t, 0, g.G.Cmp(parsed.G))
}

func TestParseRecordRejectsInconsistentPQ(t *testing.T) {
	rec := Record{G: "2", Q: "5", P: "7"}
	_, err := ParseRecord(rec)
	assert.Error(t, err)
}
