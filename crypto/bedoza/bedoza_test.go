//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package bedoza

import (
	"fmt"
	"math/big"
	"testing"

	bnbcrypto "github.com/bnb-chain/tss-lib/v2/crypto"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: rand_mul. Draw independent Beaver triples and check
// open(u)*open(v) == open(w) mod p, 64 times. Failures across
// iterations are aggregated so a single run reports every bad
// iteration rather than stopping at the first.
func TestRandMulTriples(t *testing.T) {
	params := NewP256FieldParams()
	abb := NewABB(params, nil, nil)

	var errs *multierror.Error
	for i := 0; i < 64; i++ {
		u, v, w, err := abb.RandMul()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("iteration %d: rand_mul: %w", i, err))
			continue
		}
		uv, err := abb.Open(u)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("iteration %d: open(u): %w", i, err))
			continue
		}
		vv, err := abb.Open(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("iteration %d: open(v): %w", i, err))
			continue
		}
		wv, err := abb.Open(w)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("iteration %d: open(w): %w", i, err))
			continue
		}
		if params.Mul(uv, vv).Cmp(wv) != 0 {
			errs = multierror.Append(errs, fmt.Errorf("iteration %d: open(u)*open(v) != open(w)", i))
		}
	}
	if errs != nil {
		t.Fatal(errs)
	}
}

// S2: input_by_A(3), input_by_B(9), add -> open = 12.
func TestInputAddOpen(t *testing.T) {
	params := NewP256FieldParams()
	abb := NewABB(params, nil, nil)

	a, err := abb.InputByA(big.NewInt(3))
	require.NoError(t, err)
	b, err := abb.InputByB(big.NewInt(9))
	require.NoError(t, err)

	sum, err := abb.Add(a, b)
	require.NoError(t, err)

	v, err := abb.Open(sum)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12), v)
}

// S3: local_const_mul with a=i, b=3i, x=9, y=7 yields 30i for i in
// 0..9.
func TestLocalConstMulComposition(t *testing.T) {
	params := NewP256FieldParams()

	for i := int64(0); i < 10; i++ {
		abb := NewABB(params, nil, nil)

		a, err := abb.InputByA(big.NewInt(i))
		require.NoError(t, err)
		b, err := abb.InputByB(big.NewInt(3 * i))
		require.NoError(t, err)

		out, err := abb.LocalConstMul(a, b, big.NewInt(9), big.NewInt(7))
		require.NoError(t, err)

		v, err := abb.Open(out)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(30*i), v, "i=%d", i)
	}
}

// S4: input_by_A(i), input_by_B(3i), mul -> open = 3*i^2, for i in
// 0..9. Failures across iterations are aggregated, matching the S1
// loop's reporting style.
func TestMulBeaverTriple(t *testing.T) {
	params := NewP256FieldParams()

	var errs *multierror.Error
	for i := int64(0); i < 10; i++ {
		abb := NewABB(params, nil, nil)

		x, err := abb.InputByA(big.NewInt(i))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("i=%d: input_by_a: %w", i, err))
			continue
		}
		y, err := abb.InputByB(big.NewInt(3 * i))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("i=%d: input_by_b: %w", i, err))
			continue
		}
		prod, err := abb.Mul(x, y)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("i=%d: mul: %w", i, err))
			continue
		}
		v, err := abb.Open(prod)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("i=%d: open: %w", i, err))
			continue
		}
		if want := big.NewInt(3 * i * i); v.Cmp(want) != 0 {
			errs = multierror.Append(errs, fmt.Errorf("i=%d: got %s, want %s", i, v, want))
		}
	}
	if errs != nil {
		t.Fatal(errs)
	}
}

// S5: convert_ec of input_by_A(73) opens to the point 73*G.
func TestConvertECMatchesScalarBaseMult(t *testing.T) {
	params := NewP256FieldParams()
	abb := NewABB(params, nil, nil)

	x, err := abb.InputByA(big.NewInt(73))
	require.NoError(t, err)

	pt, err := abb.ConvertEC(x)
	require.NoError(t, err)

	opened, err := abb.OpenEC(pt)
	require.NoError(t, err)

	want := bnbcrypto.ScalarBaseMult(curve, big.NewInt(73))
	assert.True(t, opened.X().Cmp(want.X()) == 0 && opened.Y().Cmp(want.Y()) == 0)
}

func TestConvertECRejectsMismatchedField(t *testing.T) {
	params, err := NewSafePrimeFieldParams(64)
	require.NoError(t, err)
	abb := NewABB(params, nil, nil)

	x, err := abb.InputByA(big.NewInt(5))
	require.NoError(t, err)

	_, err = abb.ConvertEC(x)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestAddConstFoldsOnlyOnA(t *testing.T) {
	params := NewP256FieldParams()
	abb := NewABB(params, nil, nil)

	x, err := abb.InputByB(big.NewInt(5))
	require.NoError(t, err)

	out, err := abb.AddConst(x, big.NewInt(7))
	require.NoError(t, err)

	v, err := abb.Open(out)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12), v)
}

func TestOpenUnknownShareFails(t *testing.T) {
	params := NewP256FieldParams()
	abb := NewABB(params, nil, nil)

	_, err := abb.Open(FieldShare("Z"))
	assert.ErrorIs(t, err, ErrUnknownShare)
}

func TestFieldParamsInverseOfZero(t *testing.T) {
	params := NewP256FieldParams()
	_, err := params.Inverse(big.NewInt(0))
	assert.ErrorIs(t, err, ErrNoInverse)
}

func TestFieldRecordRoundTrip(t *testing.T) {
	params := NewP256FieldParams()
	rec := params.MarshalRecord()

	parsed, err := ParseFieldRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, params.P(), parsed.P())
}

func TestNameGeneratorSpreadsheetOrder(t *testing.T) {
	var g nameGenerator
	got := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		got = append(got, g.Next())
	}
	assert.Equal(t, "A", got[0])
	assert.Equal(t, "Z", got[25])
	assert.Equal(t, "AA", got[26])
	assert.Equal(t, "AD", got[29])
}
