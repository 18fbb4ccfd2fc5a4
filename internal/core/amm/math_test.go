package amm

import (
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   uint64
		reserveIn  uint64
		reserveOut uint64
		fee        uint64
		want       uint64
		err        ter.Result
	}{
		// 10000*995*500000 / (500000*1000 + 10000*995)
		{name: "balanced pool", amountIn: 10_000, reserveIn: 500_000, reserveOut: 500_000, fee: 5, want: 9755},
		{name: "no fee", amountIn: 10_000, reserveIn: 500_000, reserveOut: 500_000, fee: 0, want: 9803},
		{name: "uniswap fee", amountIn: 1_000, reserveIn: 100_000, reserveOut: 200_000, fee: 3, want: 1974},
		{name: "zero input", amountIn: 0, reserveIn: 1, reserveOut: 1, fee: 5, err: ter.TecINSUFFICIENT_INPUT_AMOUNT},
		{name: "empty pool", amountIn: 10, reserveIn: 0, reserveOut: 1, fee: 5, err: ter.TecINSUFFICIENT_LIQUIDITY},
		{name: "bad fee", amountIn: 10, reserveIn: 1, reserveOut: 1, fee: 1000, err: ter.TemBAD_FEE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetAmountOut(tt.amountIn, tt.reserveIn, tt.reserveOut, tt.fee)
			if tt.err != ter.TesSUCCESS {
				assert.Equal(t, tt.err, ter.Of(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAmountOutDoesNotOverflow(t *testing.T) {
	max := ^uint64(0)
	out, err := GetAmountOut(max/2, max/2, max, DEFAULT_FEE_AMOUNT_PER_1000)
	require.NoError(t, err)
	assert.Less(t, out, max)
}

func TestGetAmountInCoversOutput(t *testing.T) {
	for _, want := range []uint64{1, 99, 9_755, 250_000} {
		in, err := GetAmountIn(want, 500_000, 500_000, 5)
		require.NoError(t, err)

		out, err := GetAmountOut(in, 500_000, 500_000, 5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, out, want)

		// one unit of rounding above the exact requirement, no more
		if in > 2 {
			less, err := GetAmountOut(in-2, 500_000, 500_000, 5)
			require.NoError(t, err)
			assert.Less(t, less, want)
		}
	}
}

func TestGetAmountInErrors(t *testing.T) {
	_, err := GetAmountIn(0, 10, 10, 5)
	assert.Equal(t, ter.TecINSUFFICIENT_OUTPUT_AMOUNT, ter.Of(err))

	_, err = GetAmountIn(10, 10, 10, 5)
	assert.Equal(t, ter.TecINSUFFICIENT_LIQUIDITY, ter.Of(err))

	_, err = GetAmountIn(1, 0, 10, 5)
	assert.Equal(t, ter.TecINSUFFICIENT_LIQUIDITY, ter.Of(err))
}

func TestGetAmountsChains(t *testing.T) {
	hops := []Hop{
		{ReserveIn: 500_000, ReserveOut: 500_000, Fee: 5},
		{ReserveIn: 1_000_000, ReserveOut: 250_000, Fee: 5},
	}

	out, err := GetAmountsOut(10_000, hops)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, uint64(10_000), out[0])
	assert.Equal(t, uint64(9755), out[1])

	second, err := GetAmountOut(9755, 1_000_000, 250_000, 5)
	require.NoError(t, err)
	assert.Equal(t, second, out[2])

	in, err := GetAmountsIn(out[2], hops)
	require.NoError(t, err)
	assert.Equal(t, out[2], in[2])
	assert.LessOrEqual(t, in[0], uint64(10_000)+2)
}

func TestSortTokens(t *testing.T) {
	p, err := SortTokens(asset.Contract(9), asset.Contract(2))
	require.NoError(t, err)
	assert.Equal(t, asset.Contract(2), p.A)

	_, err = SortTokens(asset.Contract(2), asset.Contract(2))
	assert.Equal(t, ter.TemIDENTICAL_ASSETS, ter.Of(err))
}

func TestSqrtProduct(t *testing.T) {
	assert.Equal(t, uint64(1_000_000), SqrtProduct(1_000_000, 1_000_000))
	assert.Equal(t, uint64(1), SqrtProduct(1, 3))
	assert.Equal(t, ^uint64(0), SqrtProduct(^uint64(0), ^uint64(0)))
}

func TestCheckK(t *testing.T) {
	// 10000 in, 9755 out of a 500k/500k pool at 0.5%
	require.NoError(t, CheckK(510_000, 500_000-9755, 10_000, 0, 500_000, 500_000, 5))

	err := CheckK(510_000, 500_000-9804, 10_000, 0, 500_000, 500_000, 5)
	assert.Equal(t, ter.TecK_NOT_INCREASING, ter.Of(err))

	// Flash loan repaid with fee
	require.NoError(t, CheckK(500_000, 500_051, 0, 1_000+51, 500_000, 500_000, 5))
	err = CheckK(500_000, 500_000, 0, 1_000, 500_000, 500_000, 5)
	assert.Equal(t, ter.TecK_NOT_INCREASING, ter.Of(err))
}

func TestEncodeK(t *testing.T) {
	k := Product(^uint64(0), 12345)
	b := EncodeK(k)
	require.Len(t, b, 32)
	assert.Equal(t, k, DecodeK(b))
	assert.True(t, DecodeK(nil).IsZero())
}
