package amm

import (
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/holiman/uint256"
)

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// toUint64 narrows v or fails with TecOVERFLOW.
func toUint64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ter.TecOVERFLOW
	}
	return v.Uint64(), nil
}

// SortTokens returns the canonical order of a pair of distinct assets.
func SortTokens(a, b asset.ID) (asset.Pair, error) {
	p, ok := asset.SortPair(a, b)
	if !ok {
		return asset.Pair{}, ter.TemIDENTICAL_ASSETS
	}
	return p, nil
}

// ValidateFee checks a fee rate expressed per 1000.
func ValidateFee(feePer1000 uint64) error {
	if feePer1000 >= FEE_DENOMINATOR {
		return ter.TemBAD_FEE
	}
	return nil
}

// Product returns a*b without overflow.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(u256(a), u256(b))
}

// Sqrt returns floor(sqrt(x)).
func Sqrt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}

// SqrtProduct returns floor(sqrt(a*b)), which always fits in 64 bits.
func SqrtProduct(a, b uint64) uint64 {
	return Sqrt(Product(a, b)).Uint64()
}

// GetAmountOut prices a swap of amountIn against the reserves:
//
//	amountOut = amountIn*(1000-fee)*reserveOut / (1000*reserveIn + amountIn*(1000-fee))
func GetAmountOut(amountIn, reserveIn, reserveOut, feePer1000 uint64) (uint64, error) {
	if err := ValidateFee(feePer1000); err != nil {
		return 0, err
	}
	if amountIn == 0 {
		return 0, ter.TecINSUFFICIENT_INPUT_AMOUNT
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ter.TecINSUFFICIENT_LIQUIDITY
	}

	inWithFee := Product(amountIn, FEE_DENOMINATOR-feePer1000)
	numerator := new(uint256.Int).Mul(inWithFee, u256(reserveOut))
	denominator := Product(reserveIn, FEE_DENOMINATOR)
	denominator.Add(denominator, inWithFee)

	return toUint64(numerator.Div(numerator, denominator))
}

// GetAmountIn returns the input needed to receive amountOut. The result is
// rounded up by one unit so that GetAmountOut of it covers amountOut.
func GetAmountIn(amountOut, reserveIn, reserveOut, feePer1000 uint64) (uint64, error) {
	if err := ValidateFee(feePer1000); err != nil {
		return 0, err
	}
	if amountOut == 0 {
		return 0, ter.TecINSUFFICIENT_OUTPUT_AMOUNT
	}
	if reserveIn == 0 || reserveOut == 0 || amountOut >= reserveOut {
		return 0, ter.TecINSUFFICIENT_LIQUIDITY
	}

	numerator := Product(reserveIn, amountOut)
	numerator.Mul(numerator, u256(FEE_DENOMINATOR))
	denominator := Product(reserveOut-amountOut, FEE_DENOMINATOR-feePer1000)

	amountIn := numerator.Div(numerator, denominator)
	amountIn.AddUint64(amountIn, 1)
	return toUint64(amountIn)
}

// Hop describes the reserves seen by one leg of a route.
type Hop struct {
	ReserveIn  uint64
	ReserveOut uint64
	Fee        uint64
}

// GetAmountsOut chains GetAmountOut across hops. The result has one more
// element than hops; the first is amountIn.
func GetAmountsOut(amountIn uint64, hops []Hop) ([]uint64, error) {
	amounts := make([]uint64, len(hops)+1)
	amounts[0] = amountIn
	for i, h := range hops {
		out, err := GetAmountOut(amounts[i], h.ReserveIn, h.ReserveOut, h.Fee)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// GetAmountsIn walks hops backward from the desired final output.
func GetAmountsIn(amountOut uint64, hops []Hop) ([]uint64, error) {
	amounts := make([]uint64, len(hops)+1)
	amounts[len(hops)] = amountOut
	for i := len(hops) - 1; i >= 0; i-- {
		in, err := GetAmountIn(amounts[i+1], hops[i].ReserveIn, hops[i].ReserveOut, hops[i].Fee)
		if err != nil {
			return nil, err
		}
		amounts[i] = in
	}
	return amounts, nil
}

// CheckK verifies a swap against the fee-adjusted constant product:
//
//	(balA*1000 - inA*fee) * (balB*1000 - inB*fee) >= prevA*prevB*1000^2
//
// balances are read after the payout, inA/inB are the amounts received.
func CheckK(balanceA, balanceB, amountAIn, amountBIn, prevA, prevB, feePer1000 uint64) error {
	adjA := Product(balanceA, FEE_DENOMINATOR)
	adjA.Sub(adjA, Product(amountAIn, feePer1000))
	adjB := Product(balanceB, FEE_DENOMINATOR)
	adjB.Sub(adjB, Product(amountBIn, feePer1000))

	lhs := new(uint256.Int).Mul(adjA, adjB)
	rhs := Product(prevA, prevB)
	rhs.Mul(rhs, u256(FEE_DENOMINATOR*FEE_DENOMINATOR))

	if lhs.Lt(rhs) {
		return ter.TecK_NOT_INCREASING
	}
	return nil
}
