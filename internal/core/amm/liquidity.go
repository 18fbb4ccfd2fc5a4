package amm

import (
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/holiman/uint256"
)

// MintLiquidity computes the LP minted for a deposit of amountA/amountB into
// a pool whose reserves before the deposit were prevA/prevB.
// On the first deposit, burned is MINIMUM_LIQUIDITY and must be credited to
// the burn address.
func MintLiquidity(amountA, amountB, prevA, prevB, totalSupply uint64) (liquidity, burned uint64, err error) {
	if totalSupply == 0 {
		root := SqrtProduct(amountA, amountB)
		if root <= MINIMUM_LIQUIDITY {
			return 0, 0, ter.TecINSUFFICIENT_LIQUIDITY_MINTED
		}
		return root - MINIMUM_LIQUIDITY, MINIMUM_LIQUIDITY, nil
	}

	if prevA == 0 || prevB == 0 {
		return 0, 0, ter.TecINSUFFICIENT_LIQUIDITY
	}
	la := Product(amountA, totalSupply)
	la.Div(la, u256(prevA))
	lb := Product(amountB, totalSupply)
	lb.Div(lb, u256(prevB))
	if lb.Lt(la) {
		la = lb
	}
	if la.IsZero() {
		return 0, 0, ter.TecINSUFFICIENT_LIQUIDITY_MINTED
	}
	liquidity, err = toUint64(la)
	return liquidity, 0, err
}

// BurnAmounts returns the share of each reserve redeemed by liquidity.
func BurnAmounts(liquidity, reserveA, reserveB, totalSupply uint64) (amountA, amountB uint64, err error) {
	if totalSupply == 0 || liquidity > totalSupply {
		return 0, 0, ter.TecINSUFFICIENT_LIQUIDITY
	}
	a := Product(liquidity, reserveA)
	a.Div(a, u256(totalSupply))
	b := Product(liquidity, reserveB)
	b.Div(b, u256(totalSupply))
	if a.IsZero() || b.IsZero() {
		return 0, 0, ter.TecINSUFFICIENT_LIQUIDITY_BURNED
	}
	// Both are bounded by the reserves.
	return a.Uint64(), b.Uint64(), nil
}

// ProtocolShare is the fraction of swap fees owed to the protocol.
type ProtocolShare struct {
	Num uint64
	Den uint64
}

// DefaultProtocolShare takes 1/6 of swap fees.
var DefaultProtocolShare = ProtocolShare{Num: DEFAULT_PROTOCOL_SHARE_NUM, Den: DEFAULT_PROTOCOL_SHARE_DEN}

// Validate checks 0 <= Num <= Den and Den > 0.
func (s ProtocolShare) Validate() error {
	if s.Den == 0 || s.Num > s.Den {
		return ter.TemBAD_FEE
	}
	return nil
}

// ProtocolFee returns the LP owed to the protocol for reserve growth since
// kLast:
//
//	S * (rootK - rootKLast) * n / (rootK*(d-n) + rootKLast*n)
//
// With the default 1/6 share this is S*(rootK-rootKLast) / (5*rootK + rootKLast).
// The fee is zero while kLast is zero, when the share is zero, or when the
// reserve product did not grow.
func ProtocolFee(totalSupply, reserveA, reserveB uint64, kLast *uint256.Int, share ProtocolShare) (uint64, error) {
	if kLast == nil || kLast.IsZero() || share.Num == 0 || totalSupply == 0 {
		return 0, nil
	}
	if err := share.Validate(); err != nil {
		return 0, err
	}

	rootK := Sqrt(Product(reserveA, reserveB))
	rootKLast := Sqrt(kLast)
	if !rootK.Gt(rootKLast) {
		return 0, nil
	}

	numerator := new(uint256.Int).Sub(rootK, rootKLast)
	numerator.Mul(numerator, u256(totalSupply))
	numerator.Mul(numerator, u256(share.Num))

	denominator := new(uint256.Int).Mul(rootK, u256(share.Den-share.Num))
	denominator.Add(denominator, new(uint256.Int).Mul(rootKLast, u256(share.Num)))

	return toUint64(numerator.Div(numerator, denominator))
}

// EncodeK serializes a reserve product as 32 little-endian bytes.
func EncodeK(k *uint256.Int) []byte {
	be := k.Bytes32()
	out := make([]byte, 32)
	for i := range be {
		out[i] = be[31-i]
	}
	return out
}

// DecodeK reads a value written by EncodeK.
func DecodeK(b []byte) *uint256.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(uint256.Int).SetBytes(be)
}
