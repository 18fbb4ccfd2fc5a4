// Package amm is the stateless constant-product math shared by pools,
// factories and routers. All intermediate products are computed in 256 bits.
package amm

// AMM constants
const (
	// MINIMUM_LIQUIDITY is burned on the first deposit of every pool so the
	// LP unit can never be priced up by a first depositor.
	MINIMUM_LIQUIDITY uint64 = 1000

	// FEE_DENOMINATOR is the scale of fee rates (fees are per 1000).
	FEE_DENOMINATOR uint64 = 1000

	// DEFAULT_FEE_AMOUNT_PER_1000 is the total swap fee (0.5%).
	DEFAULT_FEE_AMOUNT_PER_1000 uint64 = 5

	// Default protocol share of swap fees (1/6), taken as LP on growth.
	DEFAULT_PROTOCOL_SHARE_NUM uint64 = 1
	DEFAULT_PROTOCOL_SHARE_DEN uint64 = 6
)
