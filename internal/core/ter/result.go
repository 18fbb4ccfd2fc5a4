// Package ter holds the result codes returned by contract calls.
package ter

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result represents a call result code
type Result int

// Result codes are organized by category: tes, tec, tef, tem, ter
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199)
	// Economic guard failures. The call computed a result and refused it.
	TecUNFUNDED                      Result = 100
	TecINSUFFICIENT_OUTPUT_AMOUNT    Result = 101
	TecINSUFFICIENT_INPUT_AMOUNT     Result = 102
	TecEXCESSIVE_INPUT_AMOUNT        Result = 103
	TecK_NOT_INCREASING              Result = 104
	TecINSUFFICIENT_LIQUIDITY        Result = 105
	TecINSUFFICIENT_LIQUIDITY_MINTED Result = 106
	TecINSUFFICIENT_LIQUIDITY_BURNED Result = 107
	TecINSUFFICIENT_AMOUNT           Result = 108
	TecOVERFLOW                      Result = 109

	// tef codes (-199 to -100)
	// Authorization and engine failures
	TefNOT_OWNER    Result = -199
	TefNO_AUTH      Result = -198
	TefNOT_FACTORY  Result = -197
	TefINTERNAL     Result = -196
	TefMAX_DEPTH    Result = -195
	TefBAD_CONTRACT Result = -194

	// tem codes (-299 to -200)
	// Malformed input, rejected before any state is touched
	TemMALFORMED         Result = -299
	TemBAD_AMOUNT        Result = -298
	TemUNSUPPORTED_ASSET Result = -297
	TemIDENTICAL_ASSETS  Result = -296
	TemBAD_ASSET_COUNT   Result = -295
	TemBAD_FEE           Result = -294
	TemPATH_TOO_SHORT    Result = -293
	TemUNKNOWN_OPCODE    Result = -292
	TemBAD_RECIPIENT     Result = -291

	// ter codes (-99 to -1)
	// Reentrancy and lifecycle
	TerLOCKED              Result = -99
	TerALREADY_INITIALIZED Result = -98
	TerNOT_INITIALIZED     Result = -97
	TerPOOL_EXISTS         Result = -96
	TerNO_POOL             Result = -95
	TerEXPIRED             Result = -94
	TerNO_CONTRACT         Result = -93
	TerNO_PATH             Result = -92
)

var names = map[Result]string{
	TesSUCCESS: "tesSUCCESS",

	TecUNFUNDED:                      "tecUNFUNDED",
	TecINSUFFICIENT_OUTPUT_AMOUNT:    "tecINSUFFICIENT_OUTPUT_AMOUNT",
	TecINSUFFICIENT_INPUT_AMOUNT:     "tecINSUFFICIENT_INPUT_AMOUNT",
	TecEXCESSIVE_INPUT_AMOUNT:        "tecEXCESSIVE_INPUT_AMOUNT",
	TecK_NOT_INCREASING:              "tecK_NOT_INCREASING",
	TecINSUFFICIENT_LIQUIDITY:        "tecINSUFFICIENT_LIQUIDITY",
	TecINSUFFICIENT_LIQUIDITY_MINTED: "tecINSUFFICIENT_LIQUIDITY_MINTED",
	TecINSUFFICIENT_LIQUIDITY_BURNED: "tecINSUFFICIENT_LIQUIDITY_BURNED",
	TecINSUFFICIENT_AMOUNT:           "tecINSUFFICIENT_AMOUNT",
	TecOVERFLOW:                      "tecOVERFLOW",

	TefNOT_OWNER:    "tefNOT_OWNER",
	TefNO_AUTH:      "tefNO_AUTH",
	TefNOT_FACTORY:  "tefNOT_FACTORY",
	TefINTERNAL:     "tefINTERNAL",
	TefMAX_DEPTH:    "tefMAX_DEPTH",
	TefBAD_CONTRACT: "tefBAD_CONTRACT",

	TemMALFORMED:         "temMALFORMED",
	TemBAD_AMOUNT:        "temBAD_AMOUNT",
	TemUNSUPPORTED_ASSET: "temUNSUPPORTED_ASSET",
	TemIDENTICAL_ASSETS:  "temIDENTICAL_ASSETS",
	TemBAD_ASSET_COUNT:   "temBAD_ASSET_COUNT",
	TemBAD_FEE:           "temBAD_FEE",
	TemPATH_TOO_SHORT:    "temPATH_TOO_SHORT",
	TemUNKNOWN_OPCODE:    "temUNKNOWN_OPCODE",
	TemBAD_RECIPIENT:     "temBAD_RECIPIENT",

	TerLOCKED:              "terLOCKED",
	TerALREADY_INITIALIZED: "terALREADY_INITIALIZED",
	TerNOT_INITIALIZED:     "terNOT_INITIALIZED",
	TerPOOL_EXISTS:         "terPOOL_EXISTS",
	TerNO_POOL:             "terNO_POOL",
	TerEXPIRED:             "terEXPIRED",
	TerNO_CONTRACT:         "terNO_CONTRACT",
	TerNO_PATH:             "terNO_PATH",
}

var messages = map[Result]string{
	TesSUCCESS: "The call was applied.",

	TecUNFUNDED:                      "Insufficient balance to make the transfer.",
	TecINSUFFICIENT_OUTPUT_AMOUNT:    "Output amount is below the requested minimum.",
	TecINSUFFICIENT_INPUT_AMOUNT:     "No input was received for the swap.",
	TecEXCESSIVE_INPUT_AMOUNT:        "Required input exceeds the allowed maximum.",
	TecK_NOT_INCREASING:              "Reserve product would decrease.",
	TecINSUFFICIENT_LIQUIDITY:        "Pool reserves cannot cover the request.",
	TecINSUFFICIENT_LIQUIDITY_MINTED: "Deposit is too small to mint liquidity.",
	TecINSUFFICIENT_LIQUIDITY_BURNED: "Burn is too small to withdraw both assets.",
	TecINSUFFICIENT_AMOUNT:           "Amount must be positive.",
	TecOVERFLOW:                      "Arithmetic overflow.",

	TefNOT_OWNER:    "Caller did not present the owner auth token.",
	TefNO_AUTH:      "Contract has no auth token bound.",
	TefNOT_FACTORY:  "Only the controlling factory may call this.",
	TefINTERNAL:     "Internal error.",
	TefMAX_DEPTH:    "Call depth limit reached.",
	TefBAD_CONTRACT: "Target is not a known contract kind.",

	TemMALFORMED:         "Malformed call arguments.",
	TemBAD_AMOUNT:        "Amount is zero or out of range.",
	TemUNSUPPORTED_ASSET: "Asset is not accepted by this contract.",
	TemIDENTICAL_ASSETS:  "Pair assets must differ.",
	TemBAD_ASSET_COUNT:   "Wrong number of assets attached.",
	TemBAD_FEE:           "Fee is out of range.",
	TemPATH_TOO_SHORT:    "Routing path must have at least two assets.",
	TemUNKNOWN_OPCODE:    "Unknown operation.",
	TemBAD_RECIPIENT:     "Recipient is not valid.",

	TerLOCKED:              "Contract is locked by a call in progress.",
	TerALREADY_INITIALIZED: "Contract is already initialized.",
	TerNOT_INITIALIZED:     "Contract is not initialized.",
	TerPOOL_EXISTS:         "Pool already exists for this pair.",
	TerNO_POOL:             "No pool exists for this pair.",
	TerEXPIRED:             "Deadline has passed.",
	TerNO_CONTRACT:         "No contract at the target id.",
	TerNO_PATH:             "No route between the assets.",
}

// String returns the string representation of the result code
func (r Result) String() string {
	if s, ok := names[r]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Message returns a human-readable description of the result code
func (r Result) Message() string {
	if s, ok := messages[r]; ok {
		return s
	}
	return "Unknown result code."
}

func (r Result) Error() string {
	return r.String() + ": " + r.Message()
}

// IsSuccess returns true if the call was applied
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is an economic guard failure
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is an authorization or engine failure
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a malformed-input failure
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true if this is a reentrancy or lifecycle failure
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// Of extracts the result code carried by err. nil maps to TesSUCCESS and
// errors that carry no code map to TefINTERNAL.
func Of(err error) Result {
	if err == nil {
		return TesSUCCESS
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return TefINTERNAL
}

// Parse returns the code with the given name, e.g. "terLOCKED".
func Parse(name string) (Result, error) {
	for r, s := range names {
		if s == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown result code %q", name)
}
