package utils

// -----------------------------------------------------------------------------
// On-chain constants: recognized protocol programs and reference mints.
// -----------------------------------------------------------------------------

// Protocol variant names
const (
	VariantBondingCurve    = "bonding-curve"
	VariantConstantProduct = "constant-product"
)

// ProtocolPrograms maps recognized program ids to the protocol variant that
// produced the transaction. A transaction with no instruction targeting one
// of these programs is not a protocol transaction.
var ProtocolPrograms = map[string]string{
	// Launch bonding-curve program
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P": VariantBondingCurve,
	// Post-graduation constant-product AMM
	"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA": VariantConstantProduct,
	// Raydium AMM v4 constant-product pools
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": VariantConstantProduct,
}

// QuoteMint is the fixed reference asset (wrapped SOL) trade value is
// denominated against on this network.
const QuoteMint = "So11111111111111111111111111111111111111112"

// QuoteDecimals is the decimal count of the quote mint (lamports per SOL).
const QuoteDecimals = 9

// ProgramIDs returns the recognized program ids as a slice, for fan-out
// signature lookups.
func ProgramIDs() []string {
	ids := make([]string, 0, len(ProtocolPrograms))
	for id := range ProtocolPrograms {
		ids = append(ids, id)
	}
	return ids
}
