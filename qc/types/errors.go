package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the codespace under which every QC error is registered.
const ModuleName = "qc"

// QC sentinel errors

var (
	// Configuration errors
	ErrUnknownSchema     = errorsmod.Register(ModuleName, 2, "unknown schema")
	ErrUnsupportedFormat = errorsmod.Register(ModuleName, 3, "unsupported input format")
	ErrInvalidSchema     = errorsmod.Register(ModuleName, 4, "invalid schema definition")
	ErrInvalidParams     = errorsmod.Register(ModuleName, 5, "invalid qc policy params")

	// Malformed input errors
	ErrMissingField       = errorsmod.Register(ModuleName, 10, "missing required field")
	ErrTypeMismatch       = errorsmod.Register(ModuleName, 11, "type mismatch")
	ErrValueError         = errorsmod.Register(ModuleName, 12, "value cannot be normalized")
	ErrMalformedRecord    = errorsmod.Register(ModuleName, 13, "malformed canonical record")
	ErrRowLengthMismatch  = errorsmod.Register(ModuleName, 14, "row length mismatch")
	ErrInvalidBitString   = errorsmod.Register(ModuleName, 15, "invalid bit string")
	ErrInvalidCertificate = errorsmod.Register(ModuleName, 16, "invalid certificate")

	// Precondition errors
	ErrInvalidMode      = errorsmod.Register(ModuleName, 20, "invalid comparison mode")
	ErrInvalidItemCount = errorsmod.Register(ModuleName, 21, "invalid item count")
	ErrInvalidArgument  = errorsmod.Register(ModuleName, 22, "invalid argument")
	ErrInvalidSeed      = errorsmod.Register(ModuleName, 23, "invalid explicit seed")
	ErrInvalidChunkSize = errorsmod.Register(ModuleName, 24, "invalid chunk size")
	ErrInvalidProof     = errorsmod.Register(ModuleName, 25, "invalid merkle proof")
	ErrUploadTooLarge   = errorsmod.Register(ModuleName, 26, "decompressed upload exceeds size limit")

	// Secret errors
	ErrMissingMasterKey = errorsmod.Register(ModuleName, 30, "master key unavailable")
)

// RecoverySuggestions provides actionable recovery steps for each error type
var RecoverySuggestions = map[error]string{
	ErrUnknownSchema:     "Check the schema id (e.g. table@1). List registered schemas with `pawqc schemas`. Custom schemas must be present in the configured schemas_dir at startup.",
	ErrUnsupportedFormat: "Use one of the encodings declared by the schema's formats list. table@1 accepts csv and jsonl; other built-in schemas accept jsonl only.",
	ErrInvalidSchema:     "Fix the schema document: unique field names, known field types, primary key fields must be declared.",
	ErrInvalidParams:     "Rates must lie in [0,1]. Review the [policy] table of the config file.",

	ErrMissingField:       "Every non-optional schema field must be present in every record. Check column headers and aliases.",
	ErrTypeMismatch:       "A value has the wrong JSON shape for its field type (e.g. vector must be an array, record must be an object).",
	ErrValueError:         "A value could not be normalized. Floats must be finite numbers or one of \"NaN\", \"Inf\", \"-Inf\" where the schema allows them; vectors must share one length.",
	ErrMalformedRecord:    "Comparator inputs must be canonical JSON Lines. Run both outputs through canonicalize first.",
	ErrRowLengthMismatch:  "Every matrix row must have exactly as many bits as the vector.",
	ErrInvalidBitString:   "Bit strings may only contain the characters 0 and 1.",
	ErrInvalidCertificate: "Certificates are JSON objects with matrix_rows (array of bit strings) and vector_bits.",

	ErrInvalidMode:      "Mode must be bit_exact or fp_tolerant.",
	ErrInvalidItemCount: "A package must contain at least one item.",
	ErrInvalidArgument:  "Dispute arguments need n_checked > 0 and 0 <= x_mismatch <= n_checked; eps0 and alpha must lie in [0,1].",
	ErrInvalidSeed:      "Explicit seeds are hex strings, optionally prefixed with 0x.",
	ErrInvalidChunkSize: "Chunk size must be positive.",
	ErrInvalidProof:     "Proof siblings must be 0x-prefixed 32-byte hashes and the index must address a leaf of the tree.",
	ErrUploadTooLarge:   "The decompressed upload is larger than max_upload_bytes. Raise max_upload_bytes in the config (or PAWQC_MAX_UPLOAD_BYTES; 0 disables the limit) or split the output into smaller packages.",

	ErrMissingMasterKey: "Set QC_MASTER_KEY (or the configured variable) or pass an explicit seed.",
}

// RecoverySuggestion returns the recovery suggestion for an error
func RecoverySuggestion(err error) string {
	for target, suggestion := range RecoverySuggestions {
		if errors.Is(err, target) {
			return suggestion
		}
	}

	return "No recovery suggestion available. Check error message for details."
}
