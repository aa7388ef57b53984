package protocol

// Per-field size limits, enforced by message decoders. They bound what a
// hostile client can make the server hold per message; the frame length
// already bounds the total.
//
// MaxQueryBytes tracks what browsers accept in practice: conservative
// agents truncate URLs around 2K, nothing mainstream goes past 8K.
const (
	// MaxQueryBytes is the largest encoded query string accepted.
	MaxQueryBytes = 8 * 1024

	// MaxPathBytes is the largest location path accepted.
	MaxPathBytes = 2 * 1024

	// MaxSessionIDBytes is the largest session ID accepted.
	MaxSessionIDBytes = 128

	// MaxNameBytes is the largest store or field name accepted.
	MaxNameBytes = 128

	// MaxMessageBytes is the largest reason or error text accepted.
	MaxMessageBytes = 1024
)
