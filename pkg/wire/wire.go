// Package wire serializes bytecode chunks into canonical CBOR. Canonical
// encoding makes the bytes deterministic, so a sha256 over them identifies a
// program for cache keying and content addressing.
package wire

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Magic and format are embedded in every encoded record and checked on
// decode.
const (
	programMagic = "optic-l1"
	chunkMagic   = "optic-l2"

	formatVersion = 1
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ErrUnencodable marks a chunk that cannot be serialized: it embeds
// runtime-only constants (variable cells, continuations, function values)
// that have no stable wire form. Such chunks are simply not cacheable.
var ErrUnencodable = errors.New("chunk is not wire-encodable")

// ErrBadFormat marks bytes that are not a record of the expected kind and
// version.
var ErrBadFormat = errors.New("unrecognized wire format")

// Digest returns the sha256 content digest of encoded bytes.
func Digest(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func checkHeader(magic string, gotMagic string, gotFormat uint16) error {
	if gotMagic != magic {
		return fmt.Errorf("%w: magic %q, want %q", ErrBadFormat, gotMagic, magic)
	}
	if gotFormat != formatVersion {
		return fmt.Errorf("%w: format %d, want %d", ErrBadFormat, gotFormat, formatVersion)
	}
	return nil
}
