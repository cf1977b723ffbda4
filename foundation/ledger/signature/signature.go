// Package signature provides the hashing and signing primitives for the
// mathematical work ledger.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is the sentinel for an empty
// merkle root and for the previous-hash field of the first block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// HashLength is the number of hex characters every hash produced by this
// package contains.
const HashLength = 64

// ledgerID is an arbitrary number added to the recovery id when signing work.
// It makes signatures produced for this ledger distinguishable from signatures
// produced for other chains. Ethereum and Bitcoin do this as well with 27.
const ledgerID = 43

// =============================================================================

// Hash returns a fixed-length hex digest that is unique for the value. The
// digest is SHA-256; callers must only rely on the deterministic
// string -> 64-hex-chars contract, not on the algorithm.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString returns the digest of the raw string without JSON encoding.
// Block hashes and work leaf hashes are built from already-concatenated
// strings and must not pick up JSON quoting.
func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// PadHash left-pads a hash fragment with zeros to the full hash length.
func PadHash(h string) string {
	if len(h) >= HashLength {
		return h
	}
	return strings.Repeat("0", HashLength-len(h)) + h
}

// =============================================================================

// Sign uses the specified private key to sign the value.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(v, r, s *big.Int) error {
	uintV := v.Uint64() - ledgerID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address of the account that signed the value.
func FromAddress(value any, v, r, s *big.Int) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig := ToSignatureBytes(v, r, s)

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(ToSignatureBytesWithLedgerID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(sigStr, "0x"))
	if err != nil {
		return nil, nil, nil, err
	}
	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, errors.New("invalid signature length")
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this value with the
// ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(data)

	// The stamp keeps signatures produced for work submissions unique to
	// this ledger so they can't be replayed elsewhere.
	stamp := []byte("\x19MathLedger Signed Work:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + ledgerID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the ledgerID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)

	sBytes := s.Bytes()
	copy(sig[64-len(sBytes):64], sBytes)

	sig[64] = byte(v.Uint64() - ledgerID)

	return sig
}

// ToSignatureBytesWithLedgerID converts the r, s, v values into a slice of
// bytes keeping the ledger id.
func ToSignatureBytesWithLedgerID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
