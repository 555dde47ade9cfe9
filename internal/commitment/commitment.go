// Package commitment derives and verifies the binding hash a player submits
// before disclosing a score.
//
// The encoding is the packed form used by the original contracts:
//
//	keccak256(player(20) || tournamentId as uint256 BE (32) || secret || score as uint256 BE (32))
//
// Both the chain and off-chain commit builders must run scores through
// ParseScore so that "100", "100.0" and 100.9 all hash identically.
package commitment

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Commit derives the binding commitment for (player, tournament, secret, score).
func Commit(player common.Address, tournamentID uint64, secret string, score uint64) common.Hash {
	buf := make([]byte, 0, common.AddressLength+32+len(secret)+32)
	buf = append(buf, player.Bytes()...)
	buf = append(buf, uint256BE(tournamentID)...)
	buf = append(buf, secret...)
	buf = append(buf, uint256BE(score)...)
	return crypto.Keccak256Hash(buf)
}

// Verify recomputes the commitment and compares. It returns false, never an
// error, on any mismatch including a zero (absent) commitment.
func Verify(h common.Hash, player common.Address, tournamentID uint64, secret string, score uint64) bool {
	if h == (common.Hash{}) {
		return false
	}
	return Commit(player, tournamentID, secret, score) == h
}

// ParsePlayer validates and normalizes a 160-bit hex participant identity.
func ParsePlayer(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid player address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ParseCommitment validates a 0x-prefixed 32-byte hash. The zero hash is
// rejected: it is the "no commitment" sentinel.
func ParseCommitment(s string) (common.Hash, error) {
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid commitment length: got %d hex chars want %d", len(raw), 2*common.HashLength)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid commitment: %w", err)
	}
	h := common.BytesToHash(b)
	if h == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("commitment must be non-zero")
	}
	return h, nil
}

// ParseScore canonicalizes a score to a non-negative integer. Decimal
// integers pass through; fractional values are floored; negative,
// non-finite and non-numeric input is rejected.
func ParseScore(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty score")
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score must be finite, got %q", raw)
	}
	if f < 0 {
		return 0, fmt.Errorf("score must be non-negative, got %q", raw)
	}
	fl := math.Floor(f)
	if fl >= float64(math.MaxUint64) {
		return 0, fmt.Errorf("score out of range: %q", raw)
	}
	return uint64(fl), nil
}

func uint256BE(v uint64) []byte {
	var b [32]byte
	binary.BigEndian.PutUint64(b[24:], v)
	return b[:]
}
