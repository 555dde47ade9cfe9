package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the v0 transaction container.
//
// CometBFT transactions are opaque bytes. For v0 localnet we use JSON-encoded
// txs to move fast; this is NOT the final protocol encoding.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// v0 tx auth (optional):
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer id (the account address for account-signed txs).
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	Denom  string `json:"denom"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	Denom  string `json:"denom"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// BankApproveTx sets the allowance a spender may pull from the owner's
// balance. Mirrors the ERC-20 approve/allowance flow the tournament escrow
// pulls entry fees through.
type BankApproveTx struct {
	Denom   string `json:"denom"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

// ---- Auth (v0) ----

// v0: account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Tournament ----

type TournamentCreateTx struct {
	Creator    string `json:"creator"`
	Asset      string `json:"asset"`
	EntryFee   uint64 `json:"entryFee"`
	MaxPlayers uint32 `json:"maxPlayers"`
	TopK       uint32 `json:"topK"`
	CommitSecs uint64 `json:"commitDurationSecs"`
	RevealSecs uint64 `json:"revealDurationSecs"`
}

type TournamentRegisterTx struct {
	TournamentID uint64 `json:"tournamentId"`
	Player       string `json:"player"`
	Commitment   string `json:"commitment"` // 0x-prefixed keccak256 hash
}

// TournamentRevealTx discloses the committed secret and score. Score travels
// as a string so the chain applies the same numeric canonicalization as
// off-chain commit builders.
type TournamentRevealTx struct {
	TournamentID uint64 `json:"tournamentId"`
	Player       string `json:"player"`
	Secret       string `json:"secret"`
	Score        string `json:"score"`
}

type TournamentFinalizeTx struct {
	TournamentID uint64 `json:"tournamentId"`
}

type TournamentClaimTx struct {
	TournamentID uint64 `json:"tournamentId"`
	Player       string `json:"player"`
}

// ---- Factory governance ----

type FactorySetMinEntryFeeTx struct {
	Caller      string `json:"caller"`
	MinEntryFee uint64 `json:"minEntryFee"`
}

// ---- Badges ----

type BadgeMintTx struct {
	Caller       string `json:"caller"`
	Winner       string `json:"winner"`
	TournamentID uint64 `json:"tournamentId"`
	URI          string `json:"uri"`
}

type BadgeBatchMintTx struct {
	Caller       string   `json:"caller"`
	Winners      []string `json:"winners"`
	TournamentID uint64   `json:"tournamentId"`
	URIs         []string `json:"uris"`
}

type BadgeTransferTx struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint64 `json:"tokenId"`
}
