package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"ludimint/chain/internal/codec"
	"ludimint/chain/internal/state"
)

const txAuthDomainV1 = "ludimint/tx/v1"

func txAuthSignBytes(typ string, value []byte, nonce string, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomainV1)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomainV1)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return fmt.Errorf("missing tx.nonce")
	}
	if env.Signer == "" {
		return fmt.Errorf("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return fmt.Errorf("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

// consumeNonce enforces strictly-increasing numeric nonces per signer.
func consumeNonce(st *state.State, env codec.TxEnvelope) error {
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tx.nonce %q", env.Nonce)
	}
	if last, ok := st.NonceMax[env.Signer]; ok && n <= last {
		return fmt.Errorf("replayed tx.nonce %d (last accepted %d)", n, last)
	}
	st.NonceMax[env.Signer] = n
	return nil
}

func requireRegisterAccountAuth(env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return fmt.Errorf("missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	pub := ed25519.PublicKey(msg.PubKey)
	msgBytes := txAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(pub, msgBytes, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	if account == "" {
		return fmt.Errorf("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("account %q missing pubKey (auth/register_account required)", account)
	}
	msg := txAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// requireOwner gates privileged txs (badge minting, factory governance).
// v0 posture: the baseline is a caller/owner equality check against the
// genesis-configured owner; when the owner has registered an account key the
// signed-envelope check applies on top.
func requireOwner(st *state.State, env codec.TxEnvelope, caller string) error {
	if st.Owner == "" {
		return errorsmod.Wrap(ErrUnauthorized, "owner not configured")
	}
	if caller == "" || !strings.EqualFold(caller, st.Owner) {
		return errorsmod.Wrapf(ErrUnauthorized, "caller %q is not the owner", caller)
	}
	if len(st.AccountKeys[st.Owner]) > 0 {
		if err := requireAccountAuth(st, env, st.Owner); err != nil {
			return errorsmod.Wrap(ErrUnauthorized, err.Error())
		}
		if err := consumeNonce(st, env); err != nil {
			return errorsmod.Wrap(ErrUnauthorized, err.Error())
		}
	}
	return nil
}
