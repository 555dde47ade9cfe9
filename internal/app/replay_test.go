package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"strconv"
	"strings"
	"testing"

	"ludimint/chain/internal/codec"
)

// testEd25519Key derives a deterministic keypair from a seed label.
func testEd25519Key(label string) (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := sha256.Sum256([]byte("ludimint-test-key:" + label))
	priv := ed25519.NewKeyFromSeed(seed[:])
	return priv.Public().(ed25519.PublicKey), priv
}

func txBytesSigned(t *testing.T, typ string, value any, signer string, nonce uint64) []byte {
	t.Helper()
	_, priv := testEd25519Key(signer)
	valueBytes := mustMarshal(t, value)
	nonceStr := strconv.FormatUint(nonce, 10)
	msg := txAuthSignBytes(typ, valueBytes, nonceStr, signer)
	env := codec.TxEnvelope{
		Type:   typ,
		Value:  valueBytes,
		Nonce:  nonceStr,
		Signer: signer,
		Sig:    ed25519.Sign(priv, msg),
	}
	return mustMarshal(t, env)
}

func registerTestAccount(t *testing.T, a *App, account string, nonce uint64) {
	t.Helper()
	pub, _ := testEd25519Key(account)
	mustOk(t, a.deliverTx(txBytesSigned(t, "auth/register_account", map[string]any{
		"account": account,
		"pubKey":  []byte(pub),
	}, account, nonce), 1, 0))
}

func TestReplayProtection_AccountSigned(t *testing.T) {
	a := newTestApp(t)
	mint(t, a, aliceAddr, 100)
	registerTestAccount(t, a, aliceAddr, 1)

	tx := txBytesSigned(t, "bank/send", map[string]any{
		"denom": denom, "from": aliceAddr, "to": bobAddr, "amount": 1,
	}, aliceAddr, 2)
	mustOk(t, a.deliverTx(tx, 1, 0))

	res := a.deliverTx(tx, 1, 0)
	if res.Code == 0 {
		t.Fatalf("expected replay to be rejected")
	}
	if !strings.Contains(res.Log, "replayed tx.nonce") {
		t.Fatalf("expected replay log to mention nonce, got %q", res.Log)
	}

	// Nonces must strictly increase; going back is also a replay.
	res = a.deliverTx(txBytesSigned(t, "bank/send", map[string]any{
		"denom": denom, "from": aliceAddr, "to": bobAddr, "amount": 1,
	}, aliceAddr, 1), 1, 0)
	if res.Code == 0 || !strings.Contains(res.Log, "replayed tx.nonce") {
		t.Fatalf("expected stale nonce rejection, got code=%d log=%q", res.Code, res.Log)
	}
}

func TestSignedTx_SignerMustMatchActor(t *testing.T) {
	a := newTestApp(t)
	mint(t, a, aliceAddr, 100)
	registerTestAccount(t, a, aliceAddr, 1)
	registerTestAccount(t, a, bobAddr, 1)

	// Bob signs a send from alice's account.
	res := a.deliverTx(txBytesSigned(t, "bank/send", map[string]any{
		"denom": denom, "from": aliceAddr, "to": bobAddr, "amount": 1,
	}, bobAddr, 2), 1, 0)
	mustFail(t, res, ErrUnauthorized.ABCICode())
	if !strings.Contains(res.Log, "signer mismatch") {
		t.Fatalf("expected signer mismatch, got %q", res.Log)
	}
}

func TestSignedTx_TamperedValueRejected(t *testing.T) {
	a := newTestApp(t)
	mint(t, a, aliceAddr, 100)
	registerTestAccount(t, a, aliceAddr, 1)

	tx := txBytesSigned(t, "bank/send", map[string]any{
		"denom": denom, "from": aliceAddr, "to": bobAddr, "amount": 1,
	}, aliceAddr, 2)
	tampered := strings.Replace(string(tx), `"amount":1`, `"amount":99`, 1)
	if tampered == string(tx) {
		t.Fatalf("tamper failed to change tx")
	}

	res := a.deliverTx([]byte(tampered), 1, 0)
	mustFail(t, res, ErrUnauthorized.ABCICode())
	if !strings.Contains(res.Log, "invalid signature") {
		t.Fatalf("expected invalid signature, got %q", res.Log)
	}
}

func TestSignedTx_UnregisteredSignerRejected(t *testing.T) {
	a := newTestApp(t)
	mint(t, a, aliceAddr, 100)

	res := a.deliverTx(txBytesSigned(t, "bank/send", map[string]any{
		"denom": denom, "from": aliceAddr, "to": bobAddr, "amount": 1,
	}, aliceAddr, 1), 1, 0)
	mustFail(t, res, ErrUnauthorized.ABCICode())
	if !strings.Contains(res.Log, "missing pubKey") {
		t.Fatalf("expected missing pubKey, got %q", res.Log)
	}
}

func TestReplayProtection_RejectsNonNumericNonce(t *testing.T) {
	a := newTestApp(t)

	pub, priv := testEd25519Key(aliceAddr)
	value := map[string]any{"account": aliceAddr, "pubKey": []byte(pub)}
	valueBytes := mustMarshal(t, value)

	nonce := "not-a-number"
	msg := txAuthSignBytes("auth/register_account", valueBytes, nonce, aliceAddr)
	env := codec.TxEnvelope{
		Type:   "auth/register_account",
		Value:  valueBytes,
		Nonce:  nonce,
		Signer: aliceAddr,
		Sig:    ed25519.Sign(priv, msg),
	}

	res := a.deliverTx(mustMarshal(t, env), 1, 0)
	if res.Code == 0 {
		t.Fatalf("expected non-numeric nonce to be rejected")
	}
	if !strings.Contains(res.Log, "invalid tx.nonce") {
		t.Fatalf("expected log to mention invalid tx.nonce, got %q", res.Log)
	}
}

func TestOwnerWithRegisteredKeyMustSign(t *testing.T) {
	a := newTestApp(t)
	initChain(t, a, map[string]any{"owner": ownerAddr})
	registerTestAccount(t, a, ownerAddr, 1)

	// Unsigned owner tx is no longer enough once a key is registered.
	mustFail(t, a.deliverTx(txBytes(t, "factory/set_min_entry_fee", map[string]any{
		"caller": ownerAddr, "minEntryFee": 5,
	}), 1, 0), ErrUnauthorized.ABCICode())

	mustOk(t, a.deliverTx(txBytesSigned(t, "factory/set_min_entry_fee", map[string]any{
		"caller": ownerAddr, "minEntryFee": 5,
	}, ownerAddr, 2), 1, 0))
	if a.st.MinEntryFee != 5 {
		t.Fatalf("minEntryFee = %d, want 5", a.st.MinEntryFee)
	}
}
