package codec

import (
	"encoding/json"
	"testing"
)

func TestDecodeTxEnvelope_OK(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"type":  "bank/mint",
		"value": map[string]any{"denom": "lud", "to": "0x1111111111111111111111111111111111111111", "amount": 123},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	env, err := DecodeTxEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if env.Type != "bank/mint" {
		t.Fatalf("unexpected type: %q", env.Type)
	}

	var v BankMintTx
	if err := json.Unmarshal(env.Value, &v); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if v.Denom != "lud" || v.Amount != 123 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestDecodeTxEnvelope_KeepsAuthFields(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"type":   "tournament/finalize",
		"nonce":  "7",
		"signer": "0x2222222222222222222222222222222222222222",
		"value":  map[string]any{"tournamentId": 1},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	env, err := DecodeTxEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if env.Nonce != "7" || env.Signer == "" {
		t.Fatalf("auth fields lost: %+v", env)
	}
}

func TestDecodeTxEnvelope_MissingType(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"value": map[string]any{"x": 1},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeTxEnvelope(b)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeTxEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeTxEnvelope([]byte("{not json"))
	if err == nil {
		t.Fatalf("expected error")
	}
}
