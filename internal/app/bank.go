package app

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"ludimint/chain/internal/codec"
	"ludimint/chain/internal/state"
)

// Bank handlers. The asset ledger carries ERC-20 semantics: balances plus
// owner->spender allowances, with registration pulling entry fees through
// TransferFrom and claims pushing through Transfer.

func bankMint(st *state.State, msg codec.BankMintTx) (*abci.ExecTxResult, error) {
	if msg.Denom == "" || msg.To == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "bank/mint: missing denom or to")
	}
	if msg.Amount == 0 {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "bank/mint: amount must be positive")
	}
	st.EnsureAsset(msg.Denom)
	if err := st.Credit(msg.Denom, msg.To, msg.Amount); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	return okEvent("BankMinted", map[string]string{
		"denom":  msg.Denom,
		"to":     msg.To,
		"amount": strconv.FormatUint(msg.Amount, 10),
	}), nil
}

func bankSend(st *state.State, msg codec.BankSendTx) (*abci.ExecTxResult, error) {
	if msg.Denom == "" || msg.From == "" || msg.To == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "bank/send: missing denom, from or to")
	}
	if msg.Amount == 0 {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "bank/send: amount must be positive")
	}
	if !st.AssetExists(msg.Denom) {
		return nil, errorsmod.Wrapf(ErrInvalidAsset, "unknown asset %q", msg.Denom)
	}
	if err := st.Transfer(msg.Denom, msg.From, msg.To, msg.Amount); err != nil {
		return nil, errorsmod.Wrap(ErrTransferFailed, err.Error())
	}
	return okEvent("BankSent", map[string]string{
		"denom":  msg.Denom,
		"from":   msg.From,
		"to":     msg.To,
		"amount": strconv.FormatUint(msg.Amount, 10),
	}), nil
}

func bankApprove(st *state.State, msg codec.BankApproveTx) (*abci.ExecTxResult, error) {
	if msg.Denom == "" || msg.Owner == "" || msg.Spender == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "bank/approve: missing denom, owner or spender")
	}
	if !st.AssetExists(msg.Denom) {
		return nil, errorsmod.Wrapf(ErrInvalidAsset, "unknown asset %q", msg.Denom)
	}
	if err := st.Approve(msg.Denom, msg.Owner, msg.Spender, msg.Amount); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	return okEvent("Approval", map[string]string{
		"denom":   msg.Denom,
		"owner":   msg.Owner,
		"spender": msg.Spender,
		"amount":  strconv.FormatUint(msg.Amount, 10),
	}), nil
}
