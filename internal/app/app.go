package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"ludimint/chain/internal/codec"
	"ludimint/chain/internal/state"
)

const (
	AppVersion uint64 = 1
)

// App is the LUDIMINT tournament chain: commit-reveal score tournaments with
// pooled entry-fee prizes, a creation factory and a reputation badge
// registry, executed as a CometBFT ABCI application.
type App struct {
	*abci.BaseApplication

	home   string
	logger log.Logger

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string, logger log.Logger) (*App, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	a := &App{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		logger:          logger,
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

// genesisState is the app_state payload accepted at InitChain.
type genesisState struct {
	Owner       string                       `json:"owner,omitempty"`
	MinEntryFee uint64                       `json:"minEntryFee,omitempty"`
	Balances    map[string]map[string]uint64 `json:"balances,omitempty"` // denom -> addr -> amount
}

func (a *App) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "LUDIMINT (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *App) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: ErrTxDecode.ABCICode(), Codespace: Codespace, Log: err.Error()}, nil
	}
	// v0: only structural validation; stateful checks happen at delivery.
	return &abci.CheckTxResponse{Code: abci.CodeTypeOK}, nil
}

func (a *App) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(req.AppStateBytes) > 0 {
		var gen genesisState
		if err := json.Unmarshal(req.AppStateBytes, &gen); err != nil {
			return nil, fmt.Errorf("decode genesis app state: %w", err)
		}
		if err := a.applyGenesis(gen); err != nil {
			return nil, err
		}
	}
	a.lastHash = a.st.AppHash()
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *App) applyGenesis(gen genesisState) error {
	if gen.Owner != "" {
		a.st.Owner = gen.Owner
	}
	if gen.MinEntryFee != 0 {
		a.st.MinEntryFee = gen.MinEntryFee
	}
	for denom, balances := range gen.Balances {
		a.st.EnsureAsset(denom)
		for addr, amount := range balances {
			if err := a.st.Credit(denom, addr, amount); err != nil {
				return fmt.Errorf("genesis balance %s/%s: %w", denom, addr, err)
			}
		}
	}
	return nil
}

func (a *App) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	a.st.LastBlockTime = req.Time.Unix()
	nowUnix := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, nowUnix)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *App) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Persist after each block for devnet durability.
	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		// CometBFT expects Commit to not crash; return error so node halts loudly.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// deliverTx stages each tx on a state clone and swaps it in only on success,
// so a failed tx leaves no partial state behind.
func (a *App) deliverTx(txBytes []byte, height, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errTxResult(errorsmod.Wrap(ErrTxDecode, err.Error()))
	}

	staged, err := a.st.Clone()
	if err != nil {
		return errTxResult(errorsmod.Wrap(ErrInvalidRequest, err.Error()))
	}
	staged.Height = height
	staged.LastBlockTime = nowUnix

	res, err := a.applyTx(staged, env, nowUnix)
	if err != nil {
		a.logger.Debug("tx rejected", "type", env.Type, "err", err)
		return errTxResult(err)
	}
	a.st = staged
	a.logger.Debug("tx applied", "type", env.Type, "height", height)
	return res
}

func (a *App) applyTx(st *state.State, env codec.TxEnvelope, nowUnix int64) (*abci.ExecTxResult, error) {
	// Signed envelopes get full account auth plus replay protection;
	// unsigned txs remain accepted in v0 (localnet posture), except the
	// privileged ones which enforce owner auth themselves.
	authenticate := func(actor string) error {
		if len(env.Sig) == 0 {
			return nil
		}
		if err := requireAccountAuth(st, env, actor); err != nil {
			return errorsmod.Wrap(ErrUnauthorized, err.Error())
		}
		if err := consumeNonce(st, env); err != nil {
			return errorsmod.Wrap(ErrUnauthorized, err.Error())
		}
		return nil
	}

	switch env.Type {
	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad auth/register_account value")
		}
		if err := requireRegisterAccountAuth(env, msg); err != nil {
			return nil, errorsmod.Wrap(ErrUnauthorized, err.Error())
		}
		if err := consumeNonce(st, env); err != nil {
			return nil, errorsmod.Wrap(ErrUnauthorized, err.Error())
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return okEvent("AccountRegistered", map[string]string{
			"account": msg.Account,
		}), nil

	case "bank/mint":
		var msg codec.BankMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad bank/mint value")
		}
		return bankMint(st, msg)

	case "bank/send":
		var msg codec.BankSendTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad bank/send value")
		}
		if err := authenticate(msg.From); err != nil {
			return nil, err
		}
		return bankSend(st, msg)

	case "bank/approve":
		var msg codec.BankApproveTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad bank/approve value")
		}
		if err := authenticate(msg.Owner); err != nil {
			return nil, err
		}
		return bankApprove(st, msg)

	case "tournament/create":
		var msg codec.TournamentCreateTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad tournament/create value")
		}
		if err := authenticate(msg.Creator); err != nil {
			return nil, err
		}
		return factoryCreateTournament(st, msg, nowUnix)

	case "factory/set_min_entry_fee":
		var msg codec.FactorySetMinEntryFeeTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad factory/set_min_entry_fee value")
		}
		return factorySetMinEntryFee(st, env, msg)

	case "tournament/register":
		var msg codec.TournamentRegisterTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad tournament/register value")
		}
		if err := authenticate(msg.Player); err != nil {
			return nil, err
		}
		return tournamentRegister(st, msg, nowUnix)

	case "tournament/reveal":
		var msg codec.TournamentRevealTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad tournament/reveal value")
		}
		if err := authenticate(msg.Player); err != nil {
			return nil, err
		}
		return tournamentReveal(st, msg, nowUnix)

	case "tournament/finalize":
		var msg codec.TournamentFinalizeTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad tournament/finalize value")
		}
		// Intentionally permissionless: settlement is a pure function of
		// public state and deadlines, nobody gets to gate-keep it.
		return tournamentFinalize(st, msg, nowUnix)

	case "tournament/claim":
		var msg codec.TournamentClaimTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad tournament/claim value")
		}
		if err := authenticate(msg.Player); err != nil {
			return nil, err
		}
		return tournamentClaim(st, msg)

	case "badge/mint":
		var msg codec.BadgeMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad badge/mint value")
		}
		return badgeMint(st, env, msg)

	case "badge/batch_mint":
		var msg codec.BadgeBatchMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad badge/batch_mint value")
		}
		return badgeBatchMint(st, env, msg)

	case "badge/transfer":
		var msg codec.BadgeTransferTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad badge/transfer value")
		}
		if err := authenticate(msg.From); err != nil {
			return nil, err
		}
		return badgeTransfer(st, msg)

	default:
		return nil, errorsmod.Wrapf(ErrTxDecode, "unknown tx type: %s", env.Type)
	}
}

func errTxResult(err error) *abci.ExecTxResult {
	codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Code: code, Codespace: codespace, Log: logMsg}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   abci.CodeTypeOK,
		Events: []abci.Event{ev},
	}
}
