package app

import (
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"ludimint/chain/internal/codec"
	"ludimint/chain/internal/commitment"
	"ludimint/chain/internal/state"
)

// factoryCreateTournament validates the requested parameters and opens a new
// tournament with its commit window starting at the current block time. The
// id is appended to the append-only registry.
func factoryCreateTournament(st *state.State, msg codec.TournamentCreateTx, nowUnix int64) (*abci.ExecTxResult, error) {
	creatorAddr, err := commitment.ParsePlayer(msg.Creator)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	creator := strings.ToLower(creatorAddr.Hex())

	if msg.EntryFee < st.MinEntryFee {
		return nil, errorsmod.Wrapf(ErrEntryFeeTooLow, "entryFee=%d min=%d", msg.EntryFee, st.MinEntryFee)
	}
	if msg.MaxPlayers < 2 {
		return nil, errorsmod.Wrapf(ErrInvalidMaxPlayers, "maxPlayers=%d", msg.MaxPlayers)
	}
	if msg.TopK < 1 || msg.TopK > msg.MaxPlayers {
		return nil, errorsmod.Wrapf(ErrInvalidTopK, "topK=%d maxPlayers=%d", msg.TopK, msg.MaxPlayers)
	}
	if !st.AssetExists(msg.Asset) {
		return nil, errorsmod.Wrapf(ErrInvalidAsset, "unknown asset %q", msg.Asset)
	}
	if msg.CommitSecs == 0 || msg.RevealSecs == 0 {
		return nil, errorsmod.Wrap(ErrInvalidDuration, "durations must be positive")
	}

	commitDeadline, err := addInt64AndU64Checked(nowUnix, msg.CommitSecs, "commitDeadline")
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidDuration, err.Error())
	}
	revealDeadline, err := addInt64AndU64Checked(commitDeadline, msg.RevealSecs, "revealDeadline")
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidDuration, err.Error())
	}

	id := st.NextTournamentID
	st.NextTournamentID++

	t := &state.Tournament{
		ID:             id,
		Creator:        creator,
		Asset:          msg.Asset,
		EntryFee:       msg.EntryFee,
		MaxPlayers:     msg.MaxPlayers,
		TopK:           msg.TopK,
		CreatedAt:      nowUnix,
		CommitDeadline: commitDeadline,
		RevealDeadline: revealDeadline,
		Revealed:       map[string]uint64{},
		PrizeShares:    map[string]uint64{},
		Claimed:        map[string]bool{},
	}
	st.Tournaments[id] = t
	st.Registry = append(st.Registry, id)

	return okEvent("TournamentCreated", map[string]string{
		"tournamentId": strconv.FormatUint(id, 10),
		"creator":      creator,
		"asset":        msg.Asset,
		"entryFee":     strconv.FormatUint(msg.EntryFee, 10),
		"maxPlayers":   strconv.FormatUint(uint64(msg.MaxPlayers), 10),
		"topK":         strconv.FormatUint(uint64(msg.TopK), 10),
	}), nil
}

// factorySetMinEntryFee is owner-only governance; it affects future creations
// only, already-open tournaments keep their fee.
func factorySetMinEntryFee(st *state.State, env codec.TxEnvelope, msg codec.FactorySetMinEntryFeeTx) (*abci.ExecTxResult, error) {
	if err := requireOwner(st, env, msg.Caller); err != nil {
		return nil, err
	}
	if msg.MinEntryFee == 0 {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "minEntryFee must be positive")
	}
	st.MinEntryFee = msg.MinEntryFee
	return okEvent("MinEntryFeeUpdated", map[string]string{
		"minEntryFee": strconv.FormatUint(msg.MinEntryFee, 10),
	}), nil
}
