package app

import (
	"sort"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"ludimint/chain/internal/codec"
	"ludimint/chain/internal/commitment"
	"ludimint/chain/internal/state"
)

func tournamentByID(st *state.State, id uint64) (*state.Tournament, error) {
	t, ok := st.Tournaments[id]
	if !ok {
		return nil, errorsmod.Wrapf(ErrNotFound, "tournament %d", id)
	}
	return t, nil
}

// tournamentRegister joins the caller during the commit window, pulling the
// entry fee into escrow through the caller's allowance. The commitment is
// fixed at registration and cannot be replaced.
func tournamentRegister(st *state.State, msg codec.TournamentRegisterTx, nowUnix int64) (*abci.ExecTxResult, error) {
	t, err := tournamentByID(st, msg.TournamentID)
	if err != nil {
		return nil, err
	}

	playerAddr, err := commitment.ParsePlayer(msg.Player)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	player := strings.ToLower(playerAddr.Hex())

	commit, err := commitment.ParseCommitment(msg.Commitment)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidCommitment, err.Error())
	}

	if t.Phase(nowUnix) != state.PhaseCommit {
		return nil, errorsmod.Wrapf(ErrRegistrationClosed, "tournament %d", t.ID)
	}
	if t.IsPlayer(player) {
		return nil, errorsmod.Wrapf(ErrAlreadyRegistered, "player %s", player)
	}
	if uint32(len(t.Players)) >= t.MaxPlayers {
		return nil, errorsmod.Wrapf(ErrTournamentFull, "maxPlayers=%d", t.MaxPlayers)
	}

	escrow := state.EscrowAddr(t.ID)
	if err := st.TransferFrom(t.Asset, player, escrow, escrow, t.EntryFee); err != nil {
		return nil, errorsmod.Wrap(ErrTransferFailed, err.Error())
	}

	pool, err := addU64Checked(t.PrizePool, t.EntryFee, "prizePool")
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	t.PrizePool = pool
	t.Players = append(t.Players, state.Player{Addr: player, Commitment: commit.Hex()})

	return okEvent("PlayerJoined", map[string]string{
		"tournamentId": strconv.FormatUint(t.ID, 10),
		"player":       player,
		"players":      strconv.Itoa(len(t.Players)),
	}), nil
}

// tournamentReveal discloses (secret, score) during the reveal window and
// checks them against the stored commitment.
func tournamentReveal(st *state.State, msg codec.TournamentRevealTx, nowUnix int64) (*abci.ExecTxResult, error) {
	t, err := tournamentByID(st, msg.TournamentID)
	if err != nil {
		return nil, err
	}

	playerAddr, err := commitment.ParsePlayer(msg.Player)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	player := strings.ToLower(playerAddr.Hex())

	score, err := commitment.ParseScore(msg.Score)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}

	if t.Phase(nowUnix) != state.PhaseReveal {
		return nil, errorsmod.Wrapf(ErrRevealWindowClosed, "tournament %d", t.ID)
	}
	stored := t.CommitmentOf(player)
	if stored == "" {
		return nil, errorsmod.Wrapf(ErrNotRegistered, "player %s", player)
	}
	if _, ok := t.Revealed[player]; ok {
		return nil, errorsmod.Wrapf(ErrAlreadyRevealed, "player %s", player)
	}

	h, err := commitment.ParseCommitment(stored)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidCommitment, err.Error())
	}
	if !commitment.Verify(h, playerAddr, t.ID, msg.Secret, score) {
		return nil, errorsmod.Wrapf(ErrCommitMismatch, "player %s", player)
	}

	t.Revealed[player] = score

	return okEvent("ScoreRevealed", map[string]string{
		"tournamentId": strconv.FormatUint(t.ID, 10),
		"player":       player,
		"score":        strconv.FormatUint(score, 10),
	}), nil
}

// tournamentFinalize settles a tournament once the reveal window is over:
// ranks revealed players, records winners and their integer prize shares.
// It is deliberately callable by anyone.
func tournamentFinalize(st *state.State, msg codec.TournamentFinalizeTx, nowUnix int64) (*abci.ExecTxResult, error) {
	t, err := tournamentByID(st, msg.TournamentID)
	if err != nil {
		return nil, err
	}
	if t.Finalized {
		return nil, errorsmod.Wrapf(ErrAlreadyFinalized, "tournament %d", t.ID)
	}
	if nowUnix <= t.RevealDeadline {
		return nil, errorsmod.Wrapf(ErrRevealNotEnded, "tournament %d", t.ID)
	}

	t.Finalized = true
	t.FinalizedAt = nowUnix

	switch {
	case len(t.Revealed) > 0:
		// Rank revealed players by score descending. Walking the players slice
		// with a stable sort makes registration order the tie-break.
		ranked := make([]string, 0, len(t.Revealed))
		for i := range t.Players {
			if _, ok := t.Revealed[t.Players[i].Addr]; ok {
				ranked = append(ranked, t.Players[i].Addr)
			}
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return t.Revealed[ranked[i]] > t.Revealed[ranked[j]]
		})

		n := int(t.TopK)
		if len(ranked) < n {
			n = len(ranked)
		}
		t.Winners = ranked[:n]

		share := t.PrizePool / uint64(n)
		remainder := t.PrizePool % uint64(n)
		for i, w := range t.Winners {
			s := share
			if i == 0 {
				s += remainder
			}
			t.PrizeShares[w] = s
		}

	case len(t.Players) > 0:
		// Nobody revealed: every registrant gets their entry fee back through
		// the normal claim path.
		for i := range t.Players {
			t.PrizeShares[t.Players[i].Addr] = t.EntryFee
		}
	}

	return okEvent("TournamentFinalized", map[string]string{
		"tournamentId": strconv.FormatUint(t.ID, 10),
		"winners":      strings.Join(t.Winners, ","),
		"prizePool":    strconv.FormatUint(t.PrizePool, 10),
	}), nil
}

// tournamentClaim pays out the caller's recorded share from escrow. The
// claimed flag is set before the transfer; staged execution rolls both back
// together if the transfer fails.
func tournamentClaim(st *state.State, msg codec.TournamentClaimTx) (*abci.ExecTxResult, error) {
	t, err := tournamentByID(st, msg.TournamentID)
	if err != nil {
		return nil, err
	}

	playerAddr, err := commitment.ParsePlayer(msg.Player)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	player := strings.ToLower(playerAddr.Hex())

	if !t.Finalized {
		return nil, errorsmod.Wrapf(ErrNotFinalized, "tournament %d", t.ID)
	}
	share := t.PrizeShares[player]
	if share == 0 || t.Claimed[player] {
		return nil, errorsmod.Wrapf(ErrNotWinnerOrAlreadyClaimed, "player %s", player)
	}

	t.Claimed[player] = true
	if err := st.Transfer(t.Asset, state.EscrowAddr(t.ID), player, share); err != nil {
		return nil, errorsmod.Wrap(ErrTransferFailed, err.Error())
	}

	return okEvent("PrizeClaimed", map[string]string{
		"tournamentId": strconv.FormatUint(t.ID, 10),
		"player":       player,
		"amount":       strconv.FormatUint(share, 10),
	}), nil
}
