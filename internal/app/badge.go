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

// Badge issuance. Mint-uniqueness per (winner, tournament) pair is tracked in
// a permanent index that transfers never touch.

func badgeMintOne(st *state.State, winner string, tournamentID uint64, uri string) (uint64, error) {
	addr, err := commitment.ParsePlayer(winner)
	if err != nil {
		return 0, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	w := strings.ToLower(addr.Hex())

	key := state.BadgePairKey(w, tournamentID)
	if _, ok := st.BadgeByPair[key]; ok {
		return 0, errorsmod.Wrapf(ErrBadgeAlreadyMinted, "winner %s tournament %d", w, tournamentID)
	}

	tokenID := st.NextBadgeID
	st.NextBadgeID++
	st.Badges[tokenID] = &state.Badge{
		TokenID:      tokenID,
		Owner:        w,
		Winner:       w,
		TournamentID: tournamentID,
		URI:          uri,
	}
	st.BadgeByPair[key] = tokenID
	return tokenID, nil
}

func badgeMint(st *state.State, env codec.TxEnvelope, msg codec.BadgeMintTx) (*abci.ExecTxResult, error) {
	if err := requireOwner(st, env, msg.Caller); err != nil {
		return nil, err
	}
	tokenID, err := badgeMintOne(st, msg.Winner, msg.TournamentID, msg.URI)
	if err != nil {
		return nil, err
	}
	b := st.Badges[tokenID]
	return okEvent("BadgeMinted", map[string]string{
		"tokenId":      strconv.FormatUint(tokenID, 10),
		"winner":       b.Winner,
		"tournamentId": strconv.FormatUint(msg.TournamentID, 10),
	}), nil
}

// badgeBatchMint mints one badge per (winner, uri) pair. A failure on any
// entry, including an in-batch duplicate, fails the whole tx with no badges
// minted (staged execution).
func badgeBatchMint(st *state.State, env codec.TxEnvelope, msg codec.BadgeBatchMintTx) (*abci.ExecTxResult, error) {
	if err := requireOwner(st, env, msg.Caller); err != nil {
		return nil, err
	}
	if len(msg.Winners) == 0 {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "badge/batch_mint: empty winners")
	}
	if len(msg.Winners) != len(msg.URIs) {
		return nil, errorsmod.Wrapf(ErrInvalidRequest, "badge/batch_mint: %d winners vs %d uris", len(msg.Winners), len(msg.URIs))
	}

	res := &abci.ExecTxResult{Code: abci.CodeTypeOK}
	for i, winner := range msg.Winners {
		tokenID, err := badgeMintOne(st, winner, msg.TournamentID, msg.URIs[i])
		if err != nil {
			return nil, err
		}
		b := st.Badges[tokenID]
		ev := okEvent("BadgeMinted", map[string]string{
			"tokenId":      strconv.FormatUint(tokenID, 10),
			"winner":       b.Winner,
			"tournamentId": strconv.FormatUint(msg.TournamentID, 10),
		})
		res.Events = append(res.Events, ev.Events...)
	}
	return res, nil
}

func badgeTransfer(st *state.State, msg codec.BadgeTransferTx) (*abci.ExecTxResult, error) {
	fromAddr, err := commitment.ParsePlayer(msg.From)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	toAddr, err := commitment.ParsePlayer(msg.To)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	from := strings.ToLower(fromAddr.Hex())
	to := strings.ToLower(toAddr.Hex())

	b, ok := st.Badges[msg.TokenID]
	if !ok {
		return nil, errorsmod.Wrapf(ErrNotFound, "badge %d", msg.TokenID)
	}
	if b.Owner != from {
		return nil, errorsmod.Wrapf(ErrUnauthorized, "badge %d not owned by %s", msg.TokenID, from)
	}

	b.Owner = to

	return okEvent("BadgeTransferred", map[string]string{
		"tokenId": strconv.FormatUint(msg.TokenID, 10),
		"from":    from,
		"to":      to,
	}), nil
}
