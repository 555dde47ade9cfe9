package app

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"ludimint/chain/internal/commitment"
	"ludimint/chain/internal/state"
)

// Read-only query surface. Paths are slash-delimited; responses are JSON.
// Phase is computed against the last finalized block time, so a query sees
// the same clock the next tx will.

type tournamentView struct {
	ID             uint64            `json:"id"`
	Creator        string            `json:"creator"`
	Asset          string            `json:"asset"`
	EntryFee       uint64            `json:"entryFee"`
	MaxPlayers     uint32            `json:"maxPlayers"`
	TopK           uint32            `json:"topK"`
	CreatedAt      int64             `json:"createdAt"`
	CommitDeadline int64             `json:"commitDeadline"`
	RevealDeadline int64             `json:"revealDeadline"`
	Phase          state.Phase       `json:"phase"`
	Players        []string          `json:"players"`
	RevealedCount  int               `json:"revealedCount"`
	PrizePool      uint64            `json:"prizePool"`
	Finalized      bool              `json:"finalized"`
	FinalizedAt    int64             `json:"finalizedAt,omitempty"`
	Winners        []string          `json:"winners,omitempty"`
	PrizeShares    map[string]uint64 `json:"prizeShares,omitempty"`
}

type playerStatusView struct {
	TournamentID uint64 `json:"tournamentId"`
	Player       string `json:"player"`
	Registered   bool   `json:"registered"`
	Revealed     bool   `json:"revealed"`
	Score        uint64 `json:"score,omitempty"`
	Share        uint64 `json:"share,omitempty"`
	Claimed      bool   `json:"claimed"`
}

func (a *App) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	parts := strings.Split(strings.Trim(req.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return queryErr(ErrInvalidRequest.ABCICode(), "empty query path"), nil
	}

	st := a.st
	switch parts[0] {
	case "params":
		return queryJSON(map[string]any{
			"owner":       st.Owner,
			"minEntryFee": st.MinEntryFee,
		})

	case "tournaments":
		if len(parts) == 1 {
			return queryJSON(map[string]any{"ids": registrySlice(st.Registry, 0, uint64(len(st.Registry)))})
		}
		if len(parts) == 4 && parts[1] == "page" {
			offset, err1 := strconv.ParseUint(parts[2], 10, 64)
			limit, err2 := strconv.ParseUint(parts[3], 10, 64)
			if err1 != nil || err2 != nil {
				return queryErr(ErrInvalidRequest.ABCICode(), "bad page bounds"), nil
			}
			return queryJSON(map[string]any{
				"ids":   registrySlice(st.Registry, offset, limit),
				"total": len(st.Registry),
			})
		}

	case "tournament":
		if len(parts) < 2 {
			break
		}
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return queryErr(ErrInvalidRequest.ABCICode(), "bad tournament id"), nil
		}
		t, ok := st.Tournaments[id]
		if !ok {
			return queryErr(ErrNotFound.ABCICode(), "tournament not found"), nil
		}
		if len(parts) == 2 {
			return queryJSON(viewTournament(t, st.LastBlockTime))
		}
		if len(parts) == 4 && parts[2] == "player" {
			addr, err := commitment.ParsePlayer(parts[3])
			if err != nil {
				return queryErr(ErrInvalidRequest.ABCICode(), err.Error()), nil
			}
			player := strings.ToLower(addr.Hex())
			score, revealed := t.Revealed[player]
			return queryJSON(playerStatusView{
				TournamentID: t.ID,
				Player:       player,
				Registered:   t.IsPlayer(player),
				Revealed:     revealed,
				Score:        score,
				Share:        t.PrizeShares[player],
				Claimed:      t.Claimed[player],
			})
		}

	case "account":
		if len(parts) == 3 {
			return queryJSON(map[string]any{
				"denom":   parts[1],
				"addr":    parts[2],
				"balance": st.Balance(parts[1], parts[2]),
			})
		}

	case "allowance":
		if len(parts) == 4 {
			return queryJSON(map[string]any{
				"denom":     parts[1],
				"owner":     parts[2],
				"spender":   parts[3],
				"allowance": st.Allowance(parts[1], parts[2], parts[3]),
			})
		}

	case "badges":
		if len(parts) == 2 {
			addr, err := commitment.ParsePlayer(parts[1])
			if err != nil {
				return queryErr(ErrInvalidRequest.ABCICode(), err.Error()), nil
			}
			owner := strings.ToLower(addr.Hex())
			ids := make([]uint64, 0)
			for id, b := range st.Badges {
				if b.Owner == owner {
					ids = append(ids, id)
				}
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			return queryJSON(map[string]any{"owner": owner, "tokenIds": ids})
		}

	case "badge":
		if len(parts) == 2 {
			id, err := strconv.ParseUint(parts[1], 10, 64)
			if err != nil {
				return queryErr(ErrInvalidRequest.ABCICode(), "bad token id"), nil
			}
			b, ok := st.Badges[id]
			if !ok {
				return queryErr(ErrNotFound.ABCICode(), "badge not found"), nil
			}
			return queryJSON(b)
		}
	}

	return queryErr(ErrInvalidRequest.ABCICode(), "unknown query path: "+req.Path), nil
}

func viewTournament(t *state.Tournament, nowUnix int64) tournamentView {
	players := make([]string, 0, len(t.Players))
	for i := range t.Players {
		players = append(players, t.Players[i].Addr)
	}
	return tournamentView{
		ID:             t.ID,
		Creator:        t.Creator,
		Asset:          t.Asset,
		EntryFee:       t.EntryFee,
		MaxPlayers:     t.MaxPlayers,
		TopK:           t.TopK,
		CreatedAt:      t.CreatedAt,
		CommitDeadline: t.CommitDeadline,
		RevealDeadline: t.RevealDeadline,
		Phase:          t.Phase(nowUnix),
		Players:        players,
		RevealedCount:  len(t.Revealed),
		PrizePool:      t.PrizePool,
		Finalized:      t.Finalized,
		FinalizedAt:    t.FinalizedAt,
		Winners:        t.Winners,
		PrizeShares:    t.PrizeShares,
	}
}

func registrySlice(registry []uint64, offset, limit uint64) []uint64 {
	if offset >= uint64(len(registry)) {
		return []uint64{}
	}
	end := offset + limit
	if end > uint64(len(registry)) || end < offset {
		end = uint64(len(registry))
	}
	out := make([]uint64, end-offset)
	copy(out, registry[offset:end])
	return out
}

func queryJSON(v any) (*abci.QueryResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return queryErr(ErrInvalidRequest.ABCICode(), err.Error()), nil
	}
	return &abci.QueryResponse{Code: abci.CodeTypeOK, Value: b}, nil
}

func queryErr(code uint32, logMsg string) *abci.QueryResponse {
	return &abci.QueryResponse{Code: code, Codespace: Codespace, Log: logMsg}
}
