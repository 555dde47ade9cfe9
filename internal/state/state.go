package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type State struct {
	Height        int64 `json:"height"`
	LastBlockTime int64 `json:"lastBlockTime,omitempty"` // unix seconds of the last finalized block

	// Governance (factory + badge issuer owner).
	Owner       string `json:"owner,omitempty"`
	MinEntryFee uint64 `json:"minEntryFee"`

	Assets      map[string]*Asset `json:"assets"`
	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce (u64), for replay protection

	NextTournamentID uint64                 `json:"nextTournamentId"`
	Tournaments      map[uint64]*Tournament `json:"tournaments"`
	// Registry is the append-only creation-ordered index of tournament ids.
	// Enumeration is paged; the registry itself only ever grows.
	Registry []uint64 `json:"registry,omitempty"`

	NextBadgeID uint64            `json:"nextBadgeId"`
	Badges      map[uint64]*Badge `json:"badges,omitempty"`
	// BadgeByPair maps "<winner>|<tournamentId>" to the minted token id. A
	// pair entry is permanent: badge transfers never free it.
	BadgeByPair map[string]uint64 `json:"badgeByPair,omitempty"`
}

const DefaultMinEntryFee uint64 = 1

func NewState() *State {
	return &State{
		Height:           0,
		MinEntryFee:      DefaultMinEntryFee,
		Assets:           map[string]*Asset{},
		AccountKeys:      map[string][]byte{},
		NonceMax:         map[string]uint64{},
		NextTournamentID: 1,
		Tournaments:      map[uint64]*Tournament{},
		NextBadgeID:      1,
		Badges:           map[uint64]*Badge{},
		BadgeByPair:      map[string]uint64{},
	}
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (s *State) normalize() {
	if s.MinEntryFee == 0 {
		s.MinEntryFee = DefaultMinEntryFee
	}
	if s.Assets == nil {
		s.Assets = map[string]*Asset{}
	}
	for _, a := range s.Assets {
		a.normalize()
	}
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.NextTournamentID == 0 {
		s.NextTournamentID = 1
	}
	if s.Tournaments == nil {
		s.Tournaments = map[uint64]*Tournament{}
	}
	for _, t := range s.Tournaments {
		t.normalize()
	}
	if s.NextBadgeID == 0 {
		s.NextBadgeID = 1
	}
	if s.Badges == nil {
		s.Badges = map[uint64]*Badge{}
	}
	if s.BadgeByPair == nil {
		s.BadgeByPair = map[string]uint64{}
	}
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash: marshal with stable key ordering by serializing
	// a normalized view.
	//
	// encoding/json sorts map keys when marshaling maps, but we keep the
	// explicit normalization for the top-level maps so the hashed layout is
	// independent of struct evolution around them.
	type assetKV struct {
		Denom string `json:"denom"`
		Asset *Asset `json:"asset"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type tournamentKV struct {
		ID         uint64      `json:"id"`
		Tournament *Tournament `json:"tournament"`
	}
	type badgeKV struct {
		TokenID uint64 `json:"tokenId"`
		Badge   *Badge `json:"badge"`
	}

	assets := make([]assetKV, 0, len(s.Assets))
	for d, a := range s.Assets {
		assets = append(assets, assetKV{Denom: d, Asset: a})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Denom < assets[j].Denom })

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	tournaments := make([]tournamentKV, 0, len(s.Tournaments))
	for id, t := range s.Tournaments {
		tournaments = append(tournaments, tournamentKV{ID: id, Tournament: t})
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })

	badges := make([]badgeKV, 0, len(s.Badges))
	for id, b := range s.Badges {
		badges = append(badges, badgeKV{TokenID: id, Badge: b})
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].TokenID < badges[j].TokenID })

	normalized := struct {
		Height           int64          `json:"height"`
		LastBlockTime    int64          `json:"lastBlockTime"`
		Owner            string         `json:"owner"`
		MinEntryFee      uint64         `json:"minEntryFee"`
		Assets           []assetKV      `json:"assets"`
		AccountKeys      []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax         []nonceKV      `json:"nonceMax,omitempty"`
		NextTournamentID uint64         `json:"nextTournamentId"`
		Tournaments      []tournamentKV `json:"tournaments"`
		Registry         []uint64       `json:"registry,omitempty"`
		NextBadgeID      uint64         `json:"nextBadgeId"`
		Badges           []badgeKV      `json:"badges,omitempty"`
	}{
		Height:           s.Height,
		LastBlockTime:    s.LastBlockTime,
		Owner:            s.Owner,
		MinEntryFee:      s.MinEntryFee,
		Assets:           assets,
		AccountKeys:      accountKeys,
		NonceMax:         nonces,
		NextTournamentID: s.NextTournamentID,
		Tournaments:      tournaments,
		Registry:         s.Registry,
		NextBadgeID:      s.NextBadgeID,
		Badges:           badges,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

// Asset is one fungible denomination: balances plus ERC-20 style allowances.
type Asset struct {
	Balances   map[string]uint64            `json:"balances"`
	Allowances map[string]map[string]uint64 `json:"allowances,omitempty"` // owner -> spender -> amount
}

func (a *Asset) normalize() {
	if a.Balances == nil {
		a.Balances = map[string]uint64{}
	}
	if a.Allowances == nil {
		a.Allowances = map[string]map[string]uint64{}
	}
}

// AssetExists reports whether the denom has been registered (first mint).
func (s *State) AssetExists(denom string) bool {
	_, ok := s.Assets[denom]
	return ok
}

func (s *State) asset(denom string) (*Asset, error) {
	a, ok := s.Assets[denom]
	if !ok {
		return nil, fmt.Errorf("unknown asset %q", denom)
	}
	return a, nil
}

// EnsureAsset registers a denom on first use (mint path only).
func (s *State) EnsureAsset(denom string) *Asset {
	a, ok := s.Assets[denom]
	if !ok {
		a = &Asset{Balances: map[string]uint64{}, Allowances: map[string]map[string]uint64{}}
		s.Assets[denom] = a
	}
	return a
}

func (s *State) Balance(denom, addr string) uint64 {
	a, ok := s.Assets[denom]
	if !ok {
		return 0
	}
	return a.Balances[addr]
}

func (s *State) Credit(denom, addr string, amount uint64) error {
	a, err := s.asset(denom)
	if err != nil {
		return err
	}
	bal := a.Balances[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	a.Balances[addr] = bal + amount
	return nil
}

func (s *State) Debit(denom, addr string, amount uint64) error {
	a, err := s.asset(denom)
	if err != nil {
		return err
	}
	bal := a.Balances[addr]
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	a.Balances[addr] = bal - amount
	return nil
}

func (s *State) Allowance(denom, owner, spender string) uint64 {
	a, ok := s.Assets[denom]
	if !ok {
		return 0
	}
	return a.Allowances[owner][spender]
}

func (s *State) Approve(denom, owner, spender string, amount uint64) error {
	a, err := s.asset(denom)
	if err != nil {
		return err
	}
	m := a.Allowances[owner]
	if m == nil {
		m = map[string]uint64{}
		a.Allowances[owner] = m
	}
	if amount == 0 {
		delete(m, spender)
		if len(m) == 0 {
			delete(a.Allowances, owner)
		}
		return nil
	}
	m[spender] = amount
	return nil
}

// TransferFrom pulls amount from owner to dst on behalf of spender,
// consuming allowance. Mirrors ERC-20 transferFrom.
func (s *State) TransferFrom(denom, owner, spender, dst string, amount uint64) error {
	allowed := s.Allowance(denom, owner, spender)
	if allowed < amount {
		return fmt.Errorf("insufficient allowance: have=%d need=%d", allowed, amount)
	}
	if err := s.Debit(denom, owner, amount); err != nil {
		return err
	}
	if err := s.Credit(denom, dst, amount); err != nil {
		return err
	}
	return s.Approve(denom, owner, spender, allowed-amount)
}

// Transfer pushes amount from src to dst. Mirrors ERC-20 transfer.
func (s *State) Transfer(denom, src, dst string, amount uint64) error {
	if err := s.Debit(denom, src, amount); err != nil {
		return err
	}
	return s.Credit(denom, dst, amount)
}

// ---- Tournament ----

type Phase string

const (
	// PhaseCommit covers registration + commitment submission; the original
	// UI's "open" phase collapses into it because the commit window starts
	// at creation.
	PhaseCommit    Phase = "commit"
	PhaseReveal    Phase = "reveal"
	PhaseEnded     Phase = "ended" // reveal window over, finalize pending
	PhaseFinalized Phase = "finalized"
)

// Player is one registered participant with the commitment submitted at
// registration. Slice order is registration order and is the ranking
// tie-break.
type Player struct {
	Addr       string `json:"addr"`
	Commitment string `json:"commitment"` // 0x-prefixed keccak256 hash
}

type Tournament struct {
	ID       uint64 `json:"id"`
	Creator  string `json:"creator"`
	Asset    string `json:"asset"`
	EntryFee uint64 `json:"entryFee"`

	MaxPlayers uint32 `json:"maxPlayers"`
	TopK       uint32 `json:"topK"`

	CreatedAt      int64 `json:"createdAt"`      // unix seconds
	CommitDeadline int64 `json:"commitDeadline"` // registration+commit cutoff
	RevealDeadline int64 `json:"revealDeadline"`

	Players []Player `json:"players,omitempty"`

	Revealed map[string]uint64 `json:"revealed,omitempty"` // addr -> score

	Finalized   bool              `json:"finalized"`
	FinalizedAt int64             `json:"finalizedAt,omitempty"`
	Winners     []string          `json:"winners,omitempty"` // rank order
	PrizeShares map[string]uint64 `json:"prizeShares,omitempty"`
	Claimed     map[string]bool   `json:"claimed,omitempty"`

	PrizePool uint64 `json:"prizePool"`
}

func (t *Tournament) normalize() {
	if t.Revealed == nil {
		t.Revealed = map[string]uint64{}
	}
	if t.PrizeShares == nil {
		t.PrizeShares = map[string]uint64{}
	}
	if t.Claimed == nil {
		t.Claimed = map[string]bool{}
	}
}

// Phase derives the lifecycle phase from wall-clock time; the finalized flag
// short-circuits regardless of time once set.
func (t *Tournament) Phase(nowUnix int64) Phase {
	if t.Finalized {
		return PhaseFinalized
	}
	if nowUnix <= t.CommitDeadline {
		return PhaseCommit
	}
	if nowUnix <= t.RevealDeadline {
		return PhaseReveal
	}
	return PhaseEnded
}

func (t *Tournament) IsPlayer(addr string) bool {
	for i := range t.Players {
		if t.Players[i].Addr == addr {
			return true
		}
	}
	return false
}

// CommitmentOf returns the stored commitment for addr, or "" if not registered.
func (t *Tournament) CommitmentOf(addr string) string {
	for i := range t.Players {
		if t.Players[i].Addr == addr {
			return t.Players[i].Commitment
		}
	}
	return ""
}

// EscrowAddr is the module account holding the tournament's prize pool.
func EscrowAddr(tournamentID uint64) string {
	return fmt.Sprintf("tournament/%d/escrow", tournamentID)
}

// ---- Badges ----

// Badge is a unique, transferable achievement token. At most one badge is
// ever minted per (winner, tournament) pair.
type Badge struct {
	TokenID      uint64 `json:"tokenId"`
	Owner        string `json:"owner"`
	Winner       string `json:"winner"` // original recipient; fixed at mint
	TournamentID uint64 `json:"tournamentId"`
	URI          string `json:"uri,omitempty"`
}

// BadgePairKey keys the mint-uniqueness index.
func BadgePairKey(winner string, tournamentID uint64) string {
	return fmt.Sprintf("%s|%d", winner, tournamentID)
}
