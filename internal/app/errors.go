package app

import errorsmod "cosmossdk.io/errors"

const Codespace = "ludimint"

// Sentinel errors. Reason strings stay stable: clients match on them.
// Grouping by code band: 1 decode, 2-9 validation, 10-19 phase,
// 20-29 uniqueness/authorization, 30-39 transfer.
var (
	ErrTxDecode       = errorsmod.Register(Codespace, 1, "tx decode error")
	ErrInvalidRequest = errorsmod.Register(Codespace, 2, "invalid request")

	ErrEntryFeeTooLow    = errorsmod.Register(Codespace, 3, "factory: entry fee too low")
	ErrInvalidMaxPlayers = errorsmod.Register(Codespace, 4, "factory: invalid max players")
	ErrInvalidTopK       = errorsmod.Register(Codespace, 5, "factory: invalid top k")
	ErrInvalidAsset      = errorsmod.Register(Codespace, 6, "factory: invalid asset")
	ErrInvalidDuration   = errorsmod.Register(Codespace, 7, "factory: invalid duration")
	ErrInvalidCommitment = errorsmod.Register(Codespace, 8, "tournament: invalid commitment")
	ErrNotFound          = errorsmod.Register(Codespace, 9, "not found")

	ErrRegistrationClosed = errorsmod.Register(Codespace, 10, "tournament: commit phase ended")
	ErrRevealWindowClosed = errorsmod.Register(Codespace, 11, "tournament: reveal window closed")
	ErrRevealNotEnded     = errorsmod.Register(Codespace, 12, "tournament: reveal phase not ended")
	ErrNotFinalized       = errorsmod.Register(Codespace, 13, "tournament: not finalized")
	ErrAlreadyFinalized   = errorsmod.Register(Codespace, 14, "tournament: already finalized")

	ErrAlreadyRegistered         = errorsmod.Register(Codespace, 20, "tournament: already registered")
	ErrTournamentFull            = errorsmod.Register(Codespace, 21, "tournament: tournament full")
	ErrNotRegistered             = errorsmod.Register(Codespace, 22, "tournament: not registered")
	ErrAlreadyRevealed           = errorsmod.Register(Codespace, 23, "tournament: already revealed")
	ErrCommitMismatch            = errorsmod.Register(Codespace, 24, "tournament: commit mismatch")
	ErrNotWinnerOrAlreadyClaimed = errorsmod.Register(Codespace, 25, "tournament: not a winner or already claimed")
	ErrBadgeAlreadyMinted        = errorsmod.Register(Codespace, 26, "badge: already minted")
	ErrUnauthorized              = errorsmod.Register(Codespace, 27, "unauthorized")

	ErrTransferFailed = errorsmod.Register(Codespace, 30, "transfer failed")
)
