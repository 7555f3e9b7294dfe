package handler

import (
	"errors"

	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

var (
	ErrUnknownRecipe    = errors.New("unknown recipe")
	ErrUnknownTarget    = errors.New("unknown target")
	ErrOutOfRange       = errors.New("target out of range")
	ErrQuestUnavailable = errors.New("quest unavailable")
	ErrAlreadySpawned   = errors.New("already spawned")
	ErrMaxLevel         = errors.New("already at max level")
)

// codeFor maps a handler or world error onto its wire code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, world.ErrInsufficientItems):
		return protocol.CodeInsufficient
	case errors.Is(err, world.ErrInventoryFull):
		return protocol.CodeInventoryFull
	case errors.Is(err, world.ErrInvalidName):
		return protocol.CodeInvalidName
	case errors.Is(err, world.ErrSlotOutOfRange):
		return protocol.CodeBadRequest
	case errors.Is(err, ErrUnknownRecipe):
		return protocol.CodeUnknownRecipe
	case errors.Is(err, ErrUnknownTarget):
		return protocol.CodeUnknownTarget
	case errors.Is(err, ErrOutOfRange):
		return protocol.CodeOutOfRange
	case errors.Is(err, ErrQuestUnavailable):
		return protocol.CodeQuestUnavailable
	case errors.Is(err, ErrAlreadySpawned):
		return protocol.CodeAlreadySpawned
	case errors.Is(err, ErrMaxLevel):
		return protocol.CodeMaxLevel
	default:
		return protocol.CodeInternal
	}
}

// ReplyError sends err to the originating player only.
func ReplyError(deps *Deps, playerID string, err error) {
	deps.Outbox.Send(playerID, protocol.NewError(codeFor(err), err.Error()))
}

// Notify sends a free-text notification.
func Notify(deps *Deps, playerID, text string) {
	deps.Outbox.Send(playerID, &protocol.Notification{Text: text})
}
