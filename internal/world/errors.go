package world

import "errors"

var (
	ErrInsufficientItems = errors.New("insufficient items")
	ErrInventoryFull     = errors.New("inventory full")
	ErrSlotOutOfRange    = errors.New("slot out of range")
	ErrInvalidName       = errors.New("invalid name")
)
