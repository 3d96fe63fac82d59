package service

import "errors"

var (
	ErrNoHintsAvailable   = errors.New("no more hints available for this puzzle")
	ErrInvalidItemGrant   = errors.New("item grant requires a positive quantity")
	ErrUnknownMissionStep = errors.New("mission has no such step")
)
