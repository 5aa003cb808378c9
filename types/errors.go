package types

import "github.com/rotisserie/eris"

var (
	ErrEntityMissing            = eris.New("entity does not exist")
	ErrNoMatchingComponent      = eris.New("no matching component")
	ErrChannelExclusivelyLocked = eris.New("component channel is exclusively locked")
	ErrDuplicateSystemName      = eris.New("duplicate system name")
)
