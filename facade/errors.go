package facade

import "errors"

// ErrUnknownPrefab is returned by PrefabRegistry.Spawn for an
// unregistered prefab name.
var ErrUnknownPrefab = errors.New("facade: unknown prefab")

// ErrNoAuthority reports that no authority has been elected yet, e.g.
// before any client has connected. No function in this package returns
// it: Broadcaster.Broadcast does not check the election.
var ErrNoAuthority = errors.New("facade: no elected authority")
