package memory

import (
	"elementalVault/internal/custody"
	"elementalVault/internal/model"
)

type state struct {
	global    *model.Global
	vaults    map[uint64]model.Vault
	positions map[model.PositionKey]model.UserPosition
	balances  custody.Balances
}

func newState() state {
	return state{
		vaults:    make(map[uint64]model.Vault),
		positions: make(map[model.PositionKey]model.UserPosition),
		balances:  make(custody.Balances),
	}
}

func (s state) clone() state {
	out := state{
		vaults:    make(map[uint64]model.Vault, len(s.vaults)),
		positions: make(map[model.PositionKey]model.UserPosition, len(s.positions)),
		balances:  s.balances.Clone(),
	}
	if s.global != nil {
		g := *s.global
		out.global = &g
	}
	for k, v := range s.vaults {
		out.vaults[k] = v
	}
	for k, v := range s.positions {
		out.positions[k] = v
	}
	return out
}
