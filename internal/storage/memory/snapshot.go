package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
)

// snapshot is the on-disk form of the store.
type snapshot struct {
	Global    *model.Global        `json:"global,omitempty"`
	Vaults    []model.Vault        `json:"vaults"`
	Positions []model.UserPosition `json:"positions"`
	Balances  []custody.Entry      `json:"balances"`
	UpdatedAt string               `json:"updated_at"`
}

func loadSnapshot(path string) (state, bool, error) {
	st := newState()

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, false, nil
		}
		return st, false, fmt.Errorf("stat state file: %w", err)
	}
	if stat.IsDir() {
		return st, false, fmt.Errorf("state file path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return st, false, fmt.Errorf("read state file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return st, false, fmt.Errorf("parse state file: %w", err)
	}

	st.global = snap.Global
	for _, v := range snap.Vaults {
		st.vaults[v.VaultCount] = v
	}
	for _, p := range snap.Positions {
		st.positions[p.Key()] = p
	}
	st.balances = custody.BalancesFromEntries(snap.Balances)
	return st, true, nil
}

func saveSnapshot(path string, st state) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	snap := snapshot{
		Global:    st.global,
		Vaults:    make([]model.Vault, 0, len(st.vaults)),
		Positions: make([]model.UserPosition, 0, len(st.positions)),
		Balances:  st.balances.Entries(),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, v := range st.vaults {
		snap.Vaults = append(snap.Vaults, v)
	}
	sort.Slice(snap.Vaults, func(i, j int) bool { return snap.Vaults[i].VaultCount < snap.Vaults[j].VaultCount })
	for _, p := range st.positions {
		snap.Positions = append(snap.Positions, p)
	}
	sort.Slice(snap.Positions, func(i, j int) bool {
		if snap.Positions[i].VaultCount != snap.Positions[j].VaultCount {
			return snap.Positions[i].VaultCount < snap.Positions[j].VaultCount
		}
		return snap.Positions[i].Owner.Hex() < snap.Positions[j].Owner.Hex()
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create state tmp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync state tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close state tmp: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod state tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
