package model

// Global is the process-wide registry of created vaults.
type Global struct {
	VaultCounter uint64 `json:"vault_counter"`
}
