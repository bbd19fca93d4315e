package domain

import "time"

// EnvState is the lifecycle state recorded in the venv state marker.
type EnvState string

const (
	// StateCreating indicates the venv directory exists but creation has not finished.
	StateCreating EnvState = "creating"
	// StateInstalling indicates the manifest install is running or was interrupted.
	// A marker left in this state means the environment is partially populated.
	StateInstalling EnvState = "installing"
	// StateReady indicates the environment was fully bootstrapped.
	StateReady EnvState = "ready"
)

// Marker is the state marker persisted inside the venv directory.
// It makes an incomplete environment distinguishable from a usable one:
// anything other than StateReady requires a full re-run.
type Marker struct {
	State EnvState `json:"state"`

	// EnvID identifies the tool set the environment was built with.
	EnvID string `json:"env_id"`

	// ManifestHash is the xxhash of the manifest contents at install time.
	// Only set once State is StateReady.
	ManifestHash string `json:"manifest_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the marker describes a fully bootstrapped environment.
func (m *Marker) Usable() bool {
	return m != nil && m.State == StateReady
}

// Fresh reports whether the environment matches the given tool set and manifest hash.
func (m *Marker) Fresh(envID, manifestHash string) bool {
	return m.Usable() && m.EnvID == envID && m.ManifestHash == manifestHash
}
