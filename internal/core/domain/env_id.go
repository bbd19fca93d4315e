package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// GenerateEnvID creates a deterministic hash from a tools map.
// It identifies the tool set an environment was built with, both for the
// tool environment cache and for the venv state marker.
func GenerateEnvID(tools map[string]string) string {
	// Sort keys for deterministic ordering
	aliases := make([]string, 0, len(tools))
	for alias := range tools {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)

	var builder strings.Builder
	for _, alias := range aliases {
		builder.WriteString(alias)
		builder.WriteString(":")
		builder.WriteString(tools[alias])
		builder.WriteString(";")
	}

	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}
