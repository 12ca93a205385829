package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/crimson-sun/churn/internal/model"
)

// Manifest describes a bundle: its version, when it was trained, the
// evaluation summary, and optional sha256 checksums per file.
type Manifest struct {
	Version   string                `yaml:"version"`
	TrainedAt time.Time             `yaml:"trained_at,omitempty"`
	Metrics   model.TrainingMetrics `yaml:"metrics"`
	Checksums map[string]string     `yaml:"checksums,omitempty"`
}

// Checksum returns the hex sha256 of data in the form used by manifests.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
