package run

import (
	"crypto/sha256"
	"fmt"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

// Kind distinguishes plain round runs from appeal chain runs
type Kind string

const (
	KindRounds  Kind = "rounds"
	KindAppeals Kind = "appeals"
)

// AppealPlan is the appeal part of a run: escalation settings plus which levels the aggregate records
type AppealPlan struct {
	oracle.AppealConfig
	RecordAllLevels bool `json:"record_all_levels"`
}

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	ConfigHash  core.Hash `json:"config_hash"`
	AppealHash  core.Hash `json:"appeal_hash,omitempty"`
	Runs        int       `json:"runs"`
	Seed        int64     `json:"seed"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters.
// appeal is nil for plain round runs.
func NewRunFingerprint(cfg oracle.Config, appeal *AppealPlan, runs int, seed int64, codeVersion string) RunFingerprint {
	configHash := core.ComputeParameterHash(cfg.Params())

	var appealHash core.Hash
	if appeal != nil {
		appealHash = core.ComputeParameterHash(map[string]interface{}{
			"appeal_prob":       appeal.AppealProb,
			"max_appeals":       appeal.MaxAppeals,
			"record_all_levels": appeal.RecordAllLevels,
		})
	}

	return RunFingerprint{
		ConfigHash:  configHash,
		AppealHash:  appealHash,
		Runs:        runs,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(configHash, appealHash, runs, seed, codeVersion),
	}
}

// Matches reports whether two fingerprints describe the same replayable run
func (f RunFingerprint) Matches(other RunFingerprint) bool {
	return f.Fingerprint.Equals(other.Fingerprint)
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(configHash, appealHash core.Hash, runs int, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("config:%s|appeal:%s|runs:%d|seed:%d|code:%s",
		configHash, appealHash, runs, seed, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
