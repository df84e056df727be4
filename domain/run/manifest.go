package run

import (
	"time"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

// RunManifest records everything needed to replay a Monte Carlo run
type RunManifest struct {
	RunID       core.RunID           `json:"run_id"`
	Kind        Kind                 `json:"kind"`
	Config      oracle.Config        `json:"config"`
	Appeal      *AppealPlan          `json:"appeal,omitempty"`
	Runs        int                  `json:"runs"`
	Seed        int64                `json:"seed"`
	Workers     int                  `json:"workers"`
	CodeVersion string               `json:"code_version"`
	Fingerprint RunFingerprint       `json:"fingerprint"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NewRunManifest creates a manifest for a run about to start
func NewRunManifest(cfg oracle.Config, appeal *AppealPlan, runs int, seed int64, workers int, codeVersion string) *RunManifest {
	kind := KindRounds
	if appeal != nil {
		kind = KindAppeals
	}

	return &RunManifest{
		RunID:       core.NewRunID(),
		Kind:        kind,
		Config:      cfg,
		Appeal:      appeal,
		Runs:        runs,
		Seed:        seed,
		Workers:     workers,
		CodeVersion: codeVersion,
		Fingerprint: NewRunFingerprint(cfg, appeal, runs, seed, codeVersion),
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if r.Runs < 1 {
		return core.NewValidationError("run_manifest", "runs must be positive")
	}
	if r.Workers < 1 {
		return core.NewValidationError("run_manifest", "workers must be positive")
	}
	if r.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if r.Appeal != nil {
		return r.Appeal.ValidateFor(r.Config.NumJurors)
	}
	return nil
}
