package run

import (
	"errors"
	"testing"

	"oraclesim/domain/core"
	"oraclesim/domain/oracle"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	cfg := oracle.DefaultConfig()
	appeal := &AppealPlan{AppealConfig: oracle.AppealConfig{AppealProb: 0.4, MaxAppeals: 3}}

	fp1 := NewRunFingerprint(cfg, appeal, 500, 42, "1.0.0")
	fp2 := NewRunFingerprint(cfg, appeal, 500, 42, "1.0.0")

	if !fp1.Matches(fp2) {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 {
		t.Errorf("Seed mismatch: %d vs %d", fp1.Seed, 42)
	}
	if fp1.CodeVersion != "1.0.0" {
		t.Errorf("CodeVersion mismatch: %s", fp1.CodeVersion)
	}
	if fp1.AppealHash.IsEmpty() {
		t.Error("AppealHash should be set for appeal runs")
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	cfg := oracle.DefaultConfig()
	appeal := &AppealPlan{AppealConfig: oracle.AppealConfig{AppealProb: 0.4, MaxAppeals: 3}}
	base := NewRunFingerprint(cfg, appeal, 500, 42, "1.0.0")

	attacked := cfg.WithAttack(true)
	otherAppeal := &AppealPlan{AppealConfig: oracle.AppealConfig{AppealProb: 0.5, MaxAppeals: 3}}
	allLevels := &AppealPlan{AppealConfig: appeal.AppealConfig, RecordAllLevels: true}

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different config", NewRunFingerprint(attacked, appeal, 500, 42, "1.0.0")},
		{"different appeal", NewRunFingerprint(cfg, otherAppeal, 500, 42, "1.0.0")},
		{"all levels recorded", NewRunFingerprint(cfg, allLevels, 500, 42, "1.0.0")},
		{"no appeal", NewRunFingerprint(cfg, nil, 500, 42, "1.0.0")},
		{"different runs", NewRunFingerprint(cfg, appeal, 501, 42, "1.0.0")},
		{"different seed", NewRunFingerprint(cfg, appeal, 500, 43, "1.0.0")},
		{"different code version", NewRunFingerprint(cfg, appeal, 500, 42, "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Matches(base) {
				t.Errorf("Fingerprint should differ for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Validate(t *testing.T) {
	m := NewRunManifest(oracle.DefaultConfig(), nil, 100, 7, 4, "1.0.0")
	if err := m.Validate(); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}
	if m.Kind != KindRounds {
		t.Errorf("Kind = %s, want %s", m.Kind, KindRounds)
	}

	appeal := &AppealPlan{AppealConfig: oracle.AppealConfig{AppealProb: 0.5, MaxAppeals: 2}}
	if k := NewRunManifest(oracle.DefaultConfig(), appeal, 100, 7, 4, "1.0.0").Kind; k != KindAppeals {
		t.Errorf("Kind = %s, want %s", k, KindAppeals)
	}

	broken := *m
	broken.CodeVersion = ""
	if err := broken.Validate(); !core.IsValidationError(err) {
		t.Errorf("expected validation error for empty code version, got %v", err)
	}

	broken = *m
	broken.Workers = 0
	if err := broken.Validate(); !core.IsValidationError(err) {
		t.Errorf("expected validation error for zero workers, got %v", err)
	}

	deep := NewRunManifest(oracle.DefaultConfig(), &AppealPlan{AppealConfig: oracle.AppealConfig{MaxAppeals: 1 << 40}}, 100, 7, 4, "1.0.0")
	if err := deep.Validate(); !errors.Is(err, core.ErrInvalidAppealSettings) {
		t.Errorf("expected appeal settings error for unbounded depth, got %v", err)
	}

	broken = *m
	broken.Config.NumJurors = 0
	if err := broken.Validate(); !core.IsValidationError(err) {
		t.Errorf("expected validation error for empty panel, got %v", err)
	}
}
