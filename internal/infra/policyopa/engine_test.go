package policyopa

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"veritas/internal/domain"
)

func TestEngineDeterministic(t *testing.T) {
	engine := newEngine(t)
	input := basePolicyInput()

	first, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate first: %v", err)
	}
	second, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic policy evaluation")
	}
	if !first.Result.Allow || first.Result.Score != 100 || first.Result.Grade != "A+" {
		t.Fatalf("unexpected baseline result %+v", first.Result)
	}
	if len(first.Result.Deny) != 0 {
		t.Fatalf("expected empty deny list, got %+v", first.Result.Deny)
	}
	if first.BundleHash == "" || first.BundleHash != engine.BundleHash() {
		t.Fatalf("expected bundle hash to be set")
	}
}

func TestEngineGrades(t *testing.T) {
	engine := newEngine(t)
	cases := []struct {
		present int
		score   int
		grade   string
	}{
		{6, 100, "A+"},
		{5, 83, "A"},
		{4, 67, "B"},
		{3, 50, "C"},
		{2, 33, "D"},
		{1, 17, "F"},
		{0, 0, "F"},
	}
	for _, tc := range cases {
		input := basePolicyInput()
		input.FeaturesPresent = tc.present
		out, err := engine.Evaluate(context.Background(), input)
		if err != nil {
			t.Fatalf("evaluate %d: %v", tc.present, err)
		}
		if out.Result.Score != tc.score || out.Result.Grade != tc.grade {
			t.Fatalf("%d features: expected %d/%s, got %d/%s", tc.present, tc.score, tc.grade, out.Result.Score, out.Result.Grade)
		}
		if wantAllow := tc.present >= input.MinFeatures; out.Result.Allow != wantAllow {
			t.Fatalf("%d features: expected allow=%t", tc.present, wantAllow)
		}
	}
}

func TestEnginePolicyDenies(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name   string
		mutate func(input *domain.SecurityPolicyInput)
		want   []string
	}{
		{
			name:   "hash mismatch",
			mutate: func(input *domain.SecurityPolicyInput) { input.HashValid = false },
			want:   []string{"HASH_MISMATCH"},
		},
		{
			name:   "record inactive",
			mutate: func(input *domain.SecurityPolicyInput) { input.RecordActive = false },
			want:   []string{"RECORD_INACTIVE"},
		},
		{
			name:   "checksum invalid",
			mutate: func(input *domain.SecurityPolicyInput) { input.ChecksumValid = false },
			want:   []string{"CHECKSUM_INVALID"},
		},
		{
			name: "checksum and features",
			mutate: func(input *domain.SecurityPolicyInput) {
				input.ChecksumValid = false
				input.FeaturesPresent = 3
			},
			want: []string{"CHECKSUM_INVALID", "FEATURES_BELOW_MINIMUM"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			input := basePolicyInput()
			tt.mutate(&input)
			out, err := engine.Evaluate(context.Background(), input)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if out.Result.Allow {
				t.Fatalf("expected deny")
			}
			if !reflect.DeepEqual(tt.want, denyOrder(out.Result.Deny)) {
				t.Fatalf("expected deny codes %v, got %v", tt.want, denyOrder(out.Result.Deny))
			}
		})
	}
}

func TestEngineFromBundlePath(t *testing.T) {
	dir := t.TempDir()
	data, err := defaultBundle.ReadFile("bundle/security.rego")
	if err != nil {
		t.Fatalf("read embedded bundle: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "security.rego"), data, 0o644); err != nil {
		t.Fatalf("write rego: %v", err)
	}
	fromDisk, err := NewEngineFromBundlePath(context.Background(), dir, "disk")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if fromDisk.BundleHash() != newEngine(t).BundleHash() {
		t.Fatalf("expected identical bundles to hash the same")
	}
	if fromDisk.BundleID() != "disk" {
		t.Fatalf("unexpected bundle id %q", fromDisk.BundleID())
	}
}

func TestEngineRejectsEmptyBundle(t *testing.T) {
	if _, err := NewEngineFromBundlePath(context.Background(), t.TempDir(), "empty"); err == nil {
		t.Fatalf("expected error for bundle without modules")
	}
	if _, err := NewEngineFromBundlePath(context.Background(), filepath.Join(t.TempDir(), "missing"), "missing"); err == nil {
		t.Fatalf("expected error for missing bundle")
	}
}

func TestEngineRejectsTimeBuiltin(t *testing.T) {
	rejectBuiltin(t, "time.now_ns()")
}

func TestEngineRejectsHttpSend(t *testing.T) {
	rejectBuiltin(t, "http.send({\"method\": \"get\", \"url\": \"https://example.com\"})")
}

func TestEngineRejectsRand(t *testing.T) {
	rejectBuiltin(t, "rand.intn(\"seed\", 10)")
}

func rejectBuiltin(t *testing.T, expr string) {
	t.Helper()
	dir := t.TempDir()
	regoContent := `package veritas.security
result := {"allow": true, "score": 100, "grade": "A+", "deny": []} {
  ` + expr + `
}`
	if err := os.WriteFile(filepath.Join(dir, "policy.rego"), []byte(regoContent), 0o644); err != nil {
		t.Fatalf("write rego: %v", err)
	}
	if _, err := NewEngineFromBundlePath(context.Background(), dir, "test"); err == nil {
		t.Fatalf("expected builtin to be rejected")
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewDefaultEngine(context.Background())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func basePolicyInput() domain.SecurityPolicyInput {
	return domain.SecurityPolicyInput{
		HashValid:       true,
		RecordActive:    true,
		ChecksumValid:   true,
		FeaturesPresent: domain.SecurityFeatureCount,
		FeaturesTotal:   domain.SecurityFeatureCount,
		MinFeatures:     4,
	}
}

func denyOrder(deny []domain.PolicyDeny) []string {
	out := make([]string, 0, len(deny))
	for _, item := range deny {
		out = append(out, item.Code)
	}
	return out
}
