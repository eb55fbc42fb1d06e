package policy_test

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/aretw0/titrate/pkg/ports"
)

func TestFileSource_Contract(t *testing.T) {
	src := policy.NewFileSource(filepath.Join("testdata", "policy.json"))
	ports.RunPolicySourceContract(t, src, policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(45),
		HypotensionSystolic:   domain.Float(85),
		HyperkalemiaPotassium: domain.Float(6.0),
	})
}

func TestLoad_ShippedExample(t *testing.T) {
	p, err := policy.Load(filepath.Join("..", "..", "examples", "policy.yaml"))
	if err != nil {
		t.Fatalf("example policy does not load: %v", err)
	}
	if !p.RenalEnabled() {
		t.Error("example policy should enable the renal check")
	}
}
