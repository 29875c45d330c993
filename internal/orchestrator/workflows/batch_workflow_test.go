package workflows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"veritas/internal/orchestrator/activities"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

type recordingIssuer struct {
	mu       sync.Mutex
	attempts map[string]int
	inputs   []activities.IssueCertificateInput
}

func (r *recordingIssuer) issue(_ context.Context, input activities.IssueCertificateInput) (activities.IssueCertificateOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[input.StudentName]++
	r.inputs = append(r.inputs, input)
	switch input.StudentName {
	case "":
		return activities.IssueCertificateOutput{}, temporal.NewNonRetryableApplicationError("invalid input: student name is required", activities.ErrTypeInvalidInput, nil)
	case "Flaky":
		if r.attempts[input.StudentName] < 3 {
			return activities.IssueCertificateOutput{}, errors.New("certificate store unavailable")
		}
	case "Down":
		return activities.IssueCertificateOutput{}, errors.New("certificate store unavailable")
	}
	return activities.IssueCertificateOutput{
		CertificateID: fmt.Sprintf("CERT-%04d", input.Index),
		SerialNumber:  fmt.Sprintf("SN-%04d", input.Index),
	}, nil
}

func newEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *recordingIssuer) {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	issuer := &recordingIssuer{attempts: map[string]int{}}
	env.RegisterActivityWithOptions(issuer.issue, activity.RegisterOptions{Name: activities.IssueCertificateActivityName})
	return env, issuer
}

func TestIssueBatchWorkflowCollectsResults(t *testing.T) {
	env, issuer := newEnv(t)
	input := BatchInput{
		BatchID:     "batch-1",
		TemplateID:  "modern",
		Concurrency: 2,
		Entries: []BatchEntry{
			{StudentName: "Ada", CourseName: "Go"},
			{StudentName: "", CourseName: "Go"},
			{StudentName: "Flaky", CourseName: "Go", TemplateID: "classic"},
			{StudentName: "Grace", CourseName: "Go"},
		},
	}
	env.ExecuteWorkflow(IssueBatchWorkflow, input)
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var result BatchResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Issued) != 3 || len(result.Failed) != 1 {
		t.Fatalf("expected 3 issued and 1 failed, got %+v", result)
	}
	if result.Failed[0].Index != 1 || result.Failed[0].Retryable {
		t.Fatalf("expected non-retryable failure for entry 1, got %+v", result.Failed[0])
	}
	if issuer.attempts[""] != 1 {
		t.Fatalf("input errors must not be retried, got %d attempts", issuer.attempts[""])
	}
	if issuer.attempts["Flaky"] != 3 {
		t.Fatalf("expected transient failure to be retried, got %d attempts", issuer.attempts["Flaky"])
	}

	nonces := map[string]bool{}
	for _, in := range issuer.inputs {
		if in.StudentName == "Flaky" {
			if in.TemplateID != "classic" {
				t.Fatalf("entry template must win, got %s", in.TemplateID)
			}
		} else if in.TemplateID != "modern" {
			t.Fatalf("batch template expected, got %s", in.TemplateID)
		}
		if in.Timestamp == 0 || len(in.Nonce) != 32 {
			t.Fatalf("timestamp and nonce must be pinned: %+v", in)
		}
		nonces[in.StudentName+"|"+in.Nonce] = true
	}
	if len(nonces) != 4 {
		t.Fatalf("retries must reuse the pinned nonce, got %v", nonces)
	}
}

func TestIssueBatchWorkflowReportsExhaustedRetries(t *testing.T) {
	env, issuer := newEnv(t)
	env.ExecuteWorkflow(IssueBatchWorkflow, BatchInput{
		BatchID: "batch-2",
		Entries: []BatchEntry{{StudentName: "Down", CourseName: "Go"}},
	})
	var result BatchResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Failed) != 1 || !result.Failed[0].Retryable {
		t.Fatalf("expected one retryable failure, got %+v", result.Failed)
	}
	if issuer.attempts["Down"] != 5 {
		t.Fatalf("expected 5 attempts, got %d", issuer.attempts["Down"])
	}
}

func TestIssueBatchWorkflowRejectsEmptyBatch(t *testing.T) {
	env, _ := newEnv(t)
	env.ExecuteWorkflow(IssueBatchWorkflow, BatchInput{BatchID: "empty"})
	err := env.GetWorkflowError()
	if err == nil {
		t.Fatalf("expected empty batch to fail")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != ErrTypeInvalidBatch {
		t.Fatalf("expected %s application error, got %v", ErrTypeInvalidBatch, err)
	}
}

func TestWorkflowID(t *testing.T) {
	if got := WorkflowID("spring-2024"); got != "certificate-batch:spring-2024" {
		t.Fatalf("unexpected workflow id %s", got)
	}
}
