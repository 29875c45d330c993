package workflows

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"veritas/internal/orchestrator/activities"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const ErrTypeInvalidBatch = "InvalidBatch"

// IssueBatchWorkflow issues one certificate per entry. Entry failures are
// collected into the result; only a malformed batch fails the workflow.
func IssueBatchWorkflow(ctx workflow.Context, input BatchInput) (BatchResult, error) {
	if err := validateBatch(input); err != nil {
		return BatchResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidBatch, err)
	}
	logger := workflow.GetLogger(ctx)
	if input.BatchID == "" {
		input.BatchID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}

	activityOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				activities.ErrTypeInvalidInput,
				activities.ErrTypeAlreadyExists,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOpts)

	progress := Progress{Total: len(input.Entries)}
	if err := workflow.SetQueryHandler(ctx, QueryProgress, func() (Progress, error) {
		return progress, nil
	}); err != nil {
		return BatchResult{}, err
	}

	issuedAt := workflow.Now(ctx).UnixMilli()
	concurrency := input.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	result := BatchResult{BatchID: input.BatchID}
	for start := 0; start < len(input.Entries); start += concurrency {
		end := start + concurrency
		if end > len(input.Entries) {
			end = len(input.Entries)
		}
		futures := make([]workflow.Future, 0, end-start)
		for i := start; i < end; i++ {
			act, err := activityInput(ctx, input, i, issuedAt)
			if err != nil {
				return BatchResult{}, err
			}
			futures = append(futures, workflow.ExecuteActivity(ctx, activities.IssueCertificateActivityName, act))
		}
		for j, f := range futures {
			idx := start + j
			entry := input.Entries[idx]
			var out activities.IssueCertificateOutput
			if err := f.Get(ctx, &out); err != nil {
				failed := failure(idx, entry.StudentName, err)
				logger.Warn("batch entry failed", "batch_id", input.BatchID, "index", idx, "reason", failed.Reason)
				result.Failed = append(result.Failed, failed)
				progress.Failed++
				continue
			}
			result.Issued = append(result.Issued, IssuedEntry{
				Index:            idx,
				StudentName:      entry.StudentName,
				CertificateID:    out.CertificateID,
				SerialNumber:     out.SerialNumber,
				VerificationCode: out.VerificationCode,
				Path:             out.Path,
			})
			progress.Completed++
		}
	}

	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Index < result.Failed[j].Index })
	logger.Info("batch finished", "batch_id", input.BatchID, "issued", len(result.Issued), "failed", len(result.Failed))
	return result, nil
}

// activityInput pins the nonce through a side effect so a replay or retry
// rebuilds the same canonical payload.
func activityInput(ctx workflow.Context, input BatchInput, idx int, issuedAt int64) (activities.IssueCertificateInput, error) {
	entry := input.Entries[idx]
	var nonce string
	encoded := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	})
	if err := encoded.Get(&nonce); err != nil {
		return activities.IssueCertificateInput{}, err
	}
	templateID := entry.TemplateID
	if templateID == "" {
		templateID = input.TemplateID
	}
	return activities.IssueCertificateInput{
		BatchID:     input.BatchID,
		Index:       idx,
		StudentName: entry.StudentName,
		CourseName:  entry.CourseName,
		TemplateID:  templateID,
		Scale:       entry.Scale,
		Timestamp:   issuedAt,
		Nonce:       nonce,
	}, nil
}

func failure(idx int, student string, err error) FailedEntry {
	out := FailedEntry{Index: idx, StudentName: student, Reason: err.Error(), Retryable: true}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		out.Reason = appErr.Error()
		out.Retryable = !appErr.NonRetryable() &&
			appErr.Type() != activities.ErrTypeInvalidInput &&
			appErr.Type() != activities.ErrTypeAlreadyExists
	}
	return out
}

func validateBatch(input BatchInput) error {
	if len(input.Entries) == 0 {
		return errors.New("batch has no entries")
	}
	if len(input.Entries) > MaxBatchEntries {
		return fmt.Errorf("batch has %d entries, limit is %d", len(input.Entries), MaxBatchEntries)
	}
	return nil
}
