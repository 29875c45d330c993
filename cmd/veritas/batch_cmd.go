package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"veritas/internal/config"
	"veritas/internal/orchestrator/workflows"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

type batchStarted struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Entries    int    `json:"entries"`
}

// runBatch submits already-parsed entries to the batch worker.
func runBatch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var inPath, batchID, templateID string
	var concurrency int
	var wait bool
	fs.StringVar(&inPath, "in", "", "JSON array of {student_name, course_name, template_id, scale}")
	fs.StringVar(&batchID, "batch-id", "", "batch id (default random)")
	fs.StringVar(&templateID, "template", "", "template for entries without one")
	fs.IntVar(&concurrency, "concurrency", workflows.DefaultConcurrency, "certificates issued in parallel")
	fs.BoolVar(&wait, "wait", false, "wait for the batch to finish and print the result")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(stderr, "batch requires --in")
		return 1
	}
	entries, err := readBatchEntries(inPath)
	if err != nil {
		fmt.Fprintf(stderr, "read entries: %v\n", err)
		return 1
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}

	cfg := config.FromEnv()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace})
	if err != nil {
		fmt.Fprintf(stderr, "connect temporal: %v\n", err)
		return 1
	}
	defer c.Close()

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(batchID),
		TaskQueue: cfg.TaskQueue,
	}, workflows.IssueBatchWorkflow, workflows.BatchInput{
		BatchID:     batchID,
		TemplateID:  templateID,
		Entries:     entries,
		Concurrency: concurrency,
	})
	if err != nil {
		fmt.Fprintf(stderr, "start batch: %v\n", err)
		return 1
	}
	if !wait {
		_ = writeJSON(stdout, batchStarted{WorkflowID: run.GetID(), RunID: run.GetRunID(), Entries: len(entries)})
		return 0
	}
	var result workflows.BatchResult
	if err := run.Get(ctx, &result); err != nil {
		fmt.Fprintf(stderr, "batch failed: %v\n", err)
		return 1
	}
	if err := writeJSON(stdout, result); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	if len(result.Failed) > 0 {
		return 1
	}
	return 0
}

type batchEntryJSON struct {
	StudentName string  `json:"student_name"`
	CourseName  string  `json:"course_name"`
	TemplateID  string  `json:"template_id"`
	Scale       float64 `json:"scale"`
}

func readBatchEntries(path string) ([]workflows.BatchEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in []batchEntryJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(in) == 0 {
		return nil, fmt.Errorf("%s has no entries", path)
	}
	out := make([]workflows.BatchEntry, len(in))
	for i, e := range in {
		out[i] = workflows.BatchEntry{
			StudentName: e.StudentName,
			CourseName:  e.CourseName,
			TemplateID:  e.TemplateID,
			Scale:       e.Scale,
		}
	}
	return out, nil
}
