package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"veritas/internal/app"
	"veritas/internal/config"
	"veritas/internal/domain"
	"veritas/internal/infra/crypto"
	"veritas/internal/infra/pdftext"
	"veritas/internal/infra/render"
)

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var inPath string
	var security bool
	fs.StringVar(&inPath, "in", "", "certificate PDF")
	fs.BoolVar(&security, "security", false, "grade embedded security features")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(stderr, "verify requires --in")
		return 1
	}
	doc, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(stderr, "read document: %v\n", err)
		return 1
	}

	ctx := context.Background()
	cfg := config.FromEnv()
	svc, err := app.Build(ctx, cfg, cliLogger(cfg), nil)
	if err != nil {
		fmt.Fprintf(stderr, "init: %v\n", err)
		return 1
	}
	defer svc.Close()

	var (
		out   any
		valid bool
	)
	if security {
		res, err := svc.Security.Execute(ctx, doc)
		if err != nil {
			fmt.Fprintf(stderr, "verify security: %v\n", err)
			return 1
		}
		out, valid = res, res.Valid
	} else {
		res, err := svc.Verify.Execute(ctx, doc)
		if err != nil {
			fmt.Fprintf(stderr, "verify: %v\n", err)
			return 1
		}
		out, valid = res, res.Valid
	}
	if err := writeJSON(stdout, out); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	if valid {
		return 0
	}
	return 1
}

type inspectOutput struct {
	Metadata       *domain.EmbeddedMetadata `json:"metadata"`
	RecomputedHash string                   `json:"recomputed_hash"`
	HashMatches    bool                     `json:"hash_matches"`
	IDMatches      bool                     `json:"certificate_id_matches"`
}

// runInspect reads the embedded metadata without consulting any store.
func runInspect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var inPath string
	fs.StringVar(&inPath, "in", "", "certificate PDF")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(stderr, "inspect requires --in")
		return 1
	}
	doc, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(stderr, "read document: %v\n", err)
		return 1
	}

	text, err := pdftext.New(cliLogger(config.FromEnv())).Text(doc)
	if err != nil {
		fmt.Fprintf(stderr, "extract text: %v\n", err)
		return 1
	}
	meta, ok := render.NewEmbedder().Extract(text)
	if !ok {
		fmt.Fprintln(stderr, "no embedded certificate metadata found")
		return 1
	}
	out := inspectOutput{Metadata: meta}
	if meta.CanonicalJSON != "" {
		out.RecomputedHash = crypto.HashCanonical(meta.CanonicalJSON)
		out.HashMatches = out.RecomputedHash == meta.Hash
		if id, err := crypto.CertificateID(out.RecomputedHash, meta.Timestamp); err == nil {
			out.IDMatches = id == meta.CertificateID
		}
	}
	if err := writeJSON(stdout, out); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	if out.HashMatches {
		return 0
	}
	return 1
}
