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
	"veritas/internal/usecase"
)

type renderOutput struct {
	CertificateID    string `json:"certificate_id"`
	SerialNumber     string `json:"serial_number"`
	VerificationCode string `json:"verification_code"`
	Hash             string `json:"hash"`
	Out              string `json:"out"`
	Persisted        bool   `json:"persisted"`
}

func runRender(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var student, course, templateID, outPath string
	var logoPath, signaturePath, backgroundPath string
	var scale float64
	fs.StringVar(&student, "student", "", "student name")
	fs.StringVar(&course, "course", "", "course name")
	fs.StringVar(&templateID, "template", "", "template id (default standard)")
	fs.Float64Var(&scale, "scale", 1, "render scale")
	fs.StringVar(&logoPath, "logo", "", "logo image file")
	fs.StringVar(&signaturePath, "signature", "", "signature image file")
	fs.StringVar(&backgroundPath, "background", "", "background image file")
	fs.StringVar(&outPath, "out", "", "output PDF path")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if student == "" || course == "" || outPath == "" {
		fmt.Fprintln(stderr, "render requires --student, --course and --out")
		return 1
	}

	assets := &domain.UploadedAssets{}
	for _, a := range []struct {
		path string
		dst  **domain.Asset
	}{
		{logoPath, &assets.Logo},
		{signaturePath, &assets.Signature},
		{backgroundPath, &assets.Background},
	} {
		if a.path == "" {
			continue
		}
		data, err := os.ReadFile(a.path)
		if err != nil {
			fmt.Fprintf(stderr, "read asset: %v\n", err)
			return 1
		}
		*a.dst = &domain.Asset{Data: data}
	}

	ctx := context.Background()
	cfg := config.FromEnv()
	log := cliLogger(cfg)
	svc, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		fmt.Fprintf(stderr, "init: %v\n", err)
		return 1
	}
	defer svc.Close()
	if !svc.Store.Enabled() {
		log.Warn("POSTGRES_DSN is not set; the certificate record is not persisted and will not verify")
	}

	issued, err := svc.Issue.Execute(ctx, usecase.IssueCertificateRequest{
		StudentName: student,
		CourseName:  course,
		TemplateID:  templateID,
		Scale:       scale,
		Assets:      assets,
	})
	if err != nil {
		fmt.Fprintf(stderr, "issue certificate: %v\n", err)
		return 1
	}
	if err := os.WriteFile(outPath, issued.PDF, 0o644); err != nil {
		fmt.Fprintf(stderr, "write pdf: %v\n", err)
		return 1
	}
	if err := writeJSON(stdout, renderOutput{
		CertificateID:    issued.Record.CertificateID,
		SerialNumber:     issued.Record.SerialNumber,
		VerificationCode: issued.Record.VerificationCode,
		Hash:             issued.Record.Hash,
		Out:              outPath,
		Persisted:        svc.Store.Enabled(),
	}); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
