package main

import (
	"flag"
	"fmt"
	"io"

	"veritas/internal/infra/crypto"
)

type hashOutput struct {
	CanonicalJSON string `json:"canonical_json"`
	Hash          string `json:"hash"`
	CertificateID string `json:"certificate_id"`
	CourseCode    string `json:"course_code"`
	Timestamp     int64  `json:"timestamp"`
	Nonce         string `json:"nonce"`
}

func runHash(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var student, course, nonce string
	var timestamp int64
	fs.StringVar(&student, "student", "", "student name")
	fs.StringVar(&course, "course", "", "course name")
	fs.Int64Var(&timestamp, "timestamp", 0, "issuance time in unix milliseconds (default now)")
	fs.StringVar(&nonce, "nonce", "", "nonce (default random)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var ts *int64
	if timestamp > 0 {
		ts = &timestamp
	}
	canonical, payload, err := crypto.Canonicalize(student, course, ts, nonce)
	if err != nil {
		fmt.Fprintf(stderr, "canonicalize: %v\n", err)
		return 1
	}
	hash := crypto.HashCanonical(canonical)
	certID, err := crypto.CertificateID(hash, payload.Timestamp)
	if err != nil {
		fmt.Fprintf(stderr, "certificate id: %v\n", err)
		return 1
	}
	if err := writeJSON(stdout, hashOutput{
		CanonicalJSON: canonical,
		Hash:          hash,
		CertificateID: certID,
		CourseCode:    crypto.CourseCode(payload.Exam),
		Timestamp:     payload.Timestamp,
		Nonce:         payload.Nonce,
	}); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
