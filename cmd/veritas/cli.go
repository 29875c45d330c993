package main

import (
	"fmt"
	"io"
	"path/filepath"
)

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(args, stderr)
		return 1
	}

	rest := args[2:]
	switch args[1] {
	case "hash":
		return runHash(rest, stdout, stderr)
	case "render":
		return runRender(rest, stdout, stderr)
	case "verify":
		return runVerify(rest, stdout, stderr)
	case "inspect":
		return runInspect(rest, stdout, stderr)
	case "batch":
		return runBatch(rest, stdout, stderr)
	}

	usage(args, stderr)
	return 1
}

func usage(args []string, w io.Writer) {
	name := "veritas"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(w, "usage:\n")
	fmt.Fprintf(w, "  %s hash --student <name> --course <name> [--timestamp <unix ms>] [--nonce <hex>]\n", name)
	fmt.Fprintf(w, "  %s render --student <name> --course <name> --out <file.pdf> [--template <id>] [--scale <n>] [--logo <file>] [--signature <file>] [--background <file>]\n", name)
	fmt.Fprintf(w, "  %s verify --in <file.pdf> [--security]\n", name)
	fmt.Fprintf(w, "  %s inspect --in <file.pdf>\n", name)
	fmt.Fprintf(w, "  %s batch --in <entries.json> [--batch-id <id>] [--template <id>] [--concurrency <n>] [--wait]\n", name)
}
