package policyopa

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"veritas/internal/domain"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const (
	defaultQuery    = "data.veritas.security.result"
	DefaultBundleID = "security_v1"
)

//go:embed bundle
var defaultBundle embed.FS

// Engine grades the security features found in a verified document.
type Engine struct {
	query      rego.PreparedEvalQuery
	bundleHash string
	bundleID   string
}

// NewDefaultEngine compiles the bundle shipped with the binary.
func NewDefaultEngine(ctx context.Context) (*Engine, error) {
	return NewEngineFromFS(ctx, defaultBundle, "bundle", DefaultBundleID)
}

func NewEngineFromBundlePath(ctx context.Context, bundlePath string, bundleID string) (*Engine, error) {
	if _, err := os.Stat(bundlePath); err != nil {
		return nil, fmt.Errorf("policy bundle: %w", err)
	}
	return NewEngineFromFS(ctx, os.DirFS(bundlePath), ".", bundleID)
}

func NewEngineFromFS(ctx context.Context, fsys fs.FS, root string, bundleID string) (*Engine, error) {
	files, err := collectBundleFiles(fsys, root)
	if err != nil {
		return nil, err
	}
	hash, err := bundleHash(files)
	if err != nil {
		return nil, err
	}

	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)

	opts := []func(*rego.Rego){
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
	}
	modules := 0
	for _, f := range files {
		if !strings.HasSuffix(f.Path, ".rego") {
			continue
		}
		opts = append(opts, rego.Module(f.Path, string(f.data)))
		modules++
	}
	if modules == 0 {
		return nil, errors.New("policy bundle has no rego modules")
	}

	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}
	return &Engine{query: prepared, bundleHash: hash, bundleID: bundleID}, nil
}

func (e *Engine) BundleHash() string {
	return e.bundleHash
}

func (e *Engine) BundleID() string {
	return e.bundleID
}

func (e *Engine) Evaluate(ctx context.Context, input domain.SecurityPolicyInput) (domain.SecurityPolicyEvaluation, error) {
	if e == nil {
		return domain.SecurityPolicyEvaluation{}, errors.New("policy engine is nil")
	}
	if input.MissingFeatures == nil {
		input.MissingFeatures = []string{}
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.SecurityPolicyEvaluation{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.SecurityPolicyEvaluation{}, errors.New("empty policy result")
	}
	result, err := decodePolicyResult(results[0].Expressions[0].Value)
	if err != nil {
		return domain.SecurityPolicyEvaluation{}, err
	}
	normalizePolicyResult(&result)
	return domain.SecurityPolicyEvaluation{
		BundleHash: e.bundleHash,
		Result:     result,
	}, nil
}

func decodePolicyResult(value any) (domain.SecurityPolicyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.SecurityPolicyResult{}, err
	}
	var result domain.SecurityPolicyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.SecurityPolicyResult{}, fmt.Errorf("decode policy result: %w", err)
	}
	if result.Grade == "" {
		return domain.SecurityPolicyResult{}, errors.New("policy result has no grade")
	}
	return result, nil
}

func normalizePolicyResult(result *domain.SecurityPolicyResult) {
	if result == nil {
		return
	}
	sort.Slice(result.Deny, func(i, j int) bool {
		if result.Deny[i].Code == result.Deny[j].Code {
			return result.Deny[i].Message < result.Deny[j].Message
		}
		return result.Deny[i].Code < result.Deny[j].Code
	})
}

func assertNoForbiddenBuiltins(compiler *ast.Compiler) error {
	if compiler == nil {
		return errors.New("policy compiler is nil")
	}
	forbidden := make(map[string]struct{})
	for _, module := range compiler.Modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, ok := term.Value.(ast.Call)
			if !ok || len(call) == 0 || call[0] == nil {
				return false
			}
			name := call[0].Value.String()
			if _, ok := ast.BuiltinMap[name]; !ok {
				return false
			}
			if _, ok := allowedBuiltins[name]; ok {
				return false
			}
			forbidden[name] = struct{}{}
			return false
		})
	}
	if len(forbidden) == 0 {
		return nil
	}
	names := make([]string, 0, len(forbidden))
	for name := range forbidden {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("forbidden builtins: %s", strings.Join(names, ", "))
}
