package httpflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Runner executes parsed .http files against a Transport, carrying
// RequestContext forward within a file so later requests can depend on
// or reference earlier ones. Grounded on the original implementation's
// file/request processing loop (processor/executor.rs).
type Runner struct {
	cfg    RunConfig
	logger *slog.Logger
}

// NewRunner builds a Runner, constructing a default HTTPTransport unless
// WithTransport overrides it.
func NewRunner(opts ...RunOption) (*Runner, error) {
	cfg := RunConfig{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Transport == nil {
		t, err := NewHTTPTransport(cfg.Insecure)
		if err != nil {
			return nil, fmt.Errorf("building default transport: %w", err)
		}
		cfg.Transport = t
	}
	return &Runner{cfg: cfg, logger: cfg.Logger}, nil
}

// RunFiles parses and executes every file in order, aggregating results
// across files. Any entry in files that names a directory rather than a
// single .http file is expanded to the .http files discovered under it
// (see discoverHTTPFiles), so callers that only have a directory in hand
// do not need to call Discover themselves. A parse failure on one file is
// recorded and does not stop the rest of the run; it is returned as part
// of the combined error.
func (r *Runner) RunFiles(ctx context.Context, files []string) (*ProcessorResults, error) {
	results := &ProcessorResults{OverallSuccess: true}
	var errs *multierror.Error

	expanded, err := expandDirectories(files)
	if err != nil {
		return nil, err
	}

	for _, path := range expanded {
		fileResult, err := r.RunFile(ctx, path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			results.OverallSuccess = false
			continue
		}
		results.Files = append(results.Files, *fileResult)
		if fileResult.FailedCount > 0 {
			results.OverallSuccess = false
		}
	}

	return results, errs.ErrorOrNil()
}

// expandDirectories replaces each directory entry in paths with the .http
// files discoverHTTPFiles finds under it, preserving plain file entries as-is.
func expandDirectories(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		found, err := discoverHTTPFiles(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		out = append(out, found...)
	}
	return out, nil
}

// RunFile parses path and runs every request it contains in declaration
// order, threading completed RequestContexts forward so @dependsOn,
// conditions, and request-variable references can see earlier results.
func (r *Runner) RunFile(ctx context.Context, path string) (*HttpFileResults, error) {
	parsed, err := ParseRequestFile(path, r.cfg.Environment)
	if err != nil {
		return nil, err
	}

	fileResult := &HttpFileResults{Filename: path}
	var contexts []RequestContext
	if len(parsed.Requests) == 0 {
		r.logger.Warn("no requests found", "file", path)
	}

	for i, req := range parsed.Requests {
		if i > 0 && r.cfg.Delay > 0 {
			r.sleep(ctx, r.cfg.Delay)
		}
		rc := r.runOne(ctx, req, parsed, contexts)
		contexts = append(contexts, rc)
		fileResult.RequestContexts = append(fileResult.RequestContexts, rc)

		switch {
		case rc.Skipped():
			fileResult.SkippedCount++
		case rc.Succeeded():
			fileResult.SuccessCount++
		default:
			fileResult.FailedCount++
		}
	}

	return fileResult, nil
}

// runOne carries one request through the gate -> substitute -> transport ->
// assert pipeline, returning a RequestContext whose Result is nil iff the
// request was skipped by a dependency or condition gate.
func (r *Runner) runOne(ctx context.Context, req *HttpRequest, parsed *ParsedFile, prior []RequestContext) RequestContext {
	log := r.logger.With("request", req.Name, "file", parsed.FilePath)

	if !EvaluateDependency(req.DependsOn, prior) {
		log.Info("skipped: dependency not satisfied", "dependsOn", req.DependsOn)
		return RequestContext{Name: req.Name, Request: req}
	}
	if !EvaluateConditions(req.Conditions, prior) {
		log.Info("skipped: condition not satisfied")
		return RequestContext{Name: req.Name, Request: req}
	}

	substituted, err := r.substitute(req, parsed, prior)
	if err != nil {
		log.Error("body resolution failed", "error", err)
		return RequestContext{
			Name:    req.Name,
			Request: req,
			Result:  &HttpResult{ErrorMessage: err.Error()},
		}
	}

	log.Debug("sending request", "method", substituted.Method, "url", substituted.RawURL,
		"headers", substituted.Headers, "body", substituted.RawBody)
	result, err := r.cfg.Transport.Do(ctx, substituted)
	if err != nil {
		log.Error("transport error", "error", err)
		return RequestContext{
			Name:    req.Name,
			Request: substituted,
			Result:  &HttpResult{ErrorMessage: err.Error()},
		}
	}

	log.Debug("received response", "status", result.StatusCode,
		"headers", result.ResponseHeaders, "body", result.ResponseBody)
	result.AssertionResults = EvaluateAssertions(substituted.Assertions, result)
	result.Success = result.StatusCode >= 200 && result.StatusCode < 300 && allPassed(result.AssertionResults)

	if result.Success {
		log.Info("succeeded", "status", result.StatusCode, "duration", result.Duration)
	} else {
		log.Warn("failed", "status", result.StatusCode, "duration", result.Duration, "error", result.ErrorMessage)
	}

	return RequestContext{Name: req.Name, Request: substituted, Result: result}
}

// substitute resolves req's body (inline or external file, multipart file
// refs included), then runs template substitution over the URL, every
// header value, and the body, returning a clone that is safe to send.
func (r *Runner) substitute(req *HttpRequest, parsed *ParsedFile, prior []RequestContext) (*HttpRequest, error) {
	clone := req.Clone()

	env := substitutionEnv{
		EnvironmentVars: parsed.EnvironmentVariables,
		DotEnvVars:      parsed.DotEnvVariables,
		FileVars:        mergeFileVars(req.ActiveVariables, r.cfg.Vars),
		Context:         prior,
	}

	clone.RawURL = Substitute(req.RawURL, env)

	for i, h := range clone.Headers {
		clone.Headers[i] = Header{Name: h.Name, Value: Substitute(h.Value, env)}
	}

	body, err := resolveRequestBody(req)
	if err != nil {
		return nil, err
	}
	if req.ExternalFilePath == "" || req.ExternalFileWithVariables {
		body = Substitute(body, env)
	}
	if bodyIsMultipartWithFileRefs(req, body) {
		expanded, err := expandMultipartFileRefs(req, body)
		if err != nil {
			return nil, err
		}
		body = expanded
	}
	clone.RawBody = body

	return clone, nil
}

// mergeFileVars layers programmatic vars (from WithVars) over a
// request's in-place "@name" = value definitions; both
// sides already use the "@name" key form lookupVariable expects.
func mergeFileVars(active map[string]string, programmatic map[string]string) map[string]string {
	merged := make(map[string]string, len(active)+len(programmatic))
	for k, v := range active {
		merged[k] = v
	}
	for k, v := range programmatic {
		merged["@"+k] = v
	}
	return merged
}

func allPassed(results []AssertionResult) bool {
	for _, ar := range results {
		if !ar.Passed {
			return false
		}
	}
	return true
}

// sleep pauses for d or until ctx is cancelled, whichever comes first.
func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// discoverHTTPFiles is a thin convenience wrapper kept here for callers that
// only have a RunConfig in hand; see discovery.go for the real walk logic.
// A path that is not a directory, or cannot be stat'ed, is returned as-is so
// that RunFile records its failure for that file alone.
func discoverHTTPFiles(root string) ([]string, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return []string{root}, nil
	}
	return Discover(root)
}
