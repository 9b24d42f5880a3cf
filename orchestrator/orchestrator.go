package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// killGracePeriod is how long a terminated extractor is given to exit
// cleanly after SIGTERM before it is sent SIGKILL, per spec §4.3.4 (the
// spec leaves the exact duration implementation-defined within 500ms-2s).
const killGracePeriod = 1 * time.Second

// ExtractorRun is the outcome of running one extractor, whether it
// succeeded or not.
type ExtractorRun struct {
	ID             string
	Success        bool
	Duration       time.Duration
	FactsExtracted int
	Error          error
	Metadata       map[string]string
}

// ResourceStats is a point-in-time snapshot of the orchestrator's
// in-flight, completed, and failed task counts.
type ResourceStats struct {
	InFlight  int64
	Completed int64
	Failed    int64
}

type atomicStats struct {
	inFlight  int64
	completed int64
	failed    int64
}

func (s *atomicStats) snapshot() ResourceStats {
	return ResourceStats{
		InFlight:  atomic.LoadInt64(&s.inFlight),
		Completed: atomic.LoadInt64(&s.completed),
		Failed:    atomic.LoadInt64(&s.failed),
	}
}

// Orchestrator schedules a bounded-concurrency fleet of extractor
// processes, following the teacher's plugin.Host.InvokeAll pattern
// (errgroup.SetLimit plus non-fatal per-task error collection) adapted
// to the framed stdin/stdout child-process protocol instead of a gRPC
// connection.
type Orchestrator struct {
	config OrchestratorConfig
	logger *slog.Logger
	stats  atomicStats

	requestCounter uint64
}

// New constructs an Orchestrator for config. A nil logger defaults to
// slog.Default().
func New(config OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{config: config, logger: logger}
}

// Stats returns a snapshot of the orchestrator's resource counters.
func (o *Orchestrator) Stats() ResourceStats {
	return o.stats.snapshot()
}

// ExecuteAll submits one task per enabled extractor and awaits all of
// them. The returned slice is always the same length as the enabled
// extractor list and in configuration order — not completion order — so
// callers can reason about results positionally, per spec §5. The call
// fails with a *ConfigError when no extractor is enabled, and with
// ErrAllExtractorsFailed when every extractor failed; otherwise the
// (possibly partial) results are returned with a nil error.
func (o *Orchestrator) ExecuteAll(ctx context.Context, projectPath, language string) ([]ExtractorRun, error) {
	extractors := o.config.Enabled()
	if len(extractors) == 0 {
		return nil, &ConfigError{Err: fmt.Errorf("no enabled extractors")}
	}

	results := make([]ExtractorRun, len(extractors))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Concurrency())

	for i, def := range extractors {
		i, def := i, def
		requestID := atomic.AddUint64(&o.requestCounter, 1)
		g.Go(func() error {
			results[i] = o.runOne(gCtx, requestID, def, projectPath, language)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	if succeeded == 0 {
		o.logger.Warn("all extractors failed", "count", len(results))
		return results, ErrAllExtractorsFailed
	}
	if succeeded < len(results) {
		o.logger.Warn("partial extractor failure", "succeeded", succeeded, "total", len(results))
	}
	return results, nil
}

// runOne spawns def's process, speaks one request/response cycle of the
// framed protocol, and waits for exit, bounded by def's timeout. Writing
// the request and reading the response run in a goroutine raced against
// ctx cancellation and the timeout; either one terminates the child.
// Waiting for a concurrency slot (the caller's errgroup) does not observe
// ctx, and neither does the wait for process exit once a response has
// been read.
func (o *Orchestrator) runOne(ctx context.Context, requestID uint64, def ExtractorDef, projectPath, language string) ExtractorRun {
	atomic.AddInt64(&o.stats.inFlight, 1)
	defer atomic.AddInt64(&o.stats.inFlight, -1)

	start := time.Now()
	timeout := def.Timeout(o.config.DefaultTimeout())

	cmd := exec.Command(def.Command, def.Args...)
	if len(def.Env) > 0 {
		env := os.Environ()
		for k, v := range def.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return o.terminal(def.ID, start, &SpawnError{ExtractorID: def.ID, Err: err})
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return o.terminal(def.ID, start, &SpawnError{ExtractorID: def.ID, Err: err})
	}

	if err := cmd.Start(); err != nil {
		return o.terminal(def.ID, start, &SpawnError{ExtractorID: def.ID, Err: err})
	}

	configJSON, err := json.Marshal(def.Config)
	if err != nil {
		o.killGracefully(cmd)
		_ = cmd.Wait()
		return o.terminal(def.ID, start, &JSONError{ExtractorID: def.ID, Err: err})
	}

	req := Request{
		RequestID:   requestID,
		ProjectPath: projectPath,
		Language:    language,
		Config:      string(configJSON),
		TimeoutMs:   uint64(timeout.Milliseconds()),
		Version:     "1",
	}

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		if err := WriteRequest(stdin, req); err != nil {
			done <- outcome{err: &IOError{ExtractorID: def.ID, Err: err}}
			return
		}
		_ = stdin.Close()

		resp, err := ReadResponse(stdout)
		if err != nil {
			var tooLarge *ErrFrameTooLarge
			if errors.As(err, &tooLarge) {
				done <- outcome{err: &InvalidIRError{ExtractorID: def.ID, ParseError: err}}
				return
			}
			done <- outcome{err: &IOError{ExtractorID: def.ID, Err: err}}
			return
		}
		done <- outcome{resp: resp}
	}()

	select {
	case <-ctx.Done():
		o.killGracefully(cmd)
		<-done
		_ = cmd.Wait()
		return o.terminal(def.ID, start, ctx.Err())

	case <-time.After(timeout):
		o.killGracefully(cmd)
		<-done
		_ = cmd.Wait()
		return o.terminal(def.ID, start, &TimeoutError{ExtractorID: def.ID, Timeout: timeout.String()})

	case res := <-done:
		waitErr := cmd.Wait()
		if waitErr != nil {
			// A non-zero exit is the root cause even if it also left the
			// read side with an IO or parse error; report that instead.
			return o.terminal(def.ID, start, &ExecutionError{ExtractorID: def.ID, ExitCode: exitCode(cmd), Stderr: stderrBuf.String()})
		}
		if res.err != nil {
			return o.terminal(def.ID, start, res.err)
		}
		if res.resp.RequestID != requestID {
			return o.terminal(def.ID, start, &ExecutionError{
				ExtractorID: def.ID, ExitCode: exitCode(cmd),
				Stderr: "protocol error: response request_id does not match request",
			})
		}
		if !res.resp.Success {
			return o.terminal(def.ID, start, &ExecutionError{ExtractorID: def.ID, ExitCode: 0, Stderr: stderrBuf.String()})
		}

		atomic.AddInt64(&o.stats.completed, 1)
		return ExtractorRun{
			ID:             def.ID,
			Success:        true,
			Duration:       time.Since(start),
			FactsExtracted: countFacts(res.resp.IR),
			Metadata:       parseMetadata(res.resp.Metadata),
		}
	}
}

// terminal records a failed task's terminal state in the shared resource
// counters and builds its ExtractorRun.
func (o *Orchestrator) terminal(id string, start time.Time, err error) ExtractorRun {
	atomic.AddInt64(&o.stats.completed, 1)
	atomic.AddInt64(&o.stats.failed, 1)
	return ExtractorRun{ID: id, Success: false, Duration: time.Since(start), Error: err}
}

// killGracefully sends the platform terminate signal and escalates to
// Kill if the process is still alive after killGracePeriod, mirroring
// plugin.Plugin.Close's SIGTERM-then-SIGKILL escalation.
func (o *Orchestrator) killGracefully(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(terminateSignal()); err != nil {
		_ = cmd.Process.Kill()
		return
	}
	time.AfterFunc(killGracePeriod, func() {
		_ = cmd.Process.Kill()
	})
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// countFacts reports how many facts a serialized IR payload carries,
// without fully decoding each fact - only the envelope's facts array
// length is needed here.
func countFacts(irBytes []byte) int {
	if len(irBytes) == 0 {
		return 0
	}
	var envelope struct {
		Facts []json.RawMessage `json:"facts"`
	}
	if err := json.Unmarshal(irBytes, &envelope); err != nil {
		return 0
	}
	return len(envelope.Facts)
}

func parseMetadata(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]string{"raw": raw}
	}
	return m
}
