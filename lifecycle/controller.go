// Package lifecycle implements the process-wide lifecycle controller:
// pipeline registry, run status, and the shutdown protocol exposed over
// HTTP by the httpapi package.
package lifecycle

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"

	"github.com/zapdos-labs/videopipeline/internal/onceval"
	"github.com/zapdos-labs/videopipeline/pipeline"
)

// Status is the controller's run state.
type Status int

const (
	StatusStopped Status = iota
	StatusRunning
	StatusShutdown
)

// String renders the status the way the HTTP status endpoint serializes
// it: lowercased.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusShutdown:
		return "shutdown"
	default:
		return "stopped"
	}
}

// ShutdownMode selects how the shutdown protocol terminates the process.
type ShutdownMode string

const (
	ModeGraceful ShutdownMode = "graceful"
	ModeSignal   ShutdownMode = "signal"
)

var (
	// ErrNoShutdownToken means the shutdown HTTP endpoint is disabled
	// because no token has ever been configured.
	ErrNoShutdownToken = errors.New("lifecycle: shutdown token not set")
	// ErrTokenMismatch means the caller supplied the wrong token.
	ErrTokenMismatch = errors.New("lifecycle: shutdown token mismatch")
	// ErrAlreadyShuttingDown means the shutdown-status latch was already
	// set by an earlier request.
	ErrAlreadyShuttingDown = errors.New("lifecycle: shutdown already in progress")
	// ErrUnknownMode means mode wasn't "graceful" or "signal".
	ErrUnknownMode = errors.New("lifecycle: unknown shutdown mode")
)

// Controller is the single process-wide handle threaded explicitly into
// the HTTP layer and into whatever constructs pipelines — never a
// package-level global.
type Controller struct {
	mu        sync.RWMutex
	pipelines []*pipeline.Pipeline

	statusMu sync.RWMutex
	status   Status

	shutdownToken  *onceval.String
	shutdownStatus *onceval.Bool
	shutdownSignal *onceval.Int

	pid int
}

// New constructs a controller with status Stopped and the default
// shutdown signal (SIGINT).
func New() *Controller {
	return &Controller{
		status:         StatusStopped,
		shutdownToken:  onceval.NewString(""),
		shutdownStatus: onceval.NewBool(false),
		shutdownSignal: onceval.NewInt(int64(syscall.SIGINT)),
	}
}

// RegisterPipeline appends p to the registry. Registering the same
// pointer twice is tolerated (and logged), per spec.md §4.4.
func (c *Controller) RegisterPipeline(p *pipeline.Pipeline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.pipelines {
		if existing == p {
			log.Printf("[Lifecycle] pipeline %p registered more than once", p)
			break
		}
	}
	c.pipelines = append(c.pipelines, p)
}

// UnregisterPipeline removes p by identity. A no-op if p isn't present.
func (c *Controller) UnregisterPipeline(p *pipeline.Pipeline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.pipelines {
		if existing == p {
			c.pipelines = append(c.pipelines[:i], c.pipelines[i+1:]...)
			return
		}
	}
}

// Pipelines returns a snapshot of the registered pipelines.
func (c *Controller) Pipelines() []*pipeline.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*pipeline.Pipeline, len(c.pipelines))
	copy(out, c.pipelines)
	return out
}

// SetStatus writes the run status unconditionally.
func (c *Controller) SetStatus(s Status) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status = s
}

// GetStatus reads the current run status.
func (c *Controller) GetStatus() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// InitWebserver captures the process PID, done once at HTTP startup.
func (c *Controller) InitWebserver() {
	c.pid = os.Getpid()
}

// SetShutdownToken sets the opaque shutdown token. Setting it a second
// time is logged, not an error — matching spec.md §4.4 exactly (unlike
// the status/signal latches, which do fail on a second Set).
func (c *Controller) SetShutdownToken(token string) {
	if !c.shutdownToken.Set(token) {
		log.Printf("[Lifecycle] shutdown token already set, ignoring new value")
	}
}

// HasShutdownToken reports whether a non-empty shutdown token has been set.
func (c *Controller) HasShutdownToken() bool {
	return c.shutdownToken.Get() != ""
}

// SetShutdownSignal sets the POSIX signal sent in ModeSignal shutdowns.
// Succeeds at most once.
func (c *Controller) SetShutdownSignal(sig syscall.Signal) error {
	if !c.shutdownSignal.Set(int64(sig)) {
		return fmt.Errorf("shutdown signal: %w", pipeline.ErrAlreadySet)
	}
	return nil
}

// Shutdown runs the HTTP shutdown protocol from spec.md §4.4: validates
// the token, latches the shutdown-status flag, sets status to Shutdown,
// and — in ModeSignal — signals the recorded PID.
func (c *Controller) Shutdown(token string, mode ShutdownMode) error {
	if !c.HasShutdownToken() {
		return ErrNoShutdownToken
	}
	if token != c.shutdownToken.Get() {
		return ErrTokenMismatch
	}
	if mode != ModeGraceful && mode != ModeSignal {
		return ErrUnknownMode
	}
	if !c.shutdownStatus.Set(true) {
		return ErrAlreadyShuttingDown
	}

	c.SetStatus(StatusShutdown)

	if mode == ModeSignal {
		sig := syscall.Signal(c.shutdownSignal.Get())
		proc, err := os.FindProcess(c.pid)
		if err != nil {
			log.Printf("[Lifecycle] failed to find process %d for shutdown signal: %v", c.pid, err)
			return nil
		}
		if err := proc.Signal(sig); err != nil {
			log.Printf("[Lifecycle] failed to signal process %d: %v", c.pid, err)
		}
	}
	return nil
}
