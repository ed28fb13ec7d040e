// Package recorder drives the capture lifecycle: Idle, Recording, Analyzing,
// and back to Idle, with the analysis call and session side effects applied on
// stop.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/supdatta/verbiq/internal/model"
	"github.com/supdatta/verbiq/internal/session"
)

var (
	// ErrNoFreeUses rejects a start when an unauthenticated visitor has
	// exhausted the trial allotment. Reported before any capture or network
	// attempt.
	ErrNoFreeUses = errors.New("no free uses remaining")
	// ErrBusy rejects a start while a cycle is already active.
	ErrBusy = errors.New("recording already in progress")
	// ErrMicrophone covers a denied or unavailable input device.
	ErrMicrophone = errors.New("microphone unavailable")
)

// Analyzer is the slice of the analysis client the controller needs.
type Analyzer interface {
	Analyze(ctx context.Context, payload []byte, contextLabel string) (model.AnalysisResult, error)
}

// Labels identify the practice scenario attached to a completed analysis.
type Labels struct {
	Context     string
	ModuleID    string
	ModuleTitle string
	LessonTitle string
}

// Controller owns one Idle -> Recording -> Analyzing -> Idle cycle at a time.
// Callers drive Tick once per second while recording. Safe for concurrent use;
// Stop does not hold the lock across the network call.
type Controller struct {
	session  *session.Manager
	analyzer Analyzer
	capture  Capture

	mu      sync.Mutex
	state   model.RecordingState
	elapsed int
}

// NewController wires a controller to its session store, analyzer, and
// capture device.
func NewController(sess *session.Manager, analyzer Analyzer, capture Capture) *Controller {
	return &Controller{
		session:  sess,
		analyzer: analyzer,
		capture:  capture,
		state:    model.StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() model.RecordingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires the microphone and begins a recording. It refuses to start
// while a cycle is active, and refuses before any capture attempt when an
// unauthenticated visitor has no free uses left.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.StateIdle {
		return ErrBusy
	}
	if !c.session.IsAuthenticated() && c.session.FreeUsesRemaining() <= 0 {
		return ErrNoFreeUses
	}
	if err := c.capture.Start(ctx); err != nil {
		if errors.Is(err, ErrMicrophone) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}
	c.state = model.StateRecording
	c.elapsed = 0
	return nil
}

// Tick advances the elapsed-seconds counter while recording.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == model.StateRecording {
		c.elapsed++
	}
}

// Elapsed returns the elapsed recording seconds.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Clock renders the elapsed recording time as zero-padded MM:SS.
func (c *Controller) Clock() string {
	return FormatClock(c.Elapsed())
}

// FormatClock renders seconds as zero-padded MM:SS. No upper bound is
// enforced on recording length.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Stop finalizes the recording into a single payload, releases the
// microphone, submits the payload for analysis, and applies the session side
// effect: authenticated sessions get a history entry, unauthenticated ones
// spend a free use on success. The controller returns to Idle whether or not
// the attempt succeeded; every failure is terminal for the attempt and
// recoverable by retrying.
func (c *Controller) Stop(ctx context.Context, labels Labels) (model.AnalysisResult, error) {
	c.mu.Lock()
	if c.state != model.StateRecording {
		c.mu.Unlock()
		return model.AnalysisResult{}, fmt.Errorf("stop called while %s", c.state)
	}
	payload, err := c.capture.Stop()
	if err != nil {
		c.state = model.StateIdle
		c.elapsed = 0
		c.mu.Unlock()
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMicrophone, err)
	}
	c.state = model.StateAnalyzing
	c.mu.Unlock()

	result, analyzeErr := c.analyzer.Analyze(ctx, payload, labels.Context)

	c.mu.Lock()
	c.state = model.StateIdle
	c.elapsed = 0
	c.mu.Unlock()

	if analyzeErr != nil {
		return model.AnalysisResult{}, analyzeErr
	}

	if c.session.IsAuthenticated() {
		if err := c.session.AddToHistory(ctx, session.Entry{
			ModuleID:    labels.ModuleID,
			ModuleTitle: labels.ModuleTitle,
			LessonTitle: labels.LessonTitle,
			Result:      result,
		}); err != nil {
			return result, err
		}
		return result, nil
	}
	if err := c.session.DecrementFreeUses(ctx); err != nil {
		return result, err
	}
	return result, nil
}
