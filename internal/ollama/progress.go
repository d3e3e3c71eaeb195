package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sse"

	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
)

var (
	// ErrTaskLost means the status endpoint no longer knows the task,
	// usually because the host restarted.
	ErrTaskLost = errors.New("install task not found")
	// ErrStreamClosed means the event stream ended before a terminal state.
	ErrStreamClosed = errors.New("event stream closed before the task finished")
)

// ProgressSource reports install progress for one task until it reaches a
// terminal state, which it returns.
type ProgressSource interface {
	Watch(ctx context.Context, taskID string, fn func(models.ModelInstallation)) (models.ModelInstallation, error)
}

// StreamSource follows the task's server-sent event stream.
type StreamSource struct {
	client *Client
}

func NewStreamSource(client *Client) *StreamSource {
	return &StreamSource{client: client}
}

func (s *StreamSource) Watch(ctx context.Context, taskID string, fn func(models.ModelInstallation)) (models.ModelInstallation, error) {
	last := models.ModelInstallation{TaskID: taskID, State: models.InstallPending}

	body, err := s.client.InstallEvents(ctx, taskID)
	if err != nil {
		return last, err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var block strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line != "" {
			block.WriteString(line)
			block.WriteByte('\n')
			continue
		}
		if block.Len() == 0 {
			continue
		}

		evts, err := sse.Decode(strings.NewReader(block.String() + "\n"))
		block.Reset()
		if err != nil {
			continue
		}
		for _, evt := range evts {
			update, ok := parseEvent(taskID, evt)
			if !ok {
				continue
			}
			last = merge(last, update)
			fn(last)
			if last.State.Terminal() {
				return last, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		return last, fmt.Errorf("%w: %w", hostapi.ErrNetwork, err)
	}
	return last, ErrStreamClosed
}

// parseEvent turns one SSE event into a progress update. Event names
// "complete"/"completed"/"error"/"canceled" imply the state when the
// payload does not carry one.
func parseEvent(taskID string, evt sse.Event) (models.ModelInstallation, bool) {
	var update models.ModelInstallation
	data, _ := evt.Data.(string)
	data = strings.TrimSpace(data)
	if data != "" {
		if err := json.Unmarshal([]byte(data), &update); err != nil {
			update.Message = data
		}
	}

	if update.State == "" {
		switch evt.Event {
		case "complete", "completed", "done":
			update.State = models.InstallCompleted
		case "error", "failed":
			update.State = models.InstallError
			if update.Error == "" {
				update.Error = update.Message
			}
		case "canceled", "cancelled":
			update.State = models.InstallCanceled
		case "progress", "message":
			update.State = models.InstallRunning
		default:
			return update, false
		}
	}
	if update.TaskID == "" {
		update.TaskID = taskID
	}
	return update, true
}

func merge(prev, next models.ModelInstallation) models.ModelInstallation {
	out := prev
	if next.TaskID != "" {
		out.TaskID = next.TaskID
	}
	if next.Name != "" {
		out.Name = next.Name
	}
	if next.State != "" {
		out.State = next.State
	}
	if next.Total > 0 {
		out.Completed, out.Total = next.Completed, next.Total
	}
	switch {
	case next.Progress > 0:
		out.Progress = next.Progress
	case next.Total > 0:
		out.Progress = float64(next.Completed) / float64(next.Total) * 100
	}
	if out.State == models.InstallCompleted {
		out.Progress = 100
	}
	if next.Message != "" {
		out.Message = next.Message
	}
	if next.Error != "" {
		out.Error = next.Error
	}
	return out
}

// PollSource asks the status endpoint at a fixed interval.
type PollSource struct {
	client    *Client
	interval  time.Duration
	maxErrors int
	log       *logger.Logger
}

func NewPollSource(client *Client, interval time.Duration, log *logger.Logger) *PollSource {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PollSource{client: client, interval: interval, maxErrors: 3, log: log}
}

func (p *PollSource) Watch(ctx context.Context, taskID string, fn func(models.ModelInstallation)) (models.ModelInstallation, error) {
	last := models.ModelInstallation{TaskID: taskID, State: models.InstallPending}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		st, err := p.client.InstallStatus(ctx, taskID)
		switch {
		case err == nil:
			failures = 0
			last = merge(last, st)
			fn(last)
			if last.State.Terminal() {
				return last, nil
			}
		default:
			if code, ok := hostapi.StatusCode(err); ok && code == http.StatusNotFound {
				return last, ErrTaskLost
			}
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			failures++
			p.log.Warn("install status poll failed", "task", taskID, "attempt", failures, "error", err)
			if failures >= p.maxErrors {
				return last, err
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tracker prefers the push stream and falls back to polling when the stream
// cannot be attached or ends early.
type Tracker struct {
	stream ProgressSource
	poll   ProgressSource
	log    *logger.Logger
}

func NewTracker(stream, poll ProgressSource, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{stream: stream, poll: poll, log: log}
}

func (t *Tracker) Watch(ctx context.Context, taskID string, fn func(models.ModelInstallation)) (models.ModelInstallation, error) {
	if t.stream != nil {
		final, err := t.stream.Watch(ctx, taskID, fn)
		if err == nil {
			return final, nil
		}
		if ctx.Err() != nil || t.poll == nil {
			return final, err
		}
		t.log.Info("event stream unavailable, polling install status", "task", taskID, "reason", err)
	}
	if t.poll == nil {
		return models.ModelInstallation{TaskID: taskID}, io.ErrUnexpectedEOF
	}
	return t.poll.Watch(ctx, taskID, fn)
}
