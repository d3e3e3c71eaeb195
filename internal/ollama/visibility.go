package ollama

import (
	"context"
	"time"

	"braindrive-settings/internal/models"
)

// Visibility is the outcome of checking that an installed model shows up in
// the server's listing.
type Visibility int

const (
	// Visible: the model appeared in a listing.
	Visible Visibility = iota
	// NotVisible: listings succeeded but never contained the model.
	NotVisible
	// Unverifiable: no listing succeeded before the deadline.
	Unverifiable
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case NotVisible:
		return "not_visible"
	}
	return "unverifiable"
}

// ListFunc returns the current model listing of one server.
type ListFunc func(ctx context.Context) ([]models.ModelInfo, error)

// ConfirmVisible re-polls the listing until the model named name appears or
// timeout elapses. A finished install task does not guarantee the model is
// already listed.
func ConfirmVisible(ctx context.Context, list ListFunc, name string, timeout, interval time.Duration) Visibility {
	if interval <= 0 {
		interval = time.Second
	}
	want := models.ModelID(name)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	listed := false
	for {
		items, err := list(ctx)
		if err == nil {
			listed = true
			for _, m := range items {
				if m.ID() == want {
					return Visible
				}
			}
		}

		select {
		case <-ctx.Done():
			return outcome(listed)
		case <-deadline.C:
			return outcome(listed)
		case <-ticker.C:
		}
	}
}

func outcome(listed bool) Visibility {
	if listed {
		return NotVisible
	}
	return Unverifiable
}
