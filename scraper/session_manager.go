package scraper

import (
	"log"
	"sync"
	"time"

	"partstream/config"
	"partstream/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// SessionManager drives the user-triggered login flow: it opens a visible
// browser window at a source's origin so the user can authenticate, then
// waits for the window to be closed before considering the session synced.
type SessionManager struct {
	poll  time.Duration
	grace time.Duration
}

// NewSessionManager creates a session manager from the search configuration
func NewSessionManager(cfg *config.SearchConfig) *SessionManager {
	return &SessionManager{
		poll:  cfg.SessionPoll,
		grace: cfg.SessionGrace,
	}
}

// SessionHandle lets a caller observe or abandon a running login flow.
// Nothing in the flow is awaited by search requests; callers that don't
// care may simply drop the handle.
type SessionHandle struct {
	SourceID string

	done       chan struct{}
	cancel     chan struct{}
	cancelOnce sync.Once
}

// Done is closed once the flow finished (synced, cancelled, or failed)
func (h *SessionHandle) Done() <-chan struct{} {
	return h.done
}

// Cancel aborts the flow and closes the login window
func (h *SessionHandle) Cancel() {
	h.cancelOnce.Do(func() {
		close(h.cancel)
	})
}

// Manage opens a login surface for the source and returns immediately.
// The flow polls for the window being closed by the user, then waits a
// fixed grace period so cookie write-back can settle.
func (m *SessionManager) Manage(source *models.ExternalSource) *SessionHandle {
	handle := &SessionHandle{
		SourceID: source.ID,
		done:     make(chan struct{}),
		cancel:   make(chan struct{}),
	}

	go m.run(source, handle)
	return handle
}

func (m *SessionManager) run(source *models.ExternalSource, handle *SessionHandle) {
	defer close(handle.done)

	log.Printf("[SESSION MANAGER] Starting login flow for: %s", source.Name)

	loginURL := source.Origin()
	if loginURL == "" {
		// Origin could not be resolved, open the raw source URL directly
		loginURL = source.URLTemplate
	}

	controlURL, err := launcher.New().
		Headless(false).
		Leakless(false).
		Launch()
	if err != nil {
		log.Printf("Failed to launch login browser for %s: %v", source.Name, err)
		return
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		log.Printf("Failed to connect to login browser for %s: %v", source.Name, err)
		return
	}
	defer browser.Close()

	if _, err := browser.Page(proto.TargetCreateTarget{URL: loginURL}); err != nil {
		log.Printf("Failed to open login surface at %s, falling back to source URL: %v", loginURL, err)
		if _, err := browser.Page(proto.TargetCreateTarget{URL: source.URLTemplate}); err != nil {
			log.Printf("Failed to open login surface for %s: %v", source.Name, err)
			return
		}
	}

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-handle.cancel:
			log.Printf("[SESSION MANAGER] Login flow for %s cancelled", source.Name)
			return

		case <-ticker.C:
			pages, err := browser.Pages()
			if err != nil || len(pages) == 0 {
				// User closed the window; give cookie write-back time to settle
				log.Printf("[LOGIN] Syncing session cookies for %s (waiting %v)...", source.Name, m.grace)
				select {
				case <-time.After(m.grace):
					log.Printf("✅ Session for %s persisted", source.Name)
				case <-handle.cancel:
					log.Printf("[SESSION MANAGER] Login flow for %s cancelled during sync", source.Name)
				}
				return
			}
		}
	}
}
