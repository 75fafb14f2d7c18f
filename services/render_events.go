package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"letter-workflow-api/models"
)

// RenderNotifier receives the new letter snapshot after every successful
// transition so the document-rendering collaborator can regenerate the
// artifact. The engine never waits for rendering.
type RenderNotifier interface {
	LetterStateChanged(snapshot LetterSnapshot)
}

// LetterSnapshot is the event payload sent to the renderer.
type LetterSnapshot struct {
	LetterID     int       `json:"letter_id"`
	CurrentStep  int       `json:"current_step"`
	Status       string    `json:"status"`
	LetterNumber *string   `json:"letter_number,omitempty"`
	SignatureRef *string   `json:"signature_ref,omitempty"`
	StampRef     *string   `json:"stamp_ref,omitempty"`
	ChangedAt    time.Time `json:"changed_at"`
}

var (
	renderNotifierMu sync.RWMutex
	renderNotifier   RenderNotifier = defaultRenderNotifier()
)

// SetRenderNotifier replaces the render event sink. Intended for wiring at
// startup and for tests.
func SetRenderNotifier(n RenderNotifier) {
	renderNotifierMu.Lock()
	defer renderNotifierMu.Unlock()
	renderNotifier = n
}

func defaultRenderNotifier() RenderNotifier {
	if url := os.Getenv("RENDER_HOOK_URL"); url != "" {
		return &WebhookRenderNotifier{URL: url}
	}
	return logRenderNotifier{}
}

func emitLetterStateChanged(letter models.Letter) {
	renderNotifierMu.RLock()
	notifier := renderNotifier
	renderNotifierMu.RUnlock()

	snapshot := LetterSnapshot{
		LetterID:     letter.LetterID,
		CurrentStep:  letter.CurrentStep,
		Status:       letter.Status,
		LetterNumber: letter.LetterNumber,
		SignatureRef: letter.SignatureRef,
		StampRef:     letter.StampRef,
		ChangedAt:    letter.UpdatedAt,
	}
	go notifier.LetterStateChanged(snapshot)
}

// logRenderNotifier only records the event; used when no render hook is
// configured.
type logRenderNotifier struct{}

func (logRenderNotifier) LetterStateChanged(snapshot LetterSnapshot) {
	log.Printf("letter %d state changed: step=%d status=%s", snapshot.LetterID, snapshot.CurrentStep, snapshot.Status)
}

// WebhookRenderNotifier posts snapshots to the rendering collaborator over
// HTTP. Failures are logged, never propagated to the workflow caller.
type WebhookRenderNotifier struct {
	URL    string
	Client *http.Client
}

func (w *WebhookRenderNotifier) LetterStateChanged(snapshot LetterSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("Warning: failed to encode render event for letter %d: %v", snapshot.LetterID, err)
		return
	}

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Post(w.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("Warning: failed to deliver render event for letter %d: %v", snapshot.LetterID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("Warning: render hook returned %d for letter %d", resp.StatusCode, snapshot.LetterID)
	}
}
