package attachments

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/jo-hoe/termreport/internal/backend/database"
)

type Slot string

const (
	SlotLogo  Slot = "logo"
	SlotPhoto Slot = "photo"
)

// Slots lists the supported slots in display order.
var Slots = []Slot{SlotLogo, SlotPhoto}

var ErrUnknownSlot = errors.New("unknown image slot")

// ParseSlot validates a slot name taken from a request.
func ParseSlot(name string) (Slot, error) {
	for _, s := range Slots {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// PreviewStore holds the bytes behind transient preview references.
type PreviewStore interface {
	CreatePreview(preview *database.Preview) (string, error)
	GetPreview(id string) (*database.Preview, error)
	DeletePreview(id string) error
}

// Processor turns an uploaded file into preview bytes (PNG).
type Processor interface {
	Execute(imageData []byte) ([]byte, error)
}

// Attachment is the image currently associated with a slot.
type Attachment struct {
	Slot     Slot
	FileName string
	// Ref is the live transient preview reference
	Ref string
	URL string
}

// Manager owns the preview references of one form. Each slot has at most
// one live reference; it is released exactly once, when replaced or removed.
type Manager struct {
	store     PreviewStore
	processor Processor
	urlPrefix string
	slots     map[Slot]*Attachment
}

// NewManager creates a manager whose preview URLs are urlPrefix + ref.
func NewManager(store PreviewStore, processor Processor, urlPrefix string) *Manager {
	return &Manager{
		store:     store,
		processor: processor,
		urlPrefix: urlPrefix,
		slots:     make(map[Slot]*Attachment),
	}
}

// Attach replaces the slot's image. The upload is processed first so a
// rejected file leaves the previous preview in place; the previous
// reference is released before the new one is created, so a store failure
// at that point leaves the slot empty.
func (m *Manager) Attach(slot Slot, fileName string, data []byte) (*Attachment, error) {
	if _, err := ParseSlot(string(slot)); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("uploaded file %q is empty", fileName)
	}

	processed, err := m.processor.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process image %q: %w", fileName, err)
	}

	if err := m.release(slot); err != nil {
		return nil, err
	}

	ref, err := m.store.CreatePreview(&database.Preview{ContentType: "image/png", Data: processed})
	if err != nil {
		return nil, fmt.Errorf("failed to store preview: %w", err)
	}

	attachment := &Attachment{
		Slot:     slot,
		FileName: fileName,
		Ref:      ref,
		URL:      m.urlPrefix + ref,
	}
	m.slots[slot] = attachment
	slog.Debug("image attached", "slot", slot, "ref", ref, "filename", fileName)
	return attachment, nil
}

// Remove clears the slot and releases its preview. Removing an empty slot
// is a no-op.
func (m *Manager) Remove(slot Slot) error {
	if _, err := ParseSlot(string(slot)); err != nil {
		return err
	}
	return m.release(slot)
}

// Get returns the slot's attachment, if any.
func (m *Manager) Get(slot Slot) (Attachment, bool) {
	a, ok := m.slots[slot]
	if !ok {
		return Attachment{}, false
	}
	return *a, true
}

// DataURL returns the slot's preview inlined as a data URL, or "" when the
// slot is empty. Reports embed images this way so they stay printable after
// the preview is released.
func (m *Manager) DataURL(slot Slot) template.URL {
	a, ok := m.slots[slot]
	if !ok {
		return ""
	}
	preview, err := m.store.GetPreview(a.Ref)
	if err != nil {
		slog.Warn("preview not available, using placeholder", "slot", slot, "ref", a.Ref, "error", err)
		return ""
	}
	return template.URL("data:" + preview.ContentType + ";base64," + base64.StdEncoding.EncodeToString(preview.Data))
}

// ReleaseAll empties every slot and releases each live reference.
func (m *Manager) ReleaseAll() error {
	var errs []error
	for _, slot := range Slots {
		if err := m.release(slot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// release detaches the slot before deleting its reference, so a failed
// delete can never be retried against the same reference.
func (m *Manager) release(slot Slot) error {
	a, ok := m.slots[slot]
	if !ok {
		return nil
	}
	delete(m.slots, slot)

	if err := m.store.DeletePreview(a.Ref); err != nil {
		if errors.Is(err, database.ErrPreviewNotFound) {
			slog.Warn("preview already gone", "slot", slot, "ref", a.Ref)
			return nil
		}
		return fmt.Errorf("failed to release preview %s: %w", a.Ref, err)
	}
	slog.Debug("preview released", "slot", slot, "ref", a.Ref)
	return nil
}
