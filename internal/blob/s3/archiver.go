package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FightFi/booster/internal/domain"
)

// EventArchive is the document uploaded for each purged event. It captures a
// full snapshot of the event at the moment its residual pool was swept, so
// the hot stores can be trimmed without losing the settlement history.
type EventArchive struct {
	Event      domain.Event        `json:"event"`
	Fights     []domain.Fight      `json:"fights"`
	Boosts     []domain.Boost      `json:"boosts"`
	AuditTrail []domain.AuditEntry `json:"audit_trail,omitempty"`
	ArchivedAt time.Time           `json:"archived_at"`
}

// Checker reports whether an object already exists at a path. *Reader
// satisfies it.
type Checker interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver serializes purged events into single JSON documents and uploads
// them to object storage. Records are not deleted from the primary store
// here; trimming is a separate step taken after the archive is verified.
type Archiver struct {
	writer domain.BlobWriter
	check  Checker
	audit  domain.AuditStore
	prefix string
}

// NewArchiver creates an Archiver that writes archives under the given key
// prefix, for example "archives". check may be nil, in which case repeat
// archivals overwrite.
func NewArchiver(writer domain.BlobWriter, check Checker, audit domain.AuditStore, prefix string) *Archiver {
	if prefix == "" {
		prefix = "archives"
	}
	return &Archiver{
		writer: writer,
		check:  check,
		audit:  audit,
		prefix: prefix,
	}
}

// ArchiveEvent marshals the event snapshot and uploads it to
// <prefix>/<season>/<event>.json. The archival is recorded in the audit log
// and the object path is returned. An event that is already archived is left
// untouched: the first upload is the settlement record, and a second purge
// of the same event has nothing new to add.
func (a *Archiver) ArchiveEvent(ctx context.Context, ev domain.Event, fights []domain.Fight, boosts []domain.Boost, trail []domain.AuditEntry) (string, error) {
	path := a.archivePath(ev)
	if a.check != nil {
		exists, err := a.check.Exists(ctx, path)
		if err != nil {
			return "", fmt.Errorf("s3blob: archive event %s head: %w", ev.ID, err)
		}
		if exists {
			return path, nil
		}
	}

	doc := EventArchive{
		Event:      ev,
		Fights:     fights,
		Boosts:     boosts,
		AuditTrail: trail,
		ArchivedAt: time.Now().UTC(),
	}

	buf, err := marshalArchive(doc)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive event %s marshal: %w", ev.ID, err)
	}

	path = a.archivePath(ev)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive event %s upload: %w", ev.ID, err)
	}

	if err := a.audit.Log(ctx, "archive.event", map[string]any{
		"event_id": ev.ID,
		"season":   ev.SeasonID,
		"path":     path,
		"fights":   len(fights),
		"boosts":   len(boosts),
	}); err != nil {
		return path, fmt.Errorf("s3blob: archive event %s audit log: %w", ev.ID, err)
	}

	return path, nil
}

// archivePath builds the S3 key for an event archive, partitioned by season.
//
//	archives/3/UFC-300.json
func (a *Archiver) archivePath(ev domain.Event) string {
	return fmt.Sprintf("%s/%d/%s.json", a.prefix, ev.SeasonID, ev.ID)
}

// marshalArchive serialises the archive document as indented JSON so the
// uploaded objects stay readable in a bucket browser.
func marshalArchive(doc EventArchive) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
