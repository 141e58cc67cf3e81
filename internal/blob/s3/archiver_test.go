package s3blob

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/store/memory"
)

// captureWriter records the last uploaded object in memory.
type captureWriter struct {
	path        string
	contentType string
	body        []byte
}

func (w *captureWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.path = path
	w.contentType = contentType
	w.body = body
	return nil
}

func (w *captureWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return w.Put(ctx, path, data, "")
}

// keySet answers existence checks from a fixed set of paths.
type keySet map[string]bool

func (s keySet) Exists(_ context.Context, path string) (bool, error) {
	return s[path], nil
}

func TestArchiver_ArchiveEvent(t *testing.T) {
	writer := &captureWriter{}
	audit := memory.NewAuditStore()
	arch := NewArchiver(writer, nil, audit, "archives")

	ev := domain.Event{ID: "UFC-300", SeasonID: 3, NumFights: 2, ClaimReady: true}
	fights := []domain.Fight{
		{EventID: "UFC-300", ID: 0, OriginalPool: 600, ClaimedAmount: 500, PurgedAmount: 100},
		{EventID: "UFC-300", ID: 1, OriginalPool: 400, ClaimedAmount: 400},
	}
	boosts := []domain.Boost{
		{EventID: "UFC-300", FightID: 0, Index: 0, Amount: 600, Claimed: true},
	}

	ctx := context.Background()
	path, err := arch.ArchiveEvent(ctx, ev, fights, boosts, nil)
	require.NoError(t, err)
	assert.Equal(t, "archives/3/UFC-300.json", path)
	assert.Equal(t, path, writer.path)
	assert.Equal(t, "application/json", writer.contentType)

	var doc EventArchive
	require.NoError(t, json.Unmarshal(writer.body, &doc))
	assert.Equal(t, ev.ID, doc.Event.ID)
	assert.Len(t, doc.Fights, 2)
	assert.Len(t, doc.Boosts, 1)
	assert.False(t, doc.ArchivedAt.IsZero())

	entries, err := audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "archive.event", entries[0].Event)
	assert.Equal(t, path, entries[0].Detail["path"])
}

func TestArchiver_DefaultPrefix(t *testing.T) {
	arch := NewArchiver(&captureWriter{}, nil, memory.NewAuditStore(), "")
	assert.Equal(t, "archives/1/EV.json", arch.archivePath(domain.Event{ID: "EV", SeasonID: 1}))
}

// An already-archived event is left as stored; the first upload is the
// settlement record.
func TestArchiver_SkipsExistingArchive(t *testing.T) {
	writer := &captureWriter{}
	audit := memory.NewAuditStore()
	arch := NewArchiver(writer, keySet{"archives/3/UFC-300.json": true}, audit, "archives")

	path, err := arch.ArchiveEvent(context.Background(), domain.Event{ID: "UFC-300", SeasonID: 3}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "archives/3/UFC-300.json", path)
	assert.Empty(t, writer.path, "existing archive must not be overwritten")

	entries, err := audit.List(context.Background(), domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
