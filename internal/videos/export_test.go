package videos

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsm-recorder/backend/internal/models"
	"github.com/lsm-recorder/backend/pkg/apperr"
)

func seedExportStore(t *testing.T, store *fakeStore) {
	t.Helper()
	rows := []struct {
		palabra string
		key     string
	}{
		{"hola", "videos/1-aaaaaaaa.mp4"},
		{"hola", "videos/2-bbbbbbbb.mp4"},
		{"adios", "videos/3-cccccccc.mp4"},
	}
	for _, row := range rows {
		v := models.Video{Palabra: row.palabra, S3Key: row.key}
		require.NoError(t, store.Insert(context.Background(), &v))
	}
}

func TestExportGroupsByPalabra(t *testing.T) {
	store := &fakeStore{}
	objStore := &fakeStorage{}
	seedExportStore(t, store)
	h := NewHandler(store, objStore, &fakePinger{}, false, nil)
	r := newTestRouter(h)

	w, parsed := doJSON(t, r, http.MethodGet, "/api/videos/export", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(3), parsed["total_videos"])
	assert.Equal(t, float64(2), parsed["total_palabras"])

	grouped := parsed["palabras"].(map[string]interface{})
	require.Len(t, grouped, 2)
	holaVideos := grouped["hola"].([]interface{})
	assert.Len(t, holaVideos, 2)
	first := holaVideos[0].(map[string]interface{})
	assert.Contains(t, first["download_url"], "videos/")
	assert.NotEmpty(t, first["s3_key"])

	// One presign call per exported row.
	assert.Equal(t, 3, objStore.presignURLs)

	summary := parsed["summary"].([]interface{})
	require.Len(t, summary, 2)
	top := summary[0].(map[string]interface{})
	assert.Equal(t, "hola", top["palabra"])
	assert.Equal(t, float64(2), top["count"])
}

func TestExportSummaryCountsSumToTotal(t *testing.T) {
	store := &fakeStore{}
	seedExportStore(t, store)
	h := NewHandler(store, &fakeStorage{}, &fakePinger{}, false, nil)
	r := newTestRouter(h)

	_, parsed := doJSON(t, r, http.MethodGet, "/api/videos/export", "")
	sum := 0.0
	prev := -1.0
	for i, entry := range parsed["summary"].([]interface{}) {
		count := entry.(map[string]interface{})["count"].(float64)
		sum += count
		if i > 0 {
			assert.LessOrEqual(t, count, prev, "summary must be non-increasing by count")
		}
		prev = count
	}
	assert.Equal(t, parsed["total_videos"], sum)
}

func TestExportSinceFutureTimestampIsEmpty(t *testing.T) {
	store := &fakeStore{}
	seedExportStore(t, store)
	h := NewHandler(store, &fakeStorage{}, &fakePinger{}, false, nil)
	r := newTestRouter(h)

	future := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	w, parsed := doJSON(t, r, http.MethodGet, "/api/videos/export?since="+future, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), parsed["total_videos"])
	assert.Equal(t, float64(0), parsed["total_palabras"])
	assert.Empty(t, parsed["palabras"])
}

func TestExportInvalidSince(t *testing.T) {
	h := NewHandler(&fakeStore{}, &fakeStorage{}, &fakePinger{}, false, nil)
	r := newTestRouter(h)

	w, parsed := doJSON(t, r, http.MethodGet, "/api/videos/export?since=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, parsed["success"])
}

func TestExportPresignFailure(t *testing.T) {
	store := &fakeStore{}
	seedExportStore(t, store)
	objStore := &fakeStorage{presignErr: apperr.Storagef(fmt.Errorf("boom"), "failed to generate download URL")}
	h := NewHandler(store, objStore, &fakePinger{}, false, nil)
	r := newTestRouter(h)

	w, parsed := doJSON(t, r, http.MethodGet, "/api/videos/export", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, parsed["success"])
}
