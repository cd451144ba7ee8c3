package review

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsed_data_store.json")

	reviews := []Review{
		fullReview(),
		{ID: ComputeID(nil, nil, nil), ScrapedOn: NewDate(2024, time.June, 1)},
	}

	require.NoError(t, SaveFile(path, reviews))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, reviews, loaded)
}

func TestSaveFile_PrettyPrintedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SaveFile(path, []Review{fullReview()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    ")

	var raw []map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "Jane Doe", raw[0]["author"])
}

func TestSaveFile_EmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, SaveFile(path, nil))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadFile_MalformedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"review_id":"x","scraped_on":"not-a-date"}]`), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	var malformed *MalformedRecordError
	assert.ErrorAs(t, err, &malformed)
}
