package bookmarks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "roots": {
    "bookmark_bar": {
      "id": "1", "name": "Bookmarks bar", "type": "folder",
      "children": [
        {"id": "10", "name": "Rust book", "type": "url", "url": "https://doc.rust-lang.org/book", "date_added": "13300000000000000"},
        {"id": "2", "name": "Work", "type": "folder", "children": [
          {"id": "20", "name": "Wiki", "type": "url", "url": "https://wiki.example.com/home"},
          {"id": "3", "name": "Deep", "type": "folder", "children": [
            {"id": "30", "name": "Docs", "type": "url", "url": "https://docs.example.com/a"}
          ]}
        ]}
      ]
    },
    "other": {"id": "4", "name": "Other bookmarks", "type": "folder", "children": []}
  }
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Bookmarks")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	return path
}

func TestChromeSource_Folders(t *testing.T) {
	src := NewChromeSource(writeFixture(t))

	folders, err := src.Folders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 2)

	bar := folders[0]
	assert.Equal(t, "1", bar.ID)
	assert.Equal(t, 3, bar.Count, "count includes subfolders")
	require.Len(t, bar.Children, 1)

	work := bar.Children[0]
	assert.Equal(t, []string{"Bookmarks bar", "Work"}, work.Path)
	assert.Equal(t, 2, work.Count)
	assert.Equal(t, []string{"Bookmarks bar", "Work", "Deep"}, work.Children[0].Path)

	assert.Equal(t, 0, folders[1].Count)
}

func TestChromeSource_Bookmarks(t *testing.T) {
	src := NewChromeSource(writeFixture(t))

	items, err := src.Bookmarks(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	byID := map[string][]string{}
	for _, b := range items {
		byID[b.ID] = b.FolderIDs
	}
	assert.Equal(t, []string{"1"}, byID["10"])
	assert.Equal(t, []string{"2", "1"}, byID["20"])
	assert.Equal(t, []string{"3", "2", "1"}, byID["30"])

	assert.Equal(t, 2022, items[0].AddedAt.Year())
	assert.True(t, items[1].AddedAt.IsZero())
}

func TestChromeSource_MissingFile(t *testing.T) {
	src := NewChromeSource(filepath.Join(t.TempDir(), "nope"))
	_, err := src.Folders(context.Background())
	assert.Error(t, err)
}

func TestParseChromeTime(t *testing.T) {
	got := parseChromeTime("11644473600000000")
	assert.True(t, got.Equal(time.Unix(0, 0)), "chrome epoch offset maps to unix epoch, got %v", got)
	assert.True(t, parseChromeTime("").IsZero())
}
