package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/labelr/internal/ports/primary"
)

type fakeAdder struct {
	mu    sync.Mutex
	next  int64
	added map[string]string
	fail  map[string]bool
	// flaky fails a name that many times before it succeeds.
	flaky map[string]int
	calls map[string]int
}

func newFakeAdder() *fakeAdder {
	return &fakeAdder{added: map[string]string{}, fail: map[string]bool{}, flaky: map[string]int{}, calls: map[string]int{}}
}

func (f *fakeAdder) AddItem(_ context.Context, req primary.AddItemRequest) (*primary.DataItem, error) {
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.FileName]++
	if f.fail[req.FileName] {
		return nil, errors.New("storage full")
	}
	if f.flaky[req.FileName] > 0 {
		f.flaky[req.FileName]--
		return nil, errors.New("database is locked")
	}
	f.next++
	f.added[req.FileName] = string(data)
	return &primary.DataItem{ID: f.next, DatasetID: req.DatasetID, FileName: req.FileName}, nil
}

func (f *fakeAdder) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for n := range f.added {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

var imagesOnly = []string{"**/*.{jpg,jpeg,png}"}

func TestFilter(t *testing.T) {
	f, err := NewFilter(imagesOnly, []string{"**/thumbs/**"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"a.png", true},
		{"street/b.JPG", true},
		{"street/night/c.jpeg", true},
		{"notes.txt", false},
		{"street/thumbs/a.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.path))
		})
	}

	all, err := NewFilter(nil, nil)
	require.NoError(t, err)
	assert.True(t, all.Match("anything.bin"))

	_, err = NewFilter([]string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.png"), "aaa")
	writeFile(t, filepath.Join(root, "sub", "b.jpg"), "bbb")
	writeFile(t, filepath.Join(root, "sub", "readme.md"), "skip")
	writeFile(t, filepath.Join(root, ".cache", "c.png"), "hidden")
	writeFile(t, filepath.Join(root, "broken.png"), "ccc")

	adder := newFakeAdder()
	adder.fail["broken.png"] = true
	f, err := NewFilter(imagesOnly, nil)
	require.NoError(t, err)

	report, err := New(adder, f, 7, zerolog.Nop()).Dir(context.Background(), root)
	require.NoError(t, err)

	assert.Len(t, report.Added, 2)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken.png", report.Failed[0].Path)
	assert.Contains(t, report.Failed[0].Reason, "storage full")

	assert.Equal(t, []string{"a.png", "b.jpg"}, adder.names())
	assert.Equal(t, "bbb", adder.added["b.jpg"])
}

func TestDir_MissingRoot(t *testing.T) {
	f, err := NewFilter(nil, nil)
	require.NoError(t, err)
	_, err = New(newFakeAdder(), f, 1, zerolog.Nop()).Dir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestWatcher_IngestsNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.png"), "old")

	adder := newFakeAdder()
	f, err := NewFilter(imagesOnly, nil)
	require.NoError(t, err)

	w, err := NewWatcher(New(adder, f, 1, zerolog.Nop()), root, 20*time.Millisecond)
	require.NoError(t, err)

	var mu sync.Mutex
	var ids []int64
	w.OnAdded = func(_ string, id int64) {
		mu.Lock()
		ids = append(ids, id)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the root.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(root, "new.png"), "fresh")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")

	require.Eventually(t, func() bool {
		return len(adder.names()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"new.png"}, adder.names())
	assert.Equal(t, "fresh", adder.added["new.png"])

	// A later write to the same file is not ingested twice.
	writeFile(t, filepath.Join(root, "new.png"), "fresher")
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int64{1}, ids)
	mu.Unlock()
}

func (f *fakeAdder) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func startWatcher(t *testing.T, adder *fakeAdder, root string) {
	t.Helper()
	f, err := NewFilter(imagesOnly, nil)
	require.NoError(t, err)
	w, err := NewWatcher(New(adder, f, 1, zerolog.Nop()), root, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher time to register the root.
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_RetriesFailedFile(t *testing.T) {
	root := t.TempDir()
	adder := newFakeAdder()
	adder.flaky["flaky.png"] = 1
	startWatcher(t, adder, root)

	writeFile(t, filepath.Join(root, "flaky.png"), "eventually")

	require.Eventually(t, func() bool {
		return len(adder.names()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"flaky.png"}, adder.names())
	assert.Equal(t, 2, adder.callCount("flaky.png"))
}

func TestWatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	root := t.TempDir()
	adder := newFakeAdder()
	adder.fail["broken.png"] = true
	startWatcher(t, adder, root)

	writeFile(t, filepath.Join(root, "broken.png"), "never")

	require.Eventually(t, func() bool {
		return adder.callCount("broken.png") == maxAttempts
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, maxAttempts, adder.callCount("broken.png"))
	assert.Empty(t, adder.names())
}
