package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journalEntry struct {
	ID     uint64
	Status string
}

func TestFileSpill(t *testing.T) {
	t.Run("creates the journal inside dir", func(t *testing.T) {
		dir := t.TempDir()

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Remove()

		assert.Equal(t, dir, filepath.Dir(spill.Path()))
		assert.Equal(t, uint64(0), spill.Len())
	})

	t.Run("creates missing directories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "spill")

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Remove()

		_, err = os.Stat(dir)
		require.NoError(t, err)
	})

	t.Run("ranges items in append order", func(t *testing.T) {
		spill, err := NewFileSpill[journalEntry](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.Append(journalEntry{ID: 1, Status: "killed"}))
		require.NoError(t, spill.Append(journalEntry{ID: 2, Status: "survived"}))
		require.NoError(t, spill.Append(journalEntry{ID: 3, Status: "timeout"}))
		assert.Equal(t, uint64(3), spill.Len())

		var got []journalEntry
		err = spill.Range(func(index uint64, item journalEntry) error {
			assert.Equal(t, uint64(len(got)), index)
			got = append(got, item)

			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []journalEntry{
			{ID: 1, Status: "killed"},
			{ID: 2, Status: "survived"},
			{ID: 3, Status: "timeout"},
		}, got)
	})

	t.Run("range still works after close", func(t *testing.T) {
		spill, err := NewFileSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Close())

		count := 0
		require.NoError(t, spill.Range(func(_ uint64, item string) error {
			assert.Equal(t, "first", item)
			count++

			return nil
		}))
		assert.Equal(t, 1, count)
	})

	t.Run("append after close fails", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())
		assert.Error(t, spill.Append(1))
	})

	t.Run("range stops on callback error", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		for i := range 5 {
			require.NoError(t, spill.Append(i))
		}

		stop := errors.New("stop")
		visited := 0

		err = spill.Range(func(_ uint64, item int) error {
			visited++
			if item == 2 {
				return stop
			}

			return nil
		})
		require.ErrorIs(t, err, stop)
		assert.Equal(t, 3, visited)
	})

	t.Run("remove deletes the file", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)

		require.NoError(t, spill.Append(7))
		require.NoError(t, spill.Remove())

		_, err = os.Stat(spill.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("concurrent appends are all recorded", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()
				assert.NoError(t, spill.Append(i))
			}()
		}

		wg.Wait()

		seen := make(map[int]bool)
		require.NoError(t, spill.Range(func(_ uint64, item int) error {
			seen[item] = true
			return nil
		}))
		assert.Len(t, seen, 50)
	})
}
