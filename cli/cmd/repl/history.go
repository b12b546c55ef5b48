package repl

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is one submitted line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// Each history file line is prefixed with the mode it was entered in.
const (
	evalPrefix = "E:"
	ctrlPrefix = "C:"
)

func (m inputMode) prefix() string {
	if m == modeCtrl {
		return ctrlPrefix
	}

	return evalPrefix
}

func parseEntry(line string) HistoryEntry {
	if s, ok := strings.CutPrefix(line, ctrlPrefix); ok {
		return HistoryEntry{Line: s, Mode: modeCtrl}
	}

	s, _ := strings.CutPrefix(line, evalPrefix)

	return HistoryEntry{Line: s, Mode: modeEval}
}

// History is the persistent, de-duplicated list of submitted lines.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns an empty history backed by the file at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with the content of the history file. A missing
// file is not an error.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	return scanner.Err()
}

// Add appends line in mode. An earlier identical entry is moved to the end
// instead of repeated.
func (h *History) Add(line string, mode inputMode) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry := HistoryEntry{Line: line, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}

	if i := slices.Index(h.entries, entry); i >= 0 {
		h.entries = append(slices.Delete(h.entries, i, i+1), entry)

		return h.persist(os.O_TRUNC, h.entries...)
	}

	h.entries = append(h.entries, entry)

	return h.persist(os.O_APPEND, entry)
}

// persist writes entries to the history file, either appending or replacing
// its content according to flag. Must be called with h.mu held.
func (h *History) persist(flag int, entries ...HistoryEntry) error {
	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|flag, 0o600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)

	for _, e := range entries {
		if _, err := io.WriteString(w, e.Mode.prefix()+e.Line+"\n"); err != nil {
			file.Close()

			return err
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()

		return err
	}

	return file.Close()
}

// Entry returns the entry at index i, oldest first.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Seek returns the index of the nearest entry from i, moving by step, that
// satisfies keep. It returns -1 when none does.
func (h *History) Seek(i, step int, keep func(HistoryEntry) bool) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i += step; i >= 0 && i < len(h.entries); i += step {
		if keep == nil || keep(h.entries[i]) {
			return i
		}
	}

	return -1
}
