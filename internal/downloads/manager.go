// Package downloads exports media payloads from the archive into a
// plain directory and tracks what has been exported so far.
package downloads

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"peerscope/internal/data"
	"peerscope/internal/domain"
	"peerscope/internal/feed"
)

// Entry is one exported file
type Entry struct {
	ID      string
	Msg     domain.FullMsgID
	Name    string
	Path    string
	Size    int64
	Started time.Time
}

// Manager exports blobs into a downloads directory and keeps the list
// of exports. A filesystem watcher re-announces the list when files
// are removed behind the manager's back, so stale entries disappear
// from views without any polling.
type Manager struct {
	session *data.Session
	dir     string
	watcher *fsnotify.Watcher
	changed feed.Notifier

	mu      sync.RWMutex
	entries []Entry
}

// NewManager creates a manager exporting into dir
func NewManager(session *data.Session, dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch downloads dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch downloads dir: %w", err)
	}

	m := &Manager{session: session, dir: dir, watcher: watcher}
	go m.watch()
	return m, nil
}

// watch re-announces the list when exported files vanish
func (m *Manager) watch() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				m.changed.Emit()
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("downloads: watcher: %v", err)
		}
	}
}

// Close stops the filesystem watcher
func (m *Manager) Close() error {
	return m.watcher.Close()
}

// Dir returns the export directory
func (m *Manager) Dir() string {
	return m.dir
}

// Start exports the payload of one message into the downloads
// directory and records the export
func (m *Manager) Start(id domain.FullMsgID) (Entry, error) {
	msg, err := m.session.Message(id)
	if err != nil {
		return Entry{}, err
	}
	if msg.BlobKey == "" {
		return Entry{}, fmt.Errorf("message %d/%d has no payload", id.Peer, id.Msg)
	}
	payload, err := m.session.Archive().Blobs().Get(msg.BlobKey)
	if err != nil {
		return Entry{}, err
	}

	path := m.targetPath(msg.File)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return Entry{}, fmt.Errorf("write download: %w", err)
	}

	entry := Entry{
		ID:      uuid.NewString(),
		Msg:     id,
		Name:    filepath.Base(path),
		Path:    path,
		Size:    int64(len(payload)),
		Started: time.Now(),
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	m.changed.Emit()
	return entry, nil
}

// targetPath picks a free file name, suffixing duplicates
func (m *Manager) targetPath(name string) string {
	base := name
	if base == "" {
		base = "file"
	}
	path := filepath.Join(m.dir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		path = filepath.Join(m.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// Remove deletes one export and its file
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	var removed *Entry
	for i, e := range m.entries {
		if e.ID == id {
			removed = &e
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	if removed == nil {
		return fmt.Errorf("download %s not found", id)
	}
	if err := os.Remove(removed.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove download: %w", err)
	}
	m.changed.Emit()
	return nil
}

// Slice returns the current exports sorted ascending by start time.
// Entries whose files no longer exist are left out.
func (m *Manager) Slice() []Entry {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if _, err := os.Stat(e.Path); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Started.Before(entries[j].Started)
	})
	return entries
}

// Observe delivers the current list, then again after every change.
// Returns a cancel function.
func (m *Manager) Observe(fn func([]Entry)) func() {
	fn(m.Slice())
	return m.changed.Subscribe(func() { fn(m.Slice()) })
}
