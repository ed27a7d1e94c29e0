package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/therealutkarshpriyadarshi/convlog/pkg/types"
)

var (
	// ErrStoreNotFound is returned when the log directory does not exist
	ErrStoreNotFound = errors.New("log store not found")

	// ErrConversationNotFound is returned when no file belongs to the conversation
	ErrConversationNotFound = errors.New("conversation not found")
)

// Locator finds log files inside one store directory
type Locator struct {
	dir  string
	fsys fs.FS
}

type storeFile struct {
	name    string
	modTime time.Time
	size    int64
}

// NewLocator creates a locator for dir
func NewLocator(dir string) *Locator {
	return &Locator{dir: dir, fsys: os.DirFS(dir)}
}

// Dir returns the store directory
func (l *Locator) Dir() string {
	return l.dir
}

// scan lists candidate log files sorted by name
func (l *Locator) scan() ([]storeFile, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, l.dir)
		}
		return nil, fmt.Errorf("failed to stat store directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStoreNotFound, l.dir)
	}

	matches, err := doublestar.Glob(l.fsys, logFilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan store directory: %w", err)
	}
	sort.Strings(matches)

	files := make([]storeFile, 0, len(matches))
	for _, name := range matches {
		fi, err := fs.Stat(l.fsys, name)
		if err != nil || fi.IsDir() {
			// Removed between glob and stat, or a directory named like a log
			continue
		}
		files = append(files, storeFile{name: name, modTime: fi.ModTime(), size: fi.Size()})
	}
	return files, nil
}

func (l *Locator) ref(f storeFile, fn FileName) types.LogFileRef {
	return types.LogFileRef{
		Path:           filepath.Join(l.dir, f.name),
		ConversationID: fn.ConversationID,
		Producer:       fn.Producer,
		ModTime:        f.modTime,
		Size:           f.size,
		Compression:    fn.Compression,
	}
}

// Locate returns the producer files of a conversation, oldest first
func (l *Locator) Locate(conversationID string) ([]types.LogFileRef, error) {
	files, err := l.scan()
	if err != nil {
		return nil, err
	}

	var refs []types.LogFileRef
	for _, f := range files {
		fn, err := MatchConversation(f.name, conversationID)
		if err != nil {
			continue
		}
		refs = append(refs, l.ref(f, fn))
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].ModTime.Before(refs[j].ModTime)
	})
	return refs, nil
}

// LocateLatest resolves the conversation owning the most recently modified
// file and returns its producer files.
func (l *Locator) LocateLatest() (string, []types.LogFileRef, error) {
	files, err := l.scan()
	if err != nil {
		return "", nil, err
	}

	var (
		latestID   string
		latestTime time.Time
	)
	for _, f := range files {
		fn, err := ParseName(f.name)
		if err != nil {
			continue
		}
		if latestID == "" || f.modTime.After(latestTime) {
			latestID = fn.ConversationID
			latestTime = f.modTime
		}
	}

	if latestID == "" {
		return "", nil, fmt.Errorf("%w: no conversation logs in %s", ErrConversationNotFound, l.dir)
	}

	refs, err := l.Locate(latestID)
	if err != nil {
		return latestID, nil, err
	}
	return latestID, refs, nil
}

// Files returns every file in the store that follows the grammar
func (l *Locator) Files() ([]types.LogFileRef, error) {
	files, err := l.scan()
	if err != nil {
		return nil, err
	}

	var refs []types.LogFileRef
	for _, f := range files {
		fn, err := ParseName(f.name)
		if err != nil {
			continue
		}
		refs = append(refs, l.ref(f, fn))
	}
	return refs, nil
}

// Streams returns the consolidated {uuid}{ext} files, newest first
func (l *Locator) Streams() ([]types.LogFileRef, error) {
	refs, err := l.Files()
	if err != nil {
		return nil, err
	}

	var streams []types.LogFileRef
	for _, ref := range refs {
		if ref.Producer == "" {
			streams = append(streams, ref)
		}
	}

	sort.SliceStable(streams, func(i, j int) bool {
		return streams[i].ModTime.After(streams[j].ModTime)
	})
	return streams, nil
}

// Stream returns the consolidated file of one conversation
func (l *Locator) Stream(conversationID string) (types.LogFileRef, error) {
	streams, err := l.Streams()
	if err != nil {
		return types.LogFileRef{}, err
	}
	for _, ref := range streams {
		if ref.ConversationID == conversationID {
			return ref, nil
		}
	}
	return types.LogFileRef{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
}

// ListConversations groups the store by conversation, newest activity first.
// A missing or empty store yields an empty list.
func (l *Locator) ListConversations() ([]types.ConversationSummary, error) {
	refs, err := l.Files()
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return []types.ConversationSummary{}, nil
		}
		return nil, err
	}

	index := make(map[string]*types.ConversationSummary)
	for _, ref := range refs {
		s, ok := index[ref.ConversationID]
		if !ok {
			s = &types.ConversationSummary{ID: ref.ConversationID}
			index[ref.ConversationID] = s
		}
		if ref.ModTime.After(s.LatestActivity) {
			s.LatestActivity = ref.ModTime
		}
		s.FileCount++
	}

	summaries := make([]types.ConversationSummary, 0, len(index))
	for _, s := range index {
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LatestActivity.Equal(summaries[j].LatestActivity) {
			return summaries[i].LatestActivity.After(summaries[j].LatestActivity)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}
