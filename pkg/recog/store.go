package recog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DirectoryStore loads every fingerprint database document in a directory
// and keeps the databases ordered by descending preference for
// cross-database matching. The loaded set is swapped atomically on reload,
// so matching callers always see a complete snapshot.
type DirectoryStore struct {
	dir    string
	parser *Parser
	log    zerolog.Logger

	mu        sync.RWMutex
	databases []*Database
}

// NewDirectoryStore constructs a store over dir whose documents are parsed
// by parser.
func NewDirectoryStore(dir string, parser *Parser) *DirectoryStore {
	return &DirectoryStore{dir: dir, parser: parser, log: log.Logger}
}

// WithLogger routes reload reports to logger and returns the store for
// chaining.
func (s *DirectoryStore) WithLogger(logger zerolog.Logger) *DirectoryStore {
	s.log = logger
	return s
}

// Load parses every *.xml document in the store directory and replaces the
// active database set. Databases are ordered by descending preference,
// then by key for a stable order among equals.
func (s *DirectoryStore) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read fingerprint directory %s: %w", s.dir, err)
	}

	var databases []*Database
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		db, err := s.parser.ParseFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		databases = append(databases, db)
	}

	sort.SliceStable(databases, func(i, j int) bool {
		if databases[i].Preference != databases[j].Preference {
			return databases[i].Preference > databases[j].Preference
		}
		return databases[i].Key < databases[j].Key
	})

	s.mu.Lock()
	s.databases = databases
	s.mu.Unlock()
	return nil
}

// Databases returns the loaded databases in match-preference order.
func (s *DirectoryStore) Databases() []*Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Database, len(s.databases))
	copy(out, s.databases)
	return out
}

// FirstMatch tries input against every database in preference order and
// returns the first match together with the database that produced it.
func (s *DirectoryStore) FirstMatch(input string) (Match, *Database, bool) {
	for _, db := range s.Databases() {
		if match, ok := db.FirstMatch(input); ok {
			return match, db, true
		}
	}
	return Match{}, nil, false
}

// Watch reloads the store whenever an XML document in the directory
// changes. It blocks until ctx is canceled. A reload failure keeps the
// previous database set and is reported through the store logger.
func (s *DirectoryStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fingerprint watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".xml") {
				continue
			}
			if err := s.Load(); err != nil {
				s.log.Warn().Err(err).Str("path", event.Name).Msg("fingerprint reload failed, keeping previous set")
				continue
			}
			s.log.Info().Str("path", event.Name).Msg("fingerprint databases reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("fingerprint watcher error")
		}
	}
}
