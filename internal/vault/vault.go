package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"vaultcal/internal/domain"
)

const (
	frontmatterDelim = "---"
	noteExtension    = ".md"
)

// Store reads and writes event notes under a vault directory.
// Notes carry a frontmatter block delimited by "---" lines; values are
// written JSON-encoded, which is also valid YAML, so hand-edited
// frontmatter parses the same way.
type Store struct {
	root   string
	logger *zap.Logger
}

func New(root string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger}
}

// ListEvents returns all sync-eligible event records under the root.
// A note is eligible when its frontmatter "type" equals the event marker
// and "date" is present; everything else is silently excluded.
func (s *Store) ListEvents() ([]*domain.EventRecord, error) {
	var records []*domain.EventRecord

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), noteExtension) {
			return nil
		}

		meta, body, err := s.readNote(path)
		if err != nil {
			s.logger.Warn("skipping unreadable note",
				zap.String("path", path), zap.Error(err))
			return nil
		}

		if metaString(meta, domain.MetaType) != domain.TypeEvent {
			return nil
		}
		date := metaString(meta, domain.MetaDate)
		if date == "" {
			return nil
		}

		records = append(records, &domain.EventRecord{
			Path:        path,
			Name:        strings.TrimSuffix(d.Name(), noteExtension),
			Date:        date,
			StartTime:   metaString(meta, domain.MetaStartTime),
			EndTime:     metaString(meta, domain.MetaEndTime),
			Description: body,
			Location:    metaString(meta, domain.MetaLocation),
			URL:         metaString(meta, domain.MetaURL),
			GUID:        metaString(meta, domain.MetaGUID),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault %s: %w", s.root, err)
	}

	return records, nil
}

// UpdateMetadata applies edit to the note's frontmatter map and rewrites
// the note, preserving the body and any keys the edit did not touch.
// The rewrite goes through a temp file and rename.
func (s *Store) UpdateMetadata(path string, edit func(meta map[string]any)) error {
	meta, body, err := s.readNote(path)
	if err != nil {
		return fmt.Errorf("read note: %w", err)
	}

	edit(meta)

	content, err := renderNote(meta, body)
	if err != nil {
		return fmt.Errorf("render note: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace note: %w", err)
	}
	return nil
}

// CreateEvent creates a new event note with the given metadata and body.
// The name is sanitized; on a name collision a numeric suffix is added.
// Returns the path of the created note.
func (s *Store) CreateEvent(name, body string, meta map[string]any) (string, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return "", fmt.Errorf("create events dir: %w", err)
	}

	name = SanitizeName(name)
	if name == "" {
		name = "Untitled event"
	}

	content, err := renderNote(meta, body)
	if err != nil {
		return "", fmt.Errorf("render note: %w", err)
	}

	for i := 0; i < 100; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s %d", name, i+1)
		}
		path := filepath.Join(s.root, candidate+noteExtension)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create note: %w", err)
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return "", fmt.Errorf("write note: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close note: %w", err)
		}
		return path, nil
	}

	return "", fmt.Errorf("no free note name for %q", name)
}

// SanitizeName replaces path-hostile characters in a note name
func SanitizeName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(name)
}

func (s *Store) readNote(path string) (map[string]any, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return parseNote(string(raw))
}

// parseNote splits a note into its frontmatter map and body.
// A note without a frontmatter block has an empty map and the whole
// content as body.
func parseNote(content string) (map[string]any, string, error) {
	meta := make(map[string]any)

	if !strings.HasPrefix(content, frontmatterDelim+"\n") {
		return meta, content, nil
	}

	rest := content[len(frontmatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter block")
	}

	block := rest[:end]
	body := rest[end+len(frontmatterDelim)+1:]
	// Ending of the delimiter line, then the blank separator line.
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta == nil {
		meta = make(map[string]any)
	}
	return meta, body, nil
}

// renderNote serializes the note with frontmatter keys in a stable order:
// the known event keys first, any remaining keys sorted after them.
func renderNote(meta map[string]any, body string) (string, error) {
	known := []string{
		domain.MetaType, domain.MetaDate,
		domain.MetaStartTime, domain.MetaEndTime,
		domain.MetaLocation, domain.MetaURL, domain.MetaGUID,
	}

	var keys []string
	seen := make(map[string]bool)
	for _, k := range known {
		if _, ok := meta[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range meta {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var sb strings.Builder
	sb.WriteString(frontmatterDelim + "\n")
	for _, k := range keys {
		v, err := json.Marshal(meta[k])
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", k, err)
		}
		sb.WriteString(k + ": " + string(v) + "\n")
	}
	sb.WriteString(frontmatterDelim + "\n")
	if body != "" {
		sb.WriteString("\n" + body)
	}
	return sb.String(), nil
}

func metaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		// yaml resolves unquoted dates in hand-edited frontmatter
		return s.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}
