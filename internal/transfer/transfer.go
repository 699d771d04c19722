// Package transfer encodes tasks into portable documents and decodes
// them back.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nissyi-gh/bucket/internal/model"
)

var (
	// ErrMalformed is returned when a document cannot be decoded. Nothing
	// from a malformed document is imported.
	ErrMalformed = errors.New("malformed import document")
	// ErrUnsupported is returned for formats that only go one way.
	ErrUnsupported = errors.New("unsupported format")
)

// Format is a document format.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	Text Format = "text"
)

// ParseFormat maps a user-supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "text", "txt":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
}

// FormatFromPath guesses the format from a file extension, falling back
// to def.
func FormatFromPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	case ".txt", ".md":
		return Text
	default:
		return def
	}
}

// isoLayout matches what JavaScript's Date.toISOString produces.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is the serialized form of a task.
type Record struct {
	ID         int    `json:"id" yaml:"id,omitempty"`
	Title      string `json:"title" yaml:"title"`
	CreatedAt  string `json:"createdAt" yaml:"createdAt"`
	ReviewedAt string `json:"reviewedAt" yaml:"reviewedAt"`
	ReviewAt   string `json:"reviewAt" yaml:"reviewAt"`
	Scheduled  bool   `json:"scheduled" yaml:"scheduled"`
	Completed  bool   `json:"completed" yaml:"completed"`
}

// yamlDocument is the root of a YAML export.
type yamlDocument struct {
	Tasks []Record `yaml:"tasks"`
}

func toRecord(t model.Task) Record {
	return Record{
		ID:         t.ID,
		Title:      t.Title,
		CreatedAt:  t.CreatedAt.UTC().Format(isoLayout),
		ReviewedAt: t.ReviewedAt.UTC().Format(isoLayout),
		ReviewAt:   t.ReviewAt.UTC().Format(isoLayout),
		Scheduled:  t.Scheduled,
		Completed:  t.Completed,
	}
}

// Encode serializes tasks in the given format.
func Encode(tasks []model.Task, f Format) ([]byte, error) {
	records := make([]Record, len(tasks))
	for i, t := range tasks {
		records[i] = toRecord(t)
	}

	switch f {
	case JSON:
		return json.MarshalIndent(records, "", "  ")
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(yamlDocument{Tasks: records}); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case Text:
		return []byte(Agenda(tasks)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, f)
	}
}

// Decode parses a JSON or YAML document into tasks ready to be added to
// a store. IDs are dropped. Missing timestamps default to now.
func Decode(data []byte, f Format, now time.Time) ([]model.Task, error) {
	var records []Record
	switch f {
	case JSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	case YAML:
		var err error
		if records, err = decodeYAML(data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: cannot import %q", ErrUnsupported, f)
	}

	tasks := make([]model.Task, 0, len(records))
	for i, r := range records {
		t, err := fromRecord(r, now)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// decodeYAML accepts both the exported `tasks:` document and a bare list.
func decodeYAML(data []byte) ([]Record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.MappingNode:
		var doc yamlDocument
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return doc.Tasks, nil
	case yaml.SequenceNode:
		var records []Record
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: expected a list of tasks", ErrMalformed)
	}
}

func fromRecord(r Record, now time.Time) (model.Task, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return model.Task{}, model.ErrEmptyTitle
	}

	created, err := parseTime("createdAt", r.CreatedAt, now)
	if err != nil {
		return model.Task{}, err
	}
	reviewed, err := parseTime("reviewedAt", r.ReviewedAt, now)
	if err != nil {
		return model.Task{}, err
	}
	reviewAt, err := parseTime("reviewAt", r.ReviewAt, now)
	if err != nil {
		return model.Task{}, err
	}

	return model.Task{
		Title:      title,
		CreatedAt:  created,
		ReviewedAt: reviewed,
		ReviewAt:   reviewAt,
		Scheduled:  r.Scheduled,
		Completed:  r.Completed,
	}, nil
}

func parseTime(field, s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, def.Location()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s: invalid date %q", field, s)
}
