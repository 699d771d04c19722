package transfer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nissyi-gh/bucket/internal/model"
)

var now = time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	return []model.Task{
		{
			ID:         5,
			Title:      "An imported to-do",
			CreatedAt:  time.Date(2024, 7, 1, 18, 35, 44, 782e6, time.UTC),
			ReviewedAt: time.Date(2024, 7, 1, 18, 36, 51, 734e6, time.UTC),
			ReviewAt:   time.Date(2024, 7, 1, 18, 35, 44, 782e6, time.UTC),
			Completed:  true,
		},
		{
			ID:         6,
			Title:      "Buy milk",
			CreatedAt:  now,
			ReviewedAt: now,
			ReviewAt:   now.Add(48 * time.Hour),
			Scheduled:  true,
		},
	}
}

func TestEncodeJSON(t *testing.T) {
	out, err := Encode(sampleTasks(), JSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`"id": 5`,
		`"createdAt": "2024-07-01T18:35:44.782Z"`,
		`"reviewedAt": "2024-07-01T18:36:51.734Z"`,
		`"completed": true`,
		"\n  {",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON export missing %q:\n%s", want, s)
		}
	}

	var raw []map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	if len(raw) != 2 {
		t.Errorf("len = %d, want 2", len(raw))
	}
}

func TestEncodeEmptyJSON(t *testing.T) {
	out, err := Encode(nil, JSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(out) != "[]" {
		t.Errorf("Encode(nil) = %q, want []", out)
	}
}

func TestDecodeJSONDropsID(t *testing.T) {
	doc := `[{
		"title": "An imported to-do",
		"createdAt": "2024-07-01T18:35:44.782Z",
		"reviewedAt": "2024-07-01T18:36:51.734Z",
		"reviewAt": "2024-07-01T18:35:44.782Z",
		"scheduled": false,
		"completed": true,
		"id": 5
	}]`
	tasks, err := Decode([]byte(doc), JSON, now)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len = %d, want 1", len(tasks))
	}
	got := tasks[0]
	if got.ID != 0 {
		t.Errorf("ID = %d, want 0", got.ID)
	}
	if got.Title != "An imported to-do" || got.Scheduled || !got.Completed {
		t.Errorf("task = %+v", got)
	}
	if want := time.Date(2024, 7, 1, 18, 35, 44, 782e6, time.UTC); !got.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
}

func TestDecodeMissingDatesDefaultToNow(t *testing.T) {
	tasks, err := Decode([]byte(`[{"title": "bare"}]`), JSON, now)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !tasks[0].ReviewAt.Equal(now) || !tasks[0].CreatedAt.Equal(now) {
		t.Errorf("task = %+v", tasks[0])
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"object", `{"title": "x"}`},
		{"bad date", `[{"title": "ok"}, {"title": "x", "reviewAt": "yesterday"}]`},
		{"blank title", `[{"title": "ok"}, {"title": "  "}]`},
		{"wrong type", `[{"title": "x", "scheduled": "yes"}]`},
	}
	for _, tt := range tests {
		tasks, err := Decode([]byte(tt.doc), JSON, now)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: err = %v, want ErrMalformed", tt.name, err)
		}
		if tasks != nil {
			t.Errorf("%s: got %d tasks from a malformed document", tt.name, len(tasks))
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	out, err := Encode(sampleTasks(), YAML)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(string(out), "tasks:") {
		t.Errorf("YAML export = %q", out)
	}

	tasks, err := Decode(out, YAML, now)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := sampleTasks()
	if len(tasks) != len(want) {
		t.Fatalf("len = %d, want %d", len(tasks), len(want))
	}
	for i := range want {
		if tasks[i].ID != 0 {
			t.Errorf("task %d kept ID %d", i, tasks[i].ID)
		}
		if tasks[i].Title != want[i].Title || tasks[i].Scheduled != want[i].Scheduled || tasks[i].Completed != want[i].Completed {
			t.Errorf("task %d = %+v, want %+v", i, tasks[i], want[i])
		}
		if !tasks[i].ReviewAt.Equal(want[i].ReviewAt) {
			t.Errorf("task %d ReviewAt = %v, want %v", i, tasks[i].ReviewAt, want[i].ReviewAt)
		}
	}
}

func TestDecodeYAMLList(t *testing.T) {
	doc := "- title: first\n  reviewAt: \"2024-07-02\"\n- title: second\n  completed: true\n"
	tasks, err := Decode([]byte(doc), YAML, now)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tasks) != 2 || !tasks[1].Completed {
		t.Fatalf("tasks = %+v", tasks)
	}
	if want := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC); !tasks[0].ReviewAt.Equal(want) {
		t.Errorf("ReviewAt = %v, want %v", tasks[0].ReviewAt, want)
	}
}

func TestDecodeYAMLMalformed(t *testing.T) {
	for _, doc := range []string{"", "just a string", "tasks: [\n"} {
		if _, err := Decode([]byte(doc), YAML, now); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformed", doc, err)
		}
	}
}

func TestDecodeTextUnsupported(t *testing.T) {
	if _, err := Decode([]byte("- [ ] x"), Text, now); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestAgenda(t *testing.T) {
	got := Agenda(sampleTasks())
	want := "2024-07-01:\n- [x] An imported to-do\n\n2024-07-12:\n- [ ] Buy milk (scheduled)\n"
	if got != want {
		t.Errorf("Agenda =\n%q\nwant\n%q", got, want)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": JSON, "JSON": JSON, "yml": YAML, "txt": Text}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("csv"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseFormat(csv) err = %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	if got := FormatFromPath("backup.YAML", JSON); got != YAML {
		t.Errorf("got %q, want yaml", got)
	}
	if got := FormatFromPath("backup", Text); got != Text {
		t.Errorf("got %q, want fallback", got)
	}
}
