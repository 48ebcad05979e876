package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/core/result"
)

const sampleCorpus = `{
  "창1:1": "태초에 하나님이 천지를 창조하시니라",
  "창1:2": "땅이 혼돈하고 공허하며",
  "요3:16": "하나님이 세상을 이처럼 사랑하사",
  "요일4:8": "하나님은 사랑이심이라"
}`

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--log-level", "error"}, args...), &out)
	return out.String(), err
}

func TestQueryJSON(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "bible.json", sampleCorpus)

	out, err := runCLI(t, "--corpus", path, "query", "창", "1:1-2")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	var resp result.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("len(items) = %d, want block + 2 verses", len(resp.Items))
	}
	if resp.Items[0].Title != "창세기 1:1-2" {
		t.Errorf("title = %q", resp.Items[0].Title)
	}
}

func TestQueryText(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "bible.json", sampleCorpus)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "address",
			args: []string{"query", "-o", "text", "요 3:16"},
			want: "요한복음 3:16\n  16. 하나님이 세상을 이처럼 사랑하사\n  -- 요한복음 3장 16절\n",
		},
		{
			name: "global",
			args: []string{"query", "-o", "text", "사랑"},
			want: "요한복음 3:16 : 하나님이 세상을 이처럼 사랑하사\n요한일서 4:8 : 하나님은 사랑이심이라\n",
		},
		{
			name: "limit",
			args: []string{"query", "-o", "text", "--limit", "1", "사랑"},
			want: "요한복음 3:16 : 하나님이 세상을 이처럼 사랑하사\n",
		},
		{
			name: "placeholder",
			args: []string{"query", "-o", "text", "없는말"},
			want: "검색 결과 없음: '없는말'에 대한 결과를 찾을 수 없습니다.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, append([]string{"--corpus", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if diff := cmp.Diff(tt.want, out); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, "--corpus", filepath.Join(dir, "missing.json"), "query", "사랑"); err == nil {
		t.Error("missing corpus: error = nil")
	}

	path := createTestFile(t, dir, "bible.json", sampleCorpus)
	_, err := runCLI(t, "--corpus", path, "query", strings.Repeat("가", 300))
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("long query: error = %v, want invalid input", err)
	}
}

func TestRead(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "bible.json", sampleCorpus)

	out, err := runCLI(t, "--corpus", path, "read", "창세기", "1", "1", "2")
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	want := "창세기 1장\n1. 태초에 하나님이 천지를 창조하시니라\n2. 땅이 혼돈하고 공허하며\n"
	if out != want {
		t.Errorf("read =\n%s\nwant\n%s", out, want)
	}

	_, err = runCLI(t, "--corpus", path, "read", "창", "5", "1")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing chapter: error = %v, want not found", err)
	}
}

func TestBooksJSON(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "bible.json", sampleCorpus)

	out, err := runCLI(t, "--corpus", path, "books", "-o", "json")
	if err != nil {
		t.Fatalf("books error = %v", err)
	}
	var rows []bookRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(rows) != 66 {
		t.Fatalf("len(rows) = %d, want 66", len(rows))
	}
	if diff := cmp.Diff(bookRow{Code: "창", Name: "창세기", Chapters: 1, Verses: 2}, rows[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}
}

func TestBooksText(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "bible.json", sampleCorpus)

	out, err := runCLI(t, "--corpus", path, "books")
	if err != nil {
		t.Fatalf("books error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 68 {
		t.Fatalf("lines = %d, want header + 66 + totals", len(lines))
	}
	if !strings.HasPrefix(lines[0], "CODE") || !strings.Contains(lines[67], "3 books") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "bible.json", sampleCorpus)

	for _, name := range []string{"bible.db", "bible.bolt", "copy.json.xz"} {
		t.Run(name, func(t *testing.T) {
			dst := filepath.Join(dir, name)
			out, err := runCLI(t, "convert", in, dst)
			if err != nil {
				t.Fatalf("convert error = %v", err)
			}
			if !strings.HasPrefix(out, "Wrote 4 verses to "+dst) {
				t.Errorf("output = %q", out)
			}

			got, err := runCLI(t, "--corpus", dst, "query", "-o", "text", "사랑")
			if err != nil {
				t.Fatalf("query converted corpus: %v", err)
			}
			if !strings.Contains(got, "요한일서 4:8") {
				t.Errorf("converted corpus lost verses:\n%s", got)
			}
		})
	}
}

func TestConvertReadOnlyFormat(t *testing.T) {
	dir := t.TempDir()
	in := createTestFile(t, dir, "bible.json", sampleCorpus)

	_, err := runCLI(t, "convert", in, filepath.Join(dir, "bible.xml"))
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("error = %v, want unsupported", err)
	}
}

func TestFormats(t *testing.T) {
	out, err := runCLI(t, "formats")
	if err != nil {
		t.Fatalf("formats error = %v", err)
	}
	if out != "bolt\njson\nsqlite\nzefania\n" {
		t.Errorf("formats = %q", out)
	}

	out, err = runCLI(t, "formats", "bible.sqlite3.gz")
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if !strings.Contains(out, `"format": "sqlite"`) {
		t.Errorf("detect = %s", out)
	}

	if _, err := runCLI(t, "formats", "notes.txt"); err == nil {
		t.Error("detect(.txt) error = nil")
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	corpusPath := createTestFile(t, dir, "bible.json", sampleCorpus)
	cfgPath := createTestFile(t, dir, "search.yaml", "corpus:\n  path: "+corpusPath+"\nsearch:\n  limit: 1\n")

	out, err := runCLI(t, "--config", cfgPath, "query", "-o", "text", "사랑")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("limit from config not applied:\n%s", out)
	}

	bad := createTestFile(t, dir, "bad.yaml", "search:\n  limt: 1\n")
	if _, err := runCLI(t, "--config", bad, "query", "사랑"); err == nil {
		t.Error("unknown config field: error = nil")
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out != "juniper-search version dev\n" {
		t.Errorf("version = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "ingest"); err == nil {
		t.Error("unknown command: error = nil")
	}
}
