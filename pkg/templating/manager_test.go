package templating

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/textfilters/pkg/textfilter"
	"github.com/google/go-cmp/cmp"
)

// writeTemplate is a test helper that writes a template file into dir.
func writeTemplate(tb testing.TB, dir, name, content string) {
	tb.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		tb.Fatalf("failed to write template %s: %v", name, err)
	}
}

// setupTestManager creates a TemplateManager over a temporary directory holding
// one page and one partial.
func setupTestManager(tb testing.TB) *TemplateManager {
	tb.Helper()

	dir := tb.TempDir()
	writeTemplate(tb, dir, "article.tmpl.html", `<article>{{ template "header.part.html" .Title }}{{ .Body | br2p }}</article>`)
	writeTemplate(tb, dir, "header.part.html", `<h1>{{ . }}</h1>`)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm, err := NewTemplateManager(logger, DefaultConfig(), dir)
	if err != nil {
		tb.Fatalf("NewTemplateManager failed: %v", err)
	}
	return tm
}

func TestNewTemplateManager(t *testing.T) {
	tm := setupTestManager(t)
	if diff := cmp.Diff([]string{"article.tmpl.html"}, tm.GetPageNames()); diff != "" {
		t.Errorf("page names mismatch (-want +got):\n%s", diff)
	}
	want := []string{"article.tmpl.html", "header.part.html"}
	if diff := cmp.Diff(want, tm.GetTemplateNames()); diff != "" {
		t.Errorf("template names mismatch (-want +got):\n%s", diff)
	}
	if !tm.HasPage("article.tmpl.html") || tm.HasPage("header.part.html") {
		t.Error("HasPage should only report full pages")
	}
}

func TestNewTemplateManager_EmptyDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm, err := NewTemplateManager(logger, nil, t.TempDir())
	if err != nil {
		t.Fatalf("an empty template directory should not be an error: %v", err)
	}
	if len(tm.GetPageNames()) != 0 {
		t.Errorf("expected no pages, got %v", tm.GetPageNames())
	}
	if tm.GetConfig().MaxRepeatLength != DefaultConfig().MaxRepeatLength {
		t.Error("nil config should fall back to the defaults")
	}
}

func TestNewTemplateManager_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken.tmpl.html", `{{ .Body | nosuchfilter }}`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewTemplateManager(logger, nil, dir); err == nil {
		t.Fatal("expected an error for a template using an undefined function")
	}
}

func TestManager_Execute(t *testing.T) {
	tm := setupTestManager(t)
	var buf bytes.Buffer
	data := map[string]string{"Title": "News", "Body": "First.<br><br>Second."}
	if err := tm.Execute(&buf, "article.tmpl.html", data); err != nil {
		t.Fatalf("Execute failed for valid template: %v", err)
	}
	want := "<article><h1>News</h1><p>First.</p><p>Second.</p></article>"
	if buf.String() != want {
		t.Errorf("expected output %q, got %q", want, buf.String())
	}

	err := tm.Execute(&buf, "nonexistent.tmpl.html", nil)
	if err == nil {
		t.Fatal("expected an error for non-existent template, but got nil")
	}
	expectedErrString := `html/template: "nonexistent.tmpl.html" is undefined`
	if !strings.Contains(err.Error(), expectedErrString) {
		t.Errorf("error message mismatch: got '%v', expected to contain '%s'", err, expectedErrString)
	}

	if err = tm.Execute(&buf, "", nil); err == nil {
		t.Error("expected an error for an empty template name")
	}
}

func TestManager_ExecuteTemplateString(t *testing.T) {
	tm := setupTestManager(t)

	var buf bytes.Buffer
	content := `{{ template "header.part.html" "Preview" }}{{ .Text | p2br }}`
	if err := tm.ExecuteTemplateString(&buf, content, map[string]string{"Text": "<p>a</p><p>b</p>"}); err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if want := "<h1>Preview</h1>a<br /><br />b"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	// The same clean set must be reusable after a page has been executed.
	_ = tm.Execute(io.Discard, "article.tmpl.html", map[string]string{})
	buf.Reset()
	if err := tm.ExecuteTemplateString(&buf, `{{ "ab" | repeat 2 }}`, nil); err != nil {
		t.Fatalf("second ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "abab" {
		t.Errorf("expected abab, got %q", buf.String())
	}

	if err := tm.ExecuteTemplateString(io.Discard, `{{ if }}`, nil); err == nil {
		t.Error("expected a parse error for a malformed template string")
	}
}

func TestManager_Refresh(t *testing.T) {
	tm := setupTestManager(t)
	initialCount := len(tm.GetPageNames())

	writeTemplate(t, tm.GetTemplateDir(), "new.tmpl.html", `New Content`)
	if err := tm.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := len(tm.GetPageNames()); got != initialCount+1 {
		t.Errorf("expected %d templates after refresh, got %d", initialCount+1, got)
	}

	// A broken file is rejected and the previous set stays usable.
	writeTemplate(t, tm.GetTemplateDir(), "broken.tmpl.html", `{{ end }}`)
	if err := tm.Refresh(); err == nil {
		t.Fatal("expected Refresh to fail on a malformed template")
	}
	if !tm.HasPage("new.tmpl.html") {
		t.Error("previous template set should survive a failed refresh")
	}
}

func TestManager_SetConfig(t *testing.T) {
	tm := setupTestManager(t)
	newConfig := DefaultConfig()
	newConfig.MaxRepeatLength = 4
	newConfig.DisabledFilters = []string{textfilter.FilterHash}
	tm.SetConfig(newConfig)

	if tm.GetConfig().MaxRepeatLength != 4 {
		t.Errorf("SetConfig failed to update MaxRepeatLength: got %d", tm.GetConfig().MaxRepeatLength)
	}
	for _, name := range tm.FilterNames() {
		if name == textfilter.FilterHash {
			t.Error("hash should no longer be listed after being disabled")
		}
	}

	if err := tm.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	err := tm.ExecuteTemplateString(io.Discard, `{{ "abc" | repeat 2 }}`, nil)
	if !errors.Is(err, textfilter.ErrRepeatTooLong) {
		t.Errorf("expected the new repeat limit to apply, got %v", err)
	}
	if err = tm.ExecuteTemplateString(io.Discard, `{{ "x" | hash "md5" }}`, nil); err == nil {
		t.Error("expected disabled hash filter to be rejected")
	}
}

func TestManager_ValidateTemplateString(t *testing.T) {
	tm := setupTestManager(t)
	if err := tm.ValidateTemplateString("ok.tmpl.html", `{{ template "header.part.html" "x" }}{{ .Body | paragraphs_slice 0 1 }}`); err != nil {
		t.Errorf("valid template rejected: %v", err)
	}
	if err := tm.ValidateTemplateString("bad.tmpl.html", `{{ .Body | nosuchfilter }}`); err == nil {
		t.Error("expected an unknown function to be rejected")
	}
	if tm.HasPage("ok.tmpl.html") {
		t.Error("validation must not add the template to the loaded set")
	}
}

func TestManager_ApplyFilter(t *testing.T) {
	tm := setupTestManager(t)
	got, err := tm.ApplyFilter(textfilter.FilterBr2p, "a<br><br>b")
	if err != nil {
		t.Fatalf("ApplyFilter failed: %v", err)
	}
	if got != "<p>a</p><p>b</p>" {
		t.Errorf("ApplyFilter returned %q", got)
	}
}

// BenchmarkExecute_Filters measures a page that runs every filter once.
func BenchmarkExecute_Filters(b *testing.B) {
	tm := setupTestManager(b)
	content := `{{ .Body | br2p }}{{ .Body | br2p | p2br }}{{ .Body | hash "sha256" }}` +
		`{{ .Body | regex_replace "<br\\s*/?>" "\n" }}{{ "-" | repeat 40 }}` +
		`{{ range .Body | br2p | paragraphs_slice 1 }}{{ . }}{{ end }}`
	writeTemplate(b, tm.GetTemplateDir(), "bench.tmpl.html", content)
	if err := tm.Refresh(); err != nil {
		b.Fatalf("failed to refresh after writing template: %v", err)
	}
	data := map[string]string{"Body": strings.Repeat("Line one.<br />Line two.<br /><br />", 20)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tm.Execute(io.Discard, "bench.tmpl.html", data)
	}
}
