// SPDX-License-Identifier: MPL-2.0

package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
	"modkit-cli/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, *report.Collector) {
	t.Helper()
	collector := &report.Collector{}
	engine, err := NewEngine(t.TempDir(), collector)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine, collector
}

func mustCreateTemplate(t *testing.T, engine *Engine, opts CreateOptions) *Template {
	t.Helper()
	tpl, err := engine.CreateTemplate(opts)
	if err != nil {
		t.Fatalf("CreateTemplate(%s) error = %v", opts.ID, err)
	}
	return tpl
}

func TestNewEngine_MissingManifest(t *testing.T) {
	t.Parallel()

	engine, collector := newTestEngine(t)
	if got := len(engine.Templates()); got != 0 {
		t.Errorf("Templates() length = %d, want 0", got)
	}
	if !collector.HasSeverity(report.SeverityWarning) {
		t.Error("expected a warning for the missing manifest")
	}
}

func TestNewEngine_CorruptManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	collector := &report.Collector{}
	engine, err := NewEngine(dir, collector)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if got := len(engine.Templates()); got != 0 {
		t.Errorf("Templates() length = %d, want 0", got)
	}
	if !collector.HasSeverity(report.SeverityWarning) {
		t.Error("expected a warning for the corrupt manifest")
	}
}

func TestCreateTemplate_RegistersAndPersists(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	tpl := mustCreateTemplate(t, engine, CreateOptions{
		ID:          "portscan",
		Name:        "Port Scan",
		Description: "scans a host",
		Content:     "#!/bin/bash\nnmap ${TARGET} -p $PORTS\n",
		ScriptType:  types.ScriptTypeBash,
		Categories:  []string{"recon"},
	})

	if tpl.File != "portscan_template.sh" {
		t.Errorf("File = %q, want %q", tpl.File, "portscan_template.sh")
	}
	wantVars := []string{"TARGET", "PORTS"}
	if len(tpl.Variables) != len(wantVars) {
		t.Fatalf("Variables = %v, want %v", tpl.Variables, wantVars)
	}
	for i, v := range wantVars {
		if tpl.Variables[i] != v {
			t.Errorf("Variables[%d] = %q, want %q", i, tpl.Variables[i], v)
		}
	}

	// A fresh engine on the same directory sees the persisted entry.
	reloaded, err := NewEngine(engine.Dir(), &report.Collector{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if reloaded.TemplateByID("portscan") == nil {
		t.Error("reloaded engine does not see the created template")
	}
}

func TestCreateTemplate_Rejections(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	mustCreateTemplate(t, engine, CreateOptions{
		ID:         "dup",
		Name:       "Dup",
		Content:    "echo hi\n",
		ScriptType: types.ScriptTypeBash,
	})

	tests := []struct {
		name string
		opts CreateOptions
	}{
		{
			name: "duplicate id",
			opts: CreateOptions{ID: "dup", Name: "Dup2", Content: "x", ScriptType: types.ScriptTypeBash},
		},
		{
			name: "empty id",
			opts: CreateOptions{Name: "Anon", Content: "x", ScriptType: types.ScriptTypeBash},
		},
		{
			name: "unknown script type",
			opts: CreateOptions{ID: "weird", Name: "Weird", Content: "x", ScriptType: types.ScriptType("ruby")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.CreateTemplate(tt.opts); err == nil {
				t.Error("CreateTemplate() error = nil, want non-nil")
			}
		})
	}
}

func TestTemplatesByCategory(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	mustCreateTemplate(t, engine, CreateOptions{
		ID: "a", Name: "A", Content: "x", ScriptType: types.ScriptTypeBash,
		Categories: []string{"recon", "web"},
	})
	mustCreateTemplate(t, engine, CreateOptions{
		ID: "b", Name: "B", Content: "x", ScriptType: types.ScriptTypePython,
		Categories: []string{"web"},
	})

	if got := engine.TemplatesByCategory("web"); len(got) != 2 {
		t.Errorf("TemplatesByCategory(web) length = %d, want 2", len(got))
	}
	if got := engine.TemplatesByCategory("recon"); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("TemplatesByCategory(recon) = %v, want [a]", got)
	}
	if got := engine.TemplatesByCategory("none"); len(got) != 0 {
		t.Errorf("TemplatesByCategory(none) length = %d, want 0", len(got))
	}
}

func TestContent_MissingTemplate(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	_, err := engine.Content("ghost")
	if !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("Content(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestContent_MissingSkeletonFile(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	tpl := mustCreateTemplate(t, engine, CreateOptions{
		ID: "gone", Name: "Gone", Content: "x", ScriptType: types.ScriptTypeBash,
	})
	if err := os.Remove(filepath.Join(engine.Dir(), tpl.File)); err != nil {
		t.Fatal(err)
	}

	_, err := engine.Content("gone")
	if !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("Content(gone) error = %v, want ErrNotFound", err)
	}
}

func TestExtractVariables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "both syntaxes deduplicated", content: "${A} $B ${A}", want: []string{"A", "B"}},
		{name: "first seen order", content: "$Z then ${A} then $Z", want: []string{"Z", "A"}},
		{name: "no placeholders", content: "plain text", want: nil},
		{name: "underscores and digits", content: "${VAR_1} $v2", want: []string{"VAR_1", "v2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractVariables(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractVariables() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractVariables()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPopulate_SafeSubstitution(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	mustCreateTemplate(t, engine, CreateOptions{
		ID: "srv", Name: "Server", ScriptType: types.ScriptTypeBash,
		Content: "listen $PORT on $HOST",
	})

	got, err := engine.Populate("srv", map[string]string{"PORT": "8080"})
	if err != nil {
		t.Fatalf("Populate() error = %v", err)
	}
	if want := "listen 8080 on $HOST"; got != want {
		t.Errorf("Populate() = %q, want %q", got, want)
	}
}

func TestCreateModule(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	mustCreateTemplate(t, engine, CreateOptions{
		ID: "scan", Name: "Scan", ScriptType: types.ScriptTypeBash,
		Content: "#!/bin/bash\nnmap ${TARGET}\n",
	})

	dest := filepath.Join(t.TempDir(), "modules", "scan_host.sh")
	md := &metadata.Metadata{
		Name:        "scan_host",
		Description: "scans one host",
		Version:     "1.0.0",
		Author:      "tester",
	}
	if err := engine.CreateModule("scan", dest, map[string]string{"TARGET": "10.0.0.1"}, md); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if want := "#!/bin/bash\nnmap 10.0.0.1\n"; string(data) != want {
		t.Errorf("module content = %q, want %q", string(data), want)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("module mode = %v, want executable", info.Mode())
	}

	codec := metadata.NewCodec(&report.Collector{})
	parsed, err := codec.ParseSidecar(metadata.SidecarPath(dest))
	if err != nil {
		t.Fatalf("ParseSidecar() error = %v", err)
	}
	if parsed.Template != "scan" {
		t.Errorf("sidecar template = %q, want %q", parsed.Template, "scan")
	}
	if parsed.ScriptType != types.ScriptTypeBash {
		t.Errorf("sidecar script_type = %q, want bash", parsed.ScriptType)
	}
}

func TestCreateModule_CallerTemplateValuePreserved(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	mustCreateTemplate(t, engine, CreateOptions{
		ID: "derived", Name: "Derived", ScriptType: types.ScriptTypeBash,
		Content: "echo hi\n",
	})

	dest := filepath.Join(t.TempDir(), "derived_mod.sh")
	md := &metadata.Metadata{
		Name:        "derived_mod",
		Description: "keeps its lineage",
		Version:     "1.0.0",
		Author:      "tester",
		Template:    "upstream",
	}
	if err := engine.CreateModule("derived", dest, nil, md); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}

	codec := metadata.NewCodec(&report.Collector{})
	parsed, err := codec.ParseSidecar(metadata.SidecarPath(dest))
	if err != nil {
		t.Fatalf("ParseSidecar() error = %v", err)
	}
	if parsed.Template != "upstream" {
		t.Errorf("sidecar template = %q, want caller-supplied %q", parsed.Template, "upstream")
	}
}

func TestCreateModule_NoSidecarWhenMetadataNil(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	mustCreateTemplate(t, engine, CreateOptions{
		ID: "bare", Name: "Bare", ScriptType: types.ScriptTypePython,
		Content: "print('hi')\n",
	})

	dest := filepath.Join(t.TempDir(), "bare.py")
	if err := engine.CreateModule("bare", dest, nil, nil); err != nil {
		t.Fatalf("CreateModule() error = %v", err)
	}
	if _, err := os.Stat(metadata.SidecarPath(dest)); !os.IsNotExist(err) {
		t.Errorf("expected no sidecar, stat error = %v", err)
	}
}

func TestCreateModule_MissingTemplateWritesNothing(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	dest := filepath.Join(t.TempDir(), "nothing.sh")
	err := engine.CreateModule("ghost", dest, nil, nil)
	if !errors.Is(err, metadata.ErrNotFound) {
		t.Fatalf("CreateModule() error = %v, want ErrNotFound", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file should not exist after a failed scaffold")
	}
}

func TestDeleteTemplate(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	tpl := mustCreateTemplate(t, engine, CreateOptions{
		ID: "tmp", Name: "Tmp", Content: "x", ScriptType: types.ScriptTypeBash,
	})

	if err := engine.DeleteTemplate("tmp"); err != nil {
		t.Fatalf("DeleteTemplate() error = %v", err)
	}
	if engine.TemplateByID("tmp") != nil {
		t.Error("template still present after delete")
	}
	if _, err := os.Stat(filepath.Join(engine.Dir(), tpl.File)); !os.IsNotExist(err) {
		t.Error("skeleton file still present after delete")
	}

	if err := engine.DeleteTemplate("tmp"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("second DeleteTemplate() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteTemplate_SurvivesMissingFile(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	tpl := mustCreateTemplate(t, engine, CreateOptions{
		ID: "half", Name: "Half", Content: "x", ScriptType: types.ScriptTypeBash,
	})
	if err := os.Remove(filepath.Join(engine.Dir(), tpl.File)); err != nil {
		t.Fatal(err)
	}

	if err := engine.DeleteTemplate("half"); err != nil {
		t.Fatalf("DeleteTemplate() error = %v", err)
	}
	if engine.TemplateByID("half") != nil {
		t.Error("template still present after delete")
	}
}

func TestAddCategory(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	if err := engine.AddCategory("recon", "Reconnaissance", "information gathering"); err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if err := engine.AddCategory("recon", "Again", "dup"); err == nil {
		t.Error("AddCategory() duplicate error = nil, want non-nil")
	}

	cats := engine.Categories()
	if len(cats) != 1 || cats[0].Name != "Reconnaissance" {
		t.Errorf("Categories() = %v, want one entry named Reconnaissance", cats)
	}

	reloaded, err := NewEngine(engine.Dir(), &report.Collector{})
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Categories()) != 1 {
		t.Error("reloaded engine does not see the category")
	}
}
