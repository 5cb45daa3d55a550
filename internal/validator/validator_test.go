// SPDX-License-Identifier: MPL-2.0

package validator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
)

// noCommands is a lookPath stub where no external command resolves,
// forcing in-process fallbacks.
func noCommands(string) (string, error) {
	return "", errors.New("executable file not found in $PATH")
}

// allCommands resolves every command to a fake path.
func allCommands(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func validMetadata() *metadata.Metadata {
	return &metadata.Metadata{
		Name:        "Test Module",
		Description: "A test module",
		Version:     "1.0.0",
		Author:      "Test User",
		Files:       []metadata.InputSpec{{Name: "targets.txt", Description: "List of target hosts", Required: true}},
		Arguments:   []metadata.InputSpec{{Name: "PORT", Description: "Port number to scan", Required: true}},
	}
}

func TestValidateMetadata(t *testing.T) {
	t.Parallel()

	v := New(withLookPath(noCommands))

	t.Run("valid metadata has no errors", func(t *testing.T) {
		t.Parallel()
		if errs := v.ValidateMetadata(validMetadata()); len(errs) != 0 {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("missing author yields exactly one error naming it", func(t *testing.T) {
		t.Parallel()
		md := validMetadata()
		md.Author = ""
		errs := v.ValidateMetadata(md)
		if len(errs) != 1 {
			t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
		}
		if !strings.Contains(errs[0], "author") {
			t.Errorf("error %q should name the author field", errs[0])
		}
	})

	t.Run("missing multiple fields yields one error each", func(t *testing.T) {
		t.Parallel()
		md := validMetadata()
		md.Author = ""
		md.Description = ""
		errs := v.ValidateMetadata(md)
		if len(errs) != 2 {
			t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
		}
	})

	t.Run("invalid version format", func(t *testing.T) {
		t.Parallel()
		md := validMetadata()
		md.Version = "1.0.0-beta"
		errs := v.ValidateMetadata(md)
		if len(errs) != 1 || !strings.Contains(errs[0], "version format") {
			t.Errorf("errors = %v, want one version format error", errs)
		}
	})

	t.Run("nameless file entry", func(t *testing.T) {
		t.Parallel()
		md := validMetadata()
		md.Files = append(md.Files, metadata.InputSpec{Description: "anonymous"})
		errs := v.ValidateMetadata(md)
		if len(errs) != 1 || !strings.Contains(errs[0], "file #2") {
			t.Errorf("errors = %v, want one error for file #2", errs)
		}
	})
}

func TestValidate_BashContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
		wantOK  bool
	}{
		{
			name:    "valid script",
			content: "#!/bin/bash\necho hello\n",
			wantOK:  true,
		},
		{
			name:    "sh directive accepted",
			content: "#!/bin/sh\necho hello\n",
			wantOK:  true,
		},
		{
			name:    "missing directive",
			content: "echo hello\n",
			wantSub: "should start with #!/bin/bash",
		},
		{
			name:    "dangerous recursive delete",
			content: "#!/bin/bash\nrm -rf /\n",
			wantSub: "Dangerous command detected",
		},
		{
			name:    "dangerous wildcard delete",
			content: "#!/bin/bash\nrm -rf /*\n",
			wantSub: "Dangerous command detected",
		},
		{
			name:    "syntax error",
			content: "#!/bin/bash\nif [ 1 ]; then\necho unclosed\n",
			wantSub: "Bash syntax error",
		},
		{
			name:    "empty file",
			content: "   \n",
			wantSub: "Module file is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// With no shell resolvable the validator uses its in-process
			// parser, keeping this test hermetic.
			v := New(withLookPath(noCommands), WithReporter(&report.Collector{}))
			dir := t.TempDir()
			path := filepath.Join(dir, "mod.sh")
			if err := os.WriteFile(path, []byte(tt.content), 0o755); err != nil {
				t.Fatal(err)
			}

			rep, err := v.Validate(context.Background(), path, nil)
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if rep.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (errors: %v)", rep.OK, tt.wantOK, rep.Errors)
			}
			if tt.wantSub != "" && !containsSubstring(rep.Errors, tt.wantSub) {
				t.Errorf("errors %v should contain %q", rep.Errors, tt.wantSub)
			}
		})
	}
}

func TestValidate_PythonContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
		wantOK  bool
	}{
		{
			name:    "valid script",
			content: "#!/usr/bin/env python3\nprint('hello')\n",
			wantOK:  true,
		},
		{
			name:    "missing directive",
			content: "print('hello')\n",
			wantSub: "should start with #!/usr/bin/env python",
		},
		{
			name:    "dangerous eval",
			content: "#!/usr/bin/env python3\neval('payload')\n",
			wantSub: "dangerous code pattern",
		},
		{
			name:    "dangerous recursive delete",
			content: "#!/usr/bin/env python3\nimport os\nos.system('rm -rf /tmp/x')\n",
			wantSub: "dangerous code pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// No interpreter resolvable: the syntax check degrades to a
			// reported diagnostic and the danger/directive rules still apply.
			collector := &report.Collector{}
			v := New(withLookPath(noCommands), WithReporter(collector))
			dir := t.TempDir()
			path := filepath.Join(dir, "mod.py")
			if err := os.WriteFile(path, []byte(tt.content), 0o755); err != nil {
				t.Fatal(err)
			}

			rep, err := v.Validate(context.Background(), path, nil)
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if rep.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (errors: %v)", rep.OK, tt.wantOK, rep.Errors)
			}
			if tt.wantSub != "" && !containsSubstring(rep.Errors, tt.wantSub) {
				t.Errorf("errors %v should contain %q", rep.Errors, tt.wantSub)
			}
			if !collector.HasSeverity(report.SeverityWarning) {
				t.Error("expected a diagnostic about the skipped interpreter check")
			}
		})
	}
}

func TestValidate_TabModule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
		wantOK  bool
	}{
		{
			name: "valid tab module",
			content: `{"name": "Recon", "tabs": [` +
				`{"title": "Info", "content": "About"},` +
				`{"title": "Run", "script": "echo run"}]}`,
			wantOK: true,
		},
		{
			name:    "invalid json",
			content: `{"name": `,
			wantSub: "Invalid JSON",
		},
		{
			name:    "missing name",
			content: `{"tabs": []}`,
			wantSub: "Missing required field in JSON module: name",
		},
		{
			name:    "missing tabs",
			content: `{"name": "Recon"}`,
			wantSub: "Missing required field in JSON module: tabs",
		},
		{
			name:    "tabs not an array",
			content: `{"name": "Recon", "tabs": "nope"}`,
			wantSub: "'tabs' field must be an array",
		},
		{
			name:    "tab missing title",
			content: `{"name": "Recon", "tabs": [{"content": "x"}]}`,
			wantSub: "Tab #1 missing 'title' field",
		},
		{
			name:    "tab without content or script",
			content: `{"name": "Recon", "tabs": [{"title": "Empty"}]}`,
			wantSub: "Tab #1 must have either 'content' or 'script' field",
		},
		{
			name:    "schema catches wrong title type",
			content: `{"name": "Recon", "tabs": [{"title": 7, "content": "x"}]}`,
			wantSub: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := New(withLookPath(noCommands))
			dir := t.TempDir()
			path := filepath.Join(dir, "mod.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			rep, err := v.Validate(context.Background(), path, nil)
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if rep.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (errors: %v)", rep.OK, tt.wantOK, rep.Errors)
			}
			if tt.wantSub != "" && !containsSubstring(rep.Errors, tt.wantSub) {
				t.Errorf("errors %v should contain %q", rep.Errors, tt.wantSub)
			}
		})
	}
}

func TestValidate_MissingModule(t *testing.T) {
	t.Parallel()

	v := New(withLookPath(noCommands))
	_, err := v.Validate(context.Background(), filepath.Join(t.TempDir(), "ghost.sh"), nil)
	if !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestValidate_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	v := New(withLookPath(noCommands))
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := v.Validate(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if rep.OK || !containsSubstring(rep.Errors, "Unsupported module type") {
		t.Errorf("report = %+v, want unsupported module type error", rep)
	}
}

func TestCheckDependencies(t *testing.T) {
	t.Parallel()

	md := &metadata.Metadata{Dependencies: []string{"nmap -sV", "definitely-not-a-real-tool"}}

	t.Run("all resolvable", func(t *testing.T) {
		t.Parallel()
		v := New(withLookPath(allCommands))
		ok, messages := v.CheckDependencies(md)
		if !ok {
			t.Errorf("ok = false, want true: %v", messages)
		}
		if !containsSubstring(messages, "Dependency found: nmap") {
			t.Errorf("messages %v should report nmap found", messages)
		}
	})

	t.Run("none resolvable", func(t *testing.T) {
		t.Parallel()
		v := New(withLookPath(noCommands))
		ok, messages := v.CheckDependencies(md)
		if ok {
			t.Error("ok = true, want false")
		}
		if !containsSubstring(messages, "Missing dependency: nmap") {
			t.Errorf("messages %v should report nmap missing", messages)
		}
	})

	t.Run("no declared dependencies", func(t *testing.T) {
		t.Parallel()
		v := New(withLookPath(noCommands))
		ok, messages := v.CheckDependencies(&metadata.Metadata{})
		if !ok || messages != nil {
			t.Errorf("got (%v, %v), want (true, nil)", ok, messages)
		}
	})
}

func TestValidateDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	writeFile("good.sh", "#!/bin/bash\necho ok\n")
	writeFile("bad.sh", "echo no directive\n")
	writeFile("good.sh.meta", "name: good\n")  // sidecar: skipped
	writeFile("README.txt", "not a module\n")  // unrecognized: skipped
	writeFile("tabs.json", `{"name": "T", "tabs": [{"title": "A", "content": "x"}]}`)

	v := New(withLookPath(noCommands), WithReporter(&report.Collector{}))
	rep, err := v.ValidateDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ValidateDir() error: %v", err)
	}

	if rep.Passed != 2 || rep.Failed != 1 {
		t.Errorf("passed/failed = %d/%d, want 2/1 (errors: %v)", rep.Passed, rep.Failed, rep.Errors)
	}
	if rep.OK {
		t.Error("OK = true, want false")
	}
	wantSummary := "Validated 3 modules: 2 passed, 1 failed"
	if len(rep.Errors) == 0 || rep.Errors[0] != wantSummary {
		t.Errorf("Errors[0] = %q, want summary %q", rep.Errors[0], wantSummary)
	}
	if !containsSubstring(rep.Errors, "bad.sh") {
		t.Errorf("errors %v should name the failing module", rep.Errors)
	}
}

func TestValidateDir_MissingDirectory(t *testing.T) {
	t.Parallel()

	v := New(withLookPath(noCommands))
	_, err := v.ValidateDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
