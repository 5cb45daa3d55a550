// SPDX-License-Identifier: MPL-2.0

package validator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"modkit-cli/internal/metadata"
	"modkit-cli/pkg/types"
)

// BulkReport aggregates a directory validation run. The summary line is
// always the first entry of Errors, even when every module passed.
type BulkReport struct {
	OK     bool
	Passed int
	Failed int
	Errors []string
}

// ValidateDir validates every recognized module under dir. Sidecar files and
// unrecognized extensions are skipped. Per-module failures are collected,
// never aborting the walk; a missing directory is a structural error and is
// returned immediately.
func (v *Validator) ValidateDir(ctx context.Context, dir string) (BulkReport, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return BulkReport{}, &metadata.NotFoundError{Path: dir}
	}

	var rep BulkReport

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Sprintf("Validation failed for %s: %s", path, err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, metadata.SidecarSuffix) || !types.IsModulePath(path) {
			return nil
		}

		moduleReport, verr := v.Validate(ctx, path, nil)
		if verr != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Sprintf("Validation failed for %s: %s", path, verr))
			return nil
		}
		if moduleReport.OK {
			rep.Passed++
			return nil
		}
		rep.Failed++
		rep.Errors = append(rep.Errors,
			fmt.Sprintf("Validation failed for %s: %s", path, strings.Join(moduleReport.Errors, ", ")))
		return nil
	})
	if walkErr != nil {
		return BulkReport{}, fmt.Errorf("failed to walk module directory %s: %w", dir, walkErr)
	}

	summary := fmt.Sprintf("Validated %d modules: %d passed, %d failed",
		rep.Passed+rep.Failed, rep.Passed, rep.Failed)
	rep.Errors = append([]string{summary}, rep.Errors...)
	rep.OK = rep.Failed == 0

	return rep, nil
}
