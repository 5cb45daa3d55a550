// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"strings"

	"modkit-cli/pkg/types"
)

// Legacy metadata markers. Case-sensitive, matched at line start.
const (
	markerFilesStart  = "# STARTFILES"
	markerFilesEnd    = "# ENDFILES"
	markerArgsStart   = "# ARGS"
	markerArgsEnd     = "# ENDARGS"
	markerNessusStart = "# NESSUSFINDING"
	markerNessusEnd   = "# ENDNESSUS"
	markerAuthor      = "# AUTHOR:"
)

// legacyVersion and legacyDescription are synthesized for legacy modules,
// which never declare either. Callers must not treat them as user intent.
const (
	legacyVersion     = types.Version("1.0.0")
	legacyDescription = "Converted from legacy format"
)

// scanState tracks which marker-delimited section the scanner is inside.
type scanState int

const (
	stateOutside scanState = iota
	stateInFiles
	stateInArgs
	stateInNessus
)

// ParseLegacy extracts metadata from the marker-delimited comment blocks
// embedded in module content. The scan is a single pass over the lines with
// an explicit section state machine; it never fails. Name and script type
// are not derivable from content alone and are left for the caller.
func ParseLegacy(content string) *Metadata {
	md := &Metadata{
		Description:    legacyDescription,
		Version:        legacyVersion,
		Files:          []InputSpec{},
		Arguments:      []InputSpec{},
		NessusFindings: []string{},
		Categories:     []string{},
	}

	state := stateOutside
	for _, line := range strings.Split(content, "\n") {
		switch state {
		case stateOutside:
			switch {
			case strings.HasPrefix(line, markerFilesStart):
				state = stateInFiles
			case strings.HasPrefix(line, markerNessusStart):
				state = stateInNessus
			case strings.HasPrefix(line, markerArgsStart):
				state = stateInArgs
			case strings.HasPrefix(line, markerAuthor):
				if md.Author == "" {
					md.Author = strings.TrimSpace(strings.TrimPrefix(line, markerAuthor))
				}
			}
		case stateInFiles:
			if strings.HasPrefix(line, markerFilesEnd) {
				state = stateOutside
				continue
			}
			if name, desc, ok := parseMemberLine(line); ok {
				md.Files = append(md.Files, InputSpec{Name: name, Description: desc, Required: true})
			}
		case stateInArgs:
			if strings.HasPrefix(line, markerArgsEnd) {
				state = stateOutside
				continue
			}
			if name, desc, ok := parseMemberLine(line); ok {
				md.Arguments = append(md.Arguments, InputSpec{Name: name, Description: desc, Required: true})
			}
		case stateInNessus:
			if strings.HasPrefix(line, markerNessusEnd) {
				state = stateOutside
				continue
			}
			if finding, ok := parseFindingLine(line); ok {
				md.NessusFindings = append(md.NessusFindings, finding)
			}
		}
	}

	return md
}

// parseMemberLine parses one FILES/ARGS section member. The member text is
// the line with its comment marker stripped; it splits on the first double
// quote into name and description. Blank members are skipped.
func parseMemberLine(line string) (name, desc string, ok bool) {
	text, ok := memberText(line)
	if !ok {
		return "", "", false
	}
	before, after, quoted := strings.Cut(text, `"`)
	if !quoted {
		return text, "", true
	}
	return strings.TrimSpace(before), strings.Trim(after, `" `), true
}

// parseFindingLine parses one NESSUSFINDING member, taken verbatim (trimmed).
func parseFindingLine(line string) (string, bool) {
	return memberText(line)
}

func memberText(line string) (string, bool) {
	text := strings.TrimSpace(line)
	if strings.HasPrefix(text, "#") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "#"))
	}
	if text == "" {
		return "", false
	}
	return text, true
}

// FormatLegacy renders metadata in the six-marker block form. Empty sections
// are omitted; each emitted section is followed by a blank line.
func FormatLegacy(md *Metadata) string {
	var lines []string

	appendSection := func(start, end string, specs []InputSpec) {
		if len(specs) == 0 {
			return
		}
		lines = append(lines, start)
		for _, spec := range specs {
			if spec.Description != "" {
				lines = append(lines, "# "+spec.Name+" \""+spec.Description+"\"")
			} else {
				lines = append(lines, "# "+spec.Name)
			}
		}
		lines = append(lines, end, "")
	}

	appendSection(markerFilesStart, markerFilesEnd, md.Files)
	appendSection(markerArgsStart, markerArgsEnd, md.Arguments)

	if len(md.NessusFindings) > 0 {
		lines = append(lines, markerNessusStart)
		for _, finding := range md.NessusFindings {
			lines = append(lines, "# "+finding)
		}
		lines = append(lines, markerNessusEnd, "")
	}

	if md.Author != "" {
		lines = append(lines, markerAuthor+" "+md.Author, "")
	}

	return strings.Join(lines, "\n")
}

// RemoveLegacy strips all marker-delimited sections and author lines from
// module content, preserving everything else verbatim.
func RemoveLegacy(content string) string {
	var b strings.Builder
	state := stateOutside

	for _, line := range strings.SplitAfter(content, "\n") {
		switch state {
		case stateOutside:
			switch {
			case strings.HasPrefix(line, markerFilesStart):
				state = stateInFiles
			case strings.HasPrefix(line, markerNessusStart):
				state = stateInNessus
			case strings.HasPrefix(line, markerArgsStart):
				state = stateInArgs
			case strings.HasPrefix(line, markerAuthor):
				// dropped
			default:
				b.WriteString(line)
			}
		case stateInFiles:
			if strings.HasPrefix(line, markerFilesEnd) {
				state = stateOutside
			}
		case stateInArgs:
			if strings.HasPrefix(line, markerArgsEnd) {
				state = stateOutside
			}
		case stateInNessus:
			if strings.HasPrefix(line, markerNessusEnd) {
				state = stateOutside
			}
		}
	}

	return b.String()
}

// InsertLegacy strips any existing legacy blocks from content and inserts a
// freshly formatted block. When the content opens with an interpreter
// directive the block lands immediately after that line.
func InsertLegacy(content string, md *Metadata) string {
	stripped := RemoveLegacy(content)
	block := FormatLegacy(md)

	if strings.HasPrefix(stripped, "#!") {
		directive, rest, found := strings.Cut(stripped, "\n")
		if !found {
			return directive + "\n\n" + block
		}
		return directive + "\n\n" + block + rest
	}
	return block + stripped
}
