// Package diffproj parses a single-file unified diff into source-side
// line ranges and projects those ranges onto symbol positions.
//
// The hunk walker is hand-rolled: go-diff and friends compute Myers
// diffs rather than parse existing unified-diff text, which is the
// operation needed here.
package diffproj

import (
	"regexp"
	"strconv"
	"strings"
)

// Hunk is one @@ ... @@ block of a unified diff, with its raw body lines
// (each still carrying its leading ' '/'+'/'-' marker).
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []string
}

// Range is an inclusive 1-based source-side line range.
type Range struct {
	Start int
	End   int
}

var strictHunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// fallbackHunkHeader is the permissive regex used when the strict walker
// produces no hunks at all for a diff that plainly contains "@@" markers
// (e.g. an imprecise or hand-edited diff missing a trailing " @@").
var fallbackHunkHeader = regexp.MustCompile(`@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))?`)

// ParseHunks parses every hunk in a single-file unified diff body. It
// tries the strict line-oriented walker first; if that yields nothing but
// the text contains hunk-like markers, it falls back to a permissive
// regex scan that recovers just the header ranges.
func ParseHunks(diff string) []Hunk {
	hunks := parseStrict(diff)
	if len(hunks) == 0 && strings.Contains(diff, "@@") {
		hunks = parseFallback(diff)
	}
	return hunks
}

func parseStrict(diff string) []Hunk {
	var hunks []Hunk
	var current *Hunk

	lines := strings.Split(diff, "\n")
	for _, line := range lines {
		if m := strictHunkHeader.FindStringSubmatch(line); m != nil {
			if current != nil {
				hunks = append(hunks, *current)
			}
			current = &Hunk{
				OldStart: atoiOr(m[1], 0),
				OldCount: atoiOrDefault(m[2], 1),
				NewStart: atoiOr(m[3], 0),
				NewCount: atoiOrDefault(m[4], 1),
			}
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(line, "diff --git") || strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			continue
		}
		if line == "" && len(current.Lines) == 0 {
			continue
		}
		current.Lines = append(current.Lines, line)
	}
	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks
}

// parseFallback recovers only header ranges, with no line bodies; it is
// used when no line starts with a complete strict header (e.g. a header
// missing its trailing " @@" or preceded by other text) but the diff
// still carries recognisable header ranges.
func parseFallback(diff string) []Hunk {
	var hunks []Hunk
	for _, m := range fallbackHunkHeader.FindAllStringSubmatch(diff, -1) {
		hunks = append(hunks, Hunk{
			OldStart: atoiOr(m[1], 0),
			OldCount: atoiOrDefault(m[2], 1),
			NewStart: atoiOr(m[3], 0),
			NewCount: atoiOrDefault(m[4], 1),
		})
	}
	return hunks
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func atoiOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	return atoiOr(s, def)
}

// Ranges converts hunks into source-side inclusive ranges, trusting the
// header numbers. A zero-length hunk (pure insertion) still yields a
// single-line range so touching symbols register as modified.
func Ranges(hunks []Hunk) []Range {
	ranges := make([]Range, 0, len(hunks))
	for _, h := range hunks {
		length := h.OldCount
		if length < 1 {
			length = 1
		}
		ranges = append(ranges, Range{Start: h.OldStart, End: h.OldStart + length - 1})
	}
	return ranges
}

// Overlaps reports whether [nodeStart, nodeEnd] touches any of ranges,
// inclusive at the boundary.
func Overlaps(nodeStart, nodeEnd int, ranges []Range) bool {
	for _, r := range ranges {
		if nodeStart <= r.End && nodeEnd >= r.Start {
			return true
		}
	}
	return false
}

// ExtractPatchText walks every hunk, tracking the source-line counter
// through removed and context lines (added lines do not advance it), and
// returns only the '+'/'-' lines whose source position falls within
// [nodeStart, nodeEnd]. Context lines and file headers are never emitted.
func ExtractPatchText(hunks []Hunk, nodeStart, nodeEnd int) string {
	var out []string
	for _, h := range hunks {
		counter := h.OldStart
		for _, line := range h.Lines {
			if line == "" {
				continue
			}
			switch line[0] {
			case '+':
				if counter >= nodeStart && counter <= nodeEnd {
					out = append(out, line)
				}
			case '-':
				if counter >= nodeStart && counter <= nodeEnd {
					out = append(out, line)
				}
				counter++
			case ' ':
				counter++
			case '\\':
				// "\ No newline at end of file" is not a content line.
			default:
				counter++
			}
		}
	}
	return strings.Join(out, "\n")
}

// IsFileAdded reports whether the diff marks the file as newly created
// ("--- /dev/null").
func IsFileAdded(diff string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "--- ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "--- ")) == "/dev/null"
		}
	}
	return false
}

// IsFileDeleted reports whether the diff marks the file as removed
// ("+++ /dev/null").
func IsFileDeleted(diff string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++ ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "+++ ")) == "/dev/null"
		}
	}
	return false
}
