package document

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// directiveBlockHeader labels the generated include block. It is stripped
// alongside the directives on reassembly, which is what makes the assembler a
// fixed point on its own output.
const directiveBlockHeader = "% Chapter includes (generated)"

// Assembler splices an ordered set of fragment ordinals into a master
// document as inclusion directives.
type Assembler struct {
	includeRe    *regexp.Regexp
	fragmentPath string // printf template with one %d verb
}

// NewAssembler compiles the configured inclusion-directive pattern. The
// pattern must capture the fragment ordinal in its single group.
func NewAssembler(includePattern, fragmentPath string) (*Assembler, error) {
	re, err := regexp.Compile(includePattern)
	if err != nil {
		return nil, fmt.Errorf("compile include pattern: %w", err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("include pattern must capture exactly one ordinal group, has %d", re.NumSubexp())
	}
	return &Assembler{includeRe: re, fragmentPath: fragmentPath}, nil
}

// Directive renders the inclusion directive for one ordinal. The path is the
// fragment path without its .tex extension, matching what the typesetter's
// \include expects.
func (a *Assembler) Directive(ordinal int) string {
	path := strings.TrimSuffix(fmt.Sprintf(a.fragmentPath, ordinal), ".tex")
	return fmt.Sprintf(`\include{%s}`, path)
}

// Assemble produces a new master document containing one inclusion directive
// per ordinal, de-duplicated and ordered ascending. Existing directives in the
// chapter region are stripped first, so assembling the assembler's own output
// with the same ordinal set reproduces it byte for byte.
func (a *Assembler) Assemble(text string, ordinals []int) (string, error) {
	m, err := ParseMaster(text)
	if err != nil {
		return "", err
	}

	front, rest := splitFrontMatter(m.Body)
	rest = a.stripDirectives(rest)

	ordered := slices.Clone(ordinals)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	var block string
	if len(ordered) > 0 {
		lines := make([]string, 0, len(ordered)+1)
		lines = append(lines, directiveBlockHeader)
		for _, n := range ordered {
			lines = append(lines, a.Directive(n))
		}
		block = strings.Join(lines, "\n")
	}

	// Segments joined by single newlines, empty segments skipped. This
	// canonical spacing is what keeps reassembly deterministic.
	segments := []string{m.Preamble, strings.TrimSpace(front), block, strings.TrimSpace(rest), m.Closing}
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n"), nil
}

// stripDirectives removes inclusion directives and the generated block header
// from the chapter region. Only the directive text is removed; a line is
// dropped only when nothing but whitespace remains, so prose sharing a line
// with a directive survives.
func (a *Assembler) stripDirectives(region string) string {
	lines := strings.Split(region, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == directiveBlockHeader {
			continue
		}
		if a.includeRe.MatchString(line) {
			line = a.includeRe.ReplaceAllString(line, "")
			if strings.TrimSpace(line) == "" {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// ParseOrdinals extracts the fragment ordinals referenced by inclusion
// directives already present in the master text.
func (a *Assembler) ParseOrdinals(text string) []int {
	matches := a.includeRe.FindAllStringSubmatch(text, -1)
	ordinals := make([]int, 0, len(matches))
	for _, match := range matches {
		if n, err := strconv.Atoi(match[1]); err == nil {
			ordinals = append(ordinals, n)
		}
	}
	return ordinals
}

// FragmentFile renders the store path for one ordinal.
func (a *Assembler) FragmentFile(ordinal int) string {
	return fmt.Sprintf(a.fragmentPath, ordinal)
}
