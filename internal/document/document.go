package document

import (
	"strings"

	ferrors "github.com/bookforge/bookforge/internal/foundation/errors"
)

// LaTeX structural markers. The begin/end pair bounds the document body; the
// table-of-contents marker separates front matter from the chapter region.
const (
	BeginDocument = `\begin{document}`
	EndDocument   = `\end{document}`
	TOCMarker     = `\tableofcontents`
)

// Master is a parsed master document skeleton.
//
// Preamble runs from the start of the text through the begin-document marker.
// Body is everything between the markers. Closing runs from the end-document
// marker to the end of the text and is carried through reassembly verbatim.
type Master struct {
	Preamble string
	Body     string
	Closing  string
}

// ParseMaster splits master document text at the begin/end document markers.
// Exactly one of each marker must exist, in order; anything else is a fatal
// structural error and the build must not reach the toolchain.
func ParseMaster(text string) (*Master, error) {
	switch n := strings.Count(text, BeginDocument); n {
	case 1:
	case 0:
		return nil, ferrors.Newf(ferrors.CategoryStructural, "missing %s marker", BeginDocument).Fatal()
	default:
		return nil, ferrors.Newf(ferrors.CategoryStructural, "found %d %s markers, want exactly one", n, BeginDocument).Fatal()
	}
	switch n := strings.Count(text, EndDocument); n {
	case 1:
	case 0:
		return nil, ferrors.Newf(ferrors.CategoryStructural, "missing %s marker", EndDocument).Fatal()
	default:
		return nil, ferrors.Newf(ferrors.CategoryStructural, "found %d %s markers, want exactly one", n, EndDocument).Fatal()
	}

	begin := strings.Index(text, BeginDocument)
	end := strings.Index(text, EndDocument)
	if end < begin {
		return nil, ferrors.Newf(ferrors.CategoryStructural, "%s precedes %s", EndDocument, BeginDocument).Fatal()
	}

	bodyStart := begin + len(BeginDocument)
	return &Master{
		Preamble: text[:bodyStart],
		Body:     text[bodyStart:end],
		Closing:  text[end:],
	}, nil
}

// splitFrontMatter splits a document body at the table-of-contents marker.
// Front matter covers everything up to and including the line holding the
// marker. When the marker is absent the whole body is treated as the chapter
// region, so pre-existing directives still get normalized on reassembly.
func splitFrontMatter(body string) (front, rest string) {
	idx := strings.Index(body, TOCMarker)
	if idx < 0 {
		return "", body
	}
	nl := strings.Index(body[idx:], "\n")
	if nl < 0 {
		return body, ""
	}
	cut := idx + nl + 1
	return body[:cut], body[cut:]
}
