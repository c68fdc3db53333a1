// Package discovery determines the complete set of fragments and support
// files a build needs, given only the master document and a conventional
// fragment naming scheme. The store may lack a listing capability, so
// fragments not yet linked from the master are found by probing a bounded
// ordinal range.
package discovery

import (
	"context"
	"log/slog"
	"slices"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/document"
	ferrors "github.com/bookforge/bookforge/internal/foundation/errors"
	"github.com/bookforge/bookforge/internal/logfields"
	"github.com/bookforge/bookforge/internal/store"
)

// Source records how a fragment was found.
type Source string

const (
	// SourceDirective marks fragments referenced by an inclusion directive
	// already present in the master document.
	SourceDirective Source = "directive"
	// SourceProbe marks fragments found by probing the ordinal range.
	SourceProbe Source = "probe"
)

// Fragment is one unit of document content, identified by its ordinal.
type Fragment struct {
	Ordinal int
	Path    string
	Content []byte
	Source  Source
}

// SupportFile is a fixed-path auxiliary object from the configured manifest.
type SupportFile struct {
	Path    string
	Content []byte
}

// Manifest is the complete input set for one build.
type Manifest struct {
	Master    string
	Fragments []Fragment // ordered ascending by ordinal
	Support   []SupportFile

	// MissingSupport lists manifest entries absent from the store. Their
	// absence is soft; the build continues without them.
	MissingSupport []string

	// Overflow is set when a fragment exists at the probe bound, meaning
	// more fragments may exist beyond it. The range is not extended
	// silently; the condition is surfaced instead.
	Overflow bool
}

// Ordinals returns the fragment ordinals in ascending order.
func (m *Manifest) Ordinals() []int {
	ordinals := make([]int, len(m.Fragments))
	for i, f := range m.Fragments {
		ordinals[i] = f.Ordinal
	}
	return ordinals
}

// Discoverer reads the master document and collects fragments and support
// files. It never mutates the store.
type Discoverer struct {
	store     store.Store
	assembler *document.Assembler
	book      config.BookConfig
}

// New creates a Discoverer.
func New(st store.Store, assembler *document.Assembler, book config.BookConfig) *Discoverer {
	return &Discoverer{store: st, assembler: assembler, book: book}
}

// Discover fetches the master document at ref and resolves the full input
// set. A missing master document is fatal; every other miss is logged and
// absorbed.
func (d *Discoverer) Discover(ctx context.Context, ref string) (*Manifest, error) {
	master, err := d.store.ReadFile(ctx, d.book.MainFile, ref)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ferrors.Wrap(err, ferrors.CategoryFetch, "master document "+d.book.MainFile+" not found").Fatal()
		}
		return nil, ferrors.Wrap(err, ferrors.CategoryStore, "fetch master document "+d.book.MainFile)
	}

	manifest := &Manifest{Master: string(master)}

	explicit := make(map[int]bool)
	for _, n := range d.assembler.ParseOrdinals(manifest.Master) {
		explicit[n] = true
	}

	// Union of directive-referenced ordinals and the probed range.
	candidates := make([]int, 0, len(explicit)+d.book.ProbeLimit)
	for n := range explicit {
		candidates = append(candidates, n)
	}
	for n := 1; n <= d.book.ProbeLimit; n++ {
		if !explicit[n] {
			candidates = append(candidates, n)
		}
	}
	slices.Sort(candidates)

	for _, n := range candidates {
		path := d.assembler.FragmentFile(n)
		content, err := d.store.ReadFile(ctx, path, ref)
		if err != nil {
			if store.IsNotFound(err) {
				if explicit[n] {
					slog.Warn("Fragment referenced by directive is missing", logfields.Fragment(path), logfields.Ref(ref))
				} else {
					slog.Debug("Probed fragment absent", logfields.Fragment(path), logfields.Ordinal(n))
				}
				continue
			}
			return nil, ferrors.Wrap(err, ferrors.CategoryStore, "fetch fragment "+path)
		}

		source := SourceProbe
		if explicit[n] {
			source = SourceDirective
		}
		manifest.Fragments = append(manifest.Fragments, Fragment{Ordinal: n, Path: path, Content: content, Source: source})
		slog.Info("Discovered fragment", logfields.Fragment(path), logfields.Ordinal(n), slog.String("source", string(source)))

		if n == d.book.ProbeLimit {
			manifest.Overflow = true
			slog.Warn("Fragment exists at probe bound, more may exist beyond it",
				logfields.Ordinal(n), slog.Int("probe_limit", d.book.ProbeLimit))
		}
	}

	for _, path := range d.book.SupportFiles {
		content, err := d.store.ReadFile(ctx, path, ref)
		if err != nil {
			if store.IsNotFound(err) {
				manifest.MissingSupport = append(manifest.MissingSupport, path)
				slog.Warn("Support file missing, continuing without it", logfields.File(path), logfields.Ref(ref))
				continue
			}
			return nil, ferrors.Wrap(err, ferrors.CategoryStore, "fetch support file "+path)
		}
		manifest.Support = append(manifest.Support, SupportFile{Path: path, Content: content})
		slog.Debug("Collected support file", logfields.File(path))
	}

	slog.Info("Discovery completed",
		logfields.Ref(ref),
		slog.Int("fragments", len(manifest.Fragments)),
		slog.Int("support_files", len(manifest.Support)),
		slog.Bool("overflow", manifest.Overflow))
	return manifest, nil
}
