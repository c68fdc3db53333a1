package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/document"
	ferrors "github.com/bookforge/bookforge/internal/foundation/errors"
	"github.com/bookforge/bookforge/internal/store/storetest"
)

const masterWithDirectives = `\documentclass{book}
\begin{document}
\tableofcontents
\include{chapters/chapter2}
\include{chapters/chapter25}
\end{document}
`

func testBook() config.BookConfig {
	return config.BookConfig{
		MainFile:       "main.tex",
		IncludePattern: `\\include\{chapters/chapter(\d+)\}`,
		FragmentPath:   "chapters/chapter%d.tex",
		ProbeLimit:     20,
		SupportFiles:   []string{"preamble.tex", "bibliography.bib"},
	}
}

func newDiscoverer(t *testing.T, st *storetest.MemoryStore) *Discoverer {
	t.Helper()
	book := testBook()
	asm, err := document.NewAssembler(book.IncludePattern, book.FragmentPath)
	require.NoError(t, err)
	return New(st, asm, book)
}

func TestDiscoverMissingMasterIsFatal(t *testing.T) {
	st := storetest.NewMemoryStore("main")
	d := newDiscoverer(t, st)

	_, err := d.Discover(context.Background(), "main")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFetch))
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, classified.IsFatal())
}

func TestDiscoverUnionOfDirectiveAndProbe(t *testing.T) {
	st := storetest.NewMemoryStore("main")
	st.Seed("main", "main.tex", []byte(masterWithDirectives))
	st.Seed("main", "chapters/chapter1.tex", []byte("one"))  // probed, unlinked
	st.Seed("main", "chapters/chapter2.tex", []byte("two"))  // explicit
	st.Seed("main", "chapters/chapter25.tex", []byte("far")) // explicit, beyond probe bound
	st.Seed("main", "preamble.tex", []byte("\\usepackage{}"))

	d := newDiscoverer(t, st)
	m, err := d.Discover(context.Background(), "main")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 25}, m.Ordinals())

	bySource := map[int]Source{}
	for _, f := range m.Fragments {
		bySource[f.Ordinal] = f.Source
	}
	assert.Equal(t, SourceProbe, bySource[1])
	assert.Equal(t, SourceDirective, bySource[2])
	assert.Equal(t, SourceDirective, bySource[25])

	// Missing support file is soft.
	require.Len(t, m.Support, 1)
	assert.Equal(t, "preamble.tex", m.Support[0].Path)
	assert.Equal(t, []string{"bibliography.bib"}, m.MissingSupport)

	assert.False(t, m.Overflow)
}

func TestDiscoverMissingExplicitFragmentIsSoft(t *testing.T) {
	st := storetest.NewMemoryStore("main")
	st.Seed("main", "main.tex", []byte(masterWithDirectives))
	// chapter2 referenced by directive but not present in the store.

	d := newDiscoverer(t, st)
	m, err := d.Discover(context.Background(), "main")
	require.NoError(t, err)
	assert.Empty(t, m.Fragments)
}

func TestDiscoverOverflowAtProbeBound(t *testing.T) {
	st := storetest.NewMemoryStore("main")
	st.Seed("main", "main.tex", []byte(masterWithDirectives))
	st.Seed("main", "chapters/chapter20.tex", []byte("at the bound"))

	d := newDiscoverer(t, st)
	m, err := d.Discover(context.Background(), "main")
	require.NoError(t, err)
	assert.True(t, m.Overflow, "a fragment at the probe bound must flag possible truncation")
}

func TestDiscoverStoreFailureIsNotAbsorbed(t *testing.T) {
	st := storetest.NewMemoryStore("main")
	st.Seed("main", "main.tex", []byte(masterWithDirectives))
	d := newDiscoverer(t, st)

	st.ReadErr = fmt.Errorf("connection reset")
	_, err := d.Discover(context.Background(), "main")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStore))
}
