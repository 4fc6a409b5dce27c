package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned response or error.
type fakeCompleter struct {
	content string
	err     error
	lastReq Request
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (*Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.content}, nil
}

func (f *fakeCompleter) Provider() string { return "fake" }
func (f *fakeCompleter) Model() string    { return "fake-model" }

func TestCategorizer_ParsesResponse(t *testing.T) {
	fake := &fakeCompleter{content: `{
		"categories": ["cs.LG", "cs.NE", "stat.ML"],
		"category_map": {"cs.LG": "Machine Learning", "cs.NE": "Neural Computing", "stat.ML": "Statistics ML"}
	}`}
	c := NewCategorizer(fake)

	got, err := c.Categorize(context.Background(), "graph neural networks")
	require.NoError(t, err)
	assert.Equal(t, []string{"cs.LG", "cs.NE", "stat.ML"}, got.Categories)
	assert.Equal(t, "Machine Learning", got.CategoryMap["cs.LG"])
	assert.Equal(t, "fake-model", got.Model)
	assert.True(t, fake.lastReq.JSONMode)
}

func TestCategorizer_FillsMissingLabelsWithCode(t *testing.T) {
	fake := &fakeCompleter{content: `{
		"categories": ["cs.LG", "cs.NE", "stat.ML"],
		"category_map": {"cs.LG": "Machine Learning"}
	}`}
	c := NewCategorizer(fake)

	got, err := c.Categorize(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "stat.ML", got.CategoryMap["stat.ML"])
}

func TestCategorizer_AllowsNonStandardCategoryCount(t *testing.T) {
	fake := &fakeCompleter{content: `{"categories": ["cs.LG"], "category_map": {}}`}
	c := NewCategorizer(fake)

	got, err := c.Categorize(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"cs.LG"}, got.Categories)
}

func TestCategorizer_AllowsZeroCategories(t *testing.T) {
	fake := &fakeCompleter{content: `{"categories": [], "category_map": {}}`}
	c := NewCategorizer(fake)

	got, err := c.Categorize(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, got.Categories)
}

func TestCategorizer_PropagatesCompletionError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("model unavailable")}
	c := NewCategorizer(fake)

	_, err := c.Categorize(context.Background(), "q")
	assert.Error(t, err)
}

func TestCategorizer_RejectsMalformedJSON(t *testing.T) {
	fake := &fakeCompleter{content: `not json at all`}
	c := NewCategorizer(fake)

	_, err := c.Categorize(context.Background(), "q")
	assert.Error(t, err)
}
