package acquire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	c := NewChunker(0, 0)
	chunks := c.Split("Acme operates 120 CNG trucks.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Acme operates 120 CNG trucks.", chunks[0])

	assert.Nil(t, c.Split("   "))
}

func TestSplitRespectsMaxSize(t *testing.T) {
	c := NewChunker(200, 40)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("The fleet grew again this year. ")
	}
	chunks := c.Split(b.String())

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 200, "chunk %d exceeds max", i)
	}
}

func TestSplitParagraphBoundaries(t *testing.T) {
	c := NewChunker(100, 0)
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60) + "\n\n" + strings.Repeat("c", 60)

	chunks := c.Split(text)
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0], "a"))
	assert.True(t, strings.HasPrefix(chunks[1], "b"))
	assert.True(t, strings.HasPrefix(chunks[2], "c"))
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("x", 90) + "\n\n" + strings.Repeat("y", 90)

	chunks := c.Split(text)
	require.Len(t, chunks, 2)
	// Second chunk opens with the tail of the first.
	assert.Contains(t, chunks[1], strings.Repeat("x", 20))
}

func TestSplitDegenerateRun(t *testing.T) {
	c := NewChunker(50, 0)
	// One unbroken "word" longer than the chunk bound still terminates.
	chunks := c.Split(strings.Repeat("z", 120) + " trailing words here")
	require.NotEmpty(t, chunks)
}

func TestFilterChunks(t *testing.T) {
	chunks := []string{
		"Quarterly revenue grew by 4 percent.",
		"The company operates 120 CNG trucks across three terminals.",
		"New board members were appointed in March.",
	}

	kept := FilterChunks(chunks, []string{"cng", "natural gas"}, 2)
	require.Len(t, kept, 1)
	assert.Contains(t, kept[0], "CNG trucks")

	// No keyword hits: fall back to a leading sample.
	kept = FilterChunks(chunks, []string{"hydrogen"}, 2)
	assert.Len(t, kept, 2)

	// No keywords: passthrough.
	kept = FilterChunks(chunks, nil, 1)
	assert.Len(t, kept, 3)
}
