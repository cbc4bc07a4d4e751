package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<html><body>
<div class="list">
  <a href="/a" target="_blank"> A </a>
  <a href="/b">B</a>
</div>
</body></html>`

func TestDocumentQueries(t *testing.T) {
	doc, err := ParseDocument(sampleHTML)
	require.NoError(t, err)

	links := doc.All(".list a")
	require.Len(t, links, 2)
	assert.Equal(t, " A ", links[0].Text())

	target, ok := links[0].Attr("target")
	assert.True(t, ok)
	assert.Equal(t, "_blank", target)

	_, ok = links[1].Attr("target")
	assert.False(t, ok)

	list, ok := doc.First(".list")
	require.True(t, ok)
	b, ok := list.First(`a[href="/b"]`)
	require.True(t, ok)
	assert.Equal(t, "B", b.Text())
}

func TestDocumentMissingElements(t *testing.T) {
	doc, err := ParseDocument(sampleHTML)
	require.NoError(t, err)

	_, ok := doc.First(".absent")
	assert.False(t, ok)
	assert.Empty(t, doc.All(".absent"))
}

func TestParseLoadCondition(t *testing.T) {
	c, err := ParseLoadCondition(" NetworkIdle ")
	require.NoError(t, err)
	assert.Equal(t, LoadConditionNetworkIdle, c)

	_, err = ParseLoadCondition("commit")
	assert.Error(t, err)
}

func TestResponseOK(t *testing.T) {
	assert.True(t, Response{Status: 204}.OK())
	assert.False(t, Response{Status: 404}.OK())
	assert.False(t, Response{}.OK())
}
