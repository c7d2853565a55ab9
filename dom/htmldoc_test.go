package dom

import (
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<html><body>
<ul id="list">
  <li class="item"><a href="/a">First</a> <a class="link" href="#">more</a></li>
  <li class="item"><a href="https://other.example/b">Second</a></li>
  <li class="item"><span>no link</span></li>
</ul>
<nav><a href="/home">Home</a> <a href="/mine">Meus projetos</a></nav>
</body></html>`

func mustParse(t *testing.T, base string) *HTMLDocument {
	t.Helper()
	doc, err := ParseHTML(sample, base)
	require.NoError(t, err)
	return doc
}

func TestHTMLDocument_QueryAll(t *testing.T) {
	doc := mustParse(t, "")
	items, err := doc.QueryAll(context.Background(), "#list .item")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	none, err := doc.QueryAll(context.Background(), ".missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHTMLDocument_QueryAllHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mustParse(t, "").QueryAll(ctx, "li")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTMLDocument_InvalidSelector(t *testing.T) {
	_, err := mustParse(t, "").QueryAll(context.Background(), "li[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selector")
}

func TestElement_QueryAbsentIsNil(t *testing.T) {
	items, err := mustParse(t, "").QueryAll(context.Background(), ".item")
	require.NoError(t, err)

	el, err := items[2].Query("a")
	require.NoError(t, err)
	assert.Nil(t, el)
}

func TestElement_Href(t *testing.T) {
	tests := []struct {
		name string
		base string
		item int
		want string
	}{
		{"relative resolved", "https://www.workana.com/jobs?query=x", 0, "https://www.workana.com/a"},
		{"relative without base", "", 0, "/a"},
		{"absolute kept", "https://www.workana.com/jobs", 1, "https://other.example/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := mustParse(t, tt.base).QueryAll(context.Background(), ".item")
			require.NoError(t, err)
			a, err := items[tt.item].Query("a")
			require.NoError(t, err)
			href, err := a.Href()
			require.NoError(t, err)
			assert.Equal(t, tt.want, href)
		})
	}

	t.Run("no href attribute", func(t *testing.T) {
		items, err := mustParse(t, "").QueryAll(context.Background(), ".item")
		require.NoError(t, err)
		span, err := items[2].Query("span")
		require.NoError(t, err)
		href, err := span.Href()
		require.NoError(t, err)
		assert.Equal(t, "", href)
	})
}

func TestElement_CloneIsDetached(t *testing.T) {
	doc := mustParse(t, "")
	items, err := doc.QueryAll(context.Background(), ".item")
	require.NoError(t, err)

	clone, err := items[0].Clone()
	require.NoError(t, err)
	require.NoError(t, clone.RemoveMatching("a.link"))

	cloneText, _ := clone.Text()
	assert.NotContains(t, cloneText, "more")

	origText, _ := items[0].Text()
	assert.Contains(t, origText, "more", "removing from a clone must not touch the document")
}

func TestHTMLDocument_FindWithText(t *testing.T) {
	doc := mustParse(t, "")

	el, err := doc.Find(Locator{Selector: "a", Text: "Meus projetos"})
	require.NoError(t, err)
	require.NotNil(t, el)
	text, _ := el.Text()
	assert.Equal(t, "Meus projetos", text)

	el, err = doc.Find(Locator{Selector: "a", Text: "Sair"})
	require.NoError(t, err)
	assert.Nil(t, el)

	el, err = doc.Find(CSS("nav a"))
	require.NoError(t, err)
	text, _ = el.Text()
	assert.Equal(t, "Home", text)
}

func TestElement_ClickRunsHook(t *testing.T) {
	doc := mustParse(t, "")
	var clicked []string
	doc.OnClick = func(sel *goquery.Selection) {
		clicked = append(clicked, sel.Text())
	}

	items, err := doc.QueryAll(context.Background(), ".item a.link")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, items[0].Click())
	assert.Equal(t, []string{"more"}, clicked)
}

func TestLocator_String(t *testing.T) {
	assert.Equal(t, "#email-input", CSS("#email-input").String())
	assert.Equal(t, `a (text "Meus projetos")`, Locator{Selector: "a", Text: "Meus projetos"}.String())
}

func TestWaitUntil_String(t *testing.T) {
	assert.Equal(t, "networkidle", NetworkIdle.String())
	assert.Equal(t, "domcontentloaded", DOMContentLoaded.String())
	assert.Equal(t, "WaitUntil(9)", WaitUntil(9).String())
}
