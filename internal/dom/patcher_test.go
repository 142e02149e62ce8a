package dom

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func renderDoc(t *testing.T, doc *html.Node) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, html.Render(&sb, doc))
	return sb.String()
}

// TestPatcherTextUnit Text 单元回写：空白原样保留，原节点被恰好一个包装元素取代
func TestPatcherTextUnit(t *testing.T) {
	doc := parseDoc(t, "<html><body><span>  Hello world \n</span></body></html>")
	marks := NewMarks()
	units := NewClassifier(marks, nil).Classify(doc)
	require.Len(t, units, 1)
	require.Equal(t, UnitText, units[0].Kind)

	p := NewPatcher(marks, nil)
	require.NoError(t, p.Apply(units[0], "Bonjour le monde"))

	out := renderDoc(t, doc)
	assert.Contains(t, out, "  <span class=\"pgt-translated\" data-pgt-original=\"Hello world\">Bonjour le monde</span> \n")
	assert.NotContains(t, out, ">Hello world<")

	gq := goquery.NewDocumentFromNode(doc)
	sel := gq.Find("span.pgt-translated")
	require.Equal(t, 1, sel.Length())
	orig, ok := sel.Attr("data-pgt-original")
	require.True(t, ok)
	assert.Equal(t, "Hello world", orig)
}

// TestPatcherDetachedAnchor 锚点已脱离文档时回写是无操作
func TestPatcherDetachedAnchor(t *testing.T) {
	doc := parseDoc(t, "<html><body><span>vanishing text</span></body></html>")
	marks := NewMarks()
	units := NewClassifier(marks, nil).Classify(doc)
	require.Len(t, units, 1)

	// 页面脚本在译文到达前移除了节点
	anchor := units[0].Anchor
	anchor.Parent.RemoveChild(anchor)

	p := NewPatcher(marks, nil)
	require.NoError(t, p.Apply(units[0], "texte disparu"))

	out := renderDoc(t, doc)
	assert.NotContains(t, out, "texte disparu")
	assert.NotContains(t, out, TranslatedClass)
}

// TestPatcherBlockUnit Block 单元回写：内部标记整体替换，元素获得标识与原文属性
func TestPatcherBlockUnit(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Hello <b>world</b></p></body></html>`)
	marks := NewMarks()
	units := NewClassifier(marks, nil).Classify(doc)
	require.Len(t, units, 1)
	require.Equal(t, UnitBlock, units[0].Kind)

	p := NewPatcher(marks, nil)
	require.NoError(t, p.Apply(units[0], "Bonjour <b>monde</b>"))

	gq := goquery.NewDocumentFromNode(doc)
	para := gq.Find("p.pgt-translated")
	require.Equal(t, 1, para.Length())

	inner, err := para.Html()
	require.NoError(t, err)
	assert.Equal(t, "Bonjour <b>monde</b>", inner)

	orig, ok := para.Attr("data-pgt-original")
	require.True(t, ok)
	assert.Equal(t, "Hello world", orig)
}

// TestPatcherOutputNotReclassified 回写产物不会被再次分类
func TestPatcherOutputNotReclassified(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Hello <b>world</b></p></body></html>`)
	marks := NewMarks()
	c := NewClassifier(marks, nil)
	units := c.Classify(doc)
	require.Len(t, units, 1)

	p := NewPatcher(marks, nil)
	require.NoError(t, p.Apply(units[0], "Bonjour <b>monde</b>"))

	assert.Empty(t, c.Classify(doc), "patched output must not be picked up again")
}

// TestPatcherTextNoPadding 无空白时不插入空文本节点
func TestPatcherTextNoPadding(t *testing.T) {
	doc := parseDoc(t, "<html><body><span>tight</span></body></html>")
	marks := NewMarks()
	units := NewClassifier(marks, nil).Classify(doc)
	require.Len(t, units, 1)

	p := NewPatcher(marks, nil)
	require.NoError(t, p.Apply(units[0], "serré"))

	// 包装元素是外层 span 的唯一子节点，没有空的首尾文本节点
	outer := findElement(doc, "span")
	require.NotNil(t, outer)
	count := 0
	for c := outer.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	assert.Equal(t, 1, count)
	assert.True(t, HasClass(outer.FirstChild, TranslatedClass))
}

// TestPatcherBlockInvalidMarkupStillParses 远端返回的标记按 HTML 片段规则解析
func TestPatcherBlockInvalidMarkupStillParses(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Hello <b>world</b></p></body></html>`)
	marks := NewMarks()
	units := NewClassifier(marks, nil).Classify(doc)
	require.Len(t, units, 1)

	p := NewPatcher(marks, nil)
	// 未闭合的标签由片段解析器补全，不报错
	require.NoError(t, p.Apply(units[0], "Bonjour <b>monde"))

	gq := goquery.NewDocumentFromNode(doc)
	assert.Equal(t, "monde", gq.Find("p b").Text())
}
