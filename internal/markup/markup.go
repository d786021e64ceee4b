// Package markup 基于goquery的HTML查询
//
// 查不到内容时返回 ("", false),不返回错误也不panic,
// 调用方据此决定尝试下一个选择器或跳过。
package markup

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document 已解析的HTML文档
type Document struct {
	doc *goquery.Document
}

// Node 选择结果中的单个元素
type Node struct {
	sel *goquery.Selection
}

// Parse 解析HTML文本
func Parse(content string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Compile 校验CSS选择器语法
func Compile(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("无效的CSS选择器 %q: %w", selector, err)
	}
	return nil
}

// SelectAll 按文档顺序返回所有匹配元素
func (d *Document) SelectAll(selector string) []*Node {
	return selectAll(d.doc.Selection, selector)
}

// SelectFirstText 第一个匹配元素的文本(去除首尾空白)
func (d *Document) SelectFirstText(selector string) (string, bool) {
	return firstText(d.doc.Selection, selector)
}

// SelectFirstHref 第一个匹配元素的href,元素必须是 <a>
func (d *Document) SelectFirstHref(selector string) (string, bool) {
	return firstHref(d.doc.Selection, selector)
}

// TryFirstHref 依次尝试多个选择器,返回第一个取到的href
func (d *Document) TryFirstHref(selectors ...string) (string, bool) {
	for _, selector := range selectors {
		if href, ok := d.SelectFirstHref(selector); ok {
			return href, true
		}
	}
	return "", false
}

// Text 元素文本(去除首尾空白),为空时返回false
func (n *Node) Text() (string, bool) {
	text := strings.TrimSpace(n.sel.Text())
	return text, text != ""
}

// Href 元素的href属性,非 <a> 元素或无href时返回false
func (n *Node) Href() (string, bool) {
	if len(n.sel.Nodes) == 0 || n.sel.Nodes[0].DataAtom != atom.A {
		return "", false
	}
	href, ok := n.sel.Attr("href")
	if !ok {
		return "", false
	}
	href = strings.TrimSpace(href)
	return href, href != ""
}

// SelectAll 在当前元素内部查找
func (n *Node) SelectAll(selector string) []*Node {
	return selectAll(n.sel, selector)
}

// SelectFirstText 在当前元素内部取第一个匹配元素的文本
func (n *Node) SelectFirstText(selector string) (string, bool) {
	return firstText(n.sel, selector)
}

// SelectFirstHref 在当前元素内部取第一个匹配元素的href
func (n *Node) SelectFirstHref(selector string) (string, bool) {
	return firstHref(n.sel, selector)
}

func selectAll(sel *goquery.Selection, selector string) []*Node {
	found := sel.Find(selector)
	nodes := make([]*Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s})
	})
	return nodes
}

func firstText(sel *goquery.Selection, selector string) (string, bool) {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	return (&Node{sel: found}).Text()
}

func firstHref(sel *goquery.Selection, selector string) (string, bool) {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	return (&Node{sel: found}).Href()
}
