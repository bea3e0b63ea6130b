package crawling

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/faq-assistant/internal/types"
)

// CollectionLink is a collection discovered on the root listing page.
type CollectionLink struct {
	Title string
	URL   string
}

// ArticleLink is an article discovered on a collection page.
// Question is the link's visible text.
type ArticleLink struct {
	Question string
	URL      string
}

// ExtractCollectionLinks lists the collections on the root listing page in document order.
// Links without an href are ignored.
func ExtractCollectionLinks(doc *goquery.Document, baseURL string, sel Selectors) ([]CollectionLink, error) {
	sel = sel.withDefaults()
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}

	links := make([]CollectionLink, 0)
	doc.Find(sel.CollectionLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := resolveHref(s, base)
		if !ok {
			return
		}
		title := nodeText(s.Find(sel.CollectionTitle).First())
		if title == "" {
			title = nodeText(s)
		}
		links = append(links, CollectionLink{Title: title, URL: href})
	})
	return links, nil
}

// ExtractArticleLinks lists the article links on a collection page in document order.
func ExtractArticleLinks(doc *goquery.Document, baseURL string, sel Selectors) ([]ArticleLink, error) {
	sel = sel.withDefaults()
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}

	links := make([]ArticleLink, 0)
	doc.Find(sel.ArticleLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := resolveHref(s, base)
		if !ok {
			return
		}
		links = append(links, ArticleLink{Question: nodeText(s), URL: href})
	})
	return links, nil
}

// ExtractArticle builds an Article from a parsed article page.
// Missing optional containers degrade to the answer sentinel or empty slices.
func ExtractArticle(doc *goquery.Document, question, articleURL string, sel Selectors) types.Article {
	sel = sel.withDefaults()
	article := types.Article{
		Question:        strings.TrimSpace(question),
		Answer:          types.NoAnswerSentinel,
		URL:             articleURL,
		Images:          []types.ImageRef{},
		TableOfContents: []string{},
		Sections:        []types.Section{},
	}

	if toc := doc.Find(sel.TableOfContents).First(); toc.Length() > 0 {
		toc.Find("li").Each(func(_ int, li *goquery.Selection) {
			article.TableOfContents = append(article.TableOfContents, nodeText(li))
		})
	}

	body := doc.Find(sel.ArticleBody).First()
	if body.Length() == 0 {
		return article
	}

	if answer := nodeText(body); answer != "" {
		article.Answer = answer
	}

	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		article.Images = append(article.Images, types.ImageRef{URL: src, Alt: alt})
	})

	article.Sections = extractSections(body, sel)
	return article
}

// extractSections flattens the children of every parent holding a subheading
// and runs ScanSections over each list. Parents are visited in the document
// order of their first subheading.
func extractSections(body *goquery.Selection, sel Selectors) []types.Section {
	sections := []types.Section{}
	seen := make(map[*html.Node]bool)

	body.Find(sel.Subheading).Each(func(_ int, marker *goquery.Selection) {
		parent := marker.Parent()
		if parent.Length() == 0 {
			return
		}
		key := parent.Get(0)
		if seen[key] {
			return
		}
		seen[key] = true
		sections = append(sections, ScanSections(classifyChildren(parent, sel))...)
	})
	return sections
}

// classifyChildren maps the element children of parent onto BlockNodes.
func classifyChildren(parent *goquery.Selection, sel Selectors) []BlockNode {
	children := parent.Children()
	nodes := make([]BlockNode, 0, children.Length())
	children.Each(func(_ int, child *goquery.Selection) {
		switch {
		case child.Is(sel.Subheading):
			nodes = append(nodes, BlockNode{Kind: NodeMarker, Text: nodeText(child)})
		case child.Is(sel.Paragraph):
			nodes = append(nodes, BlockNode{Kind: NodeParagraph, Text: nodeText(child)})
		default:
			nodes = append(nodes, BlockNode{Kind: NodeOther})
		}
	})
	return nodes
}

// nodeText returns the visible text of a selection with whitespace collapsed.
// Adjacent text nodes are separated by a space so block boundaries do not glue words together.
func nodeText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return normalizeSpace(strings.Join(parts, " "))
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func parseBase(baseURL string) (*url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse base URL",
			Cause:   err,
		}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}
	return base, nil
}

// resolveHref returns the absolute, fragment-free href of an anchor.
func resolveHref(s *goquery.Selection, base *url.URL) (string, bool) {
	href, exists := s.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" {
		return "", false
	}
	linkURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	absoluteURL := base.ResolveReference(linkURL)
	absoluteURL.Fragment = ""
	return absoluteURL.String(), true
}
