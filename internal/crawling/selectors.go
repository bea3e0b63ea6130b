package crawling

// Selectors names the CSS selectors used to locate help-center structure.
type Selectors struct {
	CollectionLink  string // anchors on the root listing, one per collection
	CollectionTitle string // element inside a collection link holding its name
	ArticleLink     string // anchors on a collection page, one per article
	ArticleBody     string // answer container on an article page
	TableOfContents string // TOC container; its li elements become entries
	Subheading      string // section marker inside the answer body
	Paragraph       string // paragraph block inside the answer body
}

// IntercomSelectors returns selectors for Intercom-hosted help centers.
func IntercomSelectors() Selectors {
	return Selectors{
		CollectionLink:  "a.collection-link",
		CollectionTitle: "div[data-testid='collection-name']",
		ArticleLink:     "a[data-testid='article-link']",
		ArticleBody:     "div.article_body",
		TableOfContents: "div.table-of-contents",
		Subheading:      ".intercom-interblocks-subheading",
		Paragraph:       "div.intercom-interblocks-paragraph",
	}
}

// withDefaults fills empty selectors from IntercomSelectors.
func (s Selectors) withDefaults() Selectors {
	d := IntercomSelectors()
	if s.CollectionLink == "" {
		s.CollectionLink = d.CollectionLink
	}
	if s.CollectionTitle == "" {
		s.CollectionTitle = d.CollectionTitle
	}
	if s.ArticleLink == "" {
		s.ArticleLink = d.ArticleLink
	}
	if s.ArticleBody == "" {
		s.ArticleBody = d.ArticleBody
	}
	if s.TableOfContents == "" {
		s.TableOfContents = d.TableOfContents
	}
	if s.Subheading == "" {
		s.Subheading = d.Subheading
	}
	if s.Paragraph == "" {
		s.Paragraph = d.Paragraph
	}
	return s
}
