package crawling

import (
	"strings"

	"github.com/jonathan/faq-assistant/internal/types"
)

// NodeKind classifies a sibling node for section scanning.
type NodeKind int

const (
	// NodeOther is any node that is neither a marker nor a paragraph; it is skipped.
	NodeOther NodeKind = iota
	// NodeMarker is a subheading that opens a new section.
	NodeMarker
	// NodeParagraph is a paragraph block whose text belongs to the open section.
	NodeParagraph
)

// BlockNode is one entry of a flattened sibling list.
type BlockNode struct {
	Kind NodeKind
	Text string
}

// openSection is the InSection state; a nil *openSection is NoSection.
type openSection struct {
	title string
	parts []string
}

func (s *openSection) emit() types.Section {
	return types.Section{Title: s.title, Content: strings.Join(s.parts, " ")}
}

// ScanSections turns a flattened sibling list into sections.
// A marker closes the open section and opens a new one titled with the marker
// text. Paragraphs before the first marker are dropped. The open section is
// emitted at the end of the list.
func ScanSections(nodes []BlockNode) []types.Section {
	sections := []types.Section{}
	var current *openSection

	for _, node := range nodes {
		switch node.Kind {
		case NodeMarker:
			if current != nil {
				sections = append(sections, current.emit())
			}
			current = &openSection{title: node.Text}
		case NodeParagraph:
			if current != nil && node.Text != "" {
				current.parts = append(current.parts, node.Text)
			}
		}
	}

	if current != nil {
		sections = append(sections, current.emit())
	}
	return sections
}
