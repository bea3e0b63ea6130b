package corpus

import "github.com/jonathan/faq-assistant/internal/types"

// Normalize flattens the corpus into one record per article, in document order.
// Question and answer text is carried verbatim; only the category is derived.
func Normalize(corpus *types.FAQCorpus) []types.FAQRecord {
	records := make([]types.FAQRecord, 0, corpus.ArticleCount())
	if corpus == nil {
		return records
	}
	for _, col := range corpus.Collections {
		category := types.CategoryFor(col.Title)
		for _, article := range col.Articles {
			records = append(records, types.FAQRecord{
				CollectionTitle: col.Title,
				Question:        article.Question,
				Answer:          article.Answer,
				Category:        category,
				SourceURL:       article.URL,
			})
		}
	}
	return records
}
