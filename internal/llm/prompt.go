package llm

import (
	"strconv"
	"strings"

	"github.com/jonathan/faq-assistant/internal/prompts"
)

// promptFile holds the answer templates
const promptFile = "chat.json"

// FallbackPhrase opens every answer given when the context has nothing relevant.
// Interactions whose response contains it are logged as unsolved.
const FallbackPhrase = "I'm not sure about that"

// DefaultHelpCenterURL is offered to the user alongside the fallback phrase
const DefaultHelpCenterURL = "https://support.highrise.game/en/"

// Passage is one retrieved FAQ entry offered to the model as context
type Passage struct {
	Question string
	Answer   string
	Category string
}

// AnswerPrompt describes how a grounded answer is requested
type AnswerPrompt struct {
	SiteName      string
	HelpCenterURL string
}

// DefaultAnswerPrompt returns the prompt settings for the default help center
func DefaultAnswerPrompt() AnswerPrompt {
	return AnswerPrompt{SiteName: "Highrise", HelpCenterURL: DefaultHelpCenterURL}
}

// Build constructs the prompt asking for an answer grounded only on passages.
func (p AnswerPrompt) Build(query string, passages []Passage) string {
	var context strings.Builder
	if len(passages) == 0 {
		context.WriteString(prompts.MustGet(promptFile, "no-context"))
	}
	for i, passage := range passages {
		categoryLine := ""
		if passage.Category != "" {
			categoryLine = prompts.Format(prompts.MustGet(promptFile, "context-category"), map[string]string{
				"Category": passage.Category,
			})
		}
		context.WriteString(prompts.Format(prompts.MustGet(promptFile, "context-entry"), map[string]string{
			"Index":        strconv.Itoa(i + 1),
			"Question":     passage.Question,
			"CategoryLine": categoryLine,
			"Answer":       passage.Answer,
		}))
	}

	return prompts.Format(prompts.MustGet(promptFile, "grounded-answer"), map[string]string{
		"SiteName":       p.SiteName,
		"FallbackPhrase": FallbackPhrase,
		"HelpCenterURL":  p.HelpCenterURL,
		"Context":        context.String(),
		"Question":       query,
	})
}

// IsFallback reports whether a response is the no-answer fallback
func IsFallback(response string) bool {
	return strings.Contains(response, FallbackPhrase)
}
