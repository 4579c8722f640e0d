package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

// AssemblePromptBase concatenates enabled prompt contents in position order
// into the single instruction prefix shared by runs and previews.
func AssemblePromptBase(prompts []models.Prompt) string {
	var b strings.Builder

	for i, prompt := range prompts {
		content := strings.TrimSpace(prompt.Content)
		if content == "" {
			continue
		}

		if i > 0 && b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}

	return b.String()
}

// PromptBaseHash is the deterministic drift-detection hash of a prompt base.
func PromptBaseHash(promptBase string) string {
	sum := sha256.Sum256([]byte(promptBase))

	return hex.EncodeToString(sum[:])
}

// ArticlePayload renders the exact article block sent to the generation API.
// Previews must match runs byte for byte, so all formatting lives here.
func ArticlePayload(article models.Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(article.Title))
	fmt.Fprintf(&b, "Link: %s\n", strings.TrimSpace(article.Link))
	fmt.Fprintf(&b, "Published: %s\n", article.PublishedAt.UTC().Format(time.RFC3339))
	b.WriteString("Content:\n")

	content := strings.TrimSpace(article.ContentSnippet)
	if content == "" {
		content = strings.TrimSpace(article.RawContentHTML)
	}
	b.WriteString(content)

	return b.String()
}
