package wordpress

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// Pre-compiled regular expressions for markup stripping.
var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// stripMarkup removes HTML tags, decodes entities and collapses
// whitespace, turning rendered WordPress content into plain text.
func stripMarkup(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = allTags.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)
	content = whitespace.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// wpTimeLayout is the REST API's GMT timestamp format.
const wpTimeLayout = "2006-01-02T15:04:05"

func parseWPTime(s string) time.Time {
	t, err := time.Parse(wpTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// normalisePost converts a raw record into a domain Document. The
// returned document may be empty; callers skip those.
func normalisePost(category string, p post) domain.Document {
	refs := make([]int, 0, len(p.Categories)+len(p.Tags))
	refs = append(refs, p.Categories...)
	refs = append(refs, p.Tags...)

	return domain.Document{
		ID:           p.ID,
		Category:     category,
		Title:        stripMarkup(p.Title.Rendered),
		Content:      stripMarkup(p.Content.Rendered),
		URL:          p.Link,
		CreatedAt:    parseWPTime(p.Date),
		ModifiedAt:   parseWPTime(p.Modified),
		AuthorID:     p.Author,
		TaxonomyRefs: refs,
	}
}
