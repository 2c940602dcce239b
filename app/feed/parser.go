package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a raw feed payload into normalized items. Format detection is
// by content sniffing; formatHint only produces a warning when it disagrees
// with the payload. Items without a link and without either title or summary
// are dropped and counted rather than failing the parse.
func (p *Parser) Run(data []byte, sourceID, formatHint string, fetchedAt time.Time) ([]Item, int, error) {
	if formatHint != "" {
		p.checkFormatHint(data, sourceID, formatHint)
	}

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	dropped := 0
	for _, item := range parsed.Items {
		normalized, ok := p.normalizeItem(item, sourceID, fetchedAt)
		if !ok {
			dropped++
			continue
		}
		items = append(items, normalized)
	}

	if dropped > 0 {
		slog.Debug("Dropped items missing required fields", "source", sourceID, "dropped", dropped)
	}

	return items, dropped, nil
}

func (p *Parser) checkFormatHint(data []byte, sourceID, formatHint string) {
	detected := gofeed.DetectFeedType(bytes.NewReader(data))

	var expected gofeed.FeedType
	switch formatHint {
	case "rss":
		expected = gofeed.FeedTypeRSS
	case "atom":
		expected = gofeed.FeedTypeAtom
	default:
		return
	}

	if detected != expected && detected != gofeed.FeedTypeUnknown {
		slog.Warn("Feed format differs from configured hint", "source", sourceID, "hint", formatHint, "detected", detected)
	}
}

func (p *Parser) normalizeItem(item *gofeed.Item, sourceID string, fetchedAt time.Time) (Item, bool) {
	title := strings.TrimSpace(item.Title)
	summary := strings.TrimSpace(cmp.Or(item.Description, item.Content))
	link := strings.TrimSpace(item.Link)

	// An entry with no link and nothing to display is unusable.
	if link == "" && title == "" && summary == "" {
		return Item{}, false
	}

	normalized := Item{
		GUID:     cmp.Or(item.GUID, hashGUID(link, title)),
		SourceID: sourceID,
		Title:    title,
		Link:     link,
		Summary:  summary,
	}

	// Ordering needs a total order over PublishedAt, so unparsable or missing
	// dates fall back to the fetch timestamp.
	switch {
	case item.PublishedParsed != nil:
		normalized.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		normalized.PublishedAt = item.UpdatedParsed.UTC()
	default:
		normalized.PublishedAt = fetchedAt.UTC()
	}

	normalized.Authors = p.extractAuthors(item)
	if item.Categories != nil {
		normalized.Categories = item.Categories
	}

	normalized.ContentHash = generateContentHash(normalized)

	return normalized, true
}

func hashGUID(link, title string) string {
	hash := sha256.Sum256([]byte(link + "|" + title))
	return hex.EncodeToString(hash[:])
}

func generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s|%s",
		item.Title,
		item.Link,
		item.Summary)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				authorStr := formatAuthor(author.Name, author.Email)
				if authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		authorStr := formatAuthor(item.Author.Name, item.Author.Email)
		if authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	} else if name != "" {
		return name
	} else if email != "" {
		return email
	}

	return ""
}
