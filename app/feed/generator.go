package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/bluepython508/news-rss/app/cfg"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// RSS renders a snapshot as an RSS 2.0 document.
func (g *Generator) RSS(snapshot *Snapshot) string {
	c := cfg.Get()

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", c.Title, 4)
	g.writeElement(&buf, "link", g.selfLink(""), 4)
	g.writeElement(&buf, "description", c.Description, 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.selfLink("/feed.xml"))))

	g.writeElement(&buf, "lastBuildDate", snapshot.GeneratedAt.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("news-rss/%s", c.Version), 4)

	for _, item := range snapshot.Items {
		g.writeRSSItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *Generator) writeRSSItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
	xml.EscapeText(buf, []byte(item.GUID))
	buf.WriteString("</guid>\n")

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	if item.Summary != "" {
		g.writeElement(buf, "description", item.Summary, 6)
	}

	g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)

	if len(item.Authors) > 0 && item.Authors[0] != "" {
		g.writeElement(buf, "author", item.Authors[0], 6)
	}

	for _, category := range item.Categories {
		if category != "" {
			g.writeElement(buf, "category", category, 6)
		}
	}

	buf.WriteString("    </item>\n")
}

// Atom renders a snapshot as an Atom feed document.
func (g *Generator) Atom(snapshot *Snapshot) string {
	c := cfg.Get()

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n")

	g.writeElement(&buf, "title", c.Title, 2)
	g.writeElement(&buf, "subtitle", c.Description, 2)
	g.writeElement(&buf, "id", g.selfLink("/feed.atom"), 2)
	buf.WriteString(fmt.Sprintf("  <link href=\"%s\" rel=\"self\" />\n",
		html.EscapeString(g.selfLink("/feed.atom"))))
	g.writeElement(&buf, "updated", snapshot.GeneratedAt.Format(time.RFC3339), 2)
	g.writeElement(&buf, "generator", fmt.Sprintf("news-rss/%s", c.Version), 2)

	for _, item := range snapshot.Items {
		g.writeAtomEntry(&buf, item)
	}

	buf.WriteString("</feed>")

	return buf.String()
}

func (g *Generator) writeAtomEntry(buf *bytes.Buffer, item Item) {
	buf.WriteString("  <entry>\n")

	id := item.GUID
	if !g.isURL(id) {
		id = "urn:news-rss:" + id
	}
	g.writeElement(buf, "id", id, 4)

	// Atom requires a title on every entry, even when the item has none.
	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 4)
	} else {
		buf.WriteString("    <title>(untitled)</title>\n")
	}

	if item.Link != "" {
		buf.WriteString(fmt.Sprintf("    <link href=\"%s\" />\n", html.EscapeString(item.Link)))
	}

	g.writeElement(buf, "updated", item.PublishedAt.Format(time.RFC3339), 4)

	if item.Summary != "" {
		g.writeElement(buf, "summary", item.Summary, 4)
	}

	for _, author := range item.Authors {
		if author != "" {
			buf.WriteString("    <author>\n")
			g.writeElement(buf, "name", author, 6)
			buf.WriteString("    </author>\n")
		}
	}

	for _, category := range item.Categories {
		if category != "" {
			buf.WriteString(fmt.Sprintf("    <category term=\"%s\" />\n", html.EscapeString(category)))
		}
	}

	buf.WriteString("  </entry>\n")
}

func (g *Generator) selfLink(path string) string {
	c := cfg.Get()
	if c.BaseUrl != "" {
		return c.BaseUrl + path
	}
	return "http://" + c.BindAddr + path
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
