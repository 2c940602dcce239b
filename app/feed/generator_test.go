package feed

import (
	"strings"
	"testing"
	"time"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Items: []Item{
			{
				GUID:        "https://example.com/item1",
				SourceID:    "src-1",
				Title:       "Test Item 1",
				Link:        "https://example.com/item1",
				Summary:     "Test Item 1 Description",
				PublishedAt: time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC),
				Authors:     []string{"test@example.com (Test Author)"},
				Categories:  []string{"Technology", "Programming"},
			},
			{
				GUID:        "opaque-guid-2",
				SourceID:    "src-2",
				Title:       "Test Item 2 <with brackets>",
				Link:        "https://example.com/item2",
				PublishedAt: time.Date(2023, 7, 3, 9, 0, 0, 0, time.UTC),
			},
		},
		GeneratedAt: time.Date(2023, 7, 3, 12, 0, 0, 0, time.UTC),
		SourceCount: 2,
	}
}

func TestGenerateRSS(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	rss := generator.RSS(testSnapshot())

	expected := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0"`,
		"<title>news-rss</title>",
		`rel="self" type="application/rss+xml"`,
		"<lastBuildDate>Mon, 03 Jul 2023 12:00:00 +0000</lastBuildDate>",
		`<guid isPermaLink="true">https://example.com/item1</guid>`,
		`<guid isPermaLink="false">opaque-guid-2</guid>`,
		"<title>Test Item 1</title>",
		"<pubDate>Mon, 03 Jul 2023 10:00:00 +0000</pubDate>",
		"<author>test@example.com (Test Author)</author>",
		"<category>Technology</category>",
		"<title>Test Item 2 &lt;with brackets&gt;</title>",
	}

	for _, want := range expected {
		if !strings.Contains(rss, want) {
			t.Errorf("Expected RSS output to contain %q", want)
		}
	}

	if !strings.HasSuffix(rss, "</rss>") {
		t.Error("Expected RSS document to be closed")
	}
}

func TestGenerateAtom(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	atom := generator.Atom(testSnapshot())

	expected := []string{
		`<feed xmlns="http://www.w3.org/2005/Atom">`,
		"<title>news-rss</title>",
		"<updated>2023-07-03T12:00:00Z</updated>",
		"<id>https://example.com/item1</id>",
		"<id>urn:news-rss:opaque-guid-2</id>",
		`<link href="https://example.com/item1" />`,
		"<updated>2023-07-03T10:00:00Z</updated>",
		"<name>test@example.com (Test Author)</name>",
		`<category term="Technology" />`,
	}

	for _, want := range expected {
		if !strings.Contains(atom, want) {
			t.Errorf("Expected Atom output to contain %q", want)
		}
	}

	if !strings.HasSuffix(atom, "</feed>") {
		t.Error("Expected Atom document to be closed")
	}
}

func TestGenerateAtomUntitledEntry(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	snapshot := &Snapshot{
		Items: []Item{
			{
				GUID:        "opaque-guid-3",
				SourceID:    "src-1",
				Summary:     "Summary only, no headline",
				PublishedAt: time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC),
			},
		},
		GeneratedAt: time.Date(2023, 7, 3, 12, 0, 0, 0, time.UTC),
		SourceCount: 1,
	}

	atom := generator.Atom(snapshot)

	// Every Atom entry carries a title element
	if !strings.Contains(atom, "<title>(untitled)</title>") {
		t.Error("Expected a placeholder title for an entry without one")
	}
}

func TestGenerateEmptySnapshot(t *testing.T) {
	setupTestConfig()
	generator := NewGenerator()

	snapshot := &Snapshot{GeneratedAt: time.Now().UTC()}

	rss := generator.RSS(snapshot)
	if !strings.Contains(rss, "<channel>") || strings.Contains(rss, "<item>") {
		t.Error("Expected valid RSS channel with no items")
	}

	atom := generator.Atom(snapshot)
	if strings.Contains(atom, "<entry>") {
		t.Error("Expected Atom feed with no entries")
	}
}
