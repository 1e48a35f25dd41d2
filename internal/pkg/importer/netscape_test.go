package importer

import (
	"strings"
	"testing"
	"time"
)

const sampleExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1700000000" ICON="data:image/png;base64,AAAA">Example</A>
    <DT><H3 ADD_DATE="1700000000">Work</H3>
    <DL><p>
        <DT><A HREF="https://golang.org">Go</A>
        <DT><H3>Projects</H3>
        <DL><p>
            <DT><A HREF="https://gofiber.io">Fiber</A>
        </DL><p>
    </DL><p>
    <DT><A HREF="https://news.ycombinator.com">HN</A>
</DL><p>
`

func TestParseSampleExport(t *testing.T) {
	entries, err := Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4: %+v", len(entries), entries)
	}

	first := entries[0]
	if first.URL != "https://example.com" || first.Title != "Example" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Folder != "" {
		t.Errorf("top-level entry folder = %q, want empty", first.Folder)
	}
	if first.IconURL == "" {
		t.Errorf("expected icon to be captured")
	}
	want := time.Unix(1700000000, 0).UTC()
	if first.AddedAt == nil || !first.AddedAt.Equal(want) {
		t.Errorf("AddedAt = %v, want %v", first.AddedAt, want)
	}

	if entries[1].Folder != "Work" {
		t.Errorf("entry in folder = %q, want Work", entries[1].Folder)
	}
	if entries[2].Folder != "Work/Projects" {
		t.Errorf("nested entry folder = %q, want Work/Projects", entries[2].Folder)
	}
	// Entry after the nested lists closed is top-level again.
	if entries[3].URL != "https://news.ycombinator.com" || entries[3].Folder != "" {
		t.Errorf("trailing entry = %+v", entries[3])
	}
}

func TestParseSkipsAnchorsWithoutHref(t *testing.T) {
	doc := `<DL><p><DT><A ADD_DATE="1700000000">No link</A><DT><A HREF="https://example.com">Yes</A></DL>`
	entries, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "https://example.com" {
		t.Fatalf("entries = %+v, want only the hrefed anchor", entries)
	}
}

func TestParseBadAddDate(t *testing.T) {
	doc := `<DL><DT><A HREF="https://example.com" ADD_DATE="soon">X</A></DL>`
	entries, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].AddedAt != nil {
		t.Errorf("AddedAt = %v, want nil for unparseable value", entries[0].AddedAt)
	}
}

func TestParseEmptyInput(t *testing.T) {
	entries, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}
