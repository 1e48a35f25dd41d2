// Package importer parses browser bookmark exports in the Netscape bookmark
// file format, the de-facto interchange format written by Chrome, Firefox
// and Safari. The markup browsers emit is deliberately sloppy (unclosed DT
// and p elements), so parsing runs on a tolerant tokenizer instead of a
// strict document parser.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Entry is a single bookmark from an export file. Folder is the
// slash-joined path of the folder headings enclosing the anchor; empty for
// top-level bookmarks.
type Entry struct {
	URL     string
	Title   string
	IconURL string
	AddedAt *time.Time
	Folder  string
}

// Parse reads a Netscape bookmark file and returns its entries in document
// order. Anchors without an HREF attribute are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	z := html.NewTokenizer(r)

	var entries []Entry
	var folderStack []string
	pendingFolder := ""
	inFolderTitle := false
	var current *Entry
	var textBuf strings.Builder

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return entries, nil
			}
			return entries, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "h3":
				inFolderTitle = true
				textBuf.Reset()
			case "dl":
				folderStack = append(folderStack, pendingFolder)
				pendingFolder = ""
			case "a":
				e := Entry{Folder: joinFolders(folderStack)}
				for _, attr := range tok.Attr {
					switch strings.ToLower(attr.Key) {
					case "href":
						e.URL = strings.TrimSpace(attr.Val)
					case "icon":
						e.IconURL = strings.TrimSpace(attr.Val)
					case "add_date":
						e.AddedAt = parseUnixSeconds(attr.Val)
					}
				}
				current = &e
				textBuf.Reset()
			}

		case html.TextToken:
			if inFolderTitle || current != nil {
				textBuf.Write(z.Text())
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.Data {
			case "h3":
				if inFolderTitle {
					pendingFolder = strings.TrimSpace(textBuf.String())
					inFolderTitle = false
				}
			case "dl":
				if len(folderStack) > 0 {
					folderStack = folderStack[:len(folderStack)-1]
				}
			case "a":
				if current != nil {
					current.Title = strings.TrimSpace(textBuf.String())
					if current.URL != "" {
						entries = append(entries, *current)
					}
					current = nil
				}
			}
		}
	}
}

func joinFolders(stack []string) string {
	parts := make([]string, 0, len(stack))
	for _, s := range stack {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

func parseUnixSeconds(value string) *time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
