package diaspora

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// hCard holds the profile fields a pod publishes in its hcard page
type hCard struct {
	GUID       string
	Name       string
	Nick       string
	Photo      string
	PubKey     string
	URL        string
	Searchable bool
}

func parseHCard(r io.Reader) (*hCard, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hcard: %w", err)
	}

	card := &hCard{}
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			classes := strings.Fields(getAttr(n, "class"))
			switch {
			case hasClass(classes, "uid") && card.GUID == "":
				card.GUID = strings.TrimSpace(textContent(n))
			case hasClass(classes, "fn") && card.Name == "":
				card.Name = strings.TrimSpace(textContent(n))
			case hasClass(classes, "nickname") && card.Nick == "":
				card.Nick = strings.TrimSpace(textContent(n))
			case hasClass(classes, "key") && card.PubKey == "":
				card.PubKey = strings.TrimSpace(textContent(n))
			case hasClass(classes, "searchable"):
				card.Searchable = strings.TrimSpace(textContent(n)) == "true"
			case n.Data == "img" && (hasClass(classes, "photo") || hasClass(classes, "avatar")) && card.Photo == "":
				// The first photo is the largest one
				card.Photo = getAttr(n, "src")
			case n.Data == "a" && hasClass(classes, "url") && card.URL == "":
				card.URL = getAttr(n, "href")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return card, nil
}

func hasClass(classes []string, want string) bool {
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
