package scraper

import (
	"fmt"
	"strings"

	"LinkSearch/internal/models"
	"LinkSearch/utils"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractLinks reads product links out of a results page snapshot. Each entry is
// handled on its own: an unreadable entry is counted in Skipped and described in
// Problems while its siblings are still extracted. Ids keep document order; a
// repeated id keeps its first link.
func ExtractLinks(page, pageURL string, p Profile) (Result, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return Result{}, fmt.Errorf("parse results page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var items *goquery.Selection
	if p.Items == "" {
		items = doc.Find(p.Results.Selector())
	} else {
		items = doc.Find(p.Results.Selector()).First().Find(p.Items)
	}

	res := Result{Items: items.Length()}
	seen := make(map[string]bool)

	items.Each(func(i int, item *goquery.Selection) {
		link, err := extractItem(item, pageURL, p)
		if err != nil {
			res.Skipped++
			res.Problems = append(res.Problems, fmt.Sprintf("item %d: %v", i, err))
			return
		}
		if seen[link.ID] {
			res.Duplicates++
			return
		}
		seen[link.ID] = true
		res.Links = append(res.Links, link)
		if name := itemTitle(item, p); name != "" {
			if res.Names == nil {
				res.Names = make(map[string]string)
			}
			res.Names[link.ID] = name
		}
	})

	return res, nil
}

func extractItem(item *goquery.Selection, pageURL string, p Profile) (models.DiscoveredLink, error) {
	anchor := item.Find(p.Link).First()
	if anchor.Length() == 0 {
		return models.DiscoveredLink{}, fmt.Errorf("link element %q not found", p.Link)
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return models.DiscoveredLink{}, fmt.Errorf("link element has no href")
	}
	link, err := utils.ResolveURL(pageURL, href)
	if err != nil {
		return models.DiscoveredLink{}, err
	}
	id, err := utils.PathSegment(link, int(p.ID))
	if err != nil {
		return models.DiscoveredLink{}, err
	}
	return models.DiscoveredLink{ID: id, Link: link}, nil
}

// itemTitle returns the product name shown in the entry.
func itemTitle(item *goquery.Selection, p Profile) string {
	if p.Title != "" {
		if t := strings.TrimSpace(item.Find(p.Title).First().Text()); t != "" {
			return t
		}
	}
	anchor := item.Find(p.Link).First()
	if t := strings.TrimSpace(anchor.Text()); t != "" {
		return t
	}
	label, _ := anchor.Attr("aria-label")
	return strings.TrimSpace(label)
}
