// Package extract turns a page's DOM snapshot into structured form and field
// descriptors. It is the host-specific half of classification: everything
// DOM-shaped stops here, the classifier itself never sees HTML.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"signup-agent/internal/domain/entity"
)

// Containers with fewer input-like controls than this never qualify as
// form-like on a page without real <form> elements.
const minFormlikeControls = 3

// Forms parses rawHTML and returns candidate forms in document order. Pages
// without a single <form> are still scanned for form-like containers: any
// element holding enough input-like controls plus a button-like one.
func Forms(rawHTML string) ([]entity.FormCandidate, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	labels := labelIndex(doc)

	var formNodes []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "form" {
			formNodes = append(formNodes, n)
			return false
		}
		return true
	})

	if len(formNodes) > 0 {
		candidates := make([]entity.FormCandidate, 0, len(formNodes))
		for _, n := range formNodes {
			candidates = append(candidates, buildCandidate(n, labels, true))
		}
		return candidates, nil
	}

	var candidates []entity.FormCandidate
	formlike(doc, labels, &candidates)
	return candidates, nil
}

// formlike collects the innermost containers qualifying as form-like. A
// parent whose subtree already produced a candidate is not itself added, so
// <body> does not swallow the page.
func formlike(n *html.Node, labels map[string]string, out *[]entity.FormCandidate) bool {
	if n.Type == html.ElementNode && skippedTag(n.Data) {
		return false
	}

	childFound := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if formlike(c, labels, out) {
			childFound = true
		}
	}
	if childFound {
		return true
	}

	if n.Type != html.ElementNode {
		return false
	}
	inputs, buttons := 0, 0
	walk(n, func(d *html.Node) bool {
		if d.Type != html.ElementNode {
			return true
		}
		switch {
		case isInputLike(d):
			inputs++
		case isButtonLike(d):
			buttons++
		}
		return true
	})
	if inputs >= minFormlikeControls && buttons >= 1 {
		*out = append(*out, buildCandidate(n, labels, false))
		return true
	}
	return false
}

func buildCandidate(n *html.Node, labels map[string]string, isForm bool) entity.FormCandidate {
	cand := entity.FormCandidate{
		Selector:    selectorFor(n),
		IsForm:      isForm,
		VisibleText: visibleText(n),
	}

	walk(n, func(d *html.Node) bool {
		if d.Type != html.ElementNode {
			return true
		}
		switch d.Data {
		case "input":
			kind := inputKind(attr(d, "type"))
			if kind == entity.ControlSubmit || kind == entity.ControlButton {
				cand.SubmitCount++
				return true
			}
			cand.Fields = append(cand.Fields, fieldFor(d, kind, labels))
		case "select":
			cand.Fields = append(cand.Fields, fieldFor(d, entity.ControlSelect, labels))
			return false // option text is not nearby text
		case "textarea":
			cand.Fields = append(cand.Fields, fieldFor(d, entity.ControlTextarea, labels))
		case "button":
			t := attr(d, "type")
			if t == "" || t == "submit" {
				cand.SubmitCount++
			}
		}
		return true
	})
	return cand
}

func fieldFor(n *html.Node, kind entity.ControlKind, labels map[string]string) entity.FieldCandidate {
	f := entity.FieldCandidate{
		Selector:       selectorFor(n),
		Kind:           kind,
		RawID:          attr(n, "id"),
		RawName:        attr(n, "name"),
		RawClass:       attr(n, "class"),
		RawPlaceholder: attr(n, "placeholder"),
	}

	if f.RawID != "" {
		f.LabelText = labels[f.RawID]
	}
	if f.LabelText == "" {
		f.LabelText = wrappingLabelText(n)
	}
	f.NearbyText = nearbyText(n)

	switch kind {
	case entity.ControlSelect:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				f.Options = append(f.Options, entity.Option{
					Value: attr(c, "value"),
					Label: strings.TrimSpace(visibleText(c)),
				})
			}
		}
	case entity.ControlRadio, entity.ControlCheckbox:
		f.RadioValue = attr(n, "value")
	}
	return f
}

// labelIndex maps control ids to the text of their <label for=...>.
func labelIndex(doc *html.Node) map[string]string {
	idx := make(map[string]string)
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "label" {
			if forID := attr(n, "for"); forID != "" {
				idx[forID] = strings.TrimSpace(visibleText(n))
			}
		}
		return true
	})
	return idx
}

// wrappingLabelText finds a <label> ancestor wrapping the control directly.
func wrappingLabelText(n *html.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			return strings.TrimSpace(visibleText(p))
		}
		if p.Type == html.ElementNode && (p.Data == "form" || p.Data == "body") {
			break
		}
	}
	return ""
}

// nearbyText is the last-resort label substitute: the closest non-empty
// preceding sibling text, or the preceding table cell in row-based layouts.
func nearbyText(n *html.Node) string {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		var t string
		if s.Type == html.TextNode {
			t = strings.TrimSpace(s.Data)
		} else if s.Type == html.ElementNode {
			t = strings.TrimSpace(visibleText(s))
		}
		if t != "" {
			return t
		}
	}

	// Row-based layout: the cell before ours in the same <tr>.
	cell := n
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.Data == "td" || p.Data == "th") {
			cell = p
			break
		}
		if p.Type == html.ElementNode && p.Data == "tr" {
			break
		}
	}
	if cell != n || (cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th")) {
		for s := cell.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && (s.Data == "td" || s.Data == "th") {
				if t := strings.TrimSpace(visibleText(s)); t != "" {
					return t
				}
			}
		}
	}
	return ""
}

// selectorFor builds a locator the fill executor can resolve inside the
// live page: #id when available, otherwise a positional tag path.
func selectorFor(n *html.Node) string {
	if id := attr(n, "id"); id != "" && !strings.ContainsAny(id, " \t\"'") {
		return "#" + id
	}

	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if cur.Data == "html" {
			break
		}
		if id := attr(cur, "id"); id != "" && !strings.ContainsAny(id, " \t\"'") {
			segments = append([]string{"#" + id}, segments...)
			return strings.Join(segments, " > ")
		}
		pos := 1
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == cur.Data {
				pos++
			}
		}
		segments = append([]string{fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, pos)}, segments...)
	}
	return strings.Join(segments, " > ")
}

// visibleText concatenates the subtree's text, skipping script/style.
func visibleText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(d *html.Node) bool {
		if d.Type == html.ElementNode && skippedTag(d.Data) {
			return false
		}
		if d.Type == html.TextNode {
			t := strings.TrimSpace(d.Data)
			if t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
		}
		return true
	})
	return b.String()
}

// walk visits n and its subtree depth-first; fn returning false prunes the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func skippedTag(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "svg", "head", "title":
		return true
	}
	return false
}

func isInputLike(n *html.Node) bool {
	switch n.Data {
	case "select", "textarea":
		return true
	case "input":
		switch inputKind(attr(n, "type")) {
		case entity.ControlSubmit, entity.ControlButton, entity.ControlHidden:
			return false
		}
		return true
	}
	return false
}

func isButtonLike(n *html.Node) bool {
	if n.Data == "button" {
		return true
	}
	if n.Data == "input" {
		t := strings.ToLower(attr(n, "type"))
		return t == "submit" || t == "button" || t == "image"
	}
	return attr(n, "role") == "button"
}

func inputKind(typeAttr string) entity.ControlKind {
	switch strings.ToLower(strings.TrimSpace(typeAttr)) {
	case "email":
		return entity.ControlEmail
	case "password":
		return entity.ControlPassword
	case "tel":
		return entity.ControlTel
	case "number":
		return entity.ControlNumber
	case "date":
		return entity.ControlDate
	case "checkbox":
		return entity.ControlCheckbox
	case "radio":
		return entity.ControlRadio
	case "submit", "image":
		return entity.ControlSubmit
	case "button", "reset":
		return entity.ControlButton
	case "hidden":
		return entity.ControlHidden
	default:
		return entity.ControlText
	}
}
