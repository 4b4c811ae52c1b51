package listamfetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Элементы, текст которых не виден пользователю
var invisibleElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"head":     {},
}

// SelectFirst возвращает обрезанный текст (attr == "") или значение атрибута
// первого элемента, подходящего под селектор. false - совпадений нет или значение пустое.
func SelectFirst(doc *goquery.Document, selector, attr string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	var value string
	if attr == "" {
		value = cleanText(sel.Text())
	} else {
		v, ok := sel.Attr(attr)
		if !ok {
			return "", false
		}
		value = strings.TrimSpace(v)
	}
	return value, value != ""
}

// Tokenize возвращает видимые непустые текстовые фрагменты body в порядке документа
func Tokenize(doc *goquery.Document) []string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var tokens []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if _, skip := invisibleElements[n.Data]; skip {
				return
			}
		case html.TextNode:
			if t := cleanText(n.Data); t != "" {
				tokens = append(tokens, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return tokens
}

// ValueAfterLabel возвращает токен, следующий за первым вхождением label
func ValueAfterLabel(tokens []string, label string) (string, bool) {
	for i, t := range tokens {
		if t == label {
			if i+1 < len(tokens) {
				return tokens[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// SectionBetween возвращает токены строго между первым startLabel и первым endLabel после него.
// Без endLabel секция идет до конца потока, без startLabel она пуста.
func SectionBetween(tokens []string, startLabel, endLabel string) []string {
	start := -1
	for i, t := range tokens {
		if t == startLabel {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	end := len(tokens)
	for i := start + 1; i < len(tokens); i++ {
		if tokens[i] == endLabel {
			end = i
			break
		}
	}

	section := make([]string, end-start-1)
	copy(section, tokens[start+1:end])
	return section
}

// BuildLabelMap за один проход строит карту label -> value для известных подписей.
// Значением считается следующий токен; при повторе подписи побеждает первое вхождение.
// Значение может совпадать с другой подписью (Parking -> Garage), оно все равно привязывается.
func BuildLabelMap(tokens []string, labels []string) map[string]string {
	known := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		known[l] = struct{}{}
	}

	values := make(map[string]string, len(labels))
	for i := 0; i+1 < len(tokens); i++ {
		label := tokens[i]
		if _, ok := known[label]; !ok {
			continue
		}
		if _, bound := values[label]; bound {
			continue
		}
		values[label] = tokens[i+1]
	}
	return values
}

// cleanText схлопывает пробелы и приводит текст к NFC
func cleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}
