package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces attribute keeping position of existing one.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func RemoveAttr(n *html.Node, name string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
}

// Classes returns list of classes from the class attribute.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

func HasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return slices.Contains(Classes(n), class)
}

// AddClasses unions classes with already present ones.
func AddClasses(n *html.Node, classes ...string) {
	if len(classes) == 0 {
		return
	}
	have := Classes(n)
	for _, c := range classes {
		if c != "" && !slices.Contains(have, c) {
			have = append(have, c)
		}
	}
	SetAttr(n, "class", strings.Join(have, " "))
}

// RemoveClasses drops classes, removing the attribute when nothing is left.
func RemoveClasses(n *html.Node, classes ...string) {
	have := slices.DeleteFunc(Classes(n), func(c string) bool {
		return slices.Contains(classes, c)
	})
	if len(have) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(have, " "))
}
