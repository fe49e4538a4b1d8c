package canon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// namespaceScope tracks which prefix->URI bindings have already been
// rendered by an ancestor, so Canonicalize only emits the declarations that
// are newly visible at each element — the core of inclusive C14N's
// namespace-axis rule. Because EBICS signs an extracted fragment (the set
// of authenticate="true" elements) rather than a whole document, a
// namespace declared on the real document root but never re-declared on
// the signed fragment must still be rendered the first time that fragment
// is canonicalized; for that reason the fragment's top element renders
// every binding in scope, including those inherited from its ancestors.
type namespaceScope map[string]string

// Canonicalize renders el and its descendants using XML Canonicalization
// 1.0 (inclusive), http://www.w3.org/TR/2001/REC-xml-c14n-20010315. It is
// "inclusive" in that every namespace in scope is considered eligible for
// rendering on the first element that visibly needs it, as opposed to
// Exclusive C14N's rendered-prefix-list restriction; EBICS mandates the
// inclusive variant.
func Canonicalize(el *etree.Element) ([]byte, error) {
	if el == nil {
		return nil, fmt.Errorf("canon: cannot canonicalize a nil element")
	}
	var buf strings.Builder
	scope := ancestorScope(el)
	if err := canonElement(&buf, el, scope, true); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// ancestorScope walks up from el to the document root, collecting every
// xmlns/xmlns:prefix declaration in effect above el. canonElement renders
// all of those bindings on el itself (unless el redeclares the prefix), so
// the sub-tree canonicalizes with the same namespaces it has inside the
// full document.
func ancestorScope(el *etree.Element) namespaceScope {
	scope := namespaceScope{}
	var chain []*etree.Element
	for p := el.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, attr := range chain[i].Attr {
			if prefix, ok := nsPrefix(attr); ok {
				scope[prefix] = attr.Value
			}
		}
	}
	return scope
}

func nsPrefix(attr etree.Attr) (string, bool) {
	if attr.Space == "xmlns" {
		return attr.Key, true
	}
	if attr.Space == "" && attr.Key == "xmlns" {
		return "", true
	}
	return "", false
}

// nsDecl is a namespace declaration pending render, keyed by its bare
// prefix ("" for the default namespace) rather than by the raw attribute
// name, so a default-namespace declaration inherited from an ancestor and
// a prefixed one both render under the same "xmlns"/"xmlns:prefix" rule
// regardless of which etree.Attr.Key they originated from.
type nsDecl struct {
	prefix string
	uri    string
}

// canonElement renders el and its descendants. inherited is the set of
// namespace bindings already visible above el; when isRoot is true (the
// fragment's own top element, never its descendants) any binding in
// inherited that el itself does not redeclare is still rendered here,
// since the fragment being canonicalized is a sub-tree extracted from a
// larger document and inclusive C14N requires every namespace in scope,
// not just the ones physically declared on the fragment.
func canonElement(buf *strings.Builder, el *etree.Element, inherited namespaceScope, isRoot bool) error {
	local := cloneScope(inherited)
	declared := map[string]bool{}
	var newNS []nsDecl
	var attrs []etree.Attr
	for _, attr := range el.Attr {
		if prefix, ok := nsPrefix(attr); ok {
			if existing, seen := local[prefix]; !seen || existing != attr.Value {
				newNS = append(newNS, nsDecl{prefix: prefix, uri: attr.Value})
			}
			local[prefix] = attr.Value
			declared[prefix] = true
			continue
		}
		attrs = append(attrs, attr)
	}
	if isRoot {
		for prefix, uri := range inherited {
			if declared[prefix] {
				continue
			}
			newNS = append(newNS, nsDecl{prefix: prefix, uri: uri})
			declared[prefix] = true
		}
	}

	buf.WriteByte('<')
	buf.WriteString(el.FullTag())

	sort.Slice(newNS, func(i, j int) bool { return newNS[i].prefix < newNS[j].prefix })
	for _, ns := range newNS {
		buf.WriteByte(' ')
		if ns.prefix == "" {
			buf.WriteString("xmlns")
		} else {
			buf.WriteString("xmlns:")
			buf.WriteString(ns.prefix)
		}
		buf.WriteString(`="`)
		buf.WriteString(escapeAttrValue(ns.uri))
		buf.WriteByte('"')
	}

	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].Space != attrs[j].Space {
			return attrs[i].Space < attrs[j].Space
		}
		return attrs[i].Key < attrs[j].Key
	})
	for _, attr := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(attr.FullKey())
		buf.WriteString(`="`)
		buf.WriteString(escapeAttrValue(attr.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')

	for _, child := range el.Child {
		switch node := child.(type) {
		case *etree.Element:
			if err := canonElement(buf, node, local, false); err != nil {
				return err
			}
		case *etree.CharData:
			buf.WriteString(escapeText(node.Data))
		}
	}

	buf.WriteString("</")
	buf.WriteString(el.FullTag())
	buf.WriteByte('>')
	return nil
}

func cloneScope(s namespaceScope) namespaceScope {
	out := make(namespaceScope, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	return r.Replace(s)
}

func escapeAttrValue(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
	return r.Replace(s)
}
