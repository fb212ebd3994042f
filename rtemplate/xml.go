package rtemplate

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// operationTags are the top-level `<mapper>` children that define a
// standalone, addressable template; `<sql>` defines a reusable fragment only
// reachable via `<include>`.
var operationTags = map[string]bool{
	"select": true, "insert": true, "update": true, "delete": true, "sql": true,
}

// parseXMLMapper parses one XML mapper document and returns the node list for
// every operation/fragment tag it declares, keyed by its `id` attribute. r is
// the Registry being populated, threaded through so <include> tags can close
// over it for lazy, load-order-independent resolution.
func parseXMLMapper(source string, r *Registry) (map[string][]node, error) {
	dec := xml.NewDecoder(strings.NewReader(source))

	ops := make(map[string][]node)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if start.Name.Local != "mapper" {
			return nil, fmt.Errorf("xml: expected root <mapper>, found <%s>", start.Name.Local)
		}

		if err := parseMapperBody(dec, r, ops); err != nil {
			return nil, err
		}
	}

	return ops, nil
}

func parseMapperBody(dec *xml.Decoder, r *Registry, ops map[string][]node) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !operationTags[t.Name.Local] {
				return fmt.Errorf("xml: unexpected top-level tag <%s>", t.Name.Local)
			}

			id := attr(t, "id")
			if id == "" {
				return fmt.Errorf("xml: <%s> missing required id attribute", t.Name.Local)
			}

			children, err := parseChildren(dec, r, t.Name.Local)
			if err != nil {
				return err
			}
			ops[id] = children
		case xml.EndElement:
			if t.Name.Local == "mapper" {
				return nil
			}
		}
	}
}

// parseChildren reads tokens until the EndElement closing endName, building
// the node list for that tag's body.
func parseChildren(dec *xml.Decoder, r *Registry, endName string) ([]node, error) {
	var out []node

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			textNodes, err := parseInlineText(string(t))
			if err != nil {
				return nil, err
			}
			out = append(out, textNodes...)
		case xml.StartElement:
			n, err := parseTag(dec, r, t)
			if err != nil {
				return nil, err
			}
			if n != nil {
				out = append(out, n)
			}
		case xml.EndElement:
			if t.Name.Local == endName {
				return out, nil
			}
			return nil, fmt.Errorf("xml: unbalanced closing tag </%s>, expected </%s>", t.Name.Local, endName)
		}
	}
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parseExprAttr(t xml.StartElement, name string) (*rvalue.Expr, error) {
	src := attr(t, name)
	if src == "" {
		return nil, fmt.Errorf("xml: <%s> missing required %q attribute", t.Name.Local, name)
	}
	return rvalue.ParseExpr(src)
}

// parseTag dispatches one structural tag, recursively consuming its body and
// matching EndElement, then returns the equivalent node.
func parseTag(dec *xml.Decoder, r *Registry, t xml.StartElement) (node, error) {
	switch t.Name.Local {
	case "if":
		test, err := parseExprAttr(t, "test")
		if err != nil {
			return nil, err
		}
		children, err := parseChildren(dec, r, t.Name.Local)
		if err != nil {
			return nil, err
		}
		return ifNode{test: test, children: children}, nil

	case "trim":
		children, err := parseChildren(dec, r, t.Name.Local)
		if err != nil {
			return nil, err
		}
		return trimNode{
			prefix:          attr(t, "prefix"),
			suffix:          attr(t, "suffix"),
			prefixOverrides: splitOverrides(attr(t, "prefixOverrides")),
			suffixOverrides: splitOverrides(attr(t, "suffixOverrides")),
			children:        children,
		}, nil

	case "where":
		children, err := parseChildren(dec, r, t.Name.Local)
		if err != nil {
			return nil, err
		}
		return newWhereNode(children), nil

	case "set":
		children, err := parseChildren(dec, r, t.Name.Local)
		if err != nil {
			return nil, err
		}
		return newSetNode(children), nil

	case "foreach":
		collSrc := attr(t, "collection")
		if collSrc == "" {
			return nil, fmt.Errorf("xml: <foreach> missing required \"collection\" attribute")
		}
		coll, err := rvalue.ParseExpr(collSrc)
		if err != nil {
			return nil, err
		}
		children, err := parseChildren(dec, r, t.Name.Local)
		if err != nil {
			return nil, err
		}
		return foreachNode{
			collection: coll,
			item:       attr(t, "item"),
			index:      attr(t, "index"),
			open:       attr(t, "open"),
			close:      attr(t, "close"),
			separator:  attr(t, "separator"),
			children:   children,
		}, nil

	case "choose":
		return parseChoose(dec, r)

	case "bind":
		name := attr(t, "name")
		if name == "" {
			return nil, fmt.Errorf("xml: <bind> missing required \"name\" attribute")
		}
		expr, err := parseExprAttr(t, "value")
		if err != nil {
			return nil, err
		}
		if err := skipToEnd(dec, t.Name.Local); err != nil {
			return nil, err
		}
		return bindVarNode{name: name, expr: expr}, nil

	case "include":
		ref := attr(t, "refid")
		if ref == "" {
			return nil, fmt.Errorf("xml: <include> missing required \"refid\" attribute")
		}
		if err := skipToEnd(dec, t.Name.Local); err != nil {
			return nil, err
		}
		return includeNode{ref: ref, registry: r}, nil

	default:
		return nil, fmt.Errorf("xml: unrecognized tag <%s>", t.Name.Local)
	}
}

// parseChoose reads <when>*<otherwise>? inside a <choose>, first-match-wins.
func parseChoose(dec *xml.Decoder, r *Registry) (node, error) {
	var whens []whenNode
	var otherwise []node

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("xml: unexpected text directly inside <choose>")
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "when":
				test, err := parseExprAttr(t, "test")
				if err != nil {
					return nil, err
				}
				children, err := parseChildren(dec, r, "when")
				if err != nil {
					return nil, err
				}
				whens = append(whens, whenNode{test: test, children: children})
			case "otherwise":
				children, err := parseChildren(dec, r, "otherwise")
				if err != nil {
					return nil, err
				}
				otherwise = children
			default:
				return nil, fmt.Errorf("xml: <choose> may only contain <when>/<otherwise>, found <%s>", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "choose" {
				return chooseNode{whens: whens, otherwise: otherwise}, nil
			}
		}
	}
}

// skipToEnd consumes tokens up to and including the EndElement closing
// endName, for tags whose entire content lives in attributes.
func skipToEnd(dec *xml.Decoder, endName string) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == endName {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == endName {
				if depth == 0 {
					return nil
				}
				depth--
			}
		}
	}
}
