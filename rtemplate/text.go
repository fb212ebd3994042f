package rtemplate

import (
	"fmt"
	"strings"

	"github.com/rbatis-go/rbatis/rvalue"
)

// parseInlineText scans literal SQL text for `#{expr}` (bound parameter) and
// `${expr}` (inlined) interpolation markers, shared by both surface syntaxes
// since both allow interpolation inside otherwise-literal chunks.
func parseInlineText(text string) ([]node, error) {
	var nodes []node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, literalNode{text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(text) {
		if strings.HasPrefix(text[i:], "#{") || strings.HasPrefix(text[i:], "${") {
			bound := text[i] == '#'
			end := strings.IndexByte(text[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("rtemplate: unterminated %s{ in %q", string(text[i]), text)
			}
			end += i + 2

			exprSrc := text[i+2 : end]
			expr, err := rvalue.ParseExpr(exprSrc)
			if err != nil {
				return nil, fmt.Errorf("rtemplate: %w", err)
			}

			flush()
			if bound {
				nodes = append(nodes, bindParamNode{expr: expr})
			} else {
				nodes = append(nodes, inlineNode{expr: expr})
			}

			i = end + 1
			continue
		}

		lit.WriteByte(text[i])
		i++
	}

	flush()

	return nodes, nil
}
