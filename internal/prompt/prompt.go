// Package prompt analyzes handlebars prompt templates: which variables
// they reference and whether they draw on retrieved documents or chat
// history.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mailgun/raymond/v2/ast"
	"github.com/mailgun/raymond/v2/parser"
)

// builtinHelpers are control constructs, not data references, and are
// never reported as variables.
var builtinHelpers = map[string]bool{
	"if":     true,
	"unless": true,
	"each":   true,
	"with":   true,
	"lookup": true,
	"log":    true,
}

// Info summarizes a template's data dependencies. Variables is
// de-duplicated in first-occurrence order; the only guaranteed contract
// is the absence of duplicates.
type Info struct {
	Variables   []string `json:"variables"`
	UsesDocs    bool     `json:"uses_docs"`
	UsesHistory bool     `json:"uses_history"`
}

// Parse analyzes the template and reports every variable and path
// reference appearing in value positions or as block subjects and
// parameters, recursing into block bodies and else branches. Malformed
// template syntax propagates as a parse error.
func Parse(template string) (*Info, error) {
	program, err := parser.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("parse template; %w", err)
	}

	c := collector{seen: make(map[string]bool)}
	c.program(program)

	info := &Info{Variables: c.names}
	for _, name := range c.names {
		if strings.HasPrefix(name, "docs") {
			info.UsesDocs = true
		}
		if strings.HasPrefix(name, "history") {
			info.UsesHistory = true
		}
	}
	return info, nil
}

type collector struct {
	names []string
	seen  map[string]bool
}

func (c *collector) program(p *ast.Program) {
	if p == nil {
		return
	}
	for _, node := range p.Body {
		c.node(node)
	}
}

func (c *collector) node(node ast.Node) {
	switch n := node.(type) {
	case *ast.MustacheStatement:
		c.expression(n.Expression)
	case *ast.BlockStatement:
		c.expression(n.Expression)
		c.program(n.Program)
		c.program(n.Inverse)
	case *ast.SubExpression:
		c.expression(n.Expression)
	case *ast.PathExpression:
		c.path(n)
	}
}

func (c *collector) expression(e *ast.Expression) {
	if e == nil {
		return
	}
	if p, ok := e.Path.(*ast.PathExpression); ok {
		c.path(p)
	}
	for _, param := range e.Params {
		c.node(param)
	}
	if e.Hash != nil {
		for _, pair := range e.Hash.Pairs {
			c.node(pair.Val)
		}
	}
}

func (c *collector) path(p *ast.PathExpression) {
	if p == nil || p.Data {
		return
	}
	name := p.Original
	if name == "" || name == "." || name == "this" || builtinHelpers[name] {
		return
	}
	if c.seen[name] {
		return
	}
	c.seen[name] = true
	c.names = append(c.names, name)
}
