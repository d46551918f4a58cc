package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// conditionalAtRules are at-rules whose blocks hold nested rulesets.
var conditionalAtRules = map[string]bool{
	"@media":     true,
	"@supports":  true,
	"@container": true,
	"@document":  true,
	"@layer":     true,
}

// IsConditionalAtRule returns true if the at-keyword opening prelude names a
// conditional group rule.
func IsConditionalAtRule(prelude string) bool {
	keyword, _, _ := strings.Cut(strings.TrimSpace(prelude), " ")
	keyword, _, _ = strings.Cut(keyword, "(")
	return conditionalAtRules[strings.ToLower(keyword)]
}

// Parser parses CSS stylesheets into ordered rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var selectors []string
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			p.checkError(parser, sheet)
			return sheet

		case css.BeginAtRuleGrammar:
			prelude := atRulePrelude(data, parser.Values())
			if IsConditionalAtRule(prelude) {
				rules := p.parseBlockRules(parser, sheet)
				p.log.Debug("Parsed conditional block", zap.String("query", prelude), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem{Block: &Block{Query: prelude, Rules: rules}})
				continue
			}
			if strings.HasPrefix(prelude, "@font-face") {
				rule := Rule{Selector: prelude, Declarations: p.parseDeclarations(parser, css.EndAtRuleGrammar)}
				sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rule})
				continue
			}
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, "unsupported at-rule: "+prelude)
			p.log.Debug("Skipping @-rule", zap.String("rule", prelude))

		case css.AtRuleGrammar:
			prelude := atRulePrelude(data, parser.Values())
			sheet.Warnings = append(sheet.Warnings, "unsupported at-rule: "+prelude)
			p.log.Debug("Skipping @-rule", zap.String("rule", prelude))

		case css.QualifiedRuleGrammar:
			// one selector of a comma separated list, the last one comes with BeginRulesetGrammar
			selectors = append(selectors, joinTokens(data, parser.Values()))

		case css.BeginRulesetGrammar:
			selectors = append(selectors, joinTokens(data, parser.Values()))
			rule := Rule{Selector: strings.Join(selectors, ", ")}
			rule.Declarations = p.parseDeclarations(parser, css.EndRulesetGrammar)
			sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rule})
			selectors = nil
		}
	}
}

// checkError records grammar errors other than end of input.
func (p *Parser) checkError(parser *css.Parser, sheet *Stylesheet) {
	if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
		sheet.Warnings = append(sheet.Warnings, "parse error: "+err.Error())
		p.log.Debug("CSS parse error", zap.Error(err))
	}
}

// joinTokens rebuilds prelude text (selector or at-rule) from token data.
func joinTokens(data []byte, values []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return strings.TrimSpace(sb.String())
}

// atRulePrelude rebuilds at-rule prelude, at-keyword and condition are
// always separated by a single space.
func atRulePrelude(keyword []byte, values []css.Token) string {
	cond := joinTokens(nil, values)
	if cond == "" {
		return string(keyword)
	}
	return string(keyword) + " " + cond
}

// parseDeclarations collects property declarations until the given end
// grammar in declaration order.
func (p *Parser) parseDeclarations(parser *css.Parser, end css.GrammarType) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return decls
		case end:
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			values := parser.Values()
			if len(values) > 0 {
				decls = append(decls, Declaration{Property: string(data), Value: valueText(values)})
			}
		}
	}
}

// valueText converts value tokens to text collapsing whitespace runs.
func valueText(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			// Add space between non-whitespace tokens
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseBlockRules parses rules inside a conditional block and returns them.
func (p *Parser) parseBlockRules(parser *css.Parser, sheet *Stylesheet) []Rule {
	var (
		rules     []Rule
		selectors []string
	)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			p.checkError(parser, sheet)
			return rules
		case css.EndAtRuleGrammar:
			return rules

		case css.QualifiedRuleGrammar:
			selectors = append(selectors, joinTokens(data, parser.Values()))

		case css.BeginRulesetGrammar:
			selectors = append(selectors, joinTokens(data, parser.Values()))
			rule := Rule{Selector: strings.Join(selectors, ", ")}
			rule.Declarations = p.parseDeclarations(parser, css.EndRulesetGrammar)
			rules = append(rules, rule)
			selectors = nil

		case css.BeginAtRuleGrammar:
			prelude := atRulePrelude(data, parser.Values())
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, "nested at-rule is not supported: "+prelude)
		}
	}
}
