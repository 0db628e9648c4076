// Package parser turns a token stream into a Module AST using a recursive
// precedence-climbing algorithm over an explicit position cursor.
package parser

import (
	"fmt"

	"tinylang/internal/ast"
	"tinylang/internal/errors"
	"tinylang/internal/lexer"
	"tinylang/internal/source"
	"tinylang/internal/types"
)

var leftAssocLevels = buildPrecedenceTable([][]string{
	{"or"},
	{"and"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
})

func buildPrecedenceTable(rows [][]string) map[string]int {
	table := make(map[string]int)
	for i, row := range rows {
		for _, op := range row {
			table[op] = i + 1
		}
	}
	return table
}

// Parser holds cursor state over a fixed token slice. Every failure panics
// with an *errors.Diagnostic; there is no mid-parse recovery.
type Parser struct {
	tokens []lexer.Token
	pos    int
	prev   lexer.Token
}

// Parse is the single entry point: tokenize(...) then Parse(tokens).
func Parse(tokens []lexer.Token) *ast.Module {
	if len(tokens) == 0 {
		panic(errors.NewParse(source.Dummy(), "empty token stream"))
	}
	p := &Parser{tokens: tokens, prev: tokens[0]}
	return p.parseModule()
}

func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	last := p.tokens[len(p.tokens)-1]
	return lexer.Token{Kind: lexer.End, Lexeme: "", Loc: last.Loc}
}

// consume advances past the current token, requiring its lexeme to be one of
// expected when expected is non-empty.
func (p *Parser) consume(expected ...string) lexer.Token {
	tok := p.peek()
	if len(expected) > 0 && !containsString(expected, tok.Lexeme) {
		panic(errors.NewParse(tok.Loc, fmt.Sprintf("unexpected token %q", tok.Lexeme), expected...))
	}
	p.pos++
	p.prev = tok
	return tok
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func isntVar(e ast.Expr) ast.Expr {
	if _, ok := e.(*ast.Var); ok {
		panic(errors.NewParse(e.Location(), "unexpected variable declaration here"))
	}
	return e
}

func (p *Parser) parseParenthesized() ast.Expr {
	loc := p.consume("(").Loc
	expr := isntVar(p.parseAssignment())
	p.consume(")")
	return ast.NewUnaryOp(loc, "()", expr)
}

func (p *Parser) parseIntLiteral() ast.Expr {
	if p.peek().Kind != lexer.IntLiteral {
		panic(errors.NewParse(p.peek().Loc, "expected an integer literal"))
	}
	tok := p.consume()
	value := int64(0)
	for _, c := range tok.Lexeme {
		value = value*10 + int64(c-'0')
	}
	return ast.NewLiteral(tok.Loc, value)
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	if p.peek().Kind != lexer.BoolLiteral {
		panic(errors.NewParse(p.peek().Loc, "expected a boolean literal"))
	}
	tok := p.consume("true", "false")
	return ast.NewLiteral(tok.Loc, tok.Lexeme == "true")
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	if p.peek().Kind != lexer.Identifier {
		panic(errors.NewParse(p.peek().Loc, "expected an identifier"))
	}
	tok := p.consume()
	return ast.NewIdentifier(tok.Loc, tok.Lexeme)
}

func (p *Parser) parseFactor() ast.Expr {
	switch p.peek().Kind {
	case lexer.IntLiteral:
		return p.parseIntLiteral()
	case lexer.BoolLiteral:
		return p.parseBoolLiteral()
	case lexer.Identifier:
		return p.parseIdentifier()
	default:
		panic(errors.NewParse(p.peek().Loc, "expected an integer, boolean, or identifier"))
	}
}

// parseBlock implements the optional-semicolon rule: after an expression
// that itself ended with '}', a following semicolon is optional. Otherwise
// a semicolon is mandatory between two expressions in the same block.
func (p *Parser) parseBlock() *ast.Block {
	loc := p.consume("{").Loc

	var exprs []ast.Expr
	var result ast.Expr
	for p.peek().Lexeme != "}" {
		expr := p.parseAssignment()
		if p.prev.Lexeme == "}" || p.peek().Lexeme == ";" {
			if p.peek().Lexeme == ";" {
				p.consume(";")
			}
			exprs = append(exprs, expr)
		} else {
			result = expr
			break
		}
	}

	if p.prev.Lexeme == "}" && len(exprs) > 0 {
		result = exprs[len(exprs)-1]
		exprs = exprs[:len(exprs)-1]
	}

	if p.peek().Lexeme != "}" {
		panic(errors.NewParseHint(p.peek().Loc, "expected end of block after result expression", "are you missing a semicolon?"))
	}
	p.consume("}")

	return ast.NewBlock(loc, exprs, result)
}

func (p *Parser) parseIf() ast.Expr {
	loc := p.consume("if").Loc
	cond := isntVar(p.parseAssignment())

	p.consume("then")
	trueBranch := isntVar(p.parseAssignment())

	var falseBranch ast.Expr
	if p.peek().Lexeme == "else" {
		p.consume("else")
		falseBranch = isntVar(p.parseAssignment())
	}

	return ast.NewIf(loc, cond, trueBranch, falseBranch)
}

func (p *Parser) parseWhile() ast.Expr {
	loc := p.consume("while").Loc
	cond := isntVar(p.parseAssignment())
	p.consume("do")
	body := isntVar(p.parseAssignment())
	return ast.NewWhile(loc, cond, body)
}

func (p *Parser) parseVar() ast.Expr {
	loc := p.consume("var").Loc
	id := p.parseIdentifier()

	var declared types.Type = types.Unit{}
	typed := false
	if p.peek().Lexeme == ":" {
		typed = true
		p.consume(":")
		typeTok := p.consume("Int", "Bool", "Unit")
		t, ok := types.FromName(typeTok.Lexeme)
		if !ok {
			panic(errors.NewType(typeTok.Loc, fmt.Sprintf("unrecognized type %q", typeTok.Lexeme)))
		}
		declared = t
	}

	p.consume("=")
	expr := isntVar(p.parseAssignment())

	return ast.NewVar(loc, id, expr, typed, declared)
}

func (p *Parser) parseCall(id *ast.Identifier) ast.Expr {
	p.consume("(")
	if p.peek().Lexeme == ")" {
		p.consume(")")
		return ast.NewCall(id.Location(), id, nil)
	}

	args := []ast.Expr{isntVar(p.parseAssignment())}
	for p.peek().Lexeme != ")" {
		p.consume(",")
		args = append(args, isntVar(p.parseAssignment()))
	}
	p.consume(")")

	return ast.NewCall(id.Location(), id, args)
}

func (p *Parser) parseReturn() ast.Expr {
	loc := p.consume("return").Loc
	var expr ast.Expr
	if p.peek().Lexeme != ";" && p.peek().Lexeme != "}" {
		expr = p.parseAssignment()
	}
	return ast.NewReturn(loc, expr)
}

func (p *Parser) parseTerm() ast.Expr {
	switch p.peek().Lexeme {
	case "{":
		return p.parseBlock()
	case "(":
		return p.parseParenthesized()
	case "if":
		return p.parseIf()
	case "while":
		return p.parseWhile()
	case "var":
		return p.parseVar()
	case "break":
		loc := p.consume("break").Loc
		return ast.NewBreak(loc)
	case "continue":
		loc := p.consume("continue").Loc
		return ast.NewContinue(loc)
	case "return":
		return p.parseReturn()
	}

	term := p.parseFactor()
	if id, ok := term.(*ast.Identifier); ok && p.peek().Lexeme == "(" {
		return p.parseCall(id)
	}
	return term
}

func (p *Parser) parseUnary() ast.Expr {
	if p.peek().Lexeme == "-" || p.peek().Lexeme == "not" {
		tok := p.consume()
		param := p.parseUnary()
		return ast.NewUnaryOp(tok.Loc, "unary_"+tok.Lexeme, param)
	}
	return p.parseTerm()
}

// parseExpression parses a left-associative precedence tree by recursive
// precedence climbing: each level parses its operand at the next-higher
// minimum level, then folds same-level operators onto the left in a loop.
func (p *Parser) parseExpression() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minLevel int) ast.Expr {
	left := p.parseUnary()

	for {
		level, isOp := leftAssocLevels[p.peek().Lexeme]
		if !isOp || level < minLevel {
			break
		}
		opTok := p.consume()
		right := p.parseBinary(level + 1)
		left = ast.NewBinaryOp(opTok.Loc, left, opTok.Lexeme, right)
	}

	return left
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseExpression()
	if p.peek().Lexeme == "=" {
		tok := p.consume()
		right := isntVar(p.parseAssignment())
		left = ast.NewBinaryOp(tok.Loc, left, tok.Lexeme, right)
	}
	return left
}

func (p *Parser) parseDefinition() *ast.Definition {
	p.consume("fun")
	nameTok := p.consume()
	name := nameTok.Lexeme

	p.consume("(")
	var params []*ast.Identifier
	var paramTypes []types.Type
	for p.peek().Lexeme != ")" {
		paramTok := p.consume()
		for _, existing := range params {
			if existing.Name == paramTok.Lexeme {
				panic(errors.NewType(paramTok.Loc, fmt.Sprintf("parameter %q already used in function definition", paramTok.Lexeme)))
			}
		}
		p.consume(":")
		typeTok := p.consume("Int", "Bool", "Unit")
		t, _ := types.FromName(typeTok.Lexeme)
		params = append(params, ast.NewIdentifier(paramTok.Loc, paramTok.Lexeme))
		paramTypes = append(paramTypes, t)

		if p.peek().Lexeme != ")" {
			p.consume(",")
		}
	}
	p.consume(")")
	p.consume(":")

	resTok := p.consume("Int", "Bool", "Unit")
	resType, _ := types.FromName(resTok.Lexeme)

	body := p.parseBlock()

	return &ast.Definition{
		Name:   name,
		Params: params,
		Body:   body,
		Type:   types.Fn{Params: paramTypes, Result: resType},
		Loc:    nameTok.Loc,
	}
}

func (p *Parser) parseModule() *ast.Module {
	var defs []*ast.Definition
	var exprs []ast.Expr

	foundResult := false
	endedWithBlock := false

	for p.pos < len(p.tokens) && p.peek().Kind != lexer.End {
		if p.peek().Lexeme == "fun" {
			defs = append(defs, p.parseDefinition())
			continue
		}

		node := p.parseAssignment()
		if foundResult {
			panic(errors.NewParseHint(node.Location(), "result expression already encountered", "did you forget a semicolon?"))
		}
		exprs = append(exprs, node)
		endedWithBlock = false

		switch {
		case p.prev.Lexeme == "}":
			if p.peek().Lexeme == ";" {
				p.consume(";")
			} else {
				endedWithBlock = true
			}
		case p.peek().Lexeme == ";":
			p.consume(";")
		default:
			foundResult = true
		}
	}

	if p.peek().Kind != lexer.End {
		panic(errors.NewParse(p.peek().Loc, fmt.Sprintf("unexpected trailing token %q", p.peek().Lexeme)))
	}

	var result ast.Expr
	if foundResult || endedWithBlock {
		if len(exprs) > 0 {
			result = exprs[len(exprs)-1]
			exprs = exprs[:len(exprs)-1]
		}
	}

	var expr ast.Expr
	switch {
	case len(exprs) == 0 && result != nil:
		expr = result
	case len(exprs) > 0:
		expr = ast.NewBlock(exprs[0].Location(), exprs, result)
	}

	loc := source.Dummy()
	if len(p.tokens) > 0 {
		loc = p.tokens[0].Loc
	}

	return &ast.Module{Defs: defs, Expr: expr, Loc: loc}
}
