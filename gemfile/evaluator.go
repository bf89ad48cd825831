package gemfile

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// maxEvalDepth bounds eval_gemfile nesting (SPEC_FULL.md §5.2).
const maxEvalDepth = 32

// Evaluator executes a Gemfile's statement sequence under an environment
// and a threaded execute flag, per spec.md §4.10. New code: nothing in
// the teacher touches Ruby source text, so the statement/expression
// grammar below follows spec.md's design notes directly.
type Evaluator struct {
	env       *Environment
	gemfile   *Gemfile
	evalChain []string
}

// EvaluateFile evaluates the Gemfile at path under env and returns the
// accumulated Gemfile (spec.md's "Gemfile evaluator taking a file path
// and an environment").
func EvaluateFile(path string, env *Environment) (*Gemfile, error) {
	ev := &Evaluator{env: env, gemfile: &Gemfile{}}
	if err := ev.evalFile(path); err != nil {
		return nil, err
	}
	return ev.gemfile, nil
}

func (ev *Evaluator) evalFile(path string) error {
	if len(ev.evalChain) >= maxEvalDepth {
		return EvalDepthError{Max: maxEvalDepth, EvalChain: append([]string{}, ev.evalChain...)}
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "gemfile: opening %s", path)
	}
	defer f.Close()

	ev.evalChain = append(ev.evalChain, path)
	defer func() { ev.evalChain = ev.evalChain[:len(ev.evalChain)-1] }()

	p := &parser{lex: NewLexer(f, path), file: path, dir: filepath.Dir(path), ev: ev}
	if err := p.advance(); err != nil {
		return err
	}
	return p.runBlock(true, "")
}

// parser drives one file's token stream. Evaluator owns cross-file state
// (the accumulated Gemfile, the environment, the eval_gemfile chain);
// parser owns this file's lexer position, grounded on
// samcday-rmarsh/parser.go's single-struct-does-both shape, split here
// because eval_gemfile recurses into a fresh file with a fresh lexer but
// the same accumulated Gemfile.
type parser struct {
	lex  *Lexer
	file string
	dir  string
	ev   *Evaluator

	tok  Token
	text string

	hasPushback bool
	pushbackTok Token
	pushbackTxt string
}

func (p *parser) advance() error {
	if p.hasPushback {
		p.tok, p.text = p.pushbackTok, p.pushbackTxt
		p.hasPushback = false
		return nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok, p.text = t, p.lex.text
	return nil
}

// pushback un-advances by one token: the token currently held in
// p.tok/p.text is saved, and cur/text are reset to (tok, text). The next
// advance() call returns the saved token instead of reading the lexer,
// giving the one-token lookahead tryKeywordArg needs without losing
// stream position the way copying the parser struct would (the lexer's
// own position is not part of that struct).
func (p *parser) pushback(tok Token, text string) {
	p.pushbackTok, p.pushbackTxt = p.tok, p.text
	p.hasPushback = true
	p.tok, p.text = tok, text
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return GemfileSyntaxError{
		File:      p.file,
		Line:      p.lex.Line(),
		Column:    p.lex.Column(),
		Message:   errors.Errorf(format, args...).Error(),
		EvalChain: append([]string{}, p.ev.evalChain...),
	}
}

func (p *parser) skipEOLs() error {
	for p.tok == TokenEOL {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// runBlock executes statements until EOF (terminator == "") or until an
// "end" identifier is consumed (terminator == "end"), with execute
// threaded through as spec.md §4.10 describes: a non-executing block is
// parsed for syntax but produces no effect.
func (p *parser) runBlock(execute bool, terminator string) error {
	for {
		if err := p.skipEOLs(); err != nil {
			return err
		}
		if p.tok == TokenEOF {
			if terminator != "" {
				return p.errorf("unexpected EOF, expected %q", terminator)
			}
			return nil
		}
		if terminator != "" && p.tok == TokenIdentifier && p.text == terminator {
			return p.advance()
		}
		if p.tok != TokenIdentifier {
			return p.errorf("expected statement, got %s %q", p.tok, p.text)
		}
		if err := p.statement(execute); err != nil {
			return err
		}
	}
}

func (p *parser) statement(execute bool) error {
	head := p.text
	switch head {
	case "source":
		return p.stmtSource(execute)
	case "ruby":
		return p.stmtRuby(execute)
	case "gemspec":
		return p.stmtGemspec(execute)
	case "gem":
		return p.stmtGem(execute)
	case "group":
		return p.stmtGroupOrPlatform(execute, true)
	case "platforms", "platform":
		return p.stmtGroupOrPlatform(execute, false)
	case "eval_gemfile":
		return p.stmtEvalGemfile(execute)
	default:
		return p.errorf("unrecognised statement %q", head)
	}
}

// expectEndOfStatement requires the current token to be EOL (or EOF) and
// consumes it; any other token is a syntax error.
func (p *parser) expectEndOfStatement() error {
	if p.tok != TokenEOL && p.tok != TokenEOF {
		return p.errorf("expected end of statement, got %s %q", p.tok, p.text)
	}
	return p.advance()
}

func (p *parser) stmtSource(execute bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	v, err := p.expr()
	if err != nil {
		return err
	}
	if execute {
		if s, ok := v.(string); ok {
			p.ev.gemfile.Sources = append(p.ev.gemfile.Sources, s)
		}
	}
	return p.expectEndOfStatement()
}

func (p *parser) stmtRuby(execute bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	v, err := p.expr()
	if err != nil {
		return err
	}
	if execute {
		if s, ok := v.(string); ok {
			p.ev.gemfile.RubyVersion = s
		}
	}
	return p.expectEndOfStatement()
}

func (p *parser) stmtGemspec(execute bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	ref := GemspecRef{}
	if p.tok != TokenEOL && p.tok != TokenEOF {
		args, kwargs, err := p.argList()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			if s, ok := args[0].(string); ok {
				ref.Name = s
			}
		}
		if s, ok := kwargs["name"].(string); ok {
			ref.Name = s
		}
		if s, ok := kwargs["path"].(string); ok {
			ref.Path = s
		}
		if s, ok := kwargs["development_group"].(string); ok {
			ref.DevelopmentGroup = s
		}
	}
	if execute {
		p.ev.gemfile.Gemspecs = append(p.ev.gemfile.Gemspecs, ref)
	}
	return p.expectEndOfStatement()
}

func (p *parser) stmtGem(execute bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	args, kwargs, err := p.argList()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return p.errorf("gem statement requires a name")
	}
	name, ok := args[0].(string)
	if !ok {
		return p.errorf("gem name must be a string")
	}
	g := &Gem{Name: name, Attrs: kwargs}
	for _, a := range args[1:] {
		if s, ok := a.(string); ok {
			g.VersionSpecs = append(g.VersionSpecs, s)
		}
	}
	g.groups = stringListAttr(kwargs, "group", "groups")
	g.platforms = stringListAttr(kwargs, "platform", "platforms")
	if execute {
		g.Ignored = !p.ev.env.groupMatches(g.groups) || !p.ev.env.platformMatches(g.platforms)
		p.ev.gemfile.Gems = append(p.ev.gemfile.Gems, g)
	}
	return p.expectEndOfStatement()
}

func stringListAttr(kwargs map[string]GemValue, keys ...string) []string {
	for _, k := range keys {
		v, ok := kwargs[k]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case string:
			return []string{x}
		case []GemValue:
			var out []string
			for _, el := range x {
				if s, ok := el.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}

func (p *parser) stmtGroupOrPlatform(execute bool, isGroup bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	args, _, err := p.argList()
	if err != nil {
		return err
	}
	var names []string
	for _, a := range args {
		if s, ok := a.(string); ok {
			names = append(names, s)
		}
	}

	hasBlock := p.tok == TokenIdentifier && p.text == "do"
	var nestedExecute bool
	if isGroup {
		nestedExecute = execute && p.ev.env.groupMatches(names)
	} else {
		nestedExecute = execute && p.ev.env.platformMatches(names)
	}

	if !hasBlock {
		return p.expectEndOfStatement()
	}
	if err := p.advance(); err != nil {
		return err
	}
	return p.runBlock(nestedExecute, "end")
}

func (p *parser) stmtEvalGemfile(execute bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	v, err := p.expr()
	if err != nil {
		return err
	}
	path, ok := v.(string)
	if !ok {
		return p.errorf("eval_gemfile requires a string path")
	}
	if err := p.expectEndOfStatement(); err != nil {
		return err
	}
	if !execute {
		return nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}
	return p.ev.evalFile(path)
}

// argList parses a comma-separated list of positional and keyword
// arguments, per spec.md §4.10's `gem NAME [, VSPEC]* [, KEY: VAL |
// :KEY => VAL]*` grammar, generalized to every statement that takes a
// comma-separated arg list (gemspec/group/platforms use it too, just with
// fewer positional slots expected).
func (p *parser) argList() ([]GemValue, map[string]GemValue, error) {
	var positional []GemValue
	kwargs := map[string]GemValue{}

	if p.tok == TokenEOL || p.tok == TokenEOF {
		return positional, kwargs, nil
	}

	for {
		if key, val, isKw, err := p.tryKeywordArg(); err != nil {
			return nil, nil, err
		} else if isKw {
			kwargs[key] = val
		} else {
			v, err := p.expr()
			if err != nil {
				return nil, nil, err
			}
			positional = append(positional, v)
		}

		if p.tok != TokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, nil, err
		}
	}
	return positional, kwargs, nil
}

// tryKeywordArg recognises `key: val` and `:key => val` forms. Returns
// isKw=false (and consumes nothing beyond the lookahead already done by
// the caller's token) when neither form matches, so the caller falls
// back to parsing a plain expression.
func (p *parser) tryKeywordArg() (string, GemValue, bool, error) {
	switch {
	case p.tok == TokenIdentifier:
		// key: val — only a keyword arg if the identifier is immediately
		// followed by COLON (not part of a larger expression).
		name := p.text
		if err := p.advance(); err != nil {
			return "", nil, false, err
		}
		if p.tok != TokenColon {
			p.pushback(TokenIdentifier, name)
			return "", nil, false, nil
		}
		if err := p.advance(); err != nil {
			return "", nil, false, err
		}
		v, err := p.expr()
		if err != nil {
			return "", nil, false, err
		}
		return name, v, true, nil

	case p.tok == TokenSymbol:
		name := p.text
		if err := p.advance(); err != nil {
			return "", nil, false, err
		}
		if p.tok != TokenOperator || p.text != "=>" {
			p.pushback(TokenSymbol, name)
			return "", nil, false, nil
		}
		if err := p.advance(); err != nil {
			return "", nil, false, err
		}
		v, err := p.expr()
		if err != nil {
			return "", nil, false, err
		}
		return name, v, true, nil
	}
	return "", nil, false, nil
}

// expr parses one expression: string/symbol/boolean literal,
// RUBY_VERSION, a bracketed array literal, or a %w[...] literal
// (spec.md §4.10). Infix operators are not supported.
func (p *parser) expr() (GemValue, error) {
	switch p.tok {
	case TokenString:
		s := p.text
		return s, p.advance()
	case TokenSymbol:
		s := p.text
		return s, p.advance()
	case TokenInteger:
		n, err := strconv.ParseInt(p.text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", p.text)
		}
		return n, p.advance()
	case TokenIdentifier:
		switch p.text {
		case "true":
			return true, p.advance()
		case "false":
			return false, p.advance()
		case "RUBY_VERSION":
			return p.ev.env.RubyVersion, p.advance()
		default:
			return nil, p.errorf("unexpected identifier %q in expression", p.text)
		}
	case TokenLBrack:
		return p.arrayLiteral()
	case TokenPercent:
		return p.percentWLiteral()
	default:
		return nil, p.errorf("unexpected token %s %q in expression", p.tok, p.text)
	}
}

func (p *parser) arrayLiteral() (GemValue, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var items []GemValue
	for {
		if err := p.skipEOLs(); err != nil {
			return nil, err
		}
		if p.tok == TokenRBrack {
			return GemValue(items), p.advance()
		}
		v, err := p.expr()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if err := p.skipEOLs(); err != nil {
			return nil, err
		}
		if p.tok == TokenComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.tok != TokenRBrack {
			return nil, p.errorf("expected , or ] in array literal, got %s %q", p.tok, p.text)
		}
		return GemValue(items), p.advance()
	}
}

func (p *parser) percentWLiteral() (GemValue, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok != TokenIdentifier || p.text != "w" {
		return nil, p.errorf("expected %%w literal, got %%%s", p.text)
	}
	words, err := p.lex.ReadPercentWord()
	if err != nil {
		return nil, err
	}
	items := make([]GemValue, len(words))
	for i, w := range words {
		items[i] = w
	}
	return GemValue(items), p.advance()
}
