// preprocess.go implements the main preprocessor driver with include processing.
package cpp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralphcc-project/ralphcc/internal/diag"
)

// Preprocessor is the main driver for C preprocessing.
type Preprocessor struct {
	macros        *MacroTable
	conditional   *ConditionalProcessor
	expander      *Expander
	resolver      *IncludeResolver
	opts          PreprocessorOptions
	includeGuards map[string]string // file path -> guard macro name
	diag          *diag.Reporter
}

// PreprocessorOptions configures the preprocessor.
type PreprocessorOptions struct {
	Defines      []string // -D definitions
	Undefines    []string // -U undefinitions
	IncludePaths []string // -I directories
	SystemPaths  []string // -isystem directories
	KeepComments bool     // Not consulted: the lexer always replaces comments with a space
	LineMarkers  bool     // Generate #line markers
	Diag         *diag.Reporter
}

// NewPreprocessor creates a new preprocessor instance. A malformed -D/-U
// flag is reported through opts.Diag (or a default stderr reporter) rather
// than failing construction, matching how an invalid command-line define is
// diagnosed rather than treated as a hard startup error.
func NewPreprocessor(opts PreprocessorOptions) *Preprocessor {
	macros := NewMacroTable()

	reporter := opts.Diag
	if reporter == nil {
		reporter = diag.New(os.Stderr, diag.Warn)
	}

	if err := macros.ApplyCmdlineDefines(opts.Defines, opts.Undefines); err != nil {
		reporter.Report(diag.Error, diag.Loc{File: "<command-line>"}, "%s", err)
	}

	resolver := NewIncludeResolver()
	for _, p := range opts.IncludePaths {
		resolver.AddUserPath(p)
	}
	for _, p := range opts.SystemPaths {
		resolver.AddSystemPath(p)
	}

	cond := NewConditionalProcessor(macros)
	cond.Warn = func(format string, args ...any) {
		reporter.Report(diag.Warn, diag.Loc{}, format, args...)
	}

	return &Preprocessor{
		macros:        macros,
		conditional:   cond,
		expander:      NewExpander(macros),
		resolver:      resolver,
		opts:          opts,
		includeGuards: make(map[string]string),
		diag:          reporter,
	}
}

// PreprocessFile preprocesses a file and returns the result.
func (p *Preprocessor) PreprocessFile(filename string) (string, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		absPath = filename
	}
	
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}

	p.macros.SetBaseFile(absPath)
	p.resolver.SetCurrentFile(absPath)
	if err := p.resolver.PushFile(absPath); err != nil {
		return "", err
	}
	defer p.resolver.PopFile()
	
	return p.preprocessContent(string(content), absPath)
}

// PreprocessString preprocesses a string with a given filename for error messages.
func (p *Preprocessor) PreprocessString(source, filename string) (string, error) {
	return p.preprocessContent(source, filename)
}

// includeReturn records where to resume line-marker bookkeeping once the
// iterator naturally pops back out of an included file.
type includeReturn struct {
	file string
	line int
}

// preprocessContent is the main preprocessing loop. It drives a single
// TokenIterator for the whole translation unit: the top-level file and every
// file it transitively #includes are pushed onto the same stacked cursor
// rather than being preprocessed by separate recursive calls, so directive
// dispatch, macro expansion, and include entry/exit are all expressed as
// iterator operations (peek/eat/push) instead of string concatenation.
func (p *Preprocessor) preprocessContent(source, filename string) (string, error) {
	it := NewTokenIterator()
	it.PushFile(filename, source)
	var output strings.Builder
	var returns []includeReturn

	if p.opts.LineMarkers {
		output.WriteString(fmt.Sprintf("# 1 \"%s\"\n", filename))
	}

	for it.Depth() > 0 {
		if it.Peek().Type == PP_EOF {
			poppingInclude := it.Depth() > 1
			it.Eat()
			if poppingInclude {
				ret := returns[len(returns)-1]
				returns = returns[:len(returns)-1]
				p.resolver.PopFile()
				p.expander.SetIncludeLevel(p.resolver.IncludeDepth())
				if p.opts.LineMarkers {
					output.WriteString(fmt.Sprintf("# %d \"%s\" 2\n", ret.line, ret.file))
				}
			}
			continue
		}

		line := p.gatherPhysicalLine(it)
		if len(line) == 0 {
			continue
		}

		firstNonWS := 0
		for firstNonWS < len(line) && line[firstNonWS].Type == PP_WHITESPACE {
			firstNonWS++
		}

		if firstNonWS < len(line) && line[firstNonWS].Type == PP_HASH {
			result, err := p.processDirective(line[firstNonWS:], it.CurrentFile(), it, &returns)
			if err != nil {
				return "", fmt.Errorf("%s:%d: %w", it.CurrentFile(), line[firstNonWS].Loc.Line, err)
			}
			output.WriteString(result)
			continue
		}

		if !p.conditional.IsActive() {
			continue
		}

		fullLine := line
		for parenDepthOf(fullLine) > 0 && it.Peek().Type != PP_EOF {
			if n := len(fullLine); n > 0 && fullLine[n-1].Type == PP_NEWLINE {
				fullLine[n-1] = Token{Type: PP_WHITESPACE, Text: " ", Loc: fullLine[n-1].Loc}
			}
			fullLine = append(fullLine, p.gatherPhysicalLine(it)...)
		}

		loc := SourceLoc{File: it.CurrentFile()}
		if len(fullLine) > 0 {
			loc.Line = fullLine[0].Loc.Line
			loc.Column = fullLine[0].Loc.Column
		}
		expanded, err := p.expander.ExpandWithLoc(fullLine, loc)
		if err != nil {
			return "", fmt.Errorf("%s:%d: %w", loc.File, loc.Line, err)
		}
		p.reportConversionDiagnostics(expanded)
		output.WriteString(TokensToString(expanded))
	}

	// Check for unbalanced conditionals
	if err := p.conditional.CheckBalanced(); err != nil {
		return "", fmt.Errorf("%s: %w", filename, err)
	}

	return output.String(), nil
}

// gatherPhysicalLine drains one physical line's worth of tokens from the
// iterator's current top frame, including the terminating PP_NEWLINE when
// one is present (absent only for a final, newline-less line at EOF).
func (p *Preprocessor) gatherPhysicalLine(it *TokenIterator) []Token {
	var toks []Token
	for {
		tok := it.Peek()
		if tok.Type == PP_EOF {
			return toks
		}
		it.Eat()
		toks = append(toks, tok)
		if tok.Type == PP_NEWLINE {
			return toks
		}
	}
}

// parenDepthOf reports the net open-paren depth of a token slice, used to
// decide whether a content line's trailing unclosed '(' means a
// function-like macro invocation continues onto the next physical line.
func parenDepthOf(tokens []Token) int {
	depth := 0
	for _, tok := range tokens {
		if tok.Type != PP_PUNCTUATOR {
			continue
		}
		switch tok.Text {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}

// reportConversionDiagnostics classifies an expanded content line into
// language tokens purely to surface diagnostics for malformed numeric,
// string, and character literals (§4.6's conversion errors); it never feeds
// back into the -E text output, which stays TokensToString over the
// unclassified pp-token stream.
func (p *Preprocessor) reportConversionDiagnostics(tokens []Token) {
	filtered := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == PP_WHITESPACE || tok.Type == PP_NEWLINE {
			continue
		}
		filtered = append(filtered, tok)
	}
	if len(filtered) == 0 {
		return
	}
	_, errs := ConvertTokens(filtered)
	for _, err := range errs {
		loc := filtered[0].Loc
		p.diag.Report(diag.Warn, diag.Loc{File: loc.File, Line: loc.Line, Column: loc.Column}, "%s", err)
	}
}

// processDirective handles a preprocessing directive.
func (p *Preprocessor) processDirective(tokens []Token, filename string, it *TokenIterator, returns *[]includeReturn) (string, error) {
	if len(tokens) == 0 {
		return "", nil
	}
	
	// Get location from the # token
	loc := tokens[0].Loc
	
	// Parse the directive (skip the # token)
	var directiveTokens []Token
	for i := 1; i < len(tokens); i++ {
		directiveTokens = append(directiveTokens, tokens[i])
	}
	
	dir, err := ParseDirectiveFromTokens(directiveTokens, loc)
	if err != nil {
		// In inactive blocks, silently ignore unknown directives
		if !p.conditional.IsActive() {
			return "", nil
		}
		return "", err
	}
	
	// Handle conditional directives even in inactive blocks
	switch dir.Type {
	case DirIf:
		return "", p.conditional.ProcessIf(dir.Expression)
	case DirIfdef:
		return "", p.conditional.ProcessIfdef(dir.Identifier)
	case DirIfndef:
		return "", p.conditional.ProcessIfndef(dir.Identifier)
	case DirElif:
		return "", p.conditional.ProcessElif(dir.Expression)
	case DirElse:
		return "", p.conditional.ProcessElse()
	case DirEndif:
		return "", p.conditional.ProcessEndif()
	}

	// Other directives are only processed in active blocks
	if !p.conditional.IsActive() {
		return "", nil
	}

	switch dir.Type {
	case DirInclude:
		return p.processInclude(dir, filename, it, returns)
	case DirDefine:
		return "", p.macros.DefineFromDirective(dir)
	case DirUndef:
		p.macros.Undefine(dir.Identifier)
		return "", nil
	case DirLine:
		// Output the line directive
		if dir.FileName != "" {
			return fmt.Sprintf("# %d \"%s\"\n", dir.LineNum, dir.FileName), nil
		}
		return fmt.Sprintf("# %d\n", dir.LineNum), nil
	case DirLinemarker:
		// Pass through GCC line markers
		return TokensToString(tokens) + "\n", nil
	case DirError:
		return "", fmt.Errorf("%s: #error %s", loc, dir.Message)
	case DirWarning:
		p.diag.Report(diag.Warn, diag.Loc{File: loc.File, Line: loc.Line, Column: loc.Column}, "%s", dir.Message)
		return "", nil
	case DirPragma:
		return p.processPragma(dir, filename)
	case DirEmpty:
		return "", nil
	default:
		return "", fmt.Errorf("unhandled directive type: %v", dir.Type)
	}
}

// processInclude handles #include directives. Rather than recursively
// preprocessing the included file and splicing its text back in, it pushes
// the file directly onto the shared TokenIterator, so the main loop resumes
// reading from it on the very next iteration; an includeReturn is recorded
// so the loop can restore the includer's line marker once the iterator
// naturally pops back off the included frame at its EOF.
func (p *Preprocessor) processInclude(dir *Directive, currentFile string, it *TokenIterator, returns *[]includeReturn) (string, error) {
	// Determine the header name
	headerName := dir.HeaderName
	
	// If we have Expression tokens instead of HeaderName, expand them
	if headerName == "" && len(dir.Expression) > 0 {
		expanded, err := p.expander.Expand(dir.Expression)
		if err != nil {
			return "", fmt.Errorf("expanding include: %w", err)
		}
		headerName = strings.TrimSpace(TokensToString(expanded))
	}
	
	if headerName == "" {
		return "", fmt.Errorf("empty include file name")
	}
	
	// Parse the header name format
	var fileName string
	var kind IncludeKind
	
	if strings.HasPrefix(headerName, "<") && strings.HasSuffix(headerName, ">") {
		fileName = headerName[1 : len(headerName)-1]
		kind = IncludeAngled
	} else if strings.HasPrefix(headerName, "\"") && strings.HasSuffix(headerName, "\"") {
		fileName = headerName[1 : len(headerName)-1]
		kind = IncludeQuoted
	} else {
		// Assume quoted form for unquoted names (shouldn't normally happen)
		fileName = headerName
		kind = IncludeQuoted
	}
	
	// Resolve the include path
	p.resolver.SetCurrentFile(currentFile)
	includePath, err := p.resolver.Resolve(fileName, kind)
	if err != nil {
		return "", fmt.Errorf("#include %s: %w", headerName, err)
	}
	
	// Check for #pragma once
	if p.resolver.IsAlreadyIncluded(includePath) {
		return "", nil
	}
	
	// Check for include guards (optimization)
	if guardMacro, ok := p.includeGuards[includePath]; ok {
		if p.macros.IsDefined(guardMacro) {
			return "", nil
		}
	}
	
	// Check include depth
	if p.resolver.IncludeDepth() >= MaxIncludeDepth {
		return "", fmt.Errorf("#include nested too deeply")
	}
	
	// Push file onto the resolver's own stack (cycle/depth tracking).
	if err := p.resolver.PushFile(includePath); err != nil {
		return "", err
	}
	p.expander.SetIncludeLevel(p.resolver.IncludeDepth())

	// Read the include file
	content, err := os.ReadFile(includePath)
	if err != nil {
		p.resolver.PopFile()
		p.expander.SetIncludeLevel(p.resolver.IncludeDepth())
		return "", fmt.Errorf("reading %s: %w", includePath, err)
	}

	// Detect include guards
	guardMacro := p.detectIncludeGuard(string(content), includePath)
	if guardMacro != "" {
		p.includeGuards[includePath] = guardMacro
	}

	*returns = append(*returns, includeReturn{file: currentFile, line: dir.Loc.Line + 1})
	it.PushFile(includePath, string(content))

	// Generate line marker for entering file; the corresponding "leaving"
	// marker is written by the main loop when this frame's EOF pops it.
	var output strings.Builder
	if p.opts.LineMarkers {
		output.WriteString(fmt.Sprintf("# 1 \"%s\" 1\n", includePath))
	}

	return output.String(), nil
}

// detectIncludeGuard checks if a file has an include guard pattern.
// Returns the guard macro name if found, empty string otherwise.
func (p *Preprocessor) detectIncludeGuard(content, filename string) string {
	lex := NewLexer(content, filename)
	
	// Look for #ifndef or #if !defined pattern at start of file
	var tokens []Token
	for {
		tok := lex.NextToken()
		if tok.Type == PP_EOF {
			break
		}
		// Collect first few meaningful tokens
		if tok.Type != PP_WHITESPACE && tok.Type != PP_NEWLINE {
			tokens = append(tokens, tok)
		}
		if len(tokens) > 10 {
			break
		}
	}
	
	if len(tokens) < 3 {
		return ""
	}
	
	// Check for #ifndef GUARD pattern
	if tokens[0].Type == PP_HASH && tokens[1].Type == PP_IDENTIFIER && tokens[1].Text == "ifndef" {
		if tokens[2].Type == PP_IDENTIFIER {
			// Check if next directive is #define GUARD
			if len(tokens) >= 6 {
				if tokens[3].Type == PP_HASH && tokens[4].Type == PP_IDENTIFIER && tokens[4].Text == "define" {
					if tokens[5].Type == PP_IDENTIFIER && tokens[5].Text == tokens[2].Text {
						return tokens[2].Text
					}
				}
			}
		}
	}
	
	return ""
}

// processPragma handles #pragma directives.
func (p *Preprocessor) processPragma(dir *Directive, filename string) (string, error) {
	if len(dir.PragmaTokens) == 0 {
		return "", nil
	}
	
	// Check for #pragma once
	if dir.PragmaTokens[0].Type == PP_IDENTIFIER && dir.PragmaTokens[0].Text == "once" {
		p.resolver.MarkPragmaOnce(filename)
		return "", nil
	}
	
	// Pass through other pragmas
	var sb strings.Builder
	sb.WriteString("#pragma ")
	sb.WriteString(TokensToString(dir.PragmaTokens))
	sb.WriteString("\n")
	return sb.String(), nil
}

// GetMacros returns the macro table for inspection.
func (p *Preprocessor) GetMacros() *MacroTable {
	return p.macros
}

// SetLineMarkers enables or disables line marker output.
func (p *Preprocessor) SetLineMarkers(enabled bool) {
	p.opts.LineMarkers = enabled
}
