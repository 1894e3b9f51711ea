package cpp

// TokenIterator is a stacked cursor over lexer and pending-token-list
// entries. It is the single stateful cursor the preprocessing loop drives:
// every directive, macro expansion, and include is expressed as pushing or
// splicing an entry onto this stack rather than mutating a shared buffer.
//
// The two kinds of entry mirror the stack frames built by the original
// iterator (ppti_include_file pushes a lexer frame; ppti_insert_tok_list
// splices a pending-token frame onto the current top): a frame either owns a
// live *Lexer reading a file's bytes, or replays a list of already-produced
// tokens (macro expansion output, or tokens spliced back via pushback).
type iteratorEntry struct {
	lexer    *Lexer // non-nil for a file frame
	filename string // set when lexer != nil
	pending  []Token
	next     *iteratorEntry
}

// TokenIterator threads an arbitrary number of stacked entries together.
type TokenIterator struct {
	top *iteratorEntry
	eof Token // end-of-all-input sentinel, returned forever once the stack empties
}

// NewTokenIterator creates an iterator with no entries; Peek returns eof
// until PushFile or SpliceTokens adds a source.
func NewTokenIterator() *TokenIterator {
	return &TokenIterator{eof: Token{Type: PP_EOF}}
}

// PushFile resolves nothing itself — callers resolve the filename and pass
// the bytes in; PushFile creates a lexer over them and makes it the new top
// entry, so the next Peek returns the first token of the new file.
func (it *TokenIterator) PushFile(filename, contents string) {
	it.top = &iteratorEntry{
		lexer:    NewLexer(contents, filename),
		filename: filename,
		next:     it.top,
	}
}

// SpliceTokens prepends a chain of tokens to the current top entry's pending
// list, creating an empty entry first if the stack is empty. Subsequent
// Peek calls return the head of this chain before any remaining source.
func (it *TokenIterator) SpliceTokens(tokens []Token) {
	if it.top == nil {
		it.top = &iteratorEntry{}
	}
	if len(tokens) == 0 {
		return
	}
	it.top.pending = append(append([]Token{}, tokens...), it.top.pending...)
}

// Depth reports how many stacked entries remain (file includes + expansion
// frames); the preprocessing loop uses it to tell when all input is used up
// and whether an EOF ends an included file. The include depth limit and
// __INCLUDE_LEVEL__ are computed from the include resolver, not from Depth.
func (it *TokenIterator) Depth() int {
	n := 0
	for e := it.top; e != nil; e = e.next {
		n++
	}
	return n
}

// CurrentFile returns the filename of the nearest file-backed frame, used
// for __FILE__/__BASE_FILE__ and diagnostic locations when the top frame is
// a token-replay frame with no file of its own.
func (it *TokenIterator) CurrentFile() string {
	for e := it.top; e != nil; e = e.next {
		if e.lexer != nil {
			return e.filename
		}
	}
	return ""
}

// Peek returns the current token without advancing. It is idempotent
// between Eat calls.
func (it *TokenIterator) Peek() Token {
	return it.PeekForward(0)
}

// PeekForward returns the n-th token ahead, materializing up to n+1 tokens
// into the top entry's pending list. Materialization never crosses entries:
// if the top entry's lexer exhausts before n tokens are produced, popping to
// the next entry is only performed by Eat, so PeekForward returns that
// entry's own EOF token to the caller rather than silently reading past it —
// matching ppti_peek_forward's one-entry-at-a-time materialization.
func (it *TokenIterator) PeekForward(n int) Token {
	for {
		if it.top == nil {
			return it.eof
		}
		for len(it.top.pending) <= n {
			if it.top.lexer == nil {
				// An exhausted replay frame with nothing left to give:
				// behave as if it had produced EOF, so callers relying on
				// Peek to drive Eat can still pop past it.
				return Token{Type: PP_EOF}
			}
			tok := it.top.lexer.NextToken()
			if tok.Type == PP_EOF && len(it.top.pending) <= n {
				return tok
			}
			it.top.pending = append(it.top.pending, tok)
		}
		return it.top.pending[n]
	}
}

// Eat discards the current token. If the top entry's pending list is
// non-empty, its head is popped; otherwise a token is pulled from its lexer;
// if the lexer also reports EOF, the entry itself is popped and Eat returns
// without consuming anything from the entry beneath it.
func (it *TokenIterator) Eat() {
	if it.top == nil {
		return
	}
	if len(it.top.pending) > 0 {
		it.top.pending = it.top.pending[1:]
		return
	}
	if it.top.lexer != nil {
		tok := it.top.lexer.NextToken()
		if tok.Type != PP_EOF {
			return
		}
	}
	it.top = it.top.next
	// An empty (file-exhausted) frame with nothing pending is now gone;
	// the caller's next Peek resumes transparently on the entry beneath.
}

// EatMultiple discards n tokens in sequence.
func (it *TokenIterator) EatMultiple(n int) {
	for i := 0; i < n; i++ {
		it.Eat()
	}
}

// EatPeek is Eat followed by Peek, the common "consume and look at what's
// next" idiom used throughout directive and expansion handling.
func (it *TokenIterator) EatPeek() Token {
	it.Eat()
	return it.Peek()
}
