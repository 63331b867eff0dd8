package parser

import (
	"github.com/manifedit/manifedit/internal/lexer"
	"github.com/manifedit/manifedit/internal/syntax"
)

type delimitedConfig struct {
	Closing   lexer.TokenType
	Separator lexer.TokenType

	AllowTrailing bool

	MissingElementMsg   string
	MissingSeparatorMsg string
}

// parseDelimited parses a separator-delimited list up to a closing token.
// On entry curTok must be the first token of the first element; on success
// curTok is the closing token. onSeparator receives each separator token so
// callers can attach it to the element it trails (the tree keeps separators
// on elements, not in a parallel list).
func parseDelimited[T any](p *Parser, cfg delimitedConfig, parseItem func(idx int) (T, bool), onSeparator func(idx int, sep syntax.Token, items []T)) ([]T, bool) {
	var items []T

	if cfg.Separator == "" {
		cfg.Separator = lexer.COMMA
	}

	if cfg.Closing == "" {
		panic("parseDelimited requires a closing token")
	}

	if p.curTok.syn.Type == cfg.Closing {
		msg := cfg.MissingElementMsg
		if msg == "" {
			msg = "expected element"
		}
		p.reportError(msg, p.curTok.syn.Span)
		return nil, false
	}

	for {
		item, ok := parseItem(len(items))
		if !ok {
			return nil, false
		}
		items = append(items, item)

		switch p.peekTok.syn.Type {
		case cfg.Separator:
			p.nextToken() // move to separator
			if onSeparator != nil {
				onSeparator(len(items)-1, p.curTok.syn, items)
			}

			if p.peekTok.syn.Type == cfg.Closing {
				if cfg.AllowTrailing {
					p.nextToken()
					return items, true
				}
				msg := cfg.MissingElementMsg
				if msg == "" {
					msg = "expected element"
				}
				p.reportError(msg, p.peekTok.syn.Span)
				return nil, false
			}

			p.nextToken() // move to next element
			continue
		case cfg.Closing:
			p.nextToken()
			return items, true
		default:
			msg := cfg.MissingSeparatorMsg
			if msg == "" {
				msg = "expected '" + string(cfg.Separator) + "' or '" + string(cfg.Closing) + "'"
			}
			p.reportError(msg, p.peekTok.syn.Span)
			return nil, false
		}
	}
}
