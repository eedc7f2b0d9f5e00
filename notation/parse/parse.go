// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parse is a tiny textual notation parser: a hand-written
// recursive-descent parser, one function per grammar rule, for the
// index-notation grammar used by cmd/tacolower and by tests. The lowering
// engine itself takes a notation tree as a given; this package exists only
// so the engine is testable from a human-readable string like
// "a(i) = B(i,j) * c(j)".
package parse

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/gx-org/sparsetaco/notation"
)

// Env resolves the names a notation string refers to: tensors by name, and
// index variables by name. Tensors must be registered by the caller before
// parsing; index variables resolve automatically - a name in the result's
// own index list becomes free, any other name first seen while parsing the
// right-hand side becomes a reduction variable.
type Env struct {
	Tensors map[string]*notation.TensorVar
	IVars   map[string]*notation.IndexVariable
}

// NewEnv returns an empty Env.
func NewEnv() *Env {
	return &Env{Tensors: map[string]*notation.TensorVar{}, IVars: map[string]*notation.IndexVariable{}}
}

// AddTensor registers t under its own name.
func (e *Env) AddTensor(t *notation.TensorVar) { e.Tensors[t.Name] = t }

// knownTensorNames lists e's registered tensor names sorted, for "unknown
// tensor" error messages - Tensors is a plain map, so maps.Keys plus a sort
// is needed to keep the listing deterministic across runs.
func (e *Env) knownTensorNames() []string {
	names := maps.Keys(e.Tensors)
	sort.Strings(names)
	return names
}

// AddIndexVar registers iv under its own name.
func (e *Env) AddIndexVar(iv *notation.IndexVariable) { e.IVars[iv.Name()] = iv }

// Parse parses one assignment statement, e.g. "a(i) = B(i,j) * c(j)" or
// "A(i,j) += B(i,k) * C(k,j)", resolving tensor and index-variable names
// against env.
func Parse(src string, env *Env) (*notation.Assignment, error) {
	p := &parser{toks: tokenize(src), env: env}
	stmt, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.toks[p.pos].text)
	}
	return stmt, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
}

func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '+' && i+1 < len(src) && src[i+1] == '=':
			toks = append(toks, token{tokOp, "+="})
			i += 2
		case strings.ContainsRune("+-*/=", rune(c)):
			toks = append(toks, token{tokOp, string(c)})
			i++
		case isDigit(c):
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		default:
			i++
		}
	}
	return toks
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

type parser struct {
	toks []token
	pos  int
	env  *Env
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) expect(kind tokKind, text string) error {
	t, ok := p.next()
	if !ok || t.kind != kind || (text != "" && t.text != text) {
		return fmt.Errorf("expected %q, got %q", text, t.text)
	}
	return nil
}

func (p *parser) parseAssignment() (*notation.Assignment, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	idxNames, err := p.parseIdxList()
	if err != nil {
		return nil, err
	}
	// Register the result's own indices as free before the right-hand side
	// is parsed, so resolveIndices can tell an RHS name that also appears on
	// the left (free) apart from one that doesn't (a reduction).
	for _, n := range idxNames {
		if _, ok := p.env.IVars[n]; !ok {
			p.env.IVars[n] = notation.NewFree(n)
		}
	}
	op, ok := p.next()
	if !ok || op.kind != tokOp || (op.text != "=" && op.text != "+=") {
		return nil, fmt.Errorf("expected '=' or '+=' after %q's indices", name)
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	result, ok := p.env.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("unknown result tensor %q (known tensors: %s)", name, strings.Join(p.env.knownTensorNames(), ", "))
	}
	indices := p.resolveIndices(idxNames)
	return notation.Assign(result, indices, rhs, op.text == "+=")
}

func (p *parser) parseIdxList() ([]string, error) {
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var names []string
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated index list")
		}
		if t.kind == tokComma {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return names, nil
}

// resolveIndices looks up each name in the env. By the time the right-hand
// side is parsed, every name in the result's own index list is already
// registered as free (parseAssignment does that before parsing Rhs), so any
// name still unseen here is one that never appears on the left-hand side -
// summed out of the result, i.e. a reduction variable - and is registered
// as one the first time it is encountered.
func (p *parser) resolveIndices(names []string) []*notation.IndexVariable {
	out := make([]*notation.IndexVariable, len(names))
	for i, n := range names {
		iv, ok := p.env.IVars[n]
		if !ok {
			iv = notation.NewReduction(n)
			p.env.IVars[n] = iv
		}
		out[i] = iv
	}
	return out
}

func (p *parser) expectIdent() (string, error) {
	t, ok := p.next()
	if !ok || t.kind != tokIdent {
		return "", fmt.Errorf("expected identifier, got %q", t.text)
	}
	return t.text, nil
}

func (p *parser) parseExpr() (notation.IndexExpr, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return x, nil
		}
		p.pos++
		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			x = notation.Add(x, y)
		} else {
			x = notation.Sub(x, y)
		}
	}
}

func (p *parser) parseTerm() (notation.IndexExpr, error) {
	x, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return x, nil
		}
		p.pos++
		y, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		if t.text == "*" {
			x = notation.Mul(x, y)
		} else {
			x = notation.Div(x, y)
		}
	}
}

func (p *parser) parseFactor() (notation.IndexExpr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch {
	case t.kind == tokOp && t.text == "-":
		p.pos++
		x, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return notation.Neg(x), nil
	case t.kind == tokLParen:
		p.pos++
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return x, nil
	case t.kind == tokNumber:
		p.pos++
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, err
		}
		return notation.Lit(v), nil
	case t.kind == tokIdent:
		name := t.text
		p.pos++
		if name == "sqrt" {
			if err := p.expect(tokLParen, "("); err != nil {
				return nil, err
			}
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			return notation.Sqrt(x), nil
		}
		nt, ok := p.peek()
		if !ok || nt.kind != tokLParen {
			return nil, fmt.Errorf("expected '(' after tensor name %q", name)
		}
		idxNames, err := p.parseIdxList()
		if err != nil {
			return nil, err
		}
		tv, ok := p.env.Tensors[name]
		if !ok {
			return nil, fmt.Errorf("unknown tensor %q (known tensors: %s)", name, strings.Join(p.env.knownTensorNames(), ", "))
		}
		return notation.Access(tv, p.resolveIndices(idxNames)...), nil
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}
