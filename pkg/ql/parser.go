package ql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/emberdb/emberdb/pkg/values"
)

func uuidParse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

func newParseError(pos int, src, message string) error {
	start := pos - 12
	if start < 0 {
		start = 0
	}
	end := pos + 12
	r := []rune(src)
	if end > len(r) {
		end = len(r)
	}
	ctx := string(r[start:end])
	return &dberrors.ParseError{Pos: pos, Context: ctx, Message: message}
}

// Parser holds the token stream for one statement. Use Parse, not this
// type directly.
type Parser struct {
	toks []token
	pos  int
	src  string
}

// Parse turns a single QL statement into its AST. On failure it returns
// a *dberrors.ParseError and no partial AST.
func Parse(src string) (Stmt, error) {
	l := newLexer(src)
	toks, err := l.tokenize()
	if err != nil {
		return Stmt{}, err
	}
	p := &Parser{toks: toks, src: src}
	stmt, err := p.parseTop()
	if err != nil {
		return Stmt{}, err
	}
	if p.cur().kind != tokEOF {
		return Stmt{}, p.errf("unexpected trailing input %q", p.cur().text)
	}
	return stmt, nil
}

func (p *Parser) cur() token  { return p.toks[p.pos] }
func (p *Parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return newParseError(p.cur().pos, p.src, fmt.Sprintf(format, args...))
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errf("expected %q, found %q", kw, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectPunct(s string) error {
	if p.cur().kind != tokPunct || p.cur().text != s {
		return p.errf("expected %q, found %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

// parseNumericWord classifies a digit-led token as a Uuid, DateTime,
// Float, or Integer literal, in that order, since all four can start
// with a digit and the lexer doesn't disambiguate them.
func parseNumericWord(t token, src string) (values.Value, error) {
	if u, err := uuidParse(t.text); err == nil {
		return values.UuidValue(u), nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, t.text); err == nil {
		return values.DateTime(ts), nil
	}
	if ts, err := time.Parse(time.RFC3339, t.text); err == nil {
		return values.DateTime(ts), nil
	}
	if strings.ContainsAny(t.text, ".eE") {
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return values.Value{}, newParseError(t.pos, src, "invalid float literal "+t.text)
		}
		return values.Float(f), nil
	}
	n, err := strconv.ParseInt(t.text, 10, 64)
	if err != nil {
		return values.Value{}, newParseError(t.pos, src, "invalid numeric literal "+t.text)
	}
	return values.Integer(n), nil
}

// parseRawWord reads a single token's text as-is, used for the WHEN
// AT/START/END datetime arguments, which are parsed downstream rather
// than turned into a Value here.
func (p *Parser) parseRawWord() (string, error) {
	t := p.cur()
	switch t.kind {
	case tokIdent, tokNumber, tokString:
		p.advance()
		return t.text, nil
	default:
		return "", p.errf("expected a datetime literal, found %q", t.text)
	}
}

func (p *Parser) expectIdentAny() (string, error) {
	if p.cur().kind != tokIdent {
		return "", p.errf("expected an identifier, found %q", p.cur().text)
	}
	t := p.advance()
	return t.text, nil
}

// parseTop dispatches on the leading keyword, then checks for a
// trailing relational combinator (INTERSECT/UNION/DIFFERENCE).
func (p *Parser) parseTop() (Stmt, error) {
	if p.isKeyword("JOIN") {
		return p.parseJoin()
	}

	left, err := p.parseSimple()
	if err != nil {
		return Stmt{}, err
	}

	for p.isKeyword("INTERSECT") || p.isKeyword("UNION") || p.isKeyword("DIFFERENCE") {
		var relType RelationType
		switch {
		case p.isKeyword("INTERSECT"):
			relType = RelIntersect
		case p.isKeyword("UNION"):
			relType = RelUnion
		default:
			relType = RelDifference
		}
		p.advance()

		if err := p.expectPunct("("); err != nil {
			return Stmt{}, err
		}
		relKey := ByKey
		if p.isKeyword("KEY-VALUE") {
			relKey = ByKeyValue
			p.advance()
		} else if err := p.expectKeyword("KEY"); err != nil {
			return Stmt{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Stmt{}, err
		}

		right, err := p.parseSimple()
		if err != nil {
			return Stmt{}, err
		}

		left = Stmt{
			Kind:         StmtRelation,
			Operands:     []Stmt{left, right},
			RelationType: relType,
			RelationKey:  relKey,
		}
	}

	return left, nil
}

func (p *Parser) parseJoin() (Stmt, error) {
	p.advance() // JOIN
	if err := p.expectPunct("("); err != nil {
		return Stmt{}, err
	}
	leftEntity, leftKey, err := p.parseEntityKeyPair()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectPunct(","); err != nil {
		return Stmt{}, err
	}
	rightEntity, rightKey, err := p.parseEntityKeyPair()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectPunct(")"); err != nil {
		return Stmt{}, err
	}

	var operands []Stmt
	for {
		s, err := p.parseSimple()
		if err != nil {
			return Stmt{}, err
		}
		operands = append(operands, s)
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
			continue
		}
		break
	}

	return Stmt{
		Kind:            StmtJoin,
		JoinLeftEntity:  leftEntity,
		JoinLeftKey:     leftKey,
		JoinRightEntity: rightEntity,
		JoinRightKey:    rightKey,
		Operands:        operands,
	}, nil
}

func (p *Parser) parseEntityKeyPair() (string, string, error) {
	entity, err := p.expectIdentAny()
	if err != nil {
		return "", "", err
	}
	if err := p.expectPunct(":"); err != nil {
		return "", "", err
	}
	key, err := p.expectIdentAny()
	if err != nil {
		return "", "", err
	}
	return entity, key, nil
}

func (p *Parser) parseSimple() (Stmt, error) {
	switch {
	case p.isKeyword("CREATE"):
		return p.parseCreateEntity()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("MATCH"):
		return p.parseMatchUpdate()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("EVICT"):
		return p.parseEvict()
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	case p.isKeyword("CHECK"):
		return p.parseCheck()
	default:
		return Stmt{}, p.errf("unrecognized statement starting at %q", p.cur().text)
	}
}

func (p *Parser) parseCreateEntity() (Stmt, error) {
	p.advance() // CREATE
	if err := p.expectKeyword("ENTITY"); err != nil {
		return Stmt{}, err
	}
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}

	stmt := Stmt{Kind: StmtCreateEntity, Entity: name}

	for p.isKeyword("UNIQUES") || p.isKeyword("ENCRYPT") {
		isUnique := p.isKeyword("UNIQUES")
		p.advance()
		keys, err := p.parseKeySet()
		if err != nil {
			return Stmt{}, err
		}
		if isUnique {
			stmt.UniqueKeys = keys
		} else {
			stmt.EncryptedKeys = keys
		}
	}
	return stmt, nil
}

// parseKeySet reads `#{k, k2, ...}`.
func (p *Parser) parseKeySet() ([]string, error) {
	if err := p.expectPunct("#"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var keys []string
	for !(p.cur().kind == tokPunct && p.cur().text == "}") {
		k, err := p.expectIdentAny()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // }
	return keys, nil
}

func (p *Parser) parseInsert() (Stmt, error) {
	p.advance() // INSERT
	m, err := p.parseMapLiteral()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return Stmt{}, err
	}
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}

	stmt := Stmt{Kind: StmtInsert, Entity: name, Map: m}
	if p.isKeyword("WITH") {
		p.advance()
		id, err := p.parseIDLiteral()
		if err != nil {
			return Stmt{}, err
		}
		stmt.ID = id
		stmt.HasID = true
	}
	return stmt, nil
}

func (p *Parser) parseUpdate() (Stmt, error) {
	p.advance() // UPDATE
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}

	isSet := true
	switch {
	case p.isKeyword("SET"):
		p.advance()
	case p.isKeyword("CONTENT"):
		isSet = false
		p.advance()
	default:
		return Stmt{}, p.errf("expected SET or CONTENT, found %q", p.cur().text)
	}

	m, err := p.parseMapLiteral()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return Stmt{}, err
	}
	id, err := p.parseIDLiteral()
	if err != nil {
		return Stmt{}, err
	}

	kind := StmtUpdateSet
	if !isSet {
		kind = StmtUpdateContent
	}
	return Stmt{Kind: kind, Entity: name, Map: m, ID: id, HasID: true}, nil
}

func (p *Parser) parseMatchUpdate() (Stmt, error) {
	p.advance() // MATCH
	cond, err := p.parseMatchCondition()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("UPDATE"); err != nil {
		return Stmt{}, err
	}
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return Stmt{}, err
	}
	m, err := p.parseMapLiteral()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return Stmt{}, err
	}
	id, err := p.parseIDLiteral()
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtMatchUpdate, Entity: name, Map: m, ID: id, HasID: true, MatchCondition: cond}, nil
}

func (p *Parser) parseMatchCondition() (MatchCondition, error) {
	switch {
	case p.isKeyword("ALL"), p.isKeyword("ANY"):
		isAll := p.isKeyword("ALL")
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return MatchCondition{}, err
		}
		var children []MatchCondition
		for {
			c, err := p.parseMatchCondition()
			if err != nil {
				return MatchCondition{}, err
			}
			children = append(children, c)
			if p.cur().kind == tokPunct && p.cur().text == "," {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return MatchCondition{}, err
		}
		kind := MatchAny
		if isAll {
			kind = MatchAll
		}
		return MatchCondition{Kind: kind, Children: children}, nil
	default:
		key, err := p.expectIdentAny()
		if err != nil {
			return MatchCondition{}, err
		}
		op, err := p.parseMatchOp()
		if err != nil {
			return MatchCondition{}, err
		}
		val, err := p.parseValueLiteral()
		if err != nil {
			return MatchCondition{}, err
		}
		return MatchCondition{Kind: op, Key: key, Value: val}, nil
	}
}

func (p *Parser) parseMatchOp() (MatchConditionKind, error) {
	t := p.cur()
	switch {
	case t.kind == tokIdent && strings.EqualFold(t.text, "EQ"):
		p.advance()
		return MatchEq, nil
	case t.kind == tokIdent && strings.EqualFold(t.text, "NOT"):
		p.advance()
		return MatchNotEq, nil
	case t.kind == tokPunct && t.text == ">=":
		p.advance()
		return MatchGEq, nil
	case t.kind == tokPunct && t.text == ">":
		p.advance()
		return MatchG, nil
	case t.kind == tokPunct && t.text == "<=":
		p.advance()
		return MatchLEq, nil
	case t.kind == tokPunct && t.text == "<":
		p.advance()
		return MatchL, nil
	default:
		return 0, p.errf("expected a match operator, found %q", t.text)
	}
}

func (p *Parser) parseDelete() (Stmt, error) {
	p.advance() // DELETE
	id, err := p.parseIDLiteral()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return Stmt{}, err
	}
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtDelete, Entity: name, ID: id, HasID: true}, nil
}

func (p *Parser) parseEvict() (Stmt, error) {
	p.advance() // EVICT

	// EVICT <name> with no FROM clause evicts the whole entity; EVICT
	// <id> FROM <name> evicts one id. Disambiguate by whether FROM
	// follows.
	save := p.pos
	if id, err := p.parseIDLiteral(); err == nil {
		if p.isKeyword("FROM") {
			p.advance()
			name, err := p.expectIdentAny()
			if err != nil {
				return Stmt{}, err
			}
			return Stmt{Kind: StmtEvictID, Entity: name, ID: id, HasID: true}, nil
		}
	}
	p.pos = save

	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtEvictEntity, Entity: name, EvictWholeEntity: true}, nil
}

func (p *Parser) parseSelect() (Stmt, error) {
	p.advance() // SELECT
	sel, err := p.parseToSelect()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return Stmt{}, err
	}
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}

	stmt := Stmt{Entity: name, Select: sel}

	switch {
	case p.isKeyword("ID"):
		p.advance()
		id, err := p.parseIDLiteral()
		if err != nil {
			return Stmt{}, err
		}
		stmt.ID = id
		stmt.HasID = true

		if p.isKeyword("WHEN") {
			p.advance()
			if p.isKeyword("AT") {
				p.advance()
				at, err := p.parseRawWord()
				if err != nil {
					return Stmt{}, err
				}
				stmt.Kind = StmtSelectWhen
				stmt.WhenAt = at
				return stmt, nil
			}
			if err := p.expectKeyword("START"); err != nil {
				return Stmt{}, err
			}
			start, err := p.parseRawWord()
			if err != nil {
				return Stmt{}, err
			}
			if err := p.expectKeyword("END"); err != nil {
				return Stmt{}, err
			}
			end, err := p.parseRawWord()
			if err != nil {
				return Stmt{}, err
			}
			stmt.Kind = StmtSelectWhenRange
			stmt.WhenStart = start
			stmt.WhenEnd = end
			return stmt, nil
		}
		stmt.Kind = StmtSelect

	case p.isKeyword("IDS"):
		p.advance()
		ids, err := p.parseIDSet()
		if err != nil {
			return Stmt{}, err
		}
		stmt.IDs = ids
		stmt.Kind = StmtSelectIDs

	default:
		stmt.Kind = StmtSelect
	}

	if p.isKeyword("WHERE") {
		p.advance()
		clauses, err := p.parseWhereClauses()
		if err != nil {
			return Stmt{}, err
		}
		stmt.Where = clauses
		stmt.Kind = StmtSelectWhere
	}

	algebras, err := p.parseAlgebraSuffixes()
	if err != nil {
		return Stmt{}, err
	}
	stmt.Algebras = algebras

	return stmt, nil
}

func (p *Parser) parseToSelect() (ToSelect, error) {
	if p.cur().kind == tokPunct && p.cur().text == "*" {
		p.advance()
		return ToSelect{All: true}, nil
	}
	keys, err := p.parseKeySet()
	if err != nil {
		return ToSelect{}, err
	}
	return ToSelect{Keys: keys}, nil
}

func (p *Parser) parseIDSet() ([]values.ID, error) {
	if err := p.expectPunct("#"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var ids []values.ID
	for !(p.cur().kind == tokPunct && p.cur().text == "}") {
		id, err := p.parseIDLiteral()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // }
	return ids, nil
}

func (p *Parser) parseWhereClauses() ([]Clause, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var clauses []Clause
	for !(p.cur().kind == tokPunct && p.cur().text == "}") {
		c, err := p.parseWhereClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // }
	return clauses, nil
}

func (p *Parser) parseWhereClause() (Clause, error) {
	switch {
	case p.isKeyword("IN"):
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return Clause{}, err
		}
		key, err := p.expectIdentAny()
		if err != nil {
			return Clause{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return Clause{}, err
		}
		var set []values.Value
		for {
			v, err := p.parseValueLiteral()
			if err != nil {
				return Clause{}, err
			}
			set = append(set, v)
			if p.cur().kind == tokPunct && p.cur().text == "," {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return Clause{}, err
		}
		return Clause{Op: ClauseIn, Key: key, Set: set}, nil

	case p.isKeyword("BETWEEN"):
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return Clause{}, err
		}
		key, err := p.expectIdentAny()
		if err != nil {
			return Clause{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return Clause{}, err
		}
		lo, err := p.parseValueLiteral()
		if err != nil {
			return Clause{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return Clause{}, err
		}
		hi, err := p.parseValueLiteral()
		if err != nil {
			return Clause{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Clause{}, err
		}
		return Clause{Op: ClauseBetween, Key: key, Lo: lo, Hi: hi}, nil

	default:
		if err := p.expectPunct("("); err != nil {
			return Clause{}, err
		}
		key, err := p.expectIdentAny()
		if err != nil {
			return Clause{}, err
		}
		op, err := p.parseClauseOp()
		if err != nil {
			return Clause{}, err
		}
		val, err := p.parseValueLiteral()
		if err != nil {
			return Clause{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Clause{}, err
		}
		return Clause{Op: op, Key: key, Value: val}, nil
	}
}

func (p *Parser) parseClauseOp() (ClauseOp, error) {
	t := p.cur()
	if t.kind == tokIdent && strings.EqualFold(t.text, "like") {
		p.advance()
		return ClauseLike, nil
	}
	if t.kind != tokPunct {
		return 0, p.errf("expected a comparison operator, found %q", t.text)
	}
	p.advance()
	switch t.text {
	case "==":
		return ClauseEq, nil
	case "!=":
		return ClauseNeq, nil
	case ">":
		return ClauseGt, nil
	case ">=":
		return ClauseGeq, nil
	case "<":
		return ClauseLt, nil
	case "<=":
		return ClauseLeq, nil
	default:
		return 0, p.errf("unknown comparison operator %q", t.text)
	}
}

func (p *Parser) parseAlgebraSuffixes() ([]Algebra, error) {
	var out []Algebra
	for p.cur().kind == tokPunct && p.cur().text == "|" {
		p.advance()
		switch {
		case p.isKeyword("ORDER"):
			p.advance()
			if err := p.expectKeyword("BY"); err != nil {
				return nil, err
			}
			key, err := p.expectIdentAny()
			if err != nil {
				return nil, err
			}
			order := Asc
			if p.isKeyword("DESC") {
				order = Desc
				p.advance()
			} else if p.isKeyword("ASC") {
				p.advance()
			}
			out = append(out, Algebra{Kind: AlgebraOrderBy, Key: key, Order: order})
		case p.isKeyword("LIMIT"):
			p.advance()
			n, err := p.expectNumber()
			if err != nil {
				return nil, err
			}
			out = append(out, Algebra{Kind: AlgebraLimit, N: n})
		case p.isKeyword("OFFSET"):
			p.advance()
			n, err := p.expectNumber()
			if err != nil {
				return nil, err
			}
			out = append(out, Algebra{Kind: AlgebraOffset, N: n})
		case p.isKeyword("COUNT"):
			p.advance()
			out = append(out, Algebra{Kind: AlgebraCount})
		case p.isKeyword("GROUP"):
			p.advance()
			if err := p.expectKeyword("BY"); err != nil {
				return nil, err
			}
			key, err := p.expectIdentAny()
			if err != nil {
				return nil, err
			}
			out = append(out, Algebra{Kind: AlgebraGroupBy, Key: key})
		case p.isKeyword("DEDUP"):
			p.advance()
			key, err := p.expectIdentAny()
			if err != nil {
				return nil, err
			}
			out = append(out, Algebra{Kind: AlgebraDedup, Key: key})
		default:
			return nil, p.errf("unknown algebra stage %q", p.cur().text)
		}
	}
	return out, nil
}

func (p *Parser) expectNumber() (int64, error) {
	if p.cur().kind != tokNumber {
		return 0, p.errf("expected a number, found %q", p.cur().text)
	}
	t := p.advance()
	n, err := strconv.ParseInt(t.text, 10, 64)
	if err != nil {
		return 0, newParseError(t.pos, p.src, "invalid integer literal "+t.text)
	}
	return n, nil
}

func (p *Parser) parseCheck() (Stmt, error) {
	p.advance() // CHECK
	if err := p.expectPunct("{"); err != nil {
		return Stmt{}, err
	}
	fields := map[string]string{}
	for !(p.cur().kind == tokPunct && p.cur().text == "}") {
		key, err := p.expectIdentAny()
		if err != nil {
			return Stmt{}, err
		}
		if err := p.expectPunct(":"); err != nil {
			return Stmt{}, err
		}
		if p.cur().kind != tokString {
			return Stmt{}, p.errf("expected a string literal, found %q", p.cur().text)
		}
		fields[key] = p.advance().text
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // }

	if err := p.expectKeyword("FROM"); err != nil {
		return Stmt{}, err
	}
	name, err := p.expectIdentAny()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectKeyword("ID"); err != nil {
		return Stmt{}, err
	}
	id, err := p.parseIDLiteral()
	if err != nil {
		return Stmt{}, err
	}

	return Stmt{Kind: StmtCheck, Entity: name, ID: id, HasID: true, CheckFields: fields}, nil
}

// parseIDLiteral reads a bare or quoted id token and resolves it via
// values.ParseID.
func (p *Parser) parseIDLiteral() (values.ID, error) {
	t := p.cur()
	switch t.kind {
	case tokString, tokIdent, tokNumber:
		p.advance()
		return values.ParseID(t.text)
	default:
		return values.ID{}, p.errf("expected an id, found %q", t.text)
	}
}

func (p *Parser) parseMapLiteral() (map[string]values.Value, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	m := map[string]values.Value{}
	for !(p.cur().kind == tokPunct && p.cur().text == "}") {
		key, err := p.expectIdentAny()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		v, err := p.parseValueLiteral()
		if err != nil {
			return nil, err
		}
		m[key] = v
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // }
	return m, nil
}

func (p *Parser) parseVectorLiteral() ([]values.Value, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var vec []values.Value
	for !(p.cur().kind == tokPunct && p.cur().text == "]") {
		v, err := p.parseValueLiteral()
		if err != nil {
			return nil, err
		}
		vec = append(vec, v)
		if p.cur().kind == tokPunct && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // ]
	return vec, nil
}

func (p *Parser) parseValueLiteral() (values.Value, error) {
	t := p.cur()
	switch {
	case t.kind == tokString:
		p.advance()
		return values.String(t.text), nil
	case t.kind == tokNumber:
		p.advance()
		return parseNumericWord(t, p.src)
	case t.kind == tokPunct && t.text == "{":
		m, err := p.parseMapLiteral()
		if err != nil {
			return values.Value{}, err
		}
		return values.Map(m), nil
	case t.kind == tokPunct && t.text == "[":
		vec, err := p.parseVectorLiteral()
		if err != nil {
			return values.Value{}, err
		}
		return values.Vector(vec), nil
	case t.kind == tokIdent && strings.EqualFold(t.text, "true"):
		p.advance()
		return values.Boolean(true), nil
	case t.kind == tokIdent && strings.EqualFold(t.text, "false"):
		p.advance()
		return values.Boolean(false), nil
	case t.kind == tokIdent && strings.EqualFold(t.text, "nil"):
		p.advance()
		return values.Nil, nil
	case t.kind == tokIdent:
		p.advance()
		if id, err := values.ParseID(t.text); err == nil && id.Kind == values.IDUuid {
			return values.UuidValue(id.Uuid), nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, t.text); err == nil {
			return values.DateTime(ts), nil
		}
		if ts, err := time.Parse(time.RFC3339, t.text); err == nil {
			return values.DateTime(ts), nil
		}
		return values.Value{}, newParseError(t.pos, p.src, "unrecognized value literal "+t.text)
	default:
		return values.Value{}, p.errf("expected a value literal, found %q", t.text)
	}
}
