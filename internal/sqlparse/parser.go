package sqlparse

import (
	"strings"
)

// maxSubqueryDepth is the deepest supported subquery nesting: one level in
// FROM or IN (SELECT ...). Anything deeper fails with ErrNestingTooDeep.
const maxSubqueryDepth = 1

// Parse turns a single SELECT statement into a ParsedQuery. Any other
// statement type, deeper-than-one subquery nesting, or a column reference
// that cannot be matched to a FROM-clause table fails with a *ParseError.
func Parse(sql string) (*ParsedQuery, error) {
	p := &parser{lx: newLexer(sql)}
	p.advance()

	if p.tok.kind == tokEOF {
		return nil, parseErrf(ErrMalformedSyntax, 0, "empty statement")
	}
	if !p.tok.isKeyword("SELECT") {
		return nil, p.classifyNonSelect()
	}

	q, err := p.parseSelect(0)
	if err != nil {
		return nil, err
	}

	if p.tok.kind == tokIdent && isSetOperation(p.tok.text) {
		return nil, parseErrf(ErrUnsupportedStatement, p.tok.pos,
			"set operation %s is not supported", strings.ToUpper(p.tok.text))
	}
	if p.tok.isSymbol(";") {
		p.advance()
	}
	if p.tok.kind != tokEOF {
		return nil, parseErrf(ErrMalformedSyntax, p.tok.pos, "unexpected trailing input %q", p.tok.text)
	}
	return q, nil
}

type parser struct {
	lx  *lexer
	tok token
}

func (p *parser) advance() {
	p.tok = p.lx.next()
}

// classifyNonSelect maps leading non-SELECT keywords onto the error taxonomy.
func (p *parser) classifyNonSelect() error {
	statementKeywords := []string{
		"INSERT", "UPDATE", "DELETE", "MERGE", "CREATE", "ALTER", "DROP",
		"TRUNCATE", "GRANT", "REVOKE", "WITH", "EXPLAIN", "CALL", "BEGIN",
		"COMMIT", "ROLLBACK", "SET", "LOCK",
	}
	for _, kw := range statementKeywords {
		if p.tok.isKeyword(kw) {
			return parseErrf(ErrUnsupportedStatement, p.tok.pos,
				"%s statements are not supported, only SELECT", kw)
		}
	}
	return parseErrf(ErrMalformedSyntax, p.tok.pos, "expected SELECT, found %q", p.tok.text)
}

func isSetOperation(word string) bool {
	switch strings.ToUpper(word) {
	case "UNION", "INTERSECT", "MINUS", "EXCEPT":
		return true
	}
	return false
}

// rawRef is an unresolved column reference collected from the select list
// before the FROM clause has been seen.
type rawRef struct {
	qual string
	col  string
	pos  int
}

func (p *parser) parseSelect(depth int) (*ParsedQuery, error) {
	if !p.tok.isKeyword("SELECT") {
		return nil, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected SELECT, found %q", p.tok.text)
	}
	p.advance()
	if p.tok.isKeyword("DISTINCT") || p.tok.isKeyword("ALL") {
		p.advance()
	}

	q := &ParsedQuery{}
	rawSelect, wildcard, err := p.parseSelectList(depth)
	if err != nil {
		return nil, err
	}
	q.SelectWildcard = wildcard

	if p.tok.isKeyword("FROM") {
		p.advance()
		if err := p.parseFromClause(q, depth); err != nil {
			return nil, err
		}
	}

	// The select list is lexed before tables are known, so resolution is
	// deferred until here.
	for _, r := range rawSelect {
		ref, err := p.resolveRef(q, r)
		if err != nil {
			return nil, err
		}
		q.Select = append(q.Select, ref)
	}

	if p.tok.isKeyword("WHERE") {
		p.advance()
		res, err := p.parseOrExpr(q, JoinInner, depth)
		if err != nil {
			return nil, err
		}
		q.Predicates = append(q.Predicates, res.preds...)
		q.Joins = append(q.Joins, res.joins...)
	}

	if err := p.parseGroupOrder(q, depth); err != nil {
		return nil, err
	}
	p.parseRowLimit()

	return q, nil
}

// parseSelectList collects projection column references. Function arguments
// contribute their column references; aliases and literals contribute nothing.
func (p *parser) parseSelectList(depth int) (refs []rawRef, wildcard bool, err error) {
	for {
		itemRefs, itemWildcard, err := p.parseSelectItem(depth)
		if err != nil {
			return nil, false, err
		}
		refs = append(refs, itemRefs...)
		wildcard = wildcard || itemWildcard

		if p.tok.isSymbol(",") {
			p.advance()
			continue
		}
		return refs, wildcard, nil
	}
}

func (p *parser) parseSelectItem(depth int) (refs []rawRef, wildcard bool, err error) {
	for {
		r, w, err := p.parseSelectOperand(depth)
		if err != nil {
			return nil, false, err
		}
		refs = append(refs, r...)
		wildcard = wildcard || w

		// Arithmetic and concatenation chain more operands into one item.
		if p.tok.isSymbol("+") || p.tok.isSymbol("-") || p.tok.isSymbol("*") ||
			p.tok.isSymbol("/") || p.tok.isSymbol("|") {
			p.advance()
			// "||" lexes as two pipes.
			if p.tok.isSymbol("|") {
				p.advance()
			}
			continue
		}
		break
	}

	// Optional alias: AS ident, or a bare trailing identifier.
	if p.tok.isKeyword("AS") {
		p.advance()
		if p.tok.kind != tokIdent {
			return nil, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected alias after AS")
		}
		p.advance()
	} else if p.tok.kind == tokIdent && !isClauseKeyword(p.tok.text) {
		p.advance()
	}
	return refs, wildcard, nil
}

func (p *parser) parseSelectOperand(depth int) (refs []rawRef, wildcard bool, err error) {
	switch {
	case p.tok.isSymbol("*"):
		p.advance()
		return nil, true, nil

	case p.tok.kind == tokString || p.tok.kind == tokNumber || p.tok.kind == tokBind:
		p.advance()
		return nil, false, nil

	case p.tok.isSymbol("("):
		// Parenthesized expression; scalar subqueries in the projection are
		// outside the supported grammar, so only balanced skipping happens.
		return nil, false, p.skipBalanced()

	case p.tok.kind == tokIdent:
		if isClauseKeyword(p.tok.text) {
			return nil, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected select expression, found %q", p.tok.text)
		}
		first := p.tok
		p.advance()

		if p.tok.isSymbol("(") {
			return p.parseFunctionArgs(depth)
		}

		qual, col := "", first.text
		pos := first.pos
		for p.tok.isSymbol(".") {
			p.advance()
			if p.tok.isSymbol("*") {
				p.advance()
				return refs, true, nil
			}
			if p.tok.kind != tokIdent {
				return nil, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected identifier after '.'")
			}
			if qual == "" {
				qual = col
			} else {
				qual = qual + "." + col
			}
			col = p.tok.text
			p.advance()
		}
		if isBareLiteralKeyword(col) && qual == "" {
			return nil, false, nil
		}
		return []rawRef{{qual: qual, col: col, pos: pos}}, false, nil

	default:
		return nil, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "unexpected token %q in select list", p.tok.text)
	}
}

// parseFunctionArgs consumes a call's argument list, collecting any plain
// column references so aggregates like MAX(salary) still count toward
// covering-index scoring.
func (p *parser) parseFunctionArgs(depth int) (refs []rawRef, wildcard bool, err error) {
	p.advance() // '('
	if p.tok.isKeyword("DISTINCT") {
		p.advance()
	}
	for {
		switch {
		case p.tok.isSymbol(")"):
			p.advance()
			return refs, false, nil
		case p.tok.kind == tokEOF:
			return nil, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "unterminated function call")
		case p.tok.isSymbol("("):
			if err := p.skipBalanced(); err != nil {
				return nil, false, err
			}
		case p.tok.kind == tokIdent && !isBareLiteralKeyword(p.tok.text):
			first := p.tok
			p.advance()
			if p.tok.isSymbol("(") {
				inner, _, err := p.parseFunctionArgs(depth)
				if err != nil {
					return nil, false, err
				}
				refs = append(refs, inner...)
				continue
			}
			qual, col := "", first.text
			for p.tok.isSymbol(".") {
				p.advance()
				if p.tok.kind != tokIdent {
					return nil, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected identifier after '.'")
				}
				if qual == "" {
					qual = col
				} else {
					qual = qual + "." + col
				}
				col = p.tok.text
				p.advance()
			}
			refs = append(refs, rawRef{qual: qual, col: col, pos: first.pos})
		default:
			p.advance()
		}
	}
}

// skipBalanced consumes a parenthesized token run starting at '('.
func (p *parser) skipBalanced() error {
	start := p.tok.pos
	depth := 0
	for {
		switch {
		case p.tok.isSymbol("("):
			depth++
		case p.tok.isSymbol(")"):
			depth--
			if depth == 0 {
				p.advance()
				return nil
			}
		case p.tok.kind == tokEOF:
			return parseErrf(ErrMalformedSyntax, start, "unbalanced parentheses")
		}
		p.advance()
	}
}

func (p *parser) parseFromClause(q *ParsedQuery, depth int) error {
	for {
		tr, err := p.parseTableRef(depth)
		if err != nil {
			return err
		}
		q.Tables = append(q.Tables, tr)
		if p.tok.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}

	for {
		jt, isJoin, isCross, err := p.parseJoinKeywords()
		if err != nil {
			return err
		}
		if !isJoin {
			break
		}
		tr, err := p.parseTableRef(depth)
		if err != nil {
			return err
		}
		q.Tables = append(q.Tables, tr)

		if isCross {
			continue
		}
		if !p.tok.isKeyword("ON") {
			return parseErrf(ErrMalformedSyntax, p.tok.pos, "expected ON after JOIN %s", tr.Name)
		}
		p.advance()
		res, err := p.parseOrExpr(q, jt, depth)
		if err != nil {
			return err
		}
		q.Predicates = append(q.Predicates, res.preds...)
		q.Joins = append(q.Joins, res.joins...)
	}

	return checkAliasUniqueness(q)
}

// parseJoinKeywords consumes an optional join-type prefix plus JOIN.
func (p *parser) parseJoinKeywords() (jt JoinType, isJoin, isCross bool, err error) {
	switch {
	case p.tok.isKeyword("JOIN"):
		p.advance()
		return JoinInner, true, false, nil
	case p.tok.isKeyword("INNER"):
		p.advance()
		jt = JoinInner
	case p.tok.isKeyword("LEFT"):
		p.advance()
		jt = JoinLeft
	case p.tok.isKeyword("RIGHT"):
		p.advance()
		jt = JoinRight
	case p.tok.isKeyword("FULL"):
		p.advance()
		jt = JoinFull
	case p.tok.isKeyword("CROSS"):
		p.advance()
		if !p.tok.isKeyword("JOIN") {
			return 0, false, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected JOIN after CROSS")
		}
		p.advance()
		return JoinInner, true, true, nil
	default:
		return 0, false, false, nil
	}
	if p.tok.isKeyword("OUTER") {
		p.advance()
	}
	if !p.tok.isKeyword("JOIN") {
		return 0, false, false, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected JOIN, found %q", p.tok.text)
	}
	p.advance()
	return jt, true, false, nil
}

func (p *parser) parseTableRef(depth int) (TableRef, error) {
	if p.tok.isSymbol("(") {
		if depth+1 > maxSubqueryDepth {
			return TableRef{}, parseErrf(ErrNestingTooDeep, p.tok.pos,
				"subqueries may nest at most %d level", maxSubqueryDepth)
		}
		p.advance()
		sub, err := p.parseSelect(depth + 1)
		if err != nil {
			return TableRef{}, err
		}
		if !p.tok.isSymbol(")") {
			return TableRef{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected ')' after subquery")
		}
		p.advance()
		alias, ok := p.parseAlias()
		if !ok {
			return TableRef{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "derived table requires an alias")
		}
		return TableRef{Alias: alias, Subquery: sub}, nil
	}

	if p.tok.kind != tokIdent || isClauseKeyword(p.tok.text) {
		return TableRef{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected table name, found %q", p.tok.text)
	}
	name := p.tok.text
	p.advance()

	owner := ""
	if p.tok.isSymbol(".") {
		p.advance()
		if p.tok.kind != tokIdent {
			return TableRef{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected table name after '.'")
		}
		owner, name = name, p.tok.text
		p.advance()
	}

	alias, _ := p.parseAlias()
	return TableRef{Owner: owner, Name: name, Alias: alias}, nil
}

func (p *parser) parseAlias() (string, bool) {
	if p.tok.isKeyword("AS") {
		p.advance()
	}
	if p.tok.kind == tokIdent && !isClauseKeyword(p.tok.text) {
		alias := p.tok.text
		p.advance()
		return alias, true
	}
	return "", false
}

// checkAliasUniqueness enforces the ParsedQuery invariant that no two tables
// share an effective alias.
func checkAliasUniqueness(q *ParsedQuery) error {
	seen := make(map[string]bool, len(q.Tables))
	for _, t := range q.Tables {
		name := t.Alias
		if name == "" {
			name = t.Name
		}
		name = strings.ToLower(name)
		if seen[name] {
			return parseErrf(ErrMalformedSyntax, 0, "duplicate table alias %q", name)
		}
		seen[name] = true
	}
	return nil
}

// exprResult carries predicates and joins extracted from one boolean
// (sub)expression before they are committed to the query.
type exprResult struct {
	preds []Predicate
	joins []Join
}

func (r *exprResult) merge(other exprResult) {
	r.preds = append(r.preds, other.preds...)
	r.joins = append(r.joins, other.joins...)
}

func (p *parser) parseOrExpr(q *ParsedQuery, jt JoinType, depth int) (exprResult, error) {
	res, err := p.parseAndExpr(q, jt, depth)
	if err != nil {
		return exprResult{}, err
	}
	ored := false
	for p.tok.isKeyword("OR") {
		p.advance()
		next, err := p.parseAndExpr(q, jt, depth)
		if err != nil {
			return exprResult{}, err
		}
		res.merge(next)
		ored = true
	}
	if ored {
		// An OR-ed condition cannot be satisfied by one composite index
		// lookup; flag everything beneath it and drop join normalization.
		for i := range res.preds {
			res.preds[i].OrGroup = true
		}
		res.joins = nil
	}
	return res, nil
}

func (p *parser) parseAndExpr(q *ParsedQuery, jt JoinType, depth int) (exprResult, error) {
	res, err := p.parseCondPrimary(q, jt, depth)
	if err != nil {
		return exprResult{}, err
	}
	for p.tok.isKeyword("AND") {
		p.advance()
		next, err := p.parseCondPrimary(q, jt, depth)
		if err != nil {
			return exprResult{}, err
		}
		res.merge(next)
	}
	return res, nil
}

func (p *parser) parseCondPrimary(q *ParsedQuery, jt JoinType, depth int) (exprResult, error) {
	if p.tok.isSymbol("(") {
		p.advance()
		res, err := p.parseOrExpr(q, jt, depth)
		if err != nil {
			return exprResult{}, err
		}
		if !p.tok.isSymbol(")") {
			return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected ')'")
		}
		p.advance()
		return res, nil
	}
	if p.tok.isKeyword("NOT") {
		p.advance()
		res, err := p.parseCondPrimary(q, jt, depth)
		if err != nil {
			return exprResult{}, err
		}
		for i := range res.preds {
			res.preds[i].Negated = true
			res.preds[i].Class = ClassExcluded
		}
		res.joins = nil
		return res, nil
	}
	return p.parsePredicate(q, jt, depth)
}

func (p *parser) parsePredicate(q *ParsedQuery, jt JoinType, depth int) (exprResult, error) {
	// A literal left side ("1 = 1") restricts nothing; consume and move on.
	if p.tok.kind == tokString || p.tok.kind == tokNumber || p.tok.kind == tokBind {
		p.advance()
		if _, ok := p.parseComparisonSymbol(); ok {
			if _, err := p.parseOperand(depth); err != nil {
				return exprResult{}, err
			}
		}
		return exprResult{}, nil
	}

	left, err := p.parseQualifiedName()
	if err != nil {
		return exprResult{}, err
	}

	// A function call wrapping the column (UPPER(email) = :1, HAVING
	// COUNT(id) > 5) cannot drive an index lookup; the condition is parsed
	// for syntax and contributes nothing.
	if p.tok.isSymbol("(") {
		if err := p.skipBalanced(); err != nil {
			return exprResult{}, err
		}
		if _, err := p.parsePredicateTail(q, jt, ColumnRef{}, depth); err != nil {
			return exprResult{}, err
		}
		return exprResult{}, nil
	}

	ref, err := p.resolveRef(q, left)
	if err != nil {
		return exprResult{}, err
	}
	return p.parsePredicateTail(q, jt, ref, depth)
}

// parsePredicateTail parses everything after the left-hand column: the
// operator form and its operand(s).
func (p *parser) parsePredicateTail(q *ParsedQuery, jt JoinType, ref ColumnRef, depth int) (exprResult, error) {
	negated := false
	if p.tok.isKeyword("NOT") {
		p.advance()
		negated = true
	}

	switch {
	case p.tok.isKeyword("BETWEEN"):
		return p.parseBetween(ref, negated, depth)
	case p.tok.isKeyword("LIKE"):
		return p.parseLike(ref, negated, depth)
	case p.tok.isKeyword("IN"):
		return p.parseIn(ref, negated, depth)
	case p.tok.isKeyword("IS"):
		if negated {
			return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "unexpected NOT before IS")
		}
		return p.parseIsNull(ref)
	}
	if negated {
		return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos,
			"expected BETWEEN, LIKE or IN after NOT")
	}

	op, ok := p.parseComparisonSymbol()
	if !ok {
		return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos,
			"expected comparison operator, found %q", p.tok.text)
	}
	operand, err := p.parseOperand(depth)
	if err != nil {
		return exprResult{}, err
	}

	if operand.Kind == OperandColumn {
		return p.buildColumnComparison(q, jt, ref, op, operand)
	}

	pred := Predicate{
		Table:   ref.Table,
		Column:  ref.Column,
		Op:      op,
		Operand: operand,
		Class:   classify(op, operand, false),
	}
	return exprResult{preds: []Predicate{pred}}, nil
}

// buildColumnComparison handles column-to-column predicates. A cross-table
// equality is a join: it is recorded once as a Join and mirrored as an
// equality predicate on both sides, which is what makes the implicit and
// explicit join forms indistinguishable to the analyzer.
func (p *parser) buildColumnComparison(q *ParsedQuery, jt JoinType, left ColumnRef, op Operator, operand Operand) (exprResult, error) {
	rightRaw, err := splitQualified(operand.Text)
	if err != nil {
		return exprResult{}, err
	}
	right, err := p.resolveRef(q, rightRaw)
	if err != nil {
		return exprResult{}, err
	}

	if op != OpEq || right.Table == left.Table {
		pred := Predicate{
			Table:   left.Table,
			Column:  left.Column,
			Op:      op,
			Operand: operand,
			Class:   ClassExcluded,
		}
		return exprResult{preds: []Predicate{pred}}, nil
	}

	join := Join{
		LeftTable:   left.Table,
		LeftColumn:  left.Column,
		RightTable:  right.Table,
		RightColumn: right.Column,
		Type:        jt,
	}
	preds := []Predicate{
		{
			Table:    left.Table,
			Column:   left.Column,
			Op:       OpEq,
			Operand:  Operand{Kind: OperandColumn, Text: right.Table + "." + right.Column},
			FromJoin: true,
			Class:    ClassEquality,
		},
		{
			Table:    right.Table,
			Column:   right.Column,
			Op:       OpEq,
			Operand:  Operand{Kind: OperandColumn, Text: left.Table + "." + left.Column},
			FromJoin: true,
			Class:    ClassEquality,
		},
	}
	return exprResult{preds: preds, joins: []Join{join}}, nil
}

func (p *parser) parseBetween(ref ColumnRef, negated bool, depth int) (exprResult, error) {
	p.advance() // BETWEEN
	low, err := p.parseOperand(depth)
	if err != nil {
		return exprResult{}, err
	}
	if !p.tok.isKeyword("AND") {
		return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected AND in BETWEEN")
	}
	p.advance()
	high, err := p.parseOperand(depth)
	if err != nil {
		return exprResult{}, err
	}
	pred := Predicate{
		Table:   ref.Table,
		Column:  ref.Column,
		Op:      OpBetween,
		Operand: low,
		High:    &high,
		Negated: negated,
		Class:   classify(OpBetween, low, negated),
	}
	return exprResult{preds: []Predicate{pred}}, nil
}

func (p *parser) parseLike(ref ColumnRef, negated bool, depth int) (exprResult, error) {
	p.advance() // LIKE
	operand, err := p.parseOperand(depth)
	if err != nil {
		return exprResult{}, err
	}
	if p.tok.isKeyword("ESCAPE") {
		p.advance()
		if p.tok.kind != tokString {
			return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected escape literal")
		}
		p.advance()
	}
	pred := Predicate{
		Table:   ref.Table,
		Column:  ref.Column,
		Op:      OpLike,
		Operand: operand,
		Negated: negated,
		Class:   classify(OpLike, operand, negated),
	}
	return exprResult{preds: []Predicate{pred}}, nil
}

func (p *parser) parseIn(ref ColumnRef, negated bool, depth int) (exprResult, error) {
	p.advance() // IN
	if !p.tok.isSymbol("(") {
		return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected '(' after IN")
	}
	p.advance()

	var operand Operand
	if p.tok.isKeyword("SELECT") {
		if depth+1 > maxSubqueryDepth {
			return exprResult{}, parseErrf(ErrNestingTooDeep, p.tok.pos,
				"subqueries may nest at most %d level", maxSubqueryDepth)
		}
		sub, err := p.parseSelect(depth + 1)
		if err != nil {
			return exprResult{}, err
		}
		operand = Operand{Kind: OperandSubquery, Subquery: sub}
	} else {
		var values []string
		kind := OperandLiteral
		for {
			v, err := p.parseOperand(depth)
			if err != nil {
				return exprResult{}, err
			}
			if v.Kind == OperandBind {
				// One bind makes the whole list's cardinality unknowable.
				kind = OperandBind
			}
			values = append(values, v.Text)
			if p.tok.isSymbol(",") {
				p.advance()
				continue
			}
			break
		}
		operand = Operand{Kind: kind, Text: strings.Join(values, ", ")}
	}

	if !p.tok.isSymbol(")") {
		return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected ')' after IN list")
	}
	p.advance()

	pred := Predicate{
		Table:   ref.Table,
		Column:  ref.Column,
		Op:      OpIn,
		Operand: operand,
		Negated: negated,
		Class:   classify(OpIn, operand, negated),
	}
	return exprResult{preds: []Predicate{pred}}, nil
}

func (p *parser) parseIsNull(ref ColumnRef) (exprResult, error) {
	p.advance() // IS
	op := OpIsNull
	if p.tok.isKeyword("NOT") {
		p.advance()
		op = OpIsNotNull
	}
	if !p.tok.isKeyword("NULL") {
		return exprResult{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected NULL after IS")
	}
	p.advance()
	pred := Predicate{
		Table:   ref.Table,
		Column:  ref.Column,
		Op:      op,
		Operand: Operand{Kind: OperandLiteral, Text: "NULL"},
		Class:   ClassExcluded,
	}
	return exprResult{preds: []Predicate{pred}}, nil
}

func (p *parser) parseComparisonSymbol() (Operator, bool) {
	if p.tok.kind != tokSymbol {
		return 0, false
	}
	var op Operator
	switch p.tok.text {
	case "=":
		op = OpEq
	case "<":
		op = OpLt
	case "<=":
		op = OpLte
	case ">":
		op = OpGt
	case ">=":
		op = OpGte
	case "<>", "!=":
		op = OpNotEq
	default:
		return 0, false
	}
	p.advance()
	return op, true
}

// parseOperand reads a predicate right-hand side: literal, bind, column
// reference, or a parenthesized one-level subquery.
func (p *parser) parseOperand(depth int) (Operand, error) {
	switch {
	case p.tok.kind == tokString:
		text := p.tok.text
		p.advance()
		return Operand{Kind: OperandLiteral, Text: text}, nil
	case p.tok.kind == tokNumber:
		text := p.tok.text
		p.advance()
		return Operand{Kind: OperandLiteral, Text: text}, nil
	case p.tok.kind == tokBind:
		text := p.tok.text
		p.advance()
		return Operand{Kind: OperandBind, Text: text}, nil
	case p.tok.isSymbol("-") || p.tok.isSymbol("+"):
		sign := p.tok.text
		p.advance()
		if p.tok.kind != tokNumber {
			return Operand{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected number after %q", sign)
		}
		text := sign + p.tok.text
		p.advance()
		return Operand{Kind: OperandLiteral, Text: text}, nil
	case p.tok.isSymbol("("):
		if p.peekIsSelect() {
			if depth+1 > maxSubqueryDepth {
				return Operand{}, parseErrf(ErrNestingTooDeep, p.tok.pos,
					"subqueries may nest at most %d level", maxSubqueryDepth)
			}
			p.advance()
			sub, err := p.parseSelect(depth + 1)
			if err != nil {
				return Operand{}, err
			}
			if !p.tok.isSymbol(")") {
				return Operand{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected ')' after subquery")
			}
			p.advance()
			return Operand{Kind: OperandSubquery, Subquery: sub}, nil
		}
		return Operand{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "unexpected '(' in operand")
	case p.tok.kind == tokIdent:
		if isBareLiteralKeyword(p.tok.text) {
			text := strings.ToUpper(p.tok.text)
			p.advance()
			return Operand{Kind: OperandLiteral, Text: text}, nil
		}
		raw, err := p.parseQualifiedName()
		if err != nil {
			return Operand{}, err
		}
		text := raw.col
		if raw.qual != "" {
			text = raw.qual + "." + raw.col
		}
		return Operand{Kind: OperandColumn, Text: text}, nil
	default:
		return Operand{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected operand, found %q", p.tok.text)
	}
}

// peekIsSelect reports whether the token after the current '(' starts a
// SELECT, without consuming anything.
func (p *parser) peekIsSelect() bool {
	saved := *p.lx
	next := p.lx.next()
	*p.lx = saved
	return next.isKeyword("SELECT")
}

func (p *parser) parseQualifiedName() (rawRef, error) {
	if p.tok.kind != tokIdent || isClauseKeyword(p.tok.text) {
		return rawRef{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected column reference, found %q", p.tok.text)
	}
	pos := p.tok.pos
	qual, col := "", p.tok.text
	p.advance()
	for p.tok.isSymbol(".") {
		p.advance()
		if p.tok.kind != tokIdent {
			return rawRef{}, parseErrf(ErrMalformedSyntax, p.tok.pos, "expected identifier after '.'")
		}
		if qual == "" {
			qual = col
		} else {
			qual = qual + "." + col
		}
		col = p.tok.text
		p.advance()
	}
	return rawRef{qual: qual, col: col, pos: pos}, nil
}

func splitQualified(text string) (rawRef, error) {
	idx := strings.LastIndex(text, ".")
	if idx == -1 {
		return rawRef{col: text}, nil
	}
	return rawRef{qual: text[:idx], col: text[idx+1:]}, nil
}

// resolveRef matches a raw column reference against the declared tables.
// The qualifier may be an alias, a table name, or owner.table; an
// unqualified reference is accepted only when a single table is in scope.
func (p *parser) resolveRef(q *ParsedQuery, r rawRef) (ColumnRef, error) {
	if r.qual == "" {
		if len(q.Tables) == 1 {
			return ColumnRef{Table: q.Tables[0].Key(), Column: strings.ToLower(r.col)}, nil
		}
		if len(q.Tables) == 0 {
			return ColumnRef{}, parseErrf(ErrUnresolvedColumn, r.pos,
				"column %q referenced without a FROM clause", r.col)
		}
		return ColumnRef{}, parseErrf(ErrUnresolvedColumn, r.pos,
			"column %q is ambiguous across %d tables; qualify it", r.col, len(q.Tables))
	}

	lq := strings.ToLower(r.qual)
	for _, t := range q.Tables {
		if t.Alias != "" && strings.ToLower(t.Alias) == lq {
			return ColumnRef{Table: t.Key(), Column: strings.ToLower(r.col)}, nil
		}
	}
	for _, t := range q.Tables {
		if t.Name != "" && strings.ToLower(t.Name) == lq {
			return ColumnRef{Table: t.Key(), Column: strings.ToLower(r.col)}, nil
		}
	}
	for _, t := range q.Tables {
		if t.Key() == lq {
			return ColumnRef{Table: t.Key(), Column: strings.ToLower(r.col)}, nil
		}
	}
	return ColumnRef{}, parseErrf(ErrUnresolvedColumn, r.pos,
		"qualifier %q does not match any table or alias", r.qual)
}

func (p *parser) parseGroupOrder(q *ParsedQuery, depth int) error {
	if p.tok.isKeyword("GROUP") {
		p.advance()
		if !p.tok.isKeyword("BY") {
			return parseErrf(ErrMalformedSyntax, p.tok.pos, "expected BY after GROUP")
		}
		p.advance()
		cols, err := p.parseColumnList(q, false)
		if err != nil {
			return err
		}
		q.GroupBy = cols
	}

	if p.tok.isKeyword("HAVING") {
		p.advance()
		// HAVING restricts aggregated rows, which no index can serve; the
		// expression is parsed for syntax and its predicates discarded.
		if _, err := p.parseOrExpr(q, JoinInner, depth); err != nil {
			return err
		}
	}

	if p.tok.isKeyword("ORDER") {
		p.advance()
		if !p.tok.isKeyword("BY") {
			return parseErrf(ErrMalformedSyntax, p.tok.pos, "expected BY after ORDER")
		}
		p.advance()
		cols, err := p.parseColumnList(q, true)
		if err != nil {
			return err
		}
		q.OrderBy = cols
	}
	return nil
}

func (p *parser) parseColumnList(q *ParsedQuery, allowDirection bool) ([]ColumnRef, error) {
	var cols []ColumnRef
	for {
		// Positional references (ORDER BY 1) carry no column information.
		if p.tok.kind == tokNumber {
			p.advance()
		} else {
			raw, err := p.parseQualifiedName()
			if err != nil {
				return nil, err
			}
			ref, err := p.resolveRef(q, raw)
			if err != nil {
				return nil, err
			}
			if allowDirection {
				if p.tok.isKeyword("ASC") {
					p.advance()
				} else if p.tok.isKeyword("DESC") {
					ref.Descending = true
					p.advance()
				}
				if p.tok.isKeyword("NULLS") {
					p.advance()
					if p.tok.isKeyword("FIRST") || p.tok.isKeyword("LAST") {
						p.advance()
					}
				}
			}
			cols = append(cols, ref)
		}
		if p.tok.isSymbol(",") {
			p.advance()
			continue
		}
		return cols, nil
	}
}

// parseRowLimit tolerates trailing LIMIT/OFFSET and FETCH FIRST clauses,
// which do not affect index analysis.
func (p *parser) parseRowLimit() {
	for {
		switch {
		case p.tok.isKeyword("LIMIT"), p.tok.isKeyword("OFFSET"):
			p.advance()
			if p.tok.kind == tokNumber || p.tok.kind == tokBind {
				p.advance()
			}
			if p.tok.isKeyword("ROWS") || p.tok.isKeyword("ROW") {
				p.advance()
			}
		case p.tok.isKeyword("FETCH"):
			p.advance()
			for p.tok.isKeyword("FIRST") || p.tok.isKeyword("NEXT") ||
				p.tok.kind == tokNumber || p.tok.isKeyword("ROWS") ||
				p.tok.isKeyword("ROW") || p.tok.isKeyword("ONLY") {
				p.advance()
			}
		default:
			return
		}
	}
}

// isClauseKeyword lists words that end an identifier's role as a name; an
// alias can never be one of these.
func isClauseKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case "FROM", "WHERE", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS",
		"OUTER", "ON", "GROUP", "ORDER", "BY", "HAVING", "LIMIT", "OFFSET",
		"FETCH", "AND", "OR", "NOT", "AS", "UNION", "INTERSECT", "MINUS",
		"EXCEPT", "BETWEEN", "LIKE", "IN", "IS", "ASC", "DESC", "NULLS",
		"SELECT", "DISTINCT", "FOR":
		return true
	}
	return false
}

// isBareLiteralKeyword lists identifiers that are literals, not columns.
func isBareLiteralKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case "NULL", "TRUE", "FALSE", "SYSDATE", "CURRENT_DATE", "CURRENT_TIMESTAMP":
		return true
	}
	return false
}
