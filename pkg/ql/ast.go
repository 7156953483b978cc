// Package ql is the hand-written recursive-descent parser for the
// database's query/transaction language: a single textual statement in,
// a tagged AST node out, or a ParseError with no partial AST.
package ql

import "github.com/emberdb/emberdb/pkg/values"

// ToSelect picks which keys a SELECT projects: every key, or a declared
// subset.
type ToSelect struct {
	All  bool
	Keys []string
}

// Order is an ORDER BY direction.
type Order int

const (
	Asc Order = iota
	Desc
)

// AlgebraKind tags one stage of the post-select pipeline.
type AlgebraKind int

const (
	AlgebraOrderBy AlgebraKind = iota
	AlgebraLimit
	AlgebraOffset
	AlgebraCount
	AlgebraGroupBy
	AlgebraDedup
)

// Algebra is one parsed `| STAGE ...` suffix.
type Algebra struct {
	Kind  AlgebraKind
	Key   string // OrderBy, GroupBy, Dedup
	Order Order  // OrderBy only
	N     int64  // Limit, Offset only
}

// MatchConditionKind tags a MATCH predicate tree node.
type MatchConditionKind int

const (
	MatchAll MatchConditionKind = iota
	MatchAny
	MatchEq
	MatchNotEq
	MatchGEq
	MatchG
	MatchLEq
	MatchL
)

// MatchCondition is a MATCH predicate: either a boolean combinator over
// child conditions (All/Any) or a leaf key/value comparison.
type MatchCondition struct {
	Kind     MatchConditionKind
	Children []MatchCondition // All, Any
	Key      string           // leaf kinds
	Value    values.Value     // leaf kinds
}

// ClauseOp tags one WHERE leaf predicate's comparison.
type ClauseOp int

const (
	ClauseEq ClauseOp = iota
	ClauseNeq
	ClauseGt
	ClauseGeq
	ClauseLt
	ClauseLeq
	ClauseLike
	ClauseIn
	ClauseBetween
)

// Clause is one WHERE predicate. WHERE clauses are a conjunction of
// these (an implicit AND across the list).
type Clause struct {
	Op    ClauseOp
	Key   string
	Value values.Value   // Eq, Neq, Gt, Geq, Lt, Leq, Like
	Set   []values.Value // In
	Lo    values.Value   // Between
	Hi    values.Value   // Between
}

// RelationType tags how two query row-sets combine.
type RelationType int

const (
	RelIntersect RelationType = iota
	RelUnion
	RelDifference
)

// RelationKey tags whether a relational combinator compares by row-id
// presence (Key) or by equality of the whole canonically rendered state
// (KeyValue). Under KeyValue, rows whose states hold different key sets
// never match, even when the keys they share have equal values.
type RelationKey int

const (
	ByKey RelationKey = iota
	ByKeyValue
)

// StmtKind tags the concrete shape a Stmt holds.
type StmtKind int

const (
	StmtCreateEntity StmtKind = iota
	StmtInsert
	StmtUpdateSet
	StmtUpdateContent
	StmtMatchUpdate
	StmtDelete
	StmtEvictID
	StmtEvictEntity
	StmtSelect
	StmtSelectIDs
	StmtSelectWhere
	StmtSelectWhen
	StmtSelectWhenRange
	StmtCheck
	StmtRelation
	StmtJoin
)

// Stmt is the single AST node type every parsed statement produces.
// Only the fields relevant to Kind are populated.
type Stmt struct {
	Kind StmtKind

	Entity string

	// CreateEntity
	UniqueKeys    []string
	EncryptedKeys []string

	// Insert / UpdateSet / UpdateContent / MatchUpdate
	Map            map[string]values.Value
	ID             values.ID
	HasID          bool
	MatchCondition MatchCondition

	// Delete / Evict / Select / Check share ID above.
	EvictWholeEntity bool

	// Select family
	Select   ToSelect
	IDs      []values.ID
	Where    []Clause
	Algebras []Algebra

	// SelectWhen / SelectWhenRange
	WhenAt    string // RFC3339 text, parsed downstream
	WhenStart string
	WhenEnd   string

	// Check
	CheckFields map[string]string

	// Relation
	Operands     []Stmt
	RelationType RelationType
	RelationKey  RelationKey

	// Join: two (entity, key) pairs plus the operand queries whose rows
	// get merged on that key equality.
	JoinLeftEntity  string
	JoinLeftKey     string
	JoinRightEntity string
	JoinRightKey    string
}
