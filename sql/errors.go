package sql

import (
	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrColumnNotFound is returned when a column does not exist in any
	// table or name list in scope. The second verb carries an optional
	// "maybe you mean" suffix.
	ErrColumnNotFound = errors.NewKind("column %q could not be found in any table in scope%s")

	// ErrAmbiguousColumnName is returned when an unqualified column name
	// matches more than one name target at the same scope level.
	ErrAmbiguousColumnName = errors.NewKind("ambiguous column name %q, it's present in all these tables: %v")

	// ErrTableNotFound is returned when a table name cannot be resolved
	// against the catalog or the active CTE bindings.
	ErrTableNotFound = errors.NewKind("table not found: %s%s")

	// ErrFunctionNotFound is returned when a function name cannot be
	// resolved against the catalog.
	ErrFunctionNotFound = errors.NewKind("function %q not found%s")

	// ErrStarExceptNotFound is returned when a SELECT * EXCEPT/REPLACE
	// modifier names a column the expanding name list does not have.
	ErrStarExceptNotFound = errors.NewKind("column %q in star expansion modifier does not exist in the expanded columns")

	// ErrFieldNotFound is returned when a path expression steps through a
	// struct or protobuf type that has no such field.
	ErrFieldNotFound = errors.NewKind("field %q does not exist in type %s%s")

	// ErrTableAsValue is returned when a path expression resolves to a
	// catalog table that cannot be promoted to a value-table scan.
	ErrTableAsValue = errors.NewKind("table %q cannot be used as an expression; only value tables can")

	// ErrCannotCoerce is returned when an implicit coercion between two
	// types is not allowed.
	ErrCannotCoerce = errors.NewKind("cannot coerce expression of type %s to type %s")

	// ErrNoMatchingSignature is returned when no function overload accepts
	// the resolved argument types.
	ErrNoMatchingSignature = errors.NewKind("no matching signature for function %s for argument types (%s)")

	// ErrInvalidCast is returned for explicit casts between incompatible types.
	ErrInvalidCast = errors.NewKind("invalid cast from %s to %s")

	// ErrUnsupportedFeature is returned when a construct requires a
	// language feature that is not enabled.
	ErrUnsupportedFeature = errors.NewKind("unsupported feature: %s")

	// ErrUngroupedColumn is returned during the second resolution pass of
	// an aggregate query for a column that is neither grouped nor
	// aggregated.
	ErrUngroupedColumn = errors.NewKind("column %q must appear in the GROUP BY clause or be used inside an aggregate function")

	// ErrAggregateNotAllowed is returned when an aggregate function call
	// appears in a clause that cannot contain aggregation.
	ErrAggregateNotAllowed = errors.NewKind("aggregate function %s is not allowed in %s")

	// ErrWindowNotAllowed is returned when an analytic function call
	// appears in a clause that cannot contain analytic functions.
	ErrWindowNotAllowed = errors.NewKind("analytic function %s is not allowed in %s")

	// ErrNestedAggregate is returned for an aggregate call inside another
	// aggregate call's arguments.
	ErrNestedAggregate = errors.NewKind("aggregate function %s cannot be nested inside another aggregate function")

	// ErrOrdinalOutOfRange is returned for GROUP BY / ORDER BY ordinals
	// that do not index the select list.
	ErrOrdinalOutOfRange = errors.NewKind("ordinal %d is out of range of the select list (%d columns)")

	// ErrDuplicateAlias is returned when a table alias or CTE alias is
	// defined twice at the same level.
	ErrDuplicateAlias = errors.NewKind("not unique table/alias: %s")

	// ErrColumnCountMismatch is returned when a derived table or CTE
	// declares a column alias list of the wrong length.
	ErrColumnCountMismatch = errors.NewKind("column alias list has %d names, subquery produces %d columns")

	// ErrDuplicateColumnAlias is returned when a derived table or CTE
	// column alias list names the same column twice.
	ErrDuplicateColumnAlias = errors.NewKind("duplicate column name %q in column alias list")

	// ErrDistinctOrderBy is returned when an ORDER BY term of a SELECT
	// DISTINCT query references a column the select list does not produce.
	ErrDistinctOrderBy = errors.NewKind("for SELECT DISTINCT, ORDER BY expressions must appear in the select list (column %q)")

	// ErrInsertColumnMismatch is returned when INSERT value rows do not
	// match the insert column list.
	ErrInsertColumnMismatch = errors.NewKind("expected %d values for insert, got %d")

	// ErrNonArrayNestedDML is returned when a nested DML statement targets
	// a column that is not array-typed.
	ErrNonArrayNestedDML = errors.NewKind("nested %s target %q is not an array column")

	// ErrMergeClauseOrder is returned for malformed merge clause
	// combinations, e.g. INSERT in a MATCHED clause.
	ErrMergeClauseOrder = errors.NewKind("merge clause %s is not allowed when %s")

	// ErrResolutionTooComplex is returned when resolution exceeds the
	// recursion depth guard. The input is unbounded user SQL, so the
	// resolver fails fast instead of overflowing the stack.
	ErrResolutionTooComplex = errors.NewKind("statement is too deeply nested to resolve (exceeded depth %d)")

	// ErrInternal is an internal invariant violation. Callers should treat
	// it as a bug report, never as a user SQL mistake.
	ErrInternal = errors.NewKind("internal error: %s")
)

// The resolver's error taxonomy groups the kinds above into five
// user-facing classes plus internal invariant violations.
var (
	nameErrors = []*errors.Kind{
		ErrColumnNotFound, ErrAmbiguousColumnName, ErrTableNotFound,
		ErrFunctionNotFound, ErrStarExceptNotFound, ErrFieldNotFound,
		ErrTableAsValue,
	}
	typeErrors = []*errors.Kind{
		ErrCannotCoerce, ErrNoMatchingSignature, ErrInvalidCast,
	}
	structuralErrors = []*errors.Kind{
		ErrUngroupedColumn, ErrAggregateNotAllowed, ErrWindowNotAllowed,
		ErrNestedAggregate, ErrOrdinalOutOfRange, ErrDuplicateAlias,
		ErrColumnCountMismatch, ErrDuplicateColumnAlias,
		ErrInsertColumnMismatch, ErrNonArrayNestedDML,
		ErrMergeClauseOrder, ErrDistinctOrderBy,
	}
)

func isAny(err error, kinds []*errors.Kind) bool {
	for _, k := range kinds {
		if k.Is(err) {
			return true
		}
	}
	return false
}

// IsNameError reports whether err is an unresolved or ambiguous identifier error.
func IsNameError(err error) bool { return isAny(err, nameErrors) }

// IsTypeError reports whether err is a coercion or signature mismatch error.
func IsTypeError(err error) bool { return isAny(err, typeErrors) }

// IsUnsupportedError reports whether err names a disabled language feature.
func IsUnsupportedError(err error) bool { return ErrUnsupportedFeature.Is(err) }

// IsStructuralError reports whether err is a statement-shape error such as
// an ungrouped column or a duplicate alias.
func IsStructuralError(err error) bool { return isAny(err, structuralErrors) }

// IsResourceError reports whether err is the recursion depth guard.
func IsResourceError(err error) bool { return ErrResolutionTooComplex.Is(err) }

// IsInternalError reports whether err is an internal invariant violation.
func IsInternalError(err error) bool { return ErrInternal.Is(err) }
