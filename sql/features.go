package sql

// FeatureSet is the fixed set of enabled language features for one
// resolution. Constructs guarded by a disabled feature fail with
// ErrUnsupportedFeature naming the feature.
type FeatureSet struct {
	// DecimalLiterals enables exact NUMERIC literals and float-to-decimal
	// literal coercion from the preserved textual image.
	DecimalLiterals bool
	// AnalyticFunctions enables window function calls.
	AnalyticFunctions bool
	// NestedDML enables UPDATE ... SET (DELETE/UPDATE/INSERT array ...).
	NestedDML bool
	// StrictNameResolution makes a path expression that only matches a
	// catalog table an error instead of promoting it to a value-table scan.
	StrictNameResolution bool
}

// AllFeatures returns a FeatureSet with every feature enabled.
func AllFeatures() FeatureSet {
	return FeatureSet{
		DecimalLiterals:   true,
		AnalyticFunctions: true,
		NestedDML:         true,
	}
}
