package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeprecationWarningsDeduplicate(t *testing.T) {
	require := require.New(t)
	d := NewDiagnostics()

	d.Deprecate(DeprecationWarning{Kind: "deprecated_function", Message: "use length", Offset: 3})
	d.Deprecate(DeprecationWarning{Kind: "deprecated_function", Message: "use length", Offset: 42})
	d.Deprecate(DeprecationWarning{Kind: "deprecated_function", Message: "use lower", Offset: 7})

	// dedup ignores the offset; first occurrence order is preserved
	require.Len(d.Warnings, 2)
	require.Equal("use length", d.Warnings[0].Message)
	require.Equal(3, d.Warnings[0].Offset)
	require.Equal("use lower", d.Warnings[1].Message)
}

func TestInferParamFirstWins(t *testing.T) {
	require := require.New(t)
	d := NewDiagnostics()

	d.InferParam(InferredParam{Name: "p"})
	d.InferParam(InferredParam{Name: "p"})
	d.InferParam(InferredParam{Name: "q"})
	require.Len(d.Params, 2)
}

func TestDiagnosticsReset(t *testing.T) {
	require := require.New(t)
	d := NewDiagnostics()

	d.Deprecate(DeprecationWarning{Kind: "k", Message: "m"})
	d.InferParam(InferredParam{Name: "p"})
	d.Reset()
	require.Empty(d.Warnings)
	require.Empty(d.Params)

	// the same warning is reportable again after a reset
	d.Deprecate(DeprecationWarning{Kind: "k", Message: "m"})
	require.Len(d.Warnings, 1)
}
