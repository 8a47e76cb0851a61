package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/ir"
)

func TestParseTypeExpr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"long", "long"},
		{"int32", "long"},
		{"unsigned long", "unsigned long"},
		{"long long", "long long"},
		{"unsigned long long", "unsigned long long"},
		{"ulonglong", "unsigned long long"},
		{"unsigned short", "unsigned short"},
		{"bool", "boolean"},
		{"  double ", "double"},
		{"string", "string"},
		{"string<32>", "string<32>"},
		{"wstring", "wstring"},
		{"sequence<Point>", "sequence<Point>"},
		{"sequence<long, 8>", "sequence<long, 8>"},
		{"sequence<sequence<unsigned long>>", "sequence<sequence<unsigned long>>"},
		{"shapes::Point", "shapes::Point"},
		{"::shapes::Point", "::shapes::Point"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			expr, err := ParseTypeExpr(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())
		})
	}
}

func TestParseTypeExpr_Primitives(t *testing.T) {
	expr, err := ParseTypeExpr("unsigned long long")
	require.NoError(t, err)
	require.NotNil(t, expr.Prim)
	assert.Equal(t, ir.ULongLong, *expr.Prim)

	expr, err = ParseTypeExpr("char")
	require.NoError(t, err)
	assert.Equal(t, ir.Char, *expr.Prim)
}

func TestParseTypeExpr_Errors(t *testing.T) {
	tests := []string{
		"",
		"sequence",
		"sequence<>",
		"sequence<long",
		"sequence<long, x>",
		"string<-1>",
		"unsigned double",
		"Point Circle",
		"shapes::",
		"a:::b",
		"9lives",
		"long*",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTypeExpr(in)
			assert.Error(t, err)
		})
	}
}
