package errtable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := New(map[int]Rule{
		1:  {Action: ActionRetry, HTTPStatus: 503},
		5:  {Action: ActionBreak, HTTPStatus: 401},
		6:  {Action: ActionRetry, HTTPStatus: 429},
		15: {Action: ActionSkip, HTTPStatus: 403},
		18: {Action: ActionSkip, HTTPStatus: 404},
	})
	require.NoError(t, err)
	return table
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api_errors.yaml")
	content := `
1:
  action: retry
  MatchedHTTPError: 503
5:
  action: break
  MatchedHTTPError: 401
15:
  action: skip
  MatchedHTTPError: 403
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	rule, err := table.Classify(5)
	require.NoError(t, err)
	assert.Equal(t, ActionBreak, rule.Action)
	assert.Equal(t, 401, rule.HTTPStatus)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does_not_exist.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml at all"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNewRejectsUnknownAction(t *testing.T) {
	_, err := New(map[int]Rule{1: {Action: "ignore", HTTPStatus: 500}})
	assert.ErrorContains(t, err, "unknown action")
}

func TestNewRejectsEmptyTable(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		code       int
		action     Action
		httpStatus int
	}{
		{1, ActionRetry, 503},
		{5, ActionBreak, 401},
		{6, ActionRetry, 429},
		{15, ActionSkip, 403},
		{18, ActionSkip, 404},
	}

	for _, tt := range tests {
		rule, err := table.Classify(tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.action, rule.Action)
		assert.Equal(t, tt.httpStatus, rule.HTTPStatus)
	}
}

func TestClassifyUnmappedCode(t *testing.T) {
	table := newTestTable(t)

	_, err := table.Classify(9999)
	require.Error(t, err)

	var unclassified *UnclassifiedError
	require.ErrorAs(t, err, &unclassified)
	assert.Equal(t, 9999, unclassified.Code)
}

func TestActionForStatus(t *testing.T) {
	table := newTestTable(t)

	action, ok := table.ActionForStatus(503)
	require.True(t, ok)
	assert.Equal(t, ActionRetry, action)

	action, ok = table.ActionForStatus(403)
	require.True(t, ok)
	assert.Equal(t, ActionSkip, action)

	_, ok = table.ActionForStatus(418)
	assert.False(t, ok)
}

func TestActionForStatusCollisionPrecedence(t *testing.T) {
	// Two codes sharing an HTTP status: the check order of the retry loop is
	// skip, break, retry, so skip must win the index slot.
	table, err := New(map[int]Rule{
		6:  {Action: ActionRetry, HTTPStatus: 429},
		29: {Action: ActionSkip, HTTPStatus: 429},
	})
	require.NoError(t, err)

	action, ok := table.ActionForStatus(429)
	require.True(t, ok)
	assert.Equal(t, ActionSkip, action)
}

func TestPickTieredPriority(t *testing.T) {
	table := newTestTable(t)

	retryErr := APIError{Code: 1, Message: "unknown error"}
	breakErr := APIError{Code: 5, Message: "auth failed"}
	skipErr := APIError{Code: 15, Message: "access denied"}

	tests := []struct {
		name     string
		errs     []APIError
		wantCode int
	}{
		{"break wins over retry and skip", []APIError{skipErr, retryErr, breakErr}, 5},
		{"break wins regardless of position", []APIError{breakErr, retryErr, skipErr}, 5},
		{"retry wins over skip", []APIError{skipErr, retryErr}, 1},
		{"skip alone", []APIError{skipErr}, 15},
		{"first of equal severity wins", []APIError{{Code: 18, Message: "deleted"}, skipErr}, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, rule, err := table.Pick(tt.errs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, match.Code)

			want, err := table.Classify(tt.wantCode)
			require.NoError(t, err)
			assert.Equal(t, want, rule)
		})
	}
}

func TestPickUnmappedCode(t *testing.T) {
	table := newTestTable(t)

	_, _, err := table.Pick([]APIError{
		{Code: 5, Message: "auth failed"},
		{Code: 777, Message: "mystery"},
	})

	var unclassified *UnclassifiedError
	require.ErrorAs(t, err, &unclassified)
	assert.Equal(t, 777, unclassified.Code)
}

func TestPickEmptyList(t *testing.T) {
	table := newTestTable(t)

	_, _, err := table.Pick(nil)
	assert.Error(t, err)
}
