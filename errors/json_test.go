package errors

import (
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToJSON(t *testing.T) {
	err := WithContext(New(CodeForbidden, "Private repository"), "repo", "owner/private")

	resp := ToJSON(err)
	require.NotNil(t, resp)
	require.Equal(t, "FORBIDDEN", resp.Code)
	require.Equal(t, "Private repository", resp.Message)
	require.Equal(t, "PERMANENT", resp.Classification)
	require.Equal(t, "owner/private", resp.Context["repo"])
	require.Zero(t, resp.RetryAfterSeconds)
}

func TestToJSON_Nil(t *testing.T) {
	require.Nil(t, ToJSON(nil))
}

func TestToJSON_StandardError(t *testing.T) {
	resp := ToJSON(stderrors.New("boom"))

	require.Equal(t, "UNKNOWN", resp.Code)
	require.Equal(t, "boom", resp.Message)
	require.Equal(t, "PERMANENT", resp.Classification)
}

func TestToJSON_RetryAfter(t *testing.T) {
	err := WithRetryAfter(New(CodeRateLimit, "rate limit exceeded"), 60*time.Second)

	resp := ToJSON(err)
	require.Equal(t, 60, resp.RetryAfterSeconds)
	require.Equal(t, "RETRYABLE", resp.Classification)
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeNotFound, "repository not found")

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	require.JSONEq(t,
		`{"code":"NOT_FOUND","message":"repository not found","classification":"PERMANENT"}`,
		string(data))
}
