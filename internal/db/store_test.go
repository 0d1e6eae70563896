package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "railguard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database)
}

func TestStore_CallLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.CreateCall(ctx, "call-1", "summary", "gpt-4o"))

	call, err := store.GetCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "running", call.Status)
	assert.Equal(t, 0, call.Attempts)

	require.NoError(t, store.RecordAttempt(ctx, AttemptRecord{
		CallID:       "call-1",
		AttemptIndex: 0,
		StartedAt:    time.Now().UTC().Format(time.RFC3339),
		Prompt:       "Summarize this.",
		RawOutput:    `{"summary":"HI"}`,
		IssuesJSON:   `["summary: not lower case"]`,
	}, nil))
	require.NoError(t, store.RecordAttempt(ctx, AttemptRecord{
		CallID:       "call-1",
		AttemptIndex: 1,
		StartedAt:    time.Now().UTC().Format(time.RFC3339),
		Prompt:       "Try again.",
		RawOutput:    `{"summary":"hi"}`,
	}, nil))

	require.NoError(t, store.FinishCall(ctx, "call-1", "passed",
		`{"summary":"hi"}`, `{"summary":"hi"}`))

	call, err = store.GetCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "passed", call.Status)
	assert.Equal(t, 2, call.Attempts)
	assert.Equal(t, `{"summary":"hi"}`, call.ValidatedJSON)

	attempts, err := store.ListAttempts(ctx, "call-1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 0, attempts[0].AttemptIndex)
	assert.Contains(t, attempts[0].IssuesJSON, "not lower case")
	assert.Empty(t, attempts[1].IssuesJSON)

	events, err := store.ListEvents(ctx, "call-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "call_started", events[0].Type)
	assert.Equal(t, "call_finished", events[1].Type)
	assert.Equal(t, 1, events[0].Seq)
	assert.Equal(t, 2, events[1].Seq)
}

func TestStore_ListCallsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateCall(ctx, fmt.Sprintf("call-%d", i), "summary", "mock"))
	}

	calls, err := store.ListCalls(ctx, 2)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	// Same created_at second is possible, so order falls back to call_id desc.
	assert.Equal(t, "call-2", calls[0].CallID)
}

func TestStore_GetCallMissing(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.GetCall(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStore_PruneKeepLast(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		callID := fmt.Sprintf("call-%d", i)
		require.NoError(t, store.CreateCall(ctx, callID, "summary", "mock"))
		require.NoError(t, store.RecordAttempt(ctx, AttemptRecord{
			CallID:    callID,
			StartedAt: time.Now().UTC().Format(time.RFC3339),
			Prompt:    "p",
		}, nil))
	}

	removed, err := store.Prune(ctx, RetentionPolicy{KeepLast: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	calls, err := store.ListCalls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "call-4", calls[0].CallID)
	assert.Equal(t, "call-3", calls[1].CallID)

	// Attempts of pruned calls cascade away.
	attempts, err := store.ListAttempts(ctx, "call-0")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestStore_PruneZeroPolicyKeepsEverything(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.CreateCall(ctx, "call-1", "summary", "mock"))

	removed, err := store.Prune(ctx, RetentionPolicy{})
	require.NoError(t, err)
	assert.Zero(t, removed)

	calls, err := store.ListCalls(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, calls, 1)
}
