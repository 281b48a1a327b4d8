package service

import (
	"StudyVault/internal/task"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject := h.subject(t, ann, "Math")
	file := h.file(t, ann, subject.ID, "notes.pdf")

	grant, err := h.svc.ShareFile(ctx, ann, file.ID, "  Bob@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", grant.SharedWithEmail)
	assert.Equal(t, ann.UserID, grant.SharedByUserID)

	_, err = h.svc.ShareFile(ctx, ann, file.ID, "BOB@EXAMPLE.COM")
	assert.ErrorIs(t, err, ErrConflict)

	require.Len(t, h.publisher.msgs, 1)
	notice := h.publisher.msgs[0]
	assert.Equal(t, task.KindShareNotice, notice.Kind)
	assert.Equal(t, "bob@example.com", notice.Email)
	assert.Equal(t, "notes.pdf", notice.FileName)
	assert.Equal(t, ann.Email, notice.SharedBy)
}

func TestShareFileErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject := h.subject(t, ann, "Math")
	file := h.file(t, ann, subject.ID, "notes.pdf")

	testCases := []struct {
		name   string
		caller Identity
		fileID string
		email  string
		want   error
	}{
		{"empty email", ann, file.ID, "   ", ErrValidation},
		{"malformed email", ann, file.ID, "not-an-email", ErrValidation},
		{"display name form", ann, file.ID, "Bob <bob@example.com>", ErrValidation},
		{"not the owner", bob, file.ID, "carol@example.com", ErrNotFound},
		{"missing file", ann, "missing", "carol@example.com", ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.ShareFile(ctx, tc.caller, tc.fileID, tc.email)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	require.NoError(t, h.svc.TrashFile(ctx, ann, file.ID))
	_, err := h.svc.ShareFile(ctx, ann, file.ID, "carol@example.com")
	assert.ErrorIs(t, err, ErrNotFound, "trashed file")
}

func TestShareFilePublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("broker down")
	subject := h.subject(t, ann, "Math")
	file := h.file(t, ann, subject.ID, "notes.pdf")

	_, err := h.svc.ShareFile(context.Background(), ann, file.ID, bob.Email)
	assert.NoError(t, err)
}

func TestListSharedWithMe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject := h.subject(t, ann, "Math")
	a := h.file(t, ann, subject.ID, "a.txt")
	b := h.file(t, ann, subject.ID, "b.txt")
	h.file(t, ann, subject.ID, "private.txt")

	_, err := h.svc.ShareFile(ctx, ann, a.ID, "bob@example.com")
	require.NoError(t, err)
	_, err = h.svc.ShareFile(ctx, ann, b.ID, "bob@example.com")
	require.NoError(t, err)

	shared, err := h.svc.ListSharedWithMe(ctx, Identity{UserID: bob.UserID, Email: "  BOB@example.COM"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, fileIDs(shared))
	for _, f := range shared {
		assert.True(t, f.IsShared)
	}

	none, err := h.svc.ListSharedWithMe(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSharedViewSkipsTrashedAndPurgedFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject := h.subject(t, ann, "Math")
	trashed := h.file(t, ann, subject.ID, "trashed.txt")
	purged := h.file(t, ann, subject.ID, "purged.txt")
	visible := h.file(t, ann, subject.ID, "visible.txt")
	for _, f := range []string{trashed.ID, purged.ID, visible.ID} {
		_, err := h.svc.ShareFile(ctx, ann, f, bob.Email)
		require.NoError(t, err)
	}

	require.NoError(t, h.svc.TrashFile(ctx, ann, trashed.ID))
	require.NoError(t, h.svc.PurgeFile(ctx, ann, purged.ID))

	shared, err := h.svc.ListSharedWithMe(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{visible.ID}, fileIDs(shared))

	require.NoError(t, h.svc.RestoreFile(ctx, ann, trashed.ID))
	shared, err = h.svc.ListSharedWithMe(ctx, bob)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{visible.ID, trashed.ID}, fileIDs(shared))
}

// Owner shares notes.pdf with Alice, then purges the subject holding it.
func TestShareThenCascadePurgeScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject, err := h.svc.CreateSubject(ctx, ann, SubjectInput{Name: "Math", Color: "purple"})
	require.NoError(t, err)
	notes := h.file(t, ann, subject.ID, "notes.pdf")

	_, err = h.svc.ShareFile(ctx, ann, notes.ID, "alice@example.com")
	require.NoError(t, err)

	shared, err := h.svc.ListSharedWithMe(ctx, alice)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, notes.ID, shared[0].ID)
	assert.True(t, shared[0].IsShared)

	require.NoError(t, h.svc.PurgeSubject(ctx, ann, subject.ID))

	shared, err = h.svc.ListSharedWithMe(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, shared)
}

func TestGranteeCannotMutateSharedFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject := h.subject(t, ann, "Math")
	file := h.file(t, ann, subject.ID, "notes.pdf")
	_, err := h.svc.ShareFile(ctx, ann, file.ID, bob.Email)
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.TrashFile(ctx, bob, file.ID), ErrNotFound)
	require.NoError(t, h.svc.PurgeFile(ctx, bob, file.ID))
	assert.True(t, h.store.Has(file.StoragePath))

	_, err = h.svc.CreateFile(ctx, bob, FileInput{SubjectID: subject.ID, Name: "x.txt", Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, ErrNotFound)
}
