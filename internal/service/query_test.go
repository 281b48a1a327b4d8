package service

import (
	"StudyVault/model"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subjectIDs(subjects []model.Subject) []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, s.ID)
	}
	return out
}

// Math / notes.pdf walk-through across the lifecycle and the list views.
func TestMathNotesScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	math, err := h.svc.CreateSubject(ctx, ann, SubjectInput{Name: "Math", Color: "purple"})
	require.NoError(t, err)
	content := make([]byte, 2<<20)
	notes, err := h.svc.CreateFile(ctx, ann, FileInput{
		SubjectID: math.ID,
		Name:      "notes.pdf",
		Size:      int64(len(content)),
		Body:      bytes.NewReader(content),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.fileCount(t, ann.UserID, math.ID))

	require.NoError(t, h.svc.TrashFile(ctx, ann, notes.ID))
	assert.EqualValues(t, 0, h.fileCount(t, ann.UserID, math.ID))

	trashedSubjects, err := h.svc.ListTrashedSubjects(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, trashedSubjects)

	trashedFiles, err := h.svc.ListTrashedFiles(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{notes.ID}, fileIDs(trashedFiles))

	active, err := h.svc.ListActiveSubjects(ctx, ann)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.EqualValues(t, 0, active[0].FileCount)

	require.NoError(t, h.svc.RestoreFile(ctx, ann, notes.ID))
	assert.EqualValues(t, 1, h.fileCount(t, ann.UserID, math.ID))

	active, err = h.svc.ListActiveSubjects(ctx, ann)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.EqualValues(t, 1, active[0].FileCount, "cached view refreshed after restore")
}

func TestListActiveSubjectsNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.subject(t, ann, "First")
	second := h.subject(t, ann, "Second")
	trashed := h.subject(t, ann, "Trashed")
	h.subject(t, bob, "Bob's")
	require.NoError(t, h.svc.TrashSubject(ctx, ann, trashed.ID))

	subjects, err := h.svc.ListActiveSubjects(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, subjectIDs(subjects))
}

func TestListActiveFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subject := h.subject(t, ann, "Math")
	a := h.file(t, ann, subject.ID, "a.txt")
	b := h.file(t, ann, subject.ID, "b.txt")
	c := h.file(t, ann, subject.ID, "c.txt")
	require.NoError(t, h.svc.TrashFile(ctx, ann, b.ID))

	files, err := h.svc.ListActiveFiles(ctx, ann, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, fileIDs(files))

	_, err = h.svc.ListActiveFiles(ctx, bob, subject.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, h.svc.TrashSubject(ctx, ann, subject.ID))
	_, err = h.svc.ListActiveFiles(ctx, ann, subject.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFavoriteFilesHidesTrashedSubjects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	math := h.subject(t, ann, "Math")
	history := h.subject(t, ann, "History")
	a := h.file(t, ann, math.ID, "a.txt")
	b := h.file(t, ann, history.ID, "b.txt")
	c := h.file(t, ann, math.ID, "c.txt")
	h.file(t, ann, math.ID, "not-favorite.txt")
	for _, id := range []string{a.ID, b.ID, c.ID} {
		_, err := h.svc.ToggleFavorite(ctx, ann, id)
		require.NoError(t, err)
	}
	require.NoError(t, h.svc.TrashFile(ctx, ann, c.ID))

	favorites, err := h.svc.ListFavoriteFiles(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, fileIDs(favorites))

	require.NoError(t, h.svc.TrashSubject(ctx, ann, history.ID))
	favorites, err = h.svc.ListFavoriteFiles(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, fileIDs(favorites))

	mine, err := h.svc.ListFavoriteFiles(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListTrashedNewestTrashFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s1 := h.subject(t, ann, "One")
	s2 := h.subject(t, ann, "Two")
	a := h.file(t, ann, s1.ID, "a.txt")
	b := h.file(t, ann, s1.ID, "b.txt")

	require.NoError(t, h.svc.TrashFile(ctx, ann, b.ID))
	require.NoError(t, h.svc.TrashFile(ctx, ann, a.ID))
	require.NoError(t, h.svc.TrashSubject(ctx, ann, s2.ID))
	require.NoError(t, h.svc.TrashSubject(ctx, ann, s1.ID))

	files, err := h.svc.ListTrashedFiles(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, fileIDs(files))

	subjects, err := h.svc.ListTrashedSubjects(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{s1.ID, s2.ID}, subjectIDs(subjects))
}

func TestSearchFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	math := h.subject(t, ann, "Math")
	history := h.subject(t, ann, "History")
	algebra := h.file(t, ann, math.ID, "Algebra Notes.pdf")
	h.file(t, ann, math.ID, "geometry.pdf")
	hidden := h.file(t, ann, history.ID, "notes on rome.txt")
	percent := h.file(t, ann, math.ID, "100% done.txt")
	require.NoError(t, h.svc.TrashSubject(ctx, ann, history.ID))

	found, err := h.svc.SearchFiles(ctx, ann, "NOTES")
	require.NoError(t, err)
	assert.Equal(t, []string{algebra.ID}, fileIDs(found))
	assert.NotContains(t, fileIDs(found), hidden.ID)

	found, err = h.svc.SearchFiles(ctx, ann, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{percent.ID}, fileIDs(found))

	found, err = h.svc.SearchFiles(ctx, bob, "notes")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = h.svc.SearchFiles(ctx, ann, "  ")
	assert.ErrorIs(t, err, ErrValidation)
}
