package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), NewURLSigner("secret", "http://portal.test/"))
	require.NoError(t, err)
	return store
}

func put(t *testing.T, store *LocalStore, objectPath, body string) {
	t.Helper()
	staged, err := store.Stage(context.Background(), objectPath, strings.NewReader(body), 0)
	require.NoError(t, err)
	require.EqualValues(t, len(body), staged.Size())
	require.NoError(t, staged.Commit())
}

func readObject(t *testing.T, store *LocalStore, objectPath string) string {
	t.Helper()
	rc, size, err := store.Download(context.Background(), objectPath)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.EqualValues(t, len(body), size)
	return string(body)
}

func TestLocalStore_CommitOverwritesAndDownloads(t *testing.T) {
	store := newTestStore(t)
	objectPath := "salary-slips/E42/2024-03.pdf"

	put(t, store, objectPath, "%PDF-first")
	put(t, store, objectPath, "%PDF-second")
	require.Equal(t, "%PDF-second", readObject(t, store, objectPath))
}

func TestLocalStore_StagedBodyHiddenUntilCommit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	objectPath := "salary-slips/E42/2024-03.pdf"
	put(t, store, objectPath, "%PDF-first")

	staged, err := store.Stage(ctx, objectPath, strings.NewReader("%PDF-second"), 0)
	require.NoError(t, err)
	require.Equal(t, "%PDF-first", readObject(t, store, objectPath))

	require.NoError(t, staged.Discard())
	require.NoError(t, staged.Discard())
	require.Error(t, staged.Commit())
	require.Equal(t, "%PDF-first", readObject(t, store, objectPath))

	entries, err := os.ReadDir(filepath.Join(store.root, "salary-slips", "E42"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLocalStore_StageOverLimitKeepsExistingObject(t *testing.T) {
	store := newTestStore(t)
	objectPath := "salary-slips/E42/2024-03.pdf"
	put(t, store, objectPath, "%PDF-first")

	_, err := store.Stage(context.Background(), objectPath, strings.NewReader(strings.Repeat("x", 64)), 16)
	require.ErrorIs(t, err, ErrTooLarge)
	require.Equal(t, "%PDF-first", readObject(t, store, objectPath))

	staged, err := store.Stage(context.Background(), objectPath, strings.NewReader(strings.Repeat("x", 16)), 16)
	require.NoError(t, err)
	require.NoError(t, staged.Discard())
}

func TestLocalStore_DownloadMissing(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.Download(context.Background(), "salary-slips/E42/2020-01.pdf")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalStore_RejectsEscapingPaths(t *testing.T) {
	store := newTestStore(t)
	for _, p := range []string{"../etc/passwd", "salary-slips/../../x", "", "/"} {
		_, err := store.Stage(context.Background(), p, strings.NewReader("x"), 0)
		require.Error(t, err, p)
	}
}

func TestLocalStore_StageHonoursCancellation(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Stage(ctx, "salary-slips/E42/2024-03.pdf", strings.NewReader("%PDF"), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSignedURL_BoundToPathAndExpires(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	store.signer.now = func() time.Time { return now }

	link, err := store.CreateSignedURL("salary-slips/E42/2024-03.pdf", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "http://portal.test/files/"))
	require.Equal(t, now.Add(time.Minute), link.ExpiresAt)

	objectPath, err := store.VerifySignedToken(link.Token)
	require.NoError(t, err)
	require.Equal(t, "salary-slips/E42/2024-03.pdf", objectPath)

	_, err = store.VerifySignedToken(link.Token + "x")
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	other := NewURLSigner("other-secret", "http://portal.test")
	_, err = other.Verify(link.Token)
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	store.signer.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = store.VerifySignedToken(link.Token)
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
}
