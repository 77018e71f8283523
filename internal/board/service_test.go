package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/result"
)

func TestListEmptyBoardIsSuccess(t *testing.T) {
	svc, _ := newTestService()

	res := svc.List(context.Background())
	require.False(t, res.Failed())
	list, ok := res.Data()
	require.True(t, ok)
	assert.NotNil(t, list.Articles)
	assert.Empty(t, list.Articles)
}

func TestFindUnknownArticle(t *testing.T) {
	svc, _ := newTestService()

	for _, id := range []int64{1, 42, 9001} {
		res := svc.Find(context.Background(), id)
		assert.Equal(t, result.NotFound, res.Code())
		assert.Contains(t, res.Message(), "does not exist")
		assert.Contains(t, res.Message(), "article ")
		_, ok := res.Data()
		assert.False(t, ok)
	}
	assert.Equal(t, "article 42 does not exist", svc.Find(context.Background(), 42).Message())
}

func TestWriteThenFindRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Write(ctx, Principal{Username: "alice"}, WriteRequest{Subject: "S", Content: "C"})
	require.NoError(t, err)
	require.Equal(t, result.Created, res.Code())
	assert.Equal(t, "article created", res.Message())
	view, ok := res.Data()
	require.True(t, ok)

	found := svc.Find(ctx, view.Article.ID)
	require.Equal(t, result.OK, found.Code())
	got, _ := found.Data()
	assert.Equal(t, "S", got.Article.Subject)
	assert.Equal(t, "C", got.Article.Content)
	assert.Equal(t, alice.ID, got.Article.MemberID)
}

func TestWriteUnknownMemberIsFault(t *testing.T) {
	svc, articles := newTestService()

	res, err := svc.Write(context.Background(), Principal{Username: "mallory"}, WriteRequest{Subject: "S", Content: "C"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMember))
	assert.Equal(t, result.Code(""), res.Code())
	assert.Empty(t, articles.rows)

	_, err = svc.Write(context.Background(), Principal{Username: "broken"}, WriteRequest{Subject: "S", Content: "C"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownMember))
}

func TestWriteStorageFailureIsEnvelope(t *testing.T) {
	svc, articles := newTestService()
	articles.err = errors.New("database is locked")

	res, err := svc.Write(context.Background(), Principal{Username: "alice"}, WriteRequest{Subject: "S", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, result.Internal, res.Code())
	assert.Equal(t, "could not save article", res.Message())
	assert.NotContains(t, res.Message(), "locked")
}

func TestModifyByNonOwnerLeavesArticleUnchanged(t *testing.T) {
	svc, articles := newTestService()
	ctx := context.Background()
	id := mustWrite(t, svc, "alice", "S", "C")

	res, err := svc.Modify(ctx, Principal{Username: "bob"}, id, ModifyRequest{Subject: "hacked", Content: "hacked"})
	require.NoError(t, err)
	assert.Equal(t, result.Forbidden, res.Code())
	assert.Equal(t, "member bob is not allowed to modify article 1", res.Message())
	assert.Zero(t, articles.updates)

	got, _ := svc.Find(ctx, id).Data()
	assert.Equal(t, "S", got.Article.Subject)
	assert.Equal(t, "C", got.Article.Content)
}

func TestModifyByOwnerIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := mustWrite(t, svc, "alice", "S", "C")

	for i := 0; i < 2; i++ {
		res, err := svc.Modify(ctx, Principal{Username: "alice"}, id, ModifyRequest{Subject: "S2", Content: "C2"})
		require.NoError(t, err)
		require.Equal(t, result.OK, res.Code())
		assert.Equal(t, "article updated", res.Message())
		view, ok := res.Data()
		require.True(t, ok)
		assert.Equal(t, "S2", view.Article.Subject)
	}

	got, _ := svc.Find(ctx, id).Data()
	assert.Equal(t, "S2", got.Article.Subject)
	assert.Equal(t, "C2", got.Article.Content)
}

func TestModifyMissingArticle(t *testing.T) {
	svc, articles := newTestService()

	res, err := svc.Modify(context.Background(), Principal{Username: "alice"}, 7, ModifyRequest{Subject: "S", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, result.NotFound, res.Code())
	assert.Equal(t, "article 7 does not exist", res.Message())
	assert.Zero(t, articles.updates)
}

func TestModifyUnknownMemberIsFault(t *testing.T) {
	svc, articles := newTestService()
	id := mustWrite(t, svc, "alice", "S", "C")

	_, err := svc.Modify(context.Background(), Principal{Username: "ghost"}, id, ModifyRequest{Subject: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrUnknownMember)
	assert.Zero(t, articles.updates)
}

func TestRemoveHidesArticle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := mustWrite(t, svc, "alice", "S", "C")

	res, err := svc.Remove(ctx, Principal{Username: "bob"}, id)
	require.NoError(t, err)
	assert.Equal(t, result.Forbidden, res.Code())

	res, err = svc.Remove(ctx, Principal{Username: "alice"}, id)
	require.NoError(t, err)
	assert.Equal(t, result.OK, res.Code())

	assert.Equal(t, result.NotFound, svc.Find(ctx, id).Code())
	list, _ := svc.List(ctx).Data()
	assert.Empty(t, list.Articles)

	modified, err := svc.Modify(ctx, Principal{Username: "alice"}, id, ModifyRequest{Subject: "x", Content: "y"})
	require.NoError(t, err)
	assert.Equal(t, result.NotFound, modified.Code())
}

func TestCanModify(t *testing.T) {
	svc, _ := newTestService()

	owned := svc.CanModify(alice, mustArticle(t, svc, "alice"))
	assert.False(t, owned.Failed())

	denied := svc.CanModify(bob, mustArticle(t, svc, "alice"))
	assert.Equal(t, result.Forbidden, denied.Code())
	assert.Contains(t, denied.Message(), "bob")
}

func TestAliceAndBobScenario(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	id := mustWrite(t, svc, "alice", "S", "C")
	require.Equal(t, int64(1), id)

	found := svc.Find(ctx, 1)
	require.Equal(t, result.OK, found.Code())
	view, _ := found.Data()
	assert.Equal(t, "S", view.Article.Subject)

	denied, err := svc.Modify(ctx, Principal{Username: "bob"}, 1, ModifyRequest{Subject: "B", Content: "B"})
	require.NoError(t, err)
	assert.True(t, denied.Failed())
	assert.Contains(t, denied.Message(), "not allowed")

	view, _ = svc.Find(ctx, 1).Data()
	assert.Equal(t, "S", view.Article.Subject)

	ok, err := svc.Modify(ctx, Principal{Username: "alice"}, 1, ModifyRequest{Subject: "S2", Content: "C"})
	require.NoError(t, err)
	assert.False(t, ok.Failed())

	view, _ = svc.Find(ctx, 1).Data()
	assert.Equal(t, "S2", view.Article.Subject)
}

func mustWrite(t *testing.T, svc *Service, username, subject, content string) int64 {
	t.Helper()
	res, err := svc.Write(context.Background(), Principal{Username: username}, WriteRequest{Subject: subject, Content: content})
	require.NoError(t, err)
	view, ok := res.Data()
	require.True(t, ok, res.Message())
	return view.Article.ID
}

func mustArticle(t *testing.T, svc *Service, username string) model.Article {
	t.Helper()
	id := mustWrite(t, svc, username, "s", "c")
	view, ok := svc.Find(context.Background(), id).Data()
	require.True(t, ok)
	return view.Article
}
