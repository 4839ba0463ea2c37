package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"htalk-server/models"
)

func strPtr(s string) *string { return &s }

func TestCreateComment(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	auth := authHeader(t, alice)

	t.Run("root comment", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"title":   "第一个主题",
			"content": "大家好",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var comment models.Comment
		require.NoError(t, db.Where("content = ?", "大家好").First(&comment).Error)
		assert.True(t, comment.IsRoot())
		assert.Equal(t, alice.ID, comment.AuthorID)
	})

	t.Run("root without title rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"content": "没有标题",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reply with title rejected", func(t *testing.T) {
		var root models.Comment
		require.NoError(t, db.Where("content = ?", "大家好").First(&root).Error)

		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"title":     "回复不该有标题",
			"content":   "回复",
			"father_id": root.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reply to existing root", func(t *testing.T) {
		var root models.Comment
		require.NoError(t, db.Where("content = ?", "大家好").First(&root).Error)

		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"content":   "沙发",
			"father_id": root.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var reply models.Comment
		require.NoError(t, db.Where("content = ?", "沙发").First(&reply).Error)
		assert.Nil(t, reply.Title)
		require.NotNil(t, reply.FatherID)
		assert.Equal(t, root.ID, *reply.FatherID)
	})

	t.Run("reply to missing father rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"content":   "回复空气",
			"father_id": 99999,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateCommentArchiveAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	auth := authHeader(t, alice)

	archive := models.Archive{Name: "闲聊", Describe: "日常话题"}
	require.NoError(t, db.Create(&archive).Error)

	t.Run("unknown archive id aborts whole creation", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"title":       "带归档的主题",
			"content":     "内容",
			"archive_ids": []uint{archive.ID, 99999},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)

		// 整体回滚，不留下评论行
		var count int64
		db.Model(&models.Comment{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("valid archives attached", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/comments", auth, map[string]any{
			"title":       "带归档的主题",
			"content":     "内容",
			"archive_ids": []uint{archive.ID},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var comment models.Comment
		require.NoError(t, db.Preload("Archives").Where("content = ?", "内容").First(&comment).Error)
		require.Len(t, comment.Archives, 1)
		assert.Equal(t, "闲聊", comment.Archives[0].Name)
	})
}

func TestListCommentsRootsOnlyAndOrder(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	auth := authHeader(t, alice)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	older := models.Comment{Title: strPtr("较早的主题"), Content: "a", AuthorID: alice.ID, CreatedAt: base}
	require.NoError(t, db.Create(&older).Error)
	// 同一时刻的两个主题，按标题降序打破平局
	tieA := models.Comment{Title: strPtr("aaa"), Content: "b", AuthorID: alice.ID, CreatedAt: base.Add(time.Hour)}
	tieB := models.Comment{Title: strPtr("bbb"), Content: "c", AuthorID: alice.ID, CreatedAt: base.Add(time.Hour)}
	require.NoError(t, db.Create(&tieA).Error)
	require.NoError(t, db.Create(&tieB).Error)
	// 回复不应出现在列表里
	reply := models.Comment{Content: "reply", AuthorID: alice.ID, FatherID: &older.ID}
	require.NoError(t, db.Create(&reply).Error)

	w := doJSON(r, http.MethodGet, "/api/comments", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["total"])

	items := body["data"].([]any)
	require.Len(t, items, 3)
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.(map[string]any)["title"].(string))
	}
	assert.Equal(t, []string{"bbb", "aaa", "较早的主题"}, titles)
}

func TestGetCommentWithSons(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	auth := authHeader(t, alice)

	root := models.Comment{Title: strPtr("主题"), Content: "正文", AuthorID: alice.ID}
	require.NoError(t, db.Create(&root).Error)
	for i := 0; i < 3; i++ {
		reply := models.Comment{Content: fmt.Sprintf("回复%d", i), AuthorID: alice.ID, FatherID: &root.ID}
		require.NoError(t, db.Create(&reply).Error)
	}

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/comments/%d", root.ID), auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	sons := data["sons"].([]any)
	assert.Len(t, sons, 3)

	t.Run("missing comment", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/comments/99999", auth, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteComment(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	admin := createUser(t, db, "admin@example.com", "admin")

	root := models.Comment{Title: strPtr("待删主题"), Content: "正文", AuthorID: alice.ID}
	require.NoError(t, db.Create(&root).Error)
	reply := models.Comment{Content: "回复", AuthorID: alice.ID, FatherID: &root.ID}
	require.NoError(t, db.Create(&reply).Error)

	t.Run("default role cannot delete", func(t *testing.T) {
		w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), authHeader(t, alice), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete removes replies too", func(t *testing.T) {
		w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), authHeader(t, admin), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&models.Comment{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("missing comment", func(t *testing.T) {
		w := doJSON(r, http.MethodDelete, "/api/comments/99999", authHeader(t, admin), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestArchiveEndpoints(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	// default 角色没有 CREATE_ARCHIVE 位，建归档需要 coordinator
	alice := createUser(t, db, "alice@example.com", "default")
	carol := createUser(t, db, "carol@example.com", "coordinator")
	auth := authHeader(t, alice)
	coordAuth := authHeader(t, carol)

	t.Run("default role cannot create archive", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/archives", auth, map[string]any{
			"name":     "技术",
			"describe": "技术讨论",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("create archive", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/archives", coordAuth, map[string]any{
			"name":     "技术",
			"describe": "技术讨论",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("duplicate name conflict", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/archives", coordAuth, map[string]any{
			"name":     "技术",
			"describe": "重复",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("archive listing counts roots only", func(t *testing.T) {
		var archive models.Archive
		require.NoError(t, db.Where("name = ?", "技术").First(&archive).Error)

		root := models.Comment{Title: strPtr("归档主题"), Content: "x", AuthorID: alice.ID}
		require.NoError(t, db.Create(&root).Error)
		reply := models.Comment{Content: "y", AuthorID: alice.ID, FatherID: &root.ID}
		require.NoError(t, db.Create(&reply).Error)
		require.NoError(t, db.Model(&root).Association("Archives").Append(&archive))
		require.NoError(t, db.Model(&reply).Association("Archives").Append(&archive))

		w := doJSON(r, http.MethodGet, "/api/archives", auth, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		items := body["data"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, float64(1), items[0].(map[string]any)["comment_total"])
	})

	t.Run("archive comment listing", func(t *testing.T) {
		var archive models.Archive
		require.NoError(t, db.Where("name = ?", "技术").First(&archive).Error)

		w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/archives/%d/comments", archive.ID), auth, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("missing archive", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/archives/99999/comments", auth, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete requires DELETE_ARCHIVE bit", func(t *testing.T) {
		var archive models.Archive
		require.NoError(t, db.Where("name = ?", "技术").First(&archive).Error)

		// default 角色没有 DELETE_ARCHIVE
		w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/archives/%d", archive.ID), auth, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		admin := createUser(t, db, "admin@example.com", "admin")
		w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/archives/%d", archive.ID), authHeader(t, admin), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
