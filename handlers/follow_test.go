package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"htalk-server/models"
)

func TestFollowUser(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	bob := createUser(t, db, "bob@example.com", "default")
	auth := authHeader(t, alice)

	followPath := fmt.Sprintf("/api/users/%d/follow", bob.ID)

	t.Run("anonymous rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, followPath, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("self-follow rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice.ID), auth, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("follow then duplicate", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, followPath, auth, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		// 重复关注：冲突，但边数仍为 1
		w = doJSON(r, http.MethodPost, followPath, auth, nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		var count int64
		db.Model(&models.Follow{}).
			Where("follower_id = ? AND followed_id = ?", alice.ID, bob.ID).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("follow unknown user", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/users/99999/follow", auth, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUnfollowIdempotent(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	bob := createUser(t, db, "bob@example.com", "default")
	auth := authHeader(t, alice)

	followPath := fmt.Sprintf("/api/users/%d/follow", bob.ID)

	w := doJSON(r, http.MethodPost, followPath, auth, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodDelete, followPath, auth, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 边已不存在，再次取消仍然成功
	w = doJSON(r, http.MethodDelete, followPath, auth, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestFollowListings(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)
	alice := createUser(t, db, "alice@example.com", "default")
	bob := createUser(t, db, "bob@example.com", "default")
	carol := createUser(t, db, "carol@example.com", "default")

	require.NoError(t, db.Create(&models.Follow{FollowerID: alice.ID, FollowedID: bob.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: carol.ID, FollowedID: bob.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: bob.ID, FollowedID: alice.ID}).Error)

	auth := authHeader(t, alice)

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", bob.ID), auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/%d/following", bob.ID), auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["total"])

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/%d/follow/stats", bob.ID), auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["followers"])
	assert.Equal(t, float64(1), data["following"])
}

func TestFollowPermissionGate(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newAuthRouter(t)

	// 只有 USABLE 位的角色：可登录但不能关注
	require.NoError(t, db.Create(&models.Role{Name: "readonly", Permission: models.PermUsable}).Error)
	restricted := createUser(t, db, "restricted@example.com", "readonly")
	bob := createUser(t, db, "bob@example.com", "default")
	auth := authHeader(t, restricted)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), auth, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", bob.ID), auth, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
