package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ByteBuildersCorp/hidden-feeds/internal/testutil"
	"github.com/ByteBuildersCorp/hidden-feeds/models"
)

type authorResp struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type postResp struct {
	ID           uint        `json:"id"`
	Content      string      `json:"content"`
	IsAnonymous  bool        `json:"isAnonymous"`
	Author       *authorResp `json:"author"`
	LikeCount    int64       `json:"likeCount"`
	CommentCount int64       `json:"commentCount"`
	LikedByMe    bool        `json:"likedByMe"`
}

func TestCreatePostAnonymity(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")

	w := testutil.Request(t, r, "POST", "/api/posts", author, map[string]interface{}{
		"content": "a public post",
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var public postResp
	testutil.DecodeBody(t, w, &public)
	if public.Author == nil || public.Author.Username != "author" {
		t.Errorf("expected author to be visible, got %+v", public.Author)
	}

	w = testutil.Request(t, r, "POST", "/api/posts", author, map[string]interface{}{
		"content":     "a hidden post",
		"isAnonymous": true,
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var anon postResp
	testutil.DecodeBody(t, w, &anon)
	if !anon.IsAnonymous {
		t.Error("expected isAnonymous=true")
	}
	if anon.Author != nil {
		t.Errorf("anonymous post must not expose its author, got %+v", anon.Author)
	}

	// Владелец в БД сохраняется для проверок прав.
	var stored models.Post
	if err := db.First(&stored, anon.ID).Error; err != nil {
		t.Fatalf("post not stored: %v", err)
	}
	if stored.AuthorID != author {
		t.Errorf("stored author: got %d, want %d", stored.AuthorID, author)
	}
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	other := testutil.CreateUser(t, db, "other")

	w := testutil.Request(t, r, "POST", "/api/posts", author, map[string]interface{}{
		"content": "original",
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var post postResp
	testutil.DecodeBody(t, w, &post)

	w = testutil.Request(t, r, "PUT", fmt.Sprintf("/api/posts/%d", post.ID), other, map[string]interface{}{
		"content": "hijacked",
	})
	testutil.RequireStatus(t, w, http.StatusForbidden)

	w = testutil.Request(t, r, "PUT", fmt.Sprintf("/api/posts/%d", post.ID), author, map[string]interface{}{
		"content": "edited",
	})
	testutil.RequireStatus(t, w, http.StatusOK)

	var stored models.Post
	db.First(&stored, post.ID)
	if stored.Content != "edited" {
		t.Errorf("content: got %q, want %q", stored.Content, "edited")
	}
}

func TestToggleLike(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")

	w := testutil.Request(t, r, "POST", "/api/posts", author, map[string]interface{}{
		"content": "like me",
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var post postResp
	testutil.DecodeBody(t, w, &post)

	var toggled struct {
		Liked bool `json:"liked"`
	}

	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/posts/%d/like", post.ID), fan, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	testutil.DecodeBody(t, w, &toggled)
	if !toggled.Liked {
		t.Error("expected liked=true after first toggle")
	}

	var likeRows int64
	db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likeRows)
	if likeRows != 1 {
		t.Errorf("expected 1 like row, got %d", likeRows)
	}

	// Повторный запрос снимает лайк.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/posts/%d/like", post.ID), fan, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	testutil.DecodeBody(t, w, &toggled)
	if toggled.Liked {
		t.Error("expected liked=false after second toggle")
	}

	db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likeRows)
	if likeRows != 0 {
		t.Errorf("expected 0 like rows, got %d", likeRows)
	}
}

func TestDeletePostCascade(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")

	w := testutil.Request(t, r, "POST", "/api/posts", author, map[string]interface{}{
		"content": "doomed post",
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var post postResp
	testutil.DecodeBody(t, w, &post)

	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/posts/%d/like", post.ID), fan, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	w = testutil.Request(t, r, "POST", "/api/comments", fan, map[string]interface{}{
		"content": "nice post",
		"postId":  post.ID,
	})
	testutil.RequireStatus(t, w, http.StatusCreated)

	// Не автор удалить не может.
	w = testutil.Request(t, r, "DELETE", fmt.Sprintf("/api/posts/%d", post.ID), fan, nil)
	testutil.RequireStatus(t, w, http.StatusForbidden)

	w = testutil.Request(t, r, "DELETE", fmt.Sprintf("/api/posts/%d", post.ID), author, nil)
	testutil.RequireStatus(t, w, http.StatusOK)

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 comments after cascade, got %d", count)
	}
	db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 likes after cascade, got %d", count)
	}
	db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected post row gone, got %d", count)
	}
}

func TestListPostsPagination(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")

	for i := 0; i < 25; i++ {
		w := testutil.Request(t, r, "POST", "/api/posts", author, map[string]interface{}{
			"content": fmt.Sprintf("post %d", i),
		})
		testutil.RequireStatus(t, w, http.StatusCreated)
	}

	var page struct {
		Data       []postResp `json:"data"`
		TotalRows  int64      `json:"totalRows"`
		TotalPages int        `json:"totalPages"`
	}

	w := testutil.Request(t, r, "GET", "/api/posts?page=2&pageSize=20", author, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	testutil.DecodeBody(t, w, &page)
	if page.TotalRows != 25 {
		t.Errorf("totalRows: got %d, want 25", page.TotalRows)
	}
	if page.TotalPages != 2 {
		t.Errorf("totalPages: got %d, want 2", page.TotalPages)
	}
	if len(page.Data) != 5 {
		t.Errorf("second page size: got %d, want 5", len(page.Data))
	}
}
