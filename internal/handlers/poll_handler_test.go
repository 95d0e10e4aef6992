package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ByteBuildersCorp/hidden-feeds/internal/testutil"
	"github.com/ByteBuildersCorp/hidden-feeds/models"
)

type pollOptionResp struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
	Percentage int    `json:"percentage"`
}

type pollResp struct {
	ID         uint             `json:"id"`
	Question   string           `json:"question"`
	Options    []pollOptionResp `json:"options"`
	TotalVotes int64            `json:"totalVotes"`
	MyVote     *uint            `json:"myVote"`
	Expired    bool             `json:"expired"`
	ExpiresAt  string           `json:"expiresAt"`
}

func TestCreatePollValidatesOptionCount(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Only one option?",
		"options":  []string{"Yes"},
	})
	testutil.RequireStatus(t, w, http.StatusBadRequest)

	w = testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Too many options?",
		"options":  []string{"A", "B", "C", "D", "E", "F"},
	})
	testutil.RequireStatus(t, w, http.StatusBadRequest)

	w = testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Enough options?",
		"options":  []string{"A", "B", "C"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)

	var resp pollResp
	testutil.DecodeBody(t, w, &resp)
	if len(resp.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(resp.Options))
	}

	expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		t.Fatalf("bad expiresAt: %v", err)
	}
	lifetime := time.Until(expires)
	if lifetime < 7*24*time.Hour-time.Minute || lifetime > 7*24*time.Hour+time.Minute {
		t.Errorf("expected expiry about 7 days out, got %v", lifetime)
	}
}

func TestVotePercentagesScenario(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	userA := testutil.CreateUser(t, db, "usera")
	userB := testutil.CreateUser(t, db, "userb")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Best color?",
		"options":  []string{"Red", "Blue"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var poll pollResp
	testutil.DecodeBody(t, w, &poll)

	// Без голосов оба варианта показывают 0%.
	for _, opt := range poll.Options {
		if opt.Percentage != 0 {
			t.Errorf("option %q: expected 0%%, got %d%%", opt.Text, opt.Percentage)
		}
	}
	if poll.TotalVotes != 0 {
		t.Errorf("expected totalVotes 0, got %d", poll.TotalVotes)
	}

	red, blue := poll.Options[0], poll.Options[1]

	// Пользователь A голосует за Red: 100% / 0%.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, red.ID), userA, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	var afterA pollResp
	testutil.DecodeBody(t, w, &afterA)
	if afterA.TotalVotes != 1 {
		t.Errorf("expected totalVotes 1, got %d", afterA.TotalVotes)
	}
	if afterA.Options[0].Percentage != 100 || afterA.Options[1].Percentage != 0 {
		t.Errorf("expected 100%%/0%%, got %d%%/%d%%", afterA.Options[0].Percentage, afterA.Options[1].Percentage)
	}

	// Пользователь B голосует за Blue: 50% / 50%.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, blue.ID), userB, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	var afterB pollResp
	testutil.DecodeBody(t, w, &afterB)
	if afterB.TotalVotes != 2 {
		t.Errorf("expected totalVotes 2, got %d", afterB.TotalVotes)
	}
	if afterB.Options[0].Percentage != 50 || afterB.Options[1].Percentage != 50 {
		t.Errorf("expected 50%%/50%%, got %d%%/%d%%", afterB.Options[0].Percentage, afterB.Options[1].Percentage)
	}
}

func TestDuplicateVoteRejected(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	voter := testutil.CreateUser(t, db, "voter")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Tea or coffee?",
		"options":  []string{"Tea", "Coffee"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var poll pollResp
	testutil.DecodeBody(t, w, &poll)

	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, poll.Options[0].ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusOK)

	// Второй голос отклоняется, даже за другой вариант.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, poll.Options[1].ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusConflict)

	var voteRows int64
	db.Model(&models.UserVote{}).Where("poll_id = ?", poll.ID).Count(&voteRows)
	if voteRows != 1 {
		t.Errorf("expected 1 vote row, got %d", voteRows)
	}

	var options []models.PollOption
	db.Where("poll_id = ?", poll.ID).Order("id").Find(&options)
	if options[0].Votes != 1 || options[1].Votes != 0 {
		t.Errorf("tallies changed by rejected vote: %d/%d", options[0].Votes, options[1].Votes)
	}
}

func TestVoteTallySumInvariant(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Pick one",
		"options":  []string{"A", "B", "C"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var poll pollResp
	testutil.DecodeBody(t, w, &poll)

	for i := 0; i < 5; i++ {
		voter := testutil.CreateUser(t, db, fmt.Sprintf("voter%d", i))
		option := poll.Options[i%len(poll.Options)]
		w := testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, option.ID), voter, nil)
		testutil.RequireStatus(t, w, http.StatusOK)
	}

	var sum int64
	var options []models.PollOption
	db.Where("poll_id = ?", poll.ID).Find(&options)
	for _, opt := range options {
		if opt.Votes < 0 {
			t.Errorf("option %d has negative votes: %d", opt.ID, opt.Votes)
		}
		sum += opt.Votes
	}

	var voteRows int64
	db.Model(&models.UserVote{}).Where("poll_id = ?", poll.ID).Count(&voteRows)
	if sum != voteRows {
		t.Errorf("sum of option votes %d != vote rows %d", sum, voteRows)
	}
}

func TestVoteValidation(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	voter := testutil.CreateUser(t, db, "voter")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "First poll",
		"options":  []string{"A", "B"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var first pollResp
	testutil.DecodeBody(t, w, &first)

	w = testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Second poll",
		"options":  []string{"X", "Y"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var second pollResp
	testutil.DecodeBody(t, w, &second)

	// Вариант чужого опроса не принимается.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", first.ID, second.Options[0].ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusNotFound)

	// Голос в истекшем опросе не принимается.
	db.Model(&models.Poll{}).Where("id = ?", first.ID).
		Update("expires_at", time.Now().Add(-time.Hour))
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", first.ID, first.Options[0].ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusBadRequest)

	// Неаутентифицированный запрос отклоняется.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", second.ID, second.Options[0].ID), 0, nil)
	testutil.RequireStatus(t, w, http.StatusUnauthorized)
}

func TestHasVoted(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	voter := testutil.CreateUser(t, db, "voter")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Yes or no?",
		"options":  []string{"Yes", "No"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var poll pollResp
	testutil.DecodeBody(t, w, &poll)

	var status struct {
		Voted    bool `json:"voted"`
		OptionID uint `json:"optionId"`
	}

	w = testutil.Request(t, r, "GET", fmt.Sprintf("/api/polls/%d/vote", poll.ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	testutil.DecodeBody(t, w, &status)
	if status.Voted {
		t.Error("expected voted=false before voting")
	}

	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, poll.Options[1].ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusOK)

	w = testutil.Request(t, r, "GET", fmt.Sprintf("/api/polls/%d/vote", poll.ID), voter, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	testutil.DecodeBody(t, w, &status)
	if !status.Voted || status.OptionID != poll.Options[1].ID {
		t.Errorf("expected voted=true with option %d, got %+v", poll.Options[1].ID, status)
	}
}

func TestDeletePollCascade(t *testing.T) {
	db := testutil.SetupDB(t)
	r := testutil.NewRouter()
	author := testutil.CreateUser(t, db, "author")
	userA := testutil.CreateUser(t, db, "usera")
	userB := testutil.CreateUser(t, db, "userb")

	w := testutil.Request(t, r, "POST", "/api/polls", author, map[string]interface{}{
		"question": "Doomed poll",
		"options":  []string{"One", "Two"},
	})
	testutil.RequireStatus(t, w, http.StatusCreated)
	var poll pollResp
	testutil.DecodeBody(t, w, &poll)

	// 2 голоса и 3 комментария.
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, poll.Options[0].ID), userA, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	w = testutil.Request(t, r, "POST", fmt.Sprintf("/api/polls/%d/vote/%d", poll.ID, poll.Options[1].ID), userB, nil)
	testutil.RequireStatus(t, w, http.StatusOK)
	for i := 0; i < 3; i++ {
		w = testutil.Request(t, r, "POST", "/api/comments", userA, map[string]interface{}{
			"content": fmt.Sprintf("comment %d", i),
			"pollId":  poll.ID,
		})
		testutil.RequireStatus(t, w, http.StatusCreated)
	}

	// Чужой пользователь удалить опрос не может.
	w = testutil.Request(t, r, "DELETE", fmt.Sprintf("/api/polls/%d", poll.ID), userA, nil)
	testutil.RequireStatus(t, w, http.StatusForbidden)

	w = testutil.Request(t, r, "DELETE", fmt.Sprintf("/api/polls/%d", poll.ID), author, nil)
	testutil.RequireStatus(t, w, http.StatusOK)

	var count int64
	db.Model(&models.Comment{}).Where("poll_id = ?", poll.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 comments after cascade, got %d", count)
	}
	db.Model(&models.UserVote{}).Where("poll_id = ?", poll.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 votes after cascade, got %d", count)
	}
	db.Model(&models.PollOption{}).Where("poll_id = ?", poll.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 options after cascade, got %d", count)
	}
	db.Model(&models.Poll{}).Where("id = ?", poll.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected poll row gone, got %d", count)
	}

	// Повторное удаление уже удаленного опроса: падает только на шаге
	// "опрос не найден", без побочных эффектов.
	w = testutil.Request(t, r, "DELETE", fmt.Sprintf("/api/polls/%d", poll.ID), author, nil)
	testutil.RequireStatus(t, w, http.StatusNotFound)
}
