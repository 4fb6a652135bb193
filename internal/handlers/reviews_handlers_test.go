package handlers

import (
	"net/http"
	"testing"

	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
)

func submitReview(t *testing.T, env *testEnv, token, donorEmail string, rating int, comment string) *http.Response {
	t.Helper()
	return performJSONRequest(t, env.app, http.MethodPost, "/api/reviews", map[string]any{
		"donorEmail": donorEmail,
		"rating":     rating,
		"comment":    comment,
	}, authHeaders(token))
}

func TestSubmitReview(t *testing.T) {
	env := setupTestEnv(t)
	_, donorToken := createTestUser(t, env.db, "donor@x.com", "Abcd123!", models.UserRoleDonor, true)
	_, receiverToken := createTestUser(t, env.db, "receiver@x.com", "Abcd123!", models.UserRoleReceiver, true)
	createTestUser(t, env.db, "another@x.com", "Abcd123!", models.UserRoleReceiver, true)

	t.Run("donors cannot review", func(t *testing.T) {
		resp := submitReview(t, env, donorToken, "donor@x.com", 5, "")
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "Only receivers can submit reviews")
	})

	t.Run("requires donor email and rating", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/reviews", map[string]any{
			"comment": "great",
		}, authHeaders(receiverToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "Donor email and rating are required")
	})

	t.Run("rating must be 1 through 5", func(t *testing.T) {
		for _, rating := range []int{-1, 6} {
			resp := submitReview(t, env, receiverToken, "donor@x.com", rating, "")
			body := decodeJSONMap(t, resp)

			assertStatus(t, resp, http.StatusBadRequest)
			assertEnvelopeError(t, body, "Rating must be between 1 and 5")
		}
	})

	t.Run("target must be an existing donor", func(t *testing.T) {
		resp := submitReview(t, env, receiverToken, "another@x.com", 4, "")
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "Donor not found")
	})

	t.Run("stores a review and normalizes the donor email", func(t *testing.T) {
		resp := submitReview(t, env, receiverToken, "  DONOR@x.com ", 4, "prompt and friendly")
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusCreated)
		if message, _ := body["message"].(string); message != "Review submitted successfully" {
			t.Fatalf("unexpected message: %q", message)
		}

		var review models.Review
		if err := env.db.First(&review, "reviewer_email = ?", "receiver@x.com").Error; err != nil {
			t.Fatalf("review not persisted: %v", err)
		}
		if review.DonorEmail != "donor@x.com" {
			t.Fatalf("expected normalized donor email, got %q", review.DonorEmail)
		}
		if review.Rating != 4 || review.Comment != "prompt and friendly" {
			t.Fatalf("unexpected review contents: %+v", review)
		}
	})

	t.Run("one review per reviewer and donor", func(t *testing.T) {
		resp := submitReview(t, env, receiverToken, "donor@x.com", 2, "changed my mind")
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "You have already reviewed this donor")
	})
}

func TestListReviewsForDonor(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env.db, "donor@x.com", "Abcd123!", models.UserRoleDonor, true)
	_, firstToken := createTestUser(t, env.db, "r1@x.com", "Abcd123!", models.UserRoleReceiver, true)
	_, secondToken := createTestUser(t, env.db, "r2@x.com", "Abcd123!", models.UserRoleReceiver, true)

	for _, s := range []struct {
		token  string
		rating int
	}{
		{firstToken, 5},
		{secondToken, 4},
	} {
		resp := submitReview(t, env, s.token, "donor@x.com", s.rating, "")
		assertStatus(t, resp, http.StatusCreated)
		_ = decodeJSONMap(t, resp)
	}

	resp := performRequest(t, env.app, http.MethodGet, "/api/reviews/donor/donor@x.com", nil, authHeaders(firstToken))
	body := decodeJSONMap(t, resp)

	assertStatus(t, resp, http.StatusOK)
	data := dataMap(t, body)
	reviews, _ := data["reviews"].([]any)
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if avg, _ := data["averageRating"].(float64); avg != 4.5 {
		t.Fatalf("expected average 4.5, got %v", data["averageRating"])
	}
	if total, _ := data["totalReviews"].(float64); total != 2 {
		t.Fatalf("expected 2 total reviews, got %v", data["totalReviews"])
	}
}

func TestTopDonor(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("null when nobody has reviews", func(t *testing.T) {
		createTestUser(t, env.db, "quiet@x.com", "Abcd123!", models.UserRoleDonor, true)

		resp := performRequest(t, env.app, http.MethodGet, "/api/reviews/top-donor", nil, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if body["data"] != nil {
			t.Fatalf("expected null data, got %v", body["data"])
		}
	})

	t.Run("score weighs average by review count", func(t *testing.T) {
		// donorA: one 5-star review, score 5. donorB: two 4-star
		// reviews, score 8 — more feedback beats a single rave.
		createTestUser(t, env.db, "a@x.com", "Abcd123!", models.UserRoleDonor, true)
		donorB, _ := createTestUser(t, env.db, "b@x.com", "Abcd123!", models.UserRoleDonor, true)
		createTestDonation(t, env.db, donorB, "Bread", models.DonationStatusAvailable)

		_, r1 := createTestUser(t, env.db, "r1@x.com", "Abcd123!", models.UserRoleReceiver, true)
		_, r2 := createTestUser(t, env.db, "r2@x.com", "Abcd123!", models.UserRoleReceiver, true)

		for _, s := range []struct {
			token string
			donor string
			score int
		}{
			{r1, "a@x.com", 5},
			{r1, "b@x.com", 4},
			{r2, "b@x.com", 4},
		} {
			resp := submitReview(t, env, s.token, s.donor, s.score, "")
			assertStatus(t, resp, http.StatusCreated)
			_ = decodeJSONMap(t, resp)
		}

		resp := performRequest(t, env.app, http.MethodGet, "/api/reviews/top-donor", nil, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		data := dataMap(t, body)
		donor, _ := data["donor"].(map[string]any)
		if donor["email"] != "b@x.com" {
			t.Fatalf("expected b@x.com to win, got %v", donor["email"])
		}
		if avg, _ := data["averageRating"].(float64); avg != 4 {
			t.Fatalf("expected average 4, got %v", data["averageRating"])
		}
		if total, _ := data["totalReviews"].(float64); total != 2 {
			t.Fatalf("expected 2 reviews, got %v", data["totalReviews"])
		}
		if donations, _ := data["totalDonations"].(float64); donations != 1 {
			t.Fatalf("expected 1 donation, got %v", data["totalDonations"])
		}
	})
}
