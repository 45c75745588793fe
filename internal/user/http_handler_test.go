package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booklend/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "11111111-1111-1111-1111-111111111111"

func TestHTTPHandler_GetProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("success hides private fields", func(t *testing.T) {
		pc := "1010"
		avg := 4.5
		mockRepo.EXPECT().GetByID(gomock.Any(), userID).Return(User{
			ID: userID, Name: "Ana", Email: "ana@example.com", PostalCode: &pc, AverageScore: &avg, ReviewCount: 2,
		}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/user/"+userID, nil)
		r.SetPathValue("id", userID)
		handler.GetProfile(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `"hasPostalCode":true`)
		assert.Contains(t, body, `"averageScore":4.5`)
		assert.NotContains(t, body, "ana@example.com")
	})

	t.Run("no reviews yet", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), userID).Return(User{ID: userID, Name: "Ana"}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/user/"+userID, nil)
		r.SetPathValue("id", userID)
		handler.GetProfile(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"averageScore":null`)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), userID).Return(User{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/user/"+userID, nil)
		r.SetPathValue("id", userID)
		handler.GetProfile(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/user/nope", nil)
		r.SetPathValue("id", "nope")
		handler.GetProfile(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_UpdateMe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("sets postal code", func(t *testing.T) {
		mockRepo.EXPECT().Update(gomock.Any(), userID, gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, upd Update) error {
				require.NotNil(t, upd.PostalCode)
				assert.Equal(t, "1010", *upd.PostalCode)
				assert.Nil(t, upd.Name)
				return nil
			})
		mockRepo.EXPECT().GetByID(gomock.Any(), userID).Return(User{ID: userID}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/user/me", strings.NewReader(`{"postalCode":" 1010 "}`))
		r = r.WithContext(httpx.ContextWithUser(r.Context(), userID))
		handler.UpdateMe(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid birth date", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/user/me", strings.NewReader(`{"birthDate":"01/02/2000"}`))
		r = r.WithContext(httpx.ContextWithUser(r.Context(), userID))
		handler.UpdateMe(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.UpdateMe(w, httptest.NewRequest(http.MethodPatch, "/user/me", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUpdateQuery(t *testing.T) {
	empty := ""
	name := "Ana"
	query, args, err := updateQuery(userID, Update{Name: &name, PostalCode: &empty})
	require.NoError(t, err)

	assert.Contains(t, query, `UPDATE "users" SET`)
	assert.Contains(t, query, `"postal_code"=$`)
	assert.Contains(t, query, `"updated_at"=NOW()`)
	assert.Equal(t, []interface{}{"Ana", nil, userID}, args)
}
