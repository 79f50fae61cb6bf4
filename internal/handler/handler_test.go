package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hiremind/hiremind-backend/internal/middleware"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/hiremind/hiremind-backend/internal/quizsecurity"
	"github.com/hiremind/hiremind-backend/internal/service"
	"github.com/hiremind/hiremind-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// ─── Fakes ──────────────────────────────────────────────────────────

type fakeAuth struct {
	loggedOut []int
}

func (f *fakeAuth) CheckPassword(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func (f *fakeAuth) GenerateToken(_ context.Context, userID int, _ string) (string, error) {
	return "token-" + uuid.NewString(), nil
}

func (f *fakeAuth) Logout(_ context.Context, userID int) error {
	f.loggedOut = append(f.loggedOut, userID)
	return nil
}

type fakeUsers struct {
	users map[int]*model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, service.ErrUserNotFound
}

type fakeQuizzes struct {
	quiz        *model.Quiz
	generateErr error
}

func (f *fakeQuizzes) Generate(context.Context, int) (*model.Quiz, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.quiz, nil
}

func (f *fakeQuizzes) Get(_ context.Context, id uuid.UUID, userID int) (*model.Quiz, error) {
	if f.quiz == nil || f.quiz.ID != id || f.quiz.UserID != userID {
		return nil, service.ErrQuizNotFound
	}
	return f.quiz, nil
}

type fakeAssessments struct {
	mu           sync.Mutex
	answers      map[int]string
	violations   []quizsecurity.Violation
	strikes      []int
	dispositions []quizsecurity.Disposition
	list         []model.Assessment
}

func (f *fakeAssessments) SaveAnswer(_ context.Context, _ int, quiz *model.Quiz, index int, answer string) error {
	if index < 0 || index >= len(quiz.Questions) {
		return service.ErrInvalidIndex
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answers == nil {
		f.answers = map[int]string{}
	}
	f.answers[index] = answer
	return nil
}

func (f *fakeAssessments) RecordViolation(_ context.Context, _ int, _ string, v quizsecurity.Violation, strike int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.violations = append(f.violations, v)
	f.strikes = append(f.strikes, strike)
	return nil
}

func (f *fakeAssessments) Finalize(_ context.Context, userID int, quiz *model.Quiz, d quizsecurity.Disposition) (*model.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.dispositions) > 0 {
		return nil, service.ErrAlreadySubmitted
	}
	f.dispositions = append(f.dispositions, d)

	answers := make(map[int]string, len(f.answers))
	for k, v := range f.answers {
		answers[k] = v
	}
	score, results := service.Grade(quiz.Questions, answers, d.IsDisqualified)
	return &model.Assessment{
		ID:        uuid.New(),
		UserID:    userID,
		QuizID:    quiz.ID,
		QuizScore: score,
		Questions: results,
		Category:  model.AssessmentCategoryTechnical,
	}, nil
}

func (f *fakeAssessments) List(context.Context, int) ([]model.Assessment, error) {
	return f.list, nil
}

// ─── Helpers ────────────────────────────────────────────────────────

func asUser(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: userID})
		c.Next()
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func serve(t *testing.T, r http.Handler, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func sampleQuiz(userID int) *model.Quiz {
	return &model.Quiz{
		ID:              uuid.New(),
		UserID:          userID,
		DurationMinutes: 30,
		Questions: []model.Question{
			{Question: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4", Explanation: "Arithmetic."},
			{Question: "Go keyword for goroutines?", Options: []string{"go", "async", "spawn", "run"}, CorrectAnswer: "go"},
		},
	}
}

// ─── HTTP handlers ──────────────────────────────────────────────────

func TestAuthHandlerLogin(t *testing.T) {
	users := &fakeUsers{users: map[int]*model.User{
		1: {ID: 1, Email: "dev@example.com", Name: "Dev", PasswordHash: "hash:secret1"},
	}}
	h := NewAuthHandler(&fakeAuth{}, users)
	r := gin.New()
	r.POST("/login", h.Login)

	code, env := serve(t, r, http.MethodPost, "/login", `{"email":"dev@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, code)
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Dev", resp.User.Name)
	assert.NotContains(t, string(env.Data), "hash:")

	code, env = serve(t, r, http.MethodPost, "/login", `{"email":"dev@example.com","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	code, env = serve(t, r, http.MethodPost, "/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAuthHandlerMeAndLogout(t *testing.T) {
	auth := &fakeAuth{}
	users := &fakeUsers{users: map[int]*model.User{4: {ID: 4, Email: "a@b.co", Name: "Ann"}}}
	h := NewAuthHandler(auth, users)

	r := gin.New()
	r.GET("/me", asUser(4), h.Me)
	r.GET("/me-missing", asUser(99), h.Me)
	r.POST("/logout", asUser(4), h.Logout)

	code, env := serve(t, r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Ann")

	code, env = serve(t, r, http.MethodGet, "/me-missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, _ = serve(t, r, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int{4}, auth.loggedOut)
}

func TestQuizHandlerGenerateHidesAnswers(t *testing.T) {
	quiz := sampleQuiz(1)
	h := NewQuizHandler(&fakeQuizzes{quiz: quiz})
	r := gin.New()
	r.POST("/quizzes", asUser(1), h.Generate)

	code, env := serve(t, r, http.MethodPost, "/quizzes", "")
	require.Equal(t, http.StatusCreated, code)

	var pub model.PublicQuiz
	require.NoError(t, json.Unmarshal(env.Data, &pub))
	assert.Equal(t, quiz.ID, pub.ID)
	assert.Len(t, pub.Questions, 2)
	assert.NotContains(t, string(env.Data), "correctAnswer")
	assert.NotContains(t, string(env.Data), "Arithmetic.")
}

func TestQuizHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"generation failed", service.ErrGenerationFailed, http.StatusBadGateway, "QUIZ_GENERATION_FAILED"},
		{"unknown user", service.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"other", errors.New("redis down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/quizzes", asUser(1), NewQuizHandler(&fakeQuizzes{generateErr: tt.err}).Generate)

			code, env := serve(t, r, http.MethodPost, "/quizzes", "")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestQuizHandlerGet(t *testing.T) {
	quiz := sampleQuiz(1)
	h := NewQuizHandler(&fakeQuizzes{quiz: quiz})
	r := gin.New()
	r.GET("/quizzes/:quiz_id", asUser(1), h.Get)
	r.GET("/other/quizzes/:quiz_id", asUser(2), h.Get)

	code, _ := serve(t, r, http.MethodGet, "/quizzes/"+quiz.ID.String(), "")
	assert.Equal(t, http.StatusOK, code)

	code, env := serve(t, r, http.MethodGet, "/quizzes/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	code, env = serve(t, r, http.MethodGet, "/other/quizzes/"+quiz.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "QUIZ_NOT_FOUND", env.Error.Code)
}

func TestQuizHandlerShortcuts(t *testing.T) {
	r := gin.New()
	r.GET("/shortcuts", NewQuizHandler(&fakeQuizzes{}).Shortcuts)

	code, env := serve(t, r, http.MethodGet, "/shortcuts", "")
	require.Equal(t, http.StatusOK, code)

	var body struct {
		Shortcuts   []quizsecurity.BlockedShortcut `json:"shortcuts"`
		StrikeLimit int                            `json:"strike_limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Len(t, body.Shortcuts, len(quizsecurity.BlockedShortcuts()))
	assert.Equal(t, 3, body.StrikeLimit)
}

func TestAssessmentHandlerList(t *testing.T) {
	r := gin.New()
	r.GET("/empty", asUser(1), NewAssessmentHandler(&fakeAssessments{}).List)
	r.GET("/full", asUser(1), NewAssessmentHandler(&fakeAssessments{list: []model.Assessment{{ID: uuid.New()}, {ID: uuid.New()}}}).List)

	code, env := serve(t, r, http.MethodGet, "/empty", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"assessments":[]}`, string(env.Data))

	_, env = serve(t, r, http.MethodGet, "/full", "")
	var body struct {
		Assessments []model.Assessment `json:"assessments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Len(t, body.Assessments, 2)
}
