package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/ionode-cloud/ERP-Cell/apps/api/echo"
	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	"github.com/ionode-cloud/ERP-Cell/tests"
)

const adminPassword = "Adm1n!Secret"

type app struct {
	*testutil.Services
	server *echoapi.Server
	admin  user.User
}

func setup(t *testing.T) *app {
	t.Helper()
	svc := testutil.NewServices(t)

	validate := validator.New()
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          svc.Conf,
		Logger:        svc.Logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       svc.Users,
		BranchSvc:     svc.Branches,
		StudentSvc:    svc.Students,
		TeacherSvc:    svc.Teachers,
		AttendanceSvc: svc.Attendance,
		MarkSvc:       svc.Marks,
		FeeSvc:        svc.Fees,
	})
	admin := testutil.CreateUser(t, svc.Users, "Admin", "admin@college.edu", adminPassword, user.RoleAdmin, true)
	return &app{Services: svc, server: server, admin: admin}
}

// envelope is the decoded response body.
type envelope struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Errors      map[string]string   `json:"errors"`
	Data        json.RawMessage     `json:"data"`
	Token       string              `json:"token"`
	User        *user.User          `json:"user"`
	Total       int                 `json:"total"`
	Page        int                 `json:"page"`
	Pages       int                 `json:"pages"`
	Credentials student.Credentials `json:"credentials"`
	Summary     batch.Summary       `json:"summary"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantMsg  string
}

func newAuthRequest(t *testing.T, method, path, token string, data interface{}) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	if data != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(data))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

// do sends the request and decodes the envelope.
func (a *app) do(t *testing.T, method, path, token string, data interface{}) (int, envelope) {
	t.Helper()
	req, rec := newAuthRequest(t, method, path, token, data)
	a.server.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (a *app) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := a.do(t, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantCode, code, "message: %s", env.Message)
			require.Equal(t, code < 400, env.Success)
			if tt.wantMsg != "" {
				require.Equal(t, tt.wantMsg, env.Message)
			}
		})
	}
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, usr))
	require.NoError(t, err)
	return token
}

// tokenOf signs a token for the account behind a profile.
func (a *app) tokenOf(t *testing.T, userID string) string {
	t.Helper()
	usr, err := a.Users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return getToken(t, a.Conf, usr)
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}

func ctxb() context.Context { return context.Background() }
