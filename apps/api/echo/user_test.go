package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/studia/apps/api/echo"
)

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	body := func(name, email, pwd, confirm string) []byte {
		return marchallObj(t, map[string]string{
			"name":             name,
			"email":            email,
			"password":         pwd,
			"password_confirm": confirm,
		})
	}

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password mismatch",
			body:     body("Jo Studies", "jo@test.cd", "G00d&Plenty", "Different1!"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "weak password",
			body:     body("Jo Studies", "jo@test.cd", "weak", "weak"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "ok",
			body:     body("Jo Studies", "jo@test.cd", "G00d&Plenty", "G00d&Plenty"),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate email",
			body:     body("Jo Again", "jo@test.cd", "G00d&Plenty", "G00d&Plenty"),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/register", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var got map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, "jo@test.cd", got["email"])
				assert.NotContains(t, got, "password_hash")
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Jo Studies", "jo@test.cd", "G00d&Plenty")

	body := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}

	tests := []httpTest{
		{name: "empty body", body: []byte("{}"), wantCode: http.StatusBadRequest},
		{name: "unknown user", body: body("nobody@test.cd", "G00d&Plenty"), wantCode: http.StatusBadRequest},
		{name: "wrong password", body: body("jo@test.cd", "Wrong1!pass"), wantCode: http.StatusBadRequest},
		{name: "email is case-insensitive", body: body("JO@test.CD", "G00d&Plenty"), wantCode: http.StatusOK},
		{name: "ok", body: body("jo@test.cd", "G00d&Plenty"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/login", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Jo Studies", "jo@test.cd", "G00d&Plenty")
	token := app.getToken(t, usr)

	// no token
	req, rec := newRequest(http.MethodPost, "/api/users/token-refresh")
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	// valid token
	req, rec = newAuthRequest(http.MethodPost, "/api/users/token-refresh", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Jo Studies", "jo@test.cd", "G00d&Plenty")
	token := app.getToken(t, usr)

	req, rec := newAuthRequest(http.MethodGet, "/api/users/me", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, usr.ID, got["id"])
	assert.Equal(t, "jo@test.cd", got["email"])

	// update own name
	req, rec = newAuthRequest(http.MethodPut, "/api/users/me", token, marchallObj(t, map[string]string{"name": "Jo S."}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Jo S.", got["name"])
}
