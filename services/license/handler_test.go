package license

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"entitlement-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Error())
	NewHandler(f.svc).RegisterRoutes(r)
	return r
}

func TestHandlerActivateAndCheckAccess(t *testing.T) {
	f := newFixture(t)
	f.tenant(t, "t1")
	f.key(t, "k1", "OWLTD-AB123-CD456", 30, nil)
	r := newTestRouter(f)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tenants/t1/license", strings.NewReader(`{"key_code":"owltdab123cd456"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var act ActivationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &act))
	require.Equal(t, "OWLTD-AB123-CD456", act.KeyCode)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tenants/t1/access", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res AccessResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, StateLicensed, res.State)
	require.True(t, res.IsValid)
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	f.tenant(t, "t1")
	r := newTestRouter(f)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/v1/tenants/t1/license", `{`, http.StatusBadRequest, "bad_request"},
		{"malformed key", http.MethodPost, "/v1/tenants/t1/license", `{"key_code":"nope"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"unknown key", http.MethodPost, "/v1/tenants/t1/license", `{"key_code":"OWLTD-ZZZZZ-ZZZZZ"}`, http.StatusNotFound, "not_found"},
		{"unknown tenant", http.MethodGet, "/v1/tenants/missing/access", ``, http.StatusNotFound, "not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code, w.Body.String())

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Error.Code)
		})
	}
}
