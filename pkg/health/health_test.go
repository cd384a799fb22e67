package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func readiness(t *testing.T, svc HealthService) (int, Health) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/readyz", svc.Readiness)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestReadiness(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:health?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := ProvideHealth(HealthParams{DB: db, Redis: client})

	code, body := readiness(t, svc)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, statusHealthy, body.Status)
	require.Len(t, body.Deps, 2)

	mr.Close()

	code, body = readiness(t, svc)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, statusUnhealthy, body.Status)
	require.Equal(t, statusUnhealthy, body.Deps[1].Status)
}
