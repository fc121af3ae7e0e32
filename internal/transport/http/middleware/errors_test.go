package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/phamyourfam/blissbite/internal/transport/http/apierror"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.ErrorLevel)

	router := gin.New()
	router.Use(RequestID(), EnrichContext(), ErrorHandler(zap.New(core)))
	router.GET("/conflict", func(c *gin.Context) {
		Fail(c, apierror.New(http.StatusConflict, "An account with this email already exists."))
	})
	router.GET("/boom", func(c *gin.Context) {
		Fail(c, errors.New("database unavailable"))
	})
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.NoRoute(NotFound())

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{path: "/conflict", status: http.StatusConflict, message: "An account with this email already exists."},
		{path: "/boom", status: http.StatusInternalServerError, message: apierror.InternalMessage},
		{path: "/missing", status: http.StatusNotFound, message: "Route not found"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var body apierror.Body
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != "failed" || body.Message != tc.message {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected untouched success response, got %d", rr.Code)
	}

	entries := logs.FilterMessage("request error").All()
	if len(entries) != 1 {
		t.Fatalf("expected only the 500 to be logged, got %d entries", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] == "" || fields["trace_id"] == "" {
		t.Fatalf("expected correlation ids on error log, got %v", fields)
	}
}
