package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"secmcp/internal/errs"
)

func TestRecordExecution_ExposesSeriesOnHandler(t *testing.T) {
	m := New()
	m.RecordExecution("nmap", true, false, "", 250*time.Millisecond)
	m.RecordExecution("nmap", false, true, errs.ErrTimeout, 5*time.Second)
	m.SetBreakerState("nmap", 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`executions_total{error_type="",status="success",tool="nmap"} 1`,
		`errors_total{error_type="timeout",tool="nmap"} 1`,
		`circuit_breaker_state{tool="nmap"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected /metrics body to contain %q; got:\n%s", want, body)
		}
	}
}

func TestSetActive_TracksInFlightCount(t *testing.T) {
	m := New()
	m.SetActive("hydra", 1)
	m.SetActive("hydra", 1)
	m.SetActive("hydra", -1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `active{tool="hydra"} 1`) {
		t.Errorf("expected active gauge = 1 for hydra; got:\n%s", rec.Body.String())
	}
}
