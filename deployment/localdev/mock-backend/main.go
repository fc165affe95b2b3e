package main

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strings"
	"time"
)

type ragRequest struct {
	Query string `json:"query"`
}

type ragResponse struct {
	Response         string   `json:"response"`
	SuggestedQueries []string `json:"suggested_queries"`
}

type predictRequest struct {
	AffectedUsers  int64   `json:"number_of_affected_users"`
	DataBreachGB   float64 `json:"data_breach_size_gb"`
	AttackType     string  `json:"attack_type"`
	TargetIndustry string  `json:"target_industry"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
	Severity   string  `json:"severity"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Mounted at a fallback candidate on purpose so the gateway has to walk
	// its candidate list before the path sticks.
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req ragRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, ragResponse{
			Response: "Mock answer for: " + req.Query +
				". Keep software patched, enable multi-factor authentication, and back up critical data offline.",
			SuggestedQueries: []string{
				"How do I recognise a phishing email?",
				"What should I do after a ransomware infection?",
			},
		})
	})

	mux.HandleFunc("/predict_financial_loss", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		loss := mockLoss(req)
		writeJSON(w, predictResponse{Prediction: loss, Severity: mockSeverity(loss)})
	})

	logger := log.New(log.Writer(), "backend-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

// mockLoss is a crude stand-in for the real model: logarithmic in both
// scale inputs, nudged by attack type.
func mockLoss(req predictRequest) float64 {
	loss := 2.0
	loss += 6.5 * math.Log1p(float64(req.AffectedUsers)/10000)
	loss += 4.0 * math.Log1p(req.DataBreachGB/100)
	switch strings.ToLower(req.AttackType) {
	case "ransomware":
		loss *= 1.5
	case "ddos":
		loss *= 0.8
	}
	return math.Round(loss*100) / 100
}

func mockSeverity(loss float64) string {
	switch {
	case loss >= 60:
		return "critical"
	case loss >= 30:
		return "high"
	case loss >= 10:
		return "medium"
	default:
		return "low"
	}
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
