// Command samunu runs the application server: public sign-in/sign-up
// endpoints, the session-gated API serving the kanban board, and a
// Prometheus metrics endpoint.
//
// Configuration comes from the environment (prefix SAMUNU_):
//
//	SAMUNU_ADDR               listen address (default ":8080")
//	SAMUNU_IDENTITY_BASE_URL  identity provider base URL (required)
//	SAMUNU_REDIS_ADDR         Redis address for the audit stream (optional)
//	SAMUNU_REDIS_PASSWORD     Redis password (optional)
//	SAMUNU_SIGNIN_PATH        redirect target for unauthenticated requests
//	SAMUNU_SUBMIT_TIMEOUT     submission timeout (e.g. "15s")
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	samunu "github.com/nestorzamili/samunu-project"
	"github.com/nestorzamili/samunu-project/kanban"
	promexport "github.com/nestorzamili/samunu-project/metrics/export/prometheus"
	gatemw "github.com/nestorzamili/samunu-project/middleware"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	v := viper.New()
	v.SetEnvPrefix("SAMUNU")
	v.AutomaticEnv()
	v.SetDefault("addr", ":8080")
	v.SetDefault("signin_path", "/sign-in")
	v.SetDefault("submit_timeout", "15s")

	identityBaseURL := v.GetString("identity_base_url")
	if identityBaseURL == "" {
		return errors.New("SAMUNU_IDENTITY_BASE_URL is required")
	}

	cfg := samunu.DefaultConfig()
	cfg.Identity.BaseURL = identityBaseURL
	cfg.Gate.SignInPath = v.GetString("signin_path")
	if d := v.GetDuration("submit_timeout"); d > 0 {
		cfg.Submission.Timeout = d
	}

	var sink samunu.AuditSink = samunu.NewJSONWriterSink(os.Stdout)
	if redisAddr := v.GetString("redis_addr"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: v.GetString("redis_password"),
		})
		defer func() { _ = rdb.Close() }()
		sink = samunu.NewRedisStreamSink(rdb, "samunu:audit", 10000)
	}

	engine, err := samunu.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithAuditSink(sink).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Post("/api/auth/sign-in", handleSubmit(engine, samunu.ModeSignIn))
	r.Post("/api/auth/sign-up", handleSubmit(engine, samunu.ModeSignUp))
	r.Get(cfg.Gate.SignInPath, handleSignInPage)
	r.Handle("/metrics", promexport.NewExporter(engine).Handler())

	r.Group(func(r chi.Router) {
		r.Use(clientIP)
		r.Use(gatemw.Gate(engine, cfg.Gate.SignInPath))
		r.Get("/api/me", handleMe)
		r.Get("/api/tasks", handleTasks)
		r.Get("/api/layout", handleLayout)
	})

	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// clientIP copies the resolved remote address into the engine's
// context for audit events.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := samunu.WithClientIP(r.Context(), r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentialRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func handleSubmit(engine *samunu.Engine, mode samunu.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "malformed request body"})
			return
		}

		ctx := samunu.WithClientIP(r.Context(), r.RemoteAddr)
		res, err := engine.NewSubmission().Submit(ctx, samunu.Credential{
			Name:            req.Name,
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
		}, mode)
		if err != nil {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		switch {
		case !res.FieldErrors.Valid():
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{"fieldErrors": res.FieldErrors})
		case res.Outcome.Kind == samunu.OutcomeUnexpected:
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"error": res.Outcome.Message})
		case res.Outcome.Kind == samunu.OutcomeFailure:
			status := http.StatusUnauthorized
			if mode == samunu.ModeSignUp {
				status = http.StatusBadRequest
			}
			render.Status(r, status)
			render.JSON(w, r, map[string]string{"error": res.Outcome.Message})
		default:
			render.JSON(w, r, map[string]any{
				"redirect":  res.Redirect,
				"refresh":   res.Refresh,
				"resetForm": res.ResetForm,
				"message":   res.Outcome.Message,
			})
		}
	}
}

func handleSignInPage(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"page": "sign-in",
	})
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := gatemw.SessionFromContext(r.Context())
	if !ok {
		// The gate guarantees a session here; reaching this is a bug.
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, sess.User)
}

func handleTasks(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sampleTasks)
}

// handleLayout mirrors the original layout's sidebar preference: open
// unless the cookie holds the literal "false".
func handleLayout(w http.ResponseWriter, r *http.Request) {
	open := true
	if c, err := r.Cookie("sidebar:state"); err == nil && c.Value == "false" {
		open = false
	}
	render.JSON(w, r, map[string]bool{"sidebarOpen": open})
}

var sampleTasks = []kanban.Task{
	{
		ID:       "TASK-8782",
		Title:    "You can't compress the program without quantifying the open-source SSD pixel!",
		Status:   "in progress",
		Label:    "documentation",
		Priority: "medium",
	},
	{
		ID:       "TASK-7878",
		Title:    "Try to calculate the EXE feed, maybe it will index the multi-byte pixel!",
		Status:   "backlog",
		Label:    "documentation",
		Priority: "medium",
		Tags:     []string{"infra"},
	},
	{
		ID:       "TASK-7839",
		Title:    "We need to bypass the neural TCP card!",
		Status:   "todo",
		Label:    "bug",
		Priority: "high",
		Assignee: &kanban.Assignee{Name: "Alice"},
	},
}
