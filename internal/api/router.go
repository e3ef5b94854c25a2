package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/TWRT/taskdesk/internal/api/handlers"
	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/repository"
	"github.com/TWRT/taskdesk/internal/service"
)

type ServerConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func SetupRouter(db *sql.DB, cfg ServerConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	notificationService := service.NewNotificationService(notificationRepo, logger)
	taskService := service.NewTaskService(
		taskRepo,
		commentRepo,
		activityRepo,
		userRepo,
		notificationService,
		logger,
	)

	authHandler := handlers.NewAuthHandler(authService, logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)
	auth := authHandler.RequireUser

	const v1 = client.BasePath

	mux.HandleFunc("POST "+v1+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+v1+"/auth/login", authHandler.Login)

	mux.HandleFunc("GET "+v1+"/tasks", auth(taskHandler.ListTasks))
	mux.HandleFunc("POST "+v1+"/tasks", auth(taskHandler.CreateTask))
	mux.HandleFunc("GET "+v1+"/tasks/{id}", auth(taskHandler.GetTask))
	mux.HandleFunc("PATCH "+v1+"/tasks/{id}", auth(taskHandler.UpdateTask))
	mux.HandleFunc("DELETE "+v1+"/tasks/{id}", auth(taskHandler.DeleteTask))
	mux.HandleFunc("POST "+v1+"/tasks/{id}/comments", auth(taskHandler.AddComment))
	mux.HandleFunc("GET "+v1+"/tasks/{id}/comments", auth(taskHandler.ListComments))
	mux.HandleFunc("GET "+v1+"/tasks/{id}/history", auth(taskHandler.ListHistory))

	mux.HandleFunc("GET "+v1+"/users", auth(authHandler.ListUsers))

	mux.HandleFunc("GET "+v1+"/notifications", auth(notificationHandler.ListNotifications))
	mux.HandleFunc("POST "+v1+"/notifications/mark-all-read", auth(notificationHandler.MarkAllRead))
	mux.HandleFunc("PATCH "+v1+"/notifications/{id}", auth(notificationHandler.MarkRead))
	mux.HandleFunc("DELETE "+v1+"/notifications/{id}", auth(notificationHandler.DeleteNotification))

	return logRequests(mux, logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get(client.RequestIDHeader),
			"duration", time.Since(start),
		)
	})
}
