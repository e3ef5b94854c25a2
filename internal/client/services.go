package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/TWRT/taskdesk/internal/models"
)

type AuthService struct {
	c *Client
}

func NewAuthService(c *Client) *AuthService {
	return &AuthService{c: c}
}

func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.Token, error) {
	var token models.Token
	if err := s.c.Do(ctx, http.MethodPost, LoginEndpoint, creds, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	var user models.User
	if err := s.c.Do(ctx, http.MethodPost, "/auth/register", reg, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type TaskService struct {
	c *Client
}

func NewTaskService(c *Client) *TaskService {
	return &TaskService{c: c}
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}
	endpoint := "/tasks"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var tasks []models.Task
	if err := s.c.Do(ctx, http.MethodGet, endpoint, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	if err := s.c.Do(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	var task models.Task
	if err := s.c.Do(ctx, http.MethodPost, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	if err := s.c.Do(ctx, http.MethodPatch, taskPath(id), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (s *TaskService) AddComment(ctx context.Context, taskID int64, content string) (*models.Comment, error) {
	var comment models.Comment
	body := models.CommentInput{Content: content}
	if err := s.c.Do(ctx, http.MethodPost, taskPath(taskID)+"/comments", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *TaskService) Comments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.c.Do(ctx, http.MethodGet, taskPath(taskID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *TaskService) History(ctx context.Context, taskID int64) ([]models.HistoryEntry, error) {
	var history []models.HistoryEntry
	if err := s.c.Do(ctx, http.MethodGet, taskPath(taskID)+"/history", nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

type UserService struct {
	c *Client
}

func NewUserService(c *Client) *UserService {
	return &UserService{c: c}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.c.Do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

type NotificationService struct {
	c *Client
}

func NewNotificationService(c *Client) *NotificationService {
	return &NotificationService{c: c}
}

func notificationPath(id int64) string {
	return fmt.Sprintf("/notifications/%d", id)
}

func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	endpoint := "/notifications"
	if unreadOnly {
		endpoint += "?unread_only=true"
	}
	var notifications []models.Notification
	if err := s.c.Do(ctx, http.MethodGet, endpoint, nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	var n models.Notification
	if err := s.c.Do(ctx, http.MethodPatch, notificationPath(id), struct{}{}, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (*models.MarkAllReadResult, error) {
	var result models.MarkAllReadResult
	if err := s.c.Do(ctx, http.MethodPost, "/notifications/mark-all-read", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, notificationPath(id), nil, nil)
}
