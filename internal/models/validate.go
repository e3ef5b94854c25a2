package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return invalid("title", "Title is required")
	}
	if n > MaxTitleLength {
		return invalid("title", fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	}
	return nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		return invalid("description", fmt.Sprintf("Description must be at most %d characters", MaxDescriptionLength))
	}
	return nil
}

// Normalize trims text fields, defaults the status to todo and validates the
// result.
func (in *TaskInput) Normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", in.Status))
	}
	return nil
}

func (p *TaskPatch) Normalize() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if err := validateTitle(t); err != nil {
			return err
		}
		p.Title = &t
	}
	if p.Description.Valid {
		p.Description.Value = strings.TrimSpace(p.Description.Value)
	}
	if err := validateDescription(p.Description.Ptr()); err != nil {
		return err
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", *p.Status))
	}
	return nil
}

func (in *CommentInput) Normalize() error {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return invalid("content", "Comment cannot be empty")
	}
	return nil
}

func (r *Registration) Normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if n := utf8.RuneCountInString(r.Username); n < 3 || n > 50 {
		return invalid("username", "Username must be between 3 and 50 characters")
	}
	if at := strings.Index(r.Email, "@"); at <= 0 || at == len(r.Email)-1 {
		return invalid("email", "Invalid email address")
	}
	if n := len(r.Password); n < 8 || n > 100 {
		return invalid("password", "Password must be between 8 and 100 characters")
	}
	return nil
}
