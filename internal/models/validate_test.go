package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCommentInputRejectsBlankContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t "} {
		in := CommentInput{Content: content}
		err := in.Normalize()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("content %q: expected validation error, got %v", content, err)
		}
		if verr.Field != "content" {
			t.Fatalf("expected field 'content', got %q", verr.Field)
		}
	}

	in := CommentInput{Content: "  looks good  "}
	if err := in.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if in.Content != "looks good" {
		t.Fatalf("expected trimmed content, got %q", in.Content)
	}
}

func TestTaskInputDefaultsAndLimits(t *testing.T) {
	in := TaskInput{Title: "  Write spec "}
	if err := in.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if in.Title != "Write spec" {
		t.Fatalf("expected trimmed title, got %q", in.Title)
	}
	if in.Status != StatusTodo {
		t.Fatalf("expected default status todo, got %q", in.Status)
	}

	long := TaskInput{Title: strings.Repeat("x", MaxTitleLength+1)}
	if err := long.Normalize(); err == nil {
		t.Fatalf("expected error for long title")
	}

	bad := TaskInput{Title: "ok", Status: "pending"}
	if err := bad.Normalize(); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestTaskPatchValidatesOnlyPresentFields(t *testing.T) {
	var p TaskPatch
	if !p.Empty() {
		t.Fatalf("expected zero patch to be empty")
	}
	if err := p.Normalize(); err != nil {
		t.Fatalf("normalize empty patch: %v", err)
	}

	blank := "   "
	p.Title = &blank
	if err := p.Normalize(); err == nil {
		t.Fatalf("expected blank title to be rejected")
	}

	done := StatusDone
	p = TaskPatch{Status: &done}
	if err := p.Normalize(); err != nil {
		t.Fatalf("normalize status patch: %v", err)
	}
}

func TestRegistrationNormalize(t *testing.T) {
	r := Registration{Username: "ana", Email: "ana@example.com", Password: "secret123"}
	if err := r.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	r.Email = "not-an-email"
	if err := r.Normalize(); err == nil {
		t.Fatalf("expected invalid email error")
	}
}

func TestTaskPatchDistinguishesNullFromAbsent(t *testing.T) {
	p := TaskPatch{AssignedToID: Null[int64](), Description: Some("notes")}
	body, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"description":"notes","assigned_to_id":null}` {
		t.Fatalf("unexpected body %s", body)
	}
	if p.Empty() {
		t.Fatalf("patch clearing a field is not empty")
	}

	var decoded TaskPatch
	if err := json.Unmarshal([]byte(`{"due_date":null,"assigned_to_id":3}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.DueDate.IsNull() {
		t.Fatalf("expected due date to be cleared, got %+v", decoded.DueDate)
	}
	if got := decoded.AssignedToID.Ptr(); got == nil || *got != 3 {
		t.Fatalf("expected assignee 3, got %+v", decoded.AssignedToID)
	}
	if decoded.Description.Present {
		t.Fatalf("absent description must stay absent")
	}
}
