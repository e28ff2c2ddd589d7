package shared

import (
	"net/http/httptest"
	"testing"
)

func TestValidatorRequired(t *testing.T) {
	validator := NewValidator()
	validator.Required("employee_id", "  ", "employee_id is required")
	validator.Required("details", "some text", "details is required")

	issues := validator.Issues()
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %+v", issues)
	}
	if issues[0].Field != "employee_id" {
		t.Fatalf("got %+v", issues[0])
	}
}

func TestValidatorEnum(t *testing.T) {
	validator := NewValidator()
	validator.Enum("status", "Pending", []string{"pending", "approved"}, "invalid status")
	if validator.HasIssues() {
		t.Fatalf("case-insensitive match must pass, got %+v", validator.Issues())
	}

	validator.Enum("status", "done", []string{"pending", "approved"}, "invalid status")
	if !validator.HasIssues() {
		t.Fatal("unknown value must be rejected")
	}

	// Empty values are the caller's Required concern, not the enum's.
	validator = NewValidator()
	validator.Enum("status", "", []string{"pending"}, "invalid status")
	if validator.HasIssues() {
		t.Fatalf("empty value must pass enum check, got %+v", validator.Issues())
	}
}

func TestValidatorFileUpload(t *testing.T) {
	validator := NewValidator()
	validator.FileUpload("file", "scan.PDF", 1024, 2048)
	if validator.HasIssues() {
		t.Fatalf("allowed extension must pass, got %+v", validator.Issues())
	}

	validator = NewValidator()
	validator.FileUpload("file", "script.exe", 1024, 2048)
	if !validator.HasIssues() {
		t.Fatal("disallowed extension must be rejected")
	}

	validator = NewValidator()
	validator.FileUpload("file", "scan.pdf", 4096, 2048)
	if !validator.HasIssues() {
		t.Fatal("oversized file must be rejected")
	}
}

func TestValidatorIssuesSorted(t *testing.T) {
	validator := NewValidator()
	validator.Add("zeta", "bad")
	validator.Add("alpha", "bad")
	validator.Add("alpha", "also bad")

	issues := validator.Issues()
	if len(issues) != 3 {
		t.Fatalf("got %+v", issues)
	}
	if issues[0].Field != "alpha" || issues[0].Reason != "also bad" || issues[2].Field != "zeta" {
		t.Fatalf("issues not sorted: %+v", issues)
	}
}

func TestParsePagination(t *testing.T) {
	request := httptest.NewRequest("GET", "/?limit=1000&offset=-5", nil)
	page := ParsePagination(request, 50, 200)
	if page.Limit != 200 || page.Offset != 0 {
		t.Fatalf("got %+v", page)
	}

	request = httptest.NewRequest("GET", "/", nil)
	page = ParsePagination(request, 50, 200)
	if page.Limit != 50 || page.Offset != 0 {
		t.Fatalf("defaults not applied: %+v", page)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("1990-05-01"); err != nil {
		t.Fatalf("date-only must parse: %v", err)
	}
	if _, err := ParseDate("1990-05-01T00:00:00Z"); err != nil {
		t.Fatalf("RFC3339 must parse: %v", err)
	}
	if _, err := ParseDate("01/05/1990"); err == nil {
		t.Fatal("unknown format must fail")
	}
}
