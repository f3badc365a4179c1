package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cwygoda/questions/internal/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	text := `<a href="https://example.com">x</a>`

	job, err := repo.Create(ctx, text)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if job.ID == 0 {
		t.Error("Create() job.ID = 0, want non-zero")
	}
	if job.Text != text {
		t.Errorf("Create() job.Text = %q, want %q", job.Text, text)
	}
	if job.Status != domain.StatusPending {
		t.Errorf("Create() job.Status = %q, want %q", job.Status, domain.StatusPending)
	}
	if job.Attempts != 0 {
		t.Errorf("Create() job.Attempts = %d, want 0", job.Attempts)
	}
}

func TestRepository_Get(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, _ := repo.Create(ctx, "text")

	job, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.Text != "text" || job.Status != domain.StatusPending {
		t.Errorf("Get() = %+v", job)
	}
	if job.Results != nil {
		t.Errorf("Get() results = %v, want none", job.Results)
	}

	if _, err := repo.Get(ctx, 999); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestRepository_FindPending(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, _ := repo.Create(ctx, "1")
	second, _ := repo.Create(ctx, "2")
	third, _ := repo.Create(ctx, "3")
	repo.Claim(ctx, second.ID)

	jobs, err := repo.FindPending(ctx, 10)
	if err != nil {
		t.Fatalf("FindPending() error = %v", err)
	}
	var ids []int64
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	if diff := cmp.Diff([]int64{first.ID, third.ID}, ids); diff != "" {
		t.Errorf("FindPending() mismatch (-want +got):\n%s", diff)
	}

	limited, _ := repo.FindPending(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("FindPending(1) returned %d jobs", len(limited))
	}
}

func TestRepository_Claim(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	job, _ := repo.Create(ctx, "text")

	if err := repo.Claim(ctx, job.ID); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	claimed, _ := repo.Get(ctx, job.ID)
	if claimed.Status != domain.StatusProcessing {
		t.Errorf("Status = %q, want %q", claimed.Status, domain.StatusProcessing)
	}
	if claimed.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", claimed.Attempts)
	}

	// A job already being processed cannot be claimed twice.
	if err := repo.Claim(ctx, job.ID); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("second Claim() error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestRepository_Complete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	job, _ := repo.Create(ctx, "text")
	repo.Claim(ctx, job.ID)
	repo.Retry(ctx, job.ID, "transient")
	repo.Claim(ctx, job.ID)

	results := []domain.VerifiedLink{
		{URL: "https://b.com", IsValid: false},
		{URL: "https://a.com", IsValid: true},
	}
	if err := repo.Complete(ctx, job.ID, results); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	done, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if done.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want %q", done.Status, domain.StatusCompleted)
	}
	if done.Error != "" {
		t.Errorf("Error = %q, want cleared", done.Error)
	}
	want := []domain.VerifiedLink{
		{URL: "https://a.com", IsValid: true},
		{URL: "https://b.com", IsValid: false},
	}
	if diff := cmp.Diff(want, done.Results); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}

	// Completing again replaces rather than duplicates results.
	if err := repo.Complete(ctx, job.ID, results[:1]); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	again, _ := repo.Get(ctx, job.ID)
	if len(again.Results) != 1 {
		t.Errorf("Results = %v, want 1 entry", again.Results)
	}

	if err := repo.Complete(ctx, 999, nil); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Complete(999) error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestRepository_FailAndRetry(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	job, _ := repo.Create(ctx, "text")
	repo.Claim(ctx, job.ID)

	if err := repo.Retry(ctx, job.ID, "temporary error"); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	retried, _ := repo.Get(ctx, job.ID)
	if retried.Status != domain.StatusPending || retried.Error != "temporary error" {
		t.Errorf("after Retry() = %+v", retried)
	}

	repo.Claim(ctx, job.ID)
	if err := repo.Fail(ctx, job.ID, "gave up"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	failed, _ := repo.Get(ctx, job.ID)
	if failed.Status != domain.StatusFailed || failed.Error != "gave up" {
		t.Errorf("after Fail() = %+v", failed)
	}
	if failed.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", failed.Attempts)
	}
}

func TestRepository_RecoverStale(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	a, _ := repo.Create(ctx, "a")
	b, _ := repo.Create(ctx, "b")
	repo.Create(ctx, "c")
	repo.Claim(ctx, a.ID)
	repo.Claim(ctx, b.ID)

	n, err := repo.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RecoverStale() = %d, want 2", n)
	}

	recovered, _ := repo.Get(ctx, a.ID)
	if recovered.Status != domain.StatusPending || recovered.Error != "recovered after crash" {
		t.Errorf("recovered job = %+v", recovered)
	}
}
