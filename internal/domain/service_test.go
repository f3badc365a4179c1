package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// mockRepo implements JobRepository for testing.
type mockRepo struct {
	jobs      map[int64]*Job
	nextID    int64
	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{jobs: make(map[int64]*Job), nextID: 1}
}

func (m *mockRepo) Create(ctx context.Context, text string) (*Job, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	job := &Job{
		ID:        m.nextID,
		Text:      text,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.jobs[m.nextID] = job
	m.nextID++
	return job, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (m *mockRepo) FindPending(ctx context.Context, limit int) ([]Job, error) {
	var result []Job
	for _, job := range m.jobs {
		if job.Status == StatusPending {
			result = append(result, *job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (m *mockRepo) Claim(ctx context.Context, id int64) error {
	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusProcessing
	job.Attempts++
	return nil
}

func (m *mockRepo) Complete(ctx context.Context, id int64, results []VerifiedLink) error {
	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusCompleted
	job.Results = results
	return nil
}

func (m *mockRepo) Fail(ctx context.Context, id int64, reason string) error {
	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusFailed
	job.Error = reason
	return nil
}

func (m *mockRepo) Retry(ctx context.Context, id int64, reason string) error {
	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusPending
	job.Error = reason
	return nil
}

func (m *mockRepo) RecoverStale(ctx context.Context) (int64, error) {
	var count int64
	for _, job := range m.jobs {
		if job.Status == StatusProcessing {
			job.Status = StatusPending
			count++
		}
	}
	return count, nil
}

func TestQuestionsService(t *testing.T) {
	prober := newFakeProber()
	prober.statuses["https://broken.com"] = 404
	svc := NewQuestionsService(NewLinkChecker(prober, time.Second, 0), 3)

	divisors, err := svc.GetPositiveDivisors(60)
	if err != nil {
		t.Fatalf("GetPositiveDivisors() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 10, 12, 15, 20, 30, 60}, divisors); diff != "" {
		t.Errorf("GetPositiveDivisors() mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.GetPositiveDivisors(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GetPositiveDivisors(0) error = %v, want %v", err, ErrInvalidArgument)
	}

	if _, err := svc.GetMostCommonIntegers(nil); !errors.Is(err, ErrEmptyNumbers) {
		t.Errorf("GetMostCommonIntegers(nil) error = %v, want %v", err, ErrEmptyNumbers)
	}

	links := svc.CheckLinks(context.Background(),
		`<a href="https://ok.com">ok</a><a href="https://broken.com">broken</a>`)
	want := []VerifiedLink{
		{URL: "https://broken.com", IsValid: false},
		{URL: "https://ok.com", IsValid: true},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("CheckLinks() mismatch (-want +got):\n%s", diff)
	}
}

func TestJobService_Submit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "html text",
			text:    `<a href="https://example.com">x</a>`,
			wantErr: nil,
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: ErrEmptyText,
		},
		{
			name:    "whitespace text",
			text:    " \n ",
			wantErr: ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc := NewJobService(repo)

			job, err := svc.Submit(context.Background(), tt.text)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && job.Text != tt.text {
				t.Errorf("Submit() job.Text = %q, want %q", job.Text, tt.text)
			}
		})
	}
}

func TestJobService_Lifecycle(t *testing.T) {
	repo := newMockRepo()
	svc := NewJobService(repo)
	ctx := context.Background()

	job, _ := svc.Submit(ctx, "<a href='https://example.com'>x</a>")

	if err := svc.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	results := []VerifiedLink{{URL: "https://example.com", IsValid: true}}
	if err := svc.MarkComplete(ctx, job.ID, results); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}

	updated, err := svc.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", updated.Status, StatusCompleted)
	}
	if diff := cmp.Diff(results, updated.Results); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.Get(ctx, 999); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() error = %v, want %v", err, ErrJobNotFound)
	}
}

func TestJobService_MarkRetryAndFail(t *testing.T) {
	repo := newMockRepo()
	svc := NewJobService(repo)
	ctx := context.Background()

	job, _ := svc.Submit(ctx, "text")
	svc.MarkProcessing(ctx, job.ID)

	if err := svc.MarkRetry(ctx, job.ID, "temporary error"); err != nil {
		t.Fatalf("MarkRetry() error = %v", err)
	}
	pending, _ := svc.GetPending(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("GetPending() returned %d jobs, want 1", len(pending))
	}

	svc.MarkProcessing(ctx, job.ID)
	if err := svc.MarkFailed(ctx, job.ID, "store failed"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	updated, _ := svc.Get(ctx, job.ID)
	if updated.Status != StatusFailed || updated.Error != "store failed" {
		t.Errorf("job = %+v, want failed with reason", updated)
	}
}

func TestJobService_RecoverStale(t *testing.T) {
	repo := newMockRepo()
	svc := NewJobService(repo)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, "a")
	svc.Submit(ctx, "b")
	svc.MarkProcessing(ctx, a.ID)

	n, err := svc.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RecoverStale() = %d, want 1", n)
	}
}
