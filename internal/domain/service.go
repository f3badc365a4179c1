package domain

import (
	"context"
	"strings"
)

// QuestionsService answers the synchronous computational questions.
type QuestionsService struct {
	divisors DivisorFinder
	links    *LinkChecker
}

// NewQuestionsService creates a QuestionsService. divisorWorkers <= 0 uses
// one bucket per CPU.
func NewQuestionsService(links *LinkChecker, divisorWorkers int) *QuestionsService {
	return &QuestionsService{
		divisors: DivisorFinder{Workers: divisorWorkers},
		links:    links,
	}
}

// GetPositiveDivisors returns the divisors of number in ascending order.
func (s *QuestionsService) GetPositiveDivisors(number int) ([]int, error) {
	return s.divisors.Find(number)
}

// CalculateTriangleArea returns the area of a triangle from its sides.
func (s *QuestionsService) CalculateTriangleArea(first, second, third int) (float64, error) {
	return TriangleArea(first, second, third)
}

// GetMostCommonIntegers returns the modes of numbers.
func (s *QuestionsService) GetMostCommonIntegers(numbers []int) ([]int, error) {
	if len(numbers) == 0 {
		return nil, invalid(ErrEmptyNumbers, "Numbers array cannot be null or empty")
	}
	return MostCommonIntegers(numbers), nil
}

// CheckLinks verifies every http(s) anchor in text.
func (s *QuestionsService) CheckLinks(ctx context.Context, text string) []VerifiedLink {
	return s.links.Check(ctx, text)
}

// ArrangeBy groups objects by key.
func (s *QuestionsService) ArrangeBy(key string, items []any) map[string][]map[string]any {
	return ArrangeBy(key, items)
}

// JobService orchestrates background link-check jobs.
type JobService struct {
	repo JobRepository
}

// NewJobService creates a new JobService.
func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// Submit queues text for link checking.
func (s *JobService) Submit(ctx context.Context, text string) (*Job, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return s.repo.Create(ctx, text)
}

// Get retrieves a job by ID.
func (s *JobService) Get(ctx context.Context, id int64) (*Job, error) {
	return s.repo.Get(ctx, id)
}

// GetPending retrieves pending jobs up to the limit.
func (s *JobService) GetPending(ctx context.Context, limit int) ([]Job, error) {
	return s.repo.FindPending(ctx, limit)
}

// MarkProcessing claims a job for processing.
func (s *JobService) MarkProcessing(ctx context.Context, id int64) error {
	return s.repo.Claim(ctx, id)
}

// MarkComplete stores the results of a job and marks it completed.
func (s *JobService) MarkComplete(ctx context.Context, id int64, results []VerifiedLink) error {
	return s.repo.Complete(ctx, id, results)
}

// MarkFailed marks a job as permanently failed.
func (s *JobService) MarkFailed(ctx context.Context, id int64, reason string) error {
	return s.repo.Fail(ctx, id, reason)
}

// MarkRetry marks a job for retry with error info.
func (s *JobService) MarkRetry(ctx context.Context, id int64, reason string) error {
	return s.repo.Retry(ctx, id, reason)
}

// RecoverStale resets stale processing jobs (crash recovery).
func (s *JobService) RecoverStale(ctx context.Context) (int64, error) {
	return s.repo.RecoverStale(ctx)
}
