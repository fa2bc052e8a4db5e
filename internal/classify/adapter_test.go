package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/sentiment"
)

type fakeBackend struct {
	calls     []string
	classify  func(ctx context.Context, title string) (Result, error)
	callTimes []time.Time
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Classify(ctx context.Context, title, _, _ string) (Result, error) {
	f.calls = append(f.calls, title)
	f.callTimes = append(f.callTimes, time.Now())
	return f.classify(ctx, title)
}

func TestService_Unconfigured(t *testing.T) {
	t.Parallel()
	svc := NewService(nil, sentiment.NewDefault(), Options{}, nil)

	res := svc.Classify(context.Background(), "Acme fraud scandal", "", "https://news.example/acme")
	assert.Equal(t, domain.SentimentNegative, res.Sentiment)
	assert.Equal(t, 0.5, res.Confidence)
	assert.Contains(t, res.Explanation, "local analysis: ")
	assert.Contains(t, res.Explanation, "fraud")

	plain := svc.Classify(context.Background(), "Acme", "", "")
	assert.Equal(t, "local analysis", plain.Explanation)
}

func TestService_BackendSuccess(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{classify: func(context.Context, string) (Result, error) {
		return Result{Sentiment: domain.SentimentPositive, Confidence: 0.9, Explanation: "praised"}, nil
	}}
	svc := NewService(backend, nil, Options{}, nil)

	res := svc.Classify(context.Background(), "Acme fraud", "", "")
	assert.Equal(t, Result{Sentiment: domain.SentimentPositive, Confidence: 0.9, Explanation: "praised"}, res)
}

func TestService_BackendUnparseable(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{classify: func(context.Context, string) (Result, error) {
		return Result{}, fmt.Errorf("%w: not json", ErrUnparseable)
	}}
	svc := NewService(backend, nil, Options{}, nil)

	res := svc.Classify(context.Background(), "Acme fraud", "", "")
	assert.Equal(t, domain.SentimentNegative, res.Sentiment)
	assert.Equal(t, 0.5, res.Confidence)
	assert.Contains(t, res.Explanation, "unreadable")
}

func TestService_BackendErrorAndTimeout(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{classify: func(ctx context.Context, title string) (Result, error) {
		if title == "slow" {
			<-ctx.Done()
			return Result{}, ctx.Err()
		}
		return Result{}, errors.New("503 overloaded")
	}}
	svc := NewService(backend, nil, Options{Timeout: 20 * time.Millisecond}, nil)

	res := svc.Classify(context.Background(), "Acme award", "", "")
	assert.Equal(t, domain.SentimentPositive, res.Sentiment)
	assert.Equal(t, 0.3, res.Confidence)
	assert.Contains(t, res.Explanation, "503 overloaded")

	slow := svc.Classify(context.Background(), "slow", "", "")
	assert.Equal(t, 0.3, slow.Confidence)
	assert.Contains(t, slow.Explanation, context.DeadlineExceeded.Error())
}

func TestService_BatchSequentialWithDelay(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{classify: func(_ context.Context, title string) (Result, error) {
		if title == "broken" {
			return Result{}, errors.New("boom")
		}
		return Result{Sentiment: domain.SentimentNeutral, Confidence: 0.8}, nil
	}}
	delay := 15 * time.Millisecond
	svc := NewService(backend, nil, Options{Delay: delay}, nil)

	items := []domain.RawResult{
		{Position: 4, Title: "first", URL: "https://www.a.example/1"},
		{Position: 9, Title: "broken", URL: "https://b.example/2"},
		{Position: 12, Title: "third", URL: "https://c.example/3", Domain: "c.example"},
	}
	var progress []int
	out := svc.ClassifyBatch(context.Background(), items, func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})

	require.Len(t, out, 3)
	assert.Equal(t, []string{"first", "broken", "third"}, backend.calls)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].Position, out[1].Position, out[2].Position})
	assert.Equal(t, "a.example", out[0].Domain)
	assert.Equal(t, 0.8, out[0].Confidence)
	assert.Equal(t, 0.3, out[1].Confidence, "failed item degrades alone")
	assert.Equal(t, 0.8, out[2].Confidence)

	for i := 1; i < len(backend.callTimes); i++ {
		assert.GreaterOrEqual(t, backend.callTimes[i].Sub(backend.callTimes[i-1]), delay-2*time.Millisecond)
	}
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	res, err := ParseVerdict("```json\n{\"sentiment\": \"Negative\", \"confidence\": 1.7, \"explanation\": \" lawsuit \"}\n```")
	require.NoError(t, err)
	assert.Equal(t, Result{Sentiment: domain.SentimentNegative, Confidence: 1, Explanation: "lawsuit"}, res)

	res, err = ParseVerdict(`{"sentiment":"neutral"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Confidence)

	_, err = ParseVerdict("I think it is positive")
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseVerdict(`{"sentiment":"mixed"}`)
	assert.ErrorIs(t, err, ErrUnparseable)
}
