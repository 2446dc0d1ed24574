package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/config"
	"github.com/astlibr/loan-service/internal/model"
)

func TestSweeper_untilNext(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		at       string
		interval time.Duration
		want     time.Duration
	}{
		{"midnight anchor", "00:00", 24 * time.Hour, 90 * time.Minute},
		{"anchor later today", "23:00", 24 * time.Hour, 30 * time.Minute},
		{"anchor already passed", "22:00", 24 * time.Hour, 23*time.Hour + 30*time.Minute},
		{"no anchor falls back to interval", "", time.Minute, time.Minute},
		{"garbage anchor falls back to interval", "midnight", time.Hour, time.Hour},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Sweeper{at: tt.at, interval: tt.interval}
			require.Equal(t, tt.want, s.untilNext(now))
		})
	}
}

func TestSweeper_StartStop(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	seedBookAndStudent(repo)
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	repo.loans[1] = &model.Loan{
		ID: 1, LoanUid: uuidLike(1), BookID: 1, MemberID: 10,
		IssueDate: now.AddDate(0, 0, -17), DueDate: now.AddDate(0, 0, -3),
		Status: model.StatusIssued,
	}
	ev := &fakeEvents{}
	svc := newTestService(repo, ev, now)

	sweeper := NewSweeper(svc, config.Loan{
		FinePerDay:    10,
		SweepAt:       "", // interval schedule for the test
		SweepInterval: 10 * time.Millisecond,
	}, zap.NewNop())

	sweeper.Start(context.Background())
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.loans[1].Status == model.StatusOverdue
	}, time.Second, 5*time.Millisecond)
	sweeper.Stop()

	// stopped sweeper must not process anything new
	repo.mu.Lock()
	repo.loans[2] = &model.Loan{
		ID: 2, LoanUid: uuidLike(2), BookID: 1, MemberID: 10,
		IssueDate: now.AddDate(0, 0, -16), DueDate: now.AddDate(0, 0, -2),
		Status: model.StatusIssued,
	}
	repo.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Equal(t, model.StatusIssued, repo.loans[2].Status)
}
