package repo

import (
	"context"
	"testing"
	"time"

	"assetgen/internal/domain"
)

func seedOwnedJobs(t *testing.T, mem *Memory, owner string, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		job := &domain.Job{
			ID:        owner + "-job-" + string(rune('a'+i)),
			OwnerID:   owner,
			Type:      domain.JobTypeImage,
			Operation: domain.OpGenerate,
			Provider:  "gemini",
			Status:    domain.JobStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := mem.Jobs().Create(context.Background(), job); err != nil {
			t.Fatalf("create job: %v", err)
		}
	}
}

func TestListByOwnerPaging(t *testing.T) {
	mem := NewMemory()
	seedOwnedJobs(t, mem, "user-1", 3)
	seedOwnedJobs(t, mem, "user-2", 1)
	ctx := context.Background()

	jobs, total, err := mem.Jobs().ListByOwner(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if total != 3 || len(jobs) != 2 {
		t.Fatalf("total = %d len = %d, want 3 and 2", total, len(jobs))
	}
	if jobs[0].CreatedAt.Before(jobs[1].CreatedAt) {
		t.Fatal("jobs must come back newest first")
	}

	// A page past the end still reports the true total.
	jobs, total, err = mem.Jobs().ListByOwner(ctx, "user-1", 2, 10)
	if err != nil {
		t.Fatalf("ListByOwner past end: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want true total 3 past the last page", total)
	}
	if len(jobs) != 0 {
		t.Fatalf("len = %d, want empty page", len(jobs))
	}
}
