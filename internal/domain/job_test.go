package domain

import "testing"

func TestTransitionSource(t *testing.T) {
	cases := []struct {
		to       JobStatus
		wantFrom JobStatus
		wantOK   bool
	}{
		{JobStatusProcessing, JobStatusPending, true},
		{JobStatusCompleted, JobStatusProcessing, true},
		{JobStatusFailed, JobStatusProcessing, true},
		{JobStatusPending, "", false},
	}
	for _, tc := range cases {
		from, ok := TransitionSource(tc.to)
		if ok != tc.wantOK {
			t.Fatalf("TransitionSource(%s) ok = %v, want %v", tc.to, ok, tc.wantOK)
		}
		if ok && from != tc.wantFrom {
			t.Fatalf("TransitionSource(%s) = %s, want %s", tc.to, from, tc.wantFrom)
		}
	}
}

func TestTerminal(t *testing.T) {
	if JobStatusPending.Terminal() || JobStatusProcessing.Terminal() {
		t.Fatal("pending and processing are not terminal")
	}
	if !JobStatusCompleted.Terminal() || !JobStatusFailed.Terminal() {
		t.Fatal("completed and failed are terminal")
	}
}

func TestWebhookSubscribed(t *testing.T) {
	hook := Webhook{Events: []string{EventJobCompleted, EventJobFailed}}
	if !hook.Subscribed(EventJobCompleted) {
		t.Fatal("expected subscription to job.completed")
	}
	if hook.Subscribed(EventJobCreated) {
		t.Fatal("not subscribed to job.created")
	}
}
