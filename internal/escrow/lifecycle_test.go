package escrow

import "testing"

func TestCompletedDerivation(t *testing.T) {
	var flags [MilestoneCount]MilestoneFlags
	if Completed(flags) {
		t.Fatal("empty project should not be completed")
	}

	// 依次放款，只有第四次放款后才判定完成
	for i := 0; i < MilestoneCount; i++ {
		flags[i] = MilestoneFlags{Funded: true, Complete: true, Released: true}
		got := Completed(flags)
		want := i == MilestoneCount-1
		if got != want {
			t.Fatalf("after releasing %d milestones: completed=%v, want %v", i+1, got, want)
		}
	}
}

func TestCompletedIgnoresCompleteFlag(t *testing.T) {
	// 完成确认不等于放款，四个里程碑全部 complete 仍不算项目完成
	var flags [MilestoneCount]MilestoneFlags
	for i := range flags {
		flags[i] = MilestoneFlags{Funded: true, Complete: true}
	}
	if Completed(flags) {
		t.Fatal("completion requires release, not just confirmation")
	}
}

func TestDeriveStatus(t *testing.T) {
	var flags [MilestoneCount]MilestoneFlags
	for i := range flags {
		flags[i].Funded = true
	}

	if s := DeriveStatus(false, flags); s != StatusPending {
		t.Fatalf("unconfirmed project: expected pending, got %s", s)
	}
	if s := DeriveStatus(true, flags); s != StatusActive {
		t.Fatalf("confirmed project: expected active, got %s", s)
	}

	flags[1].Complete = true
	if s := DeriveStatus(true, flags); s != StatusUnderReview {
		t.Fatalf("pending release: expected under_review, got %s", s)
	}

	flags[1].Released = true
	if s := DeriveStatus(true, flags); s != StatusActive {
		t.Fatalf("released milestone with others open: expected active, got %s", s)
	}

	for i := range flags {
		flags[i].Complete = true
		flags[i].Released = true
	}
	if s := DeriveStatus(true, flags); s != StatusCompleted {
		t.Fatalf("all released: expected completed, got %s", s)
	}
}
