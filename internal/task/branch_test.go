package task

import (
	"strings"
	"testing"
)

// TestBranchNameDeterministic ensures the same task always derives the same branch.
func TestBranchNameDeterministic(t *testing.T) {
	t.Parallel()
	item := Task{ID: "4f2a9c1e77b0", Title: "Add login page"}
	first := BranchName(item)
	second := BranchName(item)
	if first != second {
		t.Fatalf("branch derivation not deterministic: %q vs %q", first, second)
	}
	if first != "ai-task-add-login-page-4f2a9c1e" {
		t.Fatalf("branch = %q, want ai-task-add-login-page-4f2a9c1e", first)
	}
}

// TestBranchNameFormat verifies the wire format segments and length ceiling.
func TestBranchNameFormat(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		task Task
		want string
	}{
		{
			name: "short title",
			task: Task{ID: "42", Title: "Fix typo"},
			want: "ai-task-fix-typo-42",
		},
		{
			name: "title truncated at slug width",
			task: Task{ID: "abcdef0123456789", Title: "Refactor the configuration loading subsystem"},
			want: "ai-task-refactor-the-configurati-abcdef01",
		},
		{
			name: "punctuation stripped",
			task: Task{ID: "7", Title: "Retry: logic!!"},
			want: "ai-task-retry-logic-7",
		},
		{
			name: "empty title placeholder",
			task: Task{ID: "99", Title: "  "},
			want: "ai-task-task-99",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := BranchName(tt.task)
			if got != tt.want {
				t.Fatalf("BranchName = %q, want %q", got, tt.want)
			}
			if len(got) > branchMaxLen {
				t.Fatalf("branch %q exceeds ceiling %d", got, branchMaxLen)
			}
			if !strings.HasPrefix(got, branchPrefix+"-") {
				t.Fatalf("branch %q missing prefix %q", got, branchPrefix)
			}
		})
	}
}

// TestBranchNameDistinctTasks ensures distinct tasks derive distinct branches.
func TestBranchNameDistinctTasks(t *testing.T) {
	t.Parallel()
	first := Task{ID: "a1b2c3d4e5", Title: "Add caching layer"}
	second := Task{ID: "f6e5d4c3b2", Title: "Add caching layer"}
	if BranchName(first) == BranchName(second) {
		t.Fatalf("tasks with identical titles but different ids collided: %q", BranchName(first))
	}
}
