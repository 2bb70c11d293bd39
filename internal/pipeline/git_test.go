package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/everstacklabs/orcatalog/internal/config"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initRepo creates a repository with one commit so HEAD resolves.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("catalog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("initial commit failed: %v", err)
	}
	return dir
}

func publishConfig(repo string) *config.Config {
	return &config.Config{
		Publish: config.PublishConfig{
			RepoPath:    repo,
			Path:        "catalog/or_models.json",
			AuthorName:  "orcatalog",
			AuthorEmail: "orcatalog@example.com",
		},
	}
}

func TestGitPublisherCommitsToBranch(t *testing.T) {
	repo := initRepo(t)
	src := filepath.Join(t.TempDir(), "or_models.json")
	os.WriteFile(src, []byte(`{"models": []}`), 0o644)

	pub := NewGitPublisher(publishConfig(repo))
	pub.now = func() time.Time { return time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC) }

	res, err := pub.Publish(context.Background(), src)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if res.Branch != "orcatalog/20240501-091500" || res.Commit == "" || res.Unchanged {
		t.Errorf("result = %+v", res)
	}
	if res.PRNumber != 0 {
		t.Errorf("PR opened without a token: %+v", res)
	}

	ops, err := OpenRepo(repo, "")
	if err != nil {
		t.Fatal(err)
	}
	branch, err := ops.CurrentBranch()
	if err != nil || branch != res.Branch {
		t.Errorf("checked out %q (%v), want %q", branch, err, res.Branch)
	}

	data, err := os.ReadFile(filepath.Join(repo, "catalog", "or_models.json"))
	if err != nil || string(data) != `{"models": []}` {
		t.Errorf("published file = %q (%v)", data, err)
	}
}

func TestGitPublisherUnchanged(t *testing.T) {
	repo := initRepo(t)
	src := filepath.Join(t.TempDir(), "or_models.json")
	os.WriteFile(src, []byte("same"), 0o644)

	pub := NewGitPublisher(publishConfig(repo))
	tick := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	first, err := pub.Publish(context.Background(), src)
	if err != nil {
		t.Fatalf("first Publish failed: %v", err)
	}
	res, err := pub.Publish(context.Background(), src)
	if err != nil {
		t.Fatalf("second Publish failed: %v", err)
	}
	if !res.Unchanged || res.Commit != "" {
		t.Errorf("result = %+v, want unchanged", res)
	}

	ops, err := OpenRepo(repo, "")
	if err != nil {
		t.Fatal(err)
	}
	if branch, err := ops.CurrentBranch(); err != nil || branch != first.Branch {
		t.Errorf("checked out %q (%v), want %q", branch, err, first.Branch)
	}
	if _, err := ops.repo.Reference(plumbing.NewBranchReferenceName(res.Branch), false); err != plumbing.ErrReferenceNotFound {
		t.Errorf("branch %s still exists (%v)", res.Branch, err)
	}
}

func TestGitPublisherRequiresRepo(t *testing.T) {
	pub := NewGitPublisher(&config.Config{})
	if _, err := pub.Publish(context.Background(), "x"); err == nil {
		t.Error("expected error without publish.repo_path")
	}

	pub = NewGitPublisher(publishConfig(t.TempDir()))
	if _, err := pub.Publish(context.Background(), "x"); err == nil {
		t.Error("expected error for a directory that is not a repository")
	}
}
