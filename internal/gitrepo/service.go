// Package gitrepo keeps the master template's revision history in a local
// git repository, one commit per accepted save.
package gitrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const templateFile = "template.html"

// Revision describes one commit in the template's history.
type Revision struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}

type Service struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Service {
	return &Service{dir: dir}
}

// Ensure initializes the repository with the given template as the first
// commit on main. A repository that already exists is left untouched.
func (s *Service) Ensure(initialHTML, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.dir); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}

	repo, err := git.PlainInit(s.dir, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, templateFile), []byte(initialHTML), 0o644); err != nil {
		return fmt.Errorf("write initial template: %w", err)
	}
	if _, err := worktree.Add(templateFile); err != nil {
		return fmt.Errorf("git add initial template: %w", err)
	}
	hash, err := worktree.Commit("Import template baseline", &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return fmt.Errorf("commit initial template: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// CommitTemplate records a new version of the template. Saving identical
// content returns the head revision without creating a commit.
func (s *Service) CommitTemplate(html, author, message string) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return Revision{}, fmt.Errorf("open repo: %w", err)
	}

	head, headHTML, err := headRevision(repo)
	if err != nil {
		return Revision{}, err
	}
	if headHTML == html {
		return head, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return Revision{}, fmt.Errorf("open worktree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, templateFile), []byte(html), 0o644); err != nil {
		return Revision{}, fmt.Errorf("write template: %w", err)
	}
	if _, err := worktree.Add(templateFile); err != nil {
		return Revision{}, fmt.Errorf("git add template: %w", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return Revision{}, fmt.Errorf("commit template: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return Revision{}, fmt.Errorf("read commit object: %w", err)
	}
	return toRevision(commitObj), nil
}

// Head returns the current template content and its revision.
func (s *Service) Head() (string, Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return "", Revision{}, fmt.Errorf("open repo: %w", err)
	}
	rev, html, err := headRevision(repo)
	if err != nil {
		return "", Revision{}, err
	}
	return html, rev, nil
}

// GetByHash returns the template content at a specific revision. Short
// hashes are resolved.
func (s *Service) GetByHash(hash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	resolved, err := resolveHash(repo, hash)
	if err != nil {
		return "", err
	}
	commitObj, err := repo.CommitObject(resolved)
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", hash, err)
	}
	return readTemplateFromCommit(commitObj)
}

// History lists the most recent revisions, newest first.
func (s *Service) History(limit int) ([]Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Revision, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toRevision(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func headRevision(repo *git.Repository) (Revision, string, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return Revision{}, "", fmt.Errorf("resolve main: %w", err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Revision{}, "", fmt.Errorf("load head commit: %w", err)
	}
	html, err := readTemplateFromCommit(commitObj)
	if err != nil {
		return Revision{}, "", err
	}
	return toRevision(commitObj), html, nil
}

func readTemplateFromCommit(commitObj *object.Commit) (string, error) {
	file, err := commitObj.File(templateFile)
	if err != nil {
		return "", fmt.Errorf("load %s from commit: %w", templateFile, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read template contents: %w", err)
	}
	return contents, nil
}

func toRevision(commitObj *object.Commit) Revision {
	return Revision{
		Hash:    commitObj.Hash.String()[:7],
		Message: commitObj.Message,
		Author:  commitObj.Author.Name,
		When:    commitObj.Author.When,
	}
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.letterforge.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
