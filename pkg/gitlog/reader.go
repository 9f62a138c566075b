package gitlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrNotRepository marks paths that are not git repositories.
var ErrNotRepository = errors.New("gitlog: not a git repository")

// ErrFileNotFound marks paths absent from a commit's tree.
var ErrFileNotFound = errors.New("gitlog: file not found at commit")

// HistoryReader provides commit history and point-in-time file contents.
type HistoryReader interface {
	// History returns all commits reachable from HEAD, oldest first,
	// each with per-file line stats against its first parent.
	History(ctx context.Context, repoPath string) ([]Commit, error)

	// FileAt returns the contents of a file as of a given commit.
	FileAt(ctx context.Context, repoPath, commitHash, filePath string) ([]byte, error)
}

// Reader reads history through libgit2. Access to each repository is
// serialized: libgit2 object handles are not safe for concurrent use.
type Reader struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReader returns a libgit2-backed history reader.
func NewReader() *Reader {
	return &Reader{locks: make(map[string]*sync.Mutex)}
}

func (r *Reader) repoLock(repoPath string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[repoPath]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[repoPath] = lock
	}

	return lock
}

// History implements HistoryReader.
func (r *Reader) History(ctx context.Context, repoPath string) ([]Commit, error) {
	lock := r.repoLock(repoPath)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git2go.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRepository, repoPath, err)
	}
	defer repo.Free()

	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}
	defer headRef.Free()

	walk, err := repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}
	defer walk.Free()

	if err := walk.Push(headRef.Target()); err != nil {
		return nil, fmt.Errorf("push HEAD to revwalk: %w", err)
	}

	// Topological order keeps parents ahead of children so first-parent
	// diffs never run against a descendant.
	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	var (
		commits []Commit
		iterErr error
	)

	err = walk.Iterate(func(commit *git2go.Commit) bool {
		defer commit.Free()

		if ctxErr := ctx.Err(); ctxErr != nil {
			iterErr = ctxErr

			return false
		}

		entry, convErr := r.convertCommit(repo, commit)
		if convErr != nil {
			iterErr = convErr

			return false
		}

		commits = append(commits, entry)

		return true
	})
	if err != nil {
		return nil, fmt.Errorf("walk commits: %w", err)
	}

	if iterErr != nil {
		return nil, iterErr
	}

	// Oldest first; hash breaks timestamp ties deterministically.
	sort.SliceStable(commits, func(i, j int) bool {
		if !commits[i].Date.Equal(commits[j].Date) {
			return commits[i].Date.Before(commits[j].Date)
		}

		return commits[i].Hash < commits[j].Hash
	})

	return commits, nil
}

func (r *Reader) convertCommit(repo *git2go.Repository, commit *git2go.Commit) (Commit, error) {
	author := commit.Author()

	entry := Commit{
		Hash:    commit.Id().String(),
		Message: commit.Message(),
	}

	if author != nil {
		entry.Author = author.Name
		entry.Email = author.Email
		entry.Date = author.When
	}

	files, err := r.commitFileChanges(repo, commit)
	if err != nil {
		return Commit{}, err
	}

	entry.Files = files

	return entry, nil
}

// commitFileChanges diffs the commit tree against its first parent and
// counts added and deleted lines per file. Initial commits diff against
// a nil tree, so every line counts as added.
func (r *Reader) commitFileChanges(repo *git2go.Repository, commit *git2go.Commit) ([]FileChange, error) {
	newTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("commit tree: %w", err)
	}
	defer newTree.Free()

	var oldTree *git2go.Tree

	if commit.ParentCount() > 0 {
		parent := commit.Parent(0)
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("parent tree: %w", err)
		}
		defer oldTree.Free()
	}

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("diff options: %w", err)
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer func() { _ = diff.Free() }()

	byPath := make(map[string]*FileChange)

	var order []string

	err = diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		path := delta.NewFile.Path
		if path == "" {
			path = delta.OldFile.Path
		}

		change, ok := byPath[path]
		if !ok {
			change = &FileChange{Path: path}
			byPath[path] = change
			order = append(order, path)
		}

		return func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(line git2go.DiffLine) error {
				switch line.Origin {
				case git2go.DiffLineAddition:
					change.LinesAdded++
				case git2go.DiffLineDeletion:
					change.LinesDeleted++
				}

				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("diff foreach: %w", err)
	}

	files := make([]FileChange, 0, len(order))
	for _, path := range order {
		files = append(files, *byPath[path])
	}

	return files, nil
}

// FileAt implements HistoryReader.
func (r *Reader) FileAt(_ context.Context, repoPath, commitHash, filePath string) ([]byte, error) {
	lock := r.repoLock(repoPath)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git2go.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRepository, repoPath, err)
	}
	defer repo.Free()

	oid, err := git2go.NewOid(commitHash)
	if err != nil {
		return nil, fmt.Errorf("parse commit hash: %w", err)
	}

	commit, err := repo.LookupCommit(oid)
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("commit tree: %w", err)
	}
	defer tree.Free()

	entry, err := tree.EntryByPath(filePath)
	if err != nil || entry == nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrFileNotFound, filePath, commitHash)
	}

	blob, err := repo.LookupBlob(entry.Id)
	if err != nil {
		return nil, fmt.Errorf("lookup blob: %w", err)
	}
	defer blob.Free()

	return blob.Contents(), nil
}
