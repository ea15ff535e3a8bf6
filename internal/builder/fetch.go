package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Fetcher приводит директорию с исходниками к закреплённой ревизии.
type Fetcher interface {
	// Ensure возвращает hash коммита, на котором стоит рабочая
	// копия, и признак того, что её содержимое было изменено.
	Ensure(ctx context.Context, dir, url, revision string) (commit string, changed bool, err error)
}

// GitFetcher — Fetcher поверх go-git.
type GitFetcher struct {
	// Progress — куда писать прогресс clone/fetch. nil — os.Stdout.
	Progress io.Writer
}

// NewGitFetcher создаёт GitFetcher с выводом прогресса в stdout.
func NewGitFetcher() *GitFetcher {
	return &GitFetcher{Progress: os.Stdout}
}

// Ensure клонирует репозиторий при отсутствии, обновляет remote refs
// и делает жёсткий checkout на разрешённую ревизию.
func (f *GitFetcher) Ensure(ctx context.Context, dir, url, revision string) (string, bool, error) {
	repo, cloned, err := f.open(ctx, dir, url)
	if err != nil {
		return "", false, err
	}

	if !cloned {
		err := repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: "origin",
			Force:      true,
			Tags:       git.AllTags,
			Progress:   f.Progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return "", false, fmt.Errorf("fetch %s: %w", url, err)
		}
	}

	hash, err := resolve(repo, revision)
	if err != nil {
		return "", false, err
	}

	head, err := repo.Head()
	if err == nil && head.Hash() == hash {
		// Рабочая копия уже на закреплённой ревизии
		return hash.String(), cloned, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", false, fmt.Errorf("worktree %s: %w", dir, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return "", false, fmt.Errorf("checkout %s at %s: %w", dir, revision, err)
	}

	return hash.String(), true, nil
}

// open открывает существующий репозиторий или клонирует новый.
func (f *GitFetcher) open(ctx context.Context, dir, url string) (*git.Repository, bool, error) {
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, false, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, false, fmt.Errorf("open %s: %w", dir, err)
	}

	repo, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Progress: f.Progress,
	})
	if err != nil {
		return nil, false, fmt.Errorf("clone %s: %w", url, err)
	}
	return repo, true, nil
}

// resolve превращает ревизию (ветка, тег или hash) в hash коммита.
// Ветки пробуются и как локальные, и как origin/*.
func resolve(repo *git.Repository, revision string) (plumbing.Hash, error) {
	for _, candidate := range []string{revision, "origin/" + revision} {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err == nil {
			return *hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("revision %q not found", revision)
}
