package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// gitignoreContent keeps a project's local submissions and logs out of
// version control while the config file stays tracked.
const gitignoreContent = `# carbonconsult project-local data (auto-generated)
submissions.json
submissions.json.lock
submissions.json.tmp
submissions.db
*.log
`

// GitignoreContent returns the .gitignore written into project directories.
func GitignoreContent() string {
	return gitignoreContent
}

// EnsureGitignore creates a .gitignore file in dir if one does not already
// exist. It reports whether a file was created and never overwrites.
func EnsureGitignore(dir string) (bool, error) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	_, err := os.Stat(gitignorePath)
	if err == nil {
		return false, nil
	}

	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking .gitignore at %s: %w", gitignorePath, err)
	}

	if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, mkdirErr)
	}

	//nolint:gosec // .gitignore must be world-readable (0644).
	if writeErr := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0o644); writeErr != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", gitignorePath, writeErr)
	}

	return true, nil
}

// InitProject creates the .carbonconsult directory under root with a default
// config.yaml and .gitignore. Existing files are kept. It returns the
// project directory.
func InitProject(ctx context.Context, root string) (string, error) {
	dir := toAbsProjectDir(ctx, root)
	cfgPath := filepath.Join(dir, FileName)

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := New()
		cfg.Submission.Path = filepath.Join(dir, "submissions.json")
		if err = cfg.Save(cfgPath); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	if _, err := EnsureGitignore(dir); err != nil {
		return "", err
	}
	return dir, nil
}
