package guidance

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/naflume/internal/progress"
)

//go:embed bundle.yaml
var bundleYAML []byte

type bundleFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadBundle parses the hand-authored entries compiled into the binary.
func LoadBundle() ([]Entry, error) {
	return parseBundle(bundleYAML)
}

func parseBundle(data []byte) ([]Entry, error) {
	var f bundleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}
	seen := make(map[string]bool, len(f.Entries))
	for _, e := range f.Entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid bundle entry: %w", err)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate bundle entry %s", e.ID)
		}
		seen[e.ID] = true
	}
	return f.Entries, nil
}

// Seed upserts entries into repo. It returns how many were written before
// the first failure.
func Seed(ctx context.Context, repo Repository, entries []Entry, reporter progress.Reporter) (int, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	reporter.Start(len(entries))
	defer reporter.Finish()

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := repo.Upsert(ctx, e); err != nil {
			return i, fmt.Errorf("seeding %s: %w", e.ID, err)
		}
		reporter.Update(i+1, e.ID)
	}
	return len(entries), nil
}
