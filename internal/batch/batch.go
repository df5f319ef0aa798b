// Package batch loads backport plans: a list of commits, each with the
// branches it should be ported to.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/backport/internal/errors"
)

// Item is one commit and the branches it goes to.
type Item struct {
	SHA      string   `yaml:"sha"`
	Branches []string `yaml:"branches"`
}

// Plan is an ordered list of backports. Items run sequentially in file order.
type Plan struct {
	Commits []Item `yaml:"commits"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan and validates it. Unknown keys are rejected so that
// typos do not silently drop branches.
func Parse(data []byte) (*Plan, error) {
	var plan Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan yaml: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks that every item names a commit and at least one branch.
func (p *Plan) Validate() error {
	if len(p.Commits) == 0 {
		return errors.NewValidationError("plan contains no commits").WithField("commits")
	}
	for i, item := range p.Commits {
		if strings.TrimSpace(item.SHA) == "" {
			return errors.NewValidationError("commit sha cannot be empty").
				WithField(fmt.Sprintf("commits[%d].sha", i))
		}
		if len(item.Branches) == 0 {
			return errors.NewValidationError("at least one target branch is required").
				WithField(fmt.Sprintf("commits[%d].branches", i)).
				WithValue(item.SHA)
		}
		for j, branch := range item.Branches {
			if strings.TrimSpace(branch) == "" {
				return errors.NewValidationError("target branch cannot be empty").
					WithField(fmt.Sprintf("commits[%d].branches[%d]", i, j))
			}
		}
	}
	return nil
}

// Single builds a plan for one commit.
func Single(sha string, branches []string) *Plan {
	return &Plan{Commits: []Item{{SHA: sha, Branches: branches}}}
}

// Len returns the number of (commit, branch) pairs in the plan.
func (p *Plan) Len() int {
	n := 0
	for _, item := range p.Commits {
		n += len(item.Branches)
	}
	return n
}
