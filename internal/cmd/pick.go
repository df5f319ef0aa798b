package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/backport/internal/backport"
	"github.com/Iron-Ham/backport/internal/batch"
	"github.com/Iron-Ham/backport/internal/config"
	"github.com/Iron-Ham/backport/internal/git"
	"github.com/Iron-Ham/backport/internal/history"
	"github.com/Iron-Ham/backport/internal/logging"
	"github.com/Iron-Ham/backport/internal/pr"
	"github.com/Iron-Ham/backport/internal/prompt"
	"github.com/Iron-Ham/backport/internal/resolve"
)

// logDirName is created inside the repository root.
const logDirName = ".backport"

var pickCmd = &cobra.Command{
	Use:   "pick [sha]",
	Short: "Cherry-pick a commit onto one or more branches",
	Long: `Pick cherry-picks a commit onto each --branch in turn.

Use --file to run a YAML plan instead:

  commits:
    - sha: 1a2b3c4
      branches: [7.x, 6.x]

Conflicts are resolved interactively when stdin is a terminal. With
--no-interactive the command fails on the first conflict and leaves the
branch as it was, unless --commit-conflicts is set.

Branches and plan entries run in order. The first failure stops the run:
the remaining branches and commits are skipped and their count is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPick,
}

var (
	pickBranches        []string
	pickFile            string
	pickInteractive     bool
	pickNoInteractive   bool
	pickEditor          string
	pickCommitConflicts bool
	pickMainline        int
	pickResetAuthor     bool
)

func init() {
	pickCmd.Flags().StringSliceVarP(&pickBranches, "branch", "b", nil, "Target branch (repeatable)")
	pickCmd.Flags().StringVarP(&pickFile, "file", "f", "", "YAML plan of commits and branches")
	pickCmd.Flags().BoolVar(&pickInteractive, "interactive", false, "Always prompt for manual conflict resolution")
	pickCmd.Flags().BoolVar(&pickNoInteractive, "no-interactive", false, "Fail on conflicts instead of prompting")
	pickCmd.Flags().StringVar(&pickEditor, "editor", "", "Editor opened on the repository when conflicts need fixing")
	pickCmd.Flags().BoolVar(&pickCommitConflicts, "commit-conflicts", false, "Commit conflict markers instead of failing (non-interactive only)")
	pickCmd.Flags().IntVar(&pickMainline, "mainline", 0, "Parent number when picking a merge commit")
	pickCmd.Flags().BoolVar(&pickResetAuthor, "reset-author", false, "Attribute commits to the local git identity")
	pickCmd.MarkFlagsMutuallyExclusive("interactive", "no-interactive")
}

// pickFlags are the command-line overrides applied on top of the configuration.
type pickFlags struct {
	interactive     *bool
	editor          *string
	commitConflicts *bool
	mainline        *int
	resetAuthor     *bool
}

func currentPickFlags(cmd *cobra.Command) pickFlags {
	var f pickFlags
	flags := cmd.Flags()
	if flags.Changed("interactive") {
		f.interactive = &pickInteractive
	}
	if flags.Changed("no-interactive") {
		v := !pickNoInteractive
		f.interactive = &v
	}
	if flags.Changed("editor") {
		f.editor = &pickEditor
	}
	if flags.Changed("commit-conflicts") {
		f.commitConflicts = &pickCommitConflicts
	}
	if flags.Changed("mainline") {
		f.mainline = &pickMainline
	}
	if flags.Changed("reset-author") {
		f.resetAuthor = &pickResetAuthor
	}
	return f
}

// buildOptions merges configuration, flags and the terminal state.
func buildOptions(cfg *config.Config, flags pickFlags, isTerminal bool, repoPath, cwd string) backport.Options {
	opts := backport.Options{
		Interactive:     config.ResolveInteractive(cfg.Interactive, isTerminal),
		Editor:          cfg.Editor,
		RepoPath:        repoPath,
		Cwd:             cwd,
		CommitConflicts: cfg.CommitConflicts,
		Mainline:        cfg.Mainline,
		CherryPickRef:   cfg.CherryPickRef,
		ResetAuthor:     cfg.Git.ResetAuthor,
		GitAuthorName:   cfg.Git.AuthorName,
		GitAuthorEmail:  cfg.Git.AuthorEmail,
	}
	if flags.interactive != nil {
		opts.Interactive = *flags.interactive
	}
	if flags.editor != nil {
		opts.Editor = *flags.editor
	}
	if flags.commitConflicts != nil {
		opts.CommitConflicts = *flags.commitConflicts
	}
	if flags.mainline != nil {
		opts.Mainline = *flags.mainline
	}
	if flags.resetAuthor != nil {
		opts.ResetAuthor = *flags.resetAuthor
	}
	return opts
}

// loadPlan builds the plan from either the positional sha or --file.
func loadPlan(args []string, branches []string, file string) (*batch.Plan, error) {
	if file != "" {
		if len(args) > 0 || len(branches) > 0 {
			return nil, fmt.Errorf("--file cannot be combined with a commit or --branch")
		}
		return batch.Load(file)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a commit sha or --file is required")
	}
	plan := batch.Single(args[0], branches)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// buildResolver chains the configured automatic resolvers. It returns nil
// when none are configured.
func buildResolver(cfg config.AutoResolveConfig, repo *git.CLIRepository, logger *logging.Logger) (backport.AutoResolver, error) {
	var chain resolve.Chain
	if len(cfg.Ours) > 0 || len(cfg.Theirs) > 0 {
		globs, err := resolve.NewGlobResolver(repo, cfg.Ours, cfg.Theirs, logger)
		if err != nil {
			return nil, err
		}
		chain = append(chain, globs)
	}
	if cfg.Command != "" {
		command, err := resolve.NewCommandResolver(cfg.Command, repo, nil, logger)
		if err != nil {
			return nil, err
		}
		chain = append(chain, command)
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

func newLogger(cfg config.LoggingConfig, repoPath string) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(filepath.Join(repoPath, logDirName), logging.ParseLevel(cfg.Level), logging.RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	plan, err := loadPlan(args, pickBranches, pickFile)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	executor := git.NewCLICommandExecutor()
	root, err := git.FindRoot(ctx, executor, cwd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging, root)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	repo := git.NewCLIRepositoryWithExecutor(root, executor)
	finder, err := history.Open(root, history.Options{
		MaxCommits:  cfg.Hints.MaxCommits,
		SearchDepth: cfg.Hints.SearchDepth,
	}, logger)
	if err != nil {
		return err
	}

	opts := buildOptions(cfg, currentPickFlags(cmd), term.IsTerminal(int(os.Stdin.Fd())), root, cwd)
	opts.AutoResolver, err = buildResolver(cfg.AutoResolve, repo, logger)
	if err != nil {
		return err
	}

	terminal := prompt.Stdio()
	deps := backport.Dependencies{
		Repository: repo,
		Confirmer:  terminal,
		Editor:     prompt.NewEditor(),
		Printer:    terminal,
		Progress:   terminal,
		Logger:     logger,
	}
	// A zero hint budget turns hints off
	if cfg.Hints.MaxCommits > 0 {
		deps.Hints = finder
	}

	r := &runner{
		repo:         repo,
		commits:      finder,
		orchestrator: backport.NewOrchestrator(deps),
		opts:         opts,
		printer:      terminal,
		logger:       logger,
	}
	if cfg.PRLookup && pr.Available() {
		r.prs = pr.NewLookup(root, executor, logger)
	}
	return r.run(ctx, plan)
}
