// Package main provides the CLI entrypoint for verbiq.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/supdatta/verbiq/internal/analysis"
	"github.com/supdatta/verbiq/internal/config"
	"github.com/supdatta/verbiq/internal/historyui"
	"github.com/supdatta/verbiq/internal/recorder"
	"github.com/supdatta/verbiq/internal/session"
	"github.com/supdatta/verbiq/internal/store"
	"github.com/supdatta/verbiq/internal/tui"
	"github.com/supdatta/verbiq/pkg/logger"
)

const (
	defaultContext     = "Interview"
	defaultModuleID    = "free-practice"
	defaultModuleTitle = "Free Practice"
	defaultLessonTitle = "Open Mic"
)

var (
	practiceContext string
	practiceModule  string
	practiceTitle   string
	practiceLesson  string
	apiURLFlag      string
	verbose         bool
)

func main() {
	// Optional .env for local development; absence is fine.
	if err := godotenv.Load(); err != nil {
		_ = err
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "verbiq",
		Short:         "Terminal speech coach",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceContext, "context", defaultContext, "practice scenario sent to the analysis backend")
	rootCmd.Flags().StringVar(&practiceModule, "module", defaultModuleID, "module id recorded in history")
	rootCmd.Flags().StringVar(&practiceTitle, "module-title", defaultModuleTitle, "module title recorded in history")
	rootCmd.Flags().StringVar(&practiceLesson, "lesson", defaultLessonTitle, "lesson title recorded in history")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "analysis backend base URL (overrides saved endpoint)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newAPICmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "context", &practiceContext, fileCfg.Practice.Context)
	applyStringConfig(cmd, "module", &practiceModule, fileCfg.Practice.ModuleID)
	applyStringConfig(cmd, "module-title", &practiceTitle, fileCfg.Practice.ModuleTitle)
	applyStringConfig(cmd, "lesson", &practiceLesson, fileCfg.Practice.LessonTitle)

	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	sess, err := session.NewManager(ctx, st, session.DefaultAuthenticator())
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	baseURL, err := resolveBaseURL(ctx, st, env, fileCfg)
	if err != nil {
		return err
	}
	log := logger.New(!verbose)
	client := analysis.New(baseURL, log)
	controller := recorder.NewController(sess, client, recorder.NewMicCapture())

	labels := recorder.Labels{
		Context:     practiceContext,
		ModuleID:    practiceModule,
		ModuleTitle: practiceTitle,
		LessonTitle: practiceLesson,
	}
	model := tui.NewModel(controller, sess, labels, client.BaseURL())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login with a username and password",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeStore(st)

	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(cmd.OutOrStdout(), "Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	ok, err := sess.Login(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if !ok {
		return fmt.Errorf("invalid username or password")
	}
	user := sess.User()
	if user.IsPremium {
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (premium)\n", user.Username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
	}
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and clear the saved session",
		Args:  cobra.NoArgs,
		RunE:  runLogoutCmd,
	}
}

func runLogoutCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := sess.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Browse past practice sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
}

func runHistoryCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeStore(st)

	user := sess.User()
	if user == nil {
		return fmt.Errorf("no history yet: login and complete a practice session first")
	}
	if len(user.History) == 0 {
		return fmt.Errorf("no history yet: complete a practice session first")
	}

	model := historyui.NewModel(user.Username, user.History)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newAPICmd() *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Manage the analysis backend endpoint",
	}
	apiCmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Save the backend base URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runAPISetCmd,
	})
	apiCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Probe the backend endpoint",
		Args:  cobra.NoArgs,
		RunE:  runAPITestCmd,
	})
	return apiCmd
}

func runAPISetCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	normalized := analysis.NormalizeBaseURL(args[0])
	if normalized == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.Set(ctx, store.KeyAPIURL, normalized); err != nil {
		return fmt.Errorf("failed to save endpoint: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API endpoint saved: %s\n", normalized)
	return nil
}

func runAPITestCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	baseURL, err := resolveBaseURL(ctx, st, env, fileCfg)
	if err != nil {
		return err
	}
	log := logger.New(!verbose)
	client := analysis.New(baseURL, log)
	if err := client.TestConnection(ctx); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "OFFLINE  %s\n", client.BaseURL())
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ONLINE   %s\n", client.BaseURL())
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func openStore(env config.Env) (*store.Store, error) {
	path := env.DBPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func openSession(ctx context.Context) (*store.Store, *session.Manager, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(env)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.NewManager(ctx, st, session.DefaultAuthenticator())
	if err != nil {
		closeStore(st)
		return nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return st, sess, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// resolveBaseURL picks the backend endpoint: flag, then environment, then the
// saved setting, then the config file, then the loopback default. The result
// is always normalized.
func resolveBaseURL(ctx context.Context, st *store.Store, env config.Env, fileCfg config.FileConfig) (string, error) {
	if apiURLFlag != "" {
		return analysis.NormalizeBaseURL(apiURLFlag), nil
	}
	if env.APIURL != "" {
		return analysis.NormalizeBaseURL(env.APIURL), nil
	}
	saved, ok, err := st.Get(ctx, store.KeyAPIURL)
	if err != nil {
		return "", fmt.Errorf("failed to read saved endpoint: %w", err)
	}
	if ok && strings.TrimSpace(saved) != "" {
		return analysis.NormalizeBaseURL(saved), nil
	}
	if fileCfg.API.URL != nil && strings.TrimSpace(*fileCfg.API.URL) != "" {
		return analysis.NormalizeBaseURL(*fileCfg.API.URL), nil
	}
	return analysis.DefaultBaseURL, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# verbiq configuration
# Uncomment a value to enable it. CLI flags override config values.

[api]
# url = %q        # Analysis backend base URL

[practice]
# context = %q           # Practice scenario sent with each recording
# module = %q        # Module id recorded in history
# module-title = %q   # Module title recorded in history
# lesson-title = %q        # Lesson title recorded in history
`,
		analysis.DefaultBaseURL,
		defaultContext,
		defaultModuleID,
		defaultModuleTitle,
		defaultLessonTitle,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
