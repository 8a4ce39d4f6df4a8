// Command pop3check inspects a POP3 mailbox from the command line.
//
// Connection settings come from POP3_HOST, POP3_PORT, POP3_USER and
// POP3_PASS, read from the environment or a .env file, and can be overridden
// with flags.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	pop3 "github.com/BrianLeishman/go-pop3"
	retry "github.com/StirlingMarketingGroup/go-retry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	host    string
	port    int
	user    string
	pass    string
	envFile string
	retries int
	verbose bool
	dump    bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:           "pop3check",
	Short:         "pop3check reads a POP3 mailbox",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(opts.envFile); err != nil {
			return err
		}
		applyEnv(cmd)
		if opts.host == "" || opts.user == "" {
			return errors.New("host and user are required (POP3_HOST, POP3_USER or flags)")
		}
		pop3.Verbose = opts.verbose
		if opts.verbose {
			pop3.SetSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.host, "host", "", "server host (POP3_HOST)")
	f.IntVar(&opts.port, "port", 110, "server port (POP3_PORT)")
	f.StringVar(&opts.user, "user", "", "user name (POP3_USER)")
	f.StringVar(&opts.pass, "pass", "", "password (POP3_PASS)")
	f.StringVar(&opts.envFile, "env-file", ".env", "file to load environment variables from")
	f.IntVar(&opts.retries, "retries", 3, "connection attempts before giving up")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every command and response")
	f.BoolVar(&opts.dump, "dump", false, "dump raw values instead of formatted output")

	rootCmd.AddCommand(statCmd, listCmd, uidlCmd, headersCmd, fetchCmd, deleteCmd)
}

// loadEnv reads path if it exists; variables already set win
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnv fills every flag the user did not set from the environment
func applyEnv(cmd *cobra.Command) {
	flags := cmd.Flags()
	setString := func(flag string, env string, dst *string) {
		if v, ok := os.LookupEnv(env); ok && !flags.Changed(flag) {
			*dst = v
		}
	}
	setString("host", "POP3_HOST", &opts.host)
	setString("user", "POP3_USER", &opts.user)
	setString("pass", "POP3_PASS", &opts.pass)

	if v, ok := os.LookupEnv("POP3_PORT"); ok && !flags.Changed("port") {
		if port, err := strconv.Atoi(v); err == nil {
			opts.port = port
		}
	}
}

// connect logs in, retrying failed attempts
func connect() (*pop3.Session, error) {
	var sess *pop3.Session
	attempt := 0
	err := retry.Retry(func() (err error) {
		attempt++
		sess, err = pop3.Dial(opts.user, opts.pass, opts.host, opts.port)
		return err
	}, opts.retries, func(err error) error {
		fmt.Fprintf(os.Stderr, "connect attempt %d failed: %s\n", attempt, err)
		return nil
	}, func() error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
