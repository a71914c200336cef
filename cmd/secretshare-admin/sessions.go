package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/target/secretshare/internal/adapters/redis"
	"github.com/target/secretshare/internal/bootstrap"
	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/util"
)

type listSessionsOptions struct {
	Email string
	Limit int
}

type revokeSessionsOptions struct {
	Email  string
	DryRun bool
	Yes    bool
}

// sessionLister is the subset of the Redis session store the commands need.
type sessionLister interface {
	Each(ctx context.Context, fn func(domainauth.Session) error) error
	DeleteByEmail(ctx context.Context, email string) (int, error)
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	return withSessionStore(cmdCtx, func(ctx context.Context, store sessionLister) error {
		sessions, total, collectErr := collectSessions(ctx, store, opts)
		if collectErr != nil {
			return collectErr
		}
		return renderSessions(cmdCtx.Stdout, sessions, total, time.Now())
	})
}

func runRevokeSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeSessionsFlags(args, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	return withSessionStore(cmdCtx, func(ctx context.Context, store sessionLister) error {
		return revokeSessions(ctx, cmdCtx, store, opts)
	})
}

func revokeSessions(ctx context.Context, cmdCtx *commandContext, store sessionLister, opts revokeSessionsOptions) error {
	if opts.DryRun {
		sessions, total, err := collectSessions(ctx, store, listSessionsOptions{Email: opts.Email})
		if err != nil {
			return err
		}
		if err := writef(cmdCtx.Stdout, "Dry run: %d session(s) would be revoked for %s.\n", total, opts.Email); err != nil {
			return err
		}
		return renderSessions(cmdCtx.Stdout, sessions, total, time.Now())
	}

	if !opts.Yes {
		if err := confirmAction(cmdCtx, "revoke all sessions", opts.Email); err != nil {
			return err
		}
	}

	n, err := store.DeleteByEmail(ctx, opts.Email)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	cmdCtx.Logger.Info("sessions revoked", "email", opts.Email, "count", n)
	return writef(cmdCtx.Stdout, "Revoked %d session(s) for %s.\n", n, opts.Email)
}

// collectSessions returns matching sessions newest first, capped at opts.Limit, plus the uncapped total.
func collectSessions(ctx context.Context, store sessionLister, opts listSessionsOptions) ([]domainauth.Session, int, error) {
	var out []domainauth.Session
	err := store.Each(ctx, func(sess domainauth.Session) error {
		if opts.Email != "" && sess.Email != opts.Email {
			return nil
		}
		out = append(out, sess)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan sessions: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, total, nil
}

func renderSessions(w io.Writer, sessions []domainauth.Session, total int, now time.Time) error {
	if total == 0 {
		return writeln(w, "No active sessions.")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "EMAIL\tMETHOD\tCREATED\tEXPIRES IN\tSESSION"); err != nil {
		return fmt.Errorf("write sessions header row: %w", err)
	}
	for _, sess := range sessions {
		if err := writef(
			tw,
			"%s\t%s\t%s\t%s\t%s\n",
			sess.Email,
			sess.Method,
			sess.CreatedAt.UTC().Format(time.RFC3339),
			util.FormatRemaining(sess.ExpiresAt, now),
			maskToken(sess.ID),
		); err != nil {
			return fmt.Errorf("write session row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush sessions table: %w", err)
	}

	if len(sessions) < total {
		return writef(w, "\nShowing %d of %d sessions.\n", len(sessions), total)
	}
	return writef(w, "\n%d session(s).\n", total)
}

// maskToken keeps session tokens out of terminal scrollback.
func maskToken(id string) string {
	const visible = 6
	if len(id) <= visible {
		return strings.Repeat("*", len(id))
	}
	return id[:visible] + "..."
}

func withSessionStore(cmdCtx *commandContext, f func(context.Context, sessionLister) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, defaultRedisTimeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer closeRedis(cmdCtx, client)

	store := redisadapter.NewSessionStoreWithOptions(client, redisadapter.SessionStoreOptions{
		Prefix: cmdCtx.Config.Redis.KeyPrefix,
	})
	return f(ctx, store)
}

func closeRedis(cmdCtx *commandContext, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
}

func parseListSessionsFlags(args []string, stderr io.Writer) (listSessionsOptions, error) {
	fs := newFlagSet("list-sessions", stderr)

	opts := listSessionsOptions{}
	fs.StringVar(&opts.Email, "email", "", "Only list sessions for this email")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum number of sessions to print (0 for all)")

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Limit < 0 {
		return listSessionsOptions{}, errors.New("--limit must not be negative")
	}
	return opts, nil
}

func parseRevokeSessionsFlags(args []string, stderr io.Writer) (revokeSessionsOptions, error) {
	fs := newFlagSet("revoke-sessions", stderr)

	opts := revokeSessionsOptions{}
	fs.StringVar(&opts.Email, "email", "", "Email whose sessions are revoked (required)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Show the sessions that would be revoked")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return revokeSessionsOptions{}, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return revokeSessionsOptions{}, errors.New("--email is required")
	}
	return opts, nil
}
