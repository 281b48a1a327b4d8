package main

import (
	"StudyVault/config"
	"StudyVault/internal/repo"
	"StudyVault/internal/service"
	"StudyVault/utils"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const recountLockKey = "vault:lock:recount"

func main() {
	rootCmd := &cobra.Command{
		Use:           "vaultctl",
		Short:         "StudyVault maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRecountCmd(), newMigrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRecountCmd() *cobra.Command {
	var batchSize int
	var lockTTL time.Duration
	cmd := &cobra.Command{
		Use:   "recount",
		Short: "Rewrite every subject's file count from its active files",
		Long: `Recompute fileCount for every subject.

Counts are normally rewritten after each file transition; this sweep repairs
counts left stale by a failed write. Only one recount runs at a time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecount(cmd.Context(), batchSize, lockTTL)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch", 200, "subjects loaded per batch")
	cmd.Flags().DurationVar(&lockTTL, "lock-ttl", 30*time.Minute, "how long the recount lock is held at most")
	return cmd
}

func runRecount(ctx context.Context, batchSize int, lockTTL time.Duration) error {
	cfg := config.InitConfig()
	utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := repo.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close(db) }()
	rdb, err := repo.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	lock := repo.NewRedisLock(rdb, recountLockKey, lockTTL)
	if err := lock.Lock(ctx); err != nil {
		if errors.Is(err, repo.ErrLockBusy) {
			return errors.New("another recount is running")
		}
		return fmt.Errorf("acquire recount lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(context.Background()); err != nil {
			log.Warn().Err(err).Msg("release recount lock")
		}
	}()

	// Recount never touches blobs, so no object store is wired.
	svc := service.New(repo.New(db), nil, service.Options{
		Cache: utils.NewListCache(utils.NewRedisCache(rdb), cfg.ListCacheTTL),
	})
	start := time.Now()
	visited, err := svc.RecountAll(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("recount after %d subjects: %w", visited, err)
	}
	log.Info().Int("subjects", visited).Dur("took", time.Since(start)).Msg("recount finished")
	fmt.Printf("recounted %d subjects\n", visited)
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.InitConfig()
			utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)
			// Open migrates before returning.
			db, err := repo.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close(db) }()
			fmt.Println("schema up to date")
			return nil
		},
	}
}
