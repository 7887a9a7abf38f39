package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"tidy-go/internal/classify"
	"tidy-go/internal/config"
	"tidy-go/internal/dedupe"
	"tidy-go/internal/encryption"
	"tidy-go/internal/fs"
	"tidy-go/internal/journal"
	"tidy-go/internal/mirror"
	"tidy-go/internal/organizer"
	"tidy-go/internal/planner"
	"tidy-go/internal/scan"
	"tidy-go/internal/sweep"
	"tidy-go/internal/version"
)

// snapshotName is the object name for mirrored journal snapshots, with an
// .age suffix when snapshots are encrypted before upload.
const (
	snapshotName          = "journal.db"
	snapshotNameEncrypted = "journal.db.age"
)

// TidyApp is the application layer between the CLI and the organizer Service.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the journal lifecycle on Close, including the optional mirror
// upload after mutating commands.
type TidyApp struct {
	cfg       *config.Config
	journal   organizer.Journal
	service   *organizer.Service
	fsmgr     organizer.FilesystemManager
	mirror    mirror.Mirror
	encryptor encryption.Encryptor
	logFile   *os.File
	mutated   bool
}

// NewTidyApp creates a fully wired TidyApp from the given config.
// invocation identifies the CLI command being run (e.g. "run", "restore").
// The caller must call Close when done.
func NewTidyApp(cfg *config.Config, invocation string) (*TidyApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, runID+"/"+invocation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	jnl, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	mir, err := mirror.NewMirrorFromConfig(context.Background(), cfg.Mirror)
	if err != nil {
		jnl.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating mirror: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		jnl.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	classifier, err := classify.NewClassifierFromConfig(cfg.Classifier, logger)
	if err != nil {
		jnl.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager()
	excluded := cfg.ExcludedNameSet()

	scanner := scan.New(excluded, cfg.MinFileSize, logger)
	finder := dedupe.New(organizer.KeeperPolicy(cfg.KeeperPolicy), cfg.HashChunkSize, cfg.HashWorkers, logger)
	grouper := version.New()
	pln := planner.New(cfg.ArchiveRoot, granularity(cfg.DateGranularity), fsmgr.Exists)
	sweeper := sweep.New(excluded, fsmgr, logger)

	svc := organizer.NewService(scanner, finder, grouper, classifier, pln, sweeper,
		jnl, fsmgr, logger, organizer.RealClock{}, organizer.UUIDGenerator{})

	return &TidyApp{
		cfg:       cfg,
		journal:   jnl,
		service:   svc,
		fsmgr:     fsmgr,
		mirror:    mir,
		encryptor: enc,
		logFile:   logFile,
	}, nil
}

// granularity maps the config enum onto the planner's layout depth.
func granularity(s string) planner.DateGranularity {
	switch s {
	case "year":
		return planner.GranularityYear
	case "year-month":
		return planner.GranularityMonth
	default:
		return planner.GranularityNone
	}
}

// targets returns the roots to operate on: explicit arguments win, otherwise
// the configured target list.
func (a *TidyApp) targets(roots []string) ([]string, error) {
	if len(roots) > 0 {
		return roots, nil
	}
	if len(a.cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets given and none configured")
	}
	return a.cfg.Targets, nil
}

// Analyze scans the targets and returns the derived analysis.
func (a *TidyApp) Analyze(roots []string) (*organizer.Analysis, error) {
	t, err := a.targets(roots)
	if err != nil {
		return nil, err
	}
	return a.service.Analyze(t)
}

// Plan scans the targets and returns the operation list that a run would
// execute, without touching anything.
func (a *TidyApp) Plan(roots []string) (organizer.Plan, error) {
	analysis, err := a.Analyze(roots)
	if err != nil {
		return nil, err
	}
	return a.service.BuildPlan(analysis, a.cfg.CollapseVersions)
}

// Run scans, plans, and executes in one pass. In dry-run mode nothing is
// moved or journaled.
func (a *TidyApp) Run(ctx context.Context, roots []string, dryRun bool) (*organizer.Result, error) {
	plan, err := a.Plan(roots)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		a.mutated = true
	}
	return a.service.Execute(ctx, plan, dryRun)
}

// Restore reverses journaled moves. An empty runID restores every run.
func (a *TidyApp) Restore(ctx context.Context, runID string, dryRun bool) (*organizer.Result, error) {
	if !dryRun {
		a.mutated = true
	}
	return a.service.Restore(ctx, runID, dryRun)
}

// Sweep removes directories left empty under the targets.
func (a *TidyApp) Sweep(roots []string, dryRun bool) (*organizer.Result, error) {
	t, err := a.targets(roots)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		a.mutated = true
	}
	return a.service.Sweep(t, dryRun)
}

// Encrypted reports whether mirrored snapshots are encrypted.
func (a *TidyApp) Encrypted() bool {
	return a.encryptor != nil && a.encryptor.IsConfigured()
}

// History returns the most recent journaled runs.
func (a *TidyApp) History(limit int) ([]organizer.Run, error) {
	return a.service.History(limit)
}

// SetupKeys generates the encryption key pair protected by the passphrase.
func (a *TidyApp) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is not configured")
	}
	if a.encryptor.IsConfigured() {
		return fmt.Errorf("key pair already exists")
	}
	return a.encryptor.Setup(passphrase)
}

// MirrorPush snapshots the journal and uploads it to the configured mirror.
func (a *TidyApp) MirrorPush(ctx context.Context) (string, error) {
	if a.mirror == nil {
		return "", fmt.Errorf("no mirror configured")
	}
	if err := a.pushSnapshot(ctx); err != nil {
		return "", err
	}
	return a.mirror.Name(), nil
}

// MirrorFetch downloads the mirrored journal snapshot to destPath. When
// snapshots are encrypted, passphrase unlocks the private key for decryption.
func (a *TidyApp) MirrorFetch(ctx context.Context, destPath, passphrase string) error {
	if a.mirror == nil {
		return fmt.Errorf("no mirror configured")
	}

	if a.encryptor == nil || !a.encryptor.IsConfigured() {
		return a.mirror.Fetch(ctx, snapshotName, destPath)
	}

	tmp, err := os.CreateTemp("", "tidy-fetch-*.age")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := a.mirror.Fetch(ctx, snapshotNameEncrypted, tmpPath); err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	in, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening fetched snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	if err := dc.Decrypt(in, out); err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	return nil
}

// pushSnapshot writes a journal snapshot to a temp file, encrypts it when an
// encryptor is configured, and uploads it to the mirror.
func (a *TidyApp) pushSnapshot(ctx context.Context) error {
	tmpFile, err := os.CreateTemp("", "tidy-journal-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file for snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := a.journal.SnapshotTo(tmpPath); err != nil {
		return fmt.Errorf("snapshotting journal: %w", err)
	}

	uploadPath, name := tmpPath, snapshotName
	if a.encryptor != nil && a.encryptor.IsConfigured() {
		encPath, err := a.encryptSnapshot(tmpPath)
		if err != nil {
			return err
		}
		defer os.Remove(encPath)
		uploadPath, name = encPath, snapshotNameEncrypted
	}

	if err := a.mirror.Push(ctx, uploadPath, name); err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	return nil
}

// encryptSnapshot encrypts the snapshot at path into a sibling temp file and
// returns the ciphertext path.
func (a *TidyApp) encryptSnapshot(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp("", "tidy-journal-*.age")
	if err != nil {
		return "", fmt.Errorf("creating temp file for ciphertext: %w", err)
	}
	outPath := out.Name()

	err = a.encryptor.Encrypt(in, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}
	return outPath, nil
}

// Close finalizes the app and releases all resources. After a mutating
// command a configured mirror receives a fresh journal snapshot before the
// journal is closed.
func (a *TidyApp) Close() error {
	var firstErr error

	if a.mutated && a.mirror != nil {
		if err := a.pushSnapshot(context.Background()); err != nil {
			firstErr = fmt.Errorf("mirroring journal: %w", err)
		}
	}

	if err := a.journal.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing journal: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
