package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tidy-go/internal/journal"
	"tidy-go/internal/organizer"
	"tidy-go/internal/testutil"
)

// Engine fakes. The service only orchestrates, so the engines can be
// trivial.

type stubScanner struct {
	records []organizer.FileRecord
	err     error
}

func (s *stubScanner) Scan([]string) ([]organizer.FileRecord, error) { return s.records, s.err }

type stubFinder struct{ groups []organizer.DuplicateGroup }

func (s *stubFinder) FindDuplicates([]organizer.FileRecord) []organizer.DuplicateGroup {
	return s.groups
}

type stubGrouper struct{ groups []organizer.VersionGroup }

func (s *stubGrouper) GroupVersions([]organizer.FileRecord) []organizer.VersionGroup {
	return s.groups
}

type stubPlanner struct {
	plan organizer.Plan
	got  map[string]organizer.Category
}

func (s *stubPlanner) BuildPlan(_ []organizer.FileRecord, _ []organizer.DuplicateGroup,
	_ []organizer.VersionGroup, cats map[string]organizer.Category) organizer.Plan {
	s.got = cats
	return s.plan
}

type stubSweeper struct {
	removed []string
	err     error
}

func (s *stubSweeper) Sweep([]string, bool) ([]string, error) { return s.removed, s.err }

type stubCategorizer struct{ cat organizer.Category }

func (s *stubCategorizer) Classify(organizer.FileRecord) (organizer.Category, error) {
	return s.cat, nil
}

// failingJournal wraps the memory journal and fails Append after a number of
// successful writes.
type failingJournal struct {
	*journal.MemoryJournal
	appendsLeft int
}

func (j *failingJournal) Append(op organizer.Operation) error {
	if j.appendsLeft <= 0 {
		return errors.New("disk full")
	}
	j.appendsLeft--
	return j.MemoryJournal.Append(op)
}

type fixture struct {
	service *organizer.Service
	journal organizer.Journal
	fsmgr   *testutil.MockFilesystem
}

func newFixture(t *testing.T, opts ...func(*fixtureConfig)) *fixture {
	t.Helper()
	cfg := &fixtureConfig{
		journal:    journal.NewMemoryJournal(),
		scanner:    &stubScanner{},
		finder:     &stubFinder{},
		grouper:    &stubGrouper{},
		classifier: &stubCategorizer{cat: "Documents"},
		planner:    &stubPlanner{},
		sweeper:    &stubSweeper{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	fsmgr := testutil.NewMockFilesystem()
	svc := organizer.NewService(cfg.scanner, cfg.finder, cfg.grouper, cfg.classifier,
		cfg.planner, cfg.sweeper, cfg.journal, fsmgr, organizer.NewNopLogger(),
		testutil.FixedClock(), testutil.NewStubIDGenerator())
	return &fixture{service: svc, journal: cfg.journal, fsmgr: fsmgr}
}

type fixtureConfig struct {
	journal    organizer.Journal
	scanner    organizer.Scanner
	finder     organizer.DuplicateFinder
	grouper    organizer.VersionGrouper
	classifier organizer.Classifier
	planner    organizer.Planner
	sweeper    organizer.Sweeper
}

func moveOp(seq int, src, dst string) organizer.Operation {
	return organizer.Operation{
		Kind:        organizer.KindMove,
		Seq:         seq,
		Source:      src,
		Destination: dst,
		Reason:      organizer.ReasonCategory,
		Status:      organizer.StatusPlanned,
	}
}

func TestExecute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("live run moves files and journals each", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fsmgr.AddFile("/src/a.txt", 10)
		f.fsmgr.AddFile("/src/b.txt", 20)
		plan := organizer.Plan{
			moveOp(0, "/src/a.txt", "/archive/a.txt"),
			moveOp(1, "/src/b.txt", "/archive/b.txt"),
		}

		result, err := f.service.Execute(ctx, plan, false)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(result.Completed) != 2 || len(result.Failed) != 0 {
			t.Fatalf("result = %+v, want 2 completed", result.Counts())
		}
		if !f.fsmgr.Exists("/archive/a.txt") || f.fsmgr.Exists("/src/a.txt") {
			t.Error("file a was not moved")
		}

		ops, err := f.journal.Operations()
		if err != nil {
			t.Fatalf("Operations() error = %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("journal has %d ops, want 2", len(ops))
		}
		for _, op := range ops {
			if op.Status != organizer.StatusDone {
				t.Errorf("journaled status = %s, want DONE", op.Status)
			}
			if op.ID == "" || op.RunID == "" {
				t.Error("executor must assign operation and run IDs")
			}
		}

		runs, _ := f.journal.Runs(1)
		if len(runs) != 1 || runs[0].Status != "success" {
			t.Errorf("runs = %+v, want one success", runs)
		}
	})

	t.Run("dry run touches nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fsmgr.AddFile("/src/a.txt", 10)
		plan := organizer.Plan{moveOp(0, "/src/a.txt", "/archive/a.txt")}

		result, err := f.service.Execute(ctx, plan, true)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !result.DryRun || len(result.Planned) != 1 {
			t.Fatalf("result = %+v, want dry-run with 1 planned", result)
		}
		if !f.fsmgr.Exists("/src/a.txt") {
			t.Error("dry run must not move files")
		}
		if ops, _ := f.journal.Operations(); len(ops) != 0 {
			t.Errorf("journal has %d ops, want 0 after dry run", len(ops))
		}
		if runs, _ := f.journal.Runs(10); len(runs) != 0 {
			t.Errorf("journal has %d runs, want 0 after dry run", len(runs))
		}
	})

	t.Run("vanished source fails that operation only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fsmgr.AddFile("/src/b.txt", 20)
		plan := organizer.Plan{
			moveOp(0, "/src/vanished.txt", "/archive/vanished.txt"),
			moveOp(1, "/src/b.txt", "/archive/b.txt"),
		}

		result, err := f.service.Execute(ctx, plan, false)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(result.Failed) != 1 || len(result.Completed) != 1 {
			t.Fatalf("counts = %+v, want 1 failed 1 completed", result.Counts())
		}
		runs, _ := f.journal.Runs(1)
		if runs[0].Status != "partial" {
			t.Errorf("run status = %s, want partial", runs[0].Status)
		}
		// Only the successful move is journaled.
		if ops, _ := f.journal.Operations(); len(ops) != 1 {
			t.Errorf("journal has %d ops, want 1", len(ops))
		}
	})

	t.Run("occupied destination is renumbered", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fsmgr.AddFile("/src/a.txt", 10)
		f.fsmgr.AddFile("/archive/a.txt", 99)
		plan := organizer.Plan{moveOp(0, "/src/a.txt", "/archive/a.txt")}

		result, err := f.service.Execute(ctx, plan, false)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(result.Completed) != 1 {
			t.Fatalf("counts = %+v, want 1 completed", result.Counts())
		}
		if !f.fsmgr.Exists("/archive/a_1.txt") {
			t.Errorf("paths = %v, want renumbered a_1.txt", f.fsmgr.Paths())
		}
		if got, _ := f.fsmgr.Stat("/archive/a.txt"); got.Size() != 99 {
			t.Error("existing file must be untouched")
		}
	})

	t.Run("renumbered destination continues the sequence", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fsmgr.AddFile("/src/notes.txt", 10)
		f.fsmgr.AddFile("/archive/notes_1.txt", 99)
		// A destination already carrying a plan-time disambiguator renumbers
		// to the next number, not to a nested notes_1_1.txt.
		plan := organizer.Plan{moveOp(0, "/src/notes.txt", "/archive/notes_1.txt")}

		result, err := f.service.Execute(ctx, plan, false)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(result.Completed) != 1 {
			t.Fatalf("counts = %+v, want 1 completed", result.Counts())
		}
		if !f.fsmgr.Exists("/archive/notes_2.txt") {
			t.Errorf("paths = %v, want notes_2.txt", f.fsmgr.Paths())
		}
	})

	t.Run("journal append failure aborts the run", func(t *testing.T) {
		t.Parallel()
		fj := &failingJournal{MemoryJournal: journal.NewMemoryJournal(), appendsLeft: 1}
		f := newFixture(t, func(c *fixtureConfig) { c.journal = fj })
		for i := 0; i < 3; i++ {
			f.fsmgr.AddFile(fmt.Sprintf("/src/f%d.txt", i), 10)
		}
		var plan organizer.Plan
		for i := 0; i < 3; i++ {
			plan = append(plan, moveOp(i, fmt.Sprintf("/src/f%d.txt", i), fmt.Sprintf("/archive/f%d.txt", i)))
		}

		result, err := f.service.Execute(ctx, plan, false)
		if !errors.Is(err, organizer.ErrJournalWrite) {
			t.Fatalf("error = %v, want ErrJournalWrite", err)
		}
		if len(result.Completed) != 1 {
			t.Errorf("completed = %d, want 1 before the abort", len(result.Completed))
		}
		// The third operation must not have run.
		if !f.fsmgr.Exists("/src/f2.txt") {
			t.Error("operations after a journal failure must not execute")
		}
		runs, _ := fj.Runs(1)
		if runs[0].Status != "aborted" {
			t.Errorf("run status = %s, want aborted", runs[0].Status)
		}
	})

	t.Run("cancellation stops between operations", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fsmgr.AddFile("/src/a.txt", 10)
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := f.service.Execute(cancelled, organizer.Plan{moveOp(0, "/src/a.txt", "/archive/a.txt")}, false)
		if err == nil {
			t.Fatal("Execute() with cancelled context should fail")
		}
		if len(result.Completed) != 0 {
			t.Errorf("completed = %d, want 0", len(result.Completed))
		}
		if !f.fsmgr.Exists("/src/a.txt") {
			t.Error("no move should happen after cancellation")
		}
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// seed executes a two-file run so the journal has something to reverse.
	seed := func(t *testing.T, f *fixture) *organizer.Result {
		t.Helper()
		f.fsmgr.AddFile("/src/a.txt", 10)
		f.fsmgr.AddFile("/src/b.txt", 20)
		plan := organizer.Plan{
			moveOp(0, "/src/a.txt", "/archive/a.txt"),
			moveOp(1, "/src/b.txt", "/archive/b.txt"),
		}
		result, err := f.service.Execute(ctx, plan, false)
		if err != nil {
			t.Fatalf("seeding run: %v", err)
		}
		return result
	}

	t.Run("reverses a run back to original paths", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		run := seed(t, f)

		result, err := f.service.Restore(ctx, run.RunID, false)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Completed) != 2 {
			t.Fatalf("counts = %+v, want 2 completed", result.Counts())
		}
		if !f.fsmgr.Exists("/src/a.txt") || !f.fsmgr.Exists("/src/b.txt") {
			t.Errorf("paths = %v, want originals restored", f.fsmgr.Paths())
		}

		ops, _ := f.journal.OperationsForRun(run.RunID)
		for _, op := range ops {
			if op.Status != organizer.StatusReversed {
				t.Errorf("op %s status = %s, want REVERSED", op.ID, op.Status)
			}
		}
	})

	t.Run("later moves reverse before earlier ones", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		run := seed(t, f)

		result, err := f.service.Restore(ctx, run.RunID, false)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if result.Planned[0].Source != "/src/b.txt" {
			t.Errorf("first planned restore = %s, want the later move", result.Planned[0].Source)
		}
		moves := f.fsmgr.Moves()
		last := moves[len(moves)-1]
		if last.Destination != "/src/a.txt" {
			t.Errorf("last restore = %+v, want the earliest move undone last", last)
		}
	})

	t.Run("occupied original path is skipped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		run := seed(t, f)
		f.fsmgr.AddFile("/src/a.txt", 99) // new file at the original path

		result, err := f.service.Restore(ctx, run.RunID, false)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Skipped) != 1 || len(result.Completed) != 1 {
			t.Fatalf("counts = %+v, want 1 skipped 1 completed", result.Counts())
		}
		if got, _ := f.fsmgr.Stat("/src/a.txt"); got.Size() != 99 {
			t.Error("occupying file must never be overwritten")
		}
		// The blocked entry stays DONE so a later restore can retry it.
		ops, _ := f.journal.OperationsForRun(run.RunID)
		var aStatus organizer.OperationStatus
		for _, op := range ops {
			if op.Source == "/src/a.txt" {
				aStatus = op.Status
			}
		}
		if aStatus != organizer.StatusDone {
			t.Errorf("blocked op status = %s, want DONE", aStatus)
		}
		runs, _ := f.journal.Runs(10)
		for _, run := range runs {
			if run.Mode == "restore" && run.Status != "partial" {
				t.Errorf("restore status = %s, want partial", run.Status)
			}
		}
	})

	t.Run("missing destination is skipped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		run := seed(t, f)
		f.fsmgr.RemoveDir("/archive/b.txt") // simulate external deletion

		result, err := f.service.Restore(ctx, run.RunID, false)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Skipped) != 1 || len(result.Completed) != 1 {
			t.Fatalf("counts = %+v, want 1 skipped 1 completed", result.Counts())
		}
	})

	t.Run("dry run previews without mutating", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		run := seed(t, f)

		result, err := f.service.Restore(ctx, run.RunID, true)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Completed) != 2 {
			t.Fatalf("counts = %+v, want 2 previewed", result.Counts())
		}
		if f.fsmgr.Exists("/src/a.txt") {
			t.Error("dry run must not move files")
		}
		ops, _ := f.journal.OperationsForRun(run.RunID)
		for _, op := range ops {
			if op.Status != organizer.StatusDone {
				t.Errorf("dry run must not mark entries reversed, got %s", op.Status)
			}
		}
	})

	t.Run("empty run id restores everything", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		seed(t, f)

		result, err := f.service.Restore(ctx, "", false)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if len(result.Completed) != 2 {
			t.Fatalf("counts = %+v, want 2 completed", result.Counts())
		}
	})

	t.Run("already reversed entries are not replayed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		run := seed(t, f)
		if _, err := f.service.Restore(ctx, run.RunID, false); err != nil {
			t.Fatalf("first restore: %v", err)
		}

		result, err := f.service.Restore(ctx, run.RunID, false)
		if err != nil {
			t.Fatalf("second restore: %v", err)
		}
		if len(result.Planned) != 0 {
			t.Errorf("second restore planned %d ops, want 0", len(result.Planned))
		}
	})
}

func TestSweepService(t *testing.T) {
	t.Parallel()

	t.Run("live sweep journals removals", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(c *fixtureConfig) {
			c.sweeper = &stubSweeper{removed: []string{"/target/a/b", "/target/a"}}
		})
		result, err := f.service.Sweep([]string{"/target"}, false)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if len(result.Completed) != 2 {
			t.Fatalf("counts = %+v, want 2 completed", result.Counts())
		}
		ops, _ := f.journal.Operations()
		if len(ops) != 2 {
			t.Fatalf("journal has %d ops, want 2", len(ops))
		}
		for _, op := range ops {
			if op.Kind != organizer.KindDeleteEmptyDir {
				t.Errorf("kind = %s, want DELETE_EMPTY_DIR", op.Kind)
			}
		}
		runs, _ := f.journal.Runs(1)
		if runs[0].Mode != "sweep" {
			t.Errorf("run mode = %s, want sweep", runs[0].Mode)
		}
	})

	t.Run("dry sweep journals nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(c *fixtureConfig) {
			c.sweeper = &stubSweeper{removed: []string{"/target/a"}}
		})
		result, err := f.service.Sweep([]string{"/target"}, true)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if len(result.Planned) != 1 || len(result.Completed) != 0 {
			t.Fatalf("counts = %+v, want 1 planned 0 completed", result.Counts())
		}
		if ops, _ := f.journal.Operations(); len(ops) != 0 {
			t.Errorf("journal has %d ops, want 0", len(ops))
		}
	})
}

func TestAnalyzeAndBuildPlan(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	recA := organizer.FileRecord{Path: "/t/a.txt", Size: 5, ModTime: base}
	recB := organizer.FileRecord{Path: "/t/b.txt", Size: 5, ModTime: base}
	recC := organizer.FileRecord{Path: "/t/c_v1.txt", Size: 7, ModTime: base}
	recD := organizer.FileRecord{Path: "/t/c_v2.txt", Size: 8, ModTime: base}

	t.Run("surplus and older versions are not classified", func(t *testing.T) {
		t.Parallel()
		planner := &stubPlanner{}
		f := newFixture(t, func(c *fixtureConfig) {
			c.scanner = &stubScanner{records: []organizer.FileRecord{recA, recB, recC, recD}}
			c.finder = &stubFinder{groups: []organizer.DuplicateGroup{
				{Hash: "h", Size: 5, Keeper: recA, Surplus: []organizer.FileRecord{recB}},
			}}
			c.grouper = &stubGrouper{groups: []organizer.VersionGroup{
				{Key: "c", Ext: ".txt", Candidates: []organizer.VersionCandidate{
					{Record: recC, Number: 1}, {Record: recD, Number: 2},
				}},
			}}
			c.planner = planner
		})

		analysis, err := f.service.Analyze([]string{"/t"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if _, err := f.service.BuildPlan(analysis, true); err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}

		if _, classified := planner.got[recB.Path]; classified {
			t.Error("surplus duplicate must not be classified")
		}
		if _, classified := planner.got[recC.Path]; classified {
			t.Error("older version must not be classified when collapsing")
		}
		for _, p := range []string{recA.Path, recD.Path} {
			if planner.got[p] != "Documents" {
				t.Errorf("%s category = %s, want Documents", p, planner.got[p])
			}
		}
	})

	t.Run("version collapse off classifies old versions too", func(t *testing.T) {
		t.Parallel()
		planner := &stubPlanner{}
		f := newFixture(t, func(c *fixtureConfig) {
			c.scanner = &stubScanner{records: []organizer.FileRecord{recC, recD}}
			c.grouper = &stubGrouper{groups: []organizer.VersionGroup{
				{Key: "c", Ext: ".txt", Candidates: []organizer.VersionCandidate{
					{Record: recC, Number: 1}, {Record: recD, Number: 2},
				}},
			}}
			c.planner = planner
		})
		analysis, err := f.service.Analyze([]string{"/t"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if _, err := f.service.BuildPlan(analysis, false); err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if _, classified := planner.got[recC.Path]; !classified {
			t.Error("old versions should be classified when not collapsing")
		}
	})

	t.Run("scan failure propagates", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(c *fixtureConfig) {
			c.scanner = &stubScanner{err: errors.New("permission denied")}
		})
		if _, err := f.service.Analyze([]string{"/t"}); err == nil {
			t.Fatal("Analyze() should propagate scan errors")
		}
	})
}
