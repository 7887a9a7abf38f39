package organizer

// KeeperPolicy selects which member of a duplicate group stays in place.
type KeeperPolicy string

const (
	KeepOldest       KeeperPolicy = "oldest"
	KeepNewest       KeeperPolicy = "newest"
	KeepShortestPath KeeperPolicy = "shortest-path"
)

// Scanner walks target directories and yields file records. Implementations
// must skip excluded names before descending and must survive per-entry
// errors.
type Scanner interface {
	Scan(roots []string) ([]FileRecord, error)
}

// DuplicateFinder groups records into exact-content duplicate sets.
type DuplicateFinder interface {
	FindDuplicates(records []FileRecord) []DuplicateGroup
}

// VersionGrouper groups records that are successive versions of the same
// document.
type VersionGrouper interface {
	GroupVersions(records []FileRecord) []VersionGroup
}

// Planner combines analysis results into an ordered operation list with
// deterministic target paths.
type Planner interface {
	BuildPlan(records []FileRecord, dups []DuplicateGroup, vers []VersionGroup, cats map[string]Category) Plan
}

// Sweeper removes directories left empty after moves. It reads the live
// filesystem, not the journal.
type Sweeper interface {
	Sweep(roots []string, dryRun bool) ([]string, error)
}

// Service is the orchestration layer that coordinates scanning, analysis,
// planning, execution, restore, and sweeping for the CLI.
type Service struct {
	scanner    Scanner
	finder     DuplicateFinder
	grouper    VersionGrouper
	classifier Classifier
	planner    Planner
	sweeper    Sweeper
	journal    Journal
	fsmgr      FilesystemManager
	logger     Logger
	clock      Clock
	idgen      IDGenerator
}

// NewService creates a Service with the provided dependencies.
func NewService(scanner Scanner, finder DuplicateFinder, grouper VersionGrouper,
	classifier Classifier, planner Planner, sweeper Sweeper, journal Journal,
	fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		scanner:    scanner,
		finder:     finder,
		grouper:    grouper,
		classifier: classifier,
		planner:    planner,
		sweeper:    sweeper,
		journal:    journal,
		fsmgr:      fsmgr,
		logger:     logger,
		clock:      clock,
		idgen:      idgen,
	}
}

// History returns the most recent runs, newest first.
func (s *Service) History(limit int) ([]Run, error) {
	return s.journal.Runs(limit)
}
