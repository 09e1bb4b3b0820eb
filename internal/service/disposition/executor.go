package disposition

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/event"
	domainservice "github.com/vertextoedge/audio-dedup/internal/domain/service"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// Config contains executor configuration
type Config struct {
	Preferences domain.Preferences

	// RunID tags the events raised by this run
	RunID string
}

// Executor ranks every duplicate group, reports it and applies the chosen
// action to the non-keepers. Failures are isolated per file.
type Executor struct {
	config     *Config
	fs         port.FileSystem
	describer  *Describer
	ranker     *domainservice.Ranker
	dispatcher event.EventDispatcher
	logger     *zap.Logger
}

// New creates a new Executor. Invalid preferences fall back to their safe
// defaults (report only).
func New(
	cfg *Config,
	fs port.FileSystem,
	describer *Describer,
	dispatcher event.EventDispatcher,
	logger *zap.Logger,
) *Executor {
	if cfg == nil {
		cfg = &Config{Preferences: domain.DefaultPreferences()}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = event.NewNullDispatcher()
	}
	if describer == nil {
		describer = NewDescriber(nil, nil, logger)
	}

	prefs := cfg.Preferences
	if err := prefs.Validate(); err != nil {
		logger.Warn("invalid preferences, using defaults", zap.Error(err))
		prefs = prefs.Normalize()
	}

	return &Executor{
		config:     &Config{Preferences: prefs, RunID: cfg.RunID},
		fs:         fs,
		describer:  describer,
		ranker:     domainservice.NewRanker(prefs),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Rank describes and orders the members of group keeper-first
func (e *Executor) Rank(ctx context.Context, group *domain.DuplicateGroup) domain.RankedGroup {
	files := make([]domain.RankedFile, len(group.Files))
	for i, f := range group.Files {
		files[i] = e.describer.Describe(ctx, f)
	}
	return e.ranker.Rank(group.Kind, files)
}

// Execute processes groups in order. It only returns an error when ctx is
// cancelled; the result then covers the groups handled so far.
func (e *Executor) Execute(ctx context.Context, groups []*domain.DuplicateGroup) (*domain.DispositionResult, error) {
	result := &domain.DispositionResult{}
	prefs := e.config.Preferences

	if len(groups) == 0 {
		e.logger.Info("no duplicates found")
		return result, nil
	}

	e.logger.Info("duplicate groups found",
		zap.Int("groups", len(groups)),
		zap.String("action", prefs.Action.String()))

	if prefs.Action == domain.ActionMove {
		if err := e.fs.EnsureDir(prefs.OutputDir); err != nil {
			// every move below will fail and be recorded individually
			e.logger.Error("failed to create output directory",
				zap.String("dir", prefs.OutputDir),
				zap.Error(err))
		}
	}

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := e.executeGroup(ctx, i+1, group, result); err != nil {
			return result, err
		}
	}

	e.logger.Info("disposition finished",
		zap.Int("groups", result.Groups),
		zap.Int("deleted", result.Deleted),
		zap.Int("moved", result.Moved),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (e *Executor) executeGroup(ctx context.Context, number int, group *domain.DuplicateGroup, result *domain.DispositionResult) error {
	ranked := e.Rank(ctx, group)
	keeper := ranked.Keeper()

	e.logger.Info(fmt.Sprintf("duplicate group %d (%s):", number, ranked.Kind))
	for j, f := range ranked.Files {
		e.logger.Info(FormatMember(j+1, f))
	}

	discards := ranked.Discards()
	paths := make([]string, len(discards))
	for i, d := range discards {
		paths[i] = d.File.Path
	}
	e.dispatch(event.NewGroupResolved(e.config.RunID, number, string(ranked.Kind), keeper.File.Path, paths))

	result.Groups++
	result.Kept++

	for _, d := range discards {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Record(e.dispose(d, keeper))
	}
	return nil
}

// dispose applies the configured action to one non-keeper
func (e *Executor) dispose(d, keeper domain.RankedFile) domain.FileOutcome {
	prefs := e.config.Preferences
	outcome := domain.FileOutcome{Path: d.File.Path, Action: prefs.Action}

	if d.File.Path == keeper.File.Path {
		outcome.Err = domain.ErrKeeperProtected
		return outcome
	}

	size := d.File.Size.Bytes()
	switch prefs.Action {
	case domain.ActionDelete:
		if err := e.fs.DeleteFile(d.File.Path); err != nil {
			outcome.Err = fmt.Errorf("%w: %w", domain.ErrDisposition, err)
			break
		}
		e.dispatch(event.NewFileDeleted(e.config.RunID, d.File.Path, keeper.File.Path, size))

	case domain.ActionMove:
		dest, err := e.fs.MoveFile(d.File.Path, prefs.OutputDir)
		outcome.Destination = dest
		if err != nil {
			outcome.Err = fmt.Errorf("%w: %w", domain.ErrDisposition, err)
			break
		}
		e.dispatch(event.NewFileMoved(e.config.RunID, d.File.Path, dest, keeper.File.Path, size))
	}

	if outcome.Err != nil {
		e.dispatch(event.NewDispositionFailed(e.config.RunID, d.File.Path, prefs.Action.String(), outcome.Err))
	}
	return outcome
}

func (e *Executor) dispatch(ev event.DomainEvent) {
	if err := e.dispatcher.Dispatch(ev); err != nil {
		e.logger.Warn("event handler failed",
			zap.String("event", ev.EventName()),
			zap.Error(err))
	}
}
