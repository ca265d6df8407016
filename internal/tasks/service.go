package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// ErrTaskNotFound is returned when an operation names a task that is not in
// the task sheet.
var ErrTaskNotFound = errors.New("task not found")

// Options configures a Service. Zero fields take defaults.
type Options struct {
	Schema   types.Schema     // defaults to types.DefaultSchema()
	Resolver tabular.Resolver // describes references in new rows
	Sequence tabular.Sequence // identifier allocation; defaults to scanning
	Columns  tabular.ColumnOptions
	Now      func() time.Time
	Logger   *zap.Logger
}

// Service reads and writes tasks through a Store.
type Service struct {
	store    types.Store
	appender *tabular.Appender
	schema   types.Schema
	resolver tabular.Resolver
	deriver  *tabular.Deriver
	prepare  tabular.PrepareOptions
	now      func() time.Time
	logger   *zap.Logger
}

// New returns a Service over store.
func New(store types.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	schema := opts.Schema
	if len(schema.Sheets) == 0 {
		schema = types.DefaultSchema()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	appender := tabular.NewAppender(store, logger)
	if opts.Sequence != nil {
		appender.Sequence = opts.Sequence
	}
	resolver := opts.Resolver
	if resolver.Logger == nil {
		resolver.Logger = logger
	}
	return &Service{
		store:    store,
		appender: appender,
		schema:   schema,
		resolver: resolver,
		deriver:  &tabular.Deriver{Now: now},
		prepare:  tabular.PrepareOptions{Columns: opts.Columns, Logger: logger},
		now:      now,
		logger:   logger,
	}
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Load reads and prepares every sheet of the schema.
func (s *Service) Load(ctx context.Context) (map[string]*types.Table, error) {
	return tabular.LoadAll(ctx, s.store, s.schema, s.prepare)
}

// Create validates in, fills the description columns from the reference
// sheets, and appends it with the next CV identifier.
func (s *Service) Create(ctx context.Context, in NewTask) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	sheets, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return s.add(ctx, in.Record(s.today()), sheets)
}

func (s *Service) add(ctx context.Context, rec types.Record, sheets map[string]*types.Table) (string, error) {
	rec = s.resolver.Describe(rec, s.schema.LinksFor(types.SheetTasks), sheets)
	if err := s.ensureHeader(ctx); err != nil {
		return "", err
	}
	id, err := s.appender.Append(ctx, types.SheetTasks, ColumnID, IDPrefix, rec)
	if err != nil {
		return "", err
	}
	s.logger.Info("task created", zap.String("id", id))
	return id, nil
}

// ensureHeader seeds the task sheet with its standard columns when it does
// not exist, so the first row is not stored under a sorted-key header.
func (s *Service) ensureHeader(ctx context.Context) error {
	_, err := s.store.Read(ctx, types.SheetTasks)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrSheetNotFound) {
		return fmt.Errorf("reading %s: %w", types.SheetTasks, err)
	}
	if err := s.store.Write(ctx, types.SheetTasks, types.NewTable(types.SheetTasks, types.TaskColumns...)); err != nil {
		return fmt.Errorf("creating %s: %w", types.SheetTasks, err)
	}
	return nil
}

// SaveExtracted appends tasks proposed by the assistant. Each gets a fresh
// identifier and the in-progress status; dates are stored canonically when
// they parse.
func (s *Service) SaveExtracted(ctx context.Context, recs []types.Record) ([]string, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	sheets, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, in := range recs {
		rec := make(types.Record, len(in)+1)
		for k, v := range in {
			rec[k] = v
		}
		delete(rec, ColumnID)
		for _, col := range []string{ColumnAssigned, ColumnDeadline, ColumnCompleted} {
			if d := tabular.ParseCell(rec.Get(col)); d.IsDate() {
				rec[col] = d
			}
		}
		rec[ColumnStatus] = types.Text(StatusInProgress)
		id, err := s.add(ctx, rec, sheets)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// List returns the prepared task sheet with the derived status column.
func (s *Service) List(ctx context.Context) (*types.Table, error) {
	sheets, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.annotate(sheets), nil
}

func (s *Service) annotate(sheets map[string]*types.Table) *types.Table {
	return s.deriver.Annotate(tabular.Sheet(sheets, types.SheetTasks))
}

// Describe returns t with every reference replaced by its description.
func (s *Service) Describe(t *types.Table, sheets map[string]*types.Table) *types.Table {
	return s.resolver.ResolveLinks(t, s.schema.LinksFor(t.Name), sheets)
}

// Update sets the given cells of task id. Date columns are parsed. When the
// store tracks revisions the write fails with types.ErrStaleRevision if the
// sheet changed after it was read.
func (s *Service) Update(ctx context.Context, id string, changes types.Record) error {
	raw, err := s.store.Read(ctx, types.SheetTasks)
	if errors.Is(err, types.ErrSheetNotFound) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", types.SheetTasks, err)
	}
	t := tabular.Prepare(raw, s.schema, s.prepare)
	row := findTask(t, id)
	if row < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	for col, v := range changes {
		if col == ColumnID {
			continue
		}
		if s.schema.IsDateColumn(col) {
			v = tabular.ParseCell(v)
		}
		t.Set(row, col, v)
	}
	if cw, ok := s.store.(types.ConditionalWriter); ok {
		err = cw.WriteIf(ctx, types.SheetTasks, t, raw.Revision)
	} else {
		err = s.store.Write(ctx, types.SheetTasks, t)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", types.SheetTasks, err)
	}
	s.logger.Info("task updated", zap.String("id", id), zap.Int("fields", len(changes)))
	return nil
}

// Complete marks task id done on the given day.
func (s *Service) Complete(ctx context.Context, id string, on time.Time) error {
	if on.IsZero() {
		on = s.today()
	}
	return s.Update(ctx, id, types.Record{
		ColumnStatus:    types.Text("Hoàn thành"),
		ColumnCompleted: types.Date(on),
	})
}

func findTask(t *types.Table, id string) int {
	for r := range t.Rows {
		if t.Cell(r, ColumnID).String() == id {
			return r
		}
	}
	return -1
}
