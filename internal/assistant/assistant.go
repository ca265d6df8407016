// Package assistant turns free-text messages into task and memory rows with
// a language model, and keeps a log of question and answer exchanges.
//
// The model is an external collaborator: a reply that is not a JSON array
// of objects fails the whole call and nothing is saved.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Model generates a text reply for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assistant errors.
var (
	ErrMalformedReply = errors.New("model reply is not a JSON array of objects")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoAPIKey       = errors.New("no model API key configured")
)

// TaskFields are the task columns the model is asked to fill.
var TaskFields = []string{
	"TEN_VIEC", "NOI_DUNG", "NGUOI_GIAO", "NGUOI_NHAN", "NGAY_GIAO", "HAN_CHOT",
	"IDDV_CV", "IDDA_CV", "IDGT_CV", "IDHD_CV", "IDVB_VAN_BAN", "GHI_CHU_GEMINI",
}

// MemoryFields are the columns of a memory row.
var MemoryFields = []string{
	"LOAI", "THOI_GIAN", "NOI_DUNG", "LAP_LAI", "CHU_KY", "NGAY_TAO",
	"LIEN_QUAN", "TOM_TAT", "NOI_DUNG_DAY_DU", "TRANG_THAI",
}

// Chat log columns.
const (
	ColumnChatID   = "ID_CHAT"
	ColumnAskedAt  = "THOI_GIAN"
	ColumnQuestion = "CAU_HOI"
	ColumnAnswer   = "CAU_TRA_LOI"
	chatPrefix     = "CHAT"
)

const (
	memoryCreated  = "NGAY_TAO"
	memoryKind     = "LOAI"
	askedAtLayout  = "02/01/2006 15:04"
	allMemoryKinds = "Tất cả"
)

// Options configures an Assistant.
type Options struct {
	Sequence tabular.Sequence
	Now      func() time.Time
	Logger   *zap.Logger
}

// Assistant runs prompts against a Model and records results in a Store.
type Assistant struct {
	model    Model
	store    types.Store
	appender *tabular.Appender
	now      func() time.Time
	logger   *zap.Logger
}

// New returns an Assistant.
func New(model Model, store types.Store, opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	appender := tabular.NewAppender(store, logger)
	if opts.Sequence != nil {
		appender.Sequence = opts.Sequence
	}
	return &Assistant{model: model, store: store, appender: appender, now: now, logger: logger}
}

func (a *Assistant) generate(ctx context.Context, prompt string) (string, error) {
	reply, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("model: %w", err)
	}
	a.logger.Debug("model replied", zap.Int("prompt_bytes", len(prompt)), zap.Int("reply_bytes", len(reply)))
	return reply, nil
}

// ExtractTasks asks the model for the tasks described in message. Identifiers
// in the reply refer to rows of sheets.
func (a *Assistant) ExtractTasks(ctx context.Context, message string, sheets map[string]*types.Table) ([]types.Record, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	reply, err := a.generate(ctx, TaskPrompt(BuildContext(sheets), message))
	if err != nil {
		return nil, err
	}
	return ParseRecords(reply, TaskFields)
}

// ExtractMemories asks the model for the reminders, meetings and finished
// work described in message. Every row is stamped with today's date.
func (a *Assistant) ExtractMemories(ctx context.Context, message string, sheets map[string]*types.Table) ([]types.Record, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	reply, err := a.generate(ctx, MemoryPrompt(BuildContext(sheets), message))
	if err != nil {
		return nil, err
	}
	recs, err := ParseRecords(reply, MemoryFields)
	if err != nil {
		return nil, err
	}
	today := types.Text(a.now().Format(types.DisplayDateLayout))
	for _, rec := range recs {
		rec[memoryCreated] = today
	}
	return recs, nil
}

// SaveMemories appends memory rows to the memory sheet.
func (a *Assistant) SaveMemories(ctx context.Context, recs []types.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := ensureSheet(ctx, a.store, types.SheetMemory, MemoryFields); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := a.store.Append(ctx, types.SheetMemory, rec); err != nil {
			return fmt.Errorf("appending to %s: %w", types.SheetMemory, err)
		}
	}
	a.logger.Info("memories saved", zap.Int("count", len(recs)))
	return nil
}

// Memories returns the memory sheet filtered to one kind. An empty kind or
// "Tất cả" returns every row.
func (a *Assistant) Memories(ctx context.Context, kind string) (*types.Table, error) {
	t, err := a.store.Read(ctx, types.SheetMemory)
	if errors.Is(err, types.ErrSheetNotFound) {
		return types.NewTable(types.SheetMemory, MemoryFields...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", types.SheetMemory, err)
	}
	t = tabular.NormalizeColumns(t, tabular.ColumnOptions{})
	kind = strings.TrimSpace(kind)
	if kind == "" || kind == allMemoryKinds {
		return t, nil
	}
	out := types.NewTable(t.Name, t.Columns...)
	for r := range t.Rows {
		if strings.TrimSpace(t.Cell(r, memoryKind).String()) == kind {
			out.Rows = append(out.Rows, t.Rows[r])
		}
	}
	return out, nil
}

// Exchange is one logged question and answer.
type Exchange struct {
	ID       string `json:"id"`
	AskedAt  string `json:"asked_at"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Ask sends question to the model as-is and logs the exchange to the chat
// sheet under the next CHAT identifier.
func (a *Assistant) Ask(ctx context.Context, question string) (Exchange, error) {
	if strings.TrimSpace(question) == "" {
		return Exchange{}, ErrEmptyMessage
	}
	answer, err := a.generate(ctx, question)
	if err != nil {
		return Exchange{}, err
	}
	ex := Exchange{AskedAt: a.now().Format(askedAtLayout), Question: question, Answer: answer}
	if err := ensureSheet(ctx, a.store, types.SheetChat, []string{ColumnChatID, ColumnAskedAt, ColumnQuestion, ColumnAnswer}); err != nil {
		return ex, err
	}
	id, err := a.appender.Append(ctx, types.SheetChat, ColumnChatID, chatPrefix, types.Record{
		ColumnAskedAt:  types.Text(ex.AskedAt),
		ColumnQuestion: types.Text(ex.Question),
		ColumnAnswer:   types.Text(ex.Answer),
	})
	if err != nil {
		return ex, err
	}
	ex.ID = id
	return ex, nil
}

// History returns the most recent logged exchanges, newest first. A limit of
// zero or less returns all of them.
func (a *Assistant) History(ctx context.Context, limit int) ([]Exchange, error) {
	t, err := a.store.Read(ctx, types.SheetChat)
	if errors.Is(err, types.ErrSheetNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", types.SheetChat, err)
	}
	t = tabular.NormalizeColumns(t, tabular.ColumnOptions{})
	var out []Exchange
	for r := t.Len() - 1; r >= 0; r-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, Exchange{
			ID:       t.Cell(r, ColumnChatID).String(),
			AskedAt:  t.Cell(r, ColumnAskedAt).String(),
			Question: t.Cell(r, ColumnQuestion).String(),
			Answer:   t.Cell(r, ColumnAnswer).String(),
		})
	}
	return out, nil
}

func ensureSheet(ctx context.Context, store types.Store, name string, header []string) error {
	_, err := store.Read(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrSheetNotFound) {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := store.Write(ctx, name, types.NewTable(name, header...)); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	return nil
}
