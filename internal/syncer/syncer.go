package syncer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shinji-kodama/notesync/internal/model"
	"github.com/shinji-kodama/notesync/internal/note"
)

// CommentSource supplies the comments of a ticket, newest first.
type CommentSource interface {
	FetchComments(ctx context.Context, ticketID string) ([]model.Comment, error)
}

// UserDirectory resolves a user ID to a display name.
type UserDirectory interface {
	FetchUserDisplayName(ctx context.Context, userID int64) (string, error)
}

// OrderStore finds orders by name and rewrites their note.
type OrderStore interface {
	LookupOrderByName(ctx context.Context, ref model.OrderReference) (model.Order, bool, error)
	WriteOrderNote(ctx context.Context, orderID int64, note string) error
}

// Options configures a Syncer. Comments, Users, and Orders are required.
type Options struct {
	Comments CommentSource
	Users    UserDirectory
	Orders   OrderStore

	// Now supplies the fallback timestamp for unparseable comment times.
	// Defaults to time.Now.
	Now func() time.Time

	// NewRunID generates the per-run correlation ID. Defaults to uuid.NewString.
	NewRunID func() string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Syncer copies the latest internal ticket comment onto an order note.
// It holds no state between runs.
type Syncer struct {
	comments CommentSource
	users    UserDirectory
	orders   OrderStore
	now      func() time.Time
	newRunID func() string
	logger   *slog.Logger
}

// New returns a Syncer over the given collaborators.
func New(opts Options) *Syncer {
	s := &Syncer{
		comments: opts.Comments,
		users:    opts.Users,
		orders:   opts.Orders,
		now:      opts.Now,
		newRunID: opts.NewRunID,
		logger:   opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newRunID == nil {
		s.newRunID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Request selects the ticket to sync and whether to skip the write.
type Request struct {
	TicketID string
	DryRun   bool
}

// Run executes the pipeline for one ticket. On success the returned result
// holds the new note value; in dry-run mode that value was computed but not
// written. Errors come back unchanged from the stage that failed, so callers
// can classify them with model.ExitCodeFor.
func (s *Syncer) Run(ctx context.Context, req Request) (*model.SyncResult, error) {
	result := &model.SyncResult{
		RunID:    s.newRunID(),
		TicketID: req.TicketID,
		DryRun:   req.DryRun,
	}
	log := s.logger.With("run_id", result.RunID, "ticket_id", req.TicketID)
	log.Info("syncing ticket to order note", "dry_run", req.DryRun)

	comments, err := s.comments.FetchComments(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	comment, ok := note.SelectLatestInternal(comments)
	if !ok {
		return nil, &model.NotFoundError{Stage: model.StageInternalComment, Subject: req.TicketID}
	}
	body := strings.TrimSpace(comment.Body)
	if body == "" {
		return nil, model.ErrEmptyContent
	}
	result.CommentID = comment.ID
	log.Debug("selected internal comment", "comment_id", comment.ID, "of", len(comments))

	agentName, err := s.users.FetchUserDisplayName(ctx, comment.AuthorID)
	if err != nil {
		return nil, err
	}
	result.AgentName = agentName
	log.Info("latest private comment", "author", agentName)

	ref, ok := note.ExtractReference(body)
	if !ok {
		return nil, &model.NotFoundError{Stage: model.StageOrderReference}
	}
	result.Reference = ref
	log.Info("detected order reference", "order_name", ref.String())

	order, found, err := s.orders.LookupOrderByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &model.NotFoundError{Stage: model.StageOrder, Subject: ref.String()}
	}
	result.OrderID = order.ID
	result.OrderName = order.Name
	log.Info("found order", "order_id", order.ID)

	block := note.ComposeBlock(req.TicketID, agentName, comment.CreatedAt, body, s.now)
	result.Block = block.String()

	newNote, err := s.Append(ctx, order, block, req.DryRun)
	if err != nil {
		return nil, err
	}
	result.NewNote = newNote
	return result, nil
}

// Append merges block onto the order's current note. Unless dryRun is set,
// the merged note is written back with a single full-field overwrite keyed
// by order.ID. The merged note is returned either way.
//
// The read-modify-write is not guarded: a concurrent writer to the same
// order between lookup and write loses its change.
func (s *Syncer) Append(ctx context.Context, order model.Order, block model.NoteBlock, dryRun bool) (string, error) {
	newNote := note.MergeNote(order.Note, block)
	if dryRun {
		s.logger.Info("dry run: order note not updated", "order_id", order.ID)
		return newNote, nil
	}
	if err := s.orders.WriteOrderNote(ctx, order.ID, newNote); err != nil {
		return "", err
	}
	s.logger.Info("updated order note", "order_id", order.ID, "order_name", order.Name)
	return newNote, nil
}
