package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ecommify/internal/app"
	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
	"ecommify/internal/infra/config"
)

const (
	requestTimeout = 15 * time.Second
	bulkTimeout    = 2 * time.Minute
	maxCards       = 25

	uniquePipelineNoteDelete = "ff_note_delete"
)

// PipelineService is the part of the fulfillment service the bot drives.
type PipelineService interface {
	Push(ctx context.Context, orderID string, extraPayment float64, notes string) (*fulfillment.Record, error)
	Apply(ctx context.Context, id string, action fulfillment.Action) (*fulfillment.Record, fulfillment.Transition, error)
	BulkSendReminders(ctx context.Context, period day.Period) (app.BulkResult, error)
	List(ctx context.Context, f fulfillment.Filter) ([]*fulfillment.Record, error)
	Remove(ctx context.Context, id string) error
	ReminderCheck(ctx context.Context, now time.Time) (app.Digest, error)
	AddNote(ctx context.Context, n *fulfillment.Note) error
	Notes(ctx context.Context, p day.Period) ([]*fulfillment.Note, error)
	DeleteNote(ctx context.Context, id string) error
	Now() time.Time
}

type PipelineHandlers struct {
	ctx     context.Context
	service PipelineService
	labels  *config.Labels
	logger  *logrus.Entry
}

func NewPipelineHandlers(ctx context.Context, svc PipelineService, labels *config.Labels, baseLogger *logrus.Entry) *PipelineHandlers {
	return &PipelineHandlers{
		ctx:     ctx,
		service: svc,
		labels:  labels,
		logger:  baseLogger.WithField("handler_group", "pipeline"),
	}
}

// Register wires the pipeline commands and the action buttons. Every endpoint
// goes through mw.
func (h *PipelineHandlers) Register(b *telebot.Bot, mw telebot.MiddlewareFunc) {
	b.Handle("/pipeline", h.handlePipeline, mw)
	b.Handle("/push", h.handlePush, mw)
	b.Handle("/remove", h.handleRemove, mw)
	b.Handle("/bulk_remind", h.handleBulkRemind, mw)
	b.Handle("/reminder_check", h.handleReminderCheck, mw)
	b.Handle("/pipeline_note", h.handlePipelineNote, mw)
	b.Handle(&telebot.Btn{Unique: uniquePipelineNoteDelete}, h.handleDeletePipelineNote, mw)
	for _, a := range fulfillment.Actions() {
		b.Handle(&telebot.Btn{Unique: callbackUnique(a)}, h.handleAction(a), mw)
	}
}

func (h *PipelineHandlers) request() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, requestTimeout)
}

func (h *PipelineHandlers) handlerLogger(c telebot.Context, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{"handler": handler, "sender_id": c.Sender().ID})
}

func (h *PipelineHandlers) handlePipeline(c telebot.Context) error {
	log := h.handlerLogger(c, "/pipeline")

	period, err := parsePeriodArg(c.Args(), h.service.Now())
	if err != nil {
		return c.Send(userMessage(err))
	}
	ctx, cancel := h.request()
	defer cancel()

	records, err := h.service.List(ctx, fulfillment.Filter{SourceMonth: period})
	if err != nil {
		log.WithError(err).Error("Failed to list pipeline")
		return c.Send(userMessage(err))
	}
	notes, err := h.service.Notes(ctx, period)
	if err != nil {
		log.WithError(err).Error("Failed to list pipeline notes")
		return c.Send(userMessage(err))
	}
	log.WithFields(logrus.Fields{"period": period.String(), "count": len(records), "notes": len(notes)}).Info("Pipeline listed")

	if len(records) == 0 {
		if err := c.Send(fmt.Sprintf("Brak zamowien w realizacji za %s.", period)); err != nil {
			return err
		}
		return h.sendNotes(c, period, notes)
	}
	if err := c.Send(h.summary(period, records)); err != nil {
		return err
	}
	if err := h.sendNotes(c, period, notes); err != nil {
		return err
	}
	for i, rec := range records {
		if i == maxCards {
			return c.Send(fmt.Sprintf("Pokazano %d z %d rekordow.", maxCards, len(records)))
		}
		if err := c.Send(formatRecord(rec, h.labels), actionMarkup(rec, h.labels)); err != nil {
			return err
		}
	}
	return nil
}

func (h *PipelineHandlers) summary(period day.Period, records []*fulfillment.Record) string {
	counts := make(map[fulfillment.Status]int)
	for _, r := range records {
		counts[r.Status]++
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Realizacja %s: %d rekordow\n", period, len(records))
	for _, s := range fulfillment.Stages() {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", h.labels.Stage(s), n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// sendNotes shows the month's notes with a delete button each. Nothing is sent
// when there are none.
func (h *PipelineHandlers) sendNotes(c telebot.Context, period day.Period, notes []*fulfillment.Note) error {
	if len(notes) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Notatki za %s:\n", period)
	m := &telebot.ReplyMarkup{}
	var btns []telebot.Btn
	for _, n := range notes {
		b.WriteString("- " + n.Content)
		if n.CreatedBy != "" {
			b.WriteString(" (" + n.CreatedBy + ")")
		}
		b.WriteByte('\n')
		btns = append(btns, m.Data("Usun notatke: "+truncate(n.Content, 24), uniquePipelineNoteDelete, n.ID))
	}
	m.Inline(m.Split(1, btns)...)
	return c.Send(strings.TrimRight(b.String(), "\n"), m)
}

// handlePipelineNote reads "[YYYY-MM] text..."; without a month the note goes
// on the current one.
func (h *PipelineHandlers) handlePipelineNote(c telebot.Context) error {
	log := h.handlerLogger(c, "/pipeline_note")

	args := c.Args()
	n := &fulfillment.Note{SourceMonth: day.PeriodOf(h.service.Now()), CreatedBy: senderName(c)}
	if len(args) > 1 {
		if p, err := day.ParsePeriod(args[0]); err == nil {
			n.SourceMonth = p
			args = args[1:]
		}
	}
	n.Content = strings.Join(args, " ")

	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.AddNote(ctx, n); err != nil {
		log.WithError(err).Warn("Pipeline note rejected")
		return c.Send(userMessage(err))
	}
	log.WithFields(logrus.Fields{"note_id": n.ID, "period": n.SourceMonth.String()}).Info("Pipeline note added")
	return c.Send(fmt.Sprintf("Dodano notatke do realizacji za %s.", n.SourceMonth))
}

func (h *PipelineHandlers) handleDeletePipelineNote(c telebot.Context) error {
	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.DeleteNote(ctx, c.Callback().Data); err != nil {
		h.handlerLogger(c, uniquePipelineNoteDelete).WithError(err).Warn("Delete failed")
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}
	return c.Respond(&telebot.CallbackResponse{Text: "Notatka usunieta."})
}

func (h *PipelineHandlers) handlePush(c telebot.Context) error {
	log := h.handlerLogger(c, "/push")

	args := c.Args()
	if len(args) < 1 {
		return c.Send("Niepoprawny format. Uzyj: /push <id zamowienia> [doplata] [notatki]")
	}
	orderID := args[0]
	var extra float64
	rest := args[1:]
	if len(rest) > 0 {
		if v, err := strconv.ParseFloat(strings.Replace(rest[0], ",", ".", 1), 64); err == nil {
			extra = v
			rest = rest[1:]
		}
	}
	notes := strings.Join(rest, " ")
	log = log.WithFields(logrus.Fields{"order_id": orderID, "extra_payment": extra})

	ctx, cancel := h.request()
	defer cancel()
	rec, err := h.service.Push(ctx, orderID, extra, notes)
	if err != nil {
		log.WithError(err).Warn("Push rejected")
		return c.Send(userMessage(err))
	}
	log.WithField("record_id", rec.ID).Info("Order pushed")
	return c.Send(formatRecord(rec, h.labels), actionMarkup(rec, h.labels))
}

func (h *PipelineHandlers) handleRemove(c telebot.Context) error {
	log := h.handlerLogger(c, "/remove")

	args := c.Args()
	if len(args) != 1 {
		return c.Send("Niepoprawny format. Uzyj: /remove <id rekordu>")
	}
	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.Remove(ctx, args[0]); err != nil {
		log.WithError(err).WithField("record_id", args[0]).Warn("Remove failed")
		return c.Send(userMessage(err))
	}
	return c.Send("Rekord usuniety, zamowienie wrocilo do statusu nowe.")
}

func (h *PipelineHandlers) handleBulkRemind(c telebot.Context) error {
	log := h.handlerLogger(c, "/bulk_remind")

	period := day.PeriodOf(h.service.Now()).Prev()
	if len(c.Args()) > 0 {
		p, err := day.ParsePeriod(c.Args()[0])
		if err != nil {
			return c.Send(userMessage(err))
		}
		period = p
	}

	ctx, cancel := context.WithTimeout(h.ctx, bulkTimeout)
	defer cancel()
	res, err := h.service.BulkSendReminders(ctx, period)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.WithError(err).WithFields(logrus.Fields{"period": period.String(), "updated": res.Updated}).Warn("Bulk reminder run interrupted")
		return c.Send(fmt.Sprintf("Przerwano przypomnienia za %s: zaktualizowano %d. Uruchom /bulk_remind %s ponownie, aby dokonczyc.",
			period, res.Updated, period))
	}
	if err != nil {
		log.WithError(err).WithField("period", period.String()).Error("Bulk reminder run failed")
		return c.Send(userMessage(err))
	}
	msg := fmt.Sprintf("Przypomnienia za %s: zaktualizowano %d", period, res.Updated)
	if res.Skipped > 0 {
		msg += fmt.Sprintf(", pominieto %d", res.Skipped)
	}
	if res.Failed > 0 {
		msg += fmt.Sprintf(", bledy: %d", res.Failed)
	}
	return c.Send(msg + ".")
}

func (h *PipelineHandlers) handleReminderCheck(c telebot.Context) error {
	ctx, cancel := h.request()
	defer cancel()
	d, err := h.service.ReminderCheck(ctx, h.service.Now())
	if err != nil {
		h.handlerLogger(c, "/reminder_check").WithError(err).Error("Reminder check failed")
		return c.Send(userMessage(err))
	}
	return c.Send(app.FormatDigest(d))
}

// handleAction applies a to the record named in the button payload and
// redraws the card in place.
func (h *PipelineHandlers) handleAction(a fulfillment.Action) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		id := c.Callback().Data
		log := h.handlerLogger(c, callbackUnique(a)).WithField("record_id", id)

		ctx, cancel := h.request()
		defer cancel()
		rec, t, err := h.service.Apply(ctx, id, a)
		if err != nil {
			log.WithError(err).Warn("Action failed")
			return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
		}
		if t.Noop {
			return c.Respond(&telebot.CallbackResponse{Text: "Bez zmian."})
		}
		if err := c.Edit(formatRecord(rec, h.labels), actionMarkup(rec, h.labels)); err != nil {
			log.WithError(err).Warn("Could not redraw record card")
		}
		return c.Respond(&telebot.CallbackResponse{Text: "Etap: " + h.labels.Stage(rec.Status)})
	}
}
