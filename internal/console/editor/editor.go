// Package editor implements the create/edit form for tokens: loading a record
// into a draft, patching it, and submitting one update or a batch of creates.
package editor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"keyring/internal/client"
	"keyring/internal/console/notify"
	"keyring/internal/console/session"
	"keyring/internal/platform/models"
)

// Service is the part of the token API the editor calls.
type Service interface {
	GetToken(ctx context.Context, id int64) (*models.Token, error)
	CreateToken(ctx context.Context, token *models.Token) (*models.Token, error)
	UpdateToken(ctx context.Context, token *models.Token) (*models.Token, error)
	Groups(ctx context.Context) ([]string, error)
	UserModels(ctx context.Context) ([]string, error)
}

const (
	suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	suffixLen      = 6
)

// BatchResult reports which creations went through. Creations before
// FirstError are kept on the server.
type BatchResult struct {
	Created    []*models.Token
	FirstError error
}

func (r BatchResult) Names() []string {
	return lo.Map(r.Created, func(t *models.Token, _ int) string { return t.Name })
}

type Editor struct {
	svc     Service
	session *session.Session
	notify  notify.Notifier

	// OnRefresh and OnClose are called after a successful submit.
	OnRefresh func()
	OnClose   func()

	loc    *time.Location
	now    func() time.Time
	suffix func() string

	editingID int64
	draft     Draft
	open      bool
	loading   bool

	sideMu     sync.Mutex
	groups     []string
	models     []string
	sideWait   *errgroup.Group
	sideCancel context.CancelFunc
}

func New(svc Service, sess *session.Session, n notify.Notifier) *Editor {
	e := &Editor{
		svc:     svc,
		session: sess,
		notify:  n,
		loc:     time.Local,
		now:     time.Now,
		draft:   NewDraft(),
	}
	e.suffix = randomSuffix
	return e
}

// SetLocation sets the zone used to show and parse expiry timestamps.
func (e *Editor) SetLocation(loc *time.Location) {
	e.loc = loc
}

func randomSuffix() string {
	b := make([]byte, suffixLen)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}

func (e *Editor) IsEdit() bool  { return e.editingID != 0 }
func (e *Editor) IsOpen() bool  { return e.open }
func (e *Editor) Loading() bool { return e.loading }

// Draft returns a copy of the current form state.
func (e *Editor) Draft() Draft {
	return e.draft.clone()
}

func (e *Editor) Groups() []string {
	e.sideMu.Lock()
	defer e.sideMu.Unlock()
	return append([]string{}, e.groups...)
}

func (e *Editor) Models() []string {
	e.sideMu.Lock()
	defer e.sideMu.Unlock()
	return append([]string{}, e.models...)
}

func (e *Editor) reset() {
	e.draft = NewDraft()
	if e.IsEdit() {
		e.draft.RemainQuota = 0
	}
	e.draft.Group = e.session.Group()
}

// Open shows the form for tokenID, or for a new token when tokenID is 0.
// Group and model lists load in the background; see WaitSideData.
func (e *Editor) Open(ctx context.Context, tokenID int64) error {
	e.stopSideData()
	e.editingID = tokenID
	e.open = true
	e.reset()
	e.startSideData(ctx)

	if !e.IsEdit() {
		return nil
	}

	e.loading = true
	defer func() { e.loading = false }()

	token, err := e.svc.GetToken(ctx, tokenID)
	if err != nil {
		notify.Err(e.notify, err)
		return err
	}
	e.draft = hydrate(token, e.loc)
	if e.draft.Group == "" {
		e.draft.Group = e.session.Group()
	}
	return nil
}

func (e *Editor) startSideData(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g := new(errgroup.Group)

	if e.session.IsAdmin() {
		g.Go(func() error {
			groups, err := e.svc.Groups(ctx)
			if err != nil {
				e.sideFailed(ctx, err)
				return err
			}
			e.sideMu.Lock()
			e.groups = groups
			e.sideMu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		names, err := e.svc.UserModels(ctx)
		if err != nil {
			e.sideFailed(ctx, err)
			return err
		}
		e.sideMu.Lock()
		e.models = names
		e.sideMu.Unlock()
		return nil
	})

	e.sideMu.Lock()
	e.sideWait = g
	e.sideCancel = cancel
	e.sideMu.Unlock()
}

// sideFailed reports a failed background load unless the form moved on.
func (e *Editor) sideFailed(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	notify.Err(e.notify, err)
}

func (e *Editor) stopSideData() {
	e.sideMu.Lock()
	cancel := e.sideCancel
	e.sideCancel = nil
	e.sideMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// WaitSideData blocks until the background loads started by Open finish.
func (e *Editor) WaitSideData(ctx context.Context) error {
	e.sideMu.Lock()
	g := e.sideWait
	e.sideMu.Unlock()
	if g == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Patch merges values into the draft, keyed by the record's JSON field names.
// Either every value applies or none does.
func (e *Editor) Patch(values map[string]interface{}) error {
	next := e.draft.clone()
	if err := next.apply(values); err != nil {
		return err
	}
	e.draft = next
	return nil
}

// SetExpiry switches the draft to a fixed expiry that far from now. All zero
// means never.
func (e *Editor) SetExpiry(months, days, hours, minutes int) {
	e.draft.ExpiryMode = models.ExpiryModeFixed
	d := time.Duration(months)*30*24*time.Hour +
		time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute
	if d == 0 {
		e.draft.ExpiredAt = Never
		return
	}
	e.draft.ExpiredAt = e.now().Add(d).In(e.loc).Format(TimeLayout)
}

func (e *Editor) ToggleUnlimited() {
	e.draft.UnlimitedQuota = !e.draft.UnlimitedQuota
}

// Cancel closes the form without sending anything.
func (e *Editor) Cancel() {
	e.stopSideData()
	e.open = false
	e.reset()
	if e.OnClose != nil {
		e.OnClose()
	}
}

// Submit sends the draft: one update when editing, otherwise CreateCount
// creations one after another, stopping at the first failure. The draft is
// reset afterwards, except when an update fails: the form stays open with the
// user's edits so a retry sends them again.
func (e *Editor) Submit(ctx context.Context) (BatchResult, error) {
	if !e.open {
		err := client.Invalid("", "the form is not open")
		notify.Err(e.notify, err)
		return BatchResult{}, err
	}

	e.loading = true
	keepDraft := false
	defer func() {
		e.loading = false
		if !keepDraft {
			e.reset()
		}
	}()

	var result BatchResult
	if e.IsEdit() {
		result = e.submitUpdate(ctx)
	} else {
		result = e.submitBatch(ctx)
	}

	if result.FirstError != nil {
		keepDraft = e.IsEdit()
		notify.Err(e.notify, result.FirstError)
		return result, result.FirstError
	}
	if len(result.Created) == 0 {
		return result, nil
	}

	if e.IsEdit() {
		e.notify.Success("Token updated")
	} else {
		e.notify.Success(fmt.Sprintf("%d token(s) created, copy them from the token list", len(result.Created)))
	}
	e.finish()
	return result, nil
}

func (e *Editor) finish() {
	e.stopSideData()
	e.open = false
	if e.OnRefresh != nil {
		e.OnRefresh()
	}
	if e.OnClose != nil {
		e.OnClose()
	}
}

func (e *Editor) submitUpdate(ctx context.Context) BatchResult {
	payload, err := e.draft.payload(e.loc)
	if err != nil {
		return BatchResult{FirstError: err}
	}
	payload.ID = e.editingID

	updated, err := e.svc.UpdateToken(ctx, payload)
	if err != nil {
		return BatchResult{FirstError: err}
	}
	return BatchResult{Created: []*models.Token{updated}}
}

func (e *Editor) submitBatch(ctx context.Context) BatchResult {
	d := e.draft
	if strings.TrimSpace(d.Name) == "" {
		return BatchResult{FirstError: client.Invalid("name", "name is required")}
	}
	base, err := d.payload(e.loc)
	if err != nil {
		return BatchResult{FirstError: err}
	}
	base.BillingEnabled = d.Billing == BillingPerRequest && e.session.Flags().BillingSelectorVisible()

	count := max(d.CreateCount, 1)
	var result BatchResult
	used := make([]string, 0, count)
	for i := 0; i < count; i++ {
		req := *base
		if i > 0 {
			s := e.suffix()
			for lo.Contains(used, s) {
				s = e.suffix()
			}
			used = append(used, s)
			req.Name = d.Name + "-" + s
		}

		created, err := e.svc.CreateToken(ctx, &req)
		if err != nil {
			result.FirstError = err
			break
		}
		result.Created = append(result.Created, created)
	}

	log.Debug().
		Int("requested", count).
		Int("created", len(result.Created)).
		AnErr("first_error", result.FirstError).
		Msg("token batch submitted")
	return result
}
