// Package row holds the per-token list entry: status switch, billing
// strategy, delete confirmation and clipboard actions.
package row

import (
	"context"

	"keyring/internal/client"
	"keyring/internal/console/clipboard"
	"keyring/internal/console/flags"
	"keyring/internal/console/notify"
	"keyring/internal/platform/models"
)

type Service interface {
	SetTokenStatus(ctx context.Context, id int64, status int) (*models.Token, error)
	UpdateBillingStrategy(ctx context.Context, id int64, enabled bool) (*models.Token, error)
}

// DeleteFunc is supplied by the list that owns the row.
type DeleteFunc func(ctx context.Context, id int64) error

type Row struct {
	svc    Service
	flags  flags.Snapshot
	notify notify.Notifier
	clip   clipboard.Clipboard

	OnDelete DeleteFunc

	record         models.Token
	statusSwitch   int
	billingEnabled bool
	confirmDelete  bool
}

func New(record models.Token, svc Service, snapshot flags.Snapshot, n notify.Notifier, clip clipboard.Clipboard) *Row {
	return &Row{
		svc:            svc,
		flags:          snapshot,
		notify:         n,
		clip:           clip,
		record:         record,
		statusSwitch:   record.Status,
		billingEnabled: record.BillingEnabled,
	}
}

func (r *Row) Record() models.Token   { return r.record }
func (r *Row) StatusSwitch() int      { return r.statusSwitch }
func (r *Row) Enabled() bool          { return r.statusSwitch == models.TokenStatusEnabled }
func (r *Row) BillingEnabled() bool   { return r.billingEnabled }
func (r *Row) DeleteConfirming() bool { return r.confirmDelete }

// BillingSelectorVisible reports whether SetBillingStrategy is offered.
func (r *Row) BillingSelectorVisible() bool {
	return r.flags.BillingSelectorVisible()
}

// ToggleStatus flips between enabled and disabled. Any state other than
// enabled toggles to enabled. The switch only moves when the server agrees.
func (r *Row) ToggleStatus(ctx context.Context) error {
	next := models.TokenStatusEnabled
	if r.statusSwitch == models.TokenStatusEnabled {
		next = models.TokenStatusDisabled
	}

	updated, err := r.svc.SetTokenStatus(ctx, r.record.ID, next)
	if err != nil {
		notify.Err(r.notify, err)
		return err
	}

	r.statusSwitch = next
	if updated != nil {
		r.record = *updated
	}
	return nil
}

// SetBillingStrategy switches between per-token and per-request billing.
// The cached value is taken from the server's reply, never assumed.
func (r *Row) SetBillingStrategy(ctx context.Context, perRequest bool) error {
	if !r.BillingSelectorVisible() {
		err := client.Invalid("billing_enabled", "per-request billing is not available")
		notify.Err(r.notify, err)
		return err
	}

	updated, err := r.svc.UpdateBillingStrategy(ctx, r.record.ID, perRequest)
	if err != nil {
		notify.Err(r.notify, err)
		return err
	}

	if updated != nil {
		r.record = *updated
		r.billingEnabled = updated.BillingEnabled
	} else {
		r.billingEnabled = perRequest
		r.record.BillingEnabled = perRequest
	}
	r.notify.Success("Billing strategy updated")
	return nil
}

func (r *Row) RequestDelete() {
	r.confirmDelete = true
}

func (r *Row) CancelDelete() {
	r.confirmDelete = false
}

// ConfirmDelete runs the owner's delete handler and closes the dialog.
func (r *Row) ConfirmDelete(ctx context.Context) error {
	if !r.confirmDelete {
		return client.Invalid("", "delete was not requested")
	}
	r.confirmDelete = false
	if r.OnDelete == nil {
		return nil
	}
	if err := r.OnDelete(ctx, r.record.ID); err != nil {
		notify.Err(r.notify, err)
		return err
	}
	return nil
}

func (r *Row) CopyName() error {
	return r.copy(r.record.Name)
}

// CopySecret copies the key in the form clients send it.
func (r *Row) CopySecret() error {
	return r.copy(Secret(r.record))
}

func (r *Row) copy(text string) error {
	if err := r.clip.WriteAll(text); err != nil {
		r.notify.Error("Copy failed, copy it manually: " + text)
		return &client.TransportError{Op: "clipboard write", Err: err}
	}
	r.notify.Success("Copied to clipboard")
	return nil
}

// Secret is the presented form of a token key.
func Secret(t models.Token) string {
	return "sk-" + t.Key
}

// GroupVisible reports whether the group column is shown for this session.
func (r *Row) GroupVisible() bool {
	return r.flags.UserGroupEnabled
}

func (r *Row) GroupText() string {
	return GroupText(r.record)
}

// Tooltip describes the true server status behind the binary switch.
func (r *Row) Tooltip() string {
	return StatusText(r.record.Status)
}
