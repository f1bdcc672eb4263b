// Package admin implements the lead triage console behind the session gate.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/internal/observability/metrics"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

// LoadFailedMessage is shown when the list cannot be loaded.
const LoadFailedMessage = "Failed to load submissions"

// ErrLoadFailed wraps any store error hit while loading the list.
var ErrLoadFailed = errors.New("admin: failed to load submissions")

// Console is the operator view-model over the lead store: the loaded page,
// its filter, the open detail and the last error.
type Console struct {
	repo    leads.Repository
	logger  *logging.Logger
	metrics *metrics.LeadMetrics

	mu       sync.Mutex
	items    []*leads.Lead
	total    int
	filter   *leads.Status
	loading  bool
	loadErr  error
	opErr    error
	selected *leads.Lead
}

// NewConsole builds an empty console.
func NewConsole(repo leads.Repository, logger *logging.Logger, m *metrics.LeadMetrics) *Console {
	if repo == nil {
		panic("admin: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Console{repo: repo, logger: logger, metrics: m}
}

// LoadList replaces the items with the first page matching status.
func (c *Console) LoadList(ctx context.Context, status *leads.Status) error {
	c.mu.Lock()
	c.loading = true
	c.loadErr = nil
	c.filter = status
	c.mu.Unlock()

	res, err := c.repo.List(ctx, leads.ListFilter{Status: status, Limit: leads.DefaultPageSize})
	c.metrics.ObserveAdminOp("load_list", err == nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.logger.Error("failed to load submissions", "error", err)
		c.loadErr = fmt.Errorf("%w: %v", ErrLoadFailed, err)
		return c.loadErr
	}
	c.items = res.Items
	c.total = res.Total
	return nil
}

// Refresh reloads with the current filter.
func (c *Console) Refresh(ctx context.Context) error {
	c.mu.Lock()
	filter := c.filter
	c.mu.Unlock()
	return c.LoadList(ctx, filter)
}

// Open selects id, fetching it when it is not on the loaded page.
func (c *Console) Open(ctx context.Context, id string) (*leads.Lead, error) {
	if lead, ok := c.Select(id); ok {
		return lead, nil
	}
	lead, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.selected = lead
	c.mu.Unlock()
	return copyLead(lead), nil
}

// ChangeStatus shows the new status immediately, then writes it. When the
// write fails the item and the open detail go back to the previous status.
func (c *Console) ChangeStatus(ctx context.Context, id string, status leads.Status) error {
	c.mu.Lock()
	c.opErr = nil
	item := c.find(id)
	var prev, selPrev leads.Status
	if item != nil {
		prev = item.Status
		item.Status = status
	}
	// a detail fetched off-page is a separate copy and is updated on its own
	sel := c.selected
	if sel != nil && sel != item && sel.ID == id {
		selPrev = sel.Status
		sel.Status = status
	} else {
		sel = nil
	}
	c.mu.Unlock()

	_, err := c.repo.UpdateStatus(ctx, id, status)
	c.metrics.ObserveAdminOp("update_status", err == nil)
	if err == nil {
		c.logger.Info("lead status changed", "id", id, "status", status)
		return nil
	}

	c.logger.Error("failed to update status", "error", err, "id", id, "status", status)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opErr = err
	if item != nil {
		item.Status = prev
	}
	if sel != nil {
		sel.Status = selPrev
	}
	return err
}

// Remove deletes id once the operator confirms. It reports whether a
// delete was attempted.
func (c *Console) Remove(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return false, nil
	}

	c.mu.Lock()
	c.opErr = nil
	c.mu.Unlock()

	err := c.repo.Delete(ctx, id)
	c.metrics.ObserveAdminOp("delete", err == nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("failed to delete submission", "error", err, "id", id)
		c.opErr = err
		return true, err
	}

	for i, l := range c.items {
		if l.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			if c.total > 0 {
				c.total--
			}
			break
		}
	}
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
	}
	c.logger.Info("submission deleted", "id", id)
	return true, nil
}

// Select opens the detail view for an item already on the page.
func (c *Console) Select(id string) (*leads.Lead, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := c.find(id)
	if item == nil {
		return nil, false
	}
	c.selected = item
	return copyLead(item), true
}

// CloseDetail clears the selection.
func (c *Console) CloseDetail() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}

// Selected returns a copy of the open detail, or nil.
func (c *Console) Selected() *leads.Lead {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyLead(c.selected)
}

// View is a point-in-time copy of the console for rendering.
type View struct {
	Items    []*leads.Lead
	Total    int
	Filter   *leads.Status
	Loading  bool
	LoadErr  error
	OpErr    error
	Selected *leads.Lead
}

// Snapshot copies the console state.
func (c *Console) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]*leads.Lead, 0, len(c.items))
	for _, l := range c.items {
		items = append(items, copyLead(l))
	}
	return View{
		Items:    items,
		Total:    c.total,
		Filter:   c.filter,
		Loading:  c.loading,
		LoadErr:  c.loadErr,
		OpErr:    c.opErr,
		Selected: copyLead(c.selected),
	}
}

func (c *Console) find(id string) *leads.Lead {
	for _, l := range c.items {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func copyLead(l *leads.Lead) *leads.Lead {
	if l == nil {
		return nil
	}
	out := *l
	return &out
}
