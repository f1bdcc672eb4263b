package leads

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, f Fields) (*Lead, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Get(ctx context.Context, id string) (*Lead, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps leads in process memory. Used in development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*memLead
	seq   int64
	now   func() time.Time
}

type memLead struct {
	lead Lead
	seq  int64
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*memLead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new lead with status new
func (r *InMemoryRepository) Create(ctx context.Context, f Fields) (*Lead, error) {
	if err := checkFields(f); err != nil {
		return nil, storeErr("create", StoreRejected, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry := &memLead{
		seq: r.seq,
		lead: Lead{
			ID:          uuid.New().String(),
			FirstName:   f.FirstName,
			LastName:    f.LastName,
			Company:     f.Company,
			Email:       f.Email,
			Phone:       f.Phone,
			CompanyType: f.CompanyType,
			Message:     f.Message,
			Status:      StatusNew,
			CreatedAt:   r.now(),
		},
	}
	r.leads[entry.lead.ID] = entry
	out := entry.lead
	return &out, nil
}

// List returns leads newest first
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	matched := make([]*memLead, 0, len(r.leads))
	for _, entry := range r.leads {
		if filter.Matches(&entry.lead) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.lead.CreatedAt.Equal(b.lead.CreatedAt) {
			return a.lead.CreatedAt.After(b.lead.CreatedAt)
		}
		return a.seq > b.seq
	})

	result := &ListResult{Items: []*Lead{}, Total: len(matched)}
	for i := filter.Offset; i < len(matched) && len(result.Items) < filter.Limit; i++ {
		l := matched[i].lead
		result.Items = append(result.Items, &l)
	}
	return result, nil
}

// Get retrieves a lead by ID
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.leads[id]
	if !ok {
		return nil, storeErr("get", NotFound, nil)
	}
	out := entry.lead
	return &out, nil
}

// UpdateStatus changes only the status field
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, storeErr("update status", StoreRejected, ErrInvalidStatus)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.leads[id]
	if !ok {
		return nil, storeErr("update status", NotFound, nil)
	}
	entry.lead.Status = status
	out := entry.lead
	return &out, nil
}

// Delete removes a lead
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return storeErr("delete", NotFound, nil)
	}
	delete(r.leads, id)
	return nil
}

var (
	errMessageRequired = errors.New("message is required")
	errEmailShape      = errors.New("email does not match address pattern")
)

// checkFields mirrors the table constraints so every backend rejects the same rows.
func checkFields(f Fields) error {
	if f.Message == "" {
		return errMessageRequired
	}
	if f.Email != "" && !ValidEmail(f.Email) {
		return errEmailShape
	}
	if !f.CompanyType.Valid() {
		return ErrInvalidCompanyType
	}
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
