package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hongminglow/invest-be/internal/models"
	"github.com/hongminglow/invest-be/internal/storage"
)

func (r *repo) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	p.ID = st.nextID()
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	st.projects[p.ID] = p
	return p, nil
}

func (r *repo) GetProject(ctx context.Context, id int64) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state().projects[id]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *repo) GetProjectForUpdate(ctx context.Context, id int64) (models.Project, error) {
	return r.GetProject(ctx, id)
}

func (r *repo) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.TrimSpace(filter.Search)
	out := []models.Project{}
	for _, p := range r.state().projects {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(filter.Category, p.Category) {
			continue
		}
		if search != "" && !containsFold(p.Title, search) && !containsFold(p.Description, search) {
			continue
		}
		out = append(out, p)
	}
	return newestFirst(out, func(p models.Project) (time.Time, int64) { return p.CreatedAt, p.ID }), nil
}

func (r *repo) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	existing, ok := st.projects[p.ID]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now()
	st.projects[p.ID] = p
	return p, nil
}

func (r *repo) DeleteProject(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	if _, ok := st.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(st.projects, id)
	return nil
}

// Investments

func (r *repo) withTitle(inv models.Investment) models.Investment {
	if p, ok := r.state().projects[inv.ProjectID]; ok {
		inv.ProjectTitle = p.Title
	}
	return inv
}

func (r *repo) CreateInvestment(ctx context.Context, inv models.Investment) (models.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	inv.ID = st.nextID()
	inv.CreatedAt = r.now()
	st.investments[inv.ID] = inv
	return r.withTitle(inv), nil
}

func (r *repo) GetInvestment(ctx context.Context, id int64) (models.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.state().investments[id]
	if !ok {
		return models.Investment{}, storage.ErrNotFound
	}
	return r.withTitle(inv), nil
}

func (r *repo) GetInvestmentForUpdate(ctx context.Context, id int64) (models.Investment, error) {
	return r.GetInvestment(ctx, id)
}

func (r *repo) ListInvestments(ctx context.Context, filter models.InvestmentFilter) ([]models.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Investment{}
	for _, inv := range r.state().investments {
		if filter.UserID > 0 && inv.UserID != filter.UserID {
			continue
		}
		if filter.ProjectID > 0 && inv.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, r.withTitle(inv))
	}
	return newestFirst(out, func(i models.Investment) (time.Time, int64) { return i.CreatedAt, i.ID }), nil
}

func (r *repo) ListActiveInvestmentIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int64{}
	for id, inv := range r.state().investments {
		if inv.Status == models.InvestmentActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *repo) UpdateInvestment(ctx context.Context, inv models.Investment) (models.Investment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state()
	existing, ok := st.investments[inv.ID]
	if !ok {
		return models.Investment{}, storage.ErrNotFound
	}
	existing.AccruedYield = inv.AccruedYield
	existing.Status = inv.Status
	existing.LastAccruedAt = inv.LastAccruedAt
	existing.CompletedAt = inv.CompletedAt
	st.investments[inv.ID] = existing
	return r.withTitle(existing), nil
}

func (r *repo) CountInvestments(ctx context.Context, projectID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inv := range r.state().investments {
		if inv.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}
