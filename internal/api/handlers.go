package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kennelcore/internal/backups"
	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

// Handler holds the API route handlers.
type Handler struct {
	svc     *core.Service
	backups *backups.Worker
}

func create[T any](fn func(context.Context, T) (T, domain.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in T
		if !decodeJSON(w, r, &in) {
			return
		}
		out, res, err := fn(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeMutation(w, http.StatusCreated, out, res)
	}
}

func remove(fn func(context.Context, string) (bool, domain.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, _, err := fn(r.Context(), chi.URLParam(r, "id"))
		switch {
		case err != nil:
			writeError(w, r, err)
		case !found:
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func getOne[T any](w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) (T, bool)) {
	v, ok := fetch(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, domain.NewValidationError("", "date", "expected YYYY-MM-DD, got %q", value)
	}
	return &t, nil
}

// Dashboard handles GET /api/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetDashboardStats(r.Context()))
}

// Due handles GET /api/due.
func (h *Handler) Due(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, map[string]any{
		"vaccinations_due_this_week": h.svc.VaccinationsDueThisWeek(ctx),
		"overdue_vaccinations":       h.svc.OverdueVaccinations(ctx),
		"health_tasks_due_this_week": h.svc.PuppyHealthTasksDueThisWeek(ctx),
		"overdue_health_tasks":       h.svc.OverduePuppyHealthTasks(ctx),
		"follow_ups_due_this_week":   h.svc.FollowUpsDueThisWeek(ctx),
		"overdue_follow_ups":         h.svc.OverdueFollowUps(ctx),
	})
}

// ListDogs handles GET /api/dogs.
func (h *Handler) ListDogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	breeding, _ := strconv.ParseBool(q.Get("breeding"))
	writeJSON(w, http.StatusOK, h.svc.ListDogs(r.Context(), core.DogFilter{
		Status:       domain.DogStatus(q.Get("status")),
		Sex:          domain.Sex(q.Get("sex")),
		Breed:        q.Get("breed"),
		LitterID:     q.Get("litter_id"),
		BreedingOnly: breeding,
		Search:       q.Get("q"),
	}))
}

func (h *Handler) GetDog(w http.ResponseWriter, r *http.Request) { getOne(w, r, h.svc.GetDog) }

// HeatPrediction handles GET /api/dogs/{id}/heat-prediction.
func (h *Handler) HeatPrediction(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetHeatCyclePrediction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Pedigree handles GET /api/dogs/{id}/pedigree?generations=n.
func (h *Handler) Pedigree(w http.ResponseWriter, r *http.Request) {
	generations, _ := strconv.Atoi(r.URL.Query().Get("generations"))
	tree, ok := h.svc.GetPedigree(r.Context(), chi.URLParam(r, "id"), generations)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *Handler) WeightLog(w http.ResponseWriter, r *http.Request) { getOne(w, r, h.svc.GetWeightLog) }

// ListLitters handles GET /api/litters.
func (h *Handler) ListLitters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.svc.ListLitters(r.Context(), core.LitterFilter{
		Status:   domain.LitterStatus(q.Get("status")),
		ParentID: q.Get("parent_id"),
	}))
}

func (h *Handler) GetLitter(w http.ResponseWriter, r *http.Request) { getOne(w, r, h.svc.GetLitter) }

func (h *Handler) LitterFinancials(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, h.svc.GetLitterFinancials)
}

func (h *Handler) GrowthChart(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, h.svc.GetGrowthChart)
}

// GenerateHealthTasks handles POST /api/litters/{id}/health-tasks. The body
// is optional: {"whelp_date": "2024-02-01", "template_id": "..."}.
func (h *Handler) GenerateHealthTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WhelpDate  string  `json:"whelp_date"`
		TemplateID *string `json:"template_id"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	whelp, err := parseDate(req.WhelpDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var on time.Time
	if whelp != nil {
		on = *whelp
	}
	tasks, res, err := h.svc.GeneratePuppyHealthTasksForLitter(r.Context(), chi.URLParam(r, "id"), on, req.TemplateID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMutation(w, http.StatusCreated, tasks, res)
}

type reorderRequest struct {
	LitterID *string  `json:"litter_id"`
	IDs      []string `json:"ids"`
}

// ReorderLitterPhotos handles POST /api/litters/{id}/photos/reorder.
func (h *Handler) ReorderLitterPhotos(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	photos, res, err := h.svc.ReorderLitterPhotos(r.Context(), chi.URLParam(r, "id"), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMutation(w, http.StatusOK, photos, res)
}

// ReorderWaitlist handles POST /api/waitlist/reorder. A null litter_id
// reorders the general waitlist.
func (h *Handler) ReorderWaitlist(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entries, res, err := h.svc.ReorderWaitlist(r.Context(), req.LitterID, req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMutation(w, http.StatusOK, entries, res)
}

// ListClients handles GET /api/clients?q=.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListClients(r.Context(), core.ClientFilter{Search: r.URL.Query().Get("q")}))
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) { getOne(w, r, h.svc.GetClient) }

// ListSales handles GET /api/sales.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ListSales(r.Context(), core.SaleFilter{
		ClientID:      q.Get("client_id"),
		Status:        domain.SaleStatus(q.Get("status")),
		PaymentStatus: domain.PaymentStatus(q.Get("payment_status")),
		From:          from,
		To:            to,
	}))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) { getOne(w, r, h.svc.GetSale) }

// AddSalePuppy handles POST /api/sales/{id}/puppies.
func (h *Handler) AddSalePuppy(w http.ResponseWriter, r *http.Request) {
	var req core.SalePuppyInput
	if !decodeJSON(w, r, &req) {
		return
	}
	price := req.Price
	if price == nil {
		sale, ok := h.svc.GetSale(r.Context(), chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		price = &sale.Price
	}
	line, res, err := h.svc.AddPuppyToSale(r.Context(), chi.URLParam(r, "id"), req.DogID, *price)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMutation(w, http.StatusCreated, line, res)
}

// RemoveSalePuppy handles DELETE /api/sales/{id}/puppies/{dogID}.
func (h *Handler) RemoveSalePuppy(w http.ResponseWriter, r *http.Request) {
	found, _, err := h.svc.RemovePuppyFromSale(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "dogID"))
	switch {
	case err != nil:
		writeError(w, r, err)
	case !found:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ConvertInterest handles POST /api/interests/{id}/convert. An empty body
// converts with defaults taken from the interest.
func (h *Handler) ConvertInterest(w http.ResponseWriter, r *http.Request) {
	var req core.SaleInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	sale, res, err := h.svc.ConvertInterestToSale(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMutation(w, http.StatusCreated, sale, res)
}

// BreedingRecommendation handles GET /api/breeding-recommendation?progesterone=.
func (h *Handler) BreedingRecommendation(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.ParseFloat(r.URL.Query().Get("progesterone"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("progesterone must be a number"))
		return
	}
	advice, err := h.svc.GetBreedingRecommendation(level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

// Compatibility handles GET /api/compatibility?dam=&sire=.
func (h *Handler) Compatibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.svc.CheckMatingCompatibility(r.Context(), q.Get("dam"), q.Get("sire"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExpenseSummary handles GET /api/expenses/summary?from=&to=. The range
// defaults to the current year.
func (h *Handler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := time.Now().UTC()
	if from == nil {
		start := domain.Date(now.Year(), time.January, 1)
		from = &start
	}
	if to == nil {
		end := domain.Date(now.Year(), time.December, 31)
		to = &end
	}
	writeJSON(w, http.StatusOK, h.svc.GetExpenseSummary(r.Context(), *from, *to))
}
