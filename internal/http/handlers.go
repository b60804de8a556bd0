package http

import (
	"errors"
	"net/http"
	"strings"

	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/reports"
	"finview/internal/services"
	"finview/internal/views"
)

// endOfDay is appended to a date to build the home page reference time.
const endOfDay = " 23:59:59"

// InvestmentResponse is the JSON body of /api/investment.
type InvestmentResponse struct {
	Month  string  `json:"month"`
	Limit  int     `json:"limit"`
	Amount float64 `json:"amount"`
}

// CashbackResponse is the JSON body of /api/cashback.
type CashbackResponse struct {
	Year     int                `json:"year"`
	Month    int                `json:"month"`
	Cashback map[string]float64 `json:"cashback"`
}

// loadOrFail fetches the dataset, writing a 500 when that fails.
func (s *Server) loadOrFail(w http.ResponseWriter, r *http.Request) (core.Dataset, bool) {
	ds, err := s.dataset(r.Context())
	if err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Failed to load transactions", err, log.OpLoad, nil)
		msg := "failed to load transactions"
		if errors.Is(err, errEmptyDataset) {
			msg = err.Error()
		}
		InternalServerError(msg).Write(w)
		return core.Dataset{}, false
	}
	return ds, true
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	ref := s.referenceDate(ds).Format(core.DateLayout) + endOfDay
	res := s.views.HomePage(r.Context(), ref, ds)
	res.Greeting = views.Greeting(s.now().Hour())
	NewJSONResponse().Payload(res).Write(w)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	req := ParseEventsRequest(r.PathValue("period"), r.URL.Query(), s.referenceDate(ds))
	NewJSONResponse().Payload(s.views.EventsPage(r.Context(), req, ds)).Write(w)
}

func (s *Server) reportOptions(r *http.Request, ds core.Dataset) reports.Options {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = s.referenceDate(ds).Format(core.DateLayout)
	}
	return reports.Options{Date: date}
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	category, err := requireParam(r.URL.Query(), "category")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	out := s.reports.SpendingByCategory(r.Context(), ds, category, s.reportOptions(r, ds))
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleWeekdayReport(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	out := s.reports.SpendingByWeekday(r.Context(), ds, s.reportOptions(r, ds))
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleWorkdayReport(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	out := s.reports.SpendingByWorkday(r.Context(), ds, s.reportOptions(r, ds))
	NewJSONResponse().Payload(out).Write(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	res := services.SimpleSearch(query, ds.Rows())
	log.FromContext(r.Context()).InfoContext(r.Context(), "Search completed",
		log.FieldOperation, log.OpSearch,
		log.FieldSearchQuery, query,
		log.FieldRows, len(res.Transactions))
	NewJSONResponse().Payload(res).Write(w)
}

func (s *Server) handlePhoneSearch(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Payload(services.SearchByPhone(ds.Rows())).Write(w)
}

func (s *Server) handleTransferSearch(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Payload(services.SearchPersonTransfers(ds.Rows())).Write(w)
}

func (s *Server) handleCashback(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	p := ParseMonthParams(r.URL.Query(), s.referenceDate(ds))
	NewJSONResponse().Payload(CashbackResponse{
		Year:     p.Year,
		Month:    p.Month,
		Cashback: services.CashbackByCategory(ds.Rows(), p.Year, p.Month),
	}).Write(w)
}

func (s *Server) handleInvestment(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	month, limit, err := ParseInvestmentParams(r.URL.Query(), s.referenceDate(ds))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Payload(InvestmentResponse{
		Month:  month,
		Limit:  limit,
		Amount: services.InvestmentBank(month, ds.Rows(), limit),
	}).Write(w)
}
