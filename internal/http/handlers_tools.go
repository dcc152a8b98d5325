package http

import (
	"errors"
	"net/http"

	"moneymind/internal/calc"
	"moneymind/internal/core"
	"moneymind/internal/finance"
)

type calculateRequest struct {
	Expression string `json:"expression"`
}

type sipRequest struct {
	MonthlyAmount float64 `json:"monthlyAmount"`
	AnnualRate    float64 `json:"annualRate"`
	Years         int     `json:"years"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	v, err := calc.Evaluate(req.Expression)
	if err != nil {
		ErrorFor(r, core.Invalid("expression", err.Error()), "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"expression": req.Expression,
		"result":     v.InexactFloat64(),
		"display":    v.String(),
	}).Write(w)
}

func (s *Server) handleSIP(w http.ResponseWriter, r *http.Request) {
	var req sipRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	res, err := finance.ProjectSIP(req.MonthlyAmount, req.AnnualRate, req.Years)
	if err != nil {
		ErrorFor(r, core.Invalid("sip", "monthlyAmount and annualRate must be non-negative and years between 1 and 100"), "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"invested":    res.Invested,
		"returns":     res.Returns,
		"futureValue": res.FutureValue,
	}).Write(w)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := core.ParseDecimal(q.Get("amount"))
	if err != nil || amount.IsNegative() {
		ErrorFor(r, core.Invalid("amount", "must be a non-negative number"), "").Write(w)
		return
	}
	from, err := finance.ParseCurrency(q.Get("from"))
	if err != nil {
		ErrorFor(r, core.Invalid("from", "must be INR or USD"), "").Write(w)
		return
	}
	to, err := finance.ParseCurrency(q.Get("to"))
	if err != nil {
		ErrorFor(r, core.Invalid("to", "must be INR or USD"), "").Write(w)
		return
	}

	out, err := finance.Convert(amount, from, to, s.inrPerUSD)
	if err != nil {
		if !errors.Is(err, finance.ErrInvalidRate) {
			err = core.Invalid("currency", err.Error())
		}
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"amount": amount.InexactFloat64(),
		"from":   from,
		"to":     to,
		"rate":   s.inrPerUSD.InexactFloat64(),
		"result": out.InexactFloat64(),
	}).Write(w)
}
