package server

import (
	"bytes"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/count"
	"github.com/calvinalkan/cycle-count/internal/logging"
	"github.com/calvinalkan/cycle-count/internal/report"
	"github.com/calvinalkan/cycle-count/internal/session"
)

func (s *Server) prefs(r *http.Request) session.Prefs {
	return s.sessions.Get(sessionID(r.Context()))
}

func (s *Server) listWorkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"workers": s.workers})
}

type createAssignmentRequest struct {
	Location    string      `json:"location"`
	SKU         string      `json:"sku"`
	ExpectedQty looseString `json:"expected_qty"`
	AssignedTo  string      `json:"assigned_to"`
}

func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	p := s.prefs(r)

	var req createAssignmentRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())

		return
	}

	in := count.NewAssignment{
		Location:    req.Location,
		SKU:         req.SKU,
		ExpectedQty: req.ExpectedQty.String(),
		AssignedTo:  req.AssignedTo,
	}

	err = in.Validate(s.workers)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, p.ErrorText(err))

		return
	}

	id, err := s.tracker.Assignments.Create(in)
	if err != nil {
		s.internalError(w, r, "create assignment", err)

		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"assignment_id": id,
		"message":       p.Sprintf(session.MsgAssigned, in.Location, in.AssignedTo, id),
	})
}

type assignmentsResponse struct {
	Assignments []count.Assignment `json:"assignments"`
	Message     string             `json:"message,omitempty"`
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	p := s.prefs(r)

	worker := r.URL.Query().Get("worker")
	if worker == "" {
		writeErrorJSON(w, http.StatusBadRequest, "worker query parameter is required")

		return
	}

	if !slices.Contains(s.workers, worker) {
		writeErrorJSON(w, http.StatusBadRequest, p.ErrorText(count.ErrUnknownWorker))

		return
	}

	list := s.tracker.Assignments.ListActiveFor(worker)

	resp := assignmentsResponse{Assignments: list}
	if len(list) == 0 {
		resp.Assignments = []count.Assignment{}
		resp.Message = p.Sprintf(session.MsgNoActiveAssignments)
	}

	writeJSON(w, http.StatusOK, resp)
}

type createSubmissionRequest struct {
	AssignmentID string      `json:"assignment_id"`
	Counter      string      `json:"counter"`
	CountedQty   looseString `json:"counted_qty"`
	IssueType    string      `json:"issue_type"`
	ActualPallet string      `json:"actual_pallet"`
	ActualLot    string      `json:"actual_lot"`
	Note         string      `json:"note"`
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	p := s.prefs(r)

	var req createSubmissionRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())

		return
	}

	form := count.SubmissionForm{
		AssignmentID: req.AssignmentID,
		Counter:      req.Counter,
		CountedQty:   req.CountedQty.String(),
		IssueType:    req.IssueType,
		ActualPallet: req.ActualPallet,
		ActualLot:    req.ActualLot,
		Note:         req.Note,
	}

	in, err := form.Parse(s.workers)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, p.ErrorText(err))

		return
	}

	id, err := s.tracker.Submissions.Create(in)
	if err != nil {
		if id != "" {
			// Recorded, but the assignment could not be closed.
			logging.FromContext(r.Context()).Warn(r.Context(), "submission recorded against open assignment",
				zap.String("submission_id", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"submission_id": id,
				"error":         err.Error(),
			})

			return
		}

		s.internalError(w, r, "create submission", err)

		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"submission_id": id,
		"message":       p.Sprintf(session.MsgSubmitted, id),
	})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.index.Refresh(r.Context(), s.tracker)
	if err != nil {
		s.internalError(w, r, "dashboard", err)

		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) exportSubmissions(w http.ResponseWriter, r *http.Request) {
	p := s.prefs(r)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatCSV
	}

	var buf bytes.Buffer

	err := report.Export(&buf, s.tracker.Submissions.Table(), format)
	switch {
	case errors.Is(err, report.ErrUnknownFormat):
		writeErrorJSON(w, http.StatusBadRequest, err.Error())

		return
	case errors.Is(err, report.ErrNoSubmissions):
		writeErrorJSON(w, http.StatusNotFound, p.Sprintf(session.MsgNoSubmissions))

		return
	case err != nil:
		s.internalError(w, r, "export submissions", err)

		return
	}

	name := report.ExportFilename(s.now(), format)

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefs(r))
}

type sessionResponse struct {
	session.Prefs
	Message string `json:"message,omitempty"`
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	before := s.prefs(r)

	var u session.Update

	err := decodeJSON(r, &u)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())

		return
	}

	prefs, err := s.sessions.Apply(sessionID(r.Context()), u)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, before.ErrorText(err))

		return
	}

	logging.FromContext(r.Context()).Debug(r.Context(), "session updated",
		zap.String("lang", prefs.Lang), zap.Int("stored_sessions", s.sessions.Len()))

	resp := sessionResponse{Prefs: prefs}
	if prefs.Lang != before.Lang {
		resp.Message = prefs.Sprintf(session.MsgLanguageSet)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.FromContext(r.Context()).Error(r.Context(), op, zap.Error(err))
	writeErrorJSON(w, http.StatusInternalServerError, "internal error")
}
