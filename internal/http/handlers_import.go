package http

import (
	"errors"
	"io"
	"net/http"

	"budgeteer/internal/importer"
	applog "budgeteer/internal/log"
	"budgeteer/internal/statement"
)

// Statements are small; 10 MB leaves plenty of headroom.
const maxUploadBytes = 10 << 20

type draftDTO struct {
	ID       string            `json:"id"`
	Date     string            `json:"date"`
	Note     string            `json:"note"`
	Amount   float64           `json:"amount"`
	Bucket   string            `json:"bucket"`
	Selected bool              `json:"selected"`
	Original map[string]string `json:"original_row,omitempty"`
}

type importStateDTO struct {
	State  string     `json:"state"`
	Drafts []draftDTO `json:"drafts"`
}

func toImportStateDTO(snap importer.Snapshot) importStateDTO {
	out := importStateDTO{
		State:  string(snap.State),
		Drafts: make([]draftDTO, 0, len(snap.Drafts)),
	}
	for _, d := range snap.Drafts {
		out.Drafts = append(out.Drafts, draftDTO{
			ID:       d.ID,
			Date:     d.Date,
			Note:     d.Note,
			Amount:   d.Amount,
			Bucket:   d.Bucket,
			Selected: snap.Selected[d.ID],
			Original: d.OriginalRow,
		})
	}
	return out
}

func (s *Server) handleImportState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("statement")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing statement file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	err = s.session.Upload(r.Context(), data, header.Filename)
	switch {
	case errors.Is(err, importer.ErrNotInUpload):
		writeError(w, http.StatusConflict, "an import is already in progress")
		return
	case errors.Is(err, statement.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported statement format")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "upload failed",
			applog.FieldError, err,
			"filename", header.Filename)
		writeError(w, http.StatusUnprocessableEntity, "failed to parse statement")
		return
	}

	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportEditDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date   *string `json:"date"`
		Note   *string `json:"note"`
		Bucket *string `json:"bucket"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.session.UpdateDraft(r.PathValue("id"), importer.DraftEdit{
		Date:   req.Date,
		Note:   req.Note,
		Bucket: req.Bucket,
	})
	if s.writeImportError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportToggle(w http.ResponseWriter, r *http.Request) {
	if s.writeImportError(w, s.session.ToggleSelect(r.PathValue("id"))) {
		return
	}
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportSelectAll(w http.ResponseWriter, _ *http.Request) {
	if s.writeImportError(w, s.session.SelectAll()) {
		return
	}
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportSelectNone(w http.ResponseWriter, _ *http.Request) {
	if s.writeImportError(w, s.session.SelectNone()) {
		return
	}
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportReclassify(w http.ResponseWriter, r *http.Request) {
	err := s.session.Reclassify(r.Context())
	if err != nil && !errors.Is(err, importer.ErrNotInReview) && !errors.Is(err, importer.ErrNoSelection) {
		s.logger.ErrorContext(r.Context(), "reclassify failed", applog.FieldError, err)
		writeError(w, http.StatusBadGateway, "reclassification failed")
		return
	}
	if s.writeImportError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	result, err := s.session.Commit(r.Context())
	if s.writeImportError(w, err) {
		return
	}

	committed := make([]transactionDTO, 0, len(result.Committed))
	for _, t := range result.Committed {
		committed = append(committed, toTransactionDTO(t))
	}
	failed := make(map[string]string, len(result.Failed))
	for id, ferr := range result.Failed {
		failed[id] = ferr.Error()
	}

	status := http.StatusOK
	if len(failed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{
		"state":     string(s.session.Snapshot().State),
		"committed": committed,
		"failed":    failed,
	})
}

func (s *Server) handleImportReset(w http.ResponseWriter, _ *http.Request) {
	s.session.Reset()
	writeJSON(w, http.StatusOK, toImportStateDTO(s.session.Snapshot()))
}

// writeImportError maps session errors to responses; reports whether the
// request is finished.
func (s *Server) writeImportError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, importer.ErrNotInReview), errors.Is(err, importer.ErrNotInUpload):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, importer.ErrUnknownDraft):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, importer.ErrNoSelection):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "import operation failed")
	}
	return true
}
