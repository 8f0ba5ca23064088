package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/veridoc/document-registry-backend/interfaces"
	"github.com/veridoc/document-registry-backend/notary"
)

// maxUploadSize caps the document payload of issue/upload requests (10MB).
const maxUploadSize = 10 * 1024 * 1024

// errDocumentTooLarge rejects oversized uploads outright; a truncated blob
// must never reach the content store or the ledger.
var errDocumentTooLarge = errors.New("document exceeds the 10MB size limit")

// Handler processes the document registry API requests. Authentication has
// already happened by the time a request reaches it; authorization (who may
// issue, who may verify) is enforced here, at the boundary.
type Handler struct {
	registration *notary.RegistrationService
	verification *notary.VerificationService
	flags        *notary.FlagService
	log          *slog.Logger
}

// NewHandler creates the API handler over the three registry services.
func NewHandler(registration *notary.RegistrationService, verification *notary.VerificationService, flags *notary.FlagService, log *slog.Logger) *Handler {
	return &Handler{
		registration: registration,
		verification: verification,
		flags:        flags,
		log:          log,
	}
}

type documentResponse struct {
	ID          int64     `json:"id"`
	Variant     string    `json:"variant"`
	Issuer      *string   `json:"issuer,omitempty"`
	Custodian   string    `json:"custodian"`
	Title       string    `json:"title"`
	ContentID   string    `json:"content_id"`
	TxRef       string    `json:"tx_ref"`
	LedgerIndex uint64    `json:"ledger_index"`
	ContentHash string    `json:"content_hash"`
	Flagged     bool      `json:"flagged"`
	CreatedAt   time.Time `json:"created_at"`
}

func documentToResponse(rec *interfaces.DocumentRecord) documentResponse {
	resp := documentResponse{
		ID:          rec.ID,
		Variant:     string(rec.Variant),
		Custodian:   rec.Custodian.String(),
		Title:       rec.Title,
		ContentID:   rec.ContentID,
		TxRef:       rec.TxRef.String(),
		LedgerIndex: rec.LedgerIndex,
		ContentHash: rec.ContentHash.String(),
		Flagged:     rec.Flagged,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Issuer != nil {
		issuer := rec.Issuer.String()
		resp.Issuer = &issuer
	}
	return resp
}

// HandleIssue processes POST /documents/issue. Only verified authorities
// may issue; the receiver is named by public id in the multipart form.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if !ident.IsVerifiedAuthority() {
		writeJSONError(w, http.StatusForbidden, "only verified authorities may issue documents")
		return
	}

	receiverID, title, data, err := parseDocumentForm(r, true)
	if err != nil {
		writeFormError(w, err)
		return
	}

	rec, err := h.registration.Issue(r.Context(), ident, receiverID, title, data)
	if err != nil {
		if errors.Is(err, interfaces.ErrIdentityNotFound) {
			writeJSONError(w, http.StatusBadRequest, "unknown receiver")
			return
		}
		h.writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentToResponse(rec))
}

// HandleUpload processes POST /documents/upload, a self-registration by the
// document's custodian.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	_, title, data, err := parseDocumentForm(r, false)
	if err != nil {
		writeFormError(w, err)
		return
	}

	rec, err := h.registration.Upload(r.Context(), ident, title, data)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentToResponse(rec))
}

// HandleDocuments processes GET /documents. The caller's held documents are
// returned; authorities may request their issued set with ?issued=true.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	issued := r.URL.Query().Get("issued") == "true"
	if issued && !ident.IsVerifiedAuthority() {
		writeJSONError(w, http.StatusForbidden, "only verified authorities have an issued set")
		return
	}

	recs, err := h.registration.Documents(r.Context(), ident, issued)
	if err != nil {
		h.log.Error("document listing failed", "identity", ident.PublicID, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	out := make([]documentResponse, 0, len(recs))
	for i := range recs {
		out = append(out, documentToResponse(&recs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

type flagRequest struct {
	Index *uint64 `json:"index"`
	Flag  *bool   `json:"flag"`
}

// HandleFlag processes POST /blockchain/flag. A finalized ledger update
// with no local mirror returns 202 with a warning instead of 200.
func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Index == nil || req.Flag == nil {
		writeJSONError(w, http.StatusBadRequest, "index and flag are required")
		return
	}

	result, err := h.flags.SetFlag(r.Context(), ident, *req.Index, *req.Flag)
	if err != nil {
		h.writeLedgerError(w, "flag", err)
		return
	}

	if result.Orphaned {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"index":   result.Index,
			"flag":    result.NewState,
			"warning": "ledger updated but no local record exists at this index",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": result.Index, "flag": result.NewState})
}

type verifyRequest struct {
	Index  *uint64 `json:"index"`
	TxHash string  `json:"tx_hash"`
}

// HandleVerify processes POST /blockchain/verify. Verification is restricted
// to verified authorities; the lookup key is a ledger index or a tx hash,
// with the index taking precedence when both are present.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if !ident.IsVerifiedAuthority() {
		writeJSONError(w, http.StatusForbidden, "only verified authorities may verify documents")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	query := notary.Query{Index: req.Index}
	if req.Index == nil && req.TxHash != "" {
		ref, err := interfaces.NewContentHashFromHex(req.TxHash)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed tx_hash")
			return
		}
		query.TxRef = &ref
	}

	entry, err := h.verification.Verify(r.Context(), ident, query)
	if err != nil {
		if errors.Is(err, interfaces.ErrMissingQueryKey) {
			writeJSONError(w, http.StatusBadRequest, "supply an index or a tx_hash")
			return
		}
		h.log.Error("verification read failed", "verifier", ident.PublicID, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "ledger read failed")
		return
	}

	if !entry.Exists {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exists":       true,
		"index":        entry.Index,
		"content_id":   entry.ContentID,
		"issuer":       entry.Issuer.String(),
		"receiver":     entry.Receiver.String(),
		"title":        entry.Title,
		"timestamp":    entry.Timestamp,
		"flagged":      entry.Flagged,
		"content_hash": entry.ContentHash.String(),
	})
}

// HandleCount processes GET /blockchain/count, reporting the total number
// of entries registered on the ledger.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := identityFrom(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	count, err := h.verification.Count(r.Context())
	if err != nil {
		h.log.Error("ledger count read failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "ledger read failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// parseDocumentForm extracts the multipart fields of issue/upload requests.
func parseDocumentForm(r *http.Request, needReceiver bool) (receiverID, title string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", "", nil, errors.New("malformed multipart body")
	}

	title = r.FormValue("title")
	if title == "" {
		return "", "", nil, errors.New("title is required")
	}

	if needReceiver {
		receiverID = r.FormValue("receiver_id")
		if receiverID == "" {
			return "", "", nil, errors.New("receiver_id is required")
		}
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, errors.New("file is required")
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return "", "", nil, errors.New("could not read file")
	}
	if len(data) > maxUploadSize {
		return "", "", nil, errDocumentTooLarge
	}
	return receiverID, title, data, nil
}

func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errDocumentTooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeRegistrationError(w http.ResponseWriter, err error) {
	var storeErr *interfaces.ContentStoreError
	if errors.As(err, &storeErr) {
		h.log.Error("content store write failed", "backend", storeErr.Backend, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "content store failure")
		return
	}
	h.writeLedgerError(w, "registration", err)
}

func (h *Handler) writeLedgerError(w http.ResponseWriter, op string, err error) {
	var timeoutErr *interfaces.LedgerTimeoutError
	if errors.As(err, &timeoutErr) {
		h.log.Warn("ledger write outcome unknown", "op", op, "tx_ref", timeoutErr.TxRef.String())
		writeJSONError(w, http.StatusGatewayTimeout,
			"ledger write not finalized in time; outcome unknown, verify by read before retrying")
		return
	}

	var writeErr *interfaces.LedgerWriteError
	if errors.As(err, &writeErr) {
		h.log.Error("ledger write failed", "op", op, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "ledger write failed")
		return
	}

	h.log.Error("request failed", "op", op, "err", err)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
