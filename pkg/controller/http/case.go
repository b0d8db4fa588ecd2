package http

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/safe"
)

type caseRequest struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Status         types.CaseStatus `json:"status"`
	References     []string         `json:"references"`
	PendingContact string           `json:"pendingContact"`
}

func (x caseRequest) input() usecase.CaseInput {
	return usecase.CaseInput{
		Title:          x.Title,
		Description:    x.Description,
		Status:         x.Status,
		References:     x.References,
		PendingContact: x.PendingContact,
	}
}

type stepRequest struct {
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	PendingContact string             `json:"pendingContact"`
	Attachments    []model.FileUpload `json:"attachments"`
	// absent keeps every existing attachment of an edited step
	KeepAttachments []types.AttachmentID `json:"keepAttachments"`
}

func (x stepRequest) input() usecase.StepInput {
	return usecase.StepInput{
		Title:           x.Title,
		Description:     x.Description,
		PendingContact:  x.PendingContact,
		Attachments:     x.Attachments,
		KeepAttachments: x.KeepAttachments,
	}
}

type closeRequest struct {
	Evidence []model.FileUpload `json:"evidence"`
}

type shareRequest struct {
	Email string `json:"email"`
}

func caseIDParam(r *http.Request) types.CaseID {
	return types.CaseID(chi.URLParam(r, "caseID"))
}

func stepIDParam(r *http.Request) types.StepID {
	return types.StepID(chi.URLParam(r, "stepID"))
}

// listCasesHandler returns the accessible cases filtered by q, either flat
// in bucket order or grouped by status
func listCasesHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query().Get("q")

		switch view := r.URL.Query().Get("view"); view {
		case "", "flat":
			cases, err := uc.ListCases(ctx, query)
			if err != nil {
				writeError(ctx, w, err)
				return
			}
			writeJSON(ctx, w, http.StatusOK, newCaseListResponse(cases))

		case "grouped":
			groups, err := uc.GroupedCases(ctx, query)
			if err != nil {
				writeError(ctx, w, err)
				return
			}
			writeJSON(ctx, w, http.StatusOK, newCaseGroupsResponse(groups))

		default:
			writeError(ctx, w, goerr.Wrap(errInvalidRequest, "view must be flat or grouped", goerr.V("view", view)))
		}
	}
}

func createCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req caseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}

		created, err := uc.CreateCase(ctx, req.input())
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusCreated, newCaseResponse(created))
	}
}

func getCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := uc.GetCase(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, newCaseResponse(c))
	}
}

func updateCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req caseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}

		updated, err := uc.UpdateCase(ctx, caseIDParam(r), req.input())
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, newCaseResponse(updated))
	}
}

func deleteCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.DeleteCase(r.Context(), caseIDParam(r)); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// closeCaseHandler closes the case. The body with evidence is optional.
func closeCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req closeRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(ctx, w, err)
			return
		}

		closed, err := uc.CloseCase(ctx, caseIDParam(r), req.Evidence)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, newCaseResponse(closed))
	}
}

func shareCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req shareRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
		if req.Email == "" {
			writeError(ctx, w, goerr.Wrap(errInvalidRequest, "email is required"))
			return
		}

		shared, err := uc.ShareCase(ctx, caseIDParam(r), req.Email)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, newCaseResponse(shared))
	}
}

func addStepHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req stepRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}

		updated, err := uc.AddStep(ctx, caseIDParam(r), req.input())
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusCreated, newCaseResponse(updated))
	}
}

func editStepHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req stepRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}

		updated, err := uc.EditStep(ctx, caseIDParam(r), stepIDParam(r), req.input())
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusOK, newCaseResponse(updated))
	}
}

func deleteStepHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := uc.DeleteStep(r.Context(), caseIDParam(r), stepIDParam(r))
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, newCaseResponse(updated))
	}
}

// attachmentHandler serves the raw bytes of an attachment
func attachmentHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		attachmentID := types.AttachmentID(chi.URLParam(r, "attachmentID"))

		a, err := uc.GetAttachment(ctx, caseIDParam(r), stepIDParam(r), attachmentID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", a.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, a.Data)
	}
}

func dashboardHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := uc.Dashboard(r.Context())
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, newDashboardResponse(stats))
	}
}

func resetHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.ResetAllData(r.Context()); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

// getNotificationHandler returns the active notification of the user, or
// 204 when there is none
func getNotificationHandler(hub *notification.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromContext(r.Context())
		n, ok := hub.For(types.UserID(token.Sub)).Current()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, newNotificationResponse(n, time.Now()))
	}
}

func dismissNotificationHandler(hub *notification.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromContext(r.Context())
		hub.For(types.UserID(token.Sub)).Dismiss()
		w.WriteHeader(http.StatusNoContent)
	}
}
