package handler

import (
	"net/http"

	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/req"
	"livechat/internal/pkg/resp"
)

// SubmitInput is the body of POST /api/messages.
type SubmitInput struct {
	Message string `json:"message"`
}

// HandleGetRoster returns the current roster.
func HandleGetRoster(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Store.Roster())
	}
}

// HandleGetTranscript returns the roster and transcript as one snapshot.
func HandleGetTranscript(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Store.Snapshot())
	}
}

// HandleSubmitMessage sends a chat message through the active chat.
func HandleSubmitMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SubmitInput

		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Session.Submit(input.Message); err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
