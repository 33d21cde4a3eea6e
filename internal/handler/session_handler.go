package handler

import (
	"net/http"

	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/req"
	"livechat/internal/pkg/resp"
)

// LoginInput is the body of POST /api/session.
type LoginInput struct {
	Username string `json:"username"`
}

// SessionResponse describes the current identity.
type SessionResponse struct {
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// HandleLogin performs the entry screen action: set the username and open the chat.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput

		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		chat, err := deps.Session.Login(input.Username)
		if err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		logx.Info("Logged in through control API", "username", chat.Username)

		resp.RespondSuccess(w, r, SessionResponse{Username: chat.Username, Active: true})
	}
}

// HandleGetSession reports the current identity.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, SessionResponse{
			Username: deps.Session.Identity().Get(),
			Active:   deps.Session.Chat() != nil,
		})
	}
}
