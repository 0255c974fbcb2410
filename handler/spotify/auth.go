package spotify

import (
	"context"
	"net/http"

	"github.com/AadityaKP/MoodBoard/spotify"
	"go.uber.org/zap"
)

type authenticator interface {
	AuthURL() string
	Exchange(ctx context.Context, r *http.Request) error
}

// --- Auth Login Handler ---

// LoginHandler redirects the user to Spotify's OAuth consent screen.
type LoginHandler struct {
	log  *zap.SugaredLogger
	auth authenticator
}

func (*LoginHandler) Pattern() string {
	return "/login"
}

func NewLoginHandler(log *zap.SugaredLogger, spotifyClient *spotify.SpotifyClient) *LoginHandler {
	return &LoginHandler{log: log, auth: spotifyClient}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.auth.AuthURL(), http.StatusTemporaryRedirect)
}

// --- Auth Callback Handler ---

// CallbackHandler exchanges the OAuth code for tokens and stores them.
type CallbackHandler struct {
	log  *zap.SugaredLogger
	auth authenticator
}

func (*CallbackHandler) Pattern() string {
	return "/callback"
}

func NewCallbackHandler(log *zap.SugaredLogger, spotifyClient *spotify.SpotifyClient) *CallbackHandler {
	return &CallbackHandler{log: log, auth: spotifyClient}
}

const connectedPage = `<html>
  <body>
    <script>
      if (window.opener) { window.opener.postMessage({ type: 'SPOTIFY_CONNECTED' }, '*'); }
      window.close();
    </script>
    <p>Login successful! You can close this window.</p>
  </body>
</html>
`

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("code") == "" {
		http.Error(w, `{"error":"missing code"}`, http.StatusBadRequest)
		return
	}

	if err := h.auth.Exchange(r.Context(), r); err != nil {
		h.log.Errorw("Failed to exchange Spotify token", "error", err)
		http.Error(w, `{"error":"token exchange failed"}`, http.StatusInternalServerError)
		return
	}

	h.log.Info("Spotify account connected")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(connectedPage))
}
