package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"stockdash/internal/auth"
	"stockdash/internal/quote"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type signinResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type meResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// decodeCredentials reads a JSON body. An empty body decodes to empty fields
// so the missing-field check reports it.
func decodeCredentials(r *http.Request) (credentials, error) {
	var c credentials
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&c)
	if errors.Is(err, io.EOF) {
		return c, nil
	}
	return c, err
}

// signupHandler creates a regular user from a JSON body.
func (app *App) signupHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, kindValidation, "Invalid request body", err)
		return
	}

	if err := app.auth.Signup(r.Context(), creds.Username, creds.Password, creds.Role); err != nil {
		app.authError(w, r, err, "Error creating user")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = io.WriteString(w, "User created successfully")
}

// signinHandler checks credentials, returns a token and also marks the
// cookie session authenticated.
func (app *App) signinHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, kindValidation, "Invalid request body", err)
		return
	}

	token, role, err := app.auth.Signin(r.Context(), creds.Username, creds.Password)
	if err != nil {
		app.authError(w, r, err, "Error signing in")
		return
	}

	claims, err := app.auth.Issuer().Verify(token)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, kindInternal, "Error signing in", err)
		return
	}

	session, _ := app.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = claims.Subject
	session.Values["role"] = string(role)
	session.Values["issued_at"] = claims.IssuedAt
	if err := session.Save(r, w); err != nil {
		// The token alone is enough to authenticate.
		log.Warn().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("Failed to save session")
	}

	writeJSON(w, http.StatusOK, signinResponse{Token: token, Role: string(role)})
}

// signoutHandler clears the cookie session. Tokens stay valid until they expire.
func (app *App) signoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := app.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	delete(session.Values, "user_id")
	delete(session.Values, "role")
	delete(session.Values, "issued_at")
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		log.Warn().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("Failed to clear session")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) meHandler(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, meResponse{ID: c.Subject, Role: string(c.Role)})
}

// stocksHandler returns the latest price for each symbol in ?symbols=.
// Symbols that cannot be priced carry the unavailable sentinel.
func (app *App) stocksHandler(w http.ResponseWriter, r *http.Request) {
	symbols := quote.ParseSymbols(r.URL.Query().Get("symbols"))

	quotes, err := app.quotes.GetQuotes(r.Context(), symbols)
	switch {
	case errors.Is(err, quote.ErrNoSymbols):
		writeError(w, r, http.StatusBadRequest, kindValidation, "Stock symbols are required", err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, kindProvider, "Error fetching stock prices", err)
		return
	}

	writeJSON(w, http.StatusOK, quotes)
}

// historicalHandler returns the daily closing series for one symbol in the
// order the source lists it.
func (app *App) historicalHandler(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	points, err := app.history.GetHistorical(r.Context(), symbol)
	switch {
	case errors.Is(err, quote.ErrNoSymbols):
		writeError(w, r, http.StatusBadRequest, kindValidation, "Stock symbol is required", err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, kindProvider, "Error fetching historical prices", err)
		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.Ping(ctx); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, kindStore, "Unavailable", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

// authError maps auth service failures to responses. Unknown users and wrong
// passwords share one body.
func (app *App) authError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validation *auth.ValidationError
		storeErr   *auth.StoreError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, r, http.StatusBadRequest, kindValidation, validation.Message, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, kindInvalidCredentials, "Invalid credentials", err)
	case errors.As(err, &storeErr):
		writeError(w, r, http.StatusInternalServerError, kindStore, fallback, err)
	default:
		writeError(w, r, http.StatusInternalServerError, kindInternal, fallback, err)
	}
}
