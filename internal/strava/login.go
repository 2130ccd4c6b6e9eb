package strava

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultCallbackAddr is where the login flow listens for the redirect
	DefaultCallbackAddr = "localhost:8089"
	// LoginTimeout bounds how long the user has to approve access
	LoginTimeout = 5 * time.Minute
)

var errStateMismatch = errors.New("oauth state mismatch")

// LoginResult is the outcome of an interactive authorization
type LoginResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// Login runs the authorization code flow against a local callback server.
// show is handed the URL the user must open.
func Login(ctx context.Context, c Credentials, addr string, show func(url string)) (*LoginResult, error) {
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	cfg := NewOAuthConfig(c)
	cfg.RedirectURL = "http://" + listener.Addr().String() + "/callback"

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, codes, errs))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer shutdown(server)

	show(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	timer := time.NewTimer(LoginTimeout)
	defer timer.Stop()

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-timer.C:
		return nil, fmt.Errorf("authorization timed out after %v", LoginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return &LoginResult{Token: token, AthleteID: athleteID(token)}, nil
}

// callbackHandler delivers the authorization code, or the reason there is none
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var err error
		switch {
		case q.Get("state") != state:
			err = errStateMismatch
		case q.Get("error") != "":
			err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			err = errors.New("no code in callback")
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errs <- err:
			default:
			}
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "fitinsight is authorized. You can close this window.")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})
}

// athleteID reads the athlete object Strava returns alongside the token
func athleteID(token *oauth2.Token) int64 {
	athlete, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return 0
	}
	id, _ := athlete["id"].(float64)
	return int64(id)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
