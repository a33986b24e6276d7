package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"

	"github.com/luigipascal/blackthorn-server/internal/auth"
	"github.com/luigipascal/blackthorn-server/internal/collab"
	"github.com/luigipascal/blackthorn-server/internal/config"
	"github.com/luigipascal/blackthorn-server/internal/database"
)

type BlackthornApp struct {
	log            *log.Logger
	db             database.ManorRepository
	cs             *collab.CollabServer
	authenticator  *auth.SessionAuthenticator
	srv            *http.Server
	allowedOrigins []string
	roomCodes      *shortid.Shortid
}

func NewBlackthornApp(mux *http.ServeMux, logger *log.Logger, cs *collab.CollabServer, db database.ManorRepository, authenticator *auth.SessionAuthenticator, cfg *config.Config) (*BlackthornApp, error) {
	codes, err := shortid.New(2, shortid.DefaultABC, 1)
	if err != nil {
		return nil, fmt.Errorf("shortid: %w", err)
	}

	s := &BlackthornApp{
		log:            logger,
		db:             db,
		cs:             cs,
		authenticator:  authenticator,
		allowedOrigins: cfg.AllowedOrigins,
		roomCodes:      codes,
	}

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/me", s.authMiddleware(s.me))
	mux.HandleFunc("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.HandleFunc("GET /api/rooms", s.authMiddleware(s.listRooms))
	mux.HandleFunc("GET /api/rooms/{code}", s.authMiddleware(s.getRoom))
	// the websocket authenticates in-band via the authenticate event
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.recoverHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s, nil
}

func (s *BlackthornApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *BlackthornApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *BlackthornApp) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}
