package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"surveychat/internal/service"
	"surveychat/internal/transport/rest/handler"
	"surveychat/internal/transport/rest/middleware"
	"surveychat/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService         *service.AuthService
	ConversationService *service.ConversationService
	WSHub               *ws.Hub
	WSHandler           *ws.Handler
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	chatHandler := handler.NewChatHandler(c.ConversationService)
	editHandler := handler.NewEditHandler(c.ConversationService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/conversations/{id}", c.WSHandler.ConversationWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Conversation routes (require participant auth)
	convRoutes := v1.NewRoute().Subrouter()
	convRoutes.Use(authMW.RequireParticipant)

	convRoutes.HandleFunc("/conversations", chatHandler.Create).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}", chatHandler.Get).Methods("GET", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}", chatHandler.Close).Methods("DELETE", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}/messages", chatHandler.SendMessage).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}/stop", chatHandler.StopAnimation).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}/mode", chatHandler.GetMode).Methods("GET", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}/mode/toggle", chatHandler.ToggleMode).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}/mode/confirm", chatHandler.ConfirmSwitch).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/conversations/{id}/mode/dismiss", chatHandler.DismissPopup).Methods("POST", "OPTIONS")

	convRoutes.HandleFunc("/conversations/{id}/edits", editHandler.Start).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/edits/{editId}/messages", editHandler.SubmitCorrection).Methods("POST", "OPTIONS")
	convRoutes.HandleFunc("/edits/{editId}", editHandler.Close).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
