package router

import (
	"database/sql"
	"net/http"

	docHandler "docshare/internal/document"
	"docshare/internal/document/repository"
	"docshare/internal/document/service"
	"docshare/internal/index"
	"docshare/middleware"
	"docshare/socket"
)

func Setup(db *sql.DB, hub *socket.Hub) http.Handler {
	mux := http.NewServeMux()

	// WebSocket notification channel
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, r, userID)
	})
	mux.Handle("/ws", middleware.AuthMiddleware(wsHandler))

	// REST API
	docRepo := repository.NewDocumentRepository(db)
	idx := index.NewMaintainer()
	accessService := service.NewAccessService(docRepo, idx, hub)
	docService := service.NewDocumentService(docRepo, idx, accessService)
	h := docHandler.NewDocumentHandler(docService, accessService)
	auth := middleware.AuthMiddleware

	mux.Handle("/api/documents/create", auth(http.HandlerFunc(h.CreateDocument)))
	mux.Handle("/api/documents/get", auth(http.HandlerFunc(h.GetDocument)))
	mux.Handle("/api/documents/update", auth(http.HandlerFunc(h.UpdateDocument)))
	mux.Handle("/api/documents/delete", auth(http.HandlerFunc(h.DeleteDocument)))
	mux.Handle("/api/documents/share", auth(http.HandlerFunc(h.ShareDocument)))
	mux.Handle("/api/documents/revoke", auth(http.HandlerFunc(h.RevokeAccess)))
	mux.Handle("/api/documents/recent", auth(http.HandlerFunc(h.ListRecent)))
	mux.Handle("/api/documents/shared", auth(http.HandlerFunc(h.ListShared)))
	mux.Handle("/api/documents/members", auth(http.HandlerFunc(h.GetDocumentMembers)))
	mux.Handle("/api/documents/access", auth(http.HandlerFunc(h.CheckAccess)))

	return middleware.CORSMiddleware(mux)
}
