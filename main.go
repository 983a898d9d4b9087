package main

import (
	"log"
	"net/http"

	"docshare/config/database"
	"docshare/pkg/logger"
	"docshare/router"
	"docshare/socket"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	logger.Init()
	defer logger.Log.Sync()

	db := database.Connect()
	defer db.Close()

	hub := socket.NewHub()
	go hub.Run()

	handler := router.Setup(db, hub)

	logger.Sugar.Info("docshare backend listening on :8080")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		logger.Sugar.Fatalf("Server exited: %v", err)
	}
}
