package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MessAPI/internal/attendance"
	"MessAPI/internal/common"
	"MessAPI/internal/databases"
	"MessAPI/internal/documents"
	"MessAPI/internal/env"
	"MessAPI/internal/feedback"
	"MessAPI/internal/menu"
	"MessAPI/internal/realtime"
	v0common "MessAPI/internal/v0/common"
	"MessAPI/internal/v0/dashboard"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := env.GetEnv(env.EnvDBDriver, databases.DriverCGO)
	messDB, err := databases.OpenAndMigrate(driver, env.GetEnv(env.EnvDBPath, env.DefaultDBPath))
	if err != nil {
		log.Fatal(err)
	}
	defer messDB.Close()

	// The weekly menu is read once; restart to pick up a new import.
	schedule, err := menu.NewRepository(messDB).LoadWeeklySchedule()
	if err != nil {
		log.Fatal(err)
	}
	if len(schedule) == 0 {
		log.Println("Weekly menu is empty, run `messctl menu import` to load one")
	}

	// The token source outlives the signal context so refreshes keep working during shutdown.
	nodes, err := realtime.Open(context.Background(), realtime.OpenOptions{
		Backend:         env.GetEnv(env.EnvStoreBackend, realtime.BackendSQLite),
		DB:              messDB,
		RemoteURL:       env.GetEnv(env.EnvRemoteURL, ""),
		CredentialsFile: env.GetEnv(env.EnvRemoteCredentials, ""),
	})
	if err != nil {
		log.Fatal(err)
	}
	docs := documents.NewSQLiteStore(messDB)
	location := env.GetLocation(env.EnvTimezone)

	// Live attendance aggregation
	session := attendance.NewSession(nodes, schedule, attendance.Options{
		Location:        location,
		QueryTimeout:    env.GetDuration(env.EnvQueryTimeout, attendance.DefaultQueryTimeout),
		HistoryDays:     env.GetInt(env.EnvHistoryDays, attendance.DefaultHistoryDays),
		RefreshInterval: env.GetDuration(env.EnvRefreshInterval, attendance.DefaultRefreshInterval),
	})
	if err := session.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer session.Stop()

	// Live ratings and complaints
	monitor := feedback.NewMonitor(docs, feedback.MonitorOptions{
		ComplaintsLimit: env.GetInt(env.EnvComplaintsLimit, feedback.DefaultComplaintsLimit),
		RatingsLimit:    env.GetInt(env.EnvRatingsLimit, feedback.DefaultRatingsLimit),
	})
	if err := monitor.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer monitor.Stop()

	statusHandler := common.NewHandler(messDB)
	dashboardHandler := dashboard.NewHandler(dashboard.Config{
		Schedule:   schedule,
		Attendance: session,
		Feedback:   monitor,
		Realtime:   nodes,
		Documents:  docs,
		Location:   location,
	})

	if env.GetBool(env.EnvReleaseMode, false) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.Use(v0common.RequestID())
	router.NoRoute(v0common.NotFound)
	router.NoMethod(v0common.MethodNotAllowed)

	// Global routes
	global := router.Group("/api")
	common.RegisterRoutes(global, statusHandler)

	// v0 API routes
	v0Group := router.Group("/api/v0")
	{
		dashboard.RegisterRoutes(v0Group, dashboardHandler)
	}

	srv := &http.Server{
		Addr:    env.GetEnv(env.EnvHTTPAddr, env.DefaultHTTPAddr),
		Handler: router,
		// Attendance streams end when the process is signalled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown handling
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Forced shutdown: %v", err)
		}
	}()

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Server error: %v", err)
		stop()
		os.Exit(1)
	}
}

/*
This project is the mess dashboard backend for the OpenSourceDUTH team. Attendance, meal ratings and complaint triage for the university dining hall.
API Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
