package common

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	v0common "MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

type StatusResponse struct {
	InternalServerLatency string `json:"internal_server_latency"`
	Uptime                string `json:"uptime"`
	Database              string `json:"database"`
}

// Uptime Logic
var startTime time.Time

func uptime() time.Duration {
	return time.Since(startTime)
}

func init() {
	startTime = time.Now()
}

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// Ping Logic: round trip to the local database.
func (h *Handler) ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := h.db.PingContext(ctx)
	return time.Since(start), err
}

func (h *Handler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	latency, err := h.ping(ctx)
	if err != nil {
		v0common.Fail(c, http.StatusServiceUnavailable, "database unavailable: "+err.Error())
		return
	}
	v0common.Success(c, http.StatusOK, StatusResponse{
		InternalServerLatency: latency.String(),
		Uptime:                uptime().Truncate(time.Second).String(),
		Database:              "ok",
	})
}

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/status", h.Status)
}

//This project is the mess dashboard backend for the OpenSourceDUTH team. Attendance, meal ratings and complaint triage for the university dining hall.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
