package dashboard

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"MessAPI/internal/attendance"
	"MessAPI/internal/documents"
	"MessAPI/internal/feedback"
	"MessAPI/internal/mealwindow"
	"MessAPI/internal/menu"
	"MessAPI/internal/realtime"
	"MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
)

// AdminHeader carries the signed-in admin's email for write requests.
const AdminHeader = "X-Admin-Email"

const keepAliveInterval = 25 * time.Second

// AttendanceSource is the live aggregated attendance, usually an *attendance.Session.
type AttendanceSource interface {
	Snapshot() attendance.Snapshot
	Watch(fn func(attendance.Snapshot)) (cancel func())
}

// FeedbackSource is the live ratings and complaints view, usually a *feedback.Monitor.
type FeedbackSource interface {
	Summary() feedback.Summary
	Complaints() (feedback.ComplaintGroups, bool)
}

type Config struct {
	Schedule   menu.WeeklySchedule
	Attendance AttendanceSource
	Feedback   FeedbackSource
	Realtime   realtime.Store
	Documents  documents.Store
	Location   *time.Location
	Clock      func() time.Time
}

type Handler struct {
	cfg Config
}

func NewHandler(cfg Config) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Handler{cfg: cfg}
}

type ActiveMealResponse struct {
	Now         time.Time                 `json:"now"`
	CurrentMeal *menu.MealType            `json:"currentMeal"`
	NextMeal    mealwindow.NextMealInfo   `json:"nextMeal"`
	Active      mealwindow.ActiveMealInfo `json:"activeMealInfo"`
}

func (h *Handler) GetMenu(c *gin.Context) {
	schedule := h.cfg.Schedule
	if schedule == nil {
		schedule = menu.WeeklySchedule{}
	}
	common.Success(c, http.StatusOK, schedule)
}

// GetActiveMeal runs the time-based resolver, at the current time or at ?at=RFC3339.
func (h *Handler) GetActiveMeal(c *gin.Context) {
	now := h.cfg.Clock()
	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, "Invalid time format. Please use RFC 3339")
			return
		}
		now = parsed
	}
	now = now.In(h.cfg.Location)

	resp := ActiveMealResponse{
		Now:      now,
		NextMeal: mealwindow.NextMeal(now, h.cfg.Schedule),
		Active:   mealwindow.ActiveMeal(now, h.cfg.Schedule),
	}
	if meal, ok := mealwindow.CurrentMeal(now, h.cfg.Schedule); ok {
		resp.CurrentMeal = &meal
	}
	common.Success(c, http.StatusOK, resp)
}

func (h *Handler) GetAttendance(c *gin.Context) {
	common.Success(c, http.StatusOK, h.cfg.Attendance.Snapshot())
}

// StreamAttendance pushes a snapshot event now and after every change. A
// slow client only ever gets the latest snapshot.
func (h *Handler) StreamAttendance(c *gin.Context) {
	updates := make(chan attendance.Snapshot, 1)
	cancel := h.cfg.Attendance.Watch(func(s attendance.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer cancel()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", h.cfg.Attendance.Snapshot())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case s := <-updates:
			c.SSEvent("snapshot", s)
		case <-ticker.C:
			c.SSEvent("keep-alive", "")
		}
		return true
	})
}

func (h *Handler) GetResponses(c *gin.Context) {
	responses, err := attendance.ListResponses(c.Request.Context(), h.cfg.Realtime, c.Param("date"), c.Param("meal"))
	switch {
	case errors.Is(err, attendance.ErrInvalidDate), errors.Is(err, attendance.ErrInvalidMeal):
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("dashboard: failed to list responses: %v", err)
		common.Fail(c, http.StatusBadGateway, "Could not read attendance")
		return
	}
	common.Success(c, http.StatusOK, responses)
}

func (h *Handler) GetRatingsSummary(c *gin.Context) {
	common.Success(c, http.StatusOK, h.cfg.Feedback.Summary())
}

type ComplaintsResponse struct {
	Groups feedback.ComplaintGroups `json:"groups"`
	Loaded bool                     `json:"loaded"`
}

func (h *Handler) GetComplaints(c *gin.Context) {
	groups, loaded := h.cfg.Feedback.Complaints()
	common.Success(c, http.StatusOK, ComplaintsResponse{Groups: groups, Loaded: loaded})
}

type StatusUpdate struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) PatchComplaintStatus(c *gin.Context) {
	var body StatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	actor := c.GetHeader(AdminHeader)
	id := c.Param("id")

	err := feedback.UpdateComplaintStatus(c.Request.Context(), h.cfg.Documents, actor, id, body.Status, h.cfg.Clock())
	switch {
	case err == nil:
		common.Success(c, http.StatusOK, gin.H{"id": id, "status": body.Status})
	case errors.Is(err, feedback.ErrInvalidStatus):
		common.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, documents.ErrPermissionDenied):
		common.Fail(c, http.StatusForbidden, "You are not an authorized admin. Ask an existing admin to add your email.")
	case errors.Is(err, documents.ErrNotFound):
		common.Fail(c, http.StatusNotFound, "Complaint not found")
	default:
		log.Printf("dashboard: failed to update complaint %s: %v", id, err)
		common.Fail(c, http.StatusInternalServerError, "Could not update complaint")
	}
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
