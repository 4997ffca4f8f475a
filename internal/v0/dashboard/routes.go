package dashboard

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/menu", h.GetMenu)
	rg.GET("/menu/active", h.GetActiveMeal)

	attendance := rg.Group("/attendance")
	{
		attendance.GET("", h.GetAttendance)
		attendance.GET("/stream", h.StreamAttendance)
		attendance.GET("/:date/:meal", h.GetResponses)
	}

	rg.GET("/ratings/summary", h.GetRatingsSummary)

	complaints := rg.Group("/complaints")
	{
		complaints.GET("", h.GetComplaints)
		complaints.PATCH("/:id/status", h.PatchComplaintStatus)
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
