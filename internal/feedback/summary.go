package feedback

import (
	"sort"
	"strings"
)

// Average is an arithmetic mean together with how many values fed it.
type Average struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
	sum   float64
}

func (a *Average) add(v float64) {
	a.sum += v
	a.Count++
	a.Mean = a.sum / float64(a.Count)
}

type Averages struct {
	Overall       Average `json:"overall"`
	StaffBehavior Average `json:"staffBehavior"`
	Hygiene       Average `json:"hygiene"`
}

// ComputeAverages averages every dimension over the ratings where it is
// positive. Zero and invalid scores count in neither numerator nor denominator.
func ComputeAverages(ratings []Rating) Averages {
	var a Averages
	for _, r := range ratings {
		if v, ok := r.Overall(); ok {
			a.Overall.add(v)
		}
		if v, ok := r.StaffBehaviorRating.Positive(); ok {
			a.StaffBehavior.add(v)
		}
		if v, ok := r.HygieneRating.Positive(); ok {
			a.Hygiene.add(v)
		}
	}
	return a
}

type ItemScore struct {
	Item    string  `json:"item"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ItemLeaderboard averages each menu item's scores across all ratings, best
// first. Items with equal averages are ordered by name.
func ItemLeaderboard(ratings []Rating) []ItemScore {
	byItem := map[string]*Average{}
	for _, r := range ratings {
		for item, s := range r.ItemRatings {
			v, ok := s.Positive()
			name := strings.TrimSpace(item)
			if !ok || name == "" {
				continue
			}
			a, exists := byItem[name]
			if !exists {
				a = &Average{}
				byItem[name] = a
			}
			a.add(v)
		}
	}

	board := make([]ItemScore, 0, len(byItem))
	for item, a := range byItem {
		board = append(board, ItemScore{Item: item, Average: a.Mean, Count: a.Count})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Average != board[j].Average {
			return board[i].Average > board[j].Average
		}
		return board[i].Item < board[j].Item
	})
	return board
}

const (
	maxVariance = 1.5
	minMean     = 1.5
	maxMean     = 4.9
)

type UserStats struct {
	User      string  `json:"user"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Variance  float64 `json:"variance"`
	Anomalous bool    `json:"anomalous"`
}

// Anomalous flags a rating pattern with a spread above 1.5 or a mean
// outside [1.5, 4.9].
func Anomalous(mean, variance float64) bool {
	return variance > maxVariance || mean < minMean || mean > maxMean
}

// ComputeUserStats returns the overall-rating mean and sample variance of
// every user, ordered by user key. A single rating has zero variance.
func ComputeUserStats(ratings []Rating) []UserStats {
	byUser := map[string][]float64{}
	for _, r := range ratings {
		key := r.UserKey()
		v, ok := r.Overall()
		if key == "" || !ok {
			continue
		}
		byUser[key] = append(byUser[key], v)
	}

	stats := make([]UserStats, 0, len(byUser))
	for user, values := range byUser {
		mean, variance := meanAndVariance(values)
		stats = append(stats, UserStats{
			User:      user,
			Count:     len(values),
			Mean:      mean,
			Variance:  variance,
			Anomalous: Anomalous(mean, variance),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].User < stats[j].User })
	return stats
}

// DetectAnomalies returns only the flagged users.
func DetectAnomalies(ratings []Rating) []UserStats {
	flagged := []UserStats{}
	for _, s := range ComputeUserStats(ratings) {
		if s.Anomalous {
			flagged = append(flagged, s)
		}
	}
	return flagged
}

func meanAndVariance(values []float64) (mean, variance float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, variance / float64(n-1)
}

type ComplaintGroups struct {
	Pending    []Complaint `json:"Pending"`
	InProgress []Complaint `json:"In Progress"`
	Resolved   []Complaint `json:"Resolved"`
}

// GroupComplaints buckets complaints by status. Open buckets are oldest
// first, Resolved is newest first. A missing status counts as Pending and
// an unknown one is dropped.
func GroupComplaints(complaints []Complaint) ComplaintGroups {
	g := ComplaintGroups{Pending: []Complaint{}, InProgress: []Complaint{}, Resolved: []Complaint{}}
	for _, c := range complaints {
		switch c.Status {
		case StatusPending, "":
			g.Pending = append(g.Pending, c)
		case StatusInProgress:
			g.InProgress = append(g.InProgress, c)
		case StatusResolved:
			g.Resolved = append(g.Resolved, c)
		}
	}
	oldestFirst := func(list []Complaint) func(i, j int) bool {
		return func(i, j int) bool {
			if !list[i].Timestamp.Equal(list[j].Timestamp) {
				return list[i].Timestamp.Before(list[j].Timestamp)
			}
			return list[i].ID < list[j].ID
		}
	}
	sort.SliceStable(g.Pending, oldestFirst(g.Pending))
	sort.SliceStable(g.InProgress, oldestFirst(g.InProgress))
	sort.SliceStable(g.Resolved, func(i, j int) bool {
		a, b := g.Resolved[i], g.Resolved[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
	return g
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
