package models

import "strconv"

// Soiree is an evening event; Description is markdown.
type Soiree struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Date        Date   `json:"date"`
	Venue       string `json:"venue"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description,omitempty"`
	EventID     int64  `json:"evenement_id"`
}

func (s Soiree) RecordID() string { return strconv.FormatInt(s.ID, 10) }

// Workshop is a session of the event programme; Description is markdown.
type Workshop struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Room         string   `json:"room"`
	StartTime    DateTime `json:"start_time"`
	EndTime      DateTime `json:"end_time"`
	Capacity     int      `json:"capacity"`
	InstructorID int64    `json:"instructor_id,omitempty"`
	Description  string   `json:"description,omitempty"`
	EventID      int64    `json:"evenement_id"`
}

func (w Workshop) RecordID() string { return strconv.FormatInt(w.ID, 10) }

type Pause struct {
	ID        int64    `json:"id"`
	Label     string   `json:"label"`
	StartTime DateTime `json:"start_time"`
	EndTime   DateTime `json:"end_time"`
	Location  string   `json:"location,omitempty"`
	EventID   int64    `json:"evenement_id"`
}

func (p Pause) RecordID() string { return strconv.FormatInt(p.ID, 10) }
