package domain

import "time"

// Route is the trip being edited: a named, ordered sequence of stops with a
// calendar anchor. StartDateTime is the trip's scheduled departure; the
// timeline's day-zero anchor is midnight UTC of its calendar date.
type Route struct {
	RouteID       int64
	Name          string
	StartDateTime time.Time
}

// Itinerary bundles everything the timeline needs for one route.
type Itinerary struct {
	Route Route
	Stops []*Stop
	Legs  []*Leg
}
