package main

import "sort"

// EmergencyContact is a phone line shown alongside a disaster type
type EmergencyContact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// DisasterType describes a kind of hazard a user can mark on the map
type DisasterType struct {
	ID                string             `json:"id"`
	Label             string             `json:"label"`
	Color             string             `json:"color"`
	RouteColor        string             `json:"routeColor"`
	BufferMeters      float64            `json:"bufferMeters"`
	Tips              []string           `json:"tips"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts"`
}

var disasterCatalog = map[string]DisasterType{
	"flood": {
		ID:           "flood",
		Label:        "Flood",
		Color:        "#3b82f6",
		RouteColor:   "#60a5fa",
		BufferMeters: 100,
		Tips: []string{
			"Move to higher ground immediately",
			"Avoid walking through moving water",
			"Do not drive through flooded areas",
			"Monitor local news and weather updates",
		},
		EmergencyContacts: []EmergencyContact{
			{Name: "Flood Control Room", Number: "1800-123-4567"},
			{Name: "Coast Guard", Number: "1800-180-4567"},
		},
	},
	"fire": {
		ID:           "fire",
		Label:        "Wildfire",
		Color:        "#ef4444",
		RouteColor:   "#f87171",
		BufferMeters: 200,
		Tips: []string{
			"Evacuate immediately if authorities order it",
			"Keep windows and doors closed",
			"Have an emergency kit ready",
			"Monitor air quality reports",
		},
		EmergencyContacts: []EmergencyContact{
			{Name: "Fire Control", Number: "101"},
			{Name: "Forest Department", Number: "1800-425-4444"},
		},
	},
	"earthquake": {
		ID:           "earthquake",
		Label:        "Earthquake",
		Color:        "#92400e",
		RouteColor:   "#b45309",
		BufferMeters: 150,
		Tips: []string{
			"Drop, Cover, and Hold On",
			"Stay away from buildings and power lines",
			"Be prepared for aftershocks",
			"Check for injuries and damage",
		},
		EmergencyContacts: []EmergencyContact{
			{Name: "Emergency Response", Number: "112"},
			{Name: "Search & Rescue", Number: "1800-121-1212"},
		},
	},
	"chemical": {
		ID:           "chemical",
		Label:        "Chemical Spill",
		Color:        "#7c3aed",
		RouteColor:   "#8b5cf6",
		BufferMeters: 300,
		Tips: []string{
			"Stay upwind of the incident",
			"Seal all windows and doors",
			"Do not touch or walk through spilled material",
			"Follow evacuation orders immediately",
		},
		EmergencyContacts: []EmergencyContact{
			{Name: "HazMat Response", Number: "108"},
			{Name: "Poison Control", Number: "1800-116-117"},
		},
	},
	"tsunami": {
		ID:           "tsunami",
		Label:        "Tsunami",
		Color:        "#0891b2",
		RouteColor:   "#06b6d4",
		BufferMeters: 400,
		Tips: []string{
			"Move to higher ground or inland immediately",
			"Follow evacuation routes",
			"Stay away from the coast",
			"Wait for official all-clear",
		},
		EmergencyContacts: []EmergencyContact{
			{Name: "Tsunami Warning Center", Number: "1800-100-8789"},
			{Name: "Coast Guard", Number: "1800-180-4567"},
		},
	},
}

// LookupDisaster returns the catalog entry for id
func LookupDisaster(id string) (DisasterType, bool) {
	d, ok := disasterCatalog[id]
	return d, ok
}

// Disasters lists the catalog sorted by suggested buffer size
func Disasters() []DisasterType {
	out := make([]DisasterType, 0, len(disasterCatalog))
	for _, d := range disasterCatalog {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BufferMeters < out[j].BufferMeters
	})
	return out
}

// disasterMargin widens base to the suggested buffer of the hazard's
// disaster type, if it names one.
func disasterMargin(base float64) func(Hazard) float64 {
	return func(h Hazard) float64 {
		if d, ok := LookupDisaster(h.Style.DisasterType); ok && d.BufferMeters > base {
			return d.BufferMeters
		}
		return base
	}
}
