// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package reviews

const defaultAvatar = "/person1.jpeg"

// Fallback returns the static testimonials shown when live reviews are
// unavailable.
func Fallback() *Testimonials {
	return &Testimonials{
		Reviews: []Testimonial{
			{
				ID:       1,
				Name:     "Daniel Ortega",
				Role:     "Homeowner",
				Image:    "/person1.jpeg",
				Quote:    "The team found us a home that ticked every box and kept us informed at each step. Moving in was the easy part.",
				Rating:   5,
				Location: "Verified Client",
			},
			{
				ID:       2,
				Name:     "Sara Lindqvist",
				Role:     "Property Investor",
				Image:    "/person2.jpeg",
				Quote:    "Clear numbers, honest advice and well-built properties. Their market insight shaped my last two purchases.",
				Rating:   5,
				Location: "Verified Client",
			},
			{
				ID:       3,
				Name:     "Marcus Bell",
				Role:     "First-time Buyer",
				Image:    "/person1.jpeg",
				Quote:    "As a first-time buyer I had a hundred questions. Every one of them got a patient answer.",
				Rating:   5,
				Location: "Verified Client",
			},
			{
				ID:       4,
				Name:     "Aiko Tanaka",
				Role:     "Property Seller",
				Image:    "/person3.jpeg",
				Quote:    "They priced our apartment well and closed the sale within weeks. Professional from start to finish.",
				Rating:   5,
				Location: "Verified Client",
			},
		},
		OverallRating: 4.9,
		TotalRatings:  150,
		Source:        SourceFallback,
	}
}
