// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guide renders the marketing PDF guides with fpdf.
package guide

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/olegiv/realty-go/internal/model"
)

// ErrUnknownKind is returned for a guide kind that cannot be generated.
var ErrUnknownKind = errors.New("unknown guide kind")

// Options personalise a generated guide.
type Options struct {
	Brand     string
	Recipient string // greeting name for the welcome guide
	Phone     string
	Email     string
	Now       time.Time
}

type section struct {
	heading    string
	paragraphs []string
	bullets    []string
	numbered   bool
}

type document struct {
	title    string
	intro    []string
	sections []section
	closing  string
}

// Kinds lists the categories that can be generated.
func Kinds() []string {
	return []string{model.PDFCategoryWelcomeGuide, model.PDFCategoryPropertyGuide, model.PDFCategoryInvestmentTips}
}

// Title returns the display name of a generated guide.
func Title(kind string) string {
	switch kind {
	case model.PDFCategoryWelcomeGuide:
		return "Welcome Guide"
	case model.PDFCategoryPropertyGuide:
		return "Property Investment Guide"
	case model.PDFCategoryInvestmentTips:
		return "Real Estate Investment Tips"
	default:
		return ""
	}
}

// Generate renders the guide of the given kind.
func Generate(kind string, opts Options) ([]byte, error) {
	if opts.Brand == "" {
		opts.Brand = "Pacific Realty"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var doc document
	switch kind {
	case model.PDFCategoryWelcomeGuide:
		doc = welcomeGuide(opts)
	case model.PDFCategoryPropertyGuide:
		doc = propertyGuide(opts)
	case model.PDFCategoryInvestmentTips:
		doc = investmentTips(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return render(doc, opts)
}

var (
	colorTitle = [3]int{0x2c, 0x3e, 0x50}
	colorBody  = [3]int{0x34, 0x49, 0x5e}
	colorMuted = [3]int{0x7f, 0x8c, 0x8d}
)

func render(doc document, opts Options) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(doc.title, true)
	pdf.SetAuthor(opts.Brand, true)
	pdf.SetCreationDate(opts.Now)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setColor := func(c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	setColor(colorTitle)
	pdf.MultiCell(0, 10, tr(doc.title), "", "C", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	setColor(colorBody)
	for _, p := range doc.intro {
		pdf.MultiCell(0, 6, tr(p), "", "L", false)
		pdf.Ln(3)
	}

	for _, s := range doc.sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "BU", 14)
		setColor(colorTitle)
		pdf.MultiCell(0, 8, tr(s.heading), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 11)
		setColor(colorBody)
		for _, p := range s.paragraphs {
			pdf.MultiCell(0, 5.5, tr(p), "", "L", false)
			pdf.Ln(2)
		}
		for i, b := range s.bullets {
			marker := "• "
			if s.numbered {
				marker = fmt.Sprintf("%d. ", i+1)
			}
			pdf.SetX(26)
			pdf.MultiCell(0, 5.5, tr(marker+b), "", "L", false)
		}
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	setColor(colorMuted)
	pdf.MultiCell(0, 5, tr(doc.closing), "", "C", false)
	pdf.MultiCell(0, 5, tr("Generated on "+opts.Now.Format("2 January 2006")), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func welcomeGuide(opts Options) document {
	name := opts.Recipient
	if name == "" {
		name = "there"
	}
	contact := []string{"Our team is happy to help you find the right property."}
	if opts.Email != "" {
		contact = append(contact, "Email: "+opts.Email)
	}
	if opts.Phone != "" {
		contact = append(contact, "Phone: "+opts.Phone)
	}
	return document{
		title: "Welcome to " + opts.Brand,
		intro: []string{
			"Dear " + name + ",",
			"Thank you for joining us. This short guide shows you how to get the most out of your account.",
		},
		sections: []section{
			{
				heading: "What you can do",
				bullets: []string{
					"Browse our current listings",
					"Save properties to your favourites",
					"Book a site visit or a video walkthrough",
					"Read market updates on our blog",
					"Talk to our property advisors",
				},
			},
			{
				heading:  "Getting started",
				numbered: true,
				bullets: []string{
					"Complete your profile",
					"Browse the latest properties",
					"Save the ones you like",
					"Schedule a visit for your shortlist",
					"Subscribe to the newsletter for new launches",
				},
			},
			{heading: "Need help?", paragraphs: contact},
		},
		closing: "Thank you for choosing " + opts.Brand + ".",
	}
}

func propertyGuide(opts Options) document {
	return document{
		title: "Property Investment Guide",
		intro: []string{
			"Buying property is one of the largest financial decisions most people make. " +
				"This guide covers what to look at before you commit.",
		},
		sections: []section{
			{
				heading:    "Reading the market",
				paragraphs: []string{"Look beyond the asking price. These factors drive long-term value:"},
				bullets: []string{
					"Neighbourhood development and planned infrastructure",
					"Historic appreciation in the area",
					"Rental demand and vacancy rates",
					"Interest rate outlook",
					"Local employment and economic growth",
				},
			},
			{
				heading:    "Choosing a strategy",
				paragraphs: []string{"Match the property to your goal:"},
				bullets: []string{
					"Buy and hold for long-term appreciation",
					"Renovate and resell for shorter-term returns",
					"Rent out for steady monthly income",
					"Listed real estate funds for diversified exposure",
				},
			},
			{
				heading:  "Before you sign",
				numbered: true,
				bullets: []string{
					"Verify title documents and approvals",
					"Inspect construction quality and materials",
					"Check maintenance charges and property taxes",
					"Confirm possession and handover timelines",
				},
			},
		},
		closing: "For personalised advice, contact the " + opts.Brand + " team.",
	}
}

func investmentTips(opts Options) document {
	tips := []section{
		{heading: "Research the market", paragraphs: []string{"Study local prices, recent sales and upcoming development plans before making an offer."}},
		{heading: "Location comes first", paragraphs: []string{"Good schools, transport links and everyday amenities keep demand strong."}},
		{heading: "Count every cost", paragraphs: []string{"Budget for taxes, insurance, maintenance, registration and any renovation work."}},
		{heading: "Diversify", paragraphs: []string{"Spread your investment across property types or areas instead of a single asset."}},
		{heading: "Think long term", paragraphs: []string{"Property rewards patience. Plan for a holding period of several years."}},
		{heading: "Work with professionals", paragraphs: []string{"Experienced agents, lawyers and financial advisors help you avoid costly mistakes."}},
	}
	for i := range tips {
		tips[i].heading = fmt.Sprintf("%d. %s", i+1, tips[i].heading)
	}
	return document{
		title:    "Real Estate Investment Tips",
		intro:    []string{"Practical advice from our advisors to help you invest with confidence."},
		sections: tips,
		closing:  "Questions? Reach out to " + opts.Brand + " any time.",
	}
}
