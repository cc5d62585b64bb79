// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package export renders leads and subscribers as XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/olegiv/realty-go/internal/model"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04"

// Column is one sheet column.
type Column struct {
	Title string
	Width float64
}

// Sheet is a single-sheet table.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Write renders sheet as an XLSX workbook with a styled header row.
func Write(sheet Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet.Name)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	if sheet.Name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("deleting default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#0B3954"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, col := range sheet.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet.Name, cell, col.Title); err != nil {
			return nil, fmt.Errorf("setting header %s: %w", cell, err)
		}
		if col.Width > 0 {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(sheet.Name, name, name, col.Width); err != nil {
				return nil, fmt.Errorf("setting column width: %w", err)
			}
		}
	}
	if len(sheet.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(sheet.Columns), 1)
		if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("styling header: %w", err)
		}
		if err := f.SetPanes(sheet.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, fmt.Errorf("freezing header: %w", err)
		}
	}

	for r, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", r+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Contacts renders contact form submissions.
func Contacts(items []model.ContactForm) ([]byte, error) {
	sheet := Sheet{
		Name: "Contacts",
		Columns: []Column{
			{"ID", 8}, {"Name", 24}, {"Email", 30}, {"Phone", 18},
			{"Subject", 30}, {"Message", 60}, {"Status", 12}, {"Received", 18},
		},
	}
	for _, c := range items {
		sheet.Rows = append(sheet.Rows, []any{
			c.ID, c.Name, c.Email, c.Phone, c.Subject, c.Message, c.Status, formatTime(c.CreatedAt),
		})
	}
	return Write(sheet)
}

var visitColumns = []Column{
	{"ID", 8}, {"Name", 24}, {"Email", 30}, {"Phone", 18},
	{"Preferred Date", 16}, {"Preferred Time", 16}, {"Preferred Contact", 18},
	{"Property", 30}, {"Message", 50}, {"Status", 12}, {"Received", 18},
}

func visitRow(id int64, v model.VisitRequest, created time.Time) []any {
	return []any{
		id, v.Name, v.Email, v.Phone, v.PreferredDate, v.PreferredTime, v.PreferredContact,
		v.PropertyTitle, v.Message, v.Status, formatTime(created),
	}
}

// Visits renders schedule-visit requests.
func Visits(items []model.ScheduleVisit) ([]byte, error) {
	sheet := Sheet{Name: "Visits", Columns: visitColumns}
	for _, v := range items {
		sheet.Rows = append(sheet.Rows, visitRow(v.ID, v.VisitRequest, v.CreatedAt))
	}
	return Write(sheet)
}

// VideoChats renders video chat requests.
func VideoChats(items []model.VideoChat) ([]byte, error) {
	sheet := Sheet{Name: "Video Chats", Columns: append(append([]Column{}, visitColumns...), Column{"Platform", 14})}
	for _, v := range items {
		sheet.Rows = append(sheet.Rows, append(visitRow(v.ID, v.VisitRequest, v.CreatedAt), v.Platform))
	}
	return Write(sheet)
}

// Subscribers renders newsletter subscribers.
func Subscribers(items []model.NewsletterSubscriber) ([]byte, error) {
	sheet := Sheet{
		Name: "Subscribers",
		Columns: []Column{
			{"ID", 8}, {"Email", 32}, {"First Name", 20}, {"Status", 14},
			{"Confirmed", 18}, {"Unsubscribed", 18}, {"Subscribed", 18},
		},
	}
	for _, s := range items {
		sheet.Rows = append(sheet.Rows, []any{
			s.ID, s.Email, s.FirstName, subscriberStatus(&s),
			formatTimePtr(s.ConfirmedAt), formatTimePtr(s.UnsubscribedAt), formatTime(s.CreatedAt),
		})
	}
	return Write(sheet)
}

func subscriberStatus(s *model.NewsletterSubscriber) string {
	switch {
	case s.UnsubscribedAt != nil:
		return "unsubscribed"
	case s.ConfirmedAt != nil:
		return "active"
	default:
		return "pending"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
