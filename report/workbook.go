package report

import (
	"fmt"
	"io"

	"github.com/warp/timecard-engine/timecard"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the card workbook.
const (
	SheetNormal   = "Normal"
	SheetOvertime = "Extras"
	SheetWeeks    = "Semanas"
)

var cardHeader = []interface{}{
	"Linha", "Data", "Dia",
	"Entrada 1", "Saída 1", "Entrada 2", "Saída 2", "Entrada 3", "Saída 3",
	"Trabalhado (min)", "Previsto (min)", "Extra (min)",
	"50% (min)", "75% (min)", "100% (min)", "125% (min)", "Banco (min)", "Atraso (min)",
	"Semana",
}

var weekHeader = []interface{}{
	"Semana", "Início", "Fim",
	"50% (min)", "75% (min)", "100% (min)", "125% (min)", "Banco (min)", "Atraso (min)",
	"Valor",
}

// Cards is the input of CardWorkbook. Either card may be nil.
type Cards struct {
	Normal   *timecard.Card
	Overtime *timecard.Card
}

// CardWorkbook classifies both cards together and writes an xlsx workbook
// with one sheet per card and a weekly summary sheet.
func CardWorkbook(w io.Writer, cards Cards, s *timecard.Settings) error {
	var entries []timecard.CardDay
	for _, c := range []*timecard.Card{cards.Normal, cards.Overtime} {
		if c != nil {
			entries = append(entries, c.Entries()...)
		}
	}
	cls, err := timecard.Classify(entries, s)
	if err != nil {
		return err
	}

	results := make(map[timecard.CardType]map[int]timecard.DayResult)
	for _, dr := range cls.Days {
		if results[dr.Card] == nil {
			results[dr.Card] = make(map[int]timecard.DayResult)
		}
		results[dr.Card][dr.Line] = dr
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetNormal); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetOvertime); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetWeeks); err != nil {
		return err
	}

	if err := writeCardSheet(f, SheetNormal, cards.Normal, results[timecard.CardNormal]); err != nil {
		return err
	}
	if err := writeCardSheet(f, SheetOvertime, cards.Overtime, results[timecard.CardOvertime]); err != nil {
		return err
	}
	if err := writeWeekSheet(f, cls); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeCardSheet(f *excelize.File, sheet string, card *timecard.Card, results map[int]timecard.DayResult) error {
	if err := f.SetSheetRow(sheet, "A1", &cardHeader); err != nil {
		return err
	}
	if card == nil {
		return nil
	}

	row := 2
	for _, d := range card.Entries() {
		dr := results[d.Line]
		b := dr.Buckets
		values := []interface{}{
			d.Line, Date(d.Date), Weekday(d.Date),
			d.Entry1, d.Exit1, d.Entry2, d.Exit2, d.Entry3, d.Exit3,
			dr.Worked, dr.Expected, dr.Overtime,
			b.Tier50, b.Tier75, b.Tier100, b.Tier125, b.Banked, b.Lateness,
			dr.WeekKey,
		}
		if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
			return fmt.Errorf("%s line %d: %w", sheet, d.Line, err)
		}
		row++
	}
	return nil
}

func writeWeekSheet(f *excelize.File, cls *timecard.Classification) error {
	if err := f.SetSheetRow(SheetWeeks, "A1", &weekHeader); err != nil {
		return err
	}

	row := 2
	for _, wk := range cls.Weeks {
		b := wk.Buckets
		values := []interface{}{
			wk.Key, Date(wk.Start), Date(wk.End),
			b.Tier50, b.Tier75, b.Tier100, b.Tier125, b.Banked, b.Lateness,
			wk.Value.InexactFloat64(),
		}
		if err := f.SetSheetRow(SheetWeeks, cell(1, row), &values); err != nil {
			return err
		}
		row++
	}

	t := cls.Totals
	totals := []interface{}{
		"Total", "", "",
		t.Tier50, t.Tier75, t.Tier100, t.Tier125, t.Banked, t.Lateness,
		cls.TotalValue.InexactFloat64(),
	}
	return f.SetSheetRow(SheetWeeks, cell(1, row), &totals)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
