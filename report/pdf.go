package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/timecard-engine/payroll"
)

// Header identifies whose settlement is printed.
type Header struct {
	EmployeeID   string
	EmployeeName string
	GeneratedAt  time.Time
}

// column widths in mm: code, label, hours, earning, deduction
var itemCols = [5]float64{16, 84, 22, 34, 34}

// SettlementPDF writes a one-page settlement statement to w.
func SettlementPDF(w io.Writer, h Header, st *payroll.Settlement) error {
	if st == nil {
		return fmt.Errorf("settlement is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(latin(fmt.Sprintf("Fechamento %02d/%d", int(st.Month), st.Year)), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, latin("Demonstrativo de fechamento"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	name := h.EmployeeName
	if name == "" {
		name = h.EmployeeID
	}
	line(pdf, fmt.Sprintf("Colaborador: %s", name))
	line(pdf, fmt.Sprintf("Competência: %02d/%d (%s a %s)", int(st.Month), st.Year, Date(st.Window.Start), Date(st.Window.End)))
	line(pdf, fmt.Sprintf("Dias úteis: %d   Domingos e feriados: %d", st.Days.BusinessDays, st.Days.RestDays))
	line(pdf, fmt.Sprintf("Valor hora: %s", Money(st.Rates.Hourly)))
	pdf.Ln(4)

	// Items table
	pdf.SetFont("Helvetica", "B", 10)
	for i, title := range []string{"Cód.", "Descrição", "Ref.", "Proventos", "Descontos"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(itemCols[i], 7, latin(title), "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range st.Items {
		ref := ""
		if !it.Hours.IsZero() {
			ref = it.Hours.StringFixed(2)
		}
		earning, deduction := "", ""
		if it.Kind == payroll.Earning {
			earning = Money(it.Amount)
		} else {
			deduction = Money(it.Amount)
		}
		pdf.CellFormat(itemCols[0], 6, it.Code, "", 0, "L", false, 0, "")
		pdf.CellFormat(itemCols[1], 6, latin(it.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(itemCols[2], 6, ref, "", 0, "R", false, 0, "")
		pdf.CellFormat(itemCols[3], 6, latin(earning), "", 0, "R", false, 0, "")
		pdf.CellFormat(itemCols[4], 6, latin(deduction), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	line(pdf, fmt.Sprintf("Bruto: %s", Money(st.Gross)))
	line(pdf, fmt.Sprintf("Líquido: %s", Money(st.NetRounded)))
	pdf.SetFont("Helvetica", "", 10)
	if !st.AdvanceGross.IsZero() {
		line(pdf, fmt.Sprintf("Adiantamento líquido: %s (IR retido %s)", Money(st.AdvanceNet), Money(st.AdvanceIR)))
	}
	line(pdf, fmt.Sprintf("Total recebido no mês: %s", Money(st.TotalReceived)))
	line(pdf, fmt.Sprintf("IRRF: tabela %s, redutor %s, devido %s", Money(st.IRTraditional), Money(st.IRReducer), Money(st.IRTotal)))
	if !st.Residual.IsZero() {
		line(pdf, fmt.Sprintf("Diferença de arredondamento: %s", Money(st.Residual)))
	}

	if !h.GeneratedAt.IsZero() {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 8)
		line(pdf, fmt.Sprintf("Gerado em %s", h.GeneratedAt.Format("02/01/2006 15:04")))
	}

	return pdf.Output(w)
}

func line(pdf *gofpdf.Fpdf, text string) {
	pdf.Cell(0, 6, latin(text))
	pdf.Ln(6)
}
