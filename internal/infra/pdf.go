package infra

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"evot/internal/model"

	"github.com/go-pdf/fpdf"
)

// DiplomaCertificado is the data printed on a diploma certificate.
type DiplomaCertificado struct {
	CodigoDiploma     string
	NombrePrograma    string
	NivelPrograma     string
	RegistroPrograma  string
	Libro             string
	FechaGrados       time.Time
	Cedula            int64
	NombreGraduado    string
	NombreInstitucion string
	Ciudad            string
	Estado            bool
}

// GenerarDiplomaPDF renders a one-page landscape certificate and returns the
// bytes. Nothing is written to disk.
func GenerarDiplomaPDF(d DiplomaCertificado) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle("Diploma "+d.CodigoDiploma, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 40

	pdf.SetLineWidth(0.8)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(contentW, 14, tr(d.NombreInstitucion), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, tr(d.Ciudad), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	// ── Body ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(contentW, 8, tr("Otorga el título de"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 12, tr(d.NombrePrograma), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(contentW, 7, tr("Nivel: "+d.NivelPrograma), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(contentW, 8, "a", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 12, tr(d.NombreGraduado), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(contentW, 7, tr("Cédula "+strconv.FormatInt(d.Cedula, 10)), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	// ── Registry data ────────────────────────────────────────────────────────
	col := contentW / 4
	pdf.SetFont("Helvetica", "B", 9)
	for _, h := range []string{"Código", "Registro del programa", "Libro", "Fecha de grados"} {
		pdf.CellFormat(col, 6, tr(h), "B", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, v := range []string{d.CodigoDiploma, d.RegistroPrograma, d.Libro, d.FechaGrados.Format("02/01/2006")} {
		pdf.CellFormat(col, 6, tr(v), "", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	if !d.Estado {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(contentW, 8, "ANULADO", "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// CertificadoDeDiploma flattens a diploma loaded with its graduate and
// institution into certificate data.
func CertificadoDeDiploma(d *model.Diploma) DiplomaCertificado {
	c := DiplomaCertificado{
		CodigoDiploma:    d.CodigoDiploma,
		NombrePrograma:   d.NombrePrograma,
		NivelPrograma:    d.NivelPrograma,
		RegistroPrograma: d.RegistroPrograma,
		Libro:            d.Libro,
		FechaGrados:      d.FechaGrados,
		Estado:           d.Estado,
	}
	if d.Graduado != nil {
		c.Cedula = d.Graduado.Cedula
		c.NombreGraduado = d.Graduado.NombreCompleto
	}
	if d.Institucion != nil {
		c.NombreInstitucion = d.Institucion.NombreInstitucion
		c.Ciudad = d.Institucion.Ciudad
	}
	return c
}
