package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"SyncBoard/internal/state"
)

const (
	pageMarginMM = 10
	// pdfDPI is the resolution the board is rasterized at for the page.
	pdfDPI   = 150
	mmToInch = 25.4
)

// WritePDF lays the board out on one A4 landscape page and writes the document to w.
func WritePDF(w io.Writer, lines []state.Line, title string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("SyncBoard", true)
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	areaW, areaH := pageW-2*pageMarginMM, pageH-2*pageMarginMM
	pxW := int(areaW / mmToInch * pdfDPI)
	pxH := int(areaH / mmToInch * pdfDPI)

	var buf bytes.Buffer
	if err := png.Encode(&buf, Image(lines, pxW, pxH, 0)); err != nil {
		return fmt.Errorf("encode page image: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("board", opts, &buf)
	pdf.ImageOptions("board", pageMarginMM, pageMarginMM, areaW, areaH, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
