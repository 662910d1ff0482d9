package whatsapp

import (
	"io"

	"github.com/mdp/qrterminal/v3"
)

// QRRenderer prints pairing codes as terminal QR codes.
type QRRenderer struct {
	out io.Writer
}

func NewQRRenderer(out io.Writer) *QRRenderer {
	return &QRRenderer{out: out}
}

func (r *QRRenderer) Render(code string) {
	qrterminal.GenerateHalfBlock(code, qrterminal.L, r.out)
}
