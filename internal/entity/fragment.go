package entity

// TextFragment is a positioned piece of page text. Coordinates grow to the
// right and downwards.
type TextFragment struct {
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Text string  `json:"text"`
}

func (f TextFragment) Width() float64   { return f.X1 - f.X0 }
func (f TextFragment) Height() float64  { return f.Y1 - f.Y0 }
func (f TextFragment) CenterX() float64 { return (f.X0 + f.X1) / 2 }
func (f TextFragment) CenterY() float64 { return (f.Y0 + f.Y1) / 2 }

// EntityBlockGroup splits the header fragments into the two parties.
// Concatenating Sender and Recipient gives back the filtered sequence.
type EntityBlockGroup struct {
	Sender    []TextFragment `json:"sender_blocks"`
	Recipient []TextFragment `json:"recipient_blocks"`
}
