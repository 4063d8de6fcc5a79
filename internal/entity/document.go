package entity

// Page is one page as delivered by the document layer.
type Page struct {
	Number    int            `json:"number"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Text      string         `json:"text"`
	Fragments []TextFragment `json:"fragments,omitempty"`
}

// Document is the bundle handed over by the document layer.
type Document struct {
	Source string     `json:"source,omitempty"`
	Pages  []Page     `json:"pages"`
	Tables []PageGrid `json:"tables,omitempty"`
}
