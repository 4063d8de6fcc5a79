package templates

import "github.com/joseph-ayodele/docextract/constants"

// EInvoiceID is the id of the Turkish e-invoice template.
const EInvoiceID = "tr_efatura"

const (
	dateValue   = `(\d{1,2}[\s\-\./]\d{1,2}[\s\-\./]\d{2,4})`
	shortDate   = `(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})`
	amountValue = `([\d\.,]+\s*(?:TL|TRY|USD|EUR|GBP)?)`
)

// TurkishEInvoice describes e-Fatura and e-Arşiv invoices. Patterns run
// case-insensitively.
func TurkishEInvoice() Template {
	meta := func(name string, patterns ...string) Field {
		return Field{Name: name, Group: GroupMetadata, Type: constants.FieldTypeString, Patterns: patterns}
	}
	total := func(name string, keywords []string, patterns ...string) Field {
		return Field{
			Name:          name,
			Group:         GroupTotals,
			Type:          constants.FieldTypeAmount,
			Patterns:      patterns,
			TableKeywords: keywords,
		}
	}

	return Template{
		ID:   EInvoiceID,
		Name: "Türkiye E-Fatura",
		DetectionPatterns: []string{
			`e-ar[şs]iv\s+fatura`,
			`fatura\s+no\s*:`,
			`ettn\s*:`,
			`mal\s+hizmet.*tutar`,
			`vergi\s+dairesi`,
		},
		Fields: []Field{
			meta("fatura_no",
				`fatura\s+no\.?\s*[:\-]?\s*([A-Z0-9]+)`,
				`fatura\s+numaras[ıi]\.?\s*[:\-]?\s*([A-Z0-9]+)`,
				`invoice\s+no\.?\s*[:\-]?\s*([A-Z0-9]+)`,
				`invoice\s+number\.?\s*[:\-]?\s*([A-Z0-9]+)`,
				`belge\s+no\.?\s*[:\-]?\s*([A-Z0-9]+)`,
				`document\s+no\.?\s*[:\-]?\s*([A-Z0-9]+)`,
				`fatura\s*#\s*([A-Z0-9]+)`,
			),
			meta("tarih",
				`fatura\s+tarihi?\s*[:\-]?\s*`+dateValue,
				`tarih\s*[:\-]\s*`+dateValue,
				`invoice\s+date\s*[:\-]?\s*`+dateValue,
				`date\s*[:\-]\s*`+dateValue,
				`d[üu]zenleme\s+tarihi\s*[:\-]?\s*`+dateValue,
				`belge\s+tarihi\s*[:\-]?\s*`+dateValue,
				// any date on the page
				`(\d{1,2}[\s\-\./]\d{1,2}[\s\-\./]\d{4})`,
			),
			meta("ettn",
				`ettn\s*[:\-]\s*([a-f0-9\-]{36})`,
				`e-fatura\s+uuid\s*[:\-]\s*([a-f0-9\-]{36})`,
			),
			meta("ozellestirme_no",
				`[öo]zelle[şs]tirme\s+no\s*[:\-]\s*([A-Z0-9\.]+)`,
				`customization\s+no\s*[:\-]\s*([A-Z0-9\.]+)`,
			),
			meta("senaryo",
				`senaryo\s*[:\-]\s*([A-Z]+)`,
				`scenario\s*[:\-]\s*([A-Z]+)`,
			),
			meta("fatura_tipi",
				`fatura\s+tipi\s*[:\-]\s*([A-ZÇĞİÖŞÜ]+)`,
				`invoice\s+type\s*[:\-]\s*([A-Z]+)`,
			),
			meta("siparis_no",
				`sipari[şs]\s+no\s*[:\-]\s*([A-Z0-9]+)`,
				`order\s+no\s*[:\-]\s*([A-Z0-9]+)`,
				`order\s+number\s*[:\-]\s*([A-Z0-9]+)`,
			),
			meta("siparis_tarihi",
				`sipari[şs]\s+tarihi\s*[:\-]\s*`+shortDate,
				`order\s+date\s*[:\-]\s*`+shortDate,
			),
			meta("son_odeme_tarihi",
				`son\s+[öo]deme\s+tarihi\s*[:\-]?\s*`+shortDate,
				`due\s+date\s*[:\-]\s*`+shortDate,
			),
			meta("olusma_zamani",
				`olu[şs]ma\s+zaman[ıi]\s*[:\-]\s*(\d{2}:\d{2}:\d{2})`,
				`creation\s+time\s*[:\-]\s*(\d{2}:\d{2}:\d{2})`,
			),

			total("mal_hizmet_toplam",
				[]string{"mal hizmet toplam", "mal/hizmet toplam", "ara toplam", "subtotal"},
				`mal\s+hizmet\s+toplam\s+tutar[ıi]?\s*[:\-]\s*`+amountValue,
				`ara\s+toplam\s*[:\-]\s*`+amountValue,
				`subtotal\s*[:\-]\s*`+amountValue,
			),
			total("toplam_iskonto",
				[]string{"toplam iskonto", "toplam i\u0307skonto", "toplam indirim", "total discount"},
				`toplam\s+[iİ]skonto\s*[:\-]\s*`+amountValue,
				`total\s+discount\s*[:\-]\s*`+amountValue,
			),
			total("kdv_matrahi",
				[]string{"kdv matrah", "kdv matrahı", "vat base"},
				`kdv\s+matrah[ıi]?\s*(?:\([^)]+\))?\s*[:\-]\s*`+amountValue,
				`vat\s+base\s*[:\-]\s*`+amountValue,
			),
			total("vergi_haric_tutar",
				[]string{"vergi hariç", "vergi haric", "tax exclusive"},
				`vergi\s+hari[çc]\s+tutar\s*[:\-]\s*`+amountValue,
				`tax\s+exclusive\s+amount\s*[:\-]\s*`+amountValue,
			),
			total("hesaplanan_kdv",
				[]string{"hesaplanan kdv", "toplam kdv", "calculated vat", "total vat"},
				`hesaplanan\s+kdv\s*(?:\([^)]+\))?\s*[:\-]?\s*`+amountValue,
				`calculated\s+vat\s*[:\-]\s*`+amountValue,
				`toplam\s+kdv\s*[:\-]\s*`+amountValue,
			),
			total("vergiler_dahil_toplam",
				[]string{"vergiler dahil toplam", "vergi dahil toplam", "tax inclusive"},
				`vergiler\s+dahil\s+toplam\s+tutar\s*[:\-]\s*`+amountValue,
				`vergi\s+dahil\s+toplam\s*[:\-]\s*`+amountValue,
				`tax\s+inclusive\s+total\s*[:\-]\s*`+amountValue,
			),
			total("odenecek_tutar",
				[]string{"ödenecek tutar", "odenecek tutar", "genel toplam", "grand total", "payable"},
				`[öo]denecek\s+tutar\s*[:\-]\s*`+amountValue,
				`genel\s+toplam\s*[:\-]\s*`+amountValue,
				`payable\s+amount\s*[:\-]\s*`+amountValue,
				`grand\s+total\s*[:\-]\s*`+amountValue,
			),
		},
	}
}
