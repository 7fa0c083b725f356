package app

import (
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/supplier"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// Static built-in reference data, used only when the supplier, the
// last-known-good cache and the database all come up empty. Kept small and
// boring: enough for the frontend to render a usable search form.

func region(s string) *string { return &s }

var fallbackCities = []domain.City{
	{ID: 1, Name: "Tunis", Region: region("Grand Tunis")},
	{ID: 2, Name: "Hammamet", Region: region("Cap Bon")},
	{ID: 3, Name: "Sousse", Region: region("Sahel")},
	{ID: 4, Name: "Monastir", Region: region("Sahel")},
	{ID: 5, Name: "Mahdia", Region: region("Sahel")},
	{ID: 6, Name: "Djerba", Region: region("Sud")},
	{ID: 7, Name: "Tozeur", Region: region("Sud")},
	{ID: 8, Name: "Tabarka", Region: region("Nord")},
}

func code(s string) *string { return &s }

var fallbackReference = map[string][]domain.ReferenceItem{
	supplier.SvcListCurrency: {
		{ID: 1, Title: "Tunisian Dinar", Code: code("TND")},
		{ID: 2, Title: "Euro", Code: code("EUR")},
		{ID: 3, Title: "US Dollar", Code: code("USD")},
	},
	supplier.SvcListBoarding: {
		{ID: 1, Title: "Bed & Breakfast", Code: code("BB")},
		{ID: 2, Title: "Half Board", Code: code("HB")},
		{ID: 3, Title: "Full Board", Code: code("FB")},
		{ID: 4, Title: "All Inclusive", Code: code("AI")},
	},
	supplier.SvcListLanguage: {
		{ID: 1, Title: "Arabic", Code: code("ar")},
		{ID: 2, Title: "French", Code: code("fr")},
		{ID: 3, Title: "English", Code: code("en")},
	},
}
