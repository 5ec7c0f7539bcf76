package main

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"ledger/internal/core"
	"ledger/internal/derive"
)

// completion describes the command line for shell completion. Install it
// with COMP_INSTALL=1 ledger.
func completion() *complete.Command {
	var products, units, filters predict.Set
	for _, p := range core.Products() {
		products = append(products, string(p))
	}
	for _, u := range core.Units() {
		units = append(units, string(u))
	}
	filters = append(predict.Set{string(derive.FilterAll), string(derive.FilterPurchase), string(derive.FilterSale)}, products...)
	sorts := predict.Set{string(derive.SortNewest), string(derive.SortOldest), string(derive.SortAmountDesc), string(derive.SortPriceDesc)}

	account := map[string]complete.Predictor{"u": predict.Something, "p": predict.Something}
	month := map[string]complete.Predictor{"month": predict.Something, "shift": predict.Something}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"server":  predict.Something,
			"session": predict.Files("*.json"),
			"file":    predict.Files("*.json"),
			"plain":   predict.Nothing,
			"width":   predict.Something,
		},
		Sub: map[string]*complete.Command{
			"login": {Flags: account},
			"register": {Flags: map[string]complete.Predictor{
				"u": predict.Something, "p": predict.Something, "email": predict.Something,
			}},
			"logout": {},
			"add": {Flags: map[string]complete.Predictor{
				"type":    predict.Set{string(core.Purchase), string(core.Sale)},
				"product": products,
				"amount":  predict.Something,
				"unit":    units,
				"price":   predict.Something,
				"date":    predict.Something,
			}},
			"delete":    {Args: predict.Something},
			"list":      {Flags: map[string]complete.Predictor{"filter": filters, "sort": sorts}},
			"inventory": {},
			"totals":    {},
			"calendar":  {Flags: month},
			"report": {Flags: map[string]complete.Predictor{
				"filter": filters, "sort": sorts, "month": predict.Something, "shift": predict.Something,
			}},
		},
	}
}
