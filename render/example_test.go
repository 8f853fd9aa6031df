package render_test

import (
	"bytes"
	"fmt"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/binding"
	"github.com/medira/billforge/render"
)

func ExampleRenderer_Render() {
	doc := billforge.Default()

	ctx := binding.Context{
		"pharmacy_name": "City Care Pharmacy",
		"address":       "New Road, Pokhara",
		"oda_number":    "778",
		"bill_number":   "INV-1001",
		"invoice_date":  "2024-11-02",
		"customer_name": "Hari Prasad",
		"items": []billforge.LineItem{
			{Name: "Amoxicillin 250mg", Qty: 2, Rate: 45},
			{Name: "Cetirizine 10mg", Qty: 1, Rate: 30},
		},
	}

	var buf bytes.Buffer
	res, err := render.NewRenderer().Render(&buf, doc, ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("pages: %d\n", res.Pages)
	// Output: pages: 1
}
