package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

func TestFlattenPackagePreservesOrderAndBuckets(t *testing.T) {
	pkg := &models.InvoicePackage{
		Invoice: models.Invoice{
			Vendor:        models.VendorCelcom,
			InvoiceNumber: "556677889900",
			Currency:      "MYR",
			Subtotal:      models.MoneyPtr(floatp(98.00)),
			FileSHA256:    "abc123",
		},
		Numbers: []models.NumberEntry{
			{MSISDN: "60132223344", Plan: "MEGA Lightning 98"},
			{MSISDN: "60198765432"},
		},
		ChargesSummary: []models.SummaryRow{
			{Label: "Monthly Charges", Total: models.MoneyPtr(floatp(98.00))},
			{Label: "Local Calls & Messages", Total: models.MoneyPtr(floatp(0.15))},
		},
		PreviousPayments: []models.Payment{
			{Description: "Online Payment", Date: "2025-07-15", Amount: models.MoneyPtr(floatp(100))},
		},
	}

	header, numbers, charges, payments := flattenPackage("id-1", pkg)

	assert.Equal(t, "celcom", header.Vendor)
	assert.Equal(t, "556677889900", header.InvoiceNumber)
	assert.Equal(t, "abc123", header.FileSHA256)

	require.Len(t, numbers, 2)
	assert.Equal(t, 0, numbers[0].Position)
	assert.Equal(t, "60132223344", numbers[0].MSISDN)
	assert.Equal(t, 1, numbers[1].Position)

	require.Len(t, charges, 2)
	for i, c := range charges {
		assert.Equal(t, bucketSummary, c.Bucket)
		assert.Equal(t, i, c.Position)
		assert.Equal(t, "id-1", c.InvoiceID)
	}
	assert.Equal(t, "Monthly Charges", charges[0].Label)

	require.Len(t, payments, 1)
	assert.Equal(t, "2025-07-15", payments[0].PaidDate)
}

func TestFlattenPackageFixedTaxonomyBucket(t *testing.T) {
	pkg := &models.InvoicePackage{
		Invoice: models.Invoice{Vendor: models.VendorDigi, Currency: "MYR"},
		Charges: []models.Charge{
			{Category: "Previous", Label: "Previous Balance", Amount: models.MoneyPtr(floatp(250))},
			{Category: "Payments", Label: "Payment Received", Amount: models.MoneyPtr(floatp(-250))},
		},
	}

	_, _, charges, _ := flattenPackage("id-2", pkg)
	require.Len(t, charges, 2)
	assert.Equal(t, bucketCharges, charges[0].Bucket)
	assert.Equal(t, "Payments", charges[1].Category)
	assert.Equal(t, "-250", charges[1].Amount.String())
}

func floatp(f float64) *float64 { return &f }
